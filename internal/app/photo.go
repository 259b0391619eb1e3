package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"sorriai/internal/util"
	"sorriai/pkg/domain"
)

// profilePhotoPrompt asks for a studio-grade headshot while keeping the
// dentist's actual face; the frontend uploads whatever the camera gives.
const profilePhotoPrompt = `Edite essa imagem. Preciso de uma foto de perfil profissional, em alta resolução, mantendo a estrutura facial exata, identidade e características principais da pessoa na imagem de entrada. O sujeito é enquadrado do peito pra cima, com bastante espaço acima da cabeça e espaço negativo, garantindo que o topo da cabeça não seja cortado. A pessoa olha diretamente pra câmera com uma expressão confiante e autoritária, e o corpo do sujeito está posicionado em um ângulo de 3/4 em relação à câmera. O fundo é um estúdio neutro sólido "#141414". Filmado de um ângulo alto com iluminação de estúdio suave, brilhante e arejada, iluminando suavemente o rosto e criando um leve brilho nos olhos, transmitindo uma sensação de autoridade e liderança. Capturado em uma lente 85mm f/1.8 com pouca profundidade de campo, foco requintado nos olhos e bokeh bonito e suave. Observe os detalhes nítidos na textura do tecido do traje, fios de cabelo individuais e textura natural e realista da pele, sem aparência artificial. A atmosfera exala confiança, profissionalismo e presença. Classificação de cores cinematográfica limpa e brilhante com calor sutil e tons equilibrados, garantindo uma sensação polida e contemporânea. Usar looks terno de juíz.`

const maxPhotoBytes = 10 << 20

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// GenerateProfilePhoto runs the uploaded photo through the image model and
// stores the enhanced headshot. Free accounts get one generation ever, pro
// accounts one per calendar month.
func (a *App) GenerateProfilePhoto(ctx context.Context, actor domain.User, filename string, photo io.Reader, size int64, contentType string) (domain.User, string, error) {
	if a.images == nil {
		return domain.User{}, "", ErrPhotoNotConfigured
	}
	if photo == nil || size <= 0 {
		return domain.User{}, "", ErrUnsupportedImageType
	}
	if !allowedPhotoTypes[contentType] {
		return domain.User{}, "", ErrUnsupportedImageType
	}
	if size > maxPhotoBytes {
		return domain.User{}, "", ErrUnsupportedImageType
	}

	user, err := a.freshProfile(actor.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	now := a.now().UTC()
	switch user.Plan {
	case domain.PlanPro:
		if user.ProfilePhotoAt != nil {
			last := user.ProfilePhotoAt.UTC()
			if last.Month() == now.Month() && last.Year() == now.Year() {
				return domain.User{}, "", ErrPhotoLimitReached
			}
		}
	default:
		if user.ProfilePhotoCount >= 1 {
			return domain.User{}, "", ErrPhotoLimitReached
		}
	}

	source, err := io.ReadAll(io.LimitReader(photo, maxPhotoBytes+1))
	if err != nil {
		return domain.User{}, "", fmt.Errorf("read photo: %w", err)
	}
	if len(source) > maxPhotoBytes {
		return domain.User{}, "", ErrUnsupportedImageType
	}

	enhanced, err := a.images.EditImage(ctx, profilePhotoPrompt, source, path.Base(filename))
	if err != nil {
		return domain.User{}, "", ErrGenerationFailed
	}

	key := path.Join("profiles", user.ID, util.NewID()+".png")
	if err := a.objects.Put(ctx, a.photoBucket, key, bytes.NewReader(enhanced), int64(len(enhanced)), "image/png"); err != nil {
		return domain.User{}, "", fmt.Errorf("store profile photo: %w", err)
	}

	err = a.store.UpdateUserFields(user.ID, map[string]any{
		"profile_photo_key":   key,
		"profile_photo_count": user.ProfilePhotoCount + 1,
		"profile_photo_at":    now,
		"updated_at":          now,
	})
	if err != nil {
		a.discardObject(ctx, a.photoBucket, key)
		return domain.User{}, "", fmt.Errorf("update profile photo: %w", err)
	}
	user.ProfilePhotoKey = key
	user.ProfilePhotoCount++
	user.ProfilePhotoAt = &now
	user.UpdatedAt = now

	url, err := a.objects.PresignGet(ctx, a.photoBucket, key, a.presignExpiry)
	if err != nil {
		return user, "", nil
	}
	return user, url, nil
}

// ProfilePhotoLink presigns the stored headshot.
func (a *App) ProfilePhotoLink(ctx context.Context, actor domain.User) (string, error) {
	if actor.ProfilePhotoKey == "" {
		return "", ErrAssetUnavailable
	}
	url, err := a.objects.PresignGet(ctx, a.photoBucket, actor.ProfilePhotoKey, a.presignExpiry)
	if err != nil {
		return "", ErrAssetUnavailable
	}
	return url, nil
}
