package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sorriai/pkg/domain"
)

func generatePhoto(t *testing.T, env *testEnv, actor domain.User) (domain.User, string, error) {
	t.Helper()
	photo := []byte("selfie-bytes")
	return env.app.GenerateProfilePhoto(context.Background(), actor, "selfie.jpg", bytes.NewReader(photo), int64(len(photo)), "image/jpeg")
}

func TestGenerateProfilePhoto(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)

	updated, url, err := generatePhoto(t, env, user)
	if err != nil {
		t.Fatalf("GenerateProfilePhoto: %v", err)
	}
	if updated.ProfilePhotoCount != 1 || updated.ProfilePhotoAt == nil {
		t.Fatalf("photo counters not updated: %+v", updated)
	}
	if !strings.HasPrefix(updated.ProfilePhotoKey, "profiles/"+user.ID+"/") {
		t.Fatalf("unexpected photo key %q", updated.ProfilePhotoKey)
	}
	if url == "" {
		t.Fatalf("expected a presigned url")
	}
	if env.editor.calls != 1 {
		t.Fatalf("editor calls = %d, want 1", env.editor.calls)
	}
	if !strings.Contains(env.editor.lastPrompt, "foto de perfil profissional") {
		t.Fatalf("unexpected prompt: %q", env.editor.lastPrompt)
	}
	if got := env.objects.get("profile-photos", updated.ProfilePhotoKey); string(got) != "png-bytes" {
		t.Fatalf("stored photo = %q", got)
	}
}

func TestGenerateProfilePhotoFreeLimit(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)

	updated, _, err := generatePhoto(t, env, user)
	if err != nil {
		t.Fatalf("first generation: %v", err)
	}
	// One ever on free, even across months.
	env.clock.Advance(40 * 24 * time.Hour)
	if _, _, err := generatePhoto(t, env, updated); !errors.Is(err, ErrPhotoLimitReached) {
		t.Fatalf("second generation error = %v, want ErrPhotoLimitReached", err)
	}
}

func TestGenerateProfilePhotoProMonthly(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanPro)

	updated, _, err := generatePhoto(t, env, user)
	if err != nil {
		t.Fatalf("first generation: %v", err)
	}
	if _, _, err := generatePhoto(t, env, updated); !errors.Is(err, ErrPhotoLimitReached) {
		t.Fatalf("same-month generation error = %v, want ErrPhotoLimitReached", err)
	}

	env.clock.Advance(31 * 24 * time.Hour)
	again, _, err := generatePhoto(t, env, updated)
	if err != nil {
		t.Fatalf("next-month generation: %v", err)
	}
	if again.ProfilePhotoCount != 2 {
		t.Fatalf("count = %d, want 2", again.ProfilePhotoCount)
	}
}

func TestGenerateProfilePhotoRejectsBadUploads(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)

	data := []byte("not-an-image")
	_, _, err := env.app.GenerateProfilePhoto(context.Background(), user, "doc.pdf", bytes.NewReader(data), int64(len(data)), "application/pdf")
	if !errors.Is(err, ErrUnsupportedImageType) {
		t.Fatalf("pdf upload error = %v, want ErrUnsupportedImageType", err)
	}
	if _, _, err := env.app.GenerateProfilePhoto(context.Background(), user, "x.jpg", nil, 0, "image/jpeg"); !errors.Is(err, ErrUnsupportedImageType) {
		t.Fatalf("empty upload error = %v, want ErrUnsupportedImageType", err)
	}
}

func TestGenerateProfilePhotoFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	env.editor.err = errors.New("model offline")

	if _, _, err := generatePhoto(t, env, user); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
	// A failed generation spends nothing.
	stored, _, _ := env.store.GetUserByID(user.ID)
	if stored.ProfilePhotoCount != 0 || stored.ProfilePhotoKey != "" {
		t.Fatalf("failed generation mutated the profile: %+v", stored)
	}
	if env.objects.count() != 0 {
		t.Fatalf("failed generation left an object behind")
	}
}
