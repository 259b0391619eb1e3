package app

import (
	"context"
	"fmt"
	"io"

	"sorriai/pkg/domain"
)

// QueueItem is one entry of the fulfillment queue: the script plus the
// owner identity and the urgency label the operator sorts by.
type QueueItem struct {
	Script        domain.Script `json:"script"`
	OwnerEmail    string        `json:"ownerEmail"`
	OwnerName     string        `json:"ownerName,omitempty"`
	OwnerPlan     domain.Plan   `json:"ownerPlan"`
	DeliveryLabel string        `json:"deliveryLabel,omitempty"`
}

func (a *App) requireAdmin(actor domain.User) error {
	if actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (a *App) queueItems(scripts []domain.Script) ([]QueueItem, error) {
	items := make([]QueueItem, 0, len(scripts))
	for _, script := range scripts {
		item := QueueItem{Script: script, DeliveryLabel: a.DeliveryLabelFor(script)}
		owner, ok, err := a.store.GetUserByID(script.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("fetch owner: %w", err)
		}
		if ok {
			item.OwnerEmail = owner.Email
			item.OwnerName = owner.FullName
			item.OwnerPlan = owner.Plan
		}
		items = append(items, item)
	}
	return items, nil
}

// FulfillmentQueue lists every script waiting in editing across all
// accounts, most urgent delivery first.
func (a *App) FulfillmentQueue(actor domain.User) ([]QueueItem, error) {
	if err := a.requireAdmin(actor); err != nil {
		return nil, err
	}
	scripts, err := a.store.ListScriptsByStatus(domain.StatusEditing)
	if err != nil {
		return nil, fmt.Errorf("list editing scripts: %w", err)
	}
	return a.queueItems(scripts)
}

// Delivered lists published scripts across all accounts, newest delivery
// first.
func (a *App) Delivered(actor domain.User) ([]QueueItem, error) {
	if err := a.requireAdmin(actor); err != nil {
		return nil, err
	}
	scripts, err := a.store.ListScriptsByStatus(domain.StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("list published scripts: %w", err)
	}
	return a.queueItems(scripts)
}

func (a *App) adminScript(actor domain.User, scriptID string) (domain.Script, error) {
	if err := a.requireAdmin(actor); err != nil {
		return domain.Script{}, err
	}
	script, ok, err := a.store.GetScript(scriptID)
	if err != nil {
		return domain.Script{}, fmt.Errorf("fetch script: %w", err)
	}
	if !ok {
		return domain.Script{}, ErrScriptNotFound
	}
	return script, nil
}

// DownloadRaw presigns the raw recording for the editor to pull.
func (a *App) DownloadRaw(ctx context.Context, actor domain.User, scriptID string) (string, error) {
	script, err := a.adminScript(actor, scriptID)
	if err != nil {
		return "", err
	}
	if script.RawVideoURL == "" {
		return "", ErrAssetUnavailable
	}
	url, err := a.objects.PresignGet(ctx, a.rawBucket, script.RawVideoURL, a.presignExpiry)
	if err != nil {
		return "", ErrAssetUnavailable
	}
	return url, nil
}

// DownloadEdited presigns the delivered video.
func (a *App) DownloadEdited(ctx context.Context, actor domain.User, scriptID string) (string, error) {
	script, err := a.adminScript(actor, scriptID)
	if err != nil {
		return "", err
	}
	if script.EditedVideoURL == "" {
		return "", ErrAssetUnavailable
	}
	url, err := a.objects.PresignGet(ctx, a.editedBucket, script.EditedVideoURL, a.presignExpiry)
	if err != nil {
		return "", ErrAssetUnavailable
	}
	return url, nil
}

// DeliverEdited uploads the edited video and moves the script from editing
// to published. The upload lands before the status flips, so a published
// script always has a playable video.
func (a *App) DeliverEdited(ctx context.Context, actor domain.User, scriptID, filename string, video io.Reader, size int64, contentType string) (domain.Script, error) {
	script, err := a.adminScript(actor, scriptID)
	if err != nil {
		return domain.Script{}, err
	}
	if video == nil || size <= 0 {
		return domain.Script{}, ErrVideoFileRequired
	}
	if !domain.CanTransition(script.Status, domain.StatusPublished) {
		return domain.Script{}, ErrInvalidTransition
	}

	key := buildVideoKey(script.ID, "edited", filename)
	if err := a.objects.Put(ctx, a.editedBucket, key, video, size, contentType); err != nil {
		return domain.Script{}, fmt.Errorf("store edited video: %w", err)
	}

	now := a.now().UTC()
	err = a.store.UpdateScriptFields(script.ID, map[string]any{
		"status":               string(domain.StatusPublished),
		"edited_video_url":     key,
		"editing_completed_at": now,
		"updated_at":           now,
	})
	if err != nil {
		a.discardObject(ctx, a.editedBucket, key)
		return domain.Script{}, fmt.Errorf("publish script: %w", err)
	}
	script.Status = domain.StatusPublished
	script.EditedVideoURL = key
	script.EditingCompletedAt = &now
	script.UpdatedAt = now
	a.publishLifecycle(ctx, script)
	return script, nil
}
