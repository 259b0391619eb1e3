package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"sorriai/internal/events"
	"sorriai/internal/util"
	"sorriai/pkg/domain"
	"sorriai/pkg/store"
)

// ownedScript fetches a script and enforces ownership. Missing scripts and
// foreign scripts are indistinguishable to the caller.
func (a *App) ownedScript(actor domain.User, scriptID string) (domain.Script, error) {
	script, ok, err := a.store.GetScript(scriptID)
	if err != nil {
		return domain.Script{}, fmt.Errorf("fetch script: %w", err)
	}
	if !ok || script.OwnerID != actor.ID {
		return domain.Script{}, ErrScriptNotFound
	}
	return script, nil
}

// ListScripts returns the actor's scripts ordered for the board view.
func (a *App) ListScripts(actor domain.User) ([]domain.Script, error) {
	return a.store.ListScriptsByOwner(actor.ID)
}

// GetScript returns a single script owned by the actor.
func (a *App) GetScript(actor domain.User, scriptID string) (domain.Script, error) {
	return a.ownedScript(actor, scriptID)
}

// MarkRecorded moves a script from the script stage to recorded, meaning
// the dentist has filmed it and it is ready for an editing submission.
func (a *App) MarkRecorded(actor domain.User, scriptID string) (domain.Script, error) {
	script, err := a.ownedScript(actor, scriptID)
	if err != nil {
		return domain.Script{}, err
	}
	if !domain.CanTransition(script.Status, domain.StatusRecorded) {
		return domain.Script{}, ErrInvalidTransition
	}
	// An idea without generated content is only valid in the script lane.
	if !script.ContentGenerated {
		return domain.Script{}, ErrInvalidTransition
	}
	now := a.now().UTC()
	err = a.store.UpdateScriptFields(script.ID, map[string]any{
		"status":      string(domain.StatusRecorded),
		"recorded_at": now,
		"updated_at":  now,
	})
	if err != nil {
		return domain.Script{}, fmt.Errorf("update script: %w", err)
	}
	script.Status = domain.StatusRecorded
	script.RecordedAt = &now
	script.UpdatedAt = now
	return script, nil
}

// SubmitForEditing uploads the raw recording and moves the script from
// recorded to editing. The quota increment and the status change commit
// together; when the monthly limit is reached nothing is written (the
// uploaded object is removed again).
func (a *App) SubmitForEditing(ctx context.Context, actor domain.User, scriptID, notes, filename string, video io.Reader, size int64, contentType string) (domain.Script, error) {
	if video == nil || size <= 0 {
		return domain.Script{}, ErrRawVideoRequired
	}
	script, err := a.ownedScript(actor, scriptID)
	if err != nil {
		return domain.Script{}, err
	}
	if !domain.CanTransition(script.Status, domain.StatusEditing) {
		return domain.Script{}, ErrInvalidTransition
	}

	user, err := a.freshProfile(actor.ID)
	if err != nil {
		return domain.Script{}, err
	}
	policy := domain.PolicyFor(user.Plan)
	if user.EditsRemaining() == 0 {
		return domain.Script{}, ErrQuotaExceeded
	}

	key := buildVideoKey(script.ID, "raw", filename)
	if err := a.objects.Put(ctx, a.rawBucket, key, video, size, contentType); err != nil {
		return domain.Script{}, fmt.Errorf("store raw video: %w", err)
	}

	now := a.now().UTC()
	expected := now.Add(policy.Delivery())
	fields := map[string]any{
		"status":               string(domain.StatusEditing),
		"raw_video_url":        key,
		"editing_notes":        notes,
		"expected_delivery_at": expected,
		"editing_started_at":   now,
		"updated_at":           now,
	}
	err = a.store.SubmitForEditing(script.ID, user.ID, fields, policy.VideoEditsPerMonth)
	if err != nil {
		a.discardObject(ctx, a.rawBucket, key)
		switch {
		case errors.Is(err, store.ErrQuotaExhausted):
			return domain.Script{}, ErrQuotaExceeded
		case errors.Is(err, store.ErrStatusConflict):
			return domain.Script{}, ErrInvalidTransition
		}
		return domain.Script{}, fmt.Errorf("submit for editing: %w", err)
	}

	script.Status = domain.StatusEditing
	script.RawVideoURL = key
	script.EditingNotes = notes
	script.ExpectedDeliveryAt = &expected
	script.EditingStartedAt = &now
	script.UpdatedAt = now
	a.publishLifecycle(ctx, script)
	return script, nil
}

// ContentUpdate carries the editable text fields. Nil means "leave as is".
type ContentUpdate struct {
	Content     *string
	Hook        *string
	Description *string
}

// UpdateScriptContent applies a human edit. The first edit of each field
// snapshots the generated value into its shadow so a later revert can
// restore it. Edits never change status.
func (a *App) UpdateScriptContent(actor domain.User, scriptID string, update ContentUpdate) (domain.Script, error) {
	script, err := a.ownedScript(actor, scriptID)
	if err != nil {
		return domain.Script{}, err
	}
	now := a.now().UTC()
	fields := map[string]any{"updated_at": now}

	if update.Content != nil && *update.Content != script.Content {
		if script.ContentGenerated && script.OriginalContent == nil {
			fields["original_content"] = script.Content
			prev := script.Content
			script.OriginalContent = &prev
		}
		fields["content"] = *update.Content
		script.Content = *update.Content
	}
	if update.Hook != nil && *update.Hook != script.Hook {
		if script.ContentGenerated && script.OriginalHook == nil {
			fields["original_hook"] = script.Hook
			prev := script.Hook
			script.OriginalHook = &prev
		}
		fields["hook"] = *update.Hook
		script.Hook = *update.Hook
	}
	if update.Description != nil && *update.Description != script.Description {
		if script.ContentGenerated && script.OriginalDescription == nil {
			fields["original_description"] = script.Description
			prev := script.Description
			script.OriginalDescription = &prev
		}
		fields["description"] = *update.Description
		script.Description = *update.Description
	}

	if len(fields) == 1 {
		return script, nil
	}
	if err := a.store.UpdateScriptFields(script.ID, fields); err != nil {
		return domain.Script{}, fmt.Errorf("update script: %w", err)
	}
	script.UpdatedAt = now
	return script, nil
}

// RevertScriptContent restores the generated baseline and clears the
// shadow copies. The operation is one-shot: a second revert fails until a
// new edit creates a fresh shadow.
func (a *App) RevertScriptContent(actor domain.User, scriptID string) (domain.Script, error) {
	script, err := a.ownedScript(actor, scriptID)
	if err != nil {
		return domain.Script{}, err
	}
	if !script.HasOriginal() {
		return domain.Script{}, ErrNoOriginalContent
	}
	now := a.now().UTC()
	fields := map[string]any{
		"original_content":     nil,
		"original_hook":        nil,
		"original_description": nil,
		"updated_at":           now,
	}
	if script.OriginalContent != nil {
		fields["content"] = *script.OriginalContent
		script.Content = *script.OriginalContent
	}
	if script.OriginalHook != nil {
		fields["hook"] = *script.OriginalHook
		script.Hook = *script.OriginalHook
	}
	if script.OriginalDescription != nil {
		fields["description"] = *script.OriginalDescription
		script.Description = *script.OriginalDescription
	}
	if err := a.store.UpdateScriptFields(script.ID, fields); err != nil {
		return domain.Script{}, fmt.Errorf("revert script: %w", err)
	}
	script.OriginalContent = nil
	script.OriginalHook = nil
	script.OriginalDescription = nil
	script.UpdatedAt = now
	return script, nil
}

// ReorderScript moves a script within the script lane. Scripts that already
// entered production keep the order they had when they left the lane.
func (a *App) ReorderScript(actor domain.User, scriptID string, newOrder int) (domain.Script, error) {
	script, err := a.ownedScript(actor, scriptID)
	if err != nil {
		return domain.Script{}, err
	}
	if script.Status != domain.StatusScript {
		return domain.Script{}, ErrInvalidTransition
	}
	if newOrder < 0 {
		newOrder = 0
	}
	now := a.now().UTC()
	err = a.store.UpdateScriptFields(script.ID, map[string]any{
		"status_order": newOrder,
		"updated_at":   now,
	})
	if err != nil {
		return domain.Script{}, fmt.Errorf("reorder script: %w", err)
	}
	script.StatusOrder = newOrder
	script.UpdatedAt = now
	return script, nil
}

// VideoLinks holds short-lived download URLs for a script's stored videos.
type VideoLinks struct {
	RawVideoURL    string `json:"rawVideoUrl,omitempty"`
	EditedVideoURL string `json:"editedVideoUrl,omitempty"`
}

// ScriptVideoLinks presigns download links for whichever videos exist on
// the script.
func (a *App) ScriptVideoLinks(ctx context.Context, actor domain.User, scriptID string) (VideoLinks, error) {
	script, err := a.ownedScript(actor, scriptID)
	if err != nil {
		return VideoLinks{}, err
	}
	var links VideoLinks
	if script.RawVideoURL != "" {
		url, err := a.objects.PresignGet(ctx, a.rawBucket, script.RawVideoURL, a.presignExpiry)
		if err != nil {
			return VideoLinks{}, ErrAssetUnavailable
		}
		links.RawVideoURL = url
	}
	if script.EditedVideoURL != "" {
		url, err := a.objects.PresignGet(ctx, a.editedBucket, script.EditedVideoURL, a.presignExpiry)
		if err != nil {
			return VideoLinks{}, ErrAssetUnavailable
		}
		links.EditedVideoURL = url
	}
	return links, nil
}

// DeliveryLabelFor renders the urgency label for a script in editing.
func (a *App) DeliveryLabelFor(script domain.Script) string {
	if script.ExpectedDeliveryAt == nil {
		return ""
	}
	return domain.DeliveryLabel(*script.ExpectedDeliveryAt, a.now())
}

func (a *App) freshProfile(userID string) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, fmt.Errorf("user %s not found", userID)
	}
	return a.applyMonthlyReset(user)
}

func (a *App) publishLifecycle(ctx context.Context, script domain.Script) {
	ev := events.Event{
		Type:       "script." + string(script.Status),
		ScriptID:   script.ID,
		OwnerID:    script.OwnerID,
		Status:     string(script.Status),
		OccurredAt: a.now().UTC(),
	}
	if err := a.events.Publish(ctx, ev); err != nil {
		slog.Warn("lifecycle event publish failed", "type", ev.Type, "script_id", ev.ScriptID, "error", err)
	}
}

func (a *App) discardObject(ctx context.Context, bucket, key string) {
	if err := a.objects.Delete(ctx, bucket, key); err != nil {
		slog.Warn("orphaned object cleanup failed", "bucket", bucket, "key", key, "error", err)
	}
}

func buildVideoKey(scriptID, kind, filename string) string {
	base := path.Base(filename)
	if base == "." || base == "/" || base == "" {
		base = "video"
	}
	return path.Join("scripts", scriptID, kind, util.NewID()+"-"+base)
}
