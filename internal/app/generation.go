package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"sorriai/internal/util"
	"sorriai/pkg/domain"
)

type scriptPayload struct {
	Hook        string `json:"hook"`
	FullScript  string `json:"full_script"`
	Description string `json:"description"`
}

type subjectItem struct {
	Subject      string   `json:"subject"`
	Hashtags     []string `json:"hashtags"`
	Objective    string   `json:"objective"`
	Format       string   `json:"format"`
	Pillar       string   `json:"pillar"`
	FunnelStage  string   `json:"funnel_stage"`
	HookStyle    string   `json:"hook_style"`
	ContentAngle string   `json:"content_angle"`
}

type subjectsPayload struct {
	Subjects []subjectItem `json:"subjects"`
}

// stripCodeFence removes a markdown code fence some models wrap around
// JSON output despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// OpenScript returns a script, generating its content first if this is the
// first time the idea is opened. Concurrent opens of the same script share
// one generation; content never regenerates once written.
func (a *App) OpenScript(ctx context.Context, actor domain.User, scriptID string) (domain.Script, error) {
	script, err := a.ownedScript(actor, scriptID)
	if err != nil {
		return domain.Script{}, err
	}
	if script.ContentGenerated {
		return script, nil
	}

	result, err, _ := a.genGroup.Do(script.ID, func() (any, error) {
		return a.generateScriptContent(ctx, actor, script.ID)
	})
	if err != nil {
		return domain.Script{}, err
	}
	return result.(domain.Script), nil
}

func (a *App) generateScriptContent(ctx context.Context, actor domain.User, scriptID string) (domain.Script, error) {
	// Re-read inside the flight: a concurrent open may have finished the
	// generation while this call waited.
	script, ok, err := a.store.GetScript(scriptID)
	if err != nil {
		return domain.Script{}, fmt.Errorf("fetch script: %w", err)
	}
	if !ok {
		return domain.Script{}, ErrScriptNotFound
	}
	if script.ContentGenerated {
		return script, nil
	}

	onboarding, ok, err := a.store.GetOnboarding(actor.ID)
	if err != nil {
		return domain.Script{}, fmt.Errorf("fetch onboarding: %w", err)
	}
	if !ok {
		return domain.Script{}, ErrOnboardingRequired
	}

	raw, err := a.generator.GenerateText(ctx, buildScriptSystemPrompt(onboarding), buildScriptUserPrompt(script))
	if err != nil {
		slog.Error("script generation failed", "script_id", script.ID, "error", err)
		return domain.Script{}, ErrGenerationFailed
	}
	var payload scriptPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil || payload.FullScript == "" {
		slog.Error("script generation returned unusable output", "script_id", script.ID, "error", err)
		return domain.Script{}, ErrGenerationFailed
	}

	now := a.now().UTC()
	err = a.store.UpdateScriptFields(script.ID, map[string]any{
		"content":           payload.FullScript,
		"hook":              payload.Hook,
		"description":       payload.Description,
		"content_generated": true,
		"updated_at":        now,
	})
	if err != nil {
		return domain.Script{}, fmt.Errorf("save generated content: %w", err)
	}
	script.Content = payload.FullScript
	script.Hook = payload.Hook
	script.Description = payload.Description
	script.ContentGenerated = true
	script.UpdatedAt = now
	return script, nil
}

// GenerateIdeaBatch produces a plan-sized batch of content ideas from the
// questionnaire answers and appends them to the script lane. Titles of
// every existing script are fed back so new ideas do not repeat old angles.
func (a *App) GenerateIdeaBatch(ctx context.Context, actor domain.User) ([]domain.Script, error) {
	if !actor.OnboardingCompleted {
		return nil, ErrOnboardingRequired
	}
	onboarding, ok, err := a.store.GetOnboarding(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch onboarding: %w", err)
	}
	if !ok {
		return nil, ErrOnboardingRequired
	}
	previousTitles, err := a.store.ListScriptTitlesByOwner(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}

	ideaCount := domain.PolicyFor(actor.Plan).IdeasPerGeneration
	raw, err := a.generator.GenerateText(ctx, buildSubjectsPrompt(onboarding, previousTitles, ideaCount), "Gere os assuntos agora.")
	if err != nil {
		slog.Error("idea batch generation failed", "user_id", actor.ID, "error", err)
		return nil, ErrGenerationFailed
	}
	var payload subjectsPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil || len(payload.Subjects) == 0 {
		slog.Error("idea batch returned unusable output", "user_id", actor.ID, "error", err)
		return nil, ErrGenerationFailed
	}

	base, err := a.store.NextStatusOrder(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("next order: %w", err)
	}
	now := a.now().UTC()
	scripts := make([]domain.Script, 0, len(payload.Subjects))
	for i, item := range payload.Subjects {
		if strings.TrimSpace(item.Subject) == "" {
			continue
		}
		scripts = append(scripts, domain.Script{
			ID:               util.NewID(),
			OwnerID:          actor.ID,
			Title:            item.Subject,
			Topic:            item.Subject,
			Status:           domain.StatusScript,
			StatusOrder:      base + i,
			ContentGenerated: false,
			Hashtags:         item.Hashtags,
			Objective:        item.Objective,
			Format:           item.Format,
			Pillar:           item.Pillar,
			FunnelStage:      item.FunnelStage,
			HookStyle:        item.HookStyle,
			ContentAngle:     item.ContentAngle,
			Generation: map[string]any{
				"idea_count": ideaCount,
				"plan":       string(actor.Plan),
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(scripts) == 0 {
		return nil, ErrGenerationFailed
	}
	if err := a.store.CreateScripts(scripts); err != nil {
		return nil, fmt.Errorf("save idea batch: %w", err)
	}
	return scripts, nil
}
