package app

import (
	"fmt"

	"sorriai/pkg/domain"
)

// SaveOnboarding upserts the questionnaire answers for the actor. Answers
// can be saved partially and revised at any time; prompts always read the
// latest version.
func (a *App) SaveOnboarding(actor domain.User, answers domain.Onboarding) (domain.Onboarding, error) {
	now := a.now().UTC()
	answers.UserID = actor.ID
	answers.UpdatedAt = now
	if existing, ok, err := a.store.GetOnboarding(actor.ID); err != nil {
		return domain.Onboarding{}, fmt.Errorf("fetch onboarding: %w", err)
	} else if ok {
		answers.CreatedAt = existing.CreatedAt
	} else {
		answers.CreatedAt = now
	}
	if err := a.store.SaveOnboarding(answers); err != nil {
		return domain.Onboarding{}, fmt.Errorf("save onboarding: %w", err)
	}
	return answers, nil
}

// Onboarding returns the actor's saved questionnaire answers, if any.
func (a *App) Onboarding(actor domain.User) (domain.Onboarding, bool, error) {
	return a.store.GetOnboarding(actor.ID)
}

// CompleteOnboarding saves the final answers and flags the profile as
// onboarded, which unlocks content generation.
func (a *App) CompleteOnboarding(actor domain.User, answers domain.Onboarding) (domain.User, error) {
	if _, err := a.SaveOnboarding(actor, answers); err != nil {
		return domain.User{}, err
	}
	now := a.now().UTC()
	err := a.store.UpdateUserFields(actor.ID, map[string]any{
		"onboarding_completed":    true,
		"onboarding_completed_at": now,
		"updated_at":              now,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("complete onboarding: %w", err)
	}
	actor.OnboardingCompleted = true
	actor.OnboardingCompletedAt = &now
	actor.UpdatedAt = now
	return actor, nil
}
