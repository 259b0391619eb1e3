package domain

import (
	"fmt"
	"time"
)

// PlanPolicy is the static entitlement table for a subscription tier.
type PlanPolicy struct {
	VideoEditsPerMonth int
	DeliveryHours      int
	IdeasPerGeneration int
}

var planPolicies = map[Plan]PlanPolicy{
	PlanFree: {VideoEditsPerMonth: 1, DeliveryHours: 168, IdeasPerGeneration: 10},
	PlanPro:  {VideoEditsPerMonth: 4, DeliveryHours: 72, IdeasPerGeneration: 30},
}

// PolicyFor returns the entitlements for a plan, defaulting to the free tier
// for unknown values.
func PolicyFor(p Plan) PlanPolicy {
	if policy, ok := planPolicies[p]; ok {
		return policy
	}
	return planPolicies[PlanFree]
}

// Delivery returns the delivery window as a duration.
func (p PlanPolicy) Delivery() time.Duration {
	return time.Duration(p.DeliveryHours) * time.Hour
}

// EditsRemaining returns how many recorded→editing submissions the profile
// has left this month.
func (u User) EditsRemaining() int {
	remaining := PolicyFor(u.Plan).VideoEditsPerMonth - u.VideoEditsThisMonth
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NeedsMonthlyReset reports whether the quota counter belongs to an earlier
// calendar month than now and still holds a non-zero value.
func (u User) NeedsMonthlyReset(now time.Time) bool {
	if u.VideoEditsResetAt == nil {
		return u.VideoEditsThisMonth > 0
	}
	if u.VideoEditsThisMonth == 0 {
		return false
	}
	reset := u.VideoEditsResetAt.UTC()
	now = now.UTC()
	return reset.Month() != now.Month() || reset.Year() != now.Year()
}

// DeliveryLabel renders an urgency label for an expected delivery timestamp.
// It is a pure function of the two instants and is recomputed on every
// display, never persisted.
func DeliveryLabel(expected, now time.Time) string {
	remaining := expected.Sub(now)
	switch {
	case remaining < 0:
		return "overdue"
	case remaining < 24*time.Hour:
		return "today"
	default:
		days := int((remaining + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
		return fmt.Sprintf("%dd", days)
	}
}
