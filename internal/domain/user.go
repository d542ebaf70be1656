package domain

import "time"

// Plan enumerates subscription tiers reported by the backend.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanProPlus Plan = "pro_plus"
)

// Feature enumerates quota-gated actions.
type Feature string

const (
	FeatureContent Feature = "content"
	FeatureAudio   Feature = "audio"
)

// Subscription is the entitlement snapshot embedded in a User. It is an
// advisory cache of backend state; the backend remains the source of truth
// and the client never mutates the counters locally.
type Subscription struct {
	Plan          Plan            `json:"plan"`
	Status        string          `json:"status,omitempty"`
	UsageCount    map[Feature]int `json:"usageCount"`
	MonthlyLimits map[Feature]int `json:"monthlyLimits"`
	ResetDate     time.Time       `json:"resetDate,omitempty"`
}

// Usage returns the reported usage for a feature, zero when untracked.
func (s Subscription) Usage(f Feature) int {
	return s.UsageCount[f]
}

// Limit returns the configured ceiling for a feature. Zero means no quota
// is configured, which is distinct from unlimited.
func (s Subscription) Limit(f Feature) int {
	return s.MonthlyLimits[f]
}

// IsFree reports whether the subscription is on the free tier.
func (s Subscription) IsFree() bool {
	return s.Plan == PlanFree
}

// User is the authenticated account snapshot returned by the backend.
// Identity fields stay fixed for the session's lifetime and change only
// through an explicit profile fetch or update.
type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Subscription Subscription `json:"subscription"`
}
