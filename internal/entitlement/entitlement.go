// Package entitlement computes feature availability from a subscription
// snapshot. Every function is pure: the snapshot is the one the backend last
// reported and nothing here mutates it or talks to the network, so a result
// can be stale between two profile fetches. The backend enforces the real
// quota when an action is performed; these checks only drive the client UI.
package entitlement

import (
	"strings"

	"client/internal/domain"
)

// NearLimitThreshold is the usage percentage above which a plan is
// considered close to exhaustion. Strictly greater-than applies.
const NearLimitThreshold = 80.0

// Config carries the evaluator's only tunable: accounts that bypass all
// quota checks. Supplied from configuration so no identity is baked in.
type Config struct {
	DeveloperEmails []string
}

// Evaluator answers entitlement questions for user/subscription snapshots.
type Evaluator struct {
	developers map[string]struct{}
}

// New builds an Evaluator from config.
func New(cfg Config) *Evaluator {
	devs := make(map[string]struct{}, len(cfg.DeveloperEmails))
	for _, email := range cfg.DeveloperEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			devs[email] = struct{}{}
		}
	}
	return &Evaluator{developers: devs}
}

// IsDeveloper reports whether the user is on the developer allow-list.
func (e *Evaluator) IsDeveloper(user domain.User) bool {
	_, ok := e.developers[strings.ToLower(user.Email)]
	return ok
}

// IsUnlimited reports whether quota checks do not apply: either the top
// tier plan or a developer account.
func (e *Evaluator) IsUnlimited(sub domain.Subscription, user domain.User) bool {
	return sub.Plan == domain.PlanProPlus || e.IsDeveloper(user)
}

// UsageRatio returns usage as a percentage of the monthly limit. A zero or
// absent limit yields 0: an unconfigured quota renders as N/A upstream and
// must not divide by zero here.
func (e *Evaluator) UsageRatio(sub domain.Subscription, feature domain.Feature) float64 {
	limit := sub.Limit(feature)
	if limit <= 0 {
		return 0
	}
	return float64(sub.Usage(feature)) / float64(limit) * 100
}

// IsNearLimit reports whether either tracked feature is above the warning
// threshold. Unlimited accounts are never near a limit.
func (e *Evaluator) IsNearLimit(sub domain.Subscription, user domain.User) bool {
	if e.IsUnlimited(sub, user) {
		return false
	}
	return e.UsageRatio(sub, domain.FeatureContent) > NearLimitThreshold ||
		e.UsageRatio(sub, domain.FeatureAudio) > NearLimitThreshold
}

// CanUseFeature is the single predicate gating quota-consuming actions.
// Advisory only: the snapshot may lag the backend's counters, and the
// backend re-checks when the action actually runs.
func (e *Evaluator) CanUseFeature(sub domain.Subscription, user domain.User, feature domain.Feature) bool {
	if e.IsUnlimited(sub, user) {
		return true
	}
	return sub.Usage(feature) < sub.Limit(feature)
}
