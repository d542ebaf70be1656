package entitlement

import (
	"testing"

	"client/internal/domain"
)

func newTestEvaluator() *Evaluator {
	return New(Config{DeveloperEmails: []string{"dev@example.com"}})
}

func subscription(plan domain.Plan, used, limit map[domain.Feature]int) domain.Subscription {
	return domain.Subscription{Plan: plan, UsageCount: used, MonthlyLimits: limit}
}

func TestIsUnlimitedProPlus(t *testing.T) {
	e := newTestEvaluator()
	sub := subscription(domain.PlanProPlus, nil, nil)
	if !e.IsUnlimited(sub, domain.User{Email: "someone@example.com"}) {
		t.Fatalf("IsUnlimited() = false for pro_plus, want true")
	}
}

func TestDeveloperOverrideBypassesQuota(t *testing.T) {
	e := newTestEvaluator()
	user := domain.User{Email: "Dev@Example.com"}
	sub := subscription(domain.PlanFree,
		map[domain.Feature]int{domain.FeatureContent: 99, domain.FeatureAudio: 99},
		map[domain.Feature]int{domain.FeatureContent: 5, domain.FeatureAudio: 2},
	)
	if !e.IsUnlimited(sub, user) {
		t.Fatalf("IsUnlimited() = false for allow-listed developer, want true")
	}
	if !e.CanUseFeature(sub, user, domain.FeatureAudio) {
		t.Fatalf("CanUseFeature(audio) = false for developer, want true")
	}
	if !e.CanUseFeature(sub, user, domain.FeatureContent) {
		t.Fatalf("CanUseFeature(content) = false for developer, want true")
	}
	if e.IsNearLimit(sub, user) {
		t.Fatalf("IsNearLimit() = true for developer, want false")
	}
}

func TestUsageRatioAtThreshold(t *testing.T) {
	e := newTestEvaluator()
	user := domain.User{Email: "user@example.com"}
	sub := subscription(domain.PlanFree,
		map[domain.Feature]int{domain.FeatureAudio: 8},
		map[domain.Feature]int{domain.FeatureAudio: 10},
	)
	if got := e.UsageRatio(sub, domain.FeatureAudio); got != 80 {
		t.Fatalf("UsageRatio(audio) = %v, want 80", got)
	}
	if e.IsNearLimit(sub, user) {
		t.Fatalf("IsNearLimit() = true at exactly 80%%, want false")
	}
}

func TestUsageRatioAboveThreshold(t *testing.T) {
	e := newTestEvaluator()
	user := domain.User{Email: "user@example.com"}
	sub := subscription(domain.PlanFree,
		map[domain.Feature]int{domain.FeatureAudio: 9},
		map[domain.Feature]int{domain.FeatureAudio: 10},
	)
	if got := e.UsageRatio(sub, domain.FeatureAudio); got != 90 {
		t.Fatalf("UsageRatio(audio) = %v, want 90", got)
	}
	if !e.IsNearLimit(sub, user) {
		t.Fatalf("IsNearLimit() = false at 90%%, want true")
	}
}

func TestZeroLimitSafety(t *testing.T) {
	e := newTestEvaluator()
	user := domain.User{Email: "user@example.com"}
	sub := subscription(domain.PlanFree,
		map[domain.Feature]int{domain.FeatureContent: 3},
		map[domain.Feature]int{domain.FeatureContent: 0},
	)
	if got := e.UsageRatio(sub, domain.FeatureContent); got != 0 {
		t.Fatalf("UsageRatio(content) = %v with zero limit, want 0", got)
	}
	if e.CanUseFeature(sub, user, domain.FeatureContent) {
		t.Fatalf("CanUseFeature(content) = true with zero limit, want false")
	}

	// Absent limit behaves like zero.
	sub = subscription(domain.PlanFree, map[domain.Feature]int{domain.FeatureContent: 3}, nil)
	if got := e.UsageRatio(sub, domain.FeatureContent); got != 0 {
		t.Fatalf("UsageRatio(content) = %v with absent limit, want 0", got)
	}
	if e.CanUseFeature(sub, user, domain.FeatureContent) {
		t.Fatalf("CanUseFeature(content) = true with absent limit, want false")
	}
}

func TestCanUseFeatureUnderAndAtLimit(t *testing.T) {
	e := newTestEvaluator()
	user := domain.User{Email: "user@example.com"}
	sub := subscription(domain.PlanFree,
		map[domain.Feature]int{domain.FeatureAudio: 0},
		map[domain.Feature]int{domain.FeatureAudio: 2},
	)
	if !e.CanUseFeature(sub, user, domain.FeatureAudio) {
		t.Fatalf("CanUseFeature(audio) = false under limit, want true")
	}
	sub.UsageCount[domain.FeatureAudio] = 2
	if e.CanUseFeature(sub, user, domain.FeatureAudio) {
		t.Fatalf("CanUseFeature(audio) = true at limit, want false")
	}
}

func TestEvaluatorWithEmptyAllowlist(t *testing.T) {
	e := New(Config{})
	user := domain.User{Email: "dev@example.com"}
	sub := subscription(domain.PlanFree, nil, map[domain.Feature]int{domain.FeatureContent: 5})
	if e.IsDeveloper(user) {
		t.Fatalf("IsDeveloper() = true with empty allow-list, want false")
	}
	if e.IsUnlimited(sub, user) {
		t.Fatalf("IsUnlimited() = true with empty allow-list, want false")
	}
}
