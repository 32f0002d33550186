package entitlements

import (
	"math"
	"strings"
)

type Plan string

const (
	PlanFree     Plan = "free"
	PlanBasic    Plan = "basic"
	PlanPro      Plan = "pro"
	PlanPremium  Plan = "premium"
	PlanLifetime Plan = "lifetime"
)

// Unlimited marks a quota that is never reached.
var Unlimited = math.Inf(1)

// Limits holds the monthly quota per metered feature for a plan.
type Limits struct {
	TranscriptionMinutes float64
	ArticlesPerMonth     float64
}

// NormalizePlan maps arbitrary plan identifiers to a known plan. Anything
// unknown, empty or "none" falls back to the free tier.
func NormalizePlan(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanBasic):
		return PlanBasic
	case string(PlanPro):
		return PlanPro
	case string(PlanPremium):
		return PlanPremium
	case string(PlanLifetime):
		return PlanLifetime
	default:
		return PlanFree
	}
}

// PlanLimits returns the quota limits for a plan. Pure mapping, no side
// effects: premium and lifetime are unbounded, unknown plans get the free
// tier.
func PlanLimits(plan string) Limits {
	switch NormalizePlan(plan) {
	case PlanBasic:
		return Limits{TranscriptionMinutes: 30, ArticlesPerMonth: 5}
	case PlanPro:
		return Limits{TranscriptionMinutes: 120, ArticlesPerMonth: 20}
	case PlanPremium, PlanLifetime:
		return Limits{TranscriptionMinutes: Unlimited, ArticlesPerMonth: Unlimited}
	default:
		return Limits{TranscriptionMinutes: 5, ArticlesPerMonth: 1}
	}
}

// IsUnlimited reports whether a limit value means "never reached".
func IsUnlimited(limit float64) bool {
	return math.IsInf(limit, 1)
}

// PlanRank orders plans from free (0) upwards; used to pick the best plan
// when multiple records exist.
func PlanRank(plan string) int {
	switch NormalizePlan(plan) {
	case PlanLifetime:
		return 4
	case PlanPremium:
		return 3
	case PlanPro:
		return 2
	case PlanBasic:
		return 1
	default:
		return 0
	}
}
