package entitlements

import "testing"

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "free", want: PlanFree},
		{in: "basic", want: PlanBasic},
		{in: "pro", want: PlanPro},
		{in: "premium", want: PlanPremium},
		{in: "lifetime", want: PlanLifetime},
		{in: "PREMIUM", want: PlanPremium},
		{in: "  basic ", want: PlanBasic},
		{in: "none", want: PlanFree},
		{in: "", want: PlanFree},
		{in: "enterprise", want: PlanFree},
	}

	for _, tt := range tests {
		if got := NormalizePlan(tt.in); got != tt.want {
			t.Fatalf("NormalizePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanLimitsKnownPlans(t *testing.T) {
	tests := []struct {
		plan         string
		wantMinutes  float64
		wantArticles float64
	}{
		{plan: "basic", wantMinutes: 30, wantArticles: 5},
		{plan: "pro", wantMinutes: 120, wantArticles: 20},
	}

	for _, tt := range tests {
		got := PlanLimits(tt.plan)
		if got.TranscriptionMinutes != tt.wantMinutes {
			t.Fatalf("PlanLimits(%q).TranscriptionMinutes = %v, want %v", tt.plan, got.TranscriptionMinutes, tt.wantMinutes)
		}
		if got.ArticlesPerMonth != tt.wantArticles {
			t.Fatalf("PlanLimits(%q).ArticlesPerMonth = %v, want %v", tt.plan, got.ArticlesPerMonth, tt.wantArticles)
		}
	}
}

func TestPlanLimitsUnknownPlansGetFreeTier(t *testing.T) {
	free := PlanLimits("free")
	for _, plan := range []string{"", "none", "gold", "BASIC+", "42"} {
		if got := PlanLimits(plan); got != free {
			t.Fatalf("PlanLimits(%q) = %+v, want free tier %+v", plan, got, free)
		}
	}
	if free.TranscriptionMinutes != 5 || free.ArticlesPerMonth != 1 {
		t.Fatalf("free tier = %+v, want 5 minutes / 1 article", free)
	}
}

func TestPlanLimitsUnbounded(t *testing.T) {
	for _, plan := range []string{"premium", "lifetime"} {
		limits := PlanLimits(plan)
		if !IsUnlimited(limits.TranscriptionMinutes) {
			t.Fatalf("expected %q transcription minutes to be unlimited", plan)
		}
		if !IsUnlimited(limits.ArticlesPerMonth) {
			t.Fatalf("expected %q articles to be unlimited", plan)
		}
	}
}

func TestPlanRank(t *testing.T) {
	order := []string{"free", "basic", "pro", "premium", "lifetime"}
	for i := 1; i < len(order); i++ {
		if PlanRank(order[i-1]) >= PlanRank(order[i]) {
			t.Fatalf("expected %s to outrank %s", order[i], order[i-1])
		}
	}
}
