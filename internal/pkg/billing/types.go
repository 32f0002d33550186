package billing

import "time"

// CapturedOrder is the normalized shape of a completed checkout, as reported
// by the payment widget after the provider captured the order.
type CapturedOrder struct {
	UserID  uint
	PlanID  string
	OrderID string
}

// PlanOffer describes one purchasable tier on the pricing page.
type PlanOffer struct {
	ID          string
	Name        string
	Price       float64
	Interval    string // "month" or "once"
	Description string
}

// subscriptionTerm computes the validity window for a captured plan. Lifetime
// plans have no end date.
func subscriptionTerm(planID string, now time.Time) (time.Time, *time.Time) {
	if planID == "lifetime" {
		return now, nil
	}
	end := now.AddDate(0, 1, 0)
	return now, &end
}
