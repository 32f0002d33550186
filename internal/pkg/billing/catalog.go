package billing

// Catalog lists the purchasable plans shown on the pricing page. The free
// tier is implicit: every user without a subscription gets it.
func Catalog() []PlanOffer {
	return []PlanOffer{
		{
			ID:          "basic",
			Name:        "Basic",
			Price:       9.99,
			Interval:    "month",
			Description: "30 transcription minutes and 5 articles per month",
		},
		{
			ID:          "pro",
			Name:        "Pro",
			Price:       19.99,
			Interval:    "month",
			Description: "120 transcription minutes and 20 articles per month",
		},
		{
			ID:          "premium",
			Name:        "Premium",
			Price:       39.99,
			Interval:    "month",
			Description: "Unlimited transcription and articles",
		},
		{
			ID:          "lifetime",
			Name:        "Lifetime",
			Price:       99.99,
			Interval:    "once",
			Description: "Unlimited everything, forever",
		},
	}
}

// FindOffer returns the catalog entry for a plan id, or false when the plan
// is not purchasable.
func FindOffer(planID string) (PlanOffer, bool) {
	for _, offer := range Catalog() {
		if offer.ID == planID {
			return offer, true
		}
	}
	return PlanOffer{}, false
}
