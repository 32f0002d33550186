package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vidscribe/VidScribe/app/models"
	"github.com/vidscribe/VidScribe/internal/pkg/entitlements"
	"github.com/vidscribe/VidScribe/internal/pkg/usage"
	"github.com/vidscribe/VidScribe/internal/pkg/usercontext"
)

var usageLedger *usage.Ledger

// InitializeUsageController wires the usage ledger into the usage endpoints.
func InitializeUsageController(l *usage.Ledger) {
	usageLedger = l
}

// HandleUsage reports the caller's current-month consumption against the
// plan limits.
func HandleUsage(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	ctx := c.Context()

	transcription := usageLedger.CheckLimit(ctx, userID, models.FeatureTranscription)
	articles := usageLedger.CheckLimit(ctx, userID, models.FeatureArticle)

	return c.JSON(fiber.Map{
		"plan":                  usercontext.GetPlan(c),
		"transcription_minutes": limitJSON(transcription),
		"articles":              limitJSON(articles),
	})
}

// limitJSON renders a quota check; unbounded limits become null since JSON
// has no representation for infinity.
func limitJSON(check usage.LimitCheck) fiber.Map {
	var limit interface{}
	if !entitlements.IsUnlimited(check.Limit) {
		limit = check.Limit
	}
	return fiber.Map{
		"used":    check.Used,
		"limit":   limit,
		"reached": check.Reached,
	}
}
