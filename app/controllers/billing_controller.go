package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vidscribe/VidScribe/internal/pkg/billing"
	"github.com/vidscribe/VidScribe/internal/pkg/session"
	"github.com/vidscribe/VidScribe/internal/pkg/usercontext"
)

// HandlePricing renders the plan catalog with the caller's current plan
// highlighted.
func HandlePricing(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	return c.Render("pricing", fiber.Map{
		"Title":       "Pricing",
		"Offers":      billing.Catalog(),
		"CurrentPlan": userCtx.Plan,
		"IsLoggedIn":  userCtx.IsLoggedIn,
		"CSRFToken":   c.Locals("csrf"),
		"Flash":       flash.Get(c),
	})
}

// HandleBillingCapture records a completed checkout reported by the payment
// provider's client-side flow and activates the plan.
func HandleBillingCapture(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var body struct {
		PlanID  string `json:"plan_id" form:"plan_id"`
		OrderID string `json:"order_id" form:"order_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_body",
			"message": err.Error(),
		})
	}

	sub, err := billing.DefaultService().CaptureOrder(c.Context(), billing.CapturedOrder{
		UserID:  userID,
		PlanID:  strings.TrimSpace(body.PlanID),
		OrderID: strings.TrimSpace(body.OrderID),
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "capture_failed",
			"message": err.Error(),
		})
	}

	// Refresh the cached plan so entitlements apply immediately.
	_ = session.SetSessionValue(c, "user_plan", sub.PlanID)

	return c.JSON(fiber.Map{
		"plan_id":    sub.PlanID,
		"status":     sub.Status,
		"start_date": sub.StartDate,
		"end_date":   sub.EndDate,
	})
}

// HandleSubscription reports the caller's current subscription state.
func HandleSubscription(c *fiber.Ctx) error {
	sub, err := billing.DefaultService().GetCurrent(c.Context(), usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "subscription_load_failed",
			"message": err.Error(),
		})
	}
	if sub == nil {
		return c.JSON(fiber.Map{"plan_id": "free"})
	}

	return c.JSON(fiber.Map{
		"plan_id":    sub.PlanID,
		"status":     sub.Status,
		"start_date": sub.StartDate,
		"end_date":   sub.EndDate,
	})
}
