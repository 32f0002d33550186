package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vidscribe/VidScribe/internal/pkg/usercontext"
)

// HandleStart renders the conversion workspace for logged-in users and the
// landing page for everyone else.
func HandleStart(c *fiber.Ctx) error {
	if !isLoggedIn(c) {
		return c.Redirect("/landing", fiber.StatusSeeOther)
	}

	userCtx := usercontext.GetUserContext(c)
	return c.Render("index", fiber.Map{
		"Title":     "Convert",
		"Username":  userCtx.Username,
		"Plan":      userCtx.Plan,
		"CSRFToken": c.Locals("csrf"),
		"Flash":     flash.Get(c),
	})
}

// HandleLanding renders the marketing page.
func HandleLanding(c *fiber.Ctx) error {
	return c.Render("landing", fiber.Map{
		"Title":      "Turn videos into audio, transcripts, and articles",
		"IsLoggedIn": isLoggedIn(c),
		"Flash":      flash.Get(c),
	})
}
