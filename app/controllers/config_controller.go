package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vidscribe/VidScribe/app/models"
	"github.com/vidscribe/VidScribe/internal/pkg/database"
	"github.com/vidscribe/VidScribe/internal/pkg/inference"
	"github.com/vidscribe/VidScribe/internal/pkg/usercontext"
)

// HandleConfig renders the API key settings page.
func HandleConfig(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load settings")
	}

	return c.Render("config", fiber.Map{
		"Title":       "Settings",
		"Username":    userCtx.Username,
		"HasKey":      settings.HasInferenceAPIKey(),
		"KeyVerified": settings.APIKeyVerifiedAt != nil,
		"Transcribe":  settings.DefaultTranscribe,
		"Article":     settings.DefaultWriteArticle,
		"CSRFToken":   c.Locals("csrf"),
		"Flash":       flash.Get(c),
	})
}

// HandleAPIKeyGet reports whether a key is stored, without revealing it.
func HandleAPIKeyGet(c *fiber.Ctx) error {
	settings, err := models.GetOrCreateUserSettings(database.GetDB(), usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_load_failed",
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"has_key":  settings.HasInferenceAPIKey(),
		"verified": settings.APIKeyVerifiedAt != nil,
	})
}

// HandleAPIKeySave stores a new inference API key after a local format check.
func HandleAPIKeySave(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.FormValue("api_key"))
	if !models.ValidInferenceAPIKeyFormat(key) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_key_format",
			"message": inference.ErrInvalidKeyFormat.Error(),
		})
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_load_failed",
			"message": err.Error(),
		})
	}

	settings.SetInferenceAPIKey(key)
	if err := db.Save(settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_save_failed",
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"has_key": true})
}

// HandleAPIKeyDelete removes the stored key.
func HandleAPIKeyDelete(c *fiber.Ctx) error {
	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_load_failed",
			"message": err.Error(),
		})
	}

	settings.SetInferenceAPIKey("")
	if err := db.Save(settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_save_failed",
			"message": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAPIKeyTest probes the inference provider with the stored key.
func HandleAPIKeyTest(c *fiber.Ctx) error {
	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_load_failed",
			"message": err.Error(),
		})
	}

	if !settings.HasInferenceAPIKey() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "no_key",
			"message": "no api key is stored",
		})
	}

	client := inference.NewClient(settings.InferenceAPIKey)
	if err := client.TestKey(c.Context()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "key_invalid",
			"message": err.Error(),
		})
	}

	settings.MarkAPIKeyVerified()
	if err := db.Save(settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_save_failed",
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"valid": true})
}

// HandleDefaultsSave stores the user's default stage toggles.
func HandleDefaultsSave(c *fiber.Ctx) error {
	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_load_failed",
			"message": err.Error(),
		})
	}

	settings.DefaultTranscribe = c.FormValue("transcribe") == "true" || c.FormValue("transcribe") == "on"
	settings.DefaultWriteArticle = c.FormValue("write_article") == "true" || c.FormValue("write_article") == "on"
	if err := db.Save(settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "settings_save_failed",
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"transcribe":    settings.DefaultTranscribe,
		"write_article": settings.DefaultWriteArticle,
	})
}
