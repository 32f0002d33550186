package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/vidscribe/VidScribe/app/controllers"
	"github.com/vidscribe/VidScribe/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1", middleware.RequireAPISessionAuth)

	// Conversion pipeline
	v1.Post("/convert", controllers.HandleConvertStart)
	v1.Post("/convert/reset", controllers.HandleConvertReset)
	v1.Get("/convert/:id/status", controllers.HandleConvertStatus)
	v1.Post("/convert/:id/cancel", controllers.HandleConvertCancel)
	v1.Get("/convert/:id/audio", controllers.HandleConvertAudio)
	v1.Get("/convert/:id/transcript", controllers.HandleConvertTranscript)
	v1.Get("/convert/:id/article", controllers.HandleConvertArticle)

	// Billing + usage
	v1.Post("/billing/capture", controllers.HandleBillingCapture)
	v1.Get("/subscription", controllers.HandleSubscription)
	v1.Get("/usage", controllers.HandleUsage)

	// Inference API key management
	v1.Get("/apikey", controllers.HandleAPIKeyGet)
	v1.Post("/apikey", controllers.HandleAPIKeySave)
	v1.Delete("/apikey", controllers.HandleAPIKeyDelete)
	v1.Post("/apikey/test", controllers.HandleAPIKeyTest)

	// Stage toggle defaults
	v1.Post("/defaults", controllers.HandleDefaultsSave)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
