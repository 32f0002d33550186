package router

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/vidscribe/VidScribe/app/controllers"
	"github.com/vidscribe/VidScribe/app/models"
	"github.com/vidscribe/VidScribe/internal/pkg/billing"
	"github.com/vidscribe/VidScribe/internal/pkg/database"
	"github.com/vidscribe/VidScribe/internal/pkg/env"
	"github.com/vidscribe/VidScribe/internal/pkg/fetch"
	"github.com/vidscribe/VidScribe/internal/pkg/inference"
	"github.com/vidscribe/VidScribe/internal/pkg/jobqueue"
	"github.com/vidscribe/VidScribe/internal/pkg/middleware"
	"github.com/vidscribe/VidScribe/internal/pkg/oauth"
	"github.com/vidscribe/VidScribe/internal/pkg/pipeline"
	"github.com/vidscribe/VidScribe/internal/pkg/session"
	"github.com/vidscribe/VidScribe/internal/pkg/transcoder"
	"github.com/vidscribe/VidScribe/internal/pkg/usage"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	installPipeline()

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

// installPipeline wires the conversion engine, usage ledger, and per-user
// inference clients into one run manager shared by all controllers.
func installPipeline() {
	workDir := env.GetEnv("WORKSPACE_DIR", "./uploads/workspace")

	ledger := usage.NewLedgerFromDB(database.GetDB(), billing.DefaultService())
	engine := transcoder.NewEngine(filepath.Join(workDir, "audio"))

	clients := func(userID uint) (pipeline.Transcriber, pipeline.ArticleWriter, error) {
		settings, err := models.GetOrCreateUserSettings(database.GetDB(), userID)
		if err != nil {
			return nil, nil, err
		}
		if !settings.HasInferenceAPIKey() {
			return nil, nil, pipeline.ErrNoAPIKey
		}
		client := inference.NewClient(settings.InferenceAPIKey)
		return client, client, nil
	}

	runner := pipeline.NewPerUserRunner(engine, ledger, clients).
		WithStatusSink(pipeline.RedisStatusSink{})

	manager := pipeline.NewManager(runner).WithOnComplete(func(sess *pipeline.Session) {
		audio := sess.Audio()
		if audio == nil {
			return
		}
		_, _ = jobqueue.GetQueue().EnqueueArtifactBackup(jobqueue.ArtifactBackupJobPayload{
			SessionID: sess.ID,
			UserID:    sess.UserID,
			FilePath:  audio.Path,
			FileName:  audio.FileName,
			FileSize:  audio.Size,
		})
	})
	pipeline.SetGlobalManager(manager)

	fetcher := fetch.NewFetcher(filepath.Join(workDir, "downloads"))
	controllers.InitializeConvertController(manager, fetcher, filepath.Join(workDir, "sources"))
	controllers.InitializeUsageController(ledger)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; nothing extra here.
	return c.Next()
}
