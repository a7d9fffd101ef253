package web

import (
	"github.com/dukex/webmonitor/pkg/auth"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/spf13/afero"
)

// AppConfig selects what the app serves besides the API.
type AppConfig struct {
	// Screenshots is served under /screenshots when set.
	Screenshots afero.Fs

	// PublicDir is served under / when set.
	PublicDir string

	// DisableRequestLog turns off the access log middleware.
	DisableRequestLog bool
}

func NewApp(handlers *APIHandlers, authenticator *auth.Authenticator, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "webmonitor",
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", AuthTokenHeader},
	}))

	if !cfg.DisableRequestLog {
		app.Use(logger.New(logger.Config{
			DisableColors: true,
		}))
	}

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	api := app.Group("/api")
	api.Post("/login", handlers.Login)
	api.Get("/auth", handlers.AuthStatus)
	api.Post("/logout", handlers.Logout)
	api.Get("/health", handlers.HealthCheck)

	protected := api.Group("", RequireAuth(authenticator))

	protected.Get("/websites", handlers.GetWebsites)
	protected.Post("/websites", handlers.AddWebsite)
	protected.Put("/websites", handlers.ReplaceWebsites)
	protected.Delete("/websites", handlers.DeleteWebsite)

	protected.Get("/screenshots", handlers.GetScreenshotFolders)
	protected.Post("/screenshots/run", handlers.StartRun)
	protected.Get("/screenshots/:folder", handlers.GetScreenshots)

	protected.Get("/schedule", handlers.GetSchedule)
	protected.Post("/schedule", handlers.UpdateSchedule)
	protected.Get("/schedule/triggers", handlers.GetTriggers)

	protected.Get("/runs/last", handlers.GetLastRun)

	if cfg.Screenshots != nil {
		app.Get("/screenshots*", static.New("", static.Config{
			FS: afero.NewIOFS(cfg.Screenshots),
		}))
	}

	if cfg.PublicDir != "" {
		app.Get("/*", static.New(cfg.PublicDir))
	}

	return app
}
