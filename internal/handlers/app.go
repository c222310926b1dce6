package handlers

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vanpelt/trainer/internal/config"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/models"
	"github.com/vanpelt/trainer/internal/scenario"
	"github.com/vanpelt/trainer/internal/services"
)

// ErrorHandler renders every error as {"error": "..."} with the fiber status code
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(models.ErrorResponse{Error: err.Error()})
}

// NewApp wires middleware and every route of the training server
func NewApp(cfg *config.ServerConfig, store *scenario.Store, shell *services.ShellService, tabs *TabsHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "trainer",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(SamplingLogger(os.Stdout, DefaultSampleEvery, "/api/health"))
	app.Use(cors.New())

	NewTerminalHandler(shell).RegisterRoutes(app)

	api := app.Group("/api")
	NewScenarioHandler(store, shell).RegisterRoutes(api)
	tabs.RegisterRoutes(api)

	if cfg.EditorEnabled {
		logger.Info("📝 Editor enabled (routed via ingress to shell pod)")
	}

	if HasStaticDir(cfg.StaticDir) {
		logger.Infof("📦 Serving static console from %s", cfg.StaticDir)
		app.Use("/", ServeStatic(cfg.StaticDir))
	}

	return app
}
