// Package main provides the automation admin API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/bloomandco/automation/pkg/capability"
	"github.com/bloomandco/automation/pkg/dispatcher"
	"github.com/bloomandco/automation/pkg/engine"
	"github.com/bloomandco/automation/pkg/eventbus"
	"github.com/bloomandco/automation/pkg/idempotency"
	"github.com/bloomandco/automation/pkg/persistence"
	"github.com/bloomandco/automation/pkg/services"
	"github.com/bloomandco/automation/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *capability.Registry
	eventBus    eventbus.EventBus
	guard       *idempotency.Guard
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *capability.Registry,
	eventBus eventbus.EventBus,
	guard *idempotency.Guard,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		guard:       guard,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence)
	eng := engine.New(a.registry, a.logger)
	disp := dispatcher.New(a.persistence, eng, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(workflowService, disp, a.guard, a.persistence, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Automation API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/pause", handlers.PauseWorkflow)
	w.Post("/:id/archive", handlers.ArchiveWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Post("/:id/test-run", handlers.TestRunWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	app.Post("/events", handlers.DispatchEvent)
	app.Get("/executions/:id", handlers.GetExecution)
	app.Get("/capabilities", handlers.GetCapabilities)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
