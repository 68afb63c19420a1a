// Package main provides the taskbe API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/audit"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/ratecounter"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/rules"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/web"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	ruleStore   *rules.Store
	sink        audit.Sink
	counter     ratecounter.Counter
	thresholds  rules.Thresholds
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	ruleStore *rules.Store,
	sink audit.Sink,
	counter ratecounter.Counter,
	thresholds rules.Thresholds,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		ruleStore:   ruleStore,
		sink:        sink,
		counter:     counter,
		thresholds:  thresholds,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	ruleEngine := rules.NewEngine(a.ruleStore, a.sink, a.thresholds, a.logger)
	workflowEngine := workflow.NewEngine(a.persistence, a.sink, a.logger)

	handlers := web.NewAPIHandlers(ruleEngine, a.ruleStore, workflowEngine, a.persistence, a.counter, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("taskbe API")
	})

	app.Post("/evaluate", handlers.Evaluate)

	r := app.Group("/rules")
	r.Post("/", handlers.SaveRule)
	r.Post("/reload", handlers.ReloadRules)

	w := app.Group("/workflow")
	w.Post("/requests", handlers.CreateTransition)
	w.Get("/requests", handlers.ListRequests)
	w.Post("/requests/:id/resolve", handlers.ResolveRequest)
	w.Get("/history/:entityType/:entityId", handlers.GetHistory)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
