package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
)

// Handlers bundles the httpapi handlers SetupRouter wires up.
type Handlers struct {
	Task   *TaskHandler
	Health *HealthHandler
}

// SetupRouter configures the Fiber router: middleware stack, swagger mount,
// and the task/health route groups.
func SetupRouter(app *fiber.App, h *Handlers) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)
	app.Get("/live", h.Health.Live)

	v1 := app.Group("/api/v1")

	tasks := v1.Group("/tasks")
	tasks.Post("/", h.Task.Create)
	tasks.Get("/", h.Task.List)
	tasks.Get("/:id", h.Task.Get)
	tasks.Delete("/:id", h.Task.Delete)
	tasks.Post("/:id/pause", h.Task.Pause)
	tasks.Post("/:id/resume", h.Task.Resume)
	tasks.Post("/:id/trigger", h.Task.Trigger)
	tasks.Put("/:id/schedule", h.Task.Reschedule)
}
