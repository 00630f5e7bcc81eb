package v1

import (
	"task-manager/internal/api/v1/handlers"
	"task-manager/internal/config"
	"task-manager/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, deps *config.Dependencies) {
	h := handlers.New(deps)
	requireUser := middleware.RequireUser(deps.Resolver)

	app.Get("/", h.Root)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Get("/me", requireUser, h.Me)
	authRoutes.Delete("/me", requireUser, h.DeleteMe)
	authRoutes.Get("/statistics", requireUser, h.Statistics)

	// Task; /statistics harus didaftarkan sebelum /:id
	taskRoutes := api.Group("/tasks", requireUser)
	taskRoutes.Post("/", h.CreateTask)
	taskRoutes.Get("/", h.ListTasks)
	taskRoutes.Get("/statistics", h.Statistics)
	taskRoutes.Get("/:id", h.GetTask)
	taskRoutes.Put("/:id", h.UpdateTask)
	taskRoutes.Patch("/:id", h.UpdateTask)
	taskRoutes.Patch("/:id/complete", h.CompleteTask)
	taskRoutes.Patch("/:id/incomplete", h.IncompleteTask)
	taskRoutes.Delete("/:id", h.DeleteTask)
}

// NewApp membuat fiber.App dengan error handler dan logging request. Middleware
// tambahan (cors, limiter) dipasang sebelum route.
func NewApp(deps *config.Dependencies, middlewares ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      deps.Config.AppName,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(middleware.ErrorHandler())
	for _, m := range middlewares {
		app.Use(m)
	}
	RegisterRoutes(app, deps)
	return app
}
