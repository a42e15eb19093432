package api

import (
	"github.com/gofiber/fiber/v3"
)

func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "coderead-backend",
		})
	})

	api := app.Group("/api")

	// Repositories
	repos := api.Group("/repositories")
	repos.Get("/", h.ListRepositories)
	repos.Post("/", h.CreateRepository)
	repos.Get("/:id", h.GetRepository)
	repos.Delete("/:id", h.DeleteRepository)
	repos.Post("/:id/sync", h.SyncRepository)
	repos.Get("/:id/tree", h.GetRepositoryTree)
	repos.Get("/:id/graph", h.GetRepositoryGraph)
	repos.Get("/:id/directories/*", h.GetDirectory)
	repos.Get("/:id/files/*", h.GetFile)

	// Code units
	api.Get("/code-units/:id", h.GetCodeUnit)

	// Jobs
	jobs := api.Group("/jobs")
	jobs.Get("/", h.ListJobs)
	jobs.Get("/:id", h.GetJob)
	jobs.Post("/:id/cancel", h.CancelJob)
}
