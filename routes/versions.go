package routes

import (
	"go_qa_assistant/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterVersionRoutes(app *fiber.App, handler *handlers.VersionHandler) {
	versions := app.Group("api/versions")
	versions.Get("/", handler.List)
	versions.Get("/current", handler.Current)
	versions.Post("/", handler.Save)
	versions.Post("/reload", handler.Reload)
	versions.Put("/:version_id/select", handler.Select)
	versions.Post("/:version_id/like", handler.ToggleLike)
	versions.Post("/:version_id/bookmark", handler.ToggleBookmark)
	versions.Get("/:version_id/diff", handler.Diff)
}
