package routes

import (
	"go_qa_assistant/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterHistoryRoutes(app *fiber.App, handler *handlers.HistoryHandler) {
	history := app.Group("api/history")
	history.Get("/", handler.List)
	history.Delete("/:question_id", handler.Delete)
}
