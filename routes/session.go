package routes

import (
	"go_qa_assistant/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterSessionRoutes(app *fiber.App, handler *handlers.SessionHandler) {
	session := app.Group("api/session")
	session.Get("/", handler.GetSession)
	session.Post("/questions", handler.Submit)
	session.Post("/new", handler.NewConversation)
	session.Post("/history/:question_id", handler.SelectHistory)
	session.Put("/display-mode", handler.SetDisplayMode)
}
