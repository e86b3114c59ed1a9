package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"go_qa_assistant/handlers"
)

func SetupWebSocketRoutes(app *fiber.App, wsHandler *handlers.WSHandler) {
	ws := app.Group("/ws")

	ws.Use("/events", wsHandler.WebSocketUpgrade)
	ws.Get("/events", websocket.New(wsHandler.HandleSessionEvents))
}
