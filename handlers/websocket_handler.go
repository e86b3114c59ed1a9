package handlers

import (
	"context"
	"encoding/json"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/platform/events"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WSHandler struct {
	subscriber events.Subscriber
}

func NewWSHandler(subscriber events.Subscriber) *WSHandler {
	return &WSHandler{subscriber: subscriber}
}

func (h *WSHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not a websocket request"})
}

// HandleSessionEvents streams bus events, optionally only those of ?question_id=.
func (h *WSHandler) HandleSessionEvents(c *websocket.Conn) {
	questionID := c.Query("question_id")
	logging.Logger.Info("WebSocket connected", "questionID", questionID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the read loop notices the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	eventChan, err := h.subscriber.Subscribe(ctx)
	if err != nil {
		logging.Logger.Error("Failed to subscribe to events", "error", err)
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"Failed to subscribe"}`))
		return
	}
	if err := c.WriteJSON(fiber.Map{
		"type":    "connected",
		"message": "WebSocket connected successfully",
	}); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-eventChan:
			if !ok || event == nil {
				return
			}
			if questionID != "" && event.QuestionID != questionID {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				logging.Logger.Error("fail marshal event", "error", err)
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Logger.Error("Failed to send WebSocket message", "error", err)
				return
			}
			logging.Logger.Debug("Event sent to client", "type", event.Type, "questionID", event.QuestionID)
		case <-ctx.Done():
			return
		}
	}
}
