package handlers

import (
	"go_qa_assistant/services"

	"github.com/gofiber/fiber/v2"
)

type HistoryHandler struct {
	history *services.HistoryService
	session *services.SessionService
}

func NewHistoryHandler(history *services.HistoryService, session *services.SessionService) *HistoryHandler {
	return &HistoryHandler{history: history, session: session}
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	questions, err := h.history.Refresh(c.UserContext())
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(fiber.Map{"questions": questions})
}

func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.session.DeleteQuestion(c.UserContext(), c.Params("question_id")); err != nil {
		return toFiberError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
