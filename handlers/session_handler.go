package handlers

import (
	"go_qa_assistant/models"
	"go_qa_assistant/services"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	session *services.SessionService
}

func NewSessionHandler(session *services.SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	return c.JSON(h.session.Snapshot())
}

func (h *SessionHandler) Submit(c *fiber.Ctx) error {
	var req services.Submission
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.ConversationAction != "" && req.ConversationAction != services.ConversationContinue && req.ConversationAction != services.ConversationClose {
		return fiber.NewError(fiber.StatusBadRequest, "conversation_action must be continue or close")
	}
	answer, err := h.session.Submit(c.UserContext(), req)
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(fiber.Map{
		"answer":  answer,
		"session": h.session.Snapshot(),
	})
}

func (h *SessionHandler) NewConversation(c *fiber.Ctx) error {
	h.session.NewConversation(c.UserContext())
	return c.JSON(h.session.Snapshot())
}

func (h *SessionHandler) SelectHistory(c *fiber.Ctx) error {
	answer, err := h.session.SelectHistoryByID(c.UserContext(), c.Params("question_id"))
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(fiber.Map{
		"answer":  answer,
		"session": h.session.Snapshot(),
	})
}

func (h *SessionHandler) SetDisplayMode(c *fiber.Ctx) error {
	var req struct {
		DisplayMode models.DisplayMode `json:"display_mode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.session.SetDisplayMode(c.UserContext(), req.DisplayMode); err != nil {
		return toFiberError(err)
	}
	return c.JSON(h.session.Snapshot())
}
