package handlers

import (
	"fmt"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/services"
	"go_qa_assistant/utils"

	"github.com/gofiber/fiber/v2"
)

type VersionHandler struct {
	store   *services.VersionStore
	session *services.SessionService
}

func NewVersionHandler(store *services.VersionStore, session *services.SessionService) *VersionHandler {
	return &VersionHandler{store: store, session: session}
}

func (h *VersionHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.store.View())
}

func (h *VersionHandler) Current(c *fiber.Ctx) error {
	v := h.store.CurrentVersion()
	if v == nil {
		return fiber.NewError(fiber.StatusNotFound, "no current version")
	}
	return c.JSON(v)
}

type saveVersionRequest struct {
	Content string             `json:"content"`
	Type    models.VersionType `json:"type"`
}

// Save stores edited content. A rejected duplicate answers 200 with created=false.
func (h *VersionHandler) Save(c *fiber.Ctx) error {
	var req saveVersionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	v, err := h.session.SaveVersion(c.UserContext(), req.Content, req.Type)
	if err != nil {
		return toFiberError(err)
	}
	if v == nil {
		return c.JSON(fiber.Map{"version": nil, "created": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"version": v, "created": true})
}

func (h *VersionHandler) Reload(c *fiber.Ctx) error {
	questionID := h.store.QuestionID()
	if questionID == "" {
		return toFiberError(apperr.Validation("reload versions", "no question loaded"))
	}
	if _, err := h.store.ForceReload(c.UserContext(), questionID); err != nil {
		return toFiberError(err)
	}
	return c.JSON(h.store.View())
}

func (h *VersionHandler) Select(c *fiber.Ctx) error {
	v, err := h.store.Select(models.ParseVersionID(c.Params("version_id")))
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(v)
}

func (h *VersionHandler) ToggleLike(c *fiber.Ctx) error {
	v := h.store.ToggleLike(c.UserContext(), models.ParseVersionID(c.Params("version_id")))
	return c.JSON(fiber.Map{"version": v, "changed": v != nil})
}

func (h *VersionHandler) ToggleBookmark(c *fiber.Ctx) error {
	v := h.store.ToggleBookmark(c.UserContext(), models.ParseVersionID(c.Params("version_id")))
	return c.JSON(fiber.Map{"version": v, "changed": v != nil})
}

// Diff compares a version with ?against= or, without it, with the current version.
func (h *VersionHandler) Diff(c *fiber.Ctx) error {
	to := h.store.Version(models.ParseVersionID(c.Params("version_id")))
	if to == nil {
		return fiber.NewError(fiber.StatusNotFound, "version not found")
	}
	var from *models.Version
	if against := c.Query("against"); against != "" {
		from = h.store.Version(models.ParseVersionID(against))
	} else {
		from = h.store.CurrentVersion()
	}
	if from == nil {
		return fiber.NewError(fiber.StatusNotFound, "version to compare against not found")
	}
	diff, err := utils.UnifiedDiff(versionLabel(from), from.Content, versionLabel(to), to.Content)
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(fiber.Map{
		"from": from.ID,
		"to":   to.ID,
		"diff": diff,
	})
}

func versionLabel(v *models.Version) string {
	return fmt.Sprintf("%s@%s", v.Type, v.ID)
}
