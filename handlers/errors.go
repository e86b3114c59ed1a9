package handlers

import (
	"errors"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/services"

	"github.com/gofiber/fiber/v2"
)

// toFiberError maps the error kinds onto HTTP statuses.
func toFiberError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, services.ErrSuperseded) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	msg := apperr.Message(err)
	switch apperr.KindOf(err) {
	case apperr.KindAuth:
		return fiber.NewError(fiber.StatusUnauthorized, msg)
	case apperr.KindValidation:
		return fiber.NewError(fiber.StatusBadRequest, msg)
	case apperr.KindNotFound:
		return fiber.NewError(fiber.StatusNotFound, msg)
	case apperr.KindNetwork:
		return fiber.NewError(fiber.StatusBadGateway, msg)
	}
	logging.Logger.Error("unhandled error", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "internal error")
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		errors.As(toFiberError(err), &fe)
	}
	return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
}
