package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/kyc-extractor/internal/common"
)

const parseErrorMessage = "Error parsing JSON response"

// writeError renders err with the status its kind maps to. Gateway failures carry the
// upstream body; persistence failures carry the driver message.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	rid := common.RequestIDFromContext(c.UserContext())
	status := common.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("api.request.failed", "request_id", rid, "path", c.Path(), "error", err)
	} else {
		s.logger.Warn("api.request.rejected", "request_id", rid, "path", c.Path(), "error", err)
	}

	var gwErr *common.GatewayError
	if errors.As(err, &gwErr) {
		return c.Status(status).JSON(fiber.Map{
			"error":   gwErr.Error(),
			"message": gwErr.Body,
		})
	}
	if errors.Is(err, common.ErrParse) {
		return c.Status(status).JSON(fiber.Map{"error": parseErrorMessage})
	}
	if errors.Is(err, common.ErrPersistence) {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return c.Status(status).JSON(fiber.Map{"error": appErr.Message})
	}
	return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
