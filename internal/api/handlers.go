package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/inference"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(s.svc.Health())
}

func (s *Server) predict(c *fiber.Ctx) error {
	start := time.Now()

	var req inference.Request
	if err := c.BodyParser(&req); err != nil {
		s.metrics.Observe(OutcomeInvalid, time.Since(start))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Code:  CodeBadRequest,
			Error: "request body must be a JSON object",
		})
	}

	resp, err := s.svc.Predict(c.UserContext(), req)
	if err != nil {
		status, body, outcome := classifyError(err)
		s.metrics.Observe(outcome, time.Since(start))
		if status >= fiber.StatusInternalServerError {
			slog.Error("Prediction failed", "error", err, "request_id", c.Locals(requestIDKey))
		}
		return c.Status(status).JSON(body)
	}

	s.metrics.Observe(OutcomeOK, time.Since(start))
	return c.JSON(resp)
}

// classifyError maps a service error onto a status, body and metric outcome.
func classifyError(err error) (int, ErrorResponse, string) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return fiber.StatusUnprocessableEntity, ErrorResponse{Code: CodeInvalidInput, Error: err.Error()}, OutcomeInvalid
	case errors.Is(err, common.ErrModelNotLoaded):
		return fiber.StatusServiceUnavailable, ErrorResponse{Code: CodeModelNotLoaded, Error: err.Error()}, OutcomeUnavailable
	case errors.Is(err, common.ErrModelNotFitted):
		return fiber.StatusServiceUnavailable, ErrorResponse{Code: CodeModelNotFitted, Error: err.Error()}, OutcomeUnavailable
	default:
		return fiber.StatusInternalServerError, ErrorResponse{Code: CodeInternal, Error: "prediction failed"}, OutcomeError
	}
}
