package utils

import (
	"errors"

	"cruce-web/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	resp := Response{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.Status(status).JSON(resp)
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	var (
		fiberErr  *fiber.Error
		filterErr *models.FilterValidationError
		cfgErr    *models.ConfigError
		connErr   *models.ConnectionError
		queryErr  *models.QueryError
	)
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &filterErr):
		return fiber.StatusBadRequest
	case errors.As(err, &cfgErr):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &connErr):
		return fiber.StatusBadGateway
	case errors.As(err, &queryErr):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// FailResponse replies with the status StatusFor picks for err.
func FailResponse(c *fiber.Ctx, message string, err error) error {
	return ErrorResponse(c, StatusFor(err), message, err)
}
