package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dtbase/dtbase/internal/services"
	"github.com/dtbase/dtbase/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler formats uncaught handler errors into the standard JSON
// envelope. Registered as the app-wide fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	errorType := "unknown"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code == fiber.StatusBadRequest {
		errorType = "validation.input"
	}

	return utils.ErrorResponse(c, err.Error(), code, errorType)
}

// parseBody checks that all required keys are present in the JSON body, then
// unmarshals it into out. A non-nil return is an error for the app-wide
// error handler; return it from the handler as-is.
func parseBody(c *fiber.Ctx, out interface{}, required ...string) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}

	var missing []string
	for _, key := range required {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Missing required keys: %s", strings.Join(missing, ", ")))
	}

	if out != nil {
		if err := c.BodyParser(out); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid input")
		}
	}
	return nil
}

// serviceErrorResponse maps service-layer sentinel errors to HTTP responses.
func serviceErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrInUse):
		return utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}
