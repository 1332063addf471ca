package middlewares

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"billing-backend/ledger"
	"billing-backend/logger"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Request validation errors (400 + per-field info)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(map[string]string, len(ve))
		for _, e := range ve {
			out[fieldPath(e.Namespace())] = e.Tag()
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Ledger error kinds
	var le *ledger.ValidationError
	switch {
	case errors.As(err, &le):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": le.Error(),
			"errors":  fiber.Map{le.Field: le.Message},
		})
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrInvalidTransition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": capitalize(err.Error())})
	case errors.Is(err, ledger.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}

	// 4) Unknown errors (500)
	log := logger.WithComponent("http")
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fieldPath drops the DTO type name from a validator namespace, so
// "InvoiceCreateDTO.items[0].tax_rate" becomes "items[0].tax_rate".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
