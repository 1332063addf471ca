package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"billing-backend/database"
	"billing-backend/logger"
)

// Tx opens a per-request DB transaction for mutating requests and commits it
// when the handler chain succeeds. Handlers reach it through database.GetDB(c).
// Order: run AFTER Idempotency() so idempotency records aren't tied to the handler TX.
func Tx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		if database.DB == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "database not initialized")
		}

		tx := database.DB.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so the recover middleware can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				log := logger.WithComponent("http")
				log.Error().Err(e).Str("path", c.Path()).Msg("tx commit failed")
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		c.Locals(database.TxLocal, tx)
		defer c.Locals(database.TxLocal, nil)

		return c.Next()
	}
}
