package database

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TxLocal is the fiber.Ctx local under which the per-request transaction lives.
const TxLocal = "tx"

// GetDB returns the *gorm.DB for a request: the per-request transaction opened
// by middlewares.Tx when present, else the shared handle.
func GetDB(c *fiber.Ctx) (*gorm.DB, error) {
	if v := c.Locals(TxLocal); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx.WithContext(c.UserContext()), nil
		}
	}
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	return DB.WithContext(c.UserContext()), nil
}
