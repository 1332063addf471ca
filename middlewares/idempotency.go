package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"billing-backend/database"
	"billing-backend/models"
)

// IdempotencyHeader carries the client-chosen key for a mutating request.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// Idempotency replays the stored response when a mutating request repeats an
// Idempotency-Key. A key is bound to the hash of method, URL and body; reusing
// it for a different request is a 409, and so is a repeat that arrives while
// the first request is still running. Only successful JSON responses are
// recorded; otherwise the key is released and may be retried.
func Idempotency() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return c.Next()
		}
		key := strings.TrimSpace(c.Get(IdempotencyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}
		if database.DB == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "database not initialized")
		}

		rec, claimed, err := claimKey(database.DB, key, c.Method(), c.OriginalURL(), requestHash(c))
		if err != nil {
			return err
		}
		if !claimed {
			if rec.ResponseStatus == 0 {
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still in progress")
			}
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(rec.ResponseStatus).Send(rec.ResponseBody)
		}

		recorded := false
		defer func() {
			if !recorded {
				releaseKey(database.DB, key)
			}
		}()
		if err := c.Next(); err != nil {
			return err
		}
		recorded = recordResponse(database.DB, key, c.Response().StatusCode(), c.Response().Body())
		return nil
	}
}

func requestHash(c *fiber.Ctx) string {
	h := sha256.New()
	h.Write([]byte(c.Method()))
	h.Write([]byte{'\n'})
	h.Write([]byte(c.OriginalURL()))
	h.Write([]byte{'\n'})
	h.Write(c.Body())
	return hex.EncodeToString(h.Sum(nil))
}

// claimKey returns the record for key, inserting a pending one on first use.
// claimed is true only for the request that inserted the row.
// It runs in its own short transaction, apart from the request transaction.
func claimKey(db *gorm.DB, key, method, path, hash string) (rec models.IdempotencyKey, claimed bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("key = ?", key).First(&rec).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = models.IdempotencyKey{Key: key, RequestHash: hash, Method: method, Path: path}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
			if res.Error != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
			}
			if res.RowsAffected == 1 {
				claimed = true
				return nil
			}
			// Lost the insert race; the winner's row decides.
			rec = models.IdempotencyKey{}
			if err := tx.Where("key = ?", key).First(&rec).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
			}
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
		}
		if rec.RequestHash != hash {
			return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
		}
		return nil
	})
	return rec, claimed, err
}

// recordResponse stores a completed response and reports whether it did.
func recordResponse(db *gorm.DB, key string, status int, body []byte) bool {
	if !json.Valid(body) {
		return false
	}
	blob := make([]byte, len(body))
	copy(blob, body)
	now := time.Now().UTC()
	err := db.Model(&models.IdempotencyKey{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"response_status": status,
			"response_body":   datatypes.JSON(blob),
			"completed_at":    &now,
		}).Error
	return err == nil
}

// releaseKey drops a pending claim so the client can retry under the same key.
func releaseKey(db *gorm.DB, key string) {
	_ = db.Where("key = ? AND response_status = ?", key, 0).Delete(&models.IdempotencyKey{}).Error
}
