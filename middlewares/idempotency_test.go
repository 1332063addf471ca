package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/database"
	"billing-backend/models"
	"billing-backend/testutil"
)

func useTestDB(t *testing.T) {
	t.Helper()
	prev := database.DB
	database.DB = testutil.NewDB(t)
	t.Cleanup(func() { database.DB = prev })
}

func postWithKey(app *fiber.App, key, body string) (int, error) {
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, key)
	resp, err := app.Test(req, -1)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func keyedPost(t *testing.T, app *fiber.App, key, body string) int {
	t.Helper()
	status, err := postWithKey(app, key, body)
	require.NoError(t, err)
	return status
}

func TestIdempotencyRepeatWhileRunningConflicts(t *testing.T) {
	useTestDB(t)

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/payments", Idempotency(), func(c *fiber.Ctx) error {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": 1})
	})

	first := make(chan int, 1)
	go func() {
		status, _ := postWithKey(app, "pay-1", `{"amount":125}`)
		first <- status
	}()
	<-entered

	assert.Equal(t, http.StatusConflict, keyedPost(t, app, "pay-1", `{"amount":125}`))

	close(release)
	assert.Equal(t, http.StatusCreated, <-first)
	assert.Equal(t, http.StatusCreated, keyedPost(t, app, "pay-1", `{"amount":125}`), "replayed")
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	useTestDB(t)

	var calls atomic.Int32
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/payments", Idempotency(), func(c *fiber.Ctx) error {
		if calls.Add(1) == 1 {
			return errors.New("db went away")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": 2})
	})

	assert.Equal(t, http.StatusInternalServerError, keyedPost(t, app, "pay-2", `{"amount":10}`))
	var n int64
	require.NoError(t, database.DB.Model(&models.IdempotencyKey{}).Count(&n).Error)
	assert.Zero(t, n)

	assert.Equal(t, http.StatusCreated, keyedPost(t, app, "pay-2", `{"amount":10}`))
	assert.Equal(t, int32(2), calls.Load())
}
