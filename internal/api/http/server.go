package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/store"
	"github.com/i474232898/skypulse/internal/weather"
)

// NewApp builds the fiber app with middleware, the central error handler and every route.
func NewApp(d Deps, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "skypulse",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          ErrorHandler,
	})

	if accessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(recover.New())

	RegisterRoutes(app, d)
	return app
}

// ErrorHandler maps domain errors to status codes and renders a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if code >= fiber.StatusInternalServerError {
		logger.GetLogger().Errorw("Request failed", "method", c.Method(), "path", c.Path(), "status", code, "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, weather.ErrInvalidCoordinates), errors.Is(err, store.ErrInvalidValue):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrLocationNotFound), errors.Is(err, weather.ErrNoSession), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, weather.ErrSuperseded):
		return fiber.StatusConflict
	case errors.Is(err, weather.ErrCurrentUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
