package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const appName = "weather-summary"

// Pinger is implemented by dependencies whose reachability /health reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AppOptions carries the optional pieces of the Fiber app.
type AppOptions struct {
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
	// Cache is pinged by /health when set.
	Cache Pinger
	// AccessLog enables Fiber's request logger.
	AccessLog bool
}

// NewApp builds the Fiber app with middleware, health, metrics and API routes.
func NewApp(h *Handler, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${url}\n",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		body := fiber.Map{
			"status":  "ok",
			"service": appName,
		}

		if opts.Cache != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
			defer cancel()

			body["cache"] = "ok"
			if err := opts.Cache.Ping(ctx); err != nil {
				status = fiber.StatusServiceUnavailable
				body["status"] = "degraded"
				body["cache"] = "error"
			}
		}

		return c.Status(status).JSON(body)
	})

	if opts.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.MetricsHandler))
	}

	RegisterRoutes(app, h)

	return app
}
