package httpapi

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/i474232898/weather-summary/internal/weather"
)

var validate = validator.New()

// SummaryService is what the handlers need from weather.Service.
type SummaryService interface {
	GetSummaryAsync(ctx context.Context, city string) <-chan weather.SummaryResult
}

// ResponseRecorder counts responses by status code.
type ResponseRecorder interface {
	Response(status int)
}

type nopRecorder struct{}

func (nopRecorder) Response(int) {}

// Handler serves the weather summary endpoint.
type Handler struct {
	service  SummaryService
	log      *zap.Logger
	recorder ResponseRecorder
}

// NewHandler creates a Handler. A nil log or recorder disables that concern.
func NewHandler(service SummaryService, log *zap.Logger, recorder ResponseRecorder) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Handler{
		service:  service,
		log:      log.With(zap.String("component", "httpapi")),
		recorder: recorder,
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/weather", h.GetWeather)
}

// summaryQuery holds the query parameters of GET /weather.
type summaryQuery struct {
	City string `validate:"required"`
}

// GetWeather handles GET /weather?city={name}.
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	q := summaryQuery{City: utils.CopyString(c.Query("city"))}
	if err := validate.Struct(q); err != nil {
		h.recorder.Response(fiber.StatusBadRequest)
		return fiber.NewError(fiber.StatusBadRequest, "query parameter 'city' is required")
	}

	res := <-h.service.GetSummaryAsync(c.UserContext(), q.City)
	if res.Err == nil {
		h.log.Info("weather data successfully retrieved", zap.String("city", q.City))
		h.recorder.Response(fiber.StatusOK)
		return c.JSON(res.Summary)
	}

	status, body := Classify(q.City, res.Err)
	h.log.Error("weather summary request failed",
		zap.String("city", q.City),
		zap.Int("status", status),
		zap.String("message", res.Err.Error()))
	h.recorder.Response(status)

	c.Status(status)
	if body == nil {
		return nil
	}
	return c.JSON(body)
}
