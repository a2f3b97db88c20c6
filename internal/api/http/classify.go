package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-summary/internal/common"
	"github.com/i474232898/weather-summary/internal/weather"
)

// cityNotFoundMessage is returned whenever a failure reads as an unknown city.
const cityNotFoundMessage = "City not found. Please check the name and try again."

// Classify maps a failed summary lookup to a status code and optional body.
// A nil body means the response is sent without one.
func Classify(city string, err error) (int, *weather.WeatherSummary) {
	if common.ContainsAnyFold(err.Error(), "invalid city", "city not found") {
		return fiber.StatusBadRequest, &weather.WeatherSummary{
			City:               city,
			AverageTemperature: -1.0,
			ErrorMessage:       cityNotFoundMessage,
		}
	}

	var pe *weather.ProviderError
	if errors.As(err, &pe) {
		return fiber.StatusInternalServerError, &weather.WeatherSummary{
			City:               city,
			AverageTemperature: -1.0,
			ErrorMessage:       pe.Describe(),
		}
	}

	return fiber.StatusBadRequest, nil
}
