package weather

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingData is returned when the payload has no usable forecast entries.
var ErrMissingData = errors.New("weather data not found for the given city")

// ProcessingError wraps a failure to turn a provider payload into a summary.
type ProcessingError struct {
	City string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("error processing weather data: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// ProviderError describes a failed call to the upstream weather API.
// StatusCode is zero for transport failures.
type ProviderError struct {
	City       string
	StatusCode int
	Body       string
	Err        error
}

// Error returns the client-facing description so that upstream 4xx responses
// read as an invalid city.
func (e *ProviderError) Error() string {
	return e.Describe()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Describe renders the message shown to API clients for this failure.
func (e *ProviderError) Describe() string {
	if e.IsClientError() {
		return "Invalid city name: " + e.City
	}
	return "Weather API is currently unavailable. Please try again later. Error: " + e.Body
}

// IsClientError reports whether the upstream rejected the request with a 4xx status.
func (e *ProviderError) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}
