package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-summary/internal/weather"
)

// DefaultWeatherAPIURL is the WeatherAPI.com history endpoint.
const DefaultWeatherAPIURL = "https://api.weatherapi.com/v1/history.json"

// WeatherAPIProvider implements weather.Provider against the WeatherAPI.com history endpoint.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewWeatherAPIProvider builds a provider. An empty baseURL selects DefaultWeatherAPIURL.
func NewWeatherAPIProvider(client *http.Client, baseURL, apiKey string, log *zap.Logger) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("provider", "weatherapi"))

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker("weatherapi", DefaultBreakerConfig, log),
		log:     log,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// FetchHistory requests daily history for city over window. Every failure is a
// *weather.ProviderError carrying the upstream status (0 for transport errors) and body.
func (p *WeatherAPIProvider) FetchHistory(ctx context.Context, city string, window weather.Window) (*weather.HistoryResponse, error) {
	if p.apiKey == "" {
		return nil, &weather.ProviderError{City: city, Body: "weatherapi api key is not configured"}
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", city)
	values.Set("dt", window.Start.Format(weather.DateLayout))
	values.Set("end_dt", window.End.Format(weather.DateLayout))

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	if err != nil {
		err = withoutURL(err)
		return nil, &weather.ProviderError{City: city, Body: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return nil, &weather.ProviderError{City: city, StatusCode: resp.StatusCode, Body: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.Warn("upstream returned non-2xx",
			zap.String("city", city),
			zap.Int("status", resp.StatusCode))
		return nil, &weather.ProviderError{
			City:       city,
			StatusCode: resp.StatusCode,
			Body:       truncate(resp.Body),
		}
	}

	p.log.Debug("received history response", zap.String("city", city), zap.Int("bytes", len(resp.Body)))

	var payload weather.HistoryResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, &weather.ProviderError{
			City:       city,
			StatusCode: resp.StatusCode,
			Body:       truncate(resp.Body),
			Err:        fmt.Errorf("decoding history response: %w", err),
		}
	}

	return &payload, nil
}
