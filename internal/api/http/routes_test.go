package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-summary/internal/metrics"
	"github.com/i474232898/weather-summary/internal/store"
	"github.com/i474232898/weather-summary/internal/weather"
	"github.com/i474232898/weather-summary/internal/weather/providers"
)

const testCityResponse = `{
  "location": { "name": "TestCity" },
  "forecast": {
    "forecastday": [
      { "date": "2025-02-09", "day": { "avgtemp_c": 15.0 } },
      { "date": "2025-02-10", "day": { "avgtemp_c": 16.0 } },
      { "date": "2025-02-11", "day": { "avgtemp_c": 18.0 } },
      { "date": "2025-02-12", "day": { "avgtemp_c": 20.0 } },
      { "date": "2025-02-13", "day": { "avgtemp_c": 22.0 } },
      { "date": "2025-02-14", "day": { "avgtemp_c": 19.0 } },
      { "date": "2025-02-15", "day": { "avgtemp_c": 21.0 } }
    ]
  }
}`

var fixtureNow = time.Date(2025, time.February, 15, 10, 0, 0, 0, time.UTC)

// upstream routes the fake WeatherAPI by the q parameter.
type upstream struct {
	calls atomic.Int32
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.calls.Add(1)
	if r.URL.Query().Get("key") != "dummy-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.URL.Query().Get("q") {
	case "TestCity":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, testCityResponse)
	case "InvalidCity":
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"code": 1006, "message": "No matching location found."}}`)
	case "NoDataCity":
		_, _ = io.WriteString(w, `{}`)
	case "GarbageCity":
		_, _ = io.WriteString(w, "INVALID_JSON")
	case "DownCity":
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "maintenance")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestApp(t *testing.T) (*fiber.App, *upstream) {
	t.Helper()

	up := &upstream{}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	m := metrics.New()
	provider := providers.NewWeatherAPIProvider(srv.Client(), srv.URL+"/v1/history.json", "dummy-key", nil)
	svc := weather.NewService(
		store.NewMemoryCache(store.DefaultTTL, store.DefaultMaxSize),
		provider,
		7,
		weather.WithClock(func() time.Time { return fixtureNow }),
		weather.WithRecorder(m),
	)

	app := NewApp(NewHandler(svc, nil, m), AppOptions{
		MetricsHandler: promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
	})
	return app, up
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), 5000)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestGetWeather_Success(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/weather?city=TestCity")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got weather.WeatherSummary
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "TestCity", got.City)
	assert.InDelta(t, 18.71, got.AverageTemperature, 0.1)
	assert.Equal(t, "2025-02-13", got.HottestDay)
	assert.Equal(t, "2025-02-09", got.ColdestDay)
	assert.NotContains(t, string(body), "errorMessage")
}

func TestGetWeather_CachedWithinTTL(t *testing.T) {
	app, up := newTestApp(t)

	for i := 0; i < 3; i++ {
		resp, _ := get(t, app, "/weather?city=TestCity")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestGetWeather_InvalidCity(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/weather?city=InvalidCity")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got weather.WeatherSummary
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "InvalidCity", got.City)
	assert.Equal(t, -1.0, got.AverageTemperature)
	assert.Equal(t, "City not found. Please check the name and try again.", got.ErrorMessage)
	assert.NotContains(t, string(body), "hottestDay")
}

func TestGetWeather_EmptyPayload(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/weather?city=NoDataCity")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, body)
}

func TestGetWeather_MalformedPayload(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/weather?city=GarbageCity")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var got weather.WeatherSummary
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Contains(t, got.ErrorMessage, "Weather API is currently unavailable")
	assert.Contains(t, got.ErrorMessage, "INVALID_JSON")
}

func TestGetWeather_UpstreamUnavailable(t *testing.T) {
	app, up := newTestApp(t)

	resp, body := get(t, app, "/weather?city=DownCity")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var got weather.WeatherSummary
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Weather API is currently unavailable. Please try again later. Error: maintenance", got.ErrorMessage)

	// Failures are not cached.
	get(t, app, "/weather?city=DownCity")
	assert.Equal(t, int32(2), up.calls.Load())
}

func TestGetWeather_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	deadURL := srv.URL
	srv.Close()

	provider := providers.NewWeatherAPIProvider(&http.Client{Timeout: time.Second}, deadURL, "secret-api-key", nil)
	svc := weather.NewService(store.NewMemoryCache(store.DefaultTTL, store.DefaultMaxSize), provider, 7)
	app := NewApp(NewHandler(svc, nil, nil), AppOptions{})

	resp, body := get(t, app, "/weather?city=Paris")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Weather API is currently unavailable")
	assert.NotContains(t, string(body), "secret-api-key")
}

func TestGetWeather_MissingCity(t *testing.T) {
	app, up := newTestApp(t)

	resp, body := get(t, app, "/weather")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "city")
	assert.Zero(t, up.calls.Load())
}

// stubService returns a fixed result without any provider.
type stubService struct {
	res weather.SummaryResult
}

func (s stubService) GetSummaryAsync(context.Context, string) <-chan weather.SummaryResult {
	ch := make(chan weather.SummaryResult, 1)
	ch <- s.res
	close(ch)
	return ch
}

// recordingService keeps every city it was asked for.
type recordingService struct {
	cities []string
}

func (s *recordingService) GetSummaryAsync(_ context.Context, city string) <-chan weather.SummaryResult {
	s.cities = append(s.cities, city)
	ch := make(chan weather.SummaryResult, 1)
	ch <- weather.SummaryResult{Summary: weather.WeatherSummary{City: city}}
	close(ch)
	return ch
}

func TestGetWeather_CityOutlivesRequest(t *testing.T) {
	svc := &recordingService{}
	app := fiber.New()
	RegisterRoutes(app, NewHandler(svc, nil, nil))

	get(t, app, "/weather?city=Amsterdam")
	get(t, app, "/weather?city=Zurich%20Oerlikon")
	get(t, app, "/weather?city=Rome")

	assert.Equal(t, []string{"Amsterdam", "Zurich Oerlikon", "Rome"}, svc.cities)
}

func TestGetWeather_UnexpectedErrorHasEmptyBody(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, NewHandler(stubService{res: weather.SummaryResult{Err: errors.New("API Error")}}, nil, nil))

	resp, body := get(t, app, "/weather?city=London")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, body)
}

func TestGetWeather_StubSuccess(t *testing.T) {
	want := weather.WeatherSummary{City: "London", AverageTemperature: 20.5, HottestDay: "2025-02-01", ColdestDay: "2025-02-10"}
	app := fiber.New()
	RegisterRoutes(app, NewHandler(stubService{res: weather.SummaryResult{Summary: want}}, nil, nil))

	resp, body := get(t, app, "/weather?city=London")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got weather.WeatherSummary
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, want, got)
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","service":"weather-summary"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth_CacheDown(t *testing.T) {
	app := NewApp(NewHandler(stubService{}, nil, nil), AppOptions{Cache: downPinger{}})

	resp, body := get(t, app, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"degraded","service":"weather-summary","cache":"error"}`, string(body))
}

func TestMetrics(t *testing.T) {
	app, _ := newTestApp(t)

	get(t, app, "/weather?city=TestCity")
	get(t, app, "/weather?city=TestCity")

	resp, body := get(t, app, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	text := string(body)
	assert.True(t, strings.Contains(text, `weather_cache_lookups_total{result="hit"} 1`), text)
	assert.True(t, strings.Contains(text, `weather_cache_lookups_total{result="miss"} 1`), text)
	assert.True(t, strings.Contains(text, `weather_provider_calls_total{outcome="success",provider="weatherapi"} 1`), text)
	assert.True(t, strings.Contains(text, `weather_summary_responses_total{status="200"} 2`), text)
}
