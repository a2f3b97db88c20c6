package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-summary/internal/common"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type AppConfig struct {
	WeatherAPIKey string `validate:"required"`
	WeatherAPIURL string `validate:"required,url"`

	// ForecastDays is the lookback window length in days.
	ForecastDays int `validate:"gte=1,lte=30"`

	// Summary cache retention.
	CacheTTL     time.Duration `validate:"gt=0"`
	CacheMaxSize int           `validate:"gt=0"`
	CacheBackend string        `validate:"oneof=memory redis"`
	RedisURL     string        `validate:"required_if=CacheBackend redis"`

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// Optional cache warmer.
	WarmCities   []string
	WarmInterval time.Duration `validate:"gte=1m"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	cfg.WeatherAPIURL = getenvDefault("WEATHER_API_URL", "https://api.weatherapi.com/v1/history.json")
	cfg.ForecastDays = getenvInt("WEATHER_FORECAST_DAYS", 7)

	var err error
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "30m"); err != nil {
		return nil, err
	}
	cfg.CacheMaxSize = getenvInt("CACHE_MAX_SIZE", 100)
	cfg.CacheBackend = getenvDefault("CACHE_BACKEND", CacheBackendMemory)
	cfg.RedisURL = os.Getenv("REDIS_URL")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.WarmCities = common.SplitList(os.Getenv("WARM_CITIES"))
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
