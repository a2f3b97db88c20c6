package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-summary/internal/api/http"
	"github.com/i474232898/weather-summary/internal/config"
	"github.com/i474232898/weather-summary/internal/logging"
	"github.com/i474232898/weather-summary/internal/metrics"
	"github.com/i474232898/weather-summary/internal/scheduler"
	"github.com/i474232898/weather-summary/internal/store"
	"github.com/i474232898/weather-summary/internal/weather"
	"github.com/i474232898/weather-summary/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Summary cache: in-memory by default, Redis when configured.
	var (
		cache  weather.Cache
		pinger httpapi.Pinger
	)
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		client, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		rc := store.NewRedisCache(client, cfg.CacheTTL)
		cache, pinger = rc, rc
	default:
		cache = store.NewMemoryCache(cfg.CacheTTL, cfg.CacheMaxSize)
	}

	provider := providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIURL, cfg.WeatherAPIKey, logger)

	// Core service orchestrating cache, provider and aggregation.
	service := weather.NewService(cache, provider, cfg.ForecastDays,
		weather.WithLogger(logger),
		weather.WithRecorder(m),
	)

	// Optional cache warmer.
	sched := scheduler.New(cfg.WarmCities, cfg.WarmInterval, cfg.HTTPTimeout, service, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.NewHandler(service, logger, m), httpapi.AppOptions{
		MetricsHandler: promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		Cache:          pinger,
		AccessLog:      true,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("cache", cfg.CacheBackend),
			zap.Int("forecast_days", cfg.ForecastDays))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server shut down cleanly")
	return nil
}
