package weather

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Recorder receives service-level events, usually backed by Prometheus collectors.
type Recorder interface {
	CacheLookup(hit bool)
	ProviderCall(provider, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(bool) {}

func (nopRecorder) ProviderCall(string, string) {}

// Provider call outcomes reported to the Recorder.
const (
	OutcomeSuccess         = "success"
	OutcomeProviderError   = "provider_error"
	OutcomeProcessingError = "processing_error"
)

// SummaryResult is the single value delivered by GetSummaryAsync.
type SummaryResult struct {
	Summary WeatherSummary
	Err     error
}

// Service orchestrates the cache, the provider and the aggregator.
type Service struct {
	cache        Cache
	provider     Provider
	lookbackDays int

	now      func() time.Time
	log      *zap.Logger
	recorder Recorder
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithClock replaces time.Now when computing the lookback window.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a new Service.
func NewService(cache Cache, provider Provider, lookbackDays int, opts ...ServiceOption) *Service {
	s := &Service{
		cache:        cache,
		provider:     provider,
		lookbackDays: lookbackDays,
		now:          time.Now,
		log:          zap.NewNop(),
		recorder:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "weather.service"))
	return s
}

// GetSummary returns the summary for city, serving it from cache when fresh.
// Failures are never cached.
func (s *Service) GetSummary(ctx context.Context, city string) (WeatherSummary, error) {
	cached, ok, err := s.cache.Get(ctx, city)
	if err != nil {
		s.log.Warn("cache lookup failed; fetching from provider", zap.String("city", city), zap.Error(err))
	}
	s.recorder.CacheLookup(ok)
	if ok {
		s.log.Debug("cache hit", zap.String("city", city))
		return cached, nil
	}

	return s.Refresh(ctx, city)
}

// GetSummaryAsync runs GetSummary on its own goroutine and delivers exactly one result.
// The call is detached from ctx cancellation: once issued it runs to completion,
// bounded by the provider's transport timeout.
func (s *Service) GetSummaryAsync(ctx context.Context, city string) <-chan SummaryResult {
	out := make(chan SummaryResult, 1)
	detached := context.WithoutCancel(ctx)

	go func() {
		defer close(out)
		summary, err := s.GetSummary(detached, city)
		out <- SummaryResult{Summary: summary, Err: err}
	}()

	return out
}

// Refresh fetches and aggregates fresh data for city, bypassing the cache lookup,
// and stores the result on success.
func (s *Service) Refresh(ctx context.Context, city string) (WeatherSummary, error) {
	window := LookbackWindow(s.now(), s.lookbackDays)

	payload, err := s.provider.FetchHistory(ctx, city, window)
	if err != nil {
		s.recorder.ProviderCall(s.provider.Name(), OutcomeProviderError)
		var pe *ProviderError
		if !errors.As(err, &pe) {
			err = &ProviderError{City: city, Body: err.Error(), Err: err}
		}
		s.log.Error("provider fetch failed", zap.String("city", city), zap.Error(err))
		return WeatherSummary{}, err
	}

	summary, err := Summarize(payload, window)
	if err != nil {
		s.recorder.ProviderCall(s.provider.Name(), OutcomeProcessingError)
		s.log.Error("error processing weather data", zap.String("city", city), zap.Error(err))
		return WeatherSummary{}, &ProcessingError{City: city, Err: err}
	}
	s.recorder.ProviderCall(s.provider.Name(), OutcomeSuccess)

	if err := s.cache.Set(ctx, city, summary); err != nil {
		s.log.Warn("cache store failed", zap.String("city", city), zap.Error(err))
	}

	return summary, nil
}
