package weather

import (
	"context"
)

// Provider abstracts the weather-history source (WeatherAPI.com).
// Implementations return *ProviderError for upstream and transport failures.
type Provider interface {
	Name() string
	FetchHistory(ctx context.Context, city string, window Window) (*HistoryResponse, error)
}

// Cache is the contract for summary caches (in-memory and Redis).
// Entries are keyed by the city exactly as the caller supplied it.
type Cache interface {
	Get(ctx context.Context, city string) (WeatherSummary, bool, error)
	Set(ctx context.Context, city string, summary WeatherSummary) error
}
