package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-summary/internal/weather"
)

// maxConcurrentRefreshes bounds outbound calls made by a single warm run.
const maxConcurrentRefreshes = 4

// Refresher re-populates the summary cache for a city.
type Refresher interface {
	Refresh(ctx context.Context, city string) (weather.WeatherSummary, error)
}

// Scheduler periodically refreshes cached summaries for configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	cities    []string
	interval  time.Duration
	timeout   time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler. timeout bounds each city's refresh.
func New(cities []string, interval, timeout time.Duration, service Refresher, log *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		cities:    cities,
		interval:  interval,
		timeout:   timeout,
		log:       log.With(zap.String("component", "scheduler")),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.log.Info("no warm cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.warm(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// warm refreshes every configured city. A failing city is logged and does not
// affect the others.
func (s *Scheduler) warm(ctx context.Context) int {
	s.log.Info("running cache warm job", zap.Int("cities", len(s.cities)))

	results := make([]bool, len(s.cities))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRefreshes)
	for i, city := range s.cities {
		i, city := i, city
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if _, err := s.service.Refresh(ctx, city); err != nil {
				s.log.Warn("cache warm failed", zap.String("city", city), zap.Error(err))
				return nil
			}
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	refreshed := 0
	for _, ok := range results {
		if ok {
			refreshed++
		}
	}
	s.log.Info("completed cache warm job", zap.Int("refreshed", refreshed))
	return refreshed
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
