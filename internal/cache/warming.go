package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voxcast/forecast-narrator/internal/models"
	"github.com/voxcast/forecast-narrator/internal/observability"
)

// Coordinate is one lat/lng pair to keep warm.
type Coordinate struct {
	Lat float64
	Lng float64
}

// PayloadFetcher is implemented by the service layer to fetch a forecast
// payload for a coordinate. Used by CacheWarmer to avoid a circular
// dependency on the service package.
type PayloadFetcher interface {
	GetPayload(ctx context.Context, lat, lng float64) (models.Payload, error)
}

// CacheWarmer warms the cache by prefetching forecast payloads for a list of
// coordinates.
type CacheWarmer struct {
	fetcher PayloadFetcher
	logger  *zap.Logger
}

// NewCacheWarmer creates a CacheWarmer that uses the given fetcher and logger.
func NewCacheWarmer(fetcher PayloadFetcher, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{fetcher: fetcher, logger: logger}
}

// Warm fetches forecasts for each coordinate concurrently and populates the
// cache via the fetcher. Returns an error if any coordinate failed (aggregated).
func (w *CacheWarmer) Warm(ctx context.Context, coords []Coordinate) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming cache", zap.Int("coordinates", len(coords)))
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(coords))
	for _, c := range coords {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.fetcher.GetPayload(ctx, c.Lat, c.Lng)
			if err != nil {
				errCh <- fmt.Errorf("warm %s: %w", Key(c.Lat, c.Lng), err)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if w.logger != nil {
		w.logger.Info("cache warming complete", zap.Int("coordinates", len(coords)), zap.Int("errors", len(errs)), zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval until ctx is done.
func (w *CacheWarmer) WarmPeriodic(ctx context.Context, coords []Coordinate, interval time.Duration) error {
	if err := w.Warm(ctx, coords); err != nil && w.logger != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, coords); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
