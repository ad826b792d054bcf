package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxcast/forecast-narrator/internal/cache"
	"github.com/voxcast/forecast-narrator/internal/circuitbreaker"
	"github.com/voxcast/forecast-narrator/internal/client"
	"github.com/voxcast/forecast-narrator/internal/models"
	"github.com/voxcast/forecast-narrator/internal/observability"
)

// ReportBuilder turns a forecast payload and a requested date into a
// narrated report. Implemented by forecast.Builder.
type ReportBuilder interface {
	Build(payload models.Payload, dateInput string) (models.ForecastReport, error)
}

// ForecastService retrieves forecast payloads using a cache-aside pattern
// with upstream API fallback, then narrates them for the requested date.
type ForecastService struct {
	client  client.WeatherClient
	cache   cache.Cache
	builder ReportBuilder
	breaker *circuitbreaker.CircuitBreaker
	ttl     time.Duration
	lat     float64
	lng     float64
}

// NewForecastService creates a ForecastService for the configured coordinate.
// TTL specifies the cache expiration duration for forecast payloads.
// breaker may be nil to call the upstream directly.
func NewForecastService(client client.WeatherClient, cache cache.Cache, builder ReportBuilder, breaker *circuitbreaker.CircuitBreaker, ttl time.Duration, lat, lng float64) *ForecastService {
	return &ForecastService{
		client:  client,
		cache:   cache,
		builder: builder,
		breaker: breaker,
		ttl:     ttl,
		lat:     lat,
		lng:     lng,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// GetForecast fetches the payload for the configured coordinate and narrates
// it for the requested date. dateInput may be empty for today.
func (s *ForecastService) GetForecast(ctx context.Context, dateInput string) (models.ForecastReport, error) {
	payload, err := s.GetPayload(ctx, s.lat, s.lng)
	if err != nil {
		return models.ForecastReport{}, err
	}

	report, err := s.builder.Build(payload, dateInput)
	if err != nil {
		return models.ForecastReport{}, err
	}

	observability.ForecastsTotal.WithLabelValues("summary").Inc()
	if report.Detail != nil {
		observability.ForecastsTotal.WithLabelValues("detail").Inc()
	}
	if report.Currently != nil {
		observability.ForecastsTotal.WithLabelValues("currently").Inc()
	}
	return report, nil
}

// GetPayload retrieves the forecast payload for a coordinate using the
// cache-aside pattern. Checks cache first, falls back to upstream API on
// cache miss, and populates cache on success.
func (s *ForecastService) GetPayload(ctx context.Context, lat, lng float64) (models.Payload, error) {
	key := cache.Key(lat, lng)
	start := time.Now()
	logger := loggerFromContext(ctx)

	getStart := time.Now()
	cached, ok, err := s.cache.Get(ctx, key)
	getDuration := time.Since(getStart).Seconds()
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
		observability.CacheOperationDurationSeconds.WithLabelValues("get", "error").Observe(getDuration)
	} else if ok {
		observability.CacheOperationDurationSeconds.WithLabelValues("get", "success").Observe(getDuration)
		observability.CacheHitsTotal.WithLabelValues("weather").Inc()
		if logger != nil {
			logger.Debug("cache hit", zap.String("key", key))
			logger.Debug("payload served", zap.String("key", key), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
		}
		return cached, nil
	}

	if logger != nil {
		logger.Debug("cache miss, fetching upstream", zap.String("key", key))
	}

	var data models.Payload
	var upstreamErr error
	if s.breaker != nil {
		upstreamErr = s.breaker.Call(ctx, func() error {
			var callErr error
			data, callErr = s.client.GetForecast(ctx, lat, lng)
			return callErr
		})
	} else {
		data, upstreamErr = s.client.GetForecast(ctx, lat, lng)
	}
	if upstreamErr != nil {
		return models.Payload{}, fmt.Errorf("fetch forecast for %s: %w", key, upstreamErr)
	}

	setStart := time.Now()
	if setErr := s.cache.Set(ctx, key, data, s.ttl); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(setErr)).Inc()
		observability.CacheOperationDurationSeconds.WithLabelValues("set", "error").Observe(time.Since(setStart).Seconds())
		if logger != nil {
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
		}
	} else {
		observability.CacheOperationDurationSeconds.WithLabelValues("set", "success").Observe(time.Since(setStart).Seconds())
	}
	if logger != nil {
		logger.Debug("payload served", zap.String("key", key), zap.Bool("cached", false), zap.Duration("duration", time.Since(start)))
	}
	return data, nil
}

// categorizeCacheError returns a stable label for cache error metrics (timeout, connection, unknown).
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	return "unknown"
}

// ensure ForecastService satisfies the warming fetcher.
var _ cache.PayloadFetcher = (*ForecastService)(nil)
