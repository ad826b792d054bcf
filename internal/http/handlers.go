package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/voxcast/forecast-narrator/internal/client"
	"github.com/voxcast/forecast-narrator/internal/forecast"
	"github.com/voxcast/forecast-narrator/internal/models"
	"github.com/voxcast/forecast-narrator/internal/observability"
	"github.com/voxcast/forecast-narrator/internal/validation"
)

// ForecastGetter is the service-layer surface the handlers need.
type ForecastGetter interface {
	GetForecast(ctx context.Context, dateInput string) (models.ForecastReport, error)
}

// HealthConfig holds dependency probes for the health handler.
type HealthConfig struct {
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
	// BreakerState, when set, reports the upstream circuit breaker state string.
	BreakerState func() string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	forecastService  ForecastGetter
	client           client.WeatherClient
	healthConfig     *HealthConfig
	logger           *zap.Logger
	rateLimiter      *rate.Limiter
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	forecastService ForecastGetter,
	client client.WeatherClient,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	rateLimiter *rate.Limiter,
) *Handler {
	return &Handler{
		forecastService: forecastService,
		client:          client,
		healthConfig:    healthConfig,
		logger:          logger,
		rateLimiter:     rateLimiter,
	}
}

// Router wires all routes and middleware into a mux.Router.
func (h *Handler) Router(requestTimeout time.Duration) *mux.Router {
	r := mux.NewRouter()
	r.Use(CorrelationIDMiddleware(h.logger))
	r.Use(MetricsMiddleware)

	r.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/forecast").Subrouter()
	api.Use(RateLimitMiddleware(h.rateLimiter))
	api.Use(TimeoutMiddleware(requestTimeout))
	api.HandleFunc("", h.GetForecast).Methods(http.MethodGet)
	api.HandleFunc("/{date}", h.GetForecast).Methods(http.MethodGet)

	return r
}

// GetForecast handles GET /forecast and GET /forecast/{date}. The date may
// also arrive as a ?date= query parameter; the path form wins when both are set.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	dateInput := mux.Vars(r)["date"]
	if dateInput == "" {
		dateInput = r.URL.Query().Get("date")
	}

	report, err := h.forecastService.GetForecast(r.Context(), dateInput)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrDateInvalid):
			observability.ForecastDateRejectionsTotal.Inc()
			writeError(w, r, http.StatusBadRequest, "INVALID_DATE", err.Error())
		case errors.Is(err, validation.ErrDateRange):
			observability.ForecastDateRejectionsTotal.Inc()
			writeError(w, r, http.StatusBadRequest, "DATE_OUT_OF_RANGE", err.Error())
		case errors.Is(err, forecast.ErrNoData):
			writeError(w, r, http.StatusNotFound, "NO_DATA", err.Error())
		default:
			writeServiceError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	reason := ""
	checks := make(map[string]string)

	if err := h.client.ValidateAPIKey(r.Context()); err != nil {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
		reason = "api_key_invalid"
		checks["weatherApi"] = "unhealthy"
	} else {
		checks["weatherApi"] = "healthy"
	}

	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			// Cache outage degrades latency, not correctness; report but stay up.
			checks["cache"] = "unhealthy"
		}
	}
	if h.healthConfig != nil && h.healthConfig.BreakerState != nil {
		state := h.healthConfig.BreakerState()
		checks["upstreamBreaker"] = state
		if state == "open" && status == "healthy" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
			reason = "breaker_open"
		}
	}

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", status),
			zap.String("reason", reason))
	}
	h.healthStatusPrev = status
	h.healthStatusMu.Unlock()

	resp := map[string]interface{}{
		"status":    status,
		"service":   "forecast-narrator",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeServiceError writes a 503 Service Unavailable error response for upstream failures.
// Logs the underlying error at DEBUG level if logger is available in request context.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch forecast data")
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("upstream error", zap.Error(err))
	}
}
