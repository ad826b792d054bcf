package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across client, http, service, and forecast packages.
func TestMetrics_Usable(t *testing.T) {
	// Route uses path template to avoid cardinality (e.g. /forecast not /forecast?date=...)
	HTTPRequestsTotal.WithLabelValues("GET", "/forecast", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/forecast").Observe(0.01)
	WeatherAPICallsTotal.WithLabelValues("success").Inc()
	WeatherAPICallsTotal.WithLabelValues("error").Inc()
	WeatherAPIDuration.WithLabelValues("success").Observe(0.1)
	CacheHitsTotal.WithLabelValues("weather").Inc()
	ForecastsTotal.WithLabelValues("summary").Inc()
	ForecastsTotal.WithLabelValues("detail").Inc()
	ForecastsTotal.WithLabelValues("currently").Inc()
	ForecastDateRejectionsTotal.Inc()
	ClassificationGapsTotal.WithLabelValues("rain").Inc()
	RateLimitDeniedTotal.Inc()
}

// TestMetricsHandler_ServesPrometheusFormat verifies the handler serves the
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "httpRequestsTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
}
