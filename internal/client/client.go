package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/voxcast/forecast-narrator/internal/models"
	"github.com/voxcast/forecast-narrator/internal/observability"
)

type WeatherClient interface {
	GetForecast(ctx context.Context, lat, lng float64) (models.Payload, error)
	ValidateAPIKey(ctx context.Context) error
}

var (
	ErrInvalidAPIKey   = errors.New("invalid API key")
	ErrBadCoordinates  = errors.New("coordinates rejected by upstream")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
)

type OpenWeatherClient struct {
	apiKey         string
	apiURL         string
	timeout        time.Duration
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	return NewOpenWeatherClientWithRetry(apiKey, apiURL, timeout, 3, 100*time.Millisecond, 2*time.Second)
}

func NewOpenWeatherClientWithRetry(apiKey, apiURL string, timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}

	return &OpenWeatherClient{
		apiKey:         apiKey,
		apiURL:         apiURL,
		timeout:        timeout,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// oneCallResponse mirrors the One Call 3.0 wire format. Humidity arrives as a
// percentage and cloud cover as a percentage; precipitation as mm per hour
// under rain["1h"] / snow["1h"].
type oneCallResponse struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
	Current  struct {
		Dt         int64              `json:"dt"`
		Temp       float64            `json:"temp"`
		FeelsLike  float64            `json:"feels_like"`
		DewPoint   float64            `json:"dew_point"`
		Humidity   float64            `json:"humidity"`
		WindSpeed  float64            `json:"wind_speed"`
		Clouds     float64            `json:"clouds"`
		Visibility float64            `json:"visibility"`
		Rain       map[string]float64 `json:"rain"`
		Snow       map[string]float64 `json:"snow"`
		Weather    []wireCondition    `json:"weather"`
	} `json:"current"`
	Hourly []struct {
		Dt         int64              `json:"dt"`
		Temp       float64            `json:"temp"`
		FeelsLike  float64            `json:"feels_like"`
		DewPoint   float64            `json:"dew_point"`
		Humidity   float64            `json:"humidity"`
		WindSpeed  float64            `json:"wind_speed"`
		Clouds     float64            `json:"clouds"`
		Visibility float64            `json:"visibility"`
		Pop        float64            `json:"pop"`
		Rain       map[string]float64 `json:"rain"`
		Snow       map[string]float64 `json:"snow"`
		Weather    []wireCondition    `json:"weather"`
	} `json:"hourly"`
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Min   float64 `json:"min"`
			Max   float64 `json:"max"`
			Day   float64 `json:"day"`
			Night float64 `json:"night"`
		} `json:"temp"`
		FeelsLike struct {
			Morn  float64 `json:"morn"`
			Day   float64 `json:"day"`
			Eve   float64 `json:"eve"`
			Night float64 `json:"night"`
		} `json:"feels_like"`
		DewPoint  float64         `json:"dew_point"`
		Humidity  float64         `json:"humidity"`
		WindSpeed float64         `json:"wind_speed"`
		Clouds    float64         `json:"clouds"`
		Pop       float64         `json:"pop"`
		Rain      float64         `json:"rain"`
		Snow      float64         `json:"snow"`
		MoonPhase *float64        `json:"moon_phase"`
		Weather   []wireCondition `json:"weather"`
	} `json:"daily"`
	Alerts []struct {
		Event       string `json:"event"`
		Start       int64  `json:"start"`
		End         int64  `json:"end"`
		Description string `json:"description"`
	} `json:"alerts"`
}

type wireCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

func (c *OpenWeatherClient) GetForecast(ctx context.Context, lat, lng float64) (models.Payload, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.WeatherAPIRetriesTotal.Inc()
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return models.Payload{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.callAPI(ctx, lat, lng)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !c.isRetryable(err) {
			return models.Payload{}, err
		}
	}

	return models.Payload{}, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *OpenWeatherClient) callAPI(ctx context.Context, lat, lng float64) (models.Payload, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, lat, lng)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.Payload{}, fmt.Errorf("build request: %w", err)
	}

	corrID := extractCorrelationID(ctx)
	if corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.Payload{}, fmt.Errorf("request timeout: %w", err)
		}
		return models.Payload{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if err := c.handleErrorResponse(resp); err != nil {
		return models.Payload{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Payload{}, fmt.Errorf("read response body: %w", err)
	}

	var apiResp oneCallResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.Payload{}, fmt.Errorf("parse response: %w", err)
	}

	return c.mapResponse(apiResp), nil
}

func (c *OpenWeatherClient) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, ErrUpstreamFailure) {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "context deadline exceeded") || strings.Contains(errStr, "context canceled") {
		return true
	}

	return false
}

func (c *OpenWeatherClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, lat, lng float64) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', 4, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "imperial")
	params.Set("exclude", "minutely")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *OpenWeatherClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid API key", ErrInvalidAPIKey)
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d", ErrBadCoordinates, resp.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	return nil
}

func (c *OpenWeatherClient) mapResponse(apiResp oneCallResponse) models.Payload {
	p := models.Payload{
		Latitude:  apiResp.Lat,
		Longitude: apiResp.Lon,
		Timezone:  apiResp.Timezone,
		FetchedAt: time.Now(),
	}

	cur := apiResp.Current
	p.Current = models.CurrentSample{
		Time:         cur.Dt,
		Temp:         cur.Temp,
		FeelsLike:    cur.FeelsLike,
		DewPoint:     cur.DewPoint,
		Humidity:     cur.Humidity / 100,
		WindSpeed:    cur.WindSpeed,
		CloudCover:   cur.Clouds,
		Visibility:   cur.Visibility,
		RainLastHour: cur.Rain["1h"],
		SnowLastHour: cur.Snow["1h"],
		Codes:        conditionCodes(cur.Weather),
	}

	p.Hourly = make([]models.HourlySample, 0, len(apiResp.Hourly))
	for _, h := range apiResp.Hourly {
		rain := h.Rain["1h"]
		snow := h.Snow["1h"]
		sample := models.HourlySample{
			Time:              h.Dt,
			Temp:              h.Temp,
			FeelsLike:         h.FeelsLike,
			DewPoint:          h.DewPoint,
			Humidity:          h.Humidity / 100,
			WindSpeed:         h.WindSpeed,
			CloudCover:        h.Clouds,
			Visibility:        h.Visibility,
			PrecipProbability: h.Pop,
			PrecipIntensity:   rain + snow,
			PrecipType:        precipType(rain, snow, h.Weather),
			Codes:             conditionCodes(h.Weather),
		}
		p.Hourly = append(p.Hourly, sample)
	}

	p.Daily = make([]models.DailySample, 0, len(apiResp.Daily))
	for _, d := range apiResp.Daily {
		flMin := min(d.FeelsLike.Morn, d.FeelsLike.Day, d.FeelsLike.Eve, d.FeelsLike.Night)
		flMax := max(d.FeelsLike.Morn, d.FeelsLike.Day, d.FeelsLike.Eve, d.FeelsLike.Night)
		sample := models.DailySample{
			Time:              d.Dt,
			TempMin:           d.Temp.Min,
			TempMax:           d.Temp.Max,
			TempDay:           d.Temp.Day,
			TempNight:         d.Temp.Night,
			FeelsLikeMin:      flMin,
			FeelsLikeMax:      flMax,
			DewPoint:          d.DewPoint,
			Humidity:          d.Humidity / 100,
			WindSpeed:         d.WindSpeed,
			CloudCover:        d.Clouds,
			PrecipProbability: d.Pop,
			PrecipType:        precipType(d.Rain, d.Snow, d.Weather),
			Rain:              d.Rain,
			Snow:              d.Snow,
			MoonPhase:         d.MoonPhase,
			Codes:             conditionCodes(d.Weather),
		}
		p.Daily = append(p.Daily, sample)
	}

	fillDailyPeaks(p.Daily, p.Hourly)

	for _, a := range apiResp.Alerts {
		p.Alerts = append(p.Alerts, models.Alert{
			Event:       a.Event,
			Start:       a.Start,
			End:         a.End,
			Description: a.Description,
		})
	}

	return p
}

// fillDailyPeaks derives each day's peak hourly precipitation and warmest
// hour from the hourly series. The upstream daily blocks carry day totals
// only, and narration needs the peak hour. Daily timestamps sit at midday,
// so the matching window is centered on them.
func fillDailyPeaks(daily []models.DailySample, hourly []models.HourlySample) {
	for i := range daily {
		dayStart := daily[i].Time - 12*3600
		dayEnd := daily[i].Time + 12*3600
		var (
			peakIntensity float64
			peakTime      int64
			maxTemp       = math.Inf(-1)
			maxTempTime   int64
		)
		for _, h := range hourly {
			if h.Time < dayStart || h.Time >= dayEnd {
				continue
			}
			if h.PrecipIntensity > peakIntensity {
				peakIntensity = h.PrecipIntensity
				peakTime = h.Time
			}
			if h.Temp > maxTemp {
				maxTemp = h.Temp
				maxTempTime = h.Time
			}
		}
		if peakTime != 0 {
			daily[i].PrecipIntensityMax = peakIntensity
			daily[i].PrecipIntensityMaxTime = peakTime
		}
		if maxTempTime != 0 {
			daily[i].TempMaxTime = maxTempTime
		}
	}
}

func conditionCodes(conds []wireCondition) []int {
	if len(conds) == 0 {
		return nil
	}
	codes := make([]int, 0, len(conds))
	for _, c := range conds {
		codes = append(codes, c.ID)
	}
	return codes
}

func precipType(rain, snow float64, conds []wireCondition) string {
	for _, c := range conds {
		if c.ID >= 600 && c.ID < 700 {
			return "snow"
		}
	}
	if snow > 0 && snow >= rain {
		return "snow"
	}
	if rain > 0 {
		return "rain"
	}
	return ""
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

func (c *OpenWeatherClient) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Null Island; any authorized key gets a 200 here.
	req, err := c.buildRequest(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("build validation request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: API key is invalid or not activated", ErrInvalidAPIKey)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}

	return nil
}
