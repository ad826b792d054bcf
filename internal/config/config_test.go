package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/voxcast/forecast-narrator/internal/conditions"
	"github.com/voxcast/forecast-narrator/internal/trend"
)

// clearConfigEnv isolates each test from the host environment.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ENV_NAME", "WEATHER_API_KEY", "LATITUDE", "LONGITUDE",
		"CACHE_BACKEND", "MEMCACHED_ADDRS",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func baseFileConfig(t *testing.T) fileConfig {
	t.Helper()
	var fc fileConfig
	raw := `
location:
  latitude: 38.9072
  longitude: -77.0369
`
	if err := yaml.Unmarshal([]byte(raw), &fc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return fc
}

func TestBuild_Defaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")

	cfg, err := build(t.TempDir(), baseFileConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("port = %q, want 8080", cfg.ServerPort)
	}
	if cfg.WeatherAPIURL != "https://api.openweathermap.org/data/3.0/onecall" {
		t.Errorf("api url = %q", cfg.WeatherAPIURL)
	}
	if cfg.Timezone != "America/New_York" {
		t.Errorf("timezone = %q", cfg.Timezone)
	}
	if cfg.CacheBackend != "in_memory" {
		t.Errorf("cache backend = %q", cfg.CacheBackend)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("cache ttl = %v", cfg.CacheTTL)
	}
	if cfg.RetryAttempts != 3 || cfg.RetryBaseDelay != 100*time.Millisecond {
		t.Errorf("retry = %d/%v", cfg.RetryAttempts, cfg.RetryBaseDelay)
	}
	if !cfg.CircuitBreakerEnabled || cfg.CircuitBreakerFailureThreshold != 5 || cfg.CircuitBreakerSuccessThreshold != 2 {
		t.Errorf("breaker = %v/%d/%d", cfg.CircuitBreakerEnabled,
			cfg.CircuitBreakerFailureThreshold, cfg.CircuitBreakerSuccessThreshold)
	}
	if cfg.DewPointBreak != 69 || cfg.HumidityBreak != 70 || cfg.CloudBreak != 0.8 {
		t.Errorf("narration breaks = %v/%v/%v", cfg.DewPointBreak, cfg.HumidityBreak, cfg.CloudBreak)
	}
	if cfg.HighTempBreak != 85 || cfg.LowTempBreak != 50 || cfg.NightTempBreak != 35 {
		t.Errorf("temp breaks = %v/%v/%v", cfg.HighTempBreak, cfg.LowTempBreak, cfg.NightTempBreak)
	}
	if cfg.WorkdayCutoffHour != 16 || cfg.QuietCutoffHour != 12 {
		t.Errorf("cutoffs = %d/%d", cfg.WorkdayCutoffHour, cfg.QuietCutoffHour)
	}
	if cfg.AvgTemps[6] != (conditions.MonthlyTemps{High: 90, Low: 70}) {
		t.Errorf("july averages = %+v", cfg.AvgTemps[6])
	}
	// The request timeout must always exceed the upstream call timeout.
	if cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		t.Errorf("request timeout %v not above api timeout %v", cfg.RequestTimeout, cfg.WeatherAPITimeout)
	}
}

func TestBuild_MissingAPIKey(t *testing.T) {
	clearConfigEnv(t)
	_, err := build(t.TempDir(), baseFileConfig(t))
	if err == nil || !strings.Contains(err.Error(), "WEATHER_API_KEY") {
		t.Errorf("err = %v, want missing-key error", err)
	}
}

func TestBuild_APIKeyFromSecretsFile(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	secrets := []byte("weather_api_key: secret-key-1234567890\n")
	if err := os.WriteFile(filepath.Join(dir, "config", "secrets.yaml"), secrets, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := build(dir, baseFileConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.WeatherAPIKey != "secret-key-1234567890" {
		t.Errorf("api key = %q", cfg.WeatherAPIKey)
	}
}

func TestBuild_MissingCoordinates(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")

	var fc fileConfig
	_, err := build(t.TempDir(), fc)
	if err == nil || !strings.Contains(err.Error(), "lattitude and longitude must be provided and be numeric") {
		t.Errorf("err = %v, want missing-coordinates error", err)
	}
}

func TestBuild_CoordinatesFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")
	t.Setenv("LATITUDE", "40.7128")
	t.Setenv("LONGITUDE", "-74.0060")

	// Env wins over the file values.
	cfg, err := build(t.TempDir(), baseFileConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Latitude != 40.7128 || cfg.Longitude != -74.0060 {
		t.Errorf("coordinates = %v/%v", cfg.Latitude, cfg.Longitude)
	}
}

func TestBuild_NonNumericCoordinates(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")
	t.Setenv("LATITUDE", "not-a-number")
	t.Setenv("LONGITUDE", "-74.0060")

	var fc fileConfig
	_, err := build(t.TempDir(), fc)
	if err == nil || !strings.Contains(err.Error(), "numeric") {
		t.Errorf("err = %v, want numeric-coordinates error", err)
	}
}

func TestBuild_CoordinateRanges(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng string
		wantErr  string
	}{
		{"latitude too high", "91", "-74", "lattitude must be between"},
		{"latitude too low", "-91", "-74", "lattitude must be between"},
		{"longitude too high", "40", "181", "longitude must be between"},
		{"longitude too low", "40", "-181", "longitude must be between"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("WEATHER_API_KEY", "test-key-1234567890")
			t.Setenv("LATITUDE", tt.lat)
			t.Setenv("LONGITUDE", tt.lng)

			var fc fileConfig
			_, err := build(t.TempDir(), fc)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_CacheBackend(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")
	t.Setenv("CACHE_BACKEND", "memcached")
	t.Setenv("MEMCACHED_ADDRS", "cache1:11211,cache2:11211")

	cfg, err := build(t.TempDir(), baseFileConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.CacheBackend != "memcached" {
		t.Errorf("backend = %q", cfg.CacheBackend)
	}
	if cfg.MemcachedAddrs != "cache1:11211,cache2:11211" {
		t.Errorf("addrs = %q", cfg.MemcachedAddrs)
	}
}

func TestBuild_InvalidCacheBackend(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")
	t.Setenv("CACHE_BACKEND", "redis")

	_, err := build(t.TempDir(), baseFileConfig(t))
	if err == nil || !strings.Contains(err.Error(), "cache.backend") {
		t.Errorf("err = %v, want backend error", err)
	}
}

func TestBuild_NarrationUnitChecks(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")

	// A fraction where a percentage is expected.
	fc := baseFileConfig(t)
	humidity := 0.7
	fc.Narration.HumidityBreak = &humidity
	if _, err := build(t.TempDir(), fc); err == nil || !strings.Contains(err.Error(), "humidity_break") {
		t.Errorf("err = %v, want humidity unit error", err)
	}

	// A percentage where a fraction is expected.
	fc = baseFileConfig(t)
	cloud := 80.0
	fc.Narration.CloudBreak = &cloud
	if _, err := build(t.TempDir(), fc); err == nil || !strings.Contains(err.Error(), "cloud_break") {
		t.Errorf("err = %v, want cloud unit error", err)
	}
}

func TestBuild_AvgTempsOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")

	fc := baseFileConfig(t)
	fc.Narration.AvgTemps = []conditions.MonthlyTemps{{High: 50, Low: 40}}
	if _, err := build(t.TempDir(), fc); err == nil || !strings.Contains(err.Error(), "12 entries") {
		t.Errorf("err = %v, want 12-entry error", err)
	}

	fc.Narration.AvgTemps = make([]conditions.MonthlyTemps, 12)
	for i := range fc.Narration.AvgTemps {
		fc.Narration.AvgTemps[i] = conditions.MonthlyTemps{High: float64(50 + i), Low: float64(30 + i)}
	}
	cfg, err := build(t.TempDir(), fc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.AvgTemps[0].High != 50 || cfg.AvgTemps[11].Low != 41 {
		t.Errorf("avg temps = %+v", cfg.AvgTemps)
	}
}

func TestBuild_TrendGates(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")

	// Defaults when the block is omitted.
	cfg, err := build(t.TempDir(), baseFileConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.TrendGates != trend.DefaultGates() {
		t.Errorf("gates = %+v, want defaults", cfg.TrendGates)
	}

	// Overrides, including a deliberate zero, pass through.
	var fc fileConfig
	raw := `
location:
  latitude: 38.9072
  longitude: -77.0369
narration:
  trend_gates:
    move_threshold: 0.2
    steady_threshold: 0
`
	if err := yaml.Unmarshal([]byte(raw), &fc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	cfg, err = build(t.TempDir(), fc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.TrendGates.MoveThreshold != 0.2 || cfg.TrendGates.SteadyThreshold != 0 {
		t.Errorf("gates = %+v, want move 0.2 and steady 0", cfg.TrendGates)
	}
	if cfg.TrendGates.MaxSlopeErr != 0.005 {
		t.Errorf("slope err gate = %v, want the default retained", cfg.TrendGates.MaxSlopeErr)
	}
	if nc := cfg.NarrateConfig(); nc.Gates != cfg.TrendGates {
		t.Errorf("narrate gates = %+v, want the configured gates", nc.Gates)
	}
}

func TestBuild_RequestTimeoutFloor(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")

	fc := baseFileConfig(t)
	fc.WeatherAPI.Timeout = "10s"
	fc.Request.Timeout = "3s"
	cfg, err := build(t.TempDir(), fc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.RequestTimeout != 11*time.Second {
		t.Errorf("request timeout = %v, want bumped above the api timeout", cfg.RequestTimeout)
	}
}

func TestDerivedConfigs(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WEATHER_API_KEY", "test-key-1234567890")

	cfg, err := build(t.TempDir(), baseFileConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cc := cfg.ClassifierConfig(time.UTC)
	if cc.CloudBreak != cfg.CloudBreak || cc.Location != time.UTC {
		t.Errorf("classifier config = %+v", cc)
	}
	nc := cfg.NarrateConfig()
	if nc.RainActiveProb != cfg.RainActiveProb || nc.WorkdayCutoffHour != cfg.WorkdayCutoffHour {
		t.Errorf("narrate config = %+v", nc)
	}
	fo := cfg.ForecastOptions()
	if fo.QuietCutoffHour != cfg.QuietCutoffHour {
		t.Errorf("forecast options = %+v", fo)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"2s", time.Second, 2 * time.Second},
		{"", time.Second, time.Second},
		{"nonsense", time.Second, time.Second},
		{"-5s", time.Second, time.Second},
		{"150ms", time.Second, 150 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, tt.def); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
