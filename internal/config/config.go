package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/voxcast/forecast-narrator/internal/conditions"
	"github.com/voxcast/forecast-narrator/internal/forecast"
	"github.com/voxcast/forecast-narrator/internal/narrate"
	"github.com/voxcast/forecast-narrator/internal/trend"
)

// Config holds service configuration loaded from YAML and env. It is built
// once at startup and passed down by parameter; nothing reads it as a
// process-wide singleton.
type Config struct {
	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	Latitude  float64
	Longitude float64
	Timezone  string // IANA name for the configured coordinate

	RequestTimeout time.Duration
	CacheTTL       time.Duration
	CacheBackend   string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration

	ShutdownTimeout time.Duration
	WarmCache       bool
	WarmInterval    time.Duration

	// Narration thresholds. The reference behavior shifted some of these
	// between iterations, so every one of them is tunable rather than a
	// hard-coded constant.
	DewPointBreak        float64
	HumidityBreak        float64 // percentage, e.g. 70
	WindBreak            float64
	CloudBreak           float64 // fraction, e.g. 0.8
	HighTempBreak        float64
	LowTempBreak         float64
	NightTempBreak       float64
	RainNarrationMinProb float64
	RainActiveProb       float64
	RainActiveIntensity  float64
	RainTrendMinProb     float64
	WorkdayCutoffHour    int
	QuietCutoffHour      int
	AvgTemps             [12]conditions.MonthlyTemps
	TrendGates           trend.Gates
}

// defaultAvgTemps is the month-by-month historical average table for
// Washington, DC — the fallback when the deployment supplies none.
var defaultAvgTemps = [12]conditions.MonthlyTemps{
	{High: 40, Low: 30}, // Jan
	{High: 45, Low: 30}, // Feb
	{High: 55, Low: 40}, // Mar
	{High: 65, Low: 45}, // Apr
	{High: 75, Low: 55}, // May
	{High: 85, Low: 65}, // Jun
	{High: 90, Low: 70}, // Jul
	{High: 85, Low: 70}, // Aug
	{High: 80, Low: 65}, // Sep
	{High: 70, Low: 50}, // Oct
	{High: 60, Low: 40}, // Nov
	{High: 45, Low: 35}, // Dec
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Location struct {
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
		Timezone  string   `yaml:"timezone"`
	} `yaml:"location"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend      string `yaml:"backend"`
		TTL          string `yaml:"ttl"`
		Warm         *bool  `yaml:"warm"`
		WarmInterval string `yaml:"warm_interval"`
		Memcached    struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`
		CircuitBreaker   struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Narration struct {
		DewPointBreak        *float64                  `yaml:"dew_point_break"`
		HumidityBreak        *float64                  `yaml:"humidity_break"`
		WindBreak            *float64                  `yaml:"wind_break"`
		CloudBreak           *float64                  `yaml:"cloud_break"`
		HighTempBreak        *float64                  `yaml:"high_temp_break"`
		LowTempBreak         *float64                  `yaml:"low_temp_break"`
		NightTempBreak       *float64                  `yaml:"night_temp_break"`
		RainNarrationMinProb *float64                  `yaml:"rain_narration_min_prob"`
		RainActiveProb       *float64                  `yaml:"rain_active_prob"`
		RainActiveIntensity  *float64                  `yaml:"rain_active_intensity"`
		RainTrendMinProb     *float64                  `yaml:"rain_trend_min_prob"`
		WorkdayCutoffHour    *int                      `yaml:"workday_cutoff_hour"`
		QuietCutoffHour      *int                      `yaml:"quiet_cutoff_hour"`
		AvgTemps             []conditions.MonthlyTemps `yaml:"avg_temps"`
		TrendGates           struct {
			MaxSlopeErr     *float64 `yaml:"max_slope_err"`
			MaxInterceptErr *float64 `yaml:"max_intercept_err"`
			MoveThreshold   *float64 `yaml:"move_threshold"`
			SteadyThreshold *float64 `yaml:"steady_threshold"`
		} `yaml:"trend_gates"`
	} `yaml:"narration"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. API key comes from WEATHER_API_KEY env or the
// secrets file; latitude/longitude from env (LATITUDE/LONGITUDE) or the
// config file. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return build(cwd, fc)
}

func build(cwd string, fc fileConfig) (*Config, error) {
	cfg := &Config{}
	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		secretsData, err := os.ReadFile(secretsPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			cfg.WeatherAPIKey = sec.WeatherAPIKey
		}
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env or config/secrets.yaml weather_api_key)")
	}

	lat, latOK := envFloat("LATITUDE")
	lng, lngOK := envFloat("LONGITUDE")
	if !latOK && fc.Location.Latitude != nil {
		lat, latOK = *fc.Location.Latitude, true
	}
	if !lngOK && fc.Location.Longitude != nil {
		lng, lngOK = *fc.Location.Longitude, true
	}
	if !latOK || !lngOK {
		return nil, fmt.Errorf("lattitude and longitude must be provided and be numeric")
	}
	cfg.Latitude, cfg.Longitude = lat, lng
	cfg.Timezone = strings.TrimSpace(fc.Location.Timezone)
	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}

	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/3.0/onecall"
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 2*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 10*time.Minute)
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	if fc.Cache.Warm != nil {
		cfg.WarmCache = *fc.Cache.Warm
	}
	cfg.WarmInterval = parseDurationOrZero(fc.Cache.WarmInterval, 0)
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cb := fc.Reliability.CircuitBreaker
	cfg.CircuitBreakerEnabled = true
	if cb.Enabled != nil {
		cfg.CircuitBreakerEnabled = *cb.Enabled
	}
	cfg.CircuitBreakerFailureThreshold = cb.FailureThreshold
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerSuccessThreshold = cb.SuccessThreshold
	if cfg.CircuitBreakerSuccessThreshold <= 0 {
		cfg.CircuitBreakerSuccessThreshold = 2
	}
	cfg.CircuitBreakerTimeout = parseDuration(cb.Timeout, 30*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	n := fc.Narration
	cfg.DewPointBreak = floatOr(n.DewPointBreak, 69)
	cfg.HumidityBreak = floatOr(n.HumidityBreak, 70)
	cfg.WindBreak = floatOr(n.WindBreak, 15)
	cfg.CloudBreak = floatOr(n.CloudBreak, 0.8)
	cfg.HighTempBreak = floatOr(n.HighTempBreak, 85)
	cfg.LowTempBreak = floatOr(n.LowTempBreak, 50)
	cfg.NightTempBreak = floatOr(n.NightTempBreak, 35)
	cfg.RainNarrationMinProb = floatOr(n.RainNarrationMinProb, 0.1)
	cfg.RainActiveProb = floatOr(n.RainActiveProb, 0.33)
	cfg.RainActiveIntensity = floatOr(n.RainActiveIntensity, 0.03)
	cfg.RainTrendMinProb = floatOr(n.RainTrendMinProb, 0.05)
	cfg.WorkdayCutoffHour = intOr(n.WorkdayCutoffHour, 16)
	cfg.QuietCutoffHour = intOr(n.QuietCutoffHour, 12)

	gates := trend.DefaultGates()
	gates.MaxSlopeErr = floatOr(n.TrendGates.MaxSlopeErr, gates.MaxSlopeErr)
	gates.MaxInterceptErr = floatOr(n.TrendGates.MaxInterceptErr, gates.MaxInterceptErr)
	gates.MoveThreshold = floatOr(n.TrendGates.MoveThreshold, gates.MoveThreshold)
	gates.SteadyThreshold = floatOr(n.TrendGates.SteadyThreshold, gates.SteadyThreshold)
	cfg.TrendGates = gates

	cfg.AvgTemps = defaultAvgTemps
	if len(n.AvgTemps) > 0 {
		if len(n.AvgTemps) != 12 {
			return nil, fmt.Errorf("narration.avg_temps must have exactly 12 entries, got %d", len(n.AvgTemps))
		}
		copy(cfg.AvgTemps[:], n.AvgTemps)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ClassifierConfig derives the condition-classifier thresholds. loc is the
// forecast's local timezone, used to resolve the calendar month for the
// seasonal average lookup.
func (c *Config) ClassifierConfig(loc *time.Location) conditions.Config {
	return conditions.Config{
		DewPointBreak:  c.DewPointBreak,
		HumidityBreak:  c.HumidityBreak,
		WindBreak:      c.WindBreak,
		CloudBreak:     c.CloudBreak,
		HighTempBreak:  c.HighTempBreak,
		LowTempBreak:   c.LowTempBreak,
		NightTempBreak: c.NightTempBreak,
		AvgTemps:       c.AvgTemps,
		Location:       loc,
	}
}

// NarrateConfig derives the narration tunables.
func (c *Config) NarrateConfig() narrate.Config {
	return narrate.Config{
		RainNarrationMinProb: c.RainNarrationMinProb,
		RainActiveProb:       c.RainActiveProb,
		RainActiveIntensity:  c.RainActiveIntensity,
		RainTrendMinProb:     c.RainTrendMinProb,
		WorkdayCutoffHour:    c.WorkdayCutoffHour,
		Gates:                c.TrendGates,
	}
}

// ForecastOptions derives the orchestrator tunables.
func (c *Config) ForecastOptions() forecast.Options {
	return forecast.Options{QuietCutoffHour: c.QuietCutoffHour}
}

func envFloat(name string) (float64, bool) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on
// empty string or parse error. Zero or negative results pass through.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		cfg.RequestTimeout = cfg.WeatherAPITimeout + time.Second
	}
	if cfg.Latitude < -90 || cfg.Latitude > 90 {
		return fmt.Errorf("lattitude must be between -90 and 90, got %g", cfg.Latitude)
	}
	if cfg.Longitude < -180 || cfg.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", cfg.Longitude)
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.HumidityBreak <= 1 {
		return fmt.Errorf("narration.humidity_break is a percentage (e.g. 70), got %g", cfg.HumidityBreak)
	}
	if cfg.CloudBreak > 1 {
		return fmt.Errorf("narration.cloud_break is a fraction (e.g. 0.8), got %g", cfg.CloudBreak)
	}
	return nil
}
