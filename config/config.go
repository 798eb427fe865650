package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// Config represents the complete system configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Data     DataConfig     `json:"data"`
	Model    ModelConfig    `json:"model"`
	Forecast ForecastConfig `json:"forecast"`
	Features FeatureConfig  `json:"features"`
	Cache    CacheConfig    `json:"cache"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         string   `json:"port"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
	IdleTimeout  Duration `json:"idle_timeout"`
	RateLimit    float64  `json:"rate_limit"`  // requests per second, 0 disables
	RateBurst    int      `json:"rate_burst"`
}

// DataConfig contains sales dataset settings
type DataConfig struct {
	Dir        string   `json:"dir"`
	Candidates []string `json:"candidates"` // tried in order, first existing wins
}

// ModelConfig contains model artifact settings
type ModelConfig struct {
	Dir          string `json:"dir"`
	DefaultModel string `json:"default_model"`
}

// ForecastConfig contains forecast engine settings
type ForecastConfig struct {
	BaseValue      float64 `json:"base_value"`      // fallback series base
	TrendPerDay    float64 `json:"trend_per_day"`   // fallback linear drift
	NoiseSigma     float64 `json:"noise_sigma"`     // fallback Gaussian sigma
	BoundPct       float64 `json:"bound_pct"`       // +/- bound fraction
	Confidence     float64 `json:"confidence"`      // model-backed forecasts
	FallbackConf   float64 `json:"fallback_conf"`   // degraded forecasts
	HistoricalDays int     `json:"historical_days"` // overlay window on forecast responses
}

// FeatureConfig controls how feature vectors are populated
type FeatureConfig struct {
	// UseHistoricalLags switches lag/rolling slots from placeholder draws
	// to values computed from the loaded dataset.
	UseHistoricalLags bool `json:"use_historical_lags"`
	// UseHolidayCalendar fills holiday slots from the US holiday calendar
	// instead of the constant 0.
	UseHolidayCalendar bool `json:"use_holiday_calendar"`
}

// CacheConfig contains optional Redis forecast cache settings
type CacheConfig struct {
	Enabled bool     `json:"enabled"`
	Addr    string   `json:"addr"`
	TTL     Duration `json:"ttl"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
			IdleTimeout:  Duration{120 * time.Second},
			RateLimit:    50,
			RateBurst:    100,
		},
		Data: DataConfig{
			Dir: "./data",
			Candidates: []string{
				"processed_sales_data.csv",
				"clean_sales.csv",
				"train.csv",
			},
		},
		Model: ModelConfig{
			Dir:          "./models",
			DefaultModel: "random_forest",
		},
		Forecast: ForecastConfig{
			BaseValue:      100,
			TrendPerDay:    2,
			NoiseSigma:     5,
			BoundPct:       0.15,
			Confidence:     0.95,
			FallbackConf:   0.90,
			HistoricalDays: 30,
		},
		Features: FeatureConfig{
			UseHistoricalLags:  false,
			UseHolidayCalendar: false,
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     Duration{5 * time.Minute},
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return config, nil
}

// LoadFromEnv loads configuration overrides from environment variables
func LoadFromEnv() *Config {
	config := DefaultConfig()
	config.ApplyEnv()
	return config
}

// ApplyEnv applies FORECAST_* environment overrides to the configuration
func (c *Config) ApplyEnv() {
	if port := os.Getenv("FORECAST_PORT"); port != "" {
		c.Server.Port = port
	}
	if dir := os.Getenv("FORECAST_DATA_DIR"); dir != "" {
		c.Data.Dir = dir
	}
	if dir := os.Getenv("FORECAST_MODEL_DIR"); dir != "" {
		c.Model.Dir = dir
	}
	if name := os.Getenv("FORECAST_DEFAULT_MODEL"); name != "" {
		c.Model.DefaultModel = name
	}
	if addr := os.Getenv("FORECAST_REDIS_ADDR"); addr != "" {
		c.Cache.Enabled = true
		c.Cache.Addr = addr
	}
	if v := os.Getenv("FORECAST_USE_HISTORICAL_LAGS"); v == "true" || v == "1" {
		c.Features.UseHistoricalLags = true
	}
	if v := os.Getenv("FORECAST_USE_HOLIDAY_CALENDAR"); v == "true" || v == "1" {
		c.Features.UseHolidayCalendar = true
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if len(c.Data.Candidates) == 0 {
		return fmt.Errorf("at least one dataset candidate is required")
	}
	if c.Model.Dir == "" {
		return fmt.Errorf("model directory cannot be empty")
	}
	if c.Forecast.BoundPct <= 0 || c.Forecast.BoundPct >= 1 {
		return fmt.Errorf("forecast bound percentage must be in (0, 1)")
	}
	if c.Forecast.Confidence <= 0 || c.Forecast.Confidence > 1 {
		return fmt.Errorf("forecast confidence must be in (0, 1]")
	}
	if c.Forecast.FallbackConf <= 0 || c.Forecast.FallbackConf > 1 {
		return fmt.Errorf("fallback confidence must be in (0, 1]")
	}
	if c.Forecast.HistoricalDays < 0 {
		return fmt.Errorf("historical overlay window cannot be negative")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache address cannot be empty when cache is enabled")
	}
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}

// ConfigManager handles configuration loading and reloading
type ConfigManager struct {
	config   *Config
	filename string
}

// NewConfigManager creates a new configuration manager. When the given file
// exists it is loaded on top of defaults, otherwise only environment
// overrides apply.
func NewConfigManager(filename string) (*ConfigManager, error) {
	var config *Config
	var err error

	if filename != "" && fileExists(filename) {
		config, err = LoadFromFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		config.ApplyEnv()
	} else {
		config = LoadFromEnv()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &ConfigManager{
		config:   config,
		filename: filename,
	}, nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}
