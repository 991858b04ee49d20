package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Logging       LoggingConfig       `yaml:"logging"`
	Push          PushConfig          `yaml:"push"`
	WorkerPool    WorkerPoolConfig    `yaml:"worker_pool"`
	Escalation    EscalationConfig    `yaml:"escalation"`
	Tiers         []TierThreshold     `yaml:"tiers"`
	ResourceIntel ResourceIntelConfig `yaml:"resource_intel"`
	Weather       WeatherConfig       `yaml:"weather"`
	Geocoding     GeocodingConfig     `yaml:"geocoding"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	RateLimitPerSec    float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `yaml:"auto_migrate"`
	LogQueries             bool   `yaml:"log_queries"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// EscalationConfig drives the background tier monitor.
type EscalationConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// TierThreshold lists the criteria that lift a disaster to Tier. Any one criterion suffices.
type TierThreshold struct {
	Tier                  int    `yaml:"tier" json:"tier"`
	MinSeverity           string `yaml:"min_severity" json:"min_severity"`
	MinAffectedPopulation int64  `yaml:"min_affected_population" json:"min_affected_population"`
	MinCasualties         int    `yaml:"min_casualties" json:"min_casualties"`
}

// ResourceIntelConfig holds the per-capita consumption table used for needs estimates.
type ResourceIntelConfig struct {
	HorizonDays int                `yaml:"horizon_days"`
	PerCapita   map[string]float64 `yaml:"per_capita"`
}

// WeatherConfig configures the upstream current-weather API.
type WeatherConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// GeocodingConfig configures the upstream geocoder.
type GeocodingConfig struct {
	BaseURL         string `yaml:"base_url"`
	UserAgent       string `yaml:"user_agent"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	ResultLimit     int    `yaml:"result_limit"`
}

// Load reads the configuration from the given path, applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DATABASE_DSN", c.Database.DSN)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Weather.APIKey = getEnv("WEATHER_API_KEY", c.Weather.APIKey)
	c.Push.PublicKey = getEnv("VAPID_PUBLIC_KEY", c.Push.PublicKey)
	c.Push.PrivateKey = getEnv("VAPID_PRIVATE_KEY", c.Push.PrivateKey)
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 20
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 30
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeMinutes <= 0 {
		c.Database.ConnMaxLifetimeMinutes = 30
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}
	if c.WorkerPool.Size <= 0 {
		c.WorkerPool.Size = 1
	}

	if c.Escalation.IntervalSeconds <= 0 {
		c.Escalation.IntervalSeconds = 300
	}
	c.Escalation.Interval = time.Duration(c.Escalation.IntervalSeconds) * time.Second

	if len(c.Tiers) == 0 {
		c.Tiers = DefaultTiers()
	}

	if c.ResourceIntel.HorizonDays <= 0 {
		c.ResourceIntel.HorizonDays = 3
	}
	if len(c.ResourceIntel.PerCapita) == 0 {
		c.ResourceIntel.PerCapita = DefaultPerCapita()
	}

	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.openweathermap.org"
	}
	if c.Weather.TimeoutSeconds <= 0 {
		c.Weather.TimeoutSeconds = 10
	}
	if c.Weather.CacheTTLSeconds <= 0 {
		c.Weather.CacheTTLSeconds = 600
	}

	if c.Geocoding.BaseURL == "" {
		c.Geocoding.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geocoding.UserAgent == "" {
		c.Geocoding.UserAgent = "relief-ops-backend/1.0"
	}
	if c.Geocoding.TimeoutSeconds <= 0 {
		c.Geocoding.TimeoutSeconds = 10
	}
	if c.Geocoding.CacheTTLSeconds <= 0 {
		c.Geocoding.CacheTTLSeconds = 3600
	}
	if c.Geocoding.ResultLimit <= 0 {
		c.Geocoding.ResultLimit = 5
	}
}

// DefaultTiers returns the stock escalation thresholds for tiers 2 to 4.
func DefaultTiers() []TierThreshold {
	return []TierThreshold{
		{Tier: 2, MinSeverity: "moderate", MinAffectedPopulation: 1000, MinCasualties: 1},
		{Tier: 3, MinSeverity: "high", MinAffectedPopulation: 10000, MinCasualties: 10},
		{Tier: 4, MinSeverity: "critical", MinAffectedPopulation: 100000, MinCasualties: 100},
	}
}

// DefaultPerCapita returns daily per-person consumption by supply category.
func DefaultPerCapita() map[string]float64 {
	return map[string]float64{
		"water":   15,
		"food":    3,
		"hygiene": 1,
		"medical": 0.1,
	}
}

var validDrivers = map[string]bool{"mysql": true, "postgres": true, "sqlite": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var severityRank = map[string]int{"low": 1, "moderate": 2, "high": 3, "critical": 4}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Escalation.Enabled && c.Escalation.Interval < 10*time.Second {
		return fmt.Errorf("escalation interval must be at least 10 seconds")
	}

	prev := TierThreshold{Tier: 1}
	for _, t := range c.Tiers {
		if t.Tier < 2 || t.Tier > 4 {
			return fmt.Errorf("tier threshold must target tier 2-4, got %d", t.Tier)
		}
		if t.Tier <= prev.Tier {
			return fmt.Errorf("tier thresholds must be listed in ascending tier order")
		}
		if t.MinSeverity != "" {
			if _, ok := severityRank[t.MinSeverity]; !ok {
				return fmt.Errorf("tier %d: unknown severity %q", t.Tier, t.MinSeverity)
			}
		}
		// Zero means the criterion is not used for that tier.
		if (t.MinAffectedPopulation > 0 && t.MinAffectedPopulation < prev.MinAffectedPopulation) ||
			(t.MinCasualties > 0 && t.MinCasualties < prev.MinCasualties) ||
			(t.MinSeverity != "" && severityRank[t.MinSeverity] < severityRank[prev.MinSeverity]) {
			return fmt.Errorf("tier %d thresholds must not be lower than tier %d", t.Tier, prev.Tier)
		}
		prev = t
	}

	for category, v := range c.ResourceIntel.PerCapita {
		if v < 0 {
			return fmt.Errorf("resource_intel.per_capita[%s] must not be negative", category)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
