package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"booktable/internal/cache"
)

// PathEnv overrides the default config location.
const PathEnv = "BOOKTABLE_CONFIG_PATH"

type Config struct {
	API struct {
		BaseURL        string  `yaml:"base_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RateLimit      float64 `yaml:"rate_limit"`
		Burst          int     `yaml:"burst"`
		Token          string  `yaml:"token"`
	} `yaml:"api"`

	Cache struct {
		Backend              string `yaml:"backend"`
		KeyPrefix            string `yaml:"key_prefix"`
		RestaurantTTLSeconds int    `yaml:"restaurant_ttl_seconds"`
		SQLitePath           string `yaml:"sqlite_path"`
		Redis                struct {
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Geo struct {
		Latitude   float64 `yaml:"latitude"`
		Longitude  float64 `yaml:"longitude"`
		TTLSeconds int     `yaml:"ttl_seconds"`
	} `yaml:"geo"`

	Booking struct {
		SuggestionRange int    `yaml:"suggestion_range"`
		Timezone        string `yaml:"timezone"`
	} `yaml:"booking"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads the YAML config. An empty path falls back to PathEnv and then
// to configs/config.yaml. A missing default file yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(PathEnv)
		explicit = path != ""
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = cache.BackendMemory
	}
	if cfg.Cache.Backend == cache.BackendSQLite {
		if cfg.Cache.SQLitePath == "" {
			cfg.Cache.SQLitePath = "data/booktable_cache.db"
		}
		if err = os.MkdirAll(filepath.Dir(cfg.Cache.SQLitePath), 0o755); err != nil {
			return nil, err
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return &cfg, nil
}

func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) RestaurantTTL() time.Duration {
	if c.Cache.RestaurantTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Cache.RestaurantTTLSeconds) * time.Second
}

func (c *Config) LocationTTL() time.Duration {
	if c.Geo.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Geo.TTLSeconds) * time.Second
}

// SuggestionRange is the number of neighbouring slots shown on each side.
// Negative values disable suggestions.
func (c *Config) SuggestionRange() int {
	if c.Booking.SuggestionRange == 0 {
		return 2
	}
	if c.Booking.SuggestionRange < 0 {
		return 0
	}
	return c.Booking.SuggestionRange
}

// Zone is the zone booking dates and times are interpreted in.
func (c *Config) Zone() *time.Location {
	if c.Booking.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) MetricsAddr() string {
	if !c.Monitoring.PrometheusEnabled {
		return ""
	}
	port := c.Monitoring.PrometheusPort
	if port <= 0 {
		port = 9090
	}
	return ":" + strconv.Itoa(port)
}

// CacheOptions maps the cache section onto cache.Options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:       c.Cache.Backend,
		RedisAddr:     c.Cache.Redis.Address,
		RedisPassword: c.Cache.Redis.Password,
		RedisDB:       c.Cache.Redis.DB,
		KeyPrefix:     c.Cache.KeyPrefix,
		SQLitePath:    c.Cache.SQLitePath,
	}
}
