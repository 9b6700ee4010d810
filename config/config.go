// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBodySizeLimit is the maximum request body size (1MB). Selection
// requests are small; anything larger is a client error.
const DefaultBodySizeLimit int64 = 1 * 1024 * 1024

// Config holds the application configuration
type Config struct {
	Server    ServerConfig                  `mapstructure:"server"`
	Metrics   MetricsConfig                 `mapstructure:"metrics"`
	Refresh   RefreshConfig                 `mapstructure:"refresh"`
	Cache     CacheConfig                   `mapstructure:"cache"`
	Log       LogConfig                     `mapstructure:"log"`
	Providers []ProducerConfig              `mapstructure:"providers"`
	Sources   []ProducerConfig              `mapstructure:"sources"`
	Overrides string                        `mapstructure:"overrides"`
	Profiles  map[string]map[string]float64 `mapstructure:"profiles"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	MasterKey     string `mapstructure:"master_key"`
	BodySizeLimit int64  `mapstructure:"body_size_limit"`
}

// MetricsConfig controls the Prometheus metrics endpoint
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// RefreshConfig controls catalog refresh behavior
type RefreshConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	ProducerTimeout time.Duration `mapstructure:"producer_timeout"`
	InitTimeout     time.Duration `mapstructure:"init_timeout"`
}

// CacheConfig controls snapshot persistence between restarts
type CacheConfig struct {
	// Type is "local", "redis", or "" to disable caching.
	Type     string        `mapstructure:"type"`
	FilePath string        `mapstructure:"file_path"`
	RedisURL string        `mapstructure:"redis_url"`
	RedisKey string        `mapstructure:"redis_key"`
	RedisTTL time.Duration `mapstructure:"redis_ttl"`
}

// LogConfig controls structured logging output
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is "json" or "pretty".
	Format string `mapstructure:"format"`
}

// ProducerConfig describes one catalog provider or enrichment source
// instance. Order in the list is significant: it is the merge order.
type ProducerConfig struct {
	Name      string  `mapstructure:"name"`
	Type      string  `mapstructure:"type"`
	BaseURL   string  `mapstructure:"base_url"`
	APIKey    string  `mapstructure:"api_key"`
	APIKeyEnv string  `mapstructure:"api_key_env"`
	FilePath  string  `mapstructure:"file_path"`
	PrefixIDs bool    `mapstructure:"prefix_ids"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// ResolveAPIKey returns the configured API key, consulting the environment
// when api_key_env is set. The indirection keeps secrets out of config files.
func (p ProducerConfig) ResolveAPIKey() string {
	if p.APIKeyEnv != "" {
		if v := os.Getenv(p.APIKeyEnv); v != "" {
			return v
		}
	}
	return p.APIKey
}

// Load reads configuration from the given file (or the default search
// paths when path is empty) and the environment. Environment variables use
// the MODELHUB_ prefix with underscores, e.g. MODELHUB_SERVER_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("modelhub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/modelhub")
	}

	v.SetEnvPrefix("MODELHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing config file is fine when using default search paths;
		// an explicit path that cannot be read is not.
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.body_size_limit", DefaultBodySizeLimit)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")
	v.SetDefault("refresh.interval", 10*time.Minute)
	v.SetDefault("refresh.producer_timeout", 30*time.Second)
	v.SetDefault("refresh.init_timeout", 60*time.Second)
	v.SetDefault("cache.type", "")
	v.SetDefault("cache.file_path", ".modelhub/snapshot.json")
	v.SetDefault("cache.redis_key", "modelhub:snapshot")
	v.SetDefault("cache.redis_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks for configuration mistakes that would otherwise surface
// as confusing runtime failures.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: name is required", i)
		}
		if p.Type == "" {
			return fmt.Errorf("provider %q: type is required", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("provider %q: duplicate name", p.Name)
		}
		seen[p.Name] = true
	}
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if s.Type == "" {
			return fmt.Errorf("source %q: type is required", s.Name)
		}
	}
	switch c.Cache.Type {
	case "", "local", "redis":
	default:
		return fmt.Errorf("cache.type %q: must be \"local\", \"redis\", or empty", c.Cache.Type)
	}
	for name, weights := range c.Profiles {
		for metric, w := range weights {
			if w < 0 {
				return fmt.Errorf("profile %q: negative weight for %q", name, metric)
			}
		}
	}
	return nil
}
