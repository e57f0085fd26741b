// Package common provides shared utilities for arriendo
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for arriendo
type Config struct {
	Environment string        `toml:"environment"`
	Storage     StorageConfig `toml:"storage"`
	Cache       CacheConfig   `toml:"cache"`
	Logging     LoggingConfig `toml:"logging"`
	Defaults    DefaultConfig `toml:"defaults"`
}

// StorageConfig selects and locates the key-value backend.
type StorageConfig struct {
	Backend string `toml:"backend"` // "badger", "file" or "memory"
	Path    string `toml:"path"`
}

// CacheConfig controls the read-through cache facade.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	TTL     string `toml:"ttl"` // duration string, default "5m"
}

// GetTTL parses and returns the cache TTL duration.
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig holds caller-facing defaults.
type DefaultConfig struct {
	BrokerID string `toml:"broker_id"`
	PageSize int    `toml:"page_size"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Backend: "badger",
			Path:    "data/analyses",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "5m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Defaults: DefaultConfig{
			PageSize: 10,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateBackend(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ARRIENDO_ENV"); env != "" {
		config.Environment = env
	}

	if backend := os.Getenv("ARRIENDO_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("ARRIENDO_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, "analyses")
	}

	if level := os.Getenv("ARRIENDO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if ttl := os.Getenv("ARRIENDO_CACHE_TTL"); ttl != "" {
		config.Cache.TTL = ttl
	}

	if v := os.Getenv("ARRIENDO_CACHE_ENABLED"); v != "" {
		config.Cache.Enabled = v != "false" && v != "0"
	}

	if broker := os.Getenv("ARRIENDO_BROKER_ID"); broker != "" {
		config.Defaults.BrokerID = broker
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateBackend ensures the storage backend is a known value, defaulting to badger.
func validateBackend(config *Config) {
	switch strings.ToLower(config.Storage.Backend) {
	case "badger", "file", "memory":
		config.Storage.Backend = strings.ToLower(config.Storage.Backend)
	default:
		config.Storage.Backend = "badger"
	}
}
