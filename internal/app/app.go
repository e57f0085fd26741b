// Package app wires configuration, logging, storage, cache and services
// into a runnable application core.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valentin-maty/arriendo/internal/common"
	"github.com/valentin-maty/arriendo/internal/interfaces"
	"github.com/valentin-maty/arriendo/internal/services/analysis"
	"github.com/valentin-maty/arriendo/internal/storage"
)

// App holds all initialized components. It is the shared core used by the
// CLI and by any future serving surface.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	KV          interfaces.KeyValueStore
	Store       interfaces.AnalysisStore
	Cache       interfaces.AnalysisCache
	Analysis    interfaces.AnalysisService
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, the storage backend, the
// cache and the analysis service. configPath may be empty, in which case
// the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Config path resolution: explicit arg, ARRIENDO_CONFIG, binary dir,
	// then development fallback.
	if configPath == "" {
		configPath = os.Getenv("ARRIENDO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "arriendo.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/arriendo.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	kv, err := storage.NewKeyValueStore(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	clock := common.RealClock{}
	store := storage.NewAnalysisStore(kv, clock, logger)
	cache := storage.NewCache(config.Cache.GetTTL(), config.Cache.Enabled, clock)
	service := analysis.NewService(store, cache, clock, common.UUIDGenerator{}, logger)

	logger.Info().
		Str("backend", config.Storage.Backend).
		Str("path", config.Storage.Path).
		Bool("cache", config.Cache.Enabled).
		Msg("Application initialized")

	return &App{
		Config:      config,
		Logger:      logger,
		KV:          kv,
		Store:       store,
		Cache:       cache,
		Analysis:    service,
		StartupTime: time.Now(),
	}, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.KV != nil {
		return a.KV.Close()
	}
	return nil
}
