package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "badger", config.Storage.Backend)
	assert.Equal(t, "data/analyses", config.Storage.Path)
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, config.Cache.GetTTL())
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, 10, config.Defaults.PageSize)
	assert.False(t, config.IsProduction())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arriendo.toml")
	content := `
environment = "production"

[storage]
backend = "file"
path = "/var/lib/arriendo"

[cache]
enabled = false
ttl = "90s"

[logging]
level = "debug"

[defaults]
broker_id = "broker_42"
page_size = 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, "file", config.Storage.Backend)
	assert.Equal(t, "/var/lib/arriendo", config.Storage.Path)
	assert.False(t, config.Cache.Enabled)
	assert.Equal(t, 90*time.Second, config.Cache.GetTTL())
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "broker_42", config.Defaults.BrokerID)
	assert.Equal(t, 25, config.Defaults.PageSize)
}

func TestLoadConfigMissingFilesSkipped(t *testing.T) {
	config, err := LoadConfig("/nonexistent/arriendo.toml", "")
	require.NoError(t, err)
	assert.Equal(t, "badger", config.Storage.Backend)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage\nbackend ="), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARRIENDO_ENV", "prod")
	t.Setenv("ARRIENDO_STORAGE_BACKEND", "MEMORY")
	t.Setenv("ARRIENDO_DATA_PATH", "/tmp/arriendo")
	t.Setenv("ARRIENDO_LOG_LEVEL", "warn")
	t.Setenv("ARRIENDO_CACHE_TTL", "30s")
	t.Setenv("ARRIENDO_CACHE_ENABLED", "false")
	t.Setenv("ARRIENDO_BROKER_ID", "broker_env")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, "memory", config.Storage.Backend)
	assert.Equal(t, filepath.Join("/tmp/arriendo", "analyses"), config.Storage.Path)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, 30*time.Second, config.Cache.GetTTL())
	assert.False(t, config.Cache.Enabled)
	assert.Equal(t, "broker_env", config.Defaults.BrokerID)
}

func TestUnknownBackendFallsBackToBadger(t *testing.T) {
	t.Setenv("ARRIENDO_STORAGE_BACKEND", "surreal")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "badger", config.Storage.Backend)
}

func TestGetTTLFallback(t *testing.T) {
	c := CacheConfig{TTL: "not a duration"}
	assert.Equal(t, 5*time.Minute, c.GetTTL())

	c = CacheConfig{TTL: "-10s"}
	assert.Equal(t, 5*time.Minute, c.GetTTL())
}
