// Package filekv implements interfaces.KeyValueStore with one JSON file per
// key. Writes are atomic (temp file + rename).
package filekv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valentin-maty/arriendo/internal/common"
	"github.com/valentin-maty/arriendo/internal/interfaces"
)

// entry is the on-disk representation of a key-value pair.
type entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store is a file-backed key-value store rooted at a directory.
type Store struct {
	basePath string
	logger   *common.Logger
}

// NewStore creates a file-backed store and ensures its directory exists.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	logger.Debug().Str("path", path).Msg("File store opened")
	return &Store{basePath: path, logger: logger}, nil
}

// sanitizeKey makes a key safe for use as a filename.
// Replaces /, \, : with _ and collapses ".." to "_" to prevent path traversal.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.basePath, sanitizeKey(key)+".json")
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", interfaces.ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to read key '%s': %w", key, err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", fmt.Errorf("failed to parse key '%s': %w", key, err)
	}
	return e.Value, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	data, err := json.MarshalIndent(entry{Key: key, Value: value}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key '%s': %w", key, err)
	}
	data = append(data, '\n')

	// Atomic write: temp file in the same directory, then rename
	tmpFile, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	err := os.Remove(s.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", s.basePath, err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".tmp-") {
			keys = append(keys, strings.TrimSuffix(name, ".json"))
		}
	}
	return keys, nil
}

// Available reports whether the base directory still exists.
func (s *Store) Available() bool {
	info, err := os.Stat(s.basePath)
	return err == nil && info.IsDir()
}

func (s *Store) Close() error {
	return nil
}

// Compile-time check
var _ interfaces.KeyValueStore = (*Store)(nil)
