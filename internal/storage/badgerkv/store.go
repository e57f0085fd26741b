// Package badgerkv implements interfaces.KeyValueStore using BadgerHold.
package badgerkv

import (
	"context"
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"
	"github.com/valentin-maty/arriendo/internal/common"
	"github.com/valentin-maty/arriendo/internal/interfaces"
)

// KVEntry represents a key-value pair stored in BadgerDB.
type KVEntry struct {
	Key   string `badgerhold:"key"`
	Value string
}

// Store wraps a BadgerHold database as a string key-value space.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens a BadgerHold-backed store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold store opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	var entry KVEntry
	if err := s.db.Get(key, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", interfaces.ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	return entry.Value, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	entry := KVEntry{Key: key, Value: value}
	if err := s.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	err := s.db.Delete(key, KVEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	var entries []KVEntry
	if err := s.db.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
	}
	return keys, nil
}

// Available reports whether the database handle is open.
func (s *Store) Available() bool {
	return s.db != nil
}

// Close shuts down the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check
var _ interfaces.KeyValueStore = (*Store)(nil)
