// Package memkv implements an in-memory interfaces.KeyValueStore, used in
// tests and as the degraded no-persistence backend.
package memkv

import (
	"context"
	"errors"
	"sync"

	"github.com/valentin-maty/arriendo/internal/interfaces"
)

// Store is a mutex-guarded in-memory key-value map.
type Store struct {
	mu        sync.Mutex
	data      map[string]string
	available bool
	closed    bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]string), available: true}
}

// SetAvailable toggles availability, simulating a headless execution
// context where the backing store cannot be reached.
func (s *Store) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = available
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return "", errors.New("store unavailable")
	}
	value, ok := s.data[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return value, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return errors.New("store unavailable")
	}
	s.data[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return errors.New("store unavailable")
	}
	delete(s.data, key)
	return nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return nil, errors.New("store unavailable")
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *Store) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available && !s.closed
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Compile-time check
var _ interfaces.KeyValueStore = (*Store)(nil)
