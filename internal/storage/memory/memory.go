// Package memory provides in-process implementations of the persistence
// ports. Contents do not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/florist-storefront/internal/persist"
)

var (
	_ persist.Storage = (*Storage)(nil)
	_ persist.Markers = (*Markers)(nil)
)

// Storage is a map-backed persist.Storage.
type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

type marker struct {
	value     string
	expiresAt time.Time
}

// Markers is a map-backed persist.Markers. Expired markers read as absent
// and are removed lazily.
type Markers struct {
	mu   sync.Mutex
	data map[string]marker
	now  func() time.Time
}

// NewMarkers returns an empty Markers.
func NewMarkers() *Markers {
	return &Markers{data: make(map[string]marker), now: time.Now}
}

func (m *Markers) Get(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mk, ok := m.data[name]
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(mk.expiresAt) {
		delete(m.data, name)
		return "", false, nil
	}
	return mk.value, true, nil
}

func (m *Markers) Set(_ context.Context, name, value string, maxAge time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if maxAge <= 0 {
		delete(m.data, name)
		return nil
	}
	m.data[name] = marker{value: value, expiresAt: m.now().Add(maxAge)}
	return nil
}

func (m *Markers) Clear(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.data, name)
	m.mu.Unlock()
	return nil
}
