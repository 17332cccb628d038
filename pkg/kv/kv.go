// Package kv provides the key-value persistence interface used by the
// start page together with in-memory, on-disk and layered implementations.
//
// Values are opaque text. Callers always write whole values; there are no
// partial updates.
package kv

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Keys used by the start page.
const (
	KeyCache          = "nav_config_cache"
	KeyWallpaper      = "nav_wallpaper_url"
	KeyIconWeight     = "nav_icon_weight"
	KeyGistID         = "gist_id"
	KeyGistFile       = "gist_filename"
	KeyGistToken      = "gist_token"
	KeyGistLastPull   = "gist_last_pull"
	KeyGistLastPush   = "gist_last_push"
	KeyGistLastDigest = "gist_last_digest"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is the persistence contract.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(key string) (string, error)
	// Set stores or replaces the value for key.
	Set(key, value string) error
	// Remove deletes key (idempotent).
	Remove(key string) error
}

// GetOr returns the stored value for key, or def when it is missing or
// unreadable.
func GetOr(s Store, key, def string) string {
	v, err := s.Get(key)
	if err != nil || v == "" {
		return def
	}
	return v
}

// Memory is a thread-safe, volatile Store. Useful for tests and as the
// fallback when disk storage is unavailable.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value for key or ErrNotFound.
func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores the value for key.
func (m *Memory) Set(key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove deletes key; missing keys are ignored.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fallback composes a primary store (usually on disk) with a fallback
// (usually in memory). Reads prefer primary; writes go to primary and fall
// back when primary rejects them, so a broken disk degrades the session to
// memory-only operation instead of failing it.
type Fallback struct {
	primary  Store
	fallback Store
}

// NewFallback creates a layered store. A nil fallback becomes a Memory store;
// a nil primary makes the fallback serve every call.
func NewFallback(primary, fallback Store) *Fallback {
	if fallback == nil {
		fallback = NewMemory()
	}
	return &Fallback{primary: primary, fallback: fallback}
}

// Get reads the fallback first when it holds a newer value written while
// the primary was failing, then the primary.
func (f *Fallback) Get(key string) (string, error) {
	if v, err := f.fallback.Get(key); err == nil {
		return v, nil
	}
	if f.primary == nil {
		return "", ErrNotFound
	}
	v, err := f.primary.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("primary get %s: %w", key, err)
	}
	return v, nil
}

// Set writes to the primary store and clears any stale fallback copy; when
// the primary fails the value is kept in the fallback and the primary error
// is returned so callers can report degraded persistence.
func (f *Fallback) Set(key, value string) error {
	if f.primary != nil {
		err := f.primary.Set(key, value)
		if err == nil {
			_ = f.fallback.Remove(key)
			return nil
		}
		if ferr := f.fallback.Set(key, value); ferr != nil {
			return fmt.Errorf("fallback set %s: %w", key, ferr)
		}
		return fmt.Errorf("primary set %s: %w", key, err)
	}
	return f.fallback.Set(key, value)
}

// Remove deletes key from both layers, ignoring not-found conditions.
func (f *Fallback) Remove(key string) error {
	var primaryErr error
	if f.primary != nil {
		primaryErr = f.primary.Remove(key)
	}
	fallbackErr := f.fallback.Remove(key)
	if primaryErr != nil && !errors.Is(primaryErr, ErrNotFound) {
		return primaryErr
	}
	if fallbackErr != nil && !errors.Is(fallbackErr, ErrNotFound) {
		return fallbackErr
	}
	return nil
}
