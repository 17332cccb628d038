// Package store owns the live start-page document and its persistence.
//
// The whole document is written under a single key on every persist, so
// concurrent writers can never interleave partial updates. Persistence
// failures are logged and swallowed; the store then keeps working from
// memory and reports itself as degraded.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/greg-hellings/startpage/pkg/document"
	"github.com/greg-hellings/startpage/pkg/kv"
	"github.com/greg-hellings/startpage/pkg/normalize"
)

// Data source labels returned by LoadCache.
const (
	SourceLocal   = "Local Data"
	SourceDefault = "Default Data"
)

// Listener is called after the document has been replaced.
type Listener func(doc *document.Document)

// Store holds the document in memory and mirrors it to a kv.Store.
type Store struct {
	mu        sync.Mutex
	backend   kv.Store
	doc       *document.Document
	degraded  bool
	listeners []Listener
}

// New creates a store backed by backend, holding an empty document until
// LoadCache or Process is called.
func New(backend kv.Store) *Store {
	return &Store{
		backend: backend,
		doc:     &document.Document{Categories: []*document.Category{}, Search: document.DefaultEngines()},
	}
}

// OnChange registers a listener. Listeners run synchronously in
// registration order after every Process call.
func (s *Store) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Data returns the live document.
func (s *Store) Data() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Degraded reports whether a persistence write has failed during this
// session.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// SetData replaces the document wholesale and optionally persists it.
func (s *Store) SetData(categories []*document.Category, engines []document.SearchEngine, persist bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(categories, engines, persist)
}

func (s *Store) setLocked(categories []*document.Category, engines []document.SearchEngine, persist bool) {
	if categories == nil {
		categories = []*document.Category{}
	}
	s.doc = &document.Document{Categories: categories, Search: document.EnsureEngines(engines)}
	if persist {
		s.persistLocked()
	}
}

// Persist writes the current document to the backend.
func (s *Store) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(s.doc)
	if err != nil {
		slog.Warn("Failed to encode document for persistence", "error", err)
		s.degraded = true
		return
	}
	if err := s.backend.Set(kv.KeyCache, string(data)); err != nil {
		slog.Warn("Failed to persist document, continuing in memory", "error", err)
		s.degraded = true
		return
	}
	slog.Debug("Persisted document", "bytes", len(data))
}

// Update runs fn against the live document and persists the result. When
// fn returns an error nothing is persisted and the error is returned.
func (s *Store) Update(fn func(doc *document.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.doc); err != nil {
		return err
	}
	s.persistLocked()
	return nil
}

// Process normalizes raw, installs the result as the document (persisting
// only when shouldSort is set, i.e. for imported data) and notifies the
// change listeners.
func (s *Store) Process(raw any, shouldSort bool) normalize.Result {
	res := normalize.Normalize(raw, shouldSort)
	slog.Debug("Normalized configuration",
		"shape", res.Shape.String(),
		"categories", len(res.Categories),
		"engines", len(res.Search))

	s.mu.Lock()
	s.setLocked(res.Categories, res.Search, shouldSort)
	doc := s.doc
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(doc)
	}
	return res
}

// LoadCache restores the persisted document. Cached text may contain
// comments or trailing commas. When nothing usable is stored, the sample
// document is installed and persisted. It returns a label naming the data
// source.
func (s *Store) LoadCache() string {
	raw, err := s.readCache()
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			slog.Warn("Ignoring unreadable cached document", "error", err)
		}
		s.loadFallback()
		return SourceDefault
	}
	s.Process(raw, false)
	return SourceLocal
}

func (s *Store) readCache() (any, error) {
	text, err := s.backend.Get(kv.KeyCache)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, kv.ErrNotFound
	}
	var raw any
	if err := json.Unmarshal(jsonc.ToJSON([]byte(text)), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode cached document: %w", err)
	}
	return raw, nil
}

func (s *Store) loadFallback() {
	fb := document.Fallback()
	raw := map[string]any{"categories": toRaw(fb.Categories), "search": toRaw(fb.Search)}
	s.Process(raw, true)
}

// toRaw converts a typed value into the generic form the normalizer reads.
func toRaw(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// ResetDocument forgets the cached document, leaving every other setting in
// place, and reinstalls the sample document.
func (s *Store) ResetDocument() error {
	if err := s.backend.Remove(kv.KeyCache); err != nil {
		return fmt.Errorf("failed to remove cached document: %w", err)
	}
	s.loadFallback()
	return nil
}
