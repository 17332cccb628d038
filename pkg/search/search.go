// Package search tracks the selected search engine and builds query URLs.
package search

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/greg-hellings/startpage/pkg/document"
)

// ErrEmptyQuery is returned by URL for blank input.
var ErrEmptyQuery = errors.New("empty query")

// Selector holds the engine list and the selected engine.
type Selector struct {
	mu      sync.RWMutex
	engines []document.SearchEngine
	index   int
}

// NewSelector creates a selector over engines.
func NewSelector(engines []document.SearchEngine) *Selector {
	s := &Selector{}
	s.Init(engines)
	return s
}

// Init replaces the engine list and selects the first engine. An empty list
// installs the default engine.
func (s *Selector) Init(engines []document.SearchEngine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines = append([]document.SearchEngine(nil), document.EnsureEngines(engines)...)
	s.index = 0
}

// Switch selects the engine at index.
func (s *Selector) Switch(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.engines) {
		return fmt.Errorf("no search engine at index %d (have %d)", index, len(s.engines))
	}
	s.index = index
	return nil
}

// Engines returns a copy of the engine list.
func (s *Selector) Engines() []document.SearchEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]document.SearchEngine(nil), s.engines...)
}

// Current returns the selected engine and its index.
func (s *Selector) Current() (document.SearchEngine, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engines[s.index], s.index
}

// Placeholder returns the prompt text for the selected engine.
func (s *Selector) Placeholder() string {
	e, _ := s.Current()
	return fmt.Sprintf("Search with %s...", e.Name)
}

// URL returns the search URL for query using the selected engine.
func (s *Selector) URL(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	e, _ := s.Current()
	return e.URL + EscapeQuery(query), nil
}

// EscapeQuery percent-encodes query for appending to an engine URL. Spaces
// become %20 rather than +.
func EscapeQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}
