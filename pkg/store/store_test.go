package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/greg-hellings/startpage/pkg/document"
	"github.com/greg-hellings/startpage/pkg/kv"
)

// countingStore records how many times each key was written.
type countingStore struct {
	*kv.Memory
	writes map[string]int
	fail   bool
}

func newCountingStore() *countingStore {
	return &countingStore{Memory: kv.NewMemory(), writes: map[string]int{}}
}

func (c *countingStore) Set(key, value string) error {
	c.writes[key]++
	if c.fail {
		return errors.New("disk full")
	}
	return c.Memory.Set(key, value)
}

func TestLoadCacheFallback(t *testing.T) {
	backend := newCountingStore()
	s := New(backend)

	if src := s.LoadCache(); src != SourceDefault {
		t.Errorf("source = %q", src)
	}
	doc := s.Data()
	if len(doc.Categories) != 1 || doc.Categories[0].Category != "Sample" {
		t.Fatalf("expected sample document, got %+v", doc.Categories)
	}
	if doc.Categories[0].ID == "" || doc.Categories[0].Items[0].ID == "" {
		t.Error("sample document should carry ids")
	}
	if backend.writes[kv.KeyCache] != 1 {
		t.Errorf("fallback should be persisted once, got %d", backend.writes[kv.KeyCache])
	}
}

func TestLoadCacheRestoresDocument(t *testing.T) {
	backend := newCountingStore()
	cached := `{
		// saved by an older version
		"categories": [
			{"id": "cat_a", "category": "B", "order": 2, "items": []},
			{"id": "cat_b", "category": "A", "order": 1, "items": [{"id": "item_a", "name": "x"},]},
		],
		"search": [{"name": "DDG", "url": "https://duckduckgo.com/?q="}]
	}`
	_ = backend.Memory.Set(kv.KeyCache, cached)

	s := New(backend)
	if src := s.LoadCache(); src != SourceLocal {
		t.Fatalf("source = %q", src)
	}
	doc := s.Data()
	// cached data is not re-sorted
	if got := doc.CategoryIDs(); got[0] != "cat_a" || got[1] != "cat_b" {
		t.Errorf("order = %v", got)
	}
	if doc.Search[0].Name != "DDG" {
		t.Errorf("engines = %+v", doc.Search)
	}
	if backend.writes[kv.KeyCache] != 0 {
		t.Error("loading the cache should not write it back")
	}
}

func TestLoadCacheCorrupt(t *testing.T) {
	backend := newCountingStore()
	_ = backend.Memory.Set(kv.KeyCache, "{not json")
	s := New(backend)
	if src := s.LoadCache(); src != SourceDefault {
		t.Errorf("source = %q", src)
	}
}

func TestProcessNotifiesInOrder(t *testing.T) {
	s := New(newCountingStore())
	var calls []string
	s.OnChange(func(*document.Document) { calls = append(calls, "search") })
	s.OnChange(func(d *document.Document) { calls = append(calls, "render") })

	s.Process([]any{map[string]any{"category": "Dev"}}, true)
	if strings.Join(calls, ",") != "search,render" {
		t.Errorf("listener order = %v", calls)
	}
}

func TestProcessPersistsOnlyWhenSorting(t *testing.T) {
	backend := newCountingStore()
	s := New(backend)
	s.Process([]any{}, false)
	if backend.writes[kv.KeyCache] != 0 {
		t.Error("unsorted processing should not persist")
	}
	s.Process([]any{}, true)
	if backend.writes[kv.KeyCache] != 1 {
		t.Error("sorted processing should persist")
	}
}

func TestPersistFailureDegrades(t *testing.T) {
	backend := newCountingStore()
	backend.fail = true
	s := New(backend)
	s.Process([]any{map[string]any{"category": "Dev"}}, true)
	if !s.Degraded() {
		t.Error("expected degraded store")
	}
	if len(s.Data().Categories) != 1 {
		t.Error("document should remain in memory")
	}
}

func TestUpdate(t *testing.T) {
	backend := newCountingStore()
	s := New(backend)
	s.LoadCache()
	before := backend.writes[kv.KeyCache]

	wantErr := errors.New("boom")
	if err := s.Update(func(*document.Document) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Update error = %v", err)
	}
	if backend.writes[kv.KeyCache] != before {
		t.Error("failed update should not persist")
	}

	err := s.Update(func(d *document.Document) error {
		_, err := document.AddCategory(d, "Ops", "")
		return err
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if backend.writes[kv.KeyCache] != before+1 {
		t.Error("update should persist once")
	}
	cached, _ := backend.Get(kv.KeyCache)
	if !strings.Contains(cached, `"Ops"`) {
		t.Errorf("cache = %s", cached)
	}
}

func TestResetDocumentKeepsSettings(t *testing.T) {
	backend := newCountingStore()
	settings := NewSettings(backend, Defaults{})
	if err := settings.SaveGist("abc", "nav.yaml", "ghp_secret"); err != nil {
		t.Fatalf("SaveGist: %v", err)
	}
	s := New(backend)
	s.Process([]any{map[string]any{"category": "Mine"}}, true)

	if err := s.ResetDocument(); err != nil {
		t.Fatalf("ResetDocument: %v", err)
	}
	if s.Data().Categories[0].Category != "Sample" {
		t.Error("expected the sample document after reset")
	}
	if g := settings.Gist(); g.ID != "abc" || g.Token != "ghp_secret" {
		t.Errorf("gist settings lost: %+v", g)
	}
}

func TestSettingsGist(t *testing.T) {
	s := NewSettings(kv.NewMemory(), Defaults{GistID: "dflt", GistFilename: "nav.yaml"})
	if g := s.Gist(); g.ID != "dflt" || !g.Configured() {
		t.Errorf("defaults not applied: %+v", g)
	}
	if err := s.SaveGist("", "x", ""); !errors.Is(err, ErrGistTargetRequired) {
		t.Errorf("expected ErrGistTargetRequired, got %v", err)
	}
	if err := s.SaveGist(" id1 ", " my nav.yaml ", ""); err != nil {
		t.Fatalf("SaveGist: %v", err)
	}
	if g := s.Gist(); g.ID != "id1" || g.Filename != "my nav.yaml" || g.Token != "" {
		t.Errorf("gist = %+v", g)
	}
	_ = s.SetToken("tok")
	_ = s.ClearToken()
	if s.Gist().Token != "" {
		t.Error("token not cleared")
	}
}

func TestSettingsTokenOverride(t *testing.T) {
	backend := kv.NewMemory()
	_ = backend.Set(kv.KeyGistToken, "stored")
	s := NewSettings(backend, Defaults{TokenOverride: "from-env"})
	if s.Gist().Token != "from-env" || !s.TokenFromEnvironment() {
		t.Errorf("override not applied: %+v", s.Gist())
	}
}

func TestSettingsIconWeight(t *testing.T) {
	backend := kv.NewMemory()
	s := NewSettings(backend, Defaults{})
	if s.IconWeight() != DefaultIconWeight {
		t.Errorf("default weight = %q", s.IconWeight())
	}
	if err := s.SetIconWeight("heavy"); !errors.Is(err, ErrInvalidIconWeight) {
		t.Errorf("expected ErrInvalidIconWeight, got %v", err)
	}
	if err := s.SetIconWeight("Bold"); err != nil {
		t.Fatalf("SetIconWeight: %v", err)
	}
	if s.IconWeight() != "bold" {
		t.Errorf("weight = %q", s.IconWeight())
	}
	_ = backend.Set(kv.KeyIconWeight, "garbage")
	if s.IconWeight() != DefaultIconWeight {
		t.Error("invalid stored weight should read as default")
	}
}

func TestSettingsTimestamps(t *testing.T) {
	s := NewSettings(kv.NewMemory(), Defaults{})
	if !s.LastPull().IsZero() || !s.LastPush().IsZero() {
		t.Error("expected zero times")
	}
	at := time.UnixMilli(1700000000123)
	if err := s.RecordPull(at, "digest1"); err != nil {
		t.Fatalf("RecordPull: %v", err)
	}
	if !s.LastPull().Equal(at) || s.LastDigest() != "digest1" {
		t.Errorf("pull = %v digest = %q", s.LastPull(), s.LastDigest())
	}
	if err := s.RecordPush(at.Add(time.Second), ""); err != nil {
		t.Fatalf("RecordPush: %v", err)
	}
	if s.LastDigest() != "digest1" {
		t.Error("empty digest should not overwrite")
	}
}

func TestRedactToken(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"abc":              "***",
		"ghp_1234567890ab": "********90ab",
	}
	for in, want := range tests {
		if got := RedactToken(in); got != want {
			t.Errorf("RedactToken(%q) = %q, want %q", in, got, want)
		}
	}
}
