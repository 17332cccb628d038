package kv

import (
	"errors"
	"testing"
)

// brokenStore rejects every write, like a full or disabled disk.
type brokenStore struct{}

func (brokenStore) Get(_ string) (string, error) { return "", ErrNotFound }
func (brokenStore) Set(_, _ string) error        { return errors.New("quota exceeded") }
func (brokenStore) Remove(_ string) error        { return errors.New("quota exceeded") }

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set("", "x"); err == nil {
		t.Error("expected error for empty key")
	}
	if err := s.Set(KeyCache, "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := s.Get(KeyCache); err != nil || v != "v1" {
		t.Errorf("Get = %q, %v", v, err)
	}
	if err := s.Remove(KeyCache); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(KeyCache); err != nil {
		t.Errorf("Remove should be idempotent: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Errorf("expected no keys, got %v", s.Keys())
	}
}

func TestGetOr(t *testing.T) {
	s := NewMemory()
	if got := GetOr(s, KeyIconWeight, "regular"); got != "regular" {
		t.Errorf("GetOr default = %q", got)
	}
	_ = s.Set(KeyIconWeight, "bold")
	if got := GetOr(s, KeyIconWeight, "regular"); got != "bold" {
		t.Errorf("GetOr = %q", got)
	}
}

func TestDiskStore(t *testing.T) {
	s, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	if _, err := s.Get(KeyGistID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(KeyGistID, "abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := s.Get(KeyGistID); err != nil || v != "abc123" {
		t.Errorf("Get = %q, %v", v, err)
	}
	if err := s.Remove(KeyGistID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(KeyGistID); err != nil {
		t.Errorf("Remove should be idempotent: %v", err)
	}
	if _, err := s.Get(KeyGistID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestNewDiskEmptyPath(t *testing.T) {
	if _, err := NewDisk(""); err == nil {
		t.Error("expected error for empty base path")
	}
}

func TestFallbackDegradesToMemory(t *testing.T) {
	f := NewFallback(brokenStore{}, nil)

	err := f.Set(KeyCache, "doc")
	if err == nil {
		t.Fatal("expected primary failure to be reported")
	}
	v, err := f.Get(KeyCache)
	if err != nil || v != "doc" {
		t.Errorf("fallback Get = %q, %v", v, err)
	}
}

func TestFallbackPrefersPrimary(t *testing.T) {
	primary := NewMemory()
	f := NewFallback(primary, nil)
	if err := f.Set(KeyGistFile, "nav.yaml"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := primary.Get(KeyGistFile); v != "nav.yaml" {
		t.Errorf("primary not written: %q", v)
	}
	if err := f.Remove(KeyGistFile); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := f.Get(KeyGistFile); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
