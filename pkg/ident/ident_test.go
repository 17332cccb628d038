package ident

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestGenerateFormat(t *testing.T) {
	re := regexp.MustCompile(`^cat_[0-9a-f]{16}$`)
	id := Generate("cat")
	if !re.MatchString(id) {
		t.Errorf("unexpected id format: %s", id)
	}
}

func TestGenerateEmptyPrefix(t *testing.T) {
	id := Generate("")
	if !strings.HasPrefix(id, "id_") {
		t.Errorf("expected default prefix 'id_', got %s", id)
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := Generate("item")
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d generations: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestGenerateFallback(t *testing.T) {
	g := Generator{Source: failingReader{}}
	id := g.Generate("item")

	re := regexp.MustCompile(`^item_[0-9a-z]{8}$`)
	if !re.MatchString(id) {
		t.Errorf("unexpected fallback id format: %s", id)
	}
}
