// Package interchange converts between the in-memory document and the
// human-editable YAML text used for import, export and remote sync.
//
// The exported text never carries ids; positions are written as 1-based
// order fields so that a later import reproduces the same layout.
package interchange

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/greg-hellings/startpage/pkg/document"
)

var (
	// ErrMalformed wraps syntax errors in interchange text.
	ErrMalformed = errors.New("malformed configuration")
	// ErrEmptyInput is returned when there is nothing to decode.
	ErrEmptyInput = errors.New("empty configuration")
)

// Config is the interchange representation of a document.
type Config struct {
	Search     []Engine   `yaml:"search" json:"search"`
	Categories []Category `yaml:"categories" json:"categories"`
}

// Engine is an exported search engine.
type Engine struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
	Icon string `yaml:"icon" json:"icon"`
}

// Category is an exported category.
type Category struct {
	Category string `yaml:"category" json:"category"`
	Color    string `yaml:"color" json:"color"`
	Order    int    `yaml:"order" json:"order"`
	ColSpan  int    `yaml:"colSpan" json:"colSpan"`
	RowSpan  int    `yaml:"rowSpan" json:"rowSpan"`
	Hidden   bool   `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Items    []Item `yaml:"items" json:"items"`
}

// Item is an exported bookmark.
type Item struct {
	Name       string `yaml:"name" json:"name"`
	URL        string `yaml:"url" json:"url"`
	Icon       string `yaml:"icon" json:"icon"`
	Order      int    `yaml:"order" json:"order"`
	URLPrivate string `yaml:"url_private,omitempty" json:"url_private,omitempty"`
	Hidden     bool   `yaml:"hidden,omitempty" json:"hidden,omitempty"`
}

// Build projects doc onto its interchange form. doc is not modified.
func Build(doc *document.Document) Config {
	cfg := Config{Search: []Engine{}, Categories: []Category{}}
	if doc == nil {
		return cfg
	}
	for _, e := range doc.Search {
		cfg.Search = append(cfg.Search, Engine{Name: e.Name, URL: e.URL, Icon: e.Icon})
	}
	for i, c := range doc.Categories {
		out := Category{
			Category: c.Category,
			Color:    c.Color,
			Order:    i + 1,
			ColSpan:  spanOrOne(c.ColSpan),
			RowSpan:  spanOrOne(c.RowSpan),
			Hidden:   c.Hidden,
			Items:    make([]Item, 0, len(c.Items)),
		}
		for j, it := range c.Items {
			out.Items = append(out.Items, Item{
				Name:       it.Name,
				URL:        it.URL,
				Icon:       it.Icon,
				Order:      j + 1,
				URLPrivate: it.URLPrivate,
				Hidden:     it.Hidden,
			})
		}
		cfg.Categories = append(cfg.Categories, out)
	}
	return cfg
}

func spanOrOne(v int) int {
	if v == 0 {
		return 1
	}
	return v
}

// Encode renders doc as YAML text.
func Encode(doc *document.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Build(doc)); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses interchange text into a generic value suitable for
// normalize.Normalize. JSON input is accepted as a subset of YAML.
func Decode(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}
