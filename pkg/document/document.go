// Package document defines the start-page document model (categories of
// bookmark items plus search engines) together with the edit operations and
// the reorder engine that reconcile user gestures back onto the document.
//
// The functions in this package mutate the Document they are given and never
// persist anything themselves; callers own persistence.
package document

import (
	"regexp"
)

// Span limits for a category card.
const (
	MinColSpan = 1
	MaxColSpan = 4
	MinRowSpan = 1
	MaxRowSpan = 2
)

// DefaultIcon is used when an item icon fails validation.
const DefaultIcon = "ph-link"

// DefaultColor is the style token used when a category has no color.
const DefaultColor = "from-white/10 to-white/5"

// Document is the full navigation configuration.
type Document struct {
	Categories []*Category    `json:"categories"`
	Search     []SearchEngine `json:"search"`
}

// Category is a named, colored, resizable group of bookmark items.
type Category struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
	Order    int     `json:"order,omitempty"`
	ColSpan  int     `json:"colSpan"`
	RowSpan  int     `json:"rowSpan"`
	Hidden   bool    `json:"hidden"`
	Items    []*Item `json:"items"`
}

// Item is a single bookmark entry.
type Item struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	URLPrivate string `json:"url_private,omitempty"`
	Icon       string `json:"icon"`
	Hidden     bool   `json:"hidden"`
	Order      int    `json:"order,omitempty"`
}

// SearchEngine is a search target; the encoded query is appended to URL.
type SearchEngine struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon"`
}

// DefaultEngines returns the built-in engine list used when none is configured.
func DefaultEngines() []SearchEngine {
	return []SearchEngine{
		{Name: "Google", URL: "https://www.google.com/search?q=", Icon: "ph-google-logo"},
	}
}

// EnsureEngines returns engines, or the default list when engines is empty.
func EnsureEngines(engines []SearchEngine) []SearchEngine {
	if len(engines) == 0 {
		return DefaultEngines()
	}
	return engines
}

// Fallback returns the sample document used when nothing has been stored yet.
func Fallback() *Document {
	return &Document{
		Search: DefaultEngines(),
		Categories: []*Category{
			{
				Category: "Sample",
				Color:    "from-blue-600/20 to-indigo-600/20",
				ColSpan:  1,
				RowSpan:  1,
				Items: []*Item{
					{Name: "Google", URL: "https://google.com", Icon: "ph-google-logo"},
				},
			},
		},
	}
}

// FindCategory returns the category with the given id and its index, or
// (nil, -1) when absent.
func (d *Document) FindCategory(id string) (*Category, int) {
	if d == nil || id == "" {
		return nil, -1
	}
	for i, c := range d.Categories {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

// FindItem returns the item with the given id and its index within the
// category, or (nil, -1) when absent.
func (c *Category) FindItem(id string) (*Item, int) {
	if c == nil || id == "" {
		return nil, -1
	}
	for i, it := range c.Items {
		if it.ID == id {
			return it, i
		}
	}
	return nil, -1
}

// LocateItem finds an item anywhere in the document and returns it along
// with its owning category.
func (d *Document) LocateItem(itemID string) (*Item, *Category) {
	if d == nil {
		return nil, nil
	}
	for _, c := range d.Categories {
		if it, _ := c.FindItem(itemID); it != nil {
			return it, c
		}
	}
	return nil, nil
}

// ClampColSpan limits v to [MinColSpan, MaxColSpan].
func ClampColSpan(v int) int {
	return clamp(v, MinColSpan, MaxColSpan)
}

// ClampRowSpan limits v to [MinRowSpan, MaxRowSpan].
func ClampRowSpan(v int) int {
	return clamp(v, MinRowSpan, MaxRowSpan)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var iconPattern = regexp.MustCompile(`(?i)^ph-[a-z0-9-]+$`)

// SanitizeIcon returns icon when it is a valid icon-family glyph token and
// DefaultIcon otherwise.
func SanitizeIcon(icon string) string {
	if iconPattern.MatchString(icon) {
		return icon
	}
	return DefaultIcon
}

// ColorOrDefault returns the category color token or DefaultColor.
func (c *Category) ColorOrDefault() string {
	if c.Color == "" {
		return DefaultColor
	}
	return c.Color
}
