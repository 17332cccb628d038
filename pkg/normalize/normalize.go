// Package normalize converts an arbitrary decoded configuration value into
// the canonical start-page document.
//
// Accepted input shapes:
//
//	ShapeList     a bare list of categories; engines default
//	ShapeObject   an object with "categories" (legacy "groups") and
//	              "search" (legacy "searchEngines")
//	ShapeInvalid  anything else; yields an empty document
//
// Normalization never fails. Fields are read best-effort, missing spans
// default to 1, out-of-range spans are clamped and every category and item
// ends up with an id.
package normalize

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/greg-hellings/startpage/pkg/document"
	"github.com/greg-hellings/startpage/pkg/ident"
)

// Shape identifies which accepted input layout a raw value used.
type Shape int

const (
	// ShapeInvalid is any value that is neither a list nor an object.
	ShapeInvalid Shape = iota
	// ShapeList is a bare list of categories.
	ShapeList
	// ShapeObject is an object carrying categories and search engines.
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeObject:
		return "object"
	default:
		return "invalid"
	}
}

// unorderedSentinel is the sort key for entries without an order value.
const unorderedSentinel = 999

// Result is the outcome of normalizing a raw value.
type Result struct {
	Shape      Shape
	Categories []*document.Category
	Search     []document.SearchEngine
}

// Document returns the result as a document.
func (r Result) Document() *document.Document {
	return &document.Document{Categories: r.Categories, Search: r.Search}
}

// Classify reports the shape of a raw decoded value.
func Classify(raw any) Shape {
	if _, ok := raw.([]any); ok {
		return ShapeList
	}
	if _, ok := asMap(raw); ok {
		return ShapeObject
	}
	return ShapeInvalid
}

// Normalize maps raw onto a canonical document. When shouldSort is true the
// categories, and the items of each category, are stably sorted by their
// order field; entries without one sink to the end in input order.
func Normalize(raw any, shouldSort bool) Result {
	res := Result{Shape: Classify(raw)}

	var rawCategories []any
	var rawEngines any
	switch res.Shape {
	case ShapeList:
		rawCategories = raw.([]any)
	case ShapeObject:
		obj, _ := asMap(raw)
		rawCategories = asList(firstPresent(obj, "categories", "groups"))
		rawEngines = firstPresent(obj, "search", "searchEngines")
	}

	res.Categories = make([]*document.Category, 0, len(rawCategories))
	for _, rc := range rawCategories {
		if m, ok := asMap(rc); ok {
			res.Categories = append(res.Categories, category(m))
		}
	}
	res.Search = document.EnsureEngines(engines(rawEngines))

	if shouldSort {
		SortByOrder(res.Categories)
	}
	EnsureIDs(res.Categories)
	return res
}

// SortByOrder stably sorts categories, and each category's items, by their
// order field. Missing or zero orders count as 999.
func SortByOrder(categories []*document.Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		return sortKey(categories[i].Order) < sortKey(categories[j].Order)
	})
	for _, c := range categories {
		items := c.Items
		sort.SliceStable(items, func(i, j int) bool {
			return sortKey(items[i].Order) < sortKey(items[j].Order)
		})
	}
}

func sortKey(order int) int {
	if order == 0 {
		return unorderedSentinel
	}
	return order
}

// EnsureIDs assigns a fresh id to every category and item that lacks one,
// or whose id repeats an earlier category or item. The first holder of an
// id keeps it; unique ids are never changed. Item ids are unique across the
// whole document since items move between categories by id.
func EnsureIDs(categories []*document.Category) {
	seenCategories := make(map[string]bool, len(categories))
	seenItems := make(map[string]bool)
	for _, c := range categories {
		if c.ID == "" || seenCategories[c.ID] {
			c.ID = ident.Generate("cat")
		}
		seenCategories[c.ID] = true
		for _, it := range c.Items {
			if it.ID == "" || seenItems[it.ID] {
				it.ID = ident.Generate("item")
			}
			seenItems[it.ID] = true
		}
	}
}

func category(m map[string]any) *document.Category {
	c := &document.Category{
		ID:       asString(m["id"]),
		Category: asString(m["category"]),
		Color:    asString(m["color"]),
		Order:    asInt(m["order"], 0),
		ColSpan:  document.ClampColSpan(asInt(m["colSpan"], 1)),
		RowSpan:  document.ClampRowSpan(asInt(m["rowSpan"], 1)),
		Hidden:   asBool(m["hidden"]),
		Items:    []*document.Item{},
	}
	for _, ri := range asList(m["items"]) {
		if im, ok := asMap(ri); ok {
			c.Items = append(c.Items, item(im))
		}
	}
	return c
}

func item(m map[string]any) *document.Item {
	return &document.Item{
		ID:         asString(m["id"]),
		Name:       asString(m["name"]),
		URL:        asString(m["url"]),
		URLPrivate: asString(m["url_private"]),
		Icon:       asString(m["icon"]),
		Hidden:     asBool(m["hidden"]),
		Order:      asInt(m["order"], 0),
	}
}

func engines(raw any) []document.SearchEngine {
	list := asList(raw)
	out := make([]document.SearchEngine, 0, len(list))
	for _, re := range list {
		m, ok := asMap(re)
		if !ok {
			continue
		}
		e := document.SearchEngine{
			Name: asString(m["name"]),
			URL:  asString(m["url"]),
			Icon: asString(m["icon"]),
		}
		if e.URL == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// firstPresent returns the first non-nil value among keys.
func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// asMap accepts both string-keyed maps and the generic maps some decoders
// produce for mappings with non-string keys.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[asString(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asInt(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		if t > math.MaxInt32 || t < math.MinInt32 {
			return def
		}
		return int(t)
	case uint64:
		if t > math.MaxInt32 {
			return def
		}
		return int(t)
	case float64:
		if math.IsNaN(t) || t > math.MaxInt32 || t < math.MinInt32 {
			return def
		}
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}
