package normalize

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/greg-hellings/startpage/pkg/document"
)

func names(r Result) []string {
	out := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		out = append(out, c.Category)
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Shape
	}{
		{"list", []any{}, ShapeList},
		{"object", map[string]any{}, ShapeObject},
		{"generic map", map[any]any{"categories": []any{}}, ShapeObject},
		{"nil", nil, ShapeInvalid},
		{"string", "categories", ShapeInvalid},
		{"number", 42, ShapeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.raw); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeStableSort(t *testing.T) {
	raw := []any{
		map[string]any{"category": "A", "order": 2},
		map[string]any{"category": "B"},
		map[string]any{"category": "C", "order": 1},
		map[string]any{"category": "D"},
	}

	sorted := Normalize(raw, true)
	if got, want := names(sorted), []string{"C", "A", "B", "D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("sorted = %v, want %v", got, want)
	}

	unsorted := Normalize(raw, false)
	if got, want := names(unsorted), []string{"A", "B", "C", "D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unsorted = %v, want %v", got, want)
	}
}

func TestNormalizeSortsItems(t *testing.T) {
	raw := []any{
		map[string]any{"category": "Dev", "items": []any{
			map[string]any{"name": "late", "order": 5},
			map[string]any{"name": "none"},
			map[string]any{"name": "first", "order": 1},
		}},
	}
	res := Normalize(raw, true)
	var got []string
	for _, it := range res.Categories[0].Items {
		got = append(got, it.Name)
	}
	if want := []string{"first", "late", "none"}; !reflect.DeepEqual(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

func TestNormalizeObjectShape(t *testing.T) {
	raw := map[string]any{
		"categories": []any{map[string]any{"category": "Dev"}},
		"search": []any{
			map[string]any{"name": "DDG", "url": "https://duckduckgo.com/?q="},
			map[string]any{"name": "broken"},
		},
	}
	res := Normalize(raw, false)
	if res.Shape != ShapeObject {
		t.Fatalf("shape = %v", res.Shape)
	}
	if len(res.Categories) != 1 || res.Categories[0].Category != "Dev" {
		t.Errorf("categories = %+v", res.Categories)
	}
	if len(res.Search) != 1 || res.Search[0].Name != "DDG" {
		t.Errorf("engines without a url should be skipped: %+v", res.Search)
	}
}

func TestNormalizeLegacyKeys(t *testing.T) {
	raw := map[string]any{
		"groups":        []any{map[string]any{"category": "Old"}},
		"searchEngines": []any{map[string]any{"name": "Bing", "url": "https://bing.com/search?q="}},
	}
	res := Normalize(raw, false)
	if got := names(res); !reflect.DeepEqual(got, []string{"Old"}) {
		t.Errorf("categories = %v", got)
	}
	if len(res.Search) != 1 || res.Search[0].Name != "Bing" {
		t.Errorf("engines = %+v", res.Search)
	}
}

func TestNormalizeListShapeDefaultsEngines(t *testing.T) {
	res := Normalize([]any{map[string]any{"category": "Dev"}}, false)
	if len(res.Search) != 1 || res.Search[0].Name != "Google" {
		t.Errorf("expected default engine, got %+v", res.Search)
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, raw := range []any{nil, "text", 3.5, true} {
		res := Normalize(raw, true)
		if res.Shape != ShapeInvalid {
			t.Errorf("Normalize(%v) shape = %v", raw, res.Shape)
		}
		if len(res.Categories) != 0 {
			t.Errorf("Normalize(%v) categories = %+v", raw, res.Categories)
		}
		if len(res.Search) != 1 {
			t.Errorf("Normalize(%v) should still carry the default engine", raw)
		}
	}
}

func TestNormalizeSkipsNonObjects(t *testing.T) {
	raw := []any{"junk", 7, map[string]any{"category": "Ok", "items": []any{nil, map[string]any{"name": "x"}}}}
	res := Normalize(raw, false)
	if len(res.Categories) != 1 {
		t.Fatalf("categories = %+v", res.Categories)
	}
	if len(res.Categories[0].Items) != 1 {
		t.Errorf("items = %+v", res.Categories[0].Items)
	}
}

func TestNormalizeIDs(t *testing.T) {
	raw := []any{
		map[string]any{"id": "cat_keep", "category": "A", "items": []any{
			map[string]any{"id": "item_keep", "name": "a"},
			map[string]any{"name": "b"},
		}},
		map[string]any{"category": "B"},
	}
	res := Normalize(raw, false)

	a, b := res.Categories[0], res.Categories[1]
	if a.ID != "cat_keep" || a.Items[0].ID != "item_keep" {
		t.Errorf("existing ids changed: %q %q", a.ID, a.Items[0].ID)
	}
	if !strings.HasPrefix(b.ID, "cat_") {
		t.Errorf("category id = %q", b.ID)
	}
	if !strings.HasPrefix(a.Items[1].ID, "item_") {
		t.Errorf("item id = %q", a.Items[1].ID)
	}

	before := b.ID
	EnsureIDs(res.Categories)
	if b.ID != before {
		t.Error("EnsureIDs must be idempotent")
	}
}

func TestNormalizeDuplicateIDs(t *testing.T) {
	raw := map[string]any{"categories": []any{
		map[string]any{"id": "dup", "category": "A", "items": []any{
			map[string]any{"id": "i1", "name": "first"},
			map[string]any{"id": "i1", "name": "second"},
		}},
		map[string]any{"id": "dup", "category": "B", "items": []any{
			map[string]any{"id": "i1", "name": "third"},
		}},
		map[string]any{"id": "other", "category": "C"},
	}}
	res := Normalize(raw, true)
	doc := res.Document()

	ids := doc.CategoryIDs()
	if ids[0] != "dup" || ids[2] != "other" {
		t.Errorf("first holders must keep their ids: %v", ids)
	}
	if ids[1] == "dup" || !strings.HasPrefix(ids[1], "cat_") {
		t.Errorf("repeated category id not replaced: %v", ids)
	}

	seen := map[string]bool{}
	for _, c := range doc.Categories {
		for _, it := range c.Items {
			if seen[it.ID] {
				t.Errorf("item id %q is not unique", it.ID)
			}
			seen[it.ID] = true
		}
	}
	if doc.Categories[0].Items[0].ID != "i1" {
		t.Errorf("first item lost its id: %q", doc.Categories[0].Items[0].ID)
	}

	// Reordering by id must not lose entries that shared an id on input.
	if !document.ReorderCategories(doc, []string{"other", "dup"}) {
		t.Fatal("expected reorder to apply")
	}
	if got := names(Result{Categories: doc.Categories}); !reflect.DeepEqual(got, []string{"C", "A", "B"}) {
		t.Errorf("order after reorder = %v", got)
	}
	a := doc.Categories[1]
	if !document.ReorderItems(doc, a.ID, []string{a.Items[1].ID}) {
		t.Fatal("expected item reorder to apply")
	}
	if len(a.Items) != 2 || a.Items[0].Name != "second" || a.Items[1].Name != "first" {
		t.Errorf("items after reorder = %+v", a.Items)
	}
}

func TestNormalizeSpansAndFlags(t *testing.T) {
	raw := []any{
		map[string]any{"category": "Default"},
		map[string]any{"category": "Big", "colSpan": 9, "rowSpan": 7, "hidden": true},
		map[string]any{"category": "Small", "colSpan": -1, "rowSpan": 0},
		map[string]any{"category": "Text", "colSpan": "3", "rowSpan": "2"},
	}
	res := Normalize(raw, false)
	want := [][2]int{{1, 1}, {4, 2}, {1, 1}, {3, 2}}
	for i, c := range res.Categories {
		if c.ColSpan != want[i][0] || c.RowSpan != want[i][1] {
			t.Errorf("%s span = %dx%d, want %dx%d", c.Category, c.ColSpan, c.RowSpan, want[i][0], want[i][1])
		}
	}
	if !res.Categories[1].Hidden || res.Categories[0].Hidden {
		t.Error("hidden flag not carried")
	}
	for _, c := range res.Categories {
		if c.Items == nil {
			t.Errorf("%s items should be an empty list, not nil", c.Category)
		}
	}
}

func TestNormalizeJSONNumbers(t *testing.T) {
	var raw any
	src := `{"categories":[{"category":"B","order":2,"colSpan":2},{"category":"A","order":1,
		"items":[{"name":"Go","url":"https://go.dev","url_private":"http://go.lan","hidden":true}]}]}`
	if err := json.Unmarshal([]byte(src), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	res := Normalize(raw, true)
	if got := names(res); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("order = %v", got)
	}
	if res.Categories[1].ColSpan != 2 {
		t.Errorf("colSpan = %d", res.Categories[1].ColSpan)
	}
	it := res.Categories[0].Items[0]
	if it.URLPrivate != "http://go.lan" || !it.Hidden {
		t.Errorf("item = %+v", it)
	}
}

func TestNormalizeDocument(t *testing.T) {
	res := Normalize([]any{map[string]any{"category": "Dev"}}, false)
	d := res.Document()
	if len(d.Categories) != 1 || len(d.Search) != 1 {
		t.Errorf("document = %+v", d)
	}
}
