package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/greg-hellings/startpage/pkg/ident"
)

var (
	// ErrNameRequired is returned when a category or item is saved without a name.
	ErrNameRequired = errors.New("name is required")
	// ErrCategoryNotFound is returned when an operation targets an unknown category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrItemNotFound is returned when an operation targets an unknown item.
	ErrItemNotFound = errors.New("item not found")
)

// dragThreshold is the pointer distance that moves a span by one unit.
const dragThreshold = 80

// ItemInput carries the editable fields of an item.
type ItemInput struct {
	Name       string
	URL        string
	URLPrivate string
	Icon       string
	Hidden     bool
}

// AddCategory appends a new visible 1x1 category with a fresh id.
func AddCategory(d *Document, name, color string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if color == "" {
		color = DefaultColor
	}
	c := &Category{
		ID:       ident.Generate("cat"),
		Category: name,
		Color:    color,
		ColSpan:  1,
		RowSpan:  1,
		Items:    []*Item{},
	}
	d.Categories = append(d.Categories, c)
	return c, nil
}

// UpdateCategory renames and recolors an existing category. An empty color
// keeps the current one.
func UpdateCategory(d *Document, id, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	c, _ := d.FindCategory(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	c.Category = name
	if color != "" {
		c.Color = color
	}
	return nil
}

// DeleteCategory removes a category together with all of its items.
// It reports whether anything was removed.
func DeleteCategory(d *Document, id string) bool {
	_, idx := d.FindCategory(id)
	if idx < 0 {
		return false
	}
	d.Categories = append(d.Categories[:idx], d.Categories[idx+1:]...)
	return true
}

// ToggleCategory flips the hidden flag and returns the new value.
func ToggleCategory(d *Document, id string) (bool, error) {
	c, _ := d.FindCategory(id)
	if c == nil {
		return false, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	c.Hidden = !c.Hidden
	return c.Hidden, nil
}

// AddItem appends a new item with a fresh id to the category.
func AddItem(d *Document, categoryID string, in ItemInput) (*Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}
	c, _ := d.FindCategory(categoryID)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
	}
	it := &Item{ID: ident.Generate("item")}
	applyItemInput(it, in)
	c.Items = append(c.Items, it)
	return it, nil
}

// UpdateItem overwrites the editable fields of an existing item. An empty
// URLPrivate removes the private destination.
func UpdateItem(d *Document, categoryID, itemID string, in ItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	c, _ := d.FindCategory(categoryID)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
	}
	it, _ := c.FindItem(itemID)
	if it == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	applyItemInput(it, in)
	return nil
}

func applyItemInput(it *Item, in ItemInput) {
	it.Name = strings.TrimSpace(in.Name)
	it.URL = in.URL
	it.URLPrivate = in.URLPrivate
	it.Icon = in.Icon
	it.Hidden = in.Hidden
}

// DeleteItem removes one item from a category and reports whether it existed.
func DeleteItem(d *Document, categoryID, itemID string) bool {
	c, _ := d.FindCategory(categoryID)
	if c == nil {
		return false
	}
	_, idx := c.FindItem(itemID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

// SetSpan stores the clamped column/row span on the category.
func SetSpan(c *Category, cols, rows int) {
	c.ColSpan = ClampColSpan(cols)
	c.RowSpan = ClampRowSpan(rows)
}

// Resize sets the span of the category with the given id.
func Resize(d *Document, categoryID string, cols, rows int) error {
	c, _ := d.FindCategory(categoryID)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
	}
	SetSpan(c, cols, rows)
	return nil
}

// DragSpan converts a resize drag (pointer deltas from the gesture start)
// into a clamped span. Each axis moves by at most one unit per gesture.
func DragSpan(startCols, startRows, dx, dy int) (cols, rows int) {
	cols, rows = startCols, startRows
	switch {
	case dx > dragThreshold:
		cols++
	case dx < -dragThreshold:
		cols--
	}
	switch {
	case dy > dragThreshold:
		rows++
	case dy < -dragThreshold:
		rows--
	}
	return ClampColSpan(cols), ClampRowSpan(rows)
}
