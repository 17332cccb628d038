// Package app holds the application state: the document store, settings,
// sync client, wallpaper fetcher, search selection and edit mode. Every
// user-facing operation goes through App so that mutations are persisted
// and destructive actions are confirmed in one place.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/greg-hellings/startpage/pkg/confirm"
	"github.com/greg-hellings/startpage/pkg/document"
	"github.com/greg-hellings/startpage/pkg/interchange"
	"github.com/greg-hellings/startpage/pkg/kv"
	"github.com/greg-hellings/startpage/pkg/search"
	"github.com/greg-hellings/startpage/pkg/store"
	"github.com/greg-hellings/startpage/pkg/syncer"
	"github.com/greg-hellings/startpage/pkg/wallpaper"
)

// errUnchanged aborts a Store.Update that had nothing to apply, so nothing
// is persisted.
var errUnchanged = errors.New("unchanged")

// Options configures New.
type Options struct {
	// Backend persists all state. Nil means memory only.
	Backend   kv.Store
	Defaults  store.Defaults
	Prompter  confirm.Prompter
	Sync      syncer.Config
	Wallpaper wallpaper.Config
}

// App is the application state object.
type App struct {
	Store     *store.Store
	Settings  *store.Settings
	Syncer    *syncer.Syncer
	Wallpaper *wallpaper.Fetcher
	Search    *search.Selector
	Prompter  confirm.Prompter

	editMode atomic.Bool
	source   string
}

// New wires the components together. The document is not loaded until Load
// is called.
func New(opts Options) *App {
	backend := opts.Backend
	if backend == nil {
		backend = kv.NewMemory()
	}
	prompter := opts.Prompter
	if prompter == nil {
		prompter = confirm.Always(false)
	}

	st := store.New(backend)
	settings := store.NewSettings(backend, opts.Defaults)
	a := &App{
		Store:     st,
		Settings:  settings,
		Syncer:    syncer.New(st, settings, prompter, opts.Sync),
		Wallpaper: wallpaper.New(settings, opts.Wallpaper),
		Search:    search.NewSelector(nil),
		Prompter:  prompter,
	}
	st.OnChange(func(doc *document.Document) {
		a.Search.Init(doc.Search)
	})
	return a
}

// Load restores the persisted document and returns the data source label.
func (a *App) Load() string {
	a.source = a.Store.LoadCache()
	slog.Debug("Loaded document", "source", a.source, "degraded", a.Store.Degraded())
	return a.source
}

// Source returns the label of the data the document was loaded from.
func (a *App) Source() string {
	return a.source
}

// Document returns the live document.
func (a *App) Document() *document.Document {
	return a.Store.Data()
}

// EditMode reports whether hidden entries are shown for editing.
func (a *App) EditMode() bool {
	return a.editMode.Load()
}

// SetEditMode switches edit mode.
func (a *App) SetEditMode(on bool) {
	a.editMode.Store(on)
}

// Import replaces the document with interchange text. Invalid text leaves
// the document and the cache untouched.
func (a *App) Import(text string) error {
	raw, err := interchange.Decode(text)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	res := a.Store.Process(raw, true)
	a.source = store.SourceLocal
	slog.Info("Imported configuration", "shape", res.Shape.String(), "categories", len(res.Categories))
	return nil
}

// Export renders the document as interchange text. Nothing is modified.
func (a *App) Export() ([]byte, error) {
	return interchange.Encode(a.Store.Data())
}

// Reset clears the navigation data after confirmation. Gist settings,
// token, wallpaper and preferences are kept.
func (a *App) Reset(ctx context.Context) error {
	if _, err := confirm.Require(ctx, a.Prompter, confirm.Request{
		Title:   "Reset Navigation Data",
		Message: "This will clear your local navigation layout and items only (keeps Gist settings, token, wallpaper and preferences). Continue?",
		Label:   "Reset",
		Danger:  true,
		Next:    "reset",
	}); err != nil {
		return err
	}
	if err := a.Store.ResetDocument(); err != nil {
		return err
	}
	a.source = store.SourceDefault
	return nil
}

// AddCategory creates a category at the end of the grid.
func (a *App) AddCategory(name, color string) (*document.Category, error) {
	var created *document.Category
	err := a.Store.Update(func(d *document.Document) error {
		c, err := document.AddCategory(d, name, color)
		created = c
		return err
	})
	return created, err
}

// UpdateCategory renames and recolors a category.
func (a *App) UpdateCategory(id, name, color string) error {
	return a.Store.Update(func(d *document.Document) error {
		return document.UpdateCategory(d, id, name, color)
	})
}

// DeleteCategory removes a category and all of its items after
// confirmation.
func (a *App) DeleteCategory(ctx context.Context, id string) error {
	c, _ := a.Store.Data().FindCategory(id)
	if c == nil {
		return fmt.Errorf("%w: %s", document.ErrCategoryNotFound, id)
	}
	if _, err := confirm.Require(ctx, a.Prompter, confirm.Request{
		Title:   "Delete Category",
		Message: fmt.Sprintf("This will delete %q and all %d bookmarks in it. Continue?", c.Category, len(c.Items)),
		Label:   "Delete",
		Danger:  true,
		Next:    "delete-category:" + id,
	}); err != nil {
		return err
	}
	return a.Store.Update(func(d *document.Document) error {
		if !document.DeleteCategory(d, id) {
			return fmt.Errorf("%w: %s", document.ErrCategoryNotFound, id)
		}
		return nil
	})
}

// ToggleCategory flips the hidden flag and returns the new value.
func (a *App) ToggleCategory(id string) (bool, error) {
	var hidden bool
	err := a.Store.Update(func(d *document.Document) error {
		h, err := document.ToggleCategory(d, id)
		hidden = h
		return err
	})
	return hidden, err
}

// Resize sets the span of a category.
func (a *App) Resize(id string, cols, rows int) error {
	return a.Store.Update(func(d *document.Document) error {
		return document.Resize(d, id, cols, rows)
	})
}

// DragResize applies a resize gesture measured from the category's current
// span.
func (a *App) DragResize(id string, dx, dy int) error {
	return a.Store.Update(func(d *document.Document) error {
		c, _ := d.FindCategory(id)
		if c == nil {
			return fmt.Errorf("%w: %s", document.ErrCategoryNotFound, id)
		}
		cols, rows := document.DragSpan(c.ColSpan, c.RowSpan, dx, dy)
		document.SetSpan(c, cols, rows)
		return nil
	})
}

// AddItem creates an item at the end of a category.
func (a *App) AddItem(categoryID string, in document.ItemInput) (*document.Item, error) {
	var created *document.Item
	err := a.Store.Update(func(d *document.Document) error {
		it, err := document.AddItem(d, categoryID, in)
		created = it
		return err
	})
	return created, err
}

// UpdateItem overwrites the editable fields of an item.
func (a *App) UpdateItem(categoryID, itemID string, in document.ItemInput) error {
	return a.Store.Update(func(d *document.Document) error {
		return document.UpdateItem(d, categoryID, itemID, in)
	})
}

// DeleteItem removes an item after confirmation.
func (a *App) DeleteItem(ctx context.Context, categoryID, itemID string) error {
	c, _ := a.Store.Data().FindCategory(categoryID)
	if c == nil {
		return fmt.Errorf("%w: %s", document.ErrCategoryNotFound, categoryID)
	}
	it, _ := c.FindItem(itemID)
	if it == nil {
		return fmt.Errorf("%w: %s", document.ErrItemNotFound, itemID)
	}
	if _, err := confirm.Require(ctx, a.Prompter, confirm.Request{
		Title:   "Delete Bookmark",
		Message: fmt.Sprintf("Are you sure you want to delete %q?", it.Name),
		Label:   "Delete",
		Danger:  true,
		Next:    "delete-item:" + itemID,
	}); err != nil {
		return err
	}
	return a.Store.Update(func(d *document.Document) error {
		if !document.DeleteItem(d, categoryID, itemID) {
			return fmt.Errorf("%w: %s", document.ErrItemNotFound, itemID)
		}
		return nil
	})
}

// ReorderCategories applies a category id order and persists it. It reports
// whether anything changed; a no-op is not persisted.
func (a *App) ReorderCategories(orderedIDs []string) bool {
	err := a.Store.Update(func(d *document.Document) error {
		if !document.ReorderCategories(d, orderedIDs) {
			return errUnchanged
		}
		return nil
	})
	return err == nil
}

// ReorderItems applies an item id order within one category and persists
// it. A no-op is not persisted.
func (a *App) ReorderItems(categoryID string, orderedIDs []string) bool {
	err := a.Store.Update(func(d *document.Document) error {
		if !document.ReorderItems(d, categoryID, orderedIDs) {
			return errUnchanged
		}
		return nil
	})
	return err == nil
}

// DropItem finishes an item drag: the item moves from one category to
// another and the destination takes the order reported by the gesture.
// Both steps are persisted together. A drop within one category that
// changes nothing is not persisted.
func (a *App) DropItem(itemID, fromCategoryID, toCategoryID string, orderedIDs []string) error {
	err := a.Store.Update(func(d *document.Document) error {
		to, _ := d.FindCategory(toCategoryID)
		if to == nil {
			return fmt.Errorf("%w: %s", document.ErrCategoryNotFound, toCategoryID)
		}
		if fromCategoryID != toCategoryID {
			if !document.MoveItem(d, itemID, fromCategoryID, toCategoryID, -1) {
				return fmt.Errorf("%w: %s", document.ErrItemNotFound, itemID)
			}
			document.ReorderItems(d, toCategoryID, orderedIDs)
			return nil
		}
		if it, _ := to.FindItem(itemID); it == nil {
			return fmt.Errorf("%w: %s", document.ErrItemNotFound, itemID)
		}
		if !document.ReorderItems(d, toCategoryID, orderedIDs) {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// MoveItem moves an item, wherever it is, to position index of a category.
// A negative index appends.
func (a *App) MoveItem(itemID, toCategoryID string, index int) error {
	return a.Store.Update(func(d *document.Document) error {
		_, from := d.LocateItem(itemID)
		if from == nil {
			return fmt.Errorf("%w: %s", document.ErrItemNotFound, itemID)
		}
		if !document.MoveItem(d, itemID, from.ID, toCategoryID, index) {
			return fmt.Errorf("%w: %s", document.ErrCategoryNotFound, toCategoryID)
		}
		return nil
	})
}

// SetGistTarget stores the sync target.
func (a *App) SetGistTarget(id, filename string) error {
	return a.Settings.SaveGist(id, filename, "")
}

// SearchURL resolves text to a search URL with the selected engine.
func (a *App) SearchURL(text string) (string, error) {
	return a.Search.URL(strings.TrimSpace(text))
}
