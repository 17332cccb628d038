package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/greg-hellings/startpage/pkg/document"
)

func (c *cli) newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Add, edit, hide, resize and reorder categories",
	}
	cmd.AddCommand(
		c.newCategoryAddCmd(),
		c.newCategoryEditCmd(),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a category and all of its bookmarks",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				return c.finish(cmd, a.DeleteCategory(cmd.Context(), args[0]), "Category deleted")
			},
		},
		&cobra.Command{
			Use:   "toggle <id>",
			Short: "Hide or show a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				hidden, err := a.ToggleCategory(args[0])
				if err != nil {
					return err
				}
				state := "shown"
				if hidden {
					state = "hidden"
				}
				return c.finish(cmd, nil, "Category %s", state)
			},
		},
		&cobra.Command{
			Use:   "resize <id> <cols> <rows>",
			Short: "Set the grid span of a category (cols 1-4, rows 1-2)",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				cols, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid cols %q: %w", args[1], err)
				}
				rows, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("invalid rows %q: %w", args[2], err)
				}
				a, err := c.load()
				if err != nil {
					return err
				}
				if err := a.Resize(args[0], cols, rows); err != nil {
					return err
				}
				cat, _ := a.Document().FindCategory(args[0])
				return c.finish(cmd, nil, "Category is now %dx%d", cat.ColSpan, cat.RowSpan)
			},
		},
		&cobra.Command{
			Use:   "reorder <id>...",
			Short: "Reorder categories; unlisted ones follow in their current order",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				if !a.ReorderCategories(args) {
					c.notifier(cmd).Infof("Nothing to reorder")
					return nil
				}
				return c.finish(cmd, nil, "Categories reordered")
			},
		},
	)
	return cmd
}

func (c *cli) newCategoryAddCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category at the end of the grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			cat, err := a.AddCategory(args[0], color)
			if err != nil {
				return err
			}
			return c.finish(cmd, nil, "Category %s added (%s)", cat.Category, cat.ID)
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "Card color (default "+document.DefaultColor+")")
	return cmd
}

func (c *cli) newCategoryEditCmd() *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			cat, _ := a.Document().FindCategory(args[0])
			if cat == nil {
				return fmt.Errorf("%w: %s", document.ErrCategoryNotFound, args[0])
			}
			if !cmd.Flags().Changed("name") {
				name = cat.Category
			}
			if err := a.UpdateCategory(args[0], name, color); err != nil {
				return err
			}
			return c.finish(cmd, nil, "Category updated")
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New card color")
	return cmd
}

// itemFlags are the editable item fields shared by add and edit.
type itemFlags struct {
	name       string
	url        string
	urlPrivate string
	icon       string
	hidden     bool
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Bookmark name")
	cmd.Flags().StringVar(&f.url, "url", "", "Bookmark URL")
	cmd.Flags().StringVar(&f.urlPrivate, "private-url", "", "Alternate URL used on a private network (empty removes it)")
	cmd.Flags().StringVar(&f.icon, "icon", "", "Phosphor icon class, e.g. ph-github-logo")
	cmd.Flags().BoolVar(&f.hidden, "hidden", false, "Hide the bookmark outside edit mode")
}

// apply overlays the flags the user set onto in.
func (f *itemFlags) apply(cmd *cobra.Command, in document.ItemInput) document.ItemInput {
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = f.name
	}
	if flags.Changed("url") {
		in.URL = f.url
	}
	if flags.Changed("private-url") {
		in.URLPrivate = f.urlPrivate
	}
	if flags.Changed("icon") {
		in.Icon = f.icon
	}
	if flags.Changed("hidden") {
		in.Hidden = f.hidden
	}
	return in
}

func (c *cli) newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"bookmark"},
		Short:   "Add, edit, delete, move and reorder bookmarks",
	}
	cmd.AddCommand(
		c.newItemAddCmd(),
		c.newItemEditCmd(),
		c.newItemMoveCmd(),
		&cobra.Command{
			Use:   "delete <category-id> <item-id>",
			Short: "Delete a bookmark",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				return c.finish(cmd, a.DeleteItem(cmd.Context(), args[0], args[1]), "Bookmark deleted")
			},
		},
		&cobra.Command{
			Use:   "reorder <category-id> <item-id>...",
			Short: "Reorder the bookmarks of a category",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				if !a.ReorderItems(args[0], args[1:]) {
					c.notifier(cmd).Infof("Nothing to reorder")
					return nil
				}
				return c.finish(cmd, nil, "Bookmarks reordered")
			},
		},
	)
	return cmd
}

func (c *cli) newItemAddCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add <category-id>",
		Short: "Add a bookmark at the end of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			it, err := a.AddItem(args[0], f.apply(cmd, document.ItemInput{}))
			if err != nil {
				return err
			}
			return c.finish(cmd, nil, "Bookmark %s added (%s)", it.Name, it.ID)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) newItemEditCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "edit <category-id> <item-id>",
		Short: "Change the fields of a bookmark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			cat, _ := a.Document().FindCategory(args[0])
			if cat == nil {
				return fmt.Errorf("%w: %s", document.ErrCategoryNotFound, args[0])
			}
			it, _ := cat.FindItem(args[1])
			if it == nil {
				return fmt.Errorf("%w: %s", document.ErrItemNotFound, args[1])
			}
			in := f.apply(cmd, document.ItemInput{
				Name:       it.Name,
				URL:        it.URL,
				URLPrivate: it.URLPrivate,
				Icon:       it.Icon,
				Hidden:     it.Hidden,
			})
			if err := a.UpdateItem(args[0], args[1], in); err != nil {
				return err
			}
			return c.finish(cmd, nil, "Bookmark updated")
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) newItemMoveCmd() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <item-id> <category-id>",
		Short: "Move a bookmark into a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			if err := a.MoveItem(args[0], args[1], index); err != nil {
				return err
			}
			return c.finish(cmd, nil, "Bookmark moved")
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "Position in the destination (negative appends)")
	return cmd
}
