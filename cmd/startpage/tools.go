package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/greg-hellings/startpage/pkg/command"
	"github.com/greg-hellings/startpage/pkg/store"
)

func (c *cli) newWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "weight [" + strings.Join(store.IconWeights, "|") + "]",
		Short:     "Show or set the icon weight",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: store.IconWeights,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), a.Settings.IconWeight())
				return nil
			}
			if err := a.Settings.SetIconWeight(args[0]); err != nil {
				return err
			}
			return c.finish(cmd, nil, "Icon weight: %s", a.Settings.IconWeight())
		},
	}
}

func (c *cli) newWallpaperCmd() *cobra.Command {
	var current bool
	cmd := &cobra.Command{
		Use:   "wallpaper",
		Short: "Fetch a new wallpaper, or show the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			if current {
				d, ok := a.Wallpaper.Current()
				if !ok {
					c.notifier(cmd).Infof("No wallpaper stored")
					return nil
				}
				printWallpaper(cmd, d.URL, d.PreviewURL, d.UpdatedAt)
				return nil
			}
			d, err := a.Wallpaper.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to refresh wallpaper: %w", err)
			}
			printWallpaper(cmd, d.URL, d.PreviewURL, d.UpdatedAt)
			return nil
		},
	}
	cmd.Flags().BoolVar(&current, "current", false, "Show the stored wallpaper without fetching")
	return cmd
}

func printWallpaper(cmd *cobra.Command, url, preview string, updatedAt int64) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "URL:     %s\n", url)
	fmt.Fprintf(w, "Preview: %s\n", preview)
	if updatedAt > 0 {
		fmt.Fprintf(w, "Updated: %s\n", time.UnixMilli(updatedAt).Local().Format("2006-01-02 15:04:05"))
	}
}

// newSearchCmd runs one line of search box input: a ">" command or a
// query, which is printed as a search URL.
func (c *cli) newSearchCmd() *cobra.Command {
	var engine int
	cmd := &cobra.Command{
		Use:   "search <input>...",
		Short: "Run search box input: a query or a \">\" command",
		Long:  "Queries print the search URL of the selected engine.\n\n" + command.Help,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("engine") {
				if err := a.Search.Switch(engine); err != nil {
					return err
				}
			}

			line := strings.Join(args, " ")
			res, err := command.New(a).Run(cmd.Context(), line)
			if err != nil {
				if !errors.Is(err, command.ErrUsage) && strings.HasPrefix(strings.TrimSpace(line), ">gist ") {
					return c.finishSync(cmd, err, "")
				}
				return c.finish(cmd, err, "")
			}
			if res.URL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			}
			if res.Message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			}
			c.warnDegraded(cmd)
			return nil
		},
	}
	cmd.Flags().IntVarP(&engine, "engine", "e", 0, "Index of the search engine to use")
	return cmd
}
