package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/greg-hellings/startpage/pkg/view"
)

func (c *cli) newShowCmd() *cobra.Command {
	var (
		all   bool
		width int
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the navigation grid",
		Long: strings.TrimSpace(`
Render the visible categories and their bookmarks as a grid of cards.

With --all the grid is shown as in edit mode: hidden categories and items
are included together with ids, spans and colors.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			a.SetEditMode(all)

			formatter := view.NewGridFormatter()
			formatter.EditMode = a.EditMode()
			formatter.EnableColors = !c.noColor
			formatter.Width = width
			if err := formatter.Render(a.Document(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to render grid: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show hidden entries, ids and layout (edit mode)")
	cmd.Flags().IntVar(&width, "width", 0, "Output width (0=terminal width)")
	return cmd
}

func (c *cli) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the navigation data with a YAML or JSON file",
		Long: strings.TrimSpace(`
Replace the local categories and search engines with the contents of a
configuration file. Use "-" to read standard input. Invalid files leave the
current data untouched.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if err := a.Import(text); err != nil {
				return err
			}
			return c.finish(cmd, nil, "Imported %d categories", len(a.Document().Categories))
		},
	}
}

func (c *cli) newExportCmd() *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the navigation data as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			data, err := a.Export()
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			if outputFile == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return c.finish(cmd, nil, "Exported to %s", outputFile)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "Write output to file instead of stdout")
	return cmd
}

func (c *cli) newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset navigation data to the defaults",
		Long: strings.TrimSpace(`
Clear the local categories and search engines. Gist settings, the token,
the wallpaper and preferences are kept.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			return c.finish(cmd, a.Reset(cmd.Context()), "Navigation data reset")
		},
	}
}

func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}
