package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/greg-hellings/startpage/pkg/app"
	"github.com/greg-hellings/startpage/pkg/config"
	"github.com/greg-hellings/startpage/pkg/confirm"
	"github.com/greg-hellings/startpage/pkg/kv"
	"github.com/greg-hellings/startpage/pkg/notify"
	"github.com/greg-hellings/startpage/pkg/store"
	"github.com/greg-hellings/startpage/pkg/syncer"
	"github.com/greg-hellings/startpage/pkg/wallpaper"
)

// build-time override (e.g. -ldflags "-X main.version=1.2.3")
var version = "dev"

// errReported is returned after the failure was already shown to the user.
var errReported = errors.New("failed")

// cli holds the root flags and the lazily built application.
type cli struct {
	configFile string
	dataDir    string
	assumeYes  bool
	verbose    bool
	debug      bool
	noColor    bool

	// prompter overrides the terminal prompter in tests.
	prompter confirm.Prompter

	app *app.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&cli{})
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// newRootCmd creates the root Cobra command.
func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "startpage",
		Short: "Start page navigation manager",
		Long: strings.TrimSpace(`
Startpage - personal navigation page manager

Keeps a grid of bookmark categories, a list of search engines and a daily
wallpaper in a local data directory, and synchronizes the bookmarks with a
single file in a GitHub Gist on demand.`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.initLogging(cmd.ErrOrStderr())
			if err := godotenv.Load(); err != nil {
				slog.Debug("No .env file loaded", "error", err)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Config file (default $STARTPAGE_CONFIG or ~/.config/startpage/config.yaml)")
	cmd.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "Data directory (overrides config and $STARTPAGE_DATA_DIR)")
	cmd.PersistentFlags().BoolVarP(&c.assumeYes, "yes", "y", false, "Confirm destructive actions without asking")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose (info) logging")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging (overrides --verbose)")
	cmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable ANSI colors")
	cmd.Version = version

	// Add subcommands
	cmd.AddCommand(
		c.newShowCmd(),
		c.newImportCmd(),
		c.newExportCmd(),
		c.newResetCmd(),
		c.newCategoryCmd(),
		c.newItemCmd(),
		c.newGistCmd(),
		c.newWeightCmd(),
		c.newWallpaperCmd(),
		c.newSearchCmd(),
		newVersionCmd(),
	)

	return cmd
}

// newVersionCmd prints version info (simple helper).
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Startpage version: %s\n", version)
		},
	}
}

func (c *cli) initLogging(w io.Writer) {
	var level slog.Level
	switch {
	case c.debug:
		level = slog.LevelDebug
	case c.verbose:
		level = slog.LevelInfo
	default:
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging initialized", "level", level.String())
}

// load resolves the configuration, opens the data directory and restores
// the document. It is called once per command.
func (c *cli) load() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}

	cfg, err := config.Resolve(c.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
		if err := cfg.ApplyDefaults(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var primary kv.Store
	if disk, err := kv.NewDisk(cfg.DataDir); err != nil {
		slog.Warn("Data directory unavailable, changes will not be saved", "dir", cfg.DataDir, "error", err)
	} else {
		primary = disk
	}

	prompter := c.prompter
	if prompter == nil {
		prompter = confirm.NewTerminal(c.assumeYes)
	}

	a := app.New(app.Options{
		Backend: kv.NewFallback(primary, nil),
		Defaults: store.Defaults{
			GistID:        cfg.Gist.ID,
			GistFilename:  cfg.Gist.Filename,
			TokenOverride: config.TokenFromEnv(),
		},
		Prompter: prompter,
		Sync: syncer.Config{
			BaseURL: cfg.Gist.BaseURL,
			Timeout: cfg.RequestTimeout(),
		},
		Wallpaper: wallpaper.Config{
			Endpoint:          cfg.Wallpaper.Endpoint,
			Market:            cfg.Wallpaper.Market,
			Resolution:        cfg.Wallpaper.Resolution,
			PreviewResolution: cfg.Wallpaper.PreviewResolution,
			Timeout:           cfg.RequestTimeout(),
		},
	})
	source := a.Load()
	slog.Info("Document loaded", "source", source, "dataDir", cfg.DataDir)
	if a.Store.Degraded() {
		slog.Warn("Storage unavailable, running in memory only", "dir", cfg.DataDir)
	}

	c.app = a
	return a, nil
}

func (c *cli) notifier(cmd *cobra.Command) *notify.Notifier {
	return notify.New(cmd.ErrOrStderr(), c.noColor)
}

// finish reports the outcome of a user action. Cancellation is not a
// failure.
func (c *cli) finish(cmd *cobra.Command, err error, format string, args ...any) error {
	n := c.notifier(cmd)
	switch {
	case err == nil:
		n.Successf(format, args...)
		c.warnDegraded(cmd)
		return nil
	case errors.Is(err, confirm.ErrCancelled):
		n.Infof("Canceled")
		return nil
	default:
		return err
	}
}

// finishSync is finish for gist operations, which have their own messages.
func (c *cli) finishSync(cmd *cobra.Command, err error, format string, args ...any) error {
	if err == nil || errors.Is(err, confirm.ErrCancelled) {
		return c.finish(cmd, err, format, args...)
	}
	slog.Debug("Sync failed", "error", err)
	c.notifier(cmd).Errorf("%s", syncer.UserMessage(err))
	return errReported
}

func (c *cli) warnDegraded(cmd *cobra.Command) {
	if c.app != nil && c.app.Store.Degraded() {
		c.notifier(cmd).Errorf("Storage write failed: changes are kept for this session only")
	}
}
