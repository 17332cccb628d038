// Package config loads the startpage application configuration.
//
// The file is YAML, or TOML when its name ends in ".toml". Every field is
// optional; ApplyDefaults fills in what is missing. Environment variables
// override the file where noted.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/greg-hellings/startpage/pkg/wallpaper"
)

// Environment variables read by Resolve.
const (
	EnvConfig  = "STARTPAGE_CONFIG"
	EnvDataDir = "STARTPAGE_DATA_DIR"
	EnvToken   = "STARTPAGE_GIST_TOKEN"
)

// Defaults.
const (
	DefaultDataDir = "~/.config/startpage"
	DefaultTimeout = "30s"
)

// Config represents the top-level configuration file structure
type Config struct {
	// DataDir holds the persisted state. "~" is expanded.
	DataDir string `yaml:"dataDir" toml:"dataDir"`
	// Timeout bounds each network request, as a Go duration string.
	Timeout   string          `yaml:"timeout" toml:"timeout"`
	Gist      GistConfig      `yaml:"gist" toml:"gist"`
	Wallpaper WallpaperConfig `yaml:"wallpaper" toml:"wallpaper"`

	timeout time.Duration
}

// GistConfig provides defaults for the sync target. Values saved from the
// application take precedence.
type GistConfig struct {
	ID       string `yaml:"id" toml:"id"`
	Filename string `yaml:"filename" toml:"filename"`
	// BaseURL is the API endpoint of a GitHub Enterprise instance.
	BaseURL string `yaml:"baseURL" toml:"baseURL"`
}

// WallpaperConfig configures the wallpaper mirror.
type WallpaperConfig struct {
	Endpoint          string `yaml:"endpoint" toml:"endpoint"`
	Market            string `yaml:"market" toml:"market"`
	Resolution        string `yaml:"resolution" toml:"resolution"`
	PreviewResolution string `yaml:"previewResolution" toml:"previewResolution"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	c := &Config{}
	if err := c.ApplyDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile reads a configuration file and returns the parsed Config
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills in missing values and validates the result.
func (c *Config) ApplyDefaults() error {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	dir, err := homedir.Expand(c.DataDir)
	if err != nil {
		return fmt.Errorf("invalid dataDir %q: %w", c.DataDir, err)
	}
	c.DataDir = dir

	if c.Timeout == "" {
		c.Timeout = DefaultTimeout
	}
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	c.timeout = timeout

	w := &c.Wallpaper
	if w.Endpoint == "" {
		w.Endpoint = wallpaper.DefaultEndpoint
	}
	if w.Market == "" {
		w.Market = wallpaper.DefaultMarket
	}
	if w.Resolution == "" {
		w.Resolution = wallpaper.DefaultResolution
	}
	if w.PreviewResolution == "" {
		w.PreviewResolution = wallpaper.DefaultPreviewResolution
	}
	if err := validateURL("wallpaper.endpoint", w.Endpoint); err != nil {
		return err
	}

	c.Gist.ID = strings.TrimSpace(c.Gist.ID)
	c.Gist.Filename = strings.TrimSpace(c.Gist.Filename)
	if c.Gist.BaseURL != "" {
		if err := validateURL("gist.baseURL", c.Gist.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", field, raw)
	}
	return nil
}

// RequestTimeout returns the parsed network timeout.
func (c *Config) RequestTimeout() time.Duration {
	return c.timeout
}

// Resolve loads the configuration named by path, or by $STARTPAGE_CONFIG
// when path is empty. Without either, a config.yaml in the default data
// directory is used if present, otherwise the defaults. $STARTPAGE_DATA_DIR
// overrides dataDir.
func Resolve(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfig); env != "" {
			path, explicit = env, true
		}
	}
	if !explicit {
		dir, err := homedir.Expand(DefaultDataDir)
		if err == nil {
			path = filepath.Join(dir, "config.yaml")
		}
	}

	var (
		cfg *Config
		err error
	)
	if path != "" {
		cfg, err = LoadFromFile(path)
		if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
			cfg, err = Default()
		}
	} else {
		cfg, err = Default()
	}
	if err != nil {
		return nil, err
	}

	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
		if err := cfg.ApplyDefaults(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// TokenFromEnv returns the gist token override, if any.
func TokenFromEnv() string {
	return strings.TrimSpace(os.Getenv(EnvToken))
}
