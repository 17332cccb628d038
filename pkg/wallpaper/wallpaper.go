// Package wallpaper picks a daily background image from a Bing wallpaper
// mirror and remembers it between sessions.
package wallpaper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	mrand "math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Defaults for Config.
const (
	DefaultEndpoint          = "https://bing.biturl.top/"
	DefaultMarket            = "zh-CN"
	DefaultResolution        = "UHD"
	DefaultPreviewResolution = "1920x1080"
)

const (
	// indexCount is how many recent images the mirror serves.
	indexCount = 8
	// maxAttempts bounds the random picks before falling back to index 0.
	maxAttempts = 6
)

var (
	// ErrBusy is returned when a refresh is already running.
	ErrBusy = errors.New("wallpaper refresh already in progress")
	// ErrUnavailable is returned when no image could be fetched.
	ErrUnavailable = errors.New("no wallpaper available")
)

var resolutionPattern = regexp.MustCompile(`(?i)_(UHD|\d+x\d+)\.jpg(\?.*)?$`)

// Rewrite swaps the resolution suffix of a Bing image URL. URLs without a
// recognised suffix are returned unchanged.
func Rewrite(imageURL, resolution string) string {
	if imageURL == "" {
		return ""
	}
	return resolutionPattern.ReplaceAllString(imageURL, "_"+resolution+".jpg$2")
}

// Descriptor is the stored wallpaper.
type Descriptor struct {
	URL        string `json:"url"`
	PreviewURL string `json:"previewUrl"`
	UpdatedAt  int64  `json:"updatedAt"`
}

// Storage persists the descriptor text.
type Storage interface {
	Wallpaper() string
	SetWallpaper(value string) error
}

// Config holds the fetcher settings.
type Config struct {
	Endpoint          string
	Market            string
	Resolution        string
	PreviewResolution string
	Timeout           time.Duration
}

// Fetcher fetches and stores wallpapers.
type Fetcher struct {
	config  Config
	client  *retryablehttp.Client
	storage Storage
	busy    atomic.Bool
	perm    func(n int) []int
	now     func() time.Time
}

// New creates a fetcher. Empty config fields take the package defaults.
func New(storage Storage, config Config) *Fetcher {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Market == "" {
		config.Market = DefaultMarket
	}
	if config.Resolution == "" {
		config.Resolution = DefaultResolution
	}
	if config.PreviewResolution == "" {
		config.PreviewResolution = DefaultPreviewResolution
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = slog.Default()
	if config.Timeout > 0 {
		client.HTTPClient.Timeout = config.Timeout
	}

	return &Fetcher{
		config:  config,
		client:  client,
		storage: storage,
		perm:    mrand.Perm,
		now:     time.Now,
	}
}

// Current returns the stored wallpaper. Both the descriptor form and a bare
// legacy URL are understood.
func (f *Fetcher) Current() (Descriptor, bool) {
	d := Parse(f.storage.Wallpaper(), f.config.Resolution, f.config.PreviewResolution)
	return d, d.URL != ""
}

// Parse decodes stored wallpaper text. The full-size URL is normalised to
// resolution, and a missing preview is derived with previewResolution.
func Parse(stored, resolution, previewResolution string) Descriptor {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return Descriptor{}
	}
	var d Descriptor
	if strings.HasPrefix(stored, "{") {
		var raw struct {
			URL        string `json:"url"`
			PreviewURL string `json:"previewUrl"`
			LoURL      string `json:"loUrl"`
			UpdatedAt  int64  `json:"updatedAt"`
		}
		if err := json.Unmarshal([]byte(stored), &raw); err != nil {
			return Descriptor{}
		}
		d = Descriptor{URL: raw.URL, PreviewURL: raw.PreviewURL, UpdatedAt: raw.UpdatedAt}
		if d.PreviewURL == "" {
			d.PreviewURL = raw.LoURL
		}
	} else {
		d.URL = stored
	}
	d.URL = Rewrite(d.URL, resolution)
	if d.PreviewURL == "" {
		d.PreviewURL = Rewrite(d.URL, previewResolution)
	}
	return d
}

// Refresh fetches a different wallpaper than the current one and stores it.
func (f *Fetcher) Refresh(ctx context.Context) (Descriptor, error) {
	if !f.busy.CompareAndSwap(false, true) {
		return Descriptor{}, ErrBusy
	}
	defer f.busy.Store(false)

	prev, _ := f.Current()
	next := f.pickRandom(ctx, prev.URL)
	if next == "" {
		return Descriptor{}, ErrUnavailable
	}

	d := Descriptor{
		URL:        Rewrite(next, f.config.Resolution),
		PreviewURL: Rewrite(next, f.config.PreviewResolution),
		UpdatedAt:  f.now().UnixMilli(),
	}
	data, err := json.Marshal(d)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to encode wallpaper: %w", err)
	}
	if err := f.storage.SetWallpaper(string(data)); err != nil {
		slog.Warn("Failed to store wallpaper", "error", err)
	}
	slog.Info("Wallpaper updated", "url", d.URL)
	return d, nil
}

func (f *Fetcher) pickRandom(ctx context.Context, prev string) string {
	indexes := f.perm(indexCount)
	for i := 0; i < len(indexes) && i < maxAttempts; i++ {
		u, err := f.fetchIndex(ctx, indexes[i])
		if err != nil {
			slog.Debug("Wallpaper fetch failed", "index", indexes[i], "error", err)
			continue
		}
		if u != "" && Rewrite(u, f.config.Resolution) != prev {
			return u
		}
	}
	u, err := f.fetchIndex(ctx, 0)
	if err != nil {
		slog.Debug("Wallpaper fallback fetch failed", "error", err)
		return ""
	}
	return u
}

type apiResponse struct {
	URL string `json:"url"`
}

func (f *Fetcher) fetchIndex(ctx context.Context, index int) (string, error) {
	u, err := url.Parse(f.config.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid wallpaper endpoint: %w", err)
	}
	q := u.Query()
	q.Set("resolution", f.config.Resolution)
	q.Set("format", "json")
	q.Set("index", strconv.Itoa(index))
	q.Set("mkt", f.config.Market)
	q.Set("_", strconv.FormatInt(f.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close response body", "error", closeErr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wallpaper API returned HTTP %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode wallpaper response: %w", err)
	}
	return out.URL, nil
}
