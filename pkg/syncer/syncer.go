// Package syncer implements the manual pull/push exchange between the local
// document and one file in a GitHub Gist.
//
// Every operation is a single user-triggered request: no retries, no
// polling. Failures never partially apply; the local document and the
// remote file are either fully replaced or left as they were.
package syncer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"

	"github.com/greg-hellings/startpage/pkg/confirm"
	"github.com/greg-hellings/startpage/pkg/gist"
	"github.com/greg-hellings/startpage/pkg/interchange"
	"github.com/greg-hellings/startpage/pkg/store"
)

var (
	// ErrBusy is returned when another sync operation is in flight.
	ErrBusy = errors.New("sync already in progress")
	// ErrNotConfigured is returned when no gist id or filename is set.
	ErrNotConfigured = errors.New("gist not configured")
)

// Remote is the remote file the document is synced with.
type Remote interface {
	Fetch(ctx context.Context, id, filename string) (string, error)
	Update(ctx context.Context, id, filename, content string) error
	Exists(ctx context.Context, id, filename string) error
}

// Config holds the syncer settings.
type Config struct {
	// BaseURL is passed to the gist client for GitHub Enterprise.
	BaseURL string
	// Timeout bounds each network exchange. Zero means no extra bound.
	Timeout time.Duration
	// NewRemote builds the remote for a token. Nil uses the gist client.
	NewRemote func(token string) (Remote, error)
}

// Syncer runs pull, push and test against the configured gist.
type Syncer struct {
	store     *store.Store
	settings  *store.Settings
	prompter  confirm.Prompter
	newRemote func(token string) (Remote, error)
	timeout   time.Duration
	now       func() time.Time
	busy      atomic.Bool
}

// New creates a syncer.
func New(st *store.Store, settings *store.Settings, prompter confirm.Prompter, config Config) *Syncer {
	newRemote := config.NewRemote
	if newRemote == nil {
		baseURL := config.BaseURL
		newRemote = func(token string) (Remote, error) {
			return gist.NewClient(gist.Config{Token: token, BaseURL: baseURL})
		}
	}
	return &Syncer{
		store:     st,
		settings:  settings,
		prompter:  prompter,
		newRemote: newRemote,
		timeout:   config.Timeout,
		now:       time.Now,
	}
}

// Busy reports whether an operation is in flight.
func (s *Syncer) Busy() bool {
	return s.busy.Load()
}

func (s *Syncer) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Syncer) release() {
	s.busy.Store(false)
}

func (s *Syncer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Pull replaces the local document with the remote file after the user
// confirms.
func (s *Syncer) Pull(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	g := s.settings.Gist()
	if !g.Configured() {
		return ErrNotConfigured
	}
	if _, err := confirm.Require(ctx, s.prompter, confirm.Request{
		Title:   "Pull From Gist",
		Message: fmt.Sprintf("This will overwrite your local configuration with\n%s/%s. Continue?", g.ID, g.Filename),
		Label:   "Pull",
		Next:    "pull",
	}); err != nil {
		return err
	}

	remote, err := s.newRemote(g.Token)
	if err != nil {
		return fmt.Errorf("failed to create gist client: %w", err)
	}
	netCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, err := remote.Fetch(netCtx, g.ID, g.Filename)
	if err != nil {
		return fmt.Errorf("gist pull failed: %w", err)
	}
	raw, err := interchange.Decode(text)
	if err != nil {
		return fmt.Errorf("gist pull failed: %w", err)
	}

	s.store.Process(raw, true)
	if err := s.settings.RecordPull(s.now(), s.localDigest()); err != nil {
		slog.Warn("Failed to record pull time", "error", err)
	}
	slog.Info("Pulled configuration from gist", "gist", g.ID, "file", g.Filename, "bytes", len(text))
	return nil
}

// Push overwrites the remote file with the local document after the user
// confirms. A token is required before anything is asked or sent.
func (s *Syncer) Push(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	g := s.settings.Gist()
	if !g.Configured() {
		return ErrNotConfigured
	}
	if g.Token == "" {
		return gist.ErrTokenRequired
	}
	if _, err := confirm.Require(ctx, s.prompter, confirm.Request{
		Title:   "Push To Gist",
		Message: fmt.Sprintf("This will overwrite the remote Gist file\n%s/%s with your current local configuration. Continue?", g.ID, g.Filename),
		Label:   "Push",
		Danger:  true,
		Next:    "push",
	}); err != nil {
		return err
	}

	text, err := interchange.Encode(s.store.Data())
	if err != nil {
		return err
	}
	remote, err := s.newRemote(g.Token)
	if err != nil {
		return fmt.Errorf("failed to create gist client: %w", err)
	}
	netCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := remote.Update(netCtx, g.ID, g.Filename, string(text)); err != nil {
		return fmt.Errorf("gist push failed: %w", err)
	}
	if err := s.settings.RecordPush(s.now(), digest(text)); err != nil {
		slog.Warn("Failed to record push time", "error", err)
	}
	slog.Info("Pushed configuration to gist", "gist", g.ID, "file", g.Filename, "bytes", len(text))
	return nil
}

// Test checks that the configured gist and file are reachable. Nothing is
// changed locally.
func (s *Syncer) Test(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	g := s.settings.Gist()
	if !g.Configured() {
		return ErrNotConfigured
	}
	remote, err := s.newRemote(g.Token)
	if err != nil {
		return fmt.Errorf("failed to create gist client: %w", err)
	}
	netCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := remote.Exists(netCtx, g.ID, g.Filename); err != nil {
		return fmt.Errorf("gist test failed: %w", err)
	}
	return nil
}

// Status describes the sync configuration and history.
type Status struct {
	ID       string
	Filename string
	// Token is the redacted token, empty when none is set.
	Token         string
	TokenFromEnv  bool
	LastPull      time.Time
	LastPush      time.Time
	HasSynced     bool
	LocalModified bool
}

// Status reports the current sync state. LocalModified is set when the
// local document no longer matches what was last pulled or pushed.
func (s *Syncer) Status() Status {
	g := s.settings.Gist()
	st := Status{
		ID:           g.ID,
		Filename:     g.Filename,
		Token:        store.RedactToken(g.Token),
		TokenFromEnv: s.settings.TokenFromEnvironment() && g.Token != "",
		LastPull:     s.settings.LastPull(),
		LastPush:     s.settings.LastPush(),
	}
	if last := s.settings.LastDigest(); last != "" {
		st.HasSynced = true
		st.LocalModified = last != s.localDigest()
	}
	return st
}

func (s *Syncer) localDigest() string {
	text, err := interchange.Encode(s.store.Data())
	if err != nil {
		return ""
	}
	return digest(text)
}

func digest(text []byte) string {
	sum := blake3.Sum256(text)
	return hex.EncodeToString(sum[:])
}

// UserMessage turns a sync error into a short message for the user.
func UserMessage(err error) string {
	var apiErr *gist.APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "A sync is already in progress"
	case errors.Is(err, ErrNotConfigured):
		return "Gist not configured"
	case errors.Is(err, confirm.ErrCancelled):
		return "Canceled"
	case errors.Is(err, gist.ErrTokenRequired):
		return "Set token first (gist scope)"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request to GitHub timed out"
	case errors.Is(err, gist.ErrUnauthorized):
		return "Authorization failed: check the token and its gist scope"
	case errors.Is(err, gist.ErrGistNotFound):
		return "Gist not found"
	case errors.Is(err, gist.ErrFileNotFound):
		return "File not found in gist"
	case errors.Is(err, gist.ErrRateLimited):
		return "GitHub rate limit exceeded, try again later"
	case errors.Is(err, gist.ErrTooLarge):
		return "Gist file is too large to import"
	case errors.Is(err, gist.ErrTransport):
		return "Network error: could not reach GitHub"
	case errors.Is(err, interchange.ErrEmptyInput):
		return "Remote file is empty"
	case errors.Is(err, interchange.ErrMalformed):
		return "Remote file is not valid YAML"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("GitHub returned HTTP %d", apiErr.StatusCode)
	default:
		return "Sync failed: " + err.Error()
	}
}
