package store

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/greg-hellings/startpage/pkg/kv"
)

// DefaultIconWeight is used when no weight has been chosen.
const DefaultIconWeight = "regular"

// IconWeights lists the accepted icon weights.
var IconWeights = []string{"regular", "thin", "light", "bold", "fill", "duotone"}

var (
	// ErrGistTargetRequired is returned when gist settings are saved without
	// both an id and a filename.
	ErrGistTargetRequired = errors.New("gist id and filename are required")
	// ErrInvalidIconWeight is returned for weights outside IconWeights.
	ErrInvalidIconWeight = errors.New("invalid icon weight")
)

// Gist is the remote sync target.
type Gist struct {
	ID       string
	Filename string
	Token    string
}

// Configured reports whether both id and filename are set.
func (g Gist) Configured() bool {
	return g.ID != "" && g.Filename != ""
}

// Defaults are used when a value is not present in storage. TokenOverride,
// when set, takes precedence over any stored token.
type Defaults struct {
	GistID        string
	GistFilename  string
	TokenOverride string
}

// Settings reads and writes user preferences and sync settings.
type Settings struct {
	backend  kv.Store
	defaults Defaults
}

// NewSettings creates a settings view over backend.
func NewSettings(backend kv.Store, defaults Defaults) *Settings {
	return &Settings{backend: backend, defaults: defaults}
}

// Gist returns the effective sync target.
func (s *Settings) Gist() Gist {
	g := Gist{
		ID:       kv.GetOr(s.backend, kv.KeyGistID, s.defaults.GistID),
		Filename: kv.GetOr(s.backend, kv.KeyGistFile, s.defaults.GistFilename),
		Token:    kv.GetOr(s.backend, kv.KeyGistToken, ""),
	}
	if s.defaults.TokenOverride != "" {
		g.Token = s.defaults.TokenOverride
	}
	return g
}

// TokenFromEnvironment reports whether the token comes from the override
// rather than storage.
func (s *Settings) TokenFromEnvironment() bool {
	return s.defaults.TokenOverride != ""
}

// SaveGist stores the sync target. Both id and filename are required; an
// empty token leaves the stored token untouched.
func (s *Settings) SaveGist(id, filename, token string) error {
	id = strings.TrimSpace(id)
	filename = strings.TrimSpace(filename)
	if id == "" || filename == "" {
		return ErrGistTargetRequired
	}
	if err := s.backend.Set(kv.KeyGistID, id); err != nil {
		return fmt.Errorf("failed to save gist id: %w", err)
	}
	if err := s.backend.Set(kv.KeyGistFile, filename); err != nil {
		return fmt.Errorf("failed to save gist filename: %w", err)
	}
	if token = strings.TrimSpace(token); token != "" {
		return s.SetToken(token)
	}
	return nil
}

// SetToken stores the personal access token.
func (s *Settings) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.ClearToken()
	}
	if err := s.backend.Set(kv.KeyGistToken, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// ClearToken removes the stored token.
func (s *Settings) ClearToken() error {
	if err := s.backend.Remove(kv.KeyGistToken); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// IconWeight returns the selected icon weight.
func (s *Settings) IconWeight() string {
	w := kv.GetOr(s.backend, kv.KeyIconWeight, DefaultIconWeight)
	if !slices.Contains(IconWeights, w) {
		return DefaultIconWeight
	}
	return w
}

// SetIconWeight stores the icon weight after validating it.
func (s *Settings) SetIconWeight(weight string) error {
	weight = strings.ToLower(strings.TrimSpace(weight))
	if !slices.Contains(IconWeights, weight) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidIconWeight, weight, strings.Join(IconWeights, ", "))
	}
	if err := s.backend.Set(kv.KeyIconWeight, weight); err != nil {
		return fmt.Errorf("failed to save icon weight: %w", err)
	}
	return nil
}

// LastPull returns the time of the last successful pull, or the zero time.
func (s *Settings) LastPull() time.Time {
	return s.timestamp(kv.KeyGistLastPull)
}

// LastPush returns the time of the last successful push, or the zero time.
func (s *Settings) LastPush() time.Time {
	return s.timestamp(kv.KeyGistLastPush)
}

// LastDigest returns the digest of the last synced payload.
func (s *Settings) LastDigest() string {
	return kv.GetOr(s.backend, kv.KeyGistLastDigest, "")
}

// RecordPull stores a successful pull time and payload digest.
func (s *Settings) RecordPull(at time.Time, digest string) error {
	return s.record(kv.KeyGistLastPull, at, digest)
}

// RecordPush stores a successful push time and payload digest.
func (s *Settings) RecordPush(at time.Time, digest string) error {
	return s.record(kv.KeyGistLastPush, at, digest)
}

func (s *Settings) record(key string, at time.Time, digest string) error {
	if err := s.backend.Set(key, strconv.FormatInt(at.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("failed to record %s: %w", key, err)
	}
	if digest == "" {
		return nil
	}
	if err := s.backend.Set(kv.KeyGistLastDigest, digest); err != nil {
		return fmt.Errorf("failed to record digest: %w", err)
	}
	return nil
}

func (s *Settings) timestamp(key string) time.Time {
	v, err := s.backend.Get(key)
	if err != nil {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Wallpaper returns the stored wallpaper descriptor text.
func (s *Settings) Wallpaper() string {
	return kv.GetOr(s.backend, kv.KeyWallpaper, "")
}

// SetWallpaper stores the wallpaper descriptor text.
func (s *Settings) SetWallpaper(value string) error {
	if err := s.backend.Set(kv.KeyWallpaper, value); err != nil {
		return fmt.Errorf("failed to save wallpaper: %w", err)
	}
	return nil
}

// RedactToken masks all but the last four characters of a token.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
