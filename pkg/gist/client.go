// Package gist reads and replaces a single file inside a GitHub Gist.
//
// The client wraps go-github's Gists service. Reads work anonymously for
// public and secret gists; writes require a personal access token with the
// gist scope.
package gist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v57/github"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
)

// maxRawSize bounds how much of a raw file is read.
const maxRawSize = 10 << 20

// Config holds the client settings.
type Config struct {
	// Token is a personal access token. Empty means anonymous access.
	Token string
	// BaseURL is the API endpoint of a GitHub Enterprise instance. Leave
	// empty for github.com.
	BaseURL string
}

// Client fetches and updates gist files.
type Client struct {
	api   GistsService
	raw   *http.Client
	token string
	// rawLimit overrides maxRawSize when > 0.
	rawLimit int64
}

// NewClient creates a client for the given configuration.
func NewClient(config Config) (*Client, error) {
	var client *github.Client
	if config.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(cleanhttp.DefaultPooledClient())
	}

	if config.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(config.BaseURL, config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set GitHub Enterprise URL: %w", err)
		}
	}

	return &Client{
		api:   &githubGistsWrapper{client: client},
		raw:   cleanhttp.DefaultPooledClient(),
		token: config.Token,
	}, nil
}

// Fetch returns the content of filename in gist id. GitHub truncates large
// files in the API response; their full content is then read from the raw
// URL.
func (c *Client) Fetch(ctx context.Context, id, filename string) (string, error) {
	f, err := c.file(ctx, id, filename)
	if err != nil {
		return "", err
	}

	content := f.GetContent()
	if f.Content != nil && len(content) >= f.GetSize() {
		return content, nil
	}
	if f.GetRawURL() == "" {
		return content, nil
	}
	slog.Debug("Gist file content truncated, fetching raw URL",
		"file", filename,
		"size", f.GetSize(),
		"inline", len(content))
	return c.fetchRaw(ctx, f.GetRawURL())
}

// Exists checks that gist id is reachable and contains filename.
func (c *Client) Exists(ctx context.Context, id, filename string) error {
	_, err := c.file(ctx, id, filename)
	return err
}

// Update replaces the content of filename in gist id. Other files in the
// gist are left alone. A token is required.
func (c *Client) Update(ctx context.Context, id, filename, content string) error {
	if c.token == "" {
		return ErrTokenRequired
	}
	edit := &github.Gist{
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(filename): {Content: github.String(content)},
		},
	}
	_, resp, err := c.api.Edit(ctx, id, edit)
	closeBody(resp)
	if err != nil {
		return classify("update gist", err)
	}
	slog.Info("Updated gist file", "gist", id, "file", filename, "bytes", len(content))
	return nil
}

func (c *Client) file(ctx context.Context, id, filename string) (github.GistFile, error) {
	g, resp, err := c.api.Get(ctx, id)
	closeBody(resp)
	if err != nil {
		return github.GistFile{}, classify("fetch gist", err)
	}
	f, ok := g.Files[github.GistFilename(filename)]
	if !ok {
		return github.GistFile{}, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
	}
	return f, nil
}

func (c *Client) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("raw fetch: %w: %w", ErrTransport, err)
	}
	resp, err := c.raw.Do(req)
	if err != nil {
		return "", fmt.Errorf("raw fetch: %w: %w", ErrTransport, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Op: "raw fetch", StatusCode: resp.StatusCode}
		switch resp.StatusCode {
		case http.StatusNotFound:
			apiErr.Kind = ErrFileNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			apiErr.Kind = ErrUnauthorized
		}
		return "", apiErr
	}
	limit := c.rawLimit
	if limit <= 0 {
		limit = maxRawSize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("raw fetch: %w: %w", ErrTransport, err)
	}
	if int64(len(body)) > limit {
		return "", fmt.Errorf("raw fetch: %w: more than %d bytes", ErrTooLarge, limit)
	}
	return string(body), nil
}

func closeBody(resp *github.Response) {
	if resp == nil || resp.Response == nil || resp.Body == nil {
		return
	}
	if err := resp.Body.Close(); err != nil {
		slog.Debug("Failed to close response body", "error", err)
	}
}
