package gist

// Narrow view of the go-github Gists service so the client can be exercised
// with fakes instead of HTTP.

import (
	"context"

	"github.com/google/go-github/v57/github"
)

// GistsService is the subset of gist operations the client uses.
type GistsService interface {
	// Get fetches a gist including its files.
	Get(ctx context.Context, id string) (*github.Gist, *github.Response, error)
	// Edit updates the files listed in gist; files not listed are untouched.
	Edit(ctx context.Context, id string, gist *github.Gist) (*github.Gist, *github.Response, error)
}

// githubGistsWrapper is the production GistsService.
type githubGistsWrapper struct {
	client *github.Client
}

func (w *githubGistsWrapper) Get(ctx context.Context, id string) (*github.Gist, *github.Response, error) {
	return w.client.Gists.Get(ctx, id)
}

func (w *githubGistsWrapper) Edit(ctx context.Context, id string, gist *github.Gist) (*github.Gist, *github.Response, error) {
	return w.client.Gists.Edit(ctx, id, gist)
}
