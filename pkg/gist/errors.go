package gist

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
)

// Failure classes. Every error returned by Client matches exactly one of
// these with errors.Is, except unclassified API errors which are returned as
// *APIError with a nil Kind.
var (
	ErrTransport     = errors.New("network error")
	ErrGistNotFound  = errors.New("gist not found")
	ErrFileNotFound  = errors.New("file not found in gist")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRateLimited   = errors.New("rate limited")
	ErrTokenRequired = errors.New("a token with gist scope is required")
	ErrTooLarge      = errors.New("file too large")
)

// APIError is a non-success response from the Gists API.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	// Kind is one of the failure classes above, or nil.
	Kind error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	if e.Message != "" {
		msg += " " + e.Message
	}
	if e.Kind != nil {
		msg += " (" + e.Kind.Error() + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// classify maps an error from the GitHub SDK onto a failure class.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &APIError{Op: op, StatusCode: statusOf(rateErr.Response), Message: rateErr.Message, Kind: ErrRateLimited}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &APIError{Op: op, StatusCode: statusOf(abuseErr.Response), Message: abuseErr.Message, Kind: ErrRateLimited}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		apiErr := &APIError{Op: op, StatusCode: statusOf(respErr.Response), Message: respErr.Message}
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			apiErr.Kind = ErrUnauthorized
		case http.StatusNotFound:
			apiErr.Kind = ErrGistNotFound
		case http.StatusTooManyRequests:
			apiErr.Kind = ErrRateLimited
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
