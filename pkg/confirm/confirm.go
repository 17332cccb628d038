// Package confirm gates destructive actions behind an explicit user
// decision. A confirmation is modelled as a workflow result: the caller
// receives an Outcome carrying the decision and the step it asked to resume
// with, instead of a callback.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// Request describes the question put to the user.
type Request struct {
	Title   string
	Message string
	// Label names the action, e.g. "Delete" or "Push".
	Label string
	// Danger marks irreversible actions.
	Danger bool
	// Next is an opaque token handed back in the Outcome.
	Next string
}

// Outcome is the user's decision.
type Outcome struct {
	Confirmed bool
	Next      string
}

// Prompter asks the user to confirm a request.
type Prompter interface {
	Confirm(ctx context.Context, req Request) (Outcome, error)
}

// Require asks p to confirm req and returns ErrCancelled when the user
// declines.
func Require(ctx context.Context, p Prompter, req Request) (Outcome, error) {
	out, err := p.Confirm(ctx, req)
	if err != nil {
		return out, err
	}
	if !out.Confirmed {
		return out, ErrCancelled
	}
	return out, nil
}

// Always answers every request with the same decision.
type Always bool

// Confirm implements Prompter.
func (a Always) Confirm(_ context.Context, req Request) (Outcome, error) {
	return Outcome{Confirmed: bool(a), Next: req.Next}, nil
}

// Terminal prompts on a terminal and reads a y/N answer.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	// AssumeYes confirms without asking.
	AssumeYes bool
	// Interactive is false when In is not a terminal; requests are then
	// declined unless AssumeYes is set.
	Interactive bool

	once  sync.Once
	lines chan string
}

// NewTerminal creates a prompter on stdin/stderr.
func NewTerminal(assumeYes bool) *Terminal {
	return &Terminal{
		In:          os.Stdin,
		Out:         os.Stderr,
		AssumeYes:   assumeYes,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// Confirm implements Prompter.
func (t *Terminal) Confirm(ctx context.Context, req Request) (Outcome, error) {
	if t.AssumeYes {
		return Outcome{Confirmed: true, Next: req.Next}, nil
	}
	if !t.Interactive {
		slog.Warn("Not a terminal, declining confirmation (use --yes to skip)", "action", req.Label)
		return Outcome{Next: req.Next}, nil
	}

	title := color.New(color.Bold)
	if req.Danger {
		title.Add(color.FgRed)
	}
	_, _ = title.Fprintln(t.Out, req.Title)
	if req.Message != "" {
		_, _ = fmt.Fprintln(t.Out, req.Message)
	}
	label := req.Label
	if label == "" {
		label = "Continue"
	}
	_, _ = fmt.Fprintf(t.Out, "%s? [y/N]: ", label)

	select {
	case <-ctx.Done():
		return Outcome{Next: req.Next}, ctx.Err()
	case line, ok := <-t.readLines():
		if !ok {
			return Outcome{Next: req.Next}, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return Outcome{Confirmed: true, Next: req.Next}, nil
		default:
			return Outcome{Next: req.Next}, nil
		}
	}
}

// readLines starts the single reader of In on first use. Lines are handed
// out one per prompt; the channel is closed at end of input. A line read
// while no prompt is waiting answers the next prompt.
func (t *Terminal) readLines() <-chan string {
	t.once.Do(func() {
		t.lines = make(chan string)
		go func() {
			defer close(t.lines)
			r := bufio.NewReader(t.In)
			for {
				line, err := r.ReadString('\n')
				if line != "" {
					t.lines <- line
				}
				if err != nil {
					return
				}
			}
		}()
	})
	return t.lines
}
