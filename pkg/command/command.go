// Package command interprets the text typed into the search box. Lines
// starting with ">" are commands; anything else becomes a search URL for
// the selected engine.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/greg-hellings/startpage/pkg/app"
	"github.com/greg-hellings/startpage/pkg/store"
)

// ErrUsage is returned for a recognised command with bad arguments.
var ErrUsage = errors.New("usage")

// Help describes the available commands.
const Help = `Commands:
  >edit                                  Enter edit mode (show hidden entries)
  >reset                                 Reset navigation data (keep Gist settings)
  >help                                  Show this message
  >weight [thin|light|regular|bold|fill|duotone]
                                         Show or set the icon weight

Gist sync:
  >gist set <id> <filename>              Set target gist id and filename
  >gist token <PAT>                      Set GitHub token (gist scope)
  >gist pull                             Pull from Gist (overwrite local)
  >gist push                             Push current config to Gist (overwrite remote)
  >gist status                           Show target/token/last pull/push

Anything else is searched with the selected engine.`

// Result is the outcome of one line of input.
type Result struct {
	// URL is set when the input was a search.
	URL string
	// Message is feedback for the user.
	Message string
}

// Interpreter runs input lines against an App.
type Interpreter struct {
	app *app.App
}

// New creates an interpreter for a.
func New(a *app.App) *Interpreter {
	return &Interpreter{app: a}
}

type handler struct {
	match func(line string) bool
	run   func(ctx context.Context, line string) (Result, error)
}

// Run interprets one line.
func (i *Interpreter) Run(ctx context.Context, line string) (Result, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{}, nil
	}
	for _, h := range i.handlers() {
		if h.match(line) {
			return h.run(ctx, line)
		}
	}
	u, err := i.app.SearchURL(line)
	if err != nil {
		return Result{}, err
	}
	return Result{URL: u}, nil
}

func exact(cmd string) func(string) bool {
	return func(line string) bool { return line == cmd }
}

func prefix(p string) func(string) bool {
	return func(line string) bool { return strings.HasPrefix(line, p) }
}

func (i *Interpreter) handlers() []handler {
	return []handler{
		{exact(">edit"), i.edit},
		{exact(">reset"), i.reset},
		{exact(">help"), func(context.Context, string) (Result, error) { return Result{Message: Help}, nil }},
		{prefix(">gist token "), i.gistToken},
		{prefix(">gist set "), i.gistSet},
		{exact(">gist pull"), i.gistPull},
		{exact(">gist push"), i.gistPush},
		{exact(">gist status"), i.gistStatus},
		{exact(">weight"), i.showWeight},
		{prefix(">weight "), i.setWeight},
	}
}

func (i *Interpreter) edit(context.Context, string) (Result, error) {
	i.app.SetEditMode(true)
	return Result{Message: "Edit mode on"}, nil
}

func (i *Interpreter) reset(ctx context.Context, _ string) (Result, error) {
	if err := i.app.Reset(ctx); err != nil {
		return Result{}, err
	}
	return Result{Message: "Reset done"}, nil
}

func (i *Interpreter) gistToken(_ context.Context, line string) (Result, error) {
	token := strings.TrimSpace(strings.TrimPrefix(line, ">gist token "))
	if token == "" {
		return Result{}, fmt.Errorf("%w: >gist token <token>", ErrUsage)
	}
	if err := i.app.Settings.SetToken(token); err != nil {
		return Result{}, err
	}
	return Result{Message: "Gist token set"}, nil
}

func (i *Interpreter) gistSet(_ context.Context, line string) (Result, error) {
	parts := strings.Fields(strings.TrimPrefix(line, ">gist set "))
	if len(parts) < 2 {
		return Result{}, fmt.Errorf("%w: >gist set <id> <filename>", ErrUsage)
	}
	if err := i.app.SetGistTarget(parts[0], strings.Join(parts[1:], " ")); err != nil {
		return Result{}, err
	}
	return Result{Message: "Gist target set"}, nil
}

func (i *Interpreter) gistPull(ctx context.Context, _ string) (Result, error) {
	if err := i.app.Syncer.Pull(ctx); err != nil {
		return Result{}, err
	}
	return Result{Message: "Pulled from Gist"}, nil
}

func (i *Interpreter) gistPush(ctx context.Context, _ string) (Result, error) {
	if err := i.app.Syncer.Push(ctx); err != nil {
		return Result{}, err
	}
	return Result{Message: "Pushed to Gist"}, nil
}

func (i *Interpreter) gistStatus(context.Context, string) (Result, error) {
	st := i.app.Syncer.Status()
	token := "none"
	if st.Token != "" {
		token = "set"
	}
	return Result{Message: fmt.Sprintf("Gist: %s/%s | token: %s | pull: %s | push: %s",
		orDash(st.ID), orDash(st.Filename), token, stamp(st.LastPull), stamp(st.LastPush))}, nil
}

func (i *Interpreter) showWeight(context.Context, string) (Result, error) {
	return Result{Message: fmt.Sprintf("Current weight: %s (%s)",
		i.app.Settings.IconWeight(), strings.Join(store.IconWeights, "|"))}, nil
}

func (i *Interpreter) setWeight(_ context.Context, line string) (Result, error) {
	w := strings.Fields(line)[1]
	if err := i.app.Settings.SetIconWeight(w); err != nil {
		return Result{}, err
	}
	return Result{Message: "Icon weight: " + i.app.Settings.IconWeight()}, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
