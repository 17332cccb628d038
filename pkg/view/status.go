package view

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/greg-hellings/startpage/pkg/syncer"
)

// StatusFormatter renders the gist sync status.
type StatusFormatter struct {
	EnableColors bool
	// Location is used for timestamps; nil means local time.
	Location *time.Location
}

// Render writes st to writer as a two-column table.
func (f *StatusFormatter) Render(st syncer.Status, writer io.Writer) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(writer)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Gist Sync")

	token := st.Token
	switch {
	case token == "":
		token = f.color("not set", text.FgYellow)
	case st.TokenFromEnv:
		token += " (environment)"
	}

	state := "-"
	if st.HasSynced {
		if st.LocalModified {
			state = f.color("local changes not pushed", text.FgYellow)
		} else {
			state = f.color("in sync", text.FgGreen)
		}
	}

	tw.AppendRows([]table.Row{
		{"Gist ID", orDash(st.ID)},
		{"Filename", orDash(st.Filename)},
		{"Token", token},
		{"Last Pull", f.timestamp(st.LastPull)},
		{"Last Push", f.timestamp(st.LastPush)},
		{"State", state},
	})
	tw.Render()

	if st.ID == "" || st.Filename == "" {
		if _, err := fmt.Fprintln(writer, "Configure with: startpage gist set <id> <filename>"); err != nil {
			return fmt.Errorf("failed writing configuration hint: %w", err)
		}
	}
	return nil
}

func (f *StatusFormatter) timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if f.Location != nil {
		t = t.In(f.Location)
	} else {
		t = t.Local()
	}
	return t.Format("2006-01-02 15:04:05")
}

func (f *StatusFormatter) color(s string, c text.Color) string {
	if !f.EnableColors {
		return s
	}
	return text.Colors{c}.Sprint(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
