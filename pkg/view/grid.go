// Package view renders the start-page document and sync status as terminal
// tables. Column widths adapt to the current console width.
package view

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/greg-hellings/startpage/pkg/document"
)

// gridColumns is the number of card columns in the layout.
const gridColumns = document.MaxColSpan

// GridFormatter renders the category grid.
type GridFormatter struct {
	// EditMode shows hidden entries, ids, spans and colors.
	EditMode bool

	// Width overrides the detected terminal width when > 0.
	Width int

	// EnableColors toggles ANSI color output.
	EnableColors bool
}

// NewGridFormatter creates a formatter with colors enabled.
func NewGridFormatter() *GridFormatter {
	return &GridFormatter{EnableColors: true}
}

// Render writes every visible category of doc to writer.
func (f *GridFormatter) Render(doc *document.Document, writer io.Writer) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}

	width := f.Width
	if width <= 0 {
		width = detectTerminalWidth(writer)
	}
	if width > 0 && width < 40 {
		width = 40
	}

	shown, hidden := 0, 0
	for _, c := range doc.Categories {
		if c.Hidden && !f.EditMode {
			hidden++
			continue
		}
		shown++
		if f.EditMode {
			f.renderEditCard(c, width, writer)
		} else {
			f.renderCard(c, width, writer)
		}
		if _, err := fmt.Fprintln(writer); err != nil {
			return fmt.Errorf("failed writing card spacer newline: %w", err)
		}
	}

	summary := fmt.Sprintf("Categories: %d shown", shown)
	if hidden > 0 {
		summary += fmt.Sprintf(", %d hidden", hidden)
	}
	if _, err := fmt.Fprintln(writer, summary); err != nil {
		return fmt.Errorf("failed writing summary line: %w", err)
	}
	return nil
}

// renderCard lays the items out in colSpan*2 cells per row, like the page.
func (f *GridFormatter) renderCard(c *document.Category, width int, writer io.Writer) {
	cols := document.ClampColSpan(c.ColSpan) * 2

	tw := newTable(writer)
	tw.SetTitle(f.color(strings.ToUpper(c.Category), text.Bold))

	cellWidth := 0
	if width > 0 {
		cardWidth := width * document.ClampColSpan(c.ColSpan) / gridColumns
		cellWidth = max(8, (cardWidth-cols*3-1)/cols)
		configs := make([]table.ColumnConfig, 0, cols)
		for i := 1; i <= cols; i++ {
			configs = append(configs, table.ColumnConfig{
				Number:      i,
				WidthMax:    cellWidth,
				Transformer: truncTransformer(cellWidth),
			})
		}
		tw.SetColumnConfigs(configs)
	}

	row := table.Row{}
	for _, it := range c.Items {
		if it.Hidden {
			continue
		}
		row = append(row, f.itemCell(it, cellWidth))
		if len(row) == cols {
			tw.AppendRow(row)
			row = table.Row{}
		}
	}
	if len(row) > 0 {
		tw.AppendRow(row)
	}
	tw.Render()
}

func (f *GridFormatter) itemCell(it *document.Item, cellWidth int) string {
	dest := it.URL
	if cellWidth > 0 {
		dest = truncateRunes(dest, cellWidth)
	}
	return it.Name + "\n" + f.color(dest, text.FgHiBlack)
}

// renderEditCard lists every item with the fields needed to edit it.
func (f *GridFormatter) renderEditCard(c *document.Category, width int, writer io.Writer) {
	tw := newTable(writer)

	title := fmt.Sprintf("%s  %s  %dx%d  %s",
		strings.ToUpper(c.Category), c.ID, c.ColSpan, c.RowSpan, c.ColorOrDefault())
	if c.Hidden {
		title += "  " + f.color("HIDDEN", text.FgRed)
	}
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"ID", "Name", "URL", "Private URL", "Icon", ""})

	if width > 0 {
		urlWidth := max(12, (width-50)/2)
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, WidthMax: urlWidth, Transformer: truncTransformer(urlWidth)},
			{Number: 4, WidthMax: urlWidth, Transformer: truncTransformer(urlWidth)},
		})
	}

	for _, it := range c.Items {
		flag := ""
		if it.Hidden {
			flag = f.color("hidden", text.FgRed)
		}
		tw.AppendRow(table.Row{
			f.color(it.ID, text.FgHiBlack),
			it.Name,
			it.URL,
			it.URLPrivate,
			document.SanitizeIcon(it.Icon),
			flag,
		})
	}
	tw.Render()
}

func newTable(writer io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(writer)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = true
	tw.Style().Options.DrawBorder = true
	tw.Style().Title.Align = text.AlignLeft
	return tw
}

// detectTerminalWidth attempts to get terminal width if writer is a file (stdout/stderr).
func detectTerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			return width
		}
	}
	return -1
}

// truncTransformer returns a text.Transformer to ellipsize overly wide cells.
func truncTransformer(limit int) text.Transformer {
	return func(val interface{}) string {
		s := fmt.Sprint(val)
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			// colored lines are truncated before they are styled
			if !strings.Contains(line, "\x1b[") && utf8.RuneCountInString(line) > limit {
				lines[i] = truncateRunes(line, limit)
			}
		}
		return strings.Join(lines, "\n")
	}
}

// truncateRunes truncates a string to limit runes with ellipsis.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count >= limit-1 {
			break
		}
		b.WriteRune(r)
		count++
	}
	b.WriteRune('…')
	return b.String()
}

func (f *GridFormatter) color(s string, c text.Color) string {
	if !f.EnableColors || s == "" {
		return s
	}
	return text.Colors{c}.Sprint(s)
}
