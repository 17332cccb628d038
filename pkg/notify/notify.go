// Package notify prints short status messages for the user.
package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Level classifies a message.
type Level int

const (
	Info Level = iota
	Success
	Error
)

// Notifier writes colored messages.
type Notifier struct {
	out     io.Writer
	success *color.Color
	failure *color.Color
	info    *color.Color
}

// New creates a notifier writing to out. When noColor is set the messages
// are written without escape codes.
func New(out io.Writer, noColor bool) *Notifier {
	n := &Notifier{
		out:     out,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		info:    color.New(color.FgCyan),
	}
	if noColor {
		n.success.DisableColor()
		n.failure.DisableColor()
		n.info.DisableColor()
	}
	return n
}

// Stderr returns a notifier on standard error.
func Stderr(noColor bool) *Notifier {
	return New(os.Stderr, noColor)
}

// Notify writes msg at the given level.
func (n *Notifier) Notify(level Level, msg string) {
	var c *color.Color
	prefix := "•"
	switch level {
	case Success:
		c, prefix = n.success, "✓"
	case Error:
		c, prefix = n.failure, "✗"
	default:
		c = n.info
	}
	_, _ = c.Fprintf(n.out, "%s %s\n", prefix, msg)
}

// Successf reports a completed action.
func (n *Notifier) Successf(format string, args ...any) {
	n.Notify(Success, fmt.Sprintf(format, args...))
}

// Errorf reports a failed action.
func (n *Notifier) Errorf(format string, args ...any) {
	n.Notify(Error, fmt.Sprintf(format, args...))
}

// Infof reports neutral information.
func (n *Notifier) Infof(format string, args ...any) {
	n.Notify(Info, fmt.Sprintf(format, args...))
}
