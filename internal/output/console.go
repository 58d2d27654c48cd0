package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console prints run progress for a person watching the terminal.
type Console struct {
	w io.Writer

	bold   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
}

// NewConsole writes to w. Colors follow fatih/color's terminal detection
// unless noColor is set.
func NewConsole(w io.Writer, noColor bool) *Console {
	c := &Console{
		w:      w,
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
	if noColor {
		for _, col := range []*color.Color{c.bold, c.green, c.yellow, c.red} {
			col.DisableColor()
		}
	}
	return c
}

// Heading starts a new section.
func (c *Console) Heading(format string, args ...any) {
	_, _ = fmt.Fprintln(c.w)
	_, _ = c.bold.Fprintln(c.w, fmt.Sprintf(format, args...))
}

// Info prints a plain line.
func (c *Console) Info(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format+"\n", args...)
}

// Success prints a line marked with a green check.
func (c *Console) Success(format string, args ...any) {
	c.marked(c.green, "✓", format, args...)
}

// Warning prints a line marked with a yellow warning sign.
func (c *Console) Warning(format string, args ...any) {
	c.marked(c.yellow, "⚠", format, args...)
}

// Failure prints a line marked with a red cross.
func (c *Console) Failure(format string, args ...any) {
	c.marked(c.red, "✗", format, args...)
}

// Block prints multi-line text such as command output, indented.
func (c *Console) Block(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		_, _ = fmt.Fprintf(c.w, "    %s\n", line)
	}
}

func (c *Console) marked(col *color.Color, mark, format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, "%s %s\n", col.Sprint(mark), fmt.Sprintf(format, args...))
}
