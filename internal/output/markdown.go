package output

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/marcus/ordr/internal/models"
)

const (
	fallbackWidth = 80
	minWidth      = 20
)

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the stdout width, then $COLUMNS, then 80.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return fallbackWidth
}

// RenderOrder renders an order card through glamour, wrapped to width.
func RenderOrder(o models.Order, width int) (string, error) {
	if width < minWidth {
		width = minWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(FormatOrderMarkdown(o))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
