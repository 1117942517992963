package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/editor"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3b82f6"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	statusStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#64748b")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444")).
			Bold(true)
)

// Width returns the column count of f, or DefaultWidth when f is not a terminal.
func Width(f *os.File) int {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Status renders the status bar in a bordered box followed by the hint line.
func Status(bar editor.StatusBar) string {
	return statusStyle.Render(bar.String()) + "\n" + mutedStyle.Render(editor.Hint)
}

// Notice renders a user-facing notice.
func Notice(n editor.Notice) string {
	if n.Level == editor.LevelError {
		return errorStyle.Render("✗ " + n.Message)
	}
	return headerStyle.Render("✓ ") + n.Message
}

// NodeTable renders one row per node: id, kind, position and text.
func NodeTable(nodes []domain.Node, width int) string {
	const idW, kindW, posW = 38, 16, 14
	textW := width - idW - kindW - posW - 3
	if textW < 10 {
		textW = 10
	}

	row := func(id, kind, pos, text string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(idW).Render(clip(id, idW-1)),
			lipgloss.NewStyle().Width(kindW).Render(kind),
			lipgloss.NewStyle().Width(posW).Render(pos),
			lipgloss.NewStyle().Width(textW).Render(clip(text, textW)),
		)
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(row("ID", "KIND", "POSITION", "TEXT")))
	sb.WriteString("\n")
	for _, n := range nodes {
		line := row(n.ID, string(n.Kind),
			fmt.Sprintf("%.0f,%.0f", n.Position.X, n.Position.Y),
			strings.Join(strings.Fields(n.Content.Text), " "))
		if n.Temporary {
			line = mutedStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
