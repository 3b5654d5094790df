// Package popups holds the modal surfaces a screen can own: confirm,
// scrollable text, filter-select, and the transaction and signing flows.
// While a popup is open it receives the keyboard exclusively; the screen
// below keeps rendering underneath.
package popups

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gm-tui/styles"
)

// Frame draws a popup box centered in the given area.
func Frame(th styles.Theme, width, height int, title, content string) string {
	boxWidth := width * 3 / 4
	if boxWidth < 20 {
		boxWidth = width - 2
	}

	var body strings.Builder
	if title != "" {
		body.WriteString(th.TitleStyle().Render(title))
		body.WriteString("\n\n")
	}
	body.WriteString(content)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.Border).
		Padding(1, 2).
		Width(boxWidth).
		Render(body.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// Overlay lays a popup's rendered area over the screen content. Rows the
// popup box does not cover show the content underneath; rows it does cover
// are replaced whole.
func Overlay(background, popup string) string {
	bg := strings.Split(background, "\n")
	fg := strings.Split(popup, "\n")
	for i := range fg {
		if strings.TrimSpace(fg[i]) != "" {
			continue
		}
		if i < len(bg) {
			fg[i] = bg[i]
		}
	}
	return strings.Join(fg, "\n")
}

// ButtonRow renders two buttons side by side with one focused.
func ButtonRow(th styles.Theme, left, right string, focusRight bool) string {
	l := th.ButtonStyle(!focusRight).Render(left)
	r := th.ButtonStyle(focusRight).Render(right)
	return lipgloss.JoinHorizontal(lipgloss.Top, l, "   ", r)
}
