package popups

import (
	tea "github.com/charmbracelet/bubbletea"

	"gm-tui/styles"
)

// ConfirmResult is the outcome of one key press on a confirm popup.
type ConfirmResult int

const (
	ConfirmNone ConfirmResult = iota
	ConfirmYes
	ConfirmNo
)

// Confirm is a two-button modal question. Esc counts as the No button.
type Confirm struct {
	Title    string
	Body     string
	YesLabel string
	NoLabel  string

	open     bool
	focusYes bool
}

// Open shows the popup with No focused, so a stray Enter is harmless.
func (c *Confirm) Open(title, body, yesLabel, noLabel string) {
	c.Title, c.Body = title, body
	c.YesLabel, c.NoLabel = yesLabel, noLabel
	c.open = true
	c.focusYes = false
}

func (c *Confirm) IsOpen() bool { return c.open }
func (c *Confirm) Close()       { c.open = false }

func (c *Confirm) HandleKey(msg tea.KeyMsg) ConfirmResult {
	if !c.open {
		return ConfirmNone
	}
	switch msg.String() {
	case "left", "right", "tab":
		c.focusYes = !c.focusYes
	case "enter":
		c.open = false
		if c.focusYes {
			return ConfirmYes
		}
		return ConfirmNo
	case "esc":
		c.open = false
		return ConfirmNo
	}
	return ConfirmNone
}

func (c *Confirm) View(th styles.Theme, width, height int) string {
	if !c.open {
		return ""
	}
	content := th.TextStyle().Render(c.Body) + "\n\n" +
		ButtonRow(th, c.NoLabel, c.YesLabel, c.focusYes)
	return Frame(th, width, height, c.Title, content)
}
