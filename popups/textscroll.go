package popups

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"gm-tui/styles"
)

// TextScroll shows a long read-only text in a scrollable viewport.
type TextScroll struct {
	Title string

	open bool
	vp   viewport.Model
}

func (t *TextScroll) Open(title, text string, width, height int) {
	t.Title = title
	t.vp = viewport.New(width*3/4-6, height-8)
	t.vp.SetContent(text)
	t.open = true
}

func (t *TextScroll) IsOpen() bool { return t.open }
func (t *TextScroll) Close()       { t.open = false }

// HandleKey scrolls on arrows and page keys; Esc or Enter closes. Returns
// true once the popup has closed.
func (t *TextScroll) HandleKey(msg tea.KeyMsg) bool {
	if !t.open {
		return false
	}
	switch msg.String() {
	case "esc", "enter", "q":
		t.open = false
		return true
	}
	t.vp, _ = t.vp.Update(msg)
	return false
}

func (t *TextScroll) View(th styles.Theme, width, height int) string {
	if !t.open {
		return ""
	}
	footer := th.MutedStyle().Render("↑/↓ scroll · esc close")
	return Frame(th, width, height, t.Title, t.vp.View()+"\n"+footer)
}
