package forms

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gm-tui/helpers"
	"gm-tui/styles"
)

// Form is an ordered list of items with one logical cursor. The cursor
// only ever rests on a focusable, visible item. Hidden items are skipped
// by navigation and rendering alike.
type Form struct {
	Items   []Item
	Cursor  int
	Focused bool

	// AllEmpty renders every value blank; used for preview frames before
	// the form's data has loaded.
	AllEmpty bool

	hidden map[int]bool
	offset int
}

// New builds a form and rests the cursor on the first focusable item.
func New(items ...Item) *Form {
	f := &Form{Items: items, Focused: true, hidden: make(map[int]bool)}
	f.normalize()
	return f
}

func (f *Form) visible(i int) bool   { return !f.hidden[i] }
func (f *Form) focusable(i int) bool { return f.visible(i) && f.Items[i].Focusable() }

// SetHidden toggles an item's visibility and moves the cursor off it if
// needed.
func (f *Form) SetHidden(i int, hidden bool) {
	if hidden {
		f.hidden[i] = true
	} else {
		delete(f.hidden, i)
	}
	f.normalize()
}

// normalize restores the cursor invariant after any structural change.
func (f *Form) normalize() {
	if f.Cursor < len(f.Items) && f.focusable(f.Cursor) {
		f.syncFocus()
		return
	}
	for i := range f.Items {
		if f.focusable(i) {
			f.Cursor = i
			f.syncFocus()
			return
		}
	}
	f.Cursor = 0
}

// Advance moves to the next focusable visible item, wrapping around.
func (f *Form) Advance() {
	f.step(1)
}

// Retreat moves to the previous focusable visible item, wrapping around.
func (f *Form) Retreat() {
	f.step(-1)
}

func (f *Form) step(dir int) {
	n := len(f.Items)
	if n == 0 {
		return
	}
	for offset := 1; offset <= n; offset++ {
		i := ((f.Cursor+dir*offset)%n + n) % n
		if f.focusable(i) {
			f.Cursor = i
			f.syncFocus()
			return
		}
	}
}

// syncFocus keeps the embedded text inputs aligned with the cursor and
// resets the text cursor to the end of the newly focused input.
func (f *Form) syncFocus() {
	for i := range f.Items {
		it := &f.Items[i]
		if it.Kind != InputBox {
			continue
		}
		if i == f.Cursor && f.Focused {
			it.Input.Focus()
			it.Input.CursorEnd()
		} else {
			it.Input.Blur()
		}
	}
}

// Focus gives the form keyboard focus; Blur takes it away while a popup
// owns input.
func (f *Form) Focus() { f.Focused = true; f.syncFocus() }
func (f *Form) Blur()  { f.Focused = false; f.syncFocus() }

func (f *Form) index(id string) int {
	for i := range f.Items {
		if f.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// GetText returns the current value of the identified item.
func (f *Form) GetText(id string) string {
	if i := f.index(id); i >= 0 {
		return f.Items[i].Value()
	}
	return ""
}

// SetText writes a value into the identified item, e.g. from a picker.
func (f *Form) SetText(id, text string) {
	i := f.index(id)
	if i < 0 {
		return
	}
	switch f.Items[i].Kind {
	case InputBox:
		f.Items[i].Input.SetValue(text)
		f.Items[i].Input.CursorEnd()
	default:
		f.Items[i].Text = text
	}
}

// GetBool returns a boolean item's value.
func (f *Form) GetBool(id string) bool {
	if i := f.index(id); i >= 0 {
		return f.Items[i].Bool
	}
	return false
}

// SetError replaces the text of the identified error item, "" clears it.
func (f *Form) SetError(id, text string) {
	if i := f.index(id); i >= 0 {
		f.Items[i].Text = text
		f.SetHidden(i, text == "")
	}
}

// FocusedID is the identifier under the cursor, or "".
func (f *Form) FocusedID() string {
	if f.Cursor < len(f.Items) && f.focusable(f.Cursor) {
		return f.Items[f.Cursor].ID
	}
	return ""
}

// HandleKey processes one key press. onChange fires when the focused
// item's value differs after the event; onActivate fires with the item's
// id when a button is pressed or a picker-bound item wants its popup.
// The returned command carries any cursor blink scheduling.
func (f *Form) HandleKey(msg tea.KeyMsg, onChange func(id string), onActivate func(id string)) tea.Cmd {
	if !f.Focused || len(f.Items) == 0 {
		return nil
	}
	f.normalize()
	if !f.focusable(f.Cursor) {
		return nil
	}
	it := &f.Items[f.Cursor]
	before := it.Value()
	var cmd tea.Cmd

	switch msg.String() {
	case "tab", "down":
		f.Advance()
	case "shift+tab", "up":
		f.Retreat()
	case "enter":
		switch it.Kind {
		case Button:
			if onActivate != nil {
				onActivate(it.ID)
			}
		case FilterSelect, DisplayBox:
			if onActivate != nil {
				onActivate(it.ID)
			}
		default:
			f.Advance()
		}
	default:
		switch it.Kind {
		case InputBox:
			if msg.String() == " " && it.Picker && it.Input.Value() == "" {
				if onActivate != nil {
					onActivate(it.ID)
				}
				break
			}
			it.Input, cmd = it.Input.Update(msg)
		case BooleanInput:
			switch msg.String() {
			case "left", "right", "backspace":
				it.Bool = !it.Bool
			default:
				if isPrintableKey(msg.String()) {
					it.Bool = !it.Bool
				}
			}
		case FilterSelect, DisplayBox:
			if msg.String() == "backspace" || isPrintableKey(msg.String()) {
				if onActivate != nil {
					onActivate(it.ID)
				}
			}
		}
	}

	if onChange != nil && f.focusable(f.Cursor) {
		// the cursor may have moved; compare the item the event hit
		if after := it.Value(); after != before {
			onChange(it.ID)
		}
	}
	return cmd
}

// VirtualHeight sums the wrap-aware heights of every visible item.
func (f *Form) VirtualHeight(width int, th styles.Theme) int {
	total := 0
	for i := range f.Items {
		if !f.visible(i) {
			continue
		}
		total += f.Items[i].Height(width, th.Boxed)
	}
	return total
}

// View renders the visible window of the form. When the virtual height
// exceeds the viewport, the window is translated so the focused item stays
// fully visible, with a one-row margin off the edges when there is room,
// and a scrollbar is drawn along the right edge.
func (f *Form) View(width, height int, th styles.Theme) string {
	if width <= 0 || height <= 0 || len(f.Items) == 0 {
		return ""
	}

	contentWidth := width
	virtual := f.VirtualHeight(width, th)
	scrolling := virtual > height
	if scrolling {
		contentWidth = width - 2
		virtual = f.VirtualHeight(contentWidth, th)
		scrolling = virtual > height
	}

	var rows []string
	cursorTop, cursorBottom := 0, 0
	y := 0
	for i := range f.Items {
		if !f.visible(i) {
			continue
		}
		it := &f.Items[i]
		h := it.Height(contentWidth, th.Boxed)
		if i == f.Cursor {
			cursorTop, cursorBottom = y, y+h
		}
		block := it.render(th, contentWidth, f.Focused && i == f.Cursor, f.AllEmpty)
		rows = append(rows, padBlock(block, h, contentWidth))
		y += h
	}
	buffer := strings.Split(strings.Join(rows, "\n"), "\n")

	if !scrolling {
		return strings.Join(buffer, "\n")
	}

	f.scrollIntoView(cursorTop, cursorBottom, height, len(buffer))
	window := buffer[f.offset:helpers.Min(f.offset+height, len(buffer))]
	bar := scrollbar(height, f.offset, len(buffer), th)
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(window, "\n"), " "+bar)
}

func (f *Form) scrollIntoView(top, bottom, height, virtual int) {
	f.offset = helpers.Clamp(f.offset, 0, helpers.Max(virtual-height, 0))
	// prefer one row of margin off each edge when there is room
	if top-1 < f.offset {
		f.offset = helpers.Max(top-1, 0)
	}
	if bottom+1 > f.offset+height {
		f.offset = helpers.Min(bottom+1-height, helpers.Max(virtual-height, 0))
	}
}

// padBlock forces a rendered block to exactly h lines so that measured
// heights and rendered heights agree.
func padBlock(block string, h, width int) string {
	lines := strings.Split(block, "\n")
	for len(lines) < h {
		lines = append(lines, "")
	}
	if len(lines) > h {
		lines = lines[:h]
	}
	return strings.Join(lines, "\n")
}

func scrollbar(height, offset, virtual int, th styles.Theme) string {
	if virtual <= height {
		return ""
	}
	thumb := helpers.Max(height*height/virtual, 1)
	pos := 0
	if virtual > height {
		pos = offset * (height - thumb) / (virtual - height)
	}
	var b strings.Builder
	for i := 0; i < height; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i >= pos && i < pos+thumb {
			b.WriteString(th.AccentStyle().Render("█"))
		} else {
			b.WriteString(th.MutedStyle().Render("│"))
		}
	}
	return b.String()
}
