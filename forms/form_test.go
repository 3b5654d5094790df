package forms

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"gm-tui/styles"
)

func sampleForm() *Form {
	return New(
		NewHeading("Transfer"),
		NewStaticText("Send funds to another address."),
		NewFilterSelect("asset", "Asset", "press enter to pick"),
		NewInputBox("to", "To address", "0x...", ""),
		NewInputBox("amount", "Amount", "0.0", "ETH"),
		NewBooleanInput("max", "Send max", false),
		NewErrorText(""),
		NewButton("submit", "Transfer"),
	)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCursorStartsOnFirstFocusable(t *testing.T) {
	f := sampleForm()
	if f.Cursor != 2 {
		t.Errorf("cursor = %d, want 2 (the asset select)", f.Cursor)
	}
}

func TestCursorAlwaysFocusable(t *testing.T) {
	f := sampleForm()
	keys := []string{"tab", "tab", "up", "down", "enter", "shift+tab", "tab", "tab", "tab", "up"}
	for _, k := range keys {
		f.HandleKey(key(k), nil, nil)
		if !f.focusable(f.Cursor) {
			t.Fatalf("after %q cursor rests on non-focusable item %d", k, f.Cursor)
		}
	}
}

func TestTabWrapsAround(t *testing.T) {
	f := sampleForm()
	start := f.Cursor

	focusables := 0
	for i := range f.Items {
		if f.focusable(i) {
			focusables++
		}
	}
	for i := 0; i < focusables; i++ {
		f.HandleKey(key("tab"), nil, nil)
	}
	if f.Cursor != start {
		t.Errorf("after %d tabs cursor = %d, want %d", focusables, f.Cursor, start)
	}
}

func TestHiddenItemsAreSkipped(t *testing.T) {
	f := sampleForm()
	f.SetHidden(3, true)

	f.Cursor = 2
	f.normalize()
	f.HandleKey(key("tab"), nil, nil)
	if f.Cursor != 4 {
		t.Errorf("tab over hidden item landed on %d, want 4", f.Cursor)
	}

	f.SetHidden(4, true)
	f.SetHidden(5, true)
	f.SetHidden(7, true)
	f.HandleKey(key("tab"), nil, nil)
	if f.Cursor != 2 {
		t.Errorf("with only the select visible cursor = %d, want 2", f.Cursor)
	}
}

func TestCursorMovesOffHiddenItem(t *testing.T) {
	f := sampleForm()
	f.Cursor = 3
	f.normalize()
	f.SetHidden(3, true)
	if f.Cursor == 3 || !f.focusable(f.Cursor) {
		t.Errorf("cursor = %d still on the hidden item", f.Cursor)
	}
}

func TestTypingEditsAndFiresOnChange(t *testing.T) {
	f := sampleForm()
	f.Cursor = 3
	f.normalize()

	var changed []string
	onChange := func(id string) { changed = append(changed, id) }
	for _, r := range "0xAB" {
		f.HandleKey(key(string(r)), onChange, nil)
	}
	if got := f.GetText("to"); got != "0xAB" {
		t.Errorf("to = %q", got)
	}
	if len(changed) != 4 {
		t.Errorf("onChange fired %d times, want 4", len(changed))
	}

	f.HandleKey(key("backspace"), onChange, nil)
	if got := f.GetText("to"); got != "0xA" {
		t.Errorf("after backspace to = %q", got)
	}
}

func TestEnterOnButtonActivates(t *testing.T) {
	f := sampleForm()
	f.Cursor = 7
	f.normalize()

	var pressed string
	f.HandleKey(key("enter"), nil, func(id string) { pressed = id })
	if pressed != "submit" {
		t.Errorf("activated %q, want submit", pressed)
	}
}

func TestEnterOnInputAdvances(t *testing.T) {
	f := sampleForm()
	f.Cursor = 3
	f.normalize()
	f.HandleKey(key("enter"), nil, nil)
	if f.Cursor != 4 {
		t.Errorf("cursor = %d, want 4", f.Cursor)
	}
}

func TestPrintableOpensFilterSelect(t *testing.T) {
	f := sampleForm()
	f.Cursor = 2
	f.normalize()

	var opened string
	f.HandleKey(key("u"), nil, func(id string) { opened = id })
	if opened != "asset" {
		t.Errorf("printable key on select opened %q, want asset", opened)
	}

	opened = ""
	f.HandleKey(key("enter"), nil, func(id string) { opened = id })
	if opened != "asset" {
		t.Errorf("enter on select opened %q, want asset", opened)
	}
}

func TestBooleanToggles(t *testing.T) {
	f := sampleForm()
	f.Cursor = 5
	f.normalize()

	for i, k := range []string{"x", "left", "right", "backspace"} {
		before := f.GetBool("max")
		f.HandleKey(key(k), nil, nil)
		if f.GetBool("max") == before {
			t.Errorf("key %d (%q) did not toggle", i, k)
		}
	}
}

func TestRenderHeightMatchesVirtualHeight(t *testing.T) {
	th := styles.Monochrome()
	for _, width := range []int{20, 40, 80} {
		f := sampleForm()
		f.SetHidden(6, true)
		virtual := f.VirtualHeight(width, th)
		rendered := f.View(width, virtual+10, th)
		if got := len(strings.Split(rendered, "\n")); got != virtual {
			t.Errorf("width %d: rendered %d lines, virtual height %d", width, got, virtual)
		}
	}
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	th := styles.Monochrome()
	items := []Item{NewHeading("Long form")}
	for i := 0; i < 20; i++ {
		items = append(items, NewInputBox("f"+string(rune('a'+i)), "Field", "", ""))
	}
	f := New(items...)

	const height = 10
	for i := 0; i < 19; i++ {
		f.HandleKey(key("tab"), nil, nil)
		f.View(40, height, th)

		top := 0
		for j := 0; j < f.Cursor; j++ {
			if f.visible(j) {
				top += f.Items[j].Height(38, th.Boxed)
			}
		}
		bottom := top + f.Items[f.Cursor].Height(38, th.Boxed)
		if top < f.offset || bottom > f.offset+height {
			t.Fatalf("tab %d: cursor rows [%d,%d) outside window [%d,%d)", i, top, bottom, f.offset, f.offset+height)
		}
	}
}

func TestAllEmptyRendersHints(t *testing.T) {
	th := styles.Monochrome()
	f := sampleForm()
	f.SetText("to", "0xdeadbeef")
	f.AllEmpty = true
	out := f.View(60, 40, th)
	if strings.Contains(out, "0xdeadbeef") {
		t.Error("AllEmpty view must not show values")
	}
}
