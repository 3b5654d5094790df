package forms

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"gm-tui/helpers"
	"gm-tui/styles"
)

// Kind tags the variant of a form item. New widget kinds are added here.
type Kind int

const (
	Heading Kind = iota
	StaticText
	DisplayText
	ErrorText
	InputBox
	DisplayBox
	BooleanInput
	FilterSelect
	Button
)

// Item is one row of a form. Headings and texts are decoration; the rest
// take focus. DisplayBox and FilterSelect hold values the parent screen
// writes from a picker popup.
type Item struct {
	Kind      Kind
	ID        string
	Label     string
	Text      string
	EmptyHint string
	Currency  string
	Bool      bool
	Picker    bool

	Input textinput.Model
}

func NewHeading(text string) Item     { return Item{Kind: Heading, Text: text} }
func NewStaticText(text string) Item  { return Item{Kind: StaticText, Text: text} }
func NewDisplayText(text string) Item { return Item{Kind: DisplayText, Text: text} }
func NewErrorText(text string) Item   { return Item{Kind: ErrorText, Text: text} }

func NewInputBox(id, label, emptyHint, currency string) Item {
	ti := textinput.New()
	ti.Placeholder = emptyHint
	ti.Prompt = ""
	return Item{Kind: InputBox, ID: id, Label: label, EmptyHint: emptyHint, Currency: currency, Input: ti}
}

func NewDisplayBox(id, label, emptyHint string) Item {
	return Item{Kind: DisplayBox, ID: id, Label: label, EmptyHint: emptyHint, Picker: true}
}

func NewBooleanInput(id, label string, value bool) Item {
	return Item{Kind: BooleanInput, ID: id, Label: label, Bool: value}
}

func NewFilterSelect(id, label, emptyHint string) Item {
	return Item{Kind: FilterSelect, ID: id, Label: label, EmptyHint: emptyHint, Picker: true}
}

func NewButton(id, label string) Item { return Item{Kind: Button, ID: id, Label: label} }

// WithID tags a decorative item so the parent can rewrite it later.
func (it Item) WithID(id string) Item {
	it.ID = id
	return it
}

// WithPicker binds an input box to a picker popup: space on the empty box
// activates it.
func (it Item) WithPicker() Item {
	it.Picker = true
	return it
}

// Focusable reports whether the cursor may land on the item.
func (it *Item) Focusable() bool {
	switch it.Kind {
	case InputBox, DisplayBox, BooleanInput, FilterSelect, Button:
		return true
	}
	return false
}

// Value is the serialized content used to detect edits.
func (it *Item) Value() string {
	switch it.Kind {
	case InputBox:
		return it.Input.Value()
	case DisplayBox, FilterSelect:
		return it.Text
	case BooleanInput:
		if it.Bool {
			return "true"
		}
		return "false"
	}
	return ""
}

// Height is the number of rows the item occupies at the given width.
// Boxed items carry a border above and below their content line.
func (it *Item) Height(width int, boxed bool) int {
	switch it.Kind {
	case Heading, StaticText, DisplayText, ErrorText:
		if it.Text == "" {
			return 1
		}
		return helpers.WrapHeight(it.Text, width)
	case InputBox, DisplayBox, FilterSelect:
		if boxed {
			return 4
		}
		return 2
	case BooleanInput:
		return 1
	case Button:
		if boxed {
			return 3
		}
		return 1
	}
	return 1
}

func (it *Item) render(th styles.Theme, width int, focused, allEmpty bool) string {
	switch it.Kind {
	case Heading:
		return th.TitleStyle().Render(it.Text)
	case StaticText:
		return th.TextStyle().Width(width).Render(it.Text)
	case DisplayText:
		return th.MutedStyle().Width(width).Render(it.Text)
	case ErrorText:
		return th.ErrorStyle().Width(width).Render(it.Text)
	case InputBox:
		content := it.Input.View()
		if allEmpty {
			content = th.MutedStyle().Render(it.EmptyHint)
		}
		if it.Currency != "" {
			content += " " + th.MutedStyle().Render(it.Currency)
		}
		return it.renderValueRow(th, width, focused, content)
	case DisplayBox, FilterSelect:
		content := it.Text
		if content == "" || allEmpty {
			content = th.MutedStyle().Render(it.EmptyHint)
		}
		return it.renderValueRow(th, width, focused, content)
	case BooleanInput:
		value := "no"
		if it.Bool {
			value = "yes"
		}
		marker := "  "
		if focused {
			marker = th.AccentStyle().Render("> ")
		}
		return marker + th.TextStyle().Render(it.Label+": ") + th.AccentStyle().Render(value)
	case Button:
		button := th.ButtonStyle(focused).Render(it.Label)
		if th.Boxed {
			return lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(it.borderColor(th, focused)).
				Render(button)
		}
		return button
	}
	return ""
}

// renderValueRow draws label above value, in a border when the theme is
// boxed or behind a prompt character when it is not.
func (it *Item) renderValueRow(th styles.Theme, width int, focused bool, content string) string {
	label := th.MutedStyle().Render(it.Label)
	if th.Boxed {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(it.borderColor(th, focused)).
			Width(helpers.Max(width-2, 1)).
			Render(content)
		return label + "\n" + box
	}
	prompt := "  "
	if focused {
		prompt = th.AccentStyle().Render("> ")
	}
	return label + "\n" + prompt + content
}

func (it *Item) borderColor(th styles.Theme, focused bool) lipgloss.Color {
	if focused {
		return th.Accent
	}
	return th.Border
}

func isPrintableKey(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < ' ' {
			return false
		}
	}
	return !strings.HasPrefix(s, "ctrl+") && !strings.HasPrefix(s, "alt+")
}
