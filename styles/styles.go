package styles

import "github.com/charmbracelet/lipgloss"

// Theme is the resolved color set plus rendering flags. Boxed controls
// whether inputs render with borders or a leading prompt character.
type Theme struct {
	Name    string
	Boxed   bool
	Bg      lipgloss.Color
	Panel   lipgloss.Color
	Border  lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Accent  lipgloss.Color
	Accent2 lipgloss.Color
	Warn    lipgloss.Color
	Error   lipgloss.Color
}

// ThemeNames lists the selectable themes in display order.
var ThemeNames = []string{"Dark", "Monochrome"}

// ByName resolves a theme by name, defaulting to Dark.
func ByName(name string) Theme {
	if name == "Monochrome" {
		return Monochrome()
	}
	return Dark()
}

// Dark is the default theme.
func Dark() Theme {
	return Theme{
		Name:    "Dark",
		Boxed:   true,
		Bg:      lipgloss.Color("#0B0F14"),
		Panel:   lipgloss.Color("#0F1720"),
		Border:  lipgloss.Color("#874BFD"),
		Muted:   lipgloss.Color("#8AA0B6"),
		Text:    lipgloss.Color("#D6E2F0"),
		Accent:  lipgloss.Color("#7EE787"),
		Accent2: lipgloss.Color("#79C0FF"),
		Warn:    lipgloss.Color("#FFA657"),
		Error:   lipgloss.Color("#FF7B72"),
	}
}

// Monochrome renders without borders on inputs, prompt-prefixed.
func Monochrome() Theme {
	return Theme{
		Name:    "Monochrome",
		Boxed:   false,
		Bg:      lipgloss.Color("0"),
		Panel:   lipgloss.Color("0"),
		Border:  lipgloss.Color("7"),
		Muted:   lipgloss.Color("8"),
		Text:    lipgloss.Color("15"),
		Accent:  lipgloss.Color("10"),
		Accent2: lipgloss.Color("12"),
		Warn:    lipgloss.Color("11"),
		Error:   lipgloss.Color("9"),
	}
}

// Shared style builders.

func (t Theme) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent2).Bold(true)
}

func (t Theme) PanelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(1, 2)
}

func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Muted)
}

func (t Theme) TextStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Text)
}

func (t Theme) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent)
}

func (t Theme) WarnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warn)
}

func (t Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error)
}

// Key renders a hotkey with accent styling.
func (t Theme) Key(s string) string {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(s)
}

// ButtonStyle renders a popup/form button; focused buttons invert.
func (t Theme) ButtonStyle(focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 3)
	if focused {
		return s.Foreground(t.Bg).Background(t.Accent).Bold(true)
	}
	return s.Foreground(t.Text).Background(t.Panel)
}
