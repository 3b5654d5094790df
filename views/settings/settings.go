// Package settings edits the persisted application configuration.
package settings

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"gm-tui/app"
	"gm-tui/config"
	"gm-tui/styles"
)

type Settings struct {
	form *huh.Form

	theme     string
	testnet   bool
	developer bool
	logger    bool
	alchemy   string
	coingecko string

	saved   bool
	errText string
}

func New(ss *app.SharedState) *Settings {
	s := &Settings{}
	s.load(ss)
	s.buildForm()
	return s
}

func (s *Settings) Title() string { return "Settings" }

func (s *Settings) load(ss *app.SharedState) {
	s.theme = ss.Theme.Name
	s.testnet = ss.Config.TestnetMode
	s.developer = ss.Config.DeveloperMode
	s.logger = ss.Config.Logger
	s.alchemy = ss.Config.APIKey(config.APIKeyAlchemy)
	s.coingecko = ss.Config.APIKey(config.APIKeyCoinGecko)
}

func (s *Settings) buildForm() {
	themeOptions := make([]huh.Option[string], 0, len(styles.ThemeNames))
	for _, name := range styles.ThemeNames {
		themeOptions = append(themeOptions, huh.NewOption(name, name))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Options(themeOptions...).
				Value(&s.theme),

			huh.NewConfirm().
				Title("Testnet mode").
				Description("Show testnet networks and assets").
				Value(&s.testnet),

			huh.NewConfirm().
				Title("Developer mode").
				Description("Enable extra menu entries").
				Value(&s.developer),

			huh.NewConfirm().
				Title("Logger panel").
				Description("Show the log panel at the bottom").
				Value(&s.logger),

			huh.NewInput().
				Title("Alchemy API key").
				Description("Used for RPC, token balances and activity").
				Value(&s.alchemy).
				Placeholder("optional"),

			huh.NewInput().
				Title("CoinGecko API key").
				Description("Raises the price API rate limit").
				Value(&s.coingecko).
				Placeholder("optional"),
		),
	).WithTheme(huh.ThemeCatppuccin())
	s.form.Init()
	s.saved = false
	s.errText = ""
}

func (s *Settings) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	if s.form.State == huh.StateNormal {
		form, cmd := s.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			s.form = f
		}
		actions.IgnoreEsc = true
		if s.form.State == huh.StateCompleted {
			if err := s.persist(ss); err != nil {
				s.errText = err.Error()
			} else {
				s.saved = true
				actions.Reload = true
			}
		}
		if s.form.State == huh.StateAborted {
			actions.PopCount = 1
		}
		return actions, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "esc":
			actions.PopCount = 1
			actions.IgnoreEsc = true
		case "e":
			s.load(ss)
			s.buildForm()
		}
	}
	return actions, nil
}

func (s *Settings) persist(ss *app.SharedState) error {
	cfg := *ss.Config
	cfg.Theme = s.theme
	cfg.TestnetMode = s.testnet
	cfg.DeveloperMode = s.developer
	cfg.Logger = s.logger
	keys := make(map[string]string, len(ss.Config.APIKeys))
	for k, v := range ss.Config.APIKeys {
		keys[k] = v
	}
	cfg.APIKeys = keys
	setKey(cfg.APIKeys, config.APIKeyAlchemy, s.alchemy)
	setKey(cfg.APIKeys, config.APIKeyCoinGecko, s.coingecko)
	return cfg.Save()
}

func setKey(keys map[string]string, name, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(keys, name)
		return
	}
	keys[name] = value
}

func (s *Settings) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	var b strings.Builder
	b.WriteString(th.TitleStyle().Render("Settings"))
	b.WriteString("\n\n")

	switch {
	case s.errText != "":
		b.WriteString(th.ErrorStyle().Render(s.errText))
		b.WriteString("\n\n" + th.MutedStyle().Render(th.Key("e")+" edit again   "+th.Key("Esc")+" back"))
	case s.saved:
		b.WriteString(th.AccentStyle().Render("Saved."))
		b.WriteString("\n\n" + th.MutedStyle().Render(th.Key("e")+" edit again   "+th.Key("Esc")+" back"))
	default:
		b.WriteString(s.form.View())
	}
	return b.String()
}

func (s *Settings) Reload(ss *app.SharedState) {}

func (s *Settings) Shutdown() {}
