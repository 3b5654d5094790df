// Package setup is the first-run flow: create a fresh account or import a
// private key, protected by a passphrase. It is also pushed from the
// accounts screen to add more accounts.
package setup

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/ethereum/go-ethereum/common"

	"gm-tui/app"
	"gm-tui/config"
	"gm-tui/keystore"
)

const (
	choiceCreate = "create"
	choiceImport = "import"
)

type Setup struct {
	form *huh.Form

	choice     string
	privHex    string
	passphrase string
	confirm    string

	created common.Address
	done    bool
	errText string
}

func New(ss *app.SharedState) *Setup {
	s := &Setup{choice: choiceCreate}
	s.buildForm()
	return s
}

func (s *Setup) Title() string { return "Setup" }

func (s *Setup) buildForm() {
	s.privHex = ""
	s.passphrase = ""
	s.confirm = ""
	s.errText = ""
	s.done = false

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(
					huh.NewOption("Create a new account", choiceCreate),
					huh.NewOption("Import a private key", choiceImport),
				).
				Value(&s.choice),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Private key").
				Description("Hex encoded, with or without 0x").
				Value(&s.privHex).
				EchoMode(huh.EchoModePassword),
		).WithHideFunc(func() bool { return s.choice != choiceImport }),
		huh.NewGroup(
			huh.NewInput().
				Title("Passphrase").
				Description("Encrypts the key on disk; asked for on every signature").
				Value(&s.passphrase).
				EchoMode(huh.EchoModePassword),
			huh.NewInput().
				Title("Confirm passphrase").
				Value(&s.confirm).
				EchoMode(huh.EchoModePassword),
		),
	).WithTheme(huh.ThemeCatppuccin())
	s.form.Init()
}

func (s *Setup) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	if s.form.State == huh.StateNormal {
		actions.IgnoreEsc = true
		form, cmd := s.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			s.form = f
		}
		switch s.form.State {
		case huh.StateCompleted:
			if err := s.finish(); err != nil {
				s.errText = err.Error()
				return actions, cmd
			}
			s.done = true
			actions.Reload = true
		case huh.StateAborted:
			actions.PopCount = 1
		}
		return actions, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "esc":
			if s.done {
				actions.PopCount = 1
				actions.IgnoreEsc = true
			} else {
				s.buildForm()
				actions.IgnoreEsc = true
			}
		}
	}
	return actions, nil
}

func (s *Setup) finish() error {
	if strings.TrimSpace(s.passphrase) == "" {
		return fmt.Errorf("a passphrase is required")
	}
	if s.passphrase != s.confirm {
		return fmt.Errorf("passphrases do not match")
	}

	var (
		addr common.Address
		err  error
	)
	if s.choice == choiceImport {
		addr, err = keystore.ImportHex(strings.TrimSpace(s.privHex), s.passphrase)
	} else {
		addr, err = keystore.Generate(s.passphrase)
	}
	if err != nil {
		return err
	}
	if err := config.SetAccount(addr); err != nil {
		return err
	}
	s.created = addr
	return nil
}

func (s *Setup) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	var b strings.Builder
	b.WriteString(th.TitleStyle().Render("Account setup"))
	b.WriteString("\n\n")

	switch {
	case s.done:
		b.WriteString(th.AccentStyle().Render("Account ready."))
		b.WriteString("\n\n" + th.TextStyle().Render(s.created.Hex()))
		b.WriteString("\n\n" + th.MutedStyle().Render(th.Key("Enter")+" continue"))
	case s.errText != "":
		b.WriteString(th.ErrorStyle().Render(s.errText))
		b.WriteString("\n\n" + th.MutedStyle().Render(th.Key("Enter")+" start over"))
	default:
		b.WriteString(s.form.View())
	}
	return b.String()
}

func (s *Setup) Reload(ss *app.SharedState) {}

func (s *Setup) Shutdown() {}
