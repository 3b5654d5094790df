// Package networks lists the configured EVM networks and edits them with
// an inline form. Edits are merged over the shipped defaults, so clearing
// a field falls back to the default value.
package networks

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"gm-tui/app"
	"gm-tui/config"
	"gm-tui/helpers"
)

type mode int

const (
	modeList mode = iota
	modeEdit
)

type Networks struct {
	mode   mode
	cursor int

	form    *huh.Form
	editing config.Network
	isNew   bool

	name     string
	chainID  string
	rpcURL   string
	explorer string
	symbol   string
	testnet  bool

	errText string
}

func New(ss *app.SharedState) *Networks {
	return &Networks{}
}

func (n *Networks) Title() string { return "Networks" }

func (n *Networks) openEditor(network config.Network, isNew bool) {
	n.editing = network
	n.isNew = isNew
	n.name = network.Name
	n.chainID = ""
	if network.ChainID != 0 {
		n.chainID = strconv.FormatUint(network.ChainID, 10)
	}
	n.rpcURL = network.RPCURL
	n.explorer = network.ExplorerURL
	n.symbol = network.Symbol
	n.testnet = network.Testnet
	n.errText = ""

	nameField := huh.NewInput().
		Title("Name").
		Value(&n.name).
		Placeholder("my-network")
	chainField := huh.NewInput().
		Title("Chain ID").
		Value(&n.chainID).
		Placeholder("1")
	if !isNew {
		// Name and chain id identify the entry; only new networks set them.
		nameField = nameField.Description("Identifies this network; not editable")
		chainField = chainField.Description("Not editable")
	}

	n.form = huh.NewForm(
		huh.NewGroup(
			nameField,
			chainField,
			huh.NewInput().
				Title("RPC URL").
				Description("Leave empty to use Alchemy with your API key").
				Value(&n.rpcURL).
				Placeholder("https://..."),
			huh.NewInput().
				Title("Explorer URL").
				Description("Template with {} standing for the tx hash").
				Value(&n.explorer).
				Placeholder("https://etherscan.io/tx/{}"),
			huh.NewInput().
				Title("Currency symbol").
				Value(&n.symbol).
				Placeholder("ETH"),
			huh.NewConfirm().
				Title("Testnet").
				Value(&n.testnet),
		),
	).WithTheme(huh.ThemeCatppuccin())
	n.form.Init()
	n.mode = modeEdit
}

func (n *Networks) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	if n.mode == modeEdit {
		actions.IgnoreEsc = true
		form, cmd := n.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			n.form = f
		}
		switch n.form.State {
		case huh.StateCompleted:
			if err := n.save(ss); err != nil {
				n.errText = err.Error()
				n.mode = modeList
				return actions, nil
			}
			n.mode = modeList
			actions.Reload = true
		case huh.StateAborted:
			n.mode = modeList
		}
		return actions, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return actions, nil
	}

	all := ss.Networks.Networks
	switch key.String() {
	case "up", "k":
		n.cursor--
	case "down", "j":
		n.cursor++
	case "enter", "e":
		if len(all) > 0 {
			n.cursor = helpers.Clamp(n.cursor, 0, len(all)-1)
			n.openEditor(all[n.cursor], false)
		}
	case "n":
		n.openEditor(config.Network{}, true)
	}
	n.cursor = helpers.Clamp(n.cursor, 0, helpers.Max(len(all)-1, 0))
	return actions, nil
}

func (n *Networks) save(ss *app.SharedState) error {
	updated := n.editing
	if n.isNew {
		updated.Name = strings.TrimSpace(n.name)
		if updated.Name == "" {
			return fmt.Errorf("network name is required")
		}
		id, err := strconv.ParseUint(strings.TrimSpace(n.chainID), 10, 64)
		if err != nil {
			return fmt.Errorf("chain id: %w", err)
		}
		updated.ChainID = id
	}
	updated.RPCURL = strings.TrimSpace(n.rpcURL)
	updated.ExplorerURL = strings.TrimSpace(n.explorer)
	updated.Symbol = strings.TrimSpace(n.symbol)
	updated.Testnet = n.testnet

	ss.Networks.Upsert(updated)
	return ss.Networks.Save()
}

func (n *Networks) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	var b strings.Builder
	b.WriteString(th.TitleStyle().Render("Networks"))
	b.WriteString("\n\n")

	if n.mode == modeEdit {
		b.WriteString(n.form.View())
		return b.String()
	}

	if n.errText != "" {
		b.WriteString(th.ErrorStyle().Render(n.errText))
		b.WriteString("\n\n")
	}

	for i, network := range ss.Networks.Networks {
		label := network.String()
		if network.Testnet {
			label += "  " + th.WarnStyle().Render("testnet")
		}
		if i == n.cursor {
			b.WriteString(th.AccentStyle().Render("▶ " + label))
		} else {
			b.WriteString(th.TextStyle().Render("  " + label))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n" + th.MutedStyle().Render(
		th.Key("Enter")+" edit   "+th.Key("n")+" new   "+th.Key("Esc")+" back"))
	return b.String()
}

func (n *Networks) Reload(ss *app.SharedState) {}

func (n *Networks) Shutdown() {}
