// Package portfolio lists the current account's assets across networks
// with prices and balance verification badges.
package portfolio

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gm-tui/app"
	"gm-tui/assets"
	"gm-tui/events"
	"gm-tui/helpers"
)

type Portfolio struct {
	cursor    int
	loadedAt  time.Time
	refreshed bool
}

func New() *Portfolio { return &Portfolio{loadedAt: time.Now()} }

func (p *Portfolio) Title() string { return "Portfolio" }

func (p *Portfolio) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions
	switch m := msg.(type) {
	case events.AssetsUpdated, events.VerificationUpdated, events.PricesUpdated:
		p.loadedAt = time.Now()
		p.refreshed = false
	case tea.KeyMsg:
		list := ss.Assets.Get(ss.Account)
		switch m.String() {
		case "up", "k":
			p.cursor--
		case "down", "j":
			p.cursor++
		case "r":
			p.refreshed = true
			actions.RefreshAssets = true
		}
		p.cursor = helpers.Clamp(p.cursor, 0, helpers.Max(len(list)-1, 0))
	}
	return actions, nil
}

func badge(ss *app.SharedState, v assets.Verification) string {
	th := ss.Theme
	switch v {
	case assets.VerificationVerified:
		return th.AccentStyle().Render("✓")
	case assets.VerificationRejected:
		return th.ErrorStyle().Render("✗")
	}
	return th.MutedStyle().Render("…")
}

func (p *Portfolio) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	var b strings.Builder
	b.WriteString(th.TitleStyle().Render("Portfolio"))
	b.WriteString("  " + th.MutedStyle().Render(helpers.ShortenAddr(ss.Account.Hex())))
	if !ss.Online {
		b.WriteString("  " + th.WarnStyle().Render("offline"))
	}
	b.WriteString("\n\n")

	list := ss.Assets.Get(ss.Account)
	if len(list) == 0 {
		b.WriteString(th.MutedStyle().Render("No assets yet. They appear after the first refresh."))
		return b.String()
	}

	p.cursor = helpers.Clamp(p.cursor, 0, len(list)-1)
	var total float64
	for i, a := range list {
		marker := "  "
		style := th.TextStyle()
		if i == p.cursor {
			marker = th.AccentStyle().Render("▶ ")
			style = style.Bold(true)
		}

		line := fmt.Sprintf("%-8s %-14s %16s", a.Symbol, a.NetworkName, a.FormattedBalance())
		value := ""
		if usd, ok := a.Price.USDValue(a.FloatBalance()); ok {
			total += usd
			value = "  " + th.MutedStyle().Render(helpers.FormatUSD(usd))
		} else if a.Price.Kind == assets.PricePending {
			value = "  " + th.MutedStyle().Render("…")
		}
		b.WriteString(marker + badge(ss, a.Verification) + " " + style.Render(line) + value + "\n")
	}

	b.WriteString("\n" + th.TextStyle().Render("total ") + th.AccentStyle().Render(helpers.FormatUSD(total)))
	b.WriteString("\n" + th.MutedStyle().Render(helpers.LoadedAt(p.loadedAt, p.refreshed)))
	b.WriteString("\n\n" + lipgloss.NewStyle().Foreground(th.Muted).Render(
		th.Key("r")+" refresh   "+th.Key("Esc")+" back"))
	return b.String()
}

func (p *Portfolio) Reload(ss *app.SharedState) { p.cursor = 0 }
func (p *Portfolio) Shutdown()                  {}
