package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gm-tui/helpers"
	"gm-tui/popups"
)

const logPanelHeight = 8

func (m *model) View() string {
	if m.w == 0 || m.h == 0 {
		return ""
	}
	th := m.ss.Theme

	header := m.headerView()
	footer := m.footerView()

	bodyHeight := m.h - lipgloss.Height(header) - lipgloss.Height(footer)
	logPanel := ""
	if m.ss.Config.Logger {
		logPanel = m.logPanelView()
		bodyHeight -= lipgloss.Height(logPanel)
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	body := ""
	if top := m.top(); top != nil {
		body = top.View(m.ss, m.w, bodyHeight)
	}
	body = lipgloss.NewStyle().Width(m.w).Height(bodyHeight).Render(body)

	parts := []string{header, body}
	if logPanel != "" {
		parts = append(parts, logPanel)
	}
	parts = append(parts, footer)
	out := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.fatal.IsOpen() {
		return popups.Overlay(out, m.fatal.View(th, m.w, m.h))
	}
	return out
}

// headerView is the breadcrumb of stacked screen titles plus session
// indicators.
func (m *model) headerView() string {
	th := m.ss.Theme

	titles := make([]string, 0, len(m.stack))
	for _, s := range m.stack {
		titles = append(titles, s.Title())
	}
	left := th.TitleStyle().Render(strings.Join(titles, " › "))

	var right []string
	if m.ss.HasAccount {
		right = append(right, th.MutedStyle().Render(helpers.ShortenAddr(m.ss.Account.Hex())))
	}
	if m.ss.Testnet {
		right = append(right, th.WarnStyle().Render("testnet"))
	}
	if !m.ss.Online {
		right = append(right, th.ErrorStyle().Render("offline"))
	}
	rightStr := strings.Join(right, "  ")

	gap := m.w - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + rightStr + "\n"
}

func (m *model) footerView() string {
	th := m.ss.Theme
	return "\n" + m.chromeStyle().Render(strings.Join([]string{
		th.Key("Esc") + " back",
		th.Key("Ctrl-C") + " quit",
	}, "   "))
}

// logPanelView shows the tail of the in-memory log buffer.
func (m *model) logPanelView() string {
	lines := strings.Split(strings.TrimRight(m.logBuffer.String(), "\n"), "\n")
	if len(lines) > logPanelHeight {
		lines = lines[len(lines)-logPanelHeight:]
	}
	m.logViewport.Height = logPanelHeight
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	m.logViewport.GotoBottom()
	return lipgloss.NewStyle().
		Width(m.w).
		Foreground(m.ss.Theme.Muted).
		Render(m.logViewport.View())
}
