package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"gm-tui/app"
	"gm-tui/events"
)

func (m *model) Init() tea.Cmd {
	m.startPriceWatcher()
	m.startDataWatchers()
	return m.ss.Bus.Wait()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		m.logViewport.Width = m.w
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}
		if m.fatal.IsOpen() {
			m.fatal.HandleKey(msg)
			return m, nil
		}
	}

	var cmds []tea.Cmd
	if fromBus := m.applyEvent(msg); fromBus {
		// One bus delivery resolved; arm the next.
		cmds = append(cmds, m.ss.Bus.Wait())
	}

	top := m.top()
	if top == nil {
		m.shutdown()
		return m, tea.Quit
	}

	actions, cmd := top.Update(msg, m.ss)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" && !actions.IgnoreEsc {
		actions.PopCount++
	}
	if quit := m.applyActions(actions); quit {
		m.shutdown()
		return m, tea.Quit
	}
	return m, tea.Batch(cmds...)
}

// applyEvent folds a bus event into SharedState. It reports whether the
// message came off the bus at all, so the caller knows to re-arm Wait.
func (m *model) applyEvent(msg tea.Msg) bool {
	switch e := msg.(type) {
	case events.PricesUpdated:
		m.setOnline(true)
		if m.ss.HasAccount {
			m.ss.Assets.ApplyPrices(m.ss.Account, m.ss.Prices)
		}
	case events.PricesError:
		m.logger.Warn("price refresh", "err", e.Err)
		if e.Offline {
			m.setOnline(false)
		}
	case events.ConnectivityChanged:
		m.setOnline(e.Online)
	case events.AssetsUpdated:
		m.logger.Debug("assets updated", "account", e.Account.Hex())
	case events.AssetsError:
		m.logger.Warn("asset fetch", "err", e.Err)
	case events.VerificationUpdated:
	case events.RecentAddressesUpdated:
		if e.Account == m.ss.Account {
			m.ss.RecentAddresses = e.Addresses
		}
	case events.WcError:
		m.logger.Warn("walletconnect", "err", e.Err)
	case events.FatalError:
		m.logger.Error("fatal", "err", e.Err)
		m.fatal.Open("Error", e.Err.Error(), m.w, m.h)
	case events.TxUpdate, events.SignResult, events.SignError,
		events.WcStatusChanged, events.WcInbound:
		// Owned by whichever popup spawned the task; routed below.
	default:
		return false
	}
	return true
}

func (m *model) setOnline(online bool) {
	if online == m.ss.Online {
		return
	}
	m.ss.Online = online
	if online {
		m.logger.Info("back online")
		m.startDataWatchers()
	} else {
		m.logger.Warn("offline, pausing watchers")
		m.stopDataWatchers()
	}
}

// applyActions performs the navigation a screen asked for. Returns true
// when the stack emptied, which ends the program.
func (m *model) applyActions(actions app.Actions) (quit bool) {
	for i := 0; i < actions.PopCount && len(m.stack) > 0; i++ {
		m.stack[len(m.stack)-1].Shutdown()
		m.stack = m.stack[:len(m.stack)-1]
	}
	m.stack = append(m.stack, actions.Pushes...)
	if actions.Reload {
		m.reloadShared()
	}
	if actions.RefreshAssets {
		m.refreshAssetsNow()
	}
	return len(m.stack) == 0
}
