package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"gm-tui/app"
	"gm-tui/assets"
	"gm-tui/config"
	"gm-tui/events"
	"gm-tui/popups"
	"gm-tui/styles"
	"gm-tui/views/accounts"
	"gm-tui/views/addressbook"
	"gm-tui/views/menu"
	"gm-tui/views/networks"
	"gm-tui/views/portfolio"
	"gm-tui/views/receive"
	"gm-tui/views/settings"
	"gm-tui/views/setup"
	"gm-tui/views/signmsg"
	"gm-tui/views/transfer"
	"gm-tui/views/wcscreen"
)

const busBuffer = 64

// model is the root controller: it owns the screen stack, mutates
// SharedState, runs the background watchers, and fans messages out to the
// topmost screen.
type model struct {
	w, h int

	ss    *app.SharedState
	stack []app.Screen

	fatal popups.TextScroll

	logger      *log.Logger
	logBuffer   *strings.Builder
	logViewport viewport.Model

	// stop funcs for the watchers that pause while offline
	stopAssets  func()
	stopRecents func()

	// stop func for the price watcher, which runs even while offline
	stopPrices func()
}

func newModel() (*model, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	networkStore, err := config.LoadNetworks()
	if err != nil {
		return nil, fmt.Errorf("load networks: %w", err)
	}

	ss := &app.SharedState{
		Config:    &cfg,
		Networks:  networkStore,
		Online:    true,
		Testnet:   cfg.TestnetMode,
		Developer: cfg.DeveloperMode,
		Theme:     styles.ByName(cfg.Theme),
		Assets:    assets.NewManager(),
		Prices:    assets.NewPriceManager(),
		Bus:       events.NewBus(busBuffer),
		Sup:       events.NewSupervisor(),
	}
	if addr, err := cfg.Account(); err == nil {
		ss.Account = addr
		ss.HasAccount = true
	}
	ss.Prices.SetCoinGeckoKey(cfg.APIKey(config.APIKeyCoinGecko))

	m := &model{ss: ss}
	m.initLogger()
	m.stack = []app.Screen{menu.New(m.menuEntries())}
	if !ss.HasAccount {
		m.stack = append(m.stack, setup.New(ss))
	}
	return m, nil
}

func (m *model) menuEntries() []menu.Entry {
	return []menu.Entry{
		{Label: "Portfolio", NeedsAccount: true, Make: func() app.Screen { return portfolio.New() }},
		{Label: "Transfer", NeedsAccount: true, Make: func() app.Screen { return transfer.New(m.ss) }},
		{Label: "Receive", NeedsAccount: true, Make: func() app.Screen { return receive.New(m.ss) }},
		{Label: "Sign message", NeedsAccount: true, Make: func() app.Screen { return signmsg.New(m.ss) }},
		{Label: "WalletConnect", NeedsAccount: true, Make: func() app.Screen { return wcscreen.New(m.ss) }},
		{Label: "Address book", Make: func() app.Screen { return addressbook.New(m.ss) }},
		{Label: "Accounts", Make: func() app.Screen { return accounts.New(m.ss) }},
		{Label: "Networks", Developer: true, Make: func() app.Screen { return networks.New(m.ss) }},
		{Label: "Settings", Make: func() app.Screen { return settings.New(m.ss) }},
	}
}

func (m *model) initLogger() {
	m.logBuffer = &strings.Builder{}
	m.logViewport = viewport.New(0, 8)
	m.logger = log.NewWithOptions(m.logBuffer, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	m.logger.SetLevel(log.DebugLevel)
}

func (m *model) top() app.Screen {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// reloadShared re-reads every on-disk store into SharedState and tells the
// screens. Called after any screen persisted a change.
func (m *model) reloadShared() {
	cfg, err := config.Load()
	if err != nil {
		m.logger.Error("config reload", "err", err)
		return
	}
	networkStore, err := config.LoadNetworks()
	if err != nil {
		m.logger.Error("networks reload", "err", err)
		return
	}

	prevAccount := m.ss.Account
	*m.ss.Config = cfg
	m.ss.Networks = networkStore
	m.ss.Testnet = cfg.TestnetMode
	m.ss.Developer = cfg.DeveloperMode
	m.ss.Theme = styles.ByName(cfg.Theme)
	m.ss.HasAccount = false
	if addr, err := cfg.Account(); err == nil {
		m.ss.Account = addr
		m.ss.HasAccount = true
	}
	if m.ss.Account != prevAccount {
		m.ss.RecentAddresses = nil
	}
	m.ss.Prices.SetCoinGeckoKey(cfg.APIKey(config.APIKeyCoinGecko))

	// Watchers capture the account, testnet flag and API key at start.
	m.stopPriceWatcher()
	m.startPriceWatcher()
	m.stopDataWatchers()
	if m.ss.Online {
		m.startDataWatchers()
	}

	for _, s := range m.stack {
		s.Reload(m.ss)
	}
	m.logger.Info("reloaded config", "account", m.ss.Account.Hex(), "testnet", m.ss.Testnet)
}

func (m *model) shutdown() {
	for i := len(m.stack) - 1; i >= 0; i-- {
		m.stack[i].Shutdown()
	}
	m.ss.Sup.Shutdown()
	m.ss.Bus.Close()
}

// themeStyle shorthand for the root chrome.
func (m *model) chromeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(m.ss.Theme.Muted)
}
