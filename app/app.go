// Package app holds the shared session state and the contract every
// screen implements. Only the root model mutates SharedState; screens
// read it and return Actions describing what they want done.
package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"gm-tui/assets"
	"gm-tui/config"
	"gm-tui/events"
	"gm-tui/styles"
)

// SharedState is the session-wide state constructed from on-disk config at
// startup and reloaded on demand.
type SharedState struct {
	Config   *config.Config
	Networks *config.NetworkStore

	Account    common.Address
	HasAccount bool
	Online     bool
	Testnet    bool
	Developer  bool
	Theme      styles.Theme

	RecentAddresses []common.Address

	Assets *assets.Manager
	Prices *assets.PriceManager

	Bus *events.Bus
	Sup *events.Supervisor
}

// AlchemyKey is the configured Alchemy API key, or "".
func (s *SharedState) AlchemyKey() string {
	return s.Config.APIKey(config.APIKeyAlchemy)
}

// Screen is one navigable surface on the stack. Only the topmost screen
// receives messages; every screen still renders while covered by popups.
type Screen interface {
	// Title labels the screen in the header breadcrumb.
	Title() string
	// Update handles one message and reports the navigation the screen
	// wants. Commands schedule follow-up work in the runtime.
	Update(msg tea.Msg, ss *SharedState) (Actions, tea.Cmd)
	// View renders into the given area.
	View(ss *SharedState, width, height int) string
	// Reload is called after SharedState was rebuilt from disk.
	Reload(ss *SharedState)
	// Shutdown stops any tasks the screen owns. Called before the screen
	// is destroyed.
	Shutdown()
}

// Actions is what a screen asks of the root controller after one message.
type Actions struct {
	PopCount      int
	Pushes        []Screen
	Reload        bool
	RefreshAssets bool
	IgnoreEsc     bool
}
