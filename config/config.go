package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config represents the persisted application configuration. It is read on
// demand and rewritten atomically on change; the in-memory copy lives in
// SharedState and is refreshed on explicit reload.
type Config struct {
	CurrentAccount string            `json:"current_account,omitempty"`
	TestnetMode    bool              `json:"testnet_mode"`
	DeveloperMode  bool              `json:"developer_mode"`
	Theme          string            `json:"theme,omitempty"`
	Logger         bool              `json:"logger"`
	APIKeys        map[string]string `json:"api_keys,omitempty"`
}

// API key names recognized in Config.APIKeys.
const (
	APIKeyAlchemy   = "alchemy"
	APIKeyCoinGecko = "coingecko"
)

func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config"), nil
}

// Load reads the config file, returning a zero config if it does not exist.
func Load() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if _, err := readJSON(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config file atomically.
func (c Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return writeJSON(path, c)
}

// Account returns the current account address. The error is the signal for
// the "configuration absent" flow: callers direct the user to setup instead
// of failing.
func (c Config) Account() (common.Address, error) {
	if c.CurrentAccount == "" {
		return common.Address{}, fmt.Errorf("no current account configured")
	}
	if !common.IsHexAddress(c.CurrentAccount) {
		return common.Address{}, fmt.Errorf("invalid current account %q", c.CurrentAccount)
	}
	return common.HexToAddress(c.CurrentAccount), nil
}

// HasAccount reports whether a current account is configured.
func (c Config) HasAccount() bool {
	_, err := c.Account()
	return err == nil
}

// APIKey returns a third-party API key by name, or empty.
func (c Config) APIKey(name string) string {
	return strings.TrimSpace(c.APIKeys[name])
}

// SetAccount updates the current account and persists.
func SetAccount(addr common.Address) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.CurrentAccount = addr.Hex()
	return cfg.Save()
}
