package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressBookEntry is a named address in the address book.
type AddressBookEntry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// AddressBook is the ordered list of named addresses.
type AddressBook struct {
	Entries []AddressBookEntry `json:"entries"`
}

func addressBookPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "address_book"), nil
}

// LoadAddressBook reads the address book, returning an empty book if the
// file does not exist.
func LoadAddressBook() (*AddressBook, error) {
	path, err := addressBookPath()
	if err != nil {
		return nil, err
	}
	var book AddressBook
	if _, err := readJSON(path, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Save writes the address book atomically.
func (b *AddressBook) Save() error {
	path, err := addressBookPath()
	if err != nil {
		return err
	}
	return writeJSON(path, b)
}

// Add appends an entry after validating the address and rejecting duplicate
// names.
func (b *AddressBook) Add(name, address string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("address book entry needs a name")
	}
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address %q", address)
	}
	for _, e := range b.Entries {
		if strings.EqualFold(e.Name, name) {
			return fmt.Errorf("address book already has an entry named %q", name)
		}
	}
	b.Entries = append(b.Entries, AddressBookEntry{
		Name:    strings.TrimSpace(name),
		Address: common.HexToAddress(address).Hex(),
	})
	return nil
}

// NameFor returns the name registered for an address, or empty.
func (b *AddressBook) NameFor(addr common.Address) string {
	for _, e := range b.Entries {
		if common.HexToAddress(e.Address) == addr {
			return e.Name
		}
	}
	return ""
}

// Remove deletes the entry at index i.
func (b *AddressBook) Remove(i int) {
	if i < 0 || i >= len(b.Entries) {
		return
	}
	b.Entries = append(b.Entries[:i], b.Entries[i+1:]...)
}
