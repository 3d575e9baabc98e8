// Package state persists ledger records through the injected key-value store.
// Keys are prefixed and hashed; values are RLP-encoded storage structs kept
// separate from the domain types they mirror.
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"certledger/storage"
)

// Manager provides typed read/write access to every record class the engine
// touches: accounts, product types, certificates and the global state.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	return m.db.Put(key, encoded)
}
