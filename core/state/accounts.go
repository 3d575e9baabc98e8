package state

import (
	"certledger/core/ledger"
)

type storedAccount struct {
	ID0       uint64
	ID1       uint64
	Nonce     uint64
	Points    uint64
	IdleFunds uint64
}

func newStoredAccount(a *ledger.Account) *storedAccount {
	return &storedAccount{
		ID0:       a.ID[0],
		ID1:       a.ID[1],
		Nonce:     a.Nonce,
		Points:    a.Points,
		IdleFunds: a.IdleFunds,
	}
}

func (s *storedAccount) toAccount() *ledger.Account {
	return &ledger.Account{
		ID:        ledger.Identity{s.ID0, s.ID1},
		Nonce:     s.Nonce,
		Points:    s.Points,
		IdleFunds: s.IdleFunds,
	}
}

// GetAccount loads the account for an identity, or (nil, nil) when it was
// never installed.
func (m *Manager) GetAccount(id ledger.Identity) (*ledger.Account, error) {
	stored := new(storedAccount)
	found, err := m.get(accountKey(id), stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return stored.toAccount(), nil
}

// PutAccount persists the account record.
func (m *Manager) PutAccount(account *ledger.Account) error {
	return m.put(accountKey(account.ID), newStoredAccount(account))
}

// HasAccount reports whether the identity has been installed.
func (m *Manager) HasAccount(id ledger.Identity) (bool, error) {
	return m.db.Has(accountKey(id))
}
