// Package ledger holds the per-identity account state: immediately spendable
// idle funds and the static points balance.
package ledger

import (
	"encoding/hex"
	"errors"

	"certledger/core/safemath"
)

var (
	ErrNotFound            = errors.New("ledger: account not found")
	ErrAlreadyExists       = errors.New("ledger: account already exists")
	ErrInsufficientBalance = errors.New("ledger: insufficient idle funds")
	ErrInsufficientPoints  = errors.New("ledger: insufficient points")
	ErrNonceMismatch       = errors.New("ledger: nonce mismatch")
)

// Identity is the opaque 128-bit account identifier derived from the caller's
// public key.
type Identity [2]uint64

func (id Identity) String() string {
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(id[0] >> (56 - 8*i))
		buf[8+i] = byte(id[1] >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}

// Account is the mutable ledger record for a single identity. Accounts are
// created by the install command and never deleted.
type Account struct {
	ID        Identity
	Nonce     uint64
	Points    uint64
	IdleFunds uint64
}

// NewAccount returns a fresh zero-balance account for the identity.
func NewAccount(id Identity) *Account {
	return &Account{ID: id}
}

// Clone returns an independent copy safe to mutate before commit.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

// CheckNonce verifies the envelope nonce against the account's stored nonce.
func (a *Account) CheckNonce(nonce uint64) error {
	if nonce != a.Nonce {
		return ErrNonceMismatch
	}
	return nil
}

// BumpNonce advances the replay counter. Called only on the commit path.
func (a *Account) BumpNonce() error {
	nonce, err := safemath.Add(a.Nonce, 1)
	if err != nil {
		return err
	}
	a.Nonce = nonce
	return nil
}

// CreditIdle adds amount to the spendable balance.
func (a *Account) CreditIdle(amount uint64) error {
	funds, err := safemath.Add(a.IdleFunds, amount)
	if err != nil {
		return err
	}
	a.IdleFunds = funds
	return nil
}

// DebitIdle removes amount from the spendable balance.
func (a *Account) DebitIdle(amount uint64) error {
	if amount > a.IdleFunds {
		return ErrInsufficientBalance
	}
	funds, err := safemath.Sub(a.IdleFunds, amount)
	if err != nil {
		return err
	}
	a.IdleFunds = funds
	return nil
}

// CreditPoints adds to the static points score.
func (a *Account) CreditPoints(amount uint64) error {
	points, err := safemath.Add(a.Points, amount)
	if err != nil {
		return err
	}
	a.Points = points
	return nil
}

// DebitPoints removes from the static points score.
func (a *Account) DebitPoints(amount uint64) error {
	if amount > a.Points {
		return ErrInsufficientPoints
	}
	points, err := safemath.Sub(a.Points, amount)
	if err != nil {
		return err
	}
	a.Points = points
	return nil
}
