package ledger

import (
	"errors"
	"math"
	"testing"

	"certledger/core/safemath"
)

func TestIdentityString(t *testing.T) {
	id := Identity{0x0102030405060708, 0x090a0b0c0d0e0f10}
	if got := id.String(); got != "0102030405060708090a0b0c0d0e0f10" {
		t.Fatalf("unexpected identity encoding: %s", got)
	}
}

func TestCheckNonce(t *testing.T) {
	account := NewAccount(Identity{1, 2})
	if err := account.CheckNonce(0); err != nil {
		t.Fatalf("fresh account should accept nonce 0: %v", err)
	}
	if err := account.CheckNonce(1); !errors.Is(err, ErrNonceMismatch) {
		t.Fatalf("expected ErrNonceMismatch, got %v", err)
	}
	if err := account.BumpNonce(); err != nil {
		t.Fatalf("bump nonce: %v", err)
	}
	if err := account.CheckNonce(0); !errors.Is(err, ErrNonceMismatch) {
		t.Fatalf("stale nonce should be rejected after bump, got %v", err)
	}
	if err := account.CheckNonce(1); err != nil {
		t.Fatalf("bumped account should accept nonce 1: %v", err)
	}

	account.Nonce = math.MaxUint64
	if err := account.BumpNonce(); !errors.Is(err, safemath.ErrOverflow) {
		t.Fatalf("saturated nonce should overflow, got %v", err)
	}
}

func TestIdleFunds(t *testing.T) {
	account := NewAccount(Identity{1, 2})
	if err := account.CreditIdle(100); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := account.DebitIdle(40); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if account.IdleFunds != 60 {
		t.Fatalf("idle funds = %d, want 60", account.IdleFunds)
	}
	if err := account.DebitIdle(61); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if account.IdleFunds != 60 {
		t.Fatalf("failed debit must not change balance, got %d", account.IdleFunds)
	}
	account.IdleFunds = math.MaxUint64
	if err := account.CreditIdle(1); !errors.Is(err, safemath.ErrOverflow) {
		t.Fatalf("expected overflow on credit, got %v", err)
	}
}

func TestPoints(t *testing.T) {
	account := NewAccount(Identity{3, 4})
	if err := account.CreditPoints(17_280); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := account.DebitPoints(17_281); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	if err := account.DebitPoints(17_280); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if account.Points != 0 {
		t.Fatalf("points = %d, want 0", account.Points)
	}
}

func TestClone(t *testing.T) {
	account := NewAccount(Identity{5, 6})
	account.IdleFunds = 500
	clone := account.Clone()
	clone.IdleFunds = 9
	if err := clone.BumpNonce(); err != nil {
		t.Fatalf("bump nonce: %v", err)
	}
	if account.IdleFunds != 500 || account.Nonce != 0 {
		t.Fatalf("mutating the clone changed the original: %+v", account)
	}
}
