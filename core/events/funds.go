package events

import (
	"certledger/core/ledger"
	"certledger/core/types"
)

const (
	TypeDeposit             = "funds.deposited"
	TypeWithdrawal          = "funds.withdrawn"
	TypePointsWithdrawal    = "points.withdrawn"
	TypeAdminWithdrawal     = "funds.adminWithdrawn"
	TypeReserveRatioChanged = "state.reserveRatioChanged"
)

// Deposit is emitted when the admin credits externally-sourced funds into an
// account's idle balance.
type Deposit struct {
	Target ledger.Identity
	Amount uint64
	TxID   uint64
	Tick   uint64
}

func (Deposit) EventType() string { return TypeDeposit }

func (Deposit) WireType() uint32 { return WireDeposit }

func (e Deposit) Fields() []uint64 {
	return []uint64{e.Target[0], e.Target[1], e.Amount, e.TxID, e.Tick}
}

func (e Deposit) Event() *types.Event {
	return &types.Event{
		Type: TypeDeposit,
		Attributes: map[string]string{
			"target": identityAttr(e.Target),
			"amount": uintToString(e.Amount),
			"txId":   uintToString(e.TxID),
			"tick":   uintToString(e.Tick),
		},
	}
}

// Withdrawal is emitted when idle funds leave the system to an external
// address.
type Withdrawal struct {
	Account ledger.Identity
	Amount  uint64
	Address [20]byte
	TxID    uint64
	Tick    uint64
}

func (Withdrawal) EventType() string { return TypeWithdrawal }

func (Withdrawal) WireType() uint32 { return WireWithdrawal }

func (e Withdrawal) Fields() []uint64 {
	return []uint64{e.Account[0], e.Account[1], e.Amount, e.TxID, e.Tick}
}

func (e Withdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypeWithdrawal,
		Attributes: map[string]string{
			"account": identityAttr(e.Account),
			"amount":  uintToString(e.Amount),
			"address": addressAttr(e.Address),
			"txId":    uintToString(e.TxID),
			"tick":    uintToString(e.Tick),
		},
	}
}

// PointsWithdrawal is emitted for the static-points settlement path, which is
// accounted independently of idle funds.
type PointsWithdrawal struct {
	Account     ledger.Identity
	Units       uint64
	PointsSpent uint64
	Address     [20]byte
	TxID        uint64
	Tick        uint64
}

func (PointsWithdrawal) EventType() string { return TypePointsWithdrawal }

func (PointsWithdrawal) WireType() uint32 { return WirePointsWithdrawal }

func (e PointsWithdrawal) Fields() []uint64 {
	return []uint64{e.Account[0], e.Account[1], e.Units, e.PointsSpent, e.TxID, e.Tick}
}

func (e PointsWithdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypePointsWithdrawal,
		Attributes: map[string]string{
			"account":     identityAttr(e.Account),
			"units":       uintToString(e.Units),
			"pointsSpent": uintToString(e.PointsSpent),
			"address":     addressAttr(e.Address),
			"txId":        uintToString(e.TxID),
			"tick":        uintToString(e.Tick),
		},
	}
}

// AdminWithdrawal records surplus leaving for the multisig. No account is
// debited; the amount draws from system-level surplus.
type AdminWithdrawal struct {
	Amount uint64
	TxID   uint64
	Tick   uint64
}

func (AdminWithdrawal) EventType() string { return TypeAdminWithdrawal }

func (AdminWithdrawal) WireType() uint32 { return WireAdminWithdrawal }

func (e AdminWithdrawal) Fields() []uint64 {
	return []uint64{e.Amount, e.TxID, e.Tick}
}

func (e AdminWithdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypeAdminWithdrawal,
		Attributes: map[string]string{
			"amount": uintToString(e.Amount),
			"txId":   uintToString(e.TxID),
			"tick":   uintToString(e.Tick),
		},
	}
}

// ReserveRatioChanged records an admin adjustment to the withdrawal reserve.
type ReserveRatioChanged struct {
	RatioBasisPoints uint64
	TxID             uint64
	Tick             uint64
}

func (ReserveRatioChanged) EventType() string { return TypeReserveRatioChanged }

func (ReserveRatioChanged) WireType() uint32 { return WireReserveRatioChanged }

func (e ReserveRatioChanged) Fields() []uint64 {
	return []uint64{e.RatioBasisPoints, e.TxID, e.Tick}
}

func (e ReserveRatioChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeReserveRatioChanged,
		Attributes: map[string]string{
			"ratioBps": uintToString(e.RatioBasisPoints),
			"txId":     uintToString(e.TxID),
			"tick":     uintToString(e.Tick),
		},
	}
}
