// Package core is the deterministic state-transition engine: it decodes
// opcode-tagged commands, checks caller permission and applies each command
// atomically against the ledger state.
package core

import (
	"errors"

	"certledger/core/ledger"
	"certledger/core/settlement"
)

// Opcode values are fixed for wire compatibility with the host driver.
type Opcode uint64

const (
	OpTick                    Opcode = 0
	OpInstallPlayer           Opcode = 1
	OpWithdraw                Opcode = 2
	OpDeposit                 Opcode = 3
	OpWithdrawPoints          Opcode = 5
	OpCreateProductType       Opcode = 6
	OpModifyProductType       Opcode = 7
	OpPurchaseCertificate     Opcode = 10
	OpClaimInterest           Opcode = 11
	OpRedeemPrincipal         Opcode = 12
	OpAdminWithdrawToMultisig Opcode = 13
	OpSetReserveRatio         Opcode = 14
)

var (
	ErrUnknownOpcode = errors.New("core: unknown opcode")
	ErrBadShape      = errors.New("core: malformed command parameters")
)

// Envelope is the raw command consumed at the dispatcher boundary.
type Envelope struct {
	Nonce  uint64
	Opcode Opcode
	Params []uint64
}

// Command is the closed set of decoded commands. Adding an opcode means
// adding a variant here and a case to the dispatcher switch; there is no
// runtime registration.
type Command interface {
	isCommand()
}

type TickCommand struct{}

type InstallPlayerCommand struct{}

type WithdrawCommand struct {
	Amount  uint64
	Address [20]byte
}

type DepositCommand struct {
	Target ledger.Identity
	Amount uint64
}

type WithdrawPointsCommand struct {
	Units   uint64
	Address [20]byte
}

type CreateProductTypeCommand struct {
	DurationTicks  uint64
	APYBasisPoints uint64
	MinAmount      uint64
	Active         bool
}

type ModifyProductTypeCommand struct {
	ProductTypeID  uint64
	APYBasisPoints uint64
	DurationTicks  uint64
	MinAmount      uint64
	Active         bool
}

type PurchaseCertificateCommand struct {
	ProductTypeID uint64
	Amount        uint64
}

type ClaimInterestCommand struct {
	CertificateID uint64
}

type RedeemPrincipalCommand struct {
	CertificateID uint64
}

type AdminWithdrawCommand struct {
	Amount uint64
}

type SetReserveRatioCommand struct {
	RatioBasisPoints uint64
}

func (TickCommand) isCommand()                {}
func (InstallPlayerCommand) isCommand()       {}
func (WithdrawCommand) isCommand()            {}
func (DepositCommand) isCommand()             {}
func (WithdrawPointsCommand) isCommand()      {}
func (CreateProductTypeCommand) isCommand()   {}
func (ModifyProductTypeCommand) isCommand()   {}
func (PurchaseCertificateCommand) isCommand() {}
func (ClaimInterestCommand) isCommand()       {}
func (RedeemPrincipalCommand) isCommand()     {}
func (AdminWithdrawCommand) isCommand()       {}
func (SetReserveRatioCommand) isCommand()     {}

// DecodeCommand validates the envelope's shape and produces the typed
// command. Decoding performs no state access.
func DecodeCommand(env Envelope) (Command, error) {
	p := env.Params
	need := func(n int) error {
		if len(p) != n {
			return ErrBadShape
		}
		return nil
	}

	switch env.Opcode {
	case OpTick:
		if err := need(0); err != nil {
			return nil, err
		}
		return TickCommand{}, nil

	case OpInstallPlayer:
		if err := need(0); err != nil {
			return nil, err
		}
		return InstallPlayerCommand{}, nil

	case OpWithdraw:
		if err := need(4); err != nil {
			return nil, err
		}
		addr, err := settlement.AddressFromLimbs([3]uint64{p[1], p[2], p[3]})
		if err != nil {
			return nil, err
		}
		return WithdrawCommand{Amount: p[0], Address: addr}, nil

	case OpDeposit:
		if err := need(3); err != nil {
			return nil, err
		}
		return DepositCommand{Target: ledger.Identity{p[0], p[1]}, Amount: p[2]}, nil

	case OpWithdrawPoints:
		if err := need(4); err != nil {
			return nil, err
		}
		addr, err := settlement.AddressFromLimbs([3]uint64{p[1], p[2], p[3]})
		if err != nil {
			return nil, err
		}
		return WithdrawPointsCommand{Units: p[0], Address: addr}, nil

	case OpCreateProductType:
		if err := need(4); err != nil {
			return nil, err
		}
		return CreateProductTypeCommand{
			DurationTicks:  p[0],
			APYBasisPoints: p[1],
			MinAmount:      p[2],
			Active:         p[3] != 0,
		}, nil

	case OpModifyProductType:
		if err := need(5); err != nil {
			return nil, err
		}
		return ModifyProductTypeCommand{
			ProductTypeID:  p[0],
			APYBasisPoints: p[1],
			DurationTicks:  p[2],
			MinAmount:      p[3],
			Active:         p[4] != 0,
		}, nil

	case OpPurchaseCertificate:
		if err := need(2); err != nil {
			return nil, err
		}
		return PurchaseCertificateCommand{ProductTypeID: p[0], Amount: p[1]}, nil

	case OpClaimInterest:
		if err := need(1); err != nil {
			return nil, err
		}
		return ClaimInterestCommand{CertificateID: p[0]}, nil

	case OpRedeemPrincipal:
		if err := need(1); err != nil {
			return nil, err
		}
		return RedeemPrincipalCommand{CertificateID: p[0]}, nil

	case OpAdminWithdrawToMultisig:
		if err := need(1); err != nil {
			return nil, err
		}
		return AdminWithdrawCommand{Amount: p[0]}, nil

	case OpSetReserveRatio:
		if err := need(1); err != nil {
			return nil, err
		}
		return SetReserveRatioCommand{RatioBasisPoints: p[0]}, nil

	default:
		return nil, ErrUnknownOpcode
	}
}
