// Package certificate implements the time-deposit product catalog and the
// certificate lifecycle: purchase, interest claim, principal redemption.
package certificate

import (
	"errors"

	"certledger/core/ledger"
	"certledger/core/safemath"
)

var (
	ErrProductNotFound   = errors.New("certificate: product type not found")
	ErrProductInactive   = errors.New("certificate: product type inactive")
	ErrNotFound          = errors.New("certificate: certificate not found")
	ErrNotOwned          = errors.New("certificate: certificate not owned by caller")
	ErrNotMatured        = errors.New("certificate: certificate not matured")
	ErrAlreadyRedeemed   = errors.New("certificate: certificate already redeemed")
	ErrNoInterestDue     = errors.New("certificate: no interest available")
	ErrInvalidPrincipal  = errors.New("certificate: principal amount out of bounds")
	ErrPrincipalTooSmall = errors.New("certificate: principal below product minimum")
	ErrInvalidAPY        = errors.New("certificate: apy out of bounds")
	ErrInvalidDuration   = errors.New("certificate: duration out of bounds")
	ErrInvalidMinAmount  = errors.New("certificate: minimum amount out of bounds")
)

const (
	// TicksPerDay at five seconds per tick.
	TicksPerDay = 17_280

	// MaxPrincipal caps a single certificate's principal.
	MaxPrincipal = 1_000_000_000
	// MinPrincipal is the smallest purchasable principal.
	MinPrincipal = 10
	// MaxAPYBasisPoints caps product APY at 500%.
	MaxAPYBasisPoints = 50_000
	// MaxDurationTicks caps product duration at ten years.
	MaxDurationTicks = 3650 * TicksPerDay

	// RechargeProductID is reserved for admin-sourced deposits backing
	// certificates; it never appears in the stored catalog.
	RechargeProductID = 0
)

// Status is the stored lifecycle marker. Maturity is a computed predicate of
// the tick counter, not an authoritative stored transition: storage only ever
// records Active or Redeemed.
type Status uint8

const (
	StatusActive Status = iota
	StatusMatured
	StatusRedeemed
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusMatured, StatusRedeemed:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusMatured:
		return "matured"
	case StatusRedeemed:
		return "redeemed"
	default:
		return "unknown"
	}
}

// ProductType describes a purchasable deposit product. Modifying a product
// never touches certificates already purchased against it.
type ProductType struct {
	ID             uint64
	DurationTicks  uint64
	APYBasisPoints uint64
	MinAmount      uint64
	Active         bool
}

// ValidateProductParams checks the admin-supplied product bounds.
func ValidateProductParams(durationTicks, apyBps, minAmount uint64) error {
	if durationTicks == 0 || durationTicks > MaxDurationTicks {
		return ErrInvalidDuration
	}
	if apyBps > MaxAPYBasisPoints {
		return ErrInvalidAPY
	}
	if minAmount < MinPrincipal || minAmount > MaxPrincipal {
		return ErrInvalidMinAmount
	}
	return nil
}

// RechargeProduct returns the virtual product backing admin-sourced deposits:
// maximum duration, zero yield, always open.
func RechargeProduct() *ProductType {
	return &ProductType{
		ID:             RechargeProductID,
		DurationTicks:  MaxDurationTicks,
		APYBasisPoints: 0,
		MinAmount:      1,
		Active:         true,
	}
}

// MaturityTime computes when a certificate purchased now would mature.
func (p *ProductType) MaturityTime(purchaseTick uint64) (uint64, error) {
	return safemath.Add(purchaseTick, p.DurationTicks)
}

// Certificate is a single locked deposit. The APY is frozen at purchase and
// survives later product modifications.
type Certificate struct {
	ID                   uint64
	Owner                ledger.Identity
	ProductTypeID        uint64
	Principal            uint64
	PurchaseTime         uint64
	MaturityTime         uint64
	LockedAPYBasisPoints uint64
	TotalInterestClaimed uint64
	Status               Status
}

// New creates an active certificate at the given purchase tick.
func New(id uint64, owner ledger.Identity, product *ProductType, principal, purchaseTick uint64) (*Certificate, error) {
	maturity, err := product.MaturityTime(purchaseTick)
	if err != nil {
		return nil, err
	}
	return &Certificate{
		ID:                   id,
		Owner:                owner,
		ProductTypeID:        product.ID,
		Principal:            principal,
		PurchaseTime:         purchaseTick,
		MaturityTime:         maturity,
		LockedAPYBasisPoints: product.APYBasisPoints,
		Status:               StatusActive,
	}, nil
}

// Clone returns an independent copy safe to mutate before commit.
func (c *Certificate) Clone() *Certificate {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

// IsMatured reports whether the maturity tick has been reached (inclusive).
func (c *Certificate) IsMatured(currentTick uint64) bool {
	return currentTick >= c.MaturityTime
}

// DisplayStatus derives the three-state view for queries and events. Only
// Active and Redeemed carry authority in storage.
func (c *Certificate) DisplayStatus(currentTick uint64) Status {
	if c.Status == StatusRedeemed {
		return StatusRedeemed
	}
	if c.IsMatured(currentTick) {
		return StatusMatured
	}
	return StatusActive
}

// TotalInterestEarned computes the cumulative simple interest from purchase to
// currentTick. Ticks before the purchase earn nothing.
func (c *Certificate) TotalInterestEarned(currentTick, secondsPerTick uint64) (uint64, error) {
	if currentTick <= c.PurchaseTime {
		return 0, nil
	}
	elapsedTicks, err := safemath.Sub(currentTick, c.PurchaseTime)
	if err != nil {
		return 0, err
	}
	elapsedSeconds, err := safemath.Mul(elapsedTicks, secondsPerTick)
	if err != nil {
		return 0, err
	}
	return safemath.Interest(c.Principal, c.LockedAPYBasisPoints, elapsedSeconds)
}

// AvailableInterest is the earned interest not yet claimed, floored at zero.
func (c *Certificate) AvailableInterest(currentTick, secondsPerTick uint64) (uint64, error) {
	earned, err := c.TotalInterestEarned(currentTick, secondsPerTick)
	if err != nil {
		return 0, err
	}
	if earned <= c.TotalInterestClaimed {
		return 0, nil
	}
	return safemath.Sub(earned, c.TotalInterestClaimed)
}

// Claim drains the full available interest at currentTick and returns the
// amount credited. Claiming twice at the same tick yields nothing the second
// time. A redeemed certificate is inert: unclaimed interest was forfeited
// at redemption.
func (c *Certificate) Claim(currentTick, secondsPerTick uint64) (uint64, error) {
	if c.Status == StatusRedeemed {
		return 0, ErrAlreadyRedeemed
	}
	available, err := c.AvailableInterest(currentTick, secondsPerTick)
	if err != nil {
		return 0, err
	}
	if available == 0 {
		return 0, ErrNoInterestDue
	}
	claimed, err := safemath.Add(c.TotalInterestClaimed, available)
	if err != nil {
		return 0, err
	}
	c.TotalInterestClaimed = claimed
	return available, nil
}

// Redeem marks the certificate redeemed and returns the principal to credit.
// Unclaimed interest is forfeited; callers wanting it must claim first. The
// certificate stops earning at that point.
func (c *Certificate) Redeem(currentTick uint64) (uint64, error) {
	if c.Status == StatusRedeemed {
		return 0, ErrAlreadyRedeemed
	}
	if !c.IsMatured(currentTick) {
		return 0, ErrNotMatured
	}
	c.Status = StatusRedeemed
	return c.Principal, nil
}
