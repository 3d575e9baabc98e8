package events

import (
	"certledger/core/certificate"
	"certledger/core/ledger"
	"certledger/core/types"
)

const (
	TypeProductTypeCreated   = "product.created"
	TypeProductTypeModified  = "product.modified"
	TypeCertificatePurchased = "certificate.purchased"
	TypeInterestClaimed      = "certificate.interestClaimed"
	TypePrincipalRedeemed    = "certificate.principalRedeemed"
)

// ProductTypeCreated is emitted when the admin adds a product to the catalog.
type ProductTypeCreated struct {
	Product certificate.ProductType
	TxID    uint64
}

func (ProductTypeCreated) EventType() string { return TypeProductTypeCreated }

func (ProductTypeCreated) WireType() uint32 { return WireProductTypeCreated }

func (e ProductTypeCreated) Fields() []uint64 {
	return []uint64{
		e.Product.ID,
		e.Product.DurationTicks,
		e.Product.APYBasisPoints,
		e.Product.MinAmount,
		boolToUint(e.Product.Active),
		e.TxID,
	}
}

func (e ProductTypeCreated) Event() *types.Event {
	return &types.Event{
		Type:       TypeProductTypeCreated,
		Attributes: productAttrs(e.Product, e.TxID),
	}
}

// ProductTypeModified is emitted when the admin changes catalog parameters.
// Outstanding certificates keep their locked terms.
type ProductTypeModified struct {
	Product certificate.ProductType
	TxID    uint64
}

func (ProductTypeModified) EventType() string { return TypeProductTypeModified }

func (ProductTypeModified) WireType() uint32 { return WireProductTypeModified }

func (e ProductTypeModified) Fields() []uint64 {
	return []uint64{
		e.Product.ID,
		e.Product.DurationTicks,
		e.Product.APYBasisPoints,
		e.Product.MinAmount,
		boolToUint(e.Product.Active),
		e.TxID,
	}
}

func (e ProductTypeModified) Event() *types.Event {
	return &types.Event{
		Type:       TypeProductTypeModified,
		Attributes: productAttrs(e.Product, e.TxID),
	}
}

func productAttrs(p certificate.ProductType, txID uint64) map[string]string {
	return map[string]string{
		"id":        uintToString(p.ID),
		"duration":  uintToString(p.DurationTicks),
		"apyBps":    uintToString(p.APYBasisPoints),
		"minAmount": uintToString(p.MinAmount),
		"active":    uintToString(boolToUint(p.Active)),
		"txId":      uintToString(txID),
	}
}

// CertificatePurchased captures the certificate created by a purchase.
type CertificatePurchased struct {
	Certificate certificate.Certificate
	TxID        uint64
}

func (CertificatePurchased) EventType() string { return TypeCertificatePurchased }

func (CertificatePurchased) WireType() uint32 { return WireCertificatePurchased }

func (e CertificatePurchased) Fields() []uint64 {
	c := e.Certificate
	return []uint64{
		c.Owner[0],
		c.Owner[1],
		c.ID,
		c.ProductTypeID,
		c.Principal,
		c.PurchaseTime,
		c.MaturityTime,
		c.LockedAPYBasisPoints,
		e.TxID,
	}
}

func (e CertificatePurchased) Event() *types.Event {
	c := e.Certificate
	return &types.Event{
		Type: TypeCertificatePurchased,
		Attributes: map[string]string{
			"owner":        identityAttr(c.Owner),
			"certificate":  uintToString(c.ID),
			"product":      uintToString(c.ProductTypeID),
			"principal":    uintToString(c.Principal),
			"purchaseTime": uintToString(c.PurchaseTime),
			"maturityTime": uintToString(c.MaturityTime),
			"lockedApyBps": uintToString(c.LockedAPYBasisPoints),
			"txId":         uintToString(e.TxID),
		},
	}
}

// InterestClaimed carries the amount actually credited, not the requested one.
type InterestClaimed struct {
	Owner         ledger.Identity
	CertificateID uint64
	Amount        uint64
	TxID          uint64
	Tick          uint64
}

func (InterestClaimed) EventType() string { return TypeInterestClaimed }

func (InterestClaimed) WireType() uint32 { return WireInterestClaimed }

func (e InterestClaimed) Fields() []uint64 {
	return []uint64{e.Owner[0], e.Owner[1], e.CertificateID, e.Amount, e.TxID, e.Tick}
}

func (e InterestClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeInterestClaimed,
		Attributes: map[string]string{
			"owner":       identityAttr(e.Owner),
			"certificate": uintToString(e.CertificateID),
			"amount":      uintToString(e.Amount),
			"txId":        uintToString(e.TxID),
			"tick":        uintToString(e.Tick),
		},
	}
}

// PrincipalRedeemed captures a matured certificate's principal returning to
// idle funds.
type PrincipalRedeemed struct {
	Owner         ledger.Identity
	CertificateID uint64
	Amount        uint64
	TxID          uint64
	Tick          uint64
}

func (PrincipalRedeemed) EventType() string { return TypePrincipalRedeemed }

func (PrincipalRedeemed) WireType() uint32 { return WirePrincipalRedeemed }

func (e PrincipalRedeemed) Fields() []uint64 {
	return []uint64{e.Owner[0], e.Owner[1], e.CertificateID, e.Amount, e.TxID, e.Tick}
}

func (e PrincipalRedeemed) Event() *types.Event {
	return &types.Event{
		Type: TypePrincipalRedeemed,
		Attributes: map[string]string{
			"owner":       identityAttr(e.Owner),
			"certificate": uintToString(e.CertificateID),
			"amount":      uintToString(e.Amount),
			"txId":        uintToString(e.TxID),
			"tick":        uintToString(e.Tick),
		},
	}
}
