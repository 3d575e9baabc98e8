package state

import (
	"certledger/core/certificate"
)

type storedProductType struct {
	ID             uint64
	DurationTicks  uint64
	APYBasisPoints uint64
	MinAmount      uint64
	Active         bool
}

func newStoredProductType(p *certificate.ProductType) *storedProductType {
	return &storedProductType{
		ID:             p.ID,
		DurationTicks:  p.DurationTicks,
		APYBasisPoints: p.APYBasisPoints,
		MinAmount:      p.MinAmount,
		Active:         p.Active,
	}
}

func (s *storedProductType) toProductType() *certificate.ProductType {
	return &certificate.ProductType{
		ID:             s.ID,
		DurationTicks:  s.DurationTicks,
		APYBasisPoints: s.APYBasisPoints,
		MinAmount:      s.MinAmount,
		Active:         s.Active,
	}
}

// GetProductType loads a catalog entry, or (nil, nil) when absent. The
// reserved recharge product id resolves to its fixed virtual definition and
// never hits storage.
func (m *Manager) GetProductType(id uint64) (*certificate.ProductType, error) {
	if id == certificate.RechargeProductID {
		return certificate.RechargeProduct(), nil
	}
	stored := new(storedProductType)
	found, err := m.get(productKey(id), stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return stored.toProductType(), nil
}

// PutProductType persists a catalog entry.
func (m *Manager) PutProductType(product *certificate.ProductType) error {
	return m.put(productKey(product.ID), newStoredProductType(product))
}
