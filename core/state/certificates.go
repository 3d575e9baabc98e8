package state

import (
	"certledger/core/certificate"
	"certledger/core/ledger"
)

type storedCertificate struct {
	ID                   uint64
	Owner0               uint64
	Owner1               uint64
	ProductTypeID        uint64
	Principal            uint64
	PurchaseTime         uint64
	MaturityTime         uint64
	LockedAPYBasisPoints uint64
	TotalInterestClaimed uint64
	Status               uint8
}

func newStoredCertificate(c *certificate.Certificate) *storedCertificate {
	return &storedCertificate{
		ID:                   c.ID,
		Owner0:               c.Owner[0],
		Owner1:               c.Owner[1],
		ProductTypeID:        c.ProductTypeID,
		Principal:            c.Principal,
		PurchaseTime:         c.PurchaseTime,
		MaturityTime:         c.MaturityTime,
		LockedAPYBasisPoints: c.LockedAPYBasisPoints,
		TotalInterestClaimed: c.TotalInterestClaimed,
		Status:               uint8(c.Status),
	}
}

func (s *storedCertificate) toCertificate() (*certificate.Certificate, error) {
	status := certificate.Status(s.Status)
	if !status.Valid() {
		return nil, certificate.ErrNotFound
	}
	return &certificate.Certificate{
		ID:                   s.ID,
		Owner:                ledger.Identity{s.Owner0, s.Owner1},
		ProductTypeID:        s.ProductTypeID,
		Principal:            s.Principal,
		PurchaseTime:         s.PurchaseTime,
		MaturityTime:         s.MaturityTime,
		LockedAPYBasisPoints: s.LockedAPYBasisPoints,
		TotalInterestClaimed: s.TotalInterestClaimed,
		Status:               status,
	}, nil
}

type storedCertOwner struct {
	Owner0 uint64
	Owner1 uint64
}

// GetCertificate loads a certificate under the given owner, or (nil, nil)
// when no such record exists for that owner. Ownership is part of the key, so
// a lookup with the wrong owner simply misses.
func (m *Manager) GetCertificate(owner ledger.Identity, id uint64) (*certificate.Certificate, error) {
	stored := new(storedCertificate)
	found, err := m.get(certificateKey(owner, id), stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return stored.toCertificate()
}

// PutCertificate persists a certificate and its id-to-owner index entry.
func (m *Manager) PutCertificate(cert *certificate.Certificate) error {
	if err := m.put(certificateKey(cert.Owner, cert.ID), newStoredCertificate(cert)); err != nil {
		return err
	}
	return m.put(certificateOwnerKey(cert.ID), &storedCertOwner{
		Owner0: cert.Owner[0],
		Owner1: cert.Owner[1],
	})
}

// CertificateOwner resolves the owner recorded for a certificate id, for
// id-only queries. Returns (zero, false, nil) when the id was never issued.
func (m *Manager) CertificateOwner(id uint64) (ledger.Identity, bool, error) {
	stored := new(storedCertOwner)
	found, err := m.get(certificateOwnerKey(id), stored)
	if err != nil || !found {
		return ledger.Identity{}, false, err
	}
	return ledger.Identity{stored.Owner0, stored.Owner1}, true, nil
}

// CertificateByID resolves a certificate through the id index.
func (m *Manager) CertificateByID(id uint64) (*certificate.Certificate, error) {
	owner, found, err := m.CertificateOwner(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return m.GetCertificate(owner, id)
}
