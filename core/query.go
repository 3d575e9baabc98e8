package core

import (
	"certledger/core/certificate"
	"certledger/core/ledger"
)

// Snapshot is the externally-visible slice of the global state.
type Snapshot struct {
	Counter                    uint64 `json:"counter"`
	TotalPlayers               uint64 `json:"totalPlayers"`
	TotalFunds                 uint64 `json:"totalFunds"`
	InterestClaimed            uint64 `json:"interestClaimed"`
	CumulativeAdminWithdrawals uint64 `json:"cumulativeAdminWithdrawals"`
	TotalRechargeAmount        uint64 `json:"totalRechargeAmount"`
	ReserveRatioBps            uint64 `json:"reserveRatioBps"`
}

// AccountView is the query shape for a single account.
type AccountView struct {
	Identity  string `json:"identity"`
	Nonce     uint64 `json:"nonce"`
	Points    uint64 `json:"points"`
	IdleFunds uint64 `json:"idleFunds"`
}

// PlayerState pairs the global snapshot with one account, the standard
// per-identity query response.
type PlayerState struct {
	Global  Snapshot    `json:"global"`
	Account AccountView `json:"account"`
}

// CertificateView is the query shape for a certificate. AvailableInterest is
// recomputed from the current tick on every call and never cached in the
// authoritative state; the status reflects the derived three-state view.
type CertificateView struct {
	ID                   uint64 `json:"id"`
	Owner                string `json:"owner"`
	ProductTypeID        uint64 `json:"productTypeId"`
	Principal            uint64 `json:"principal"`
	PurchaseTime         uint64 `json:"purchaseTime"`
	MaturityTime         uint64 `json:"maturityTime"`
	LockedAPYBasisPoints uint64 `json:"lockedApyBps"`
	TotalInterestClaimed uint64 `json:"totalInterestClaimed"`
	AvailableInterest    uint64 `json:"availableInterest"`
	Status               string `json:"status"`
}

// Snapshot returns the externally-visible global state.
func (e *Engine) Snapshot() (*Snapshot, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Counter:                    global.Counter,
		TotalPlayers:               global.TotalPlayers,
		TotalFunds:                 global.TotalFunds,
		InterestClaimed:            global.InterestClaimed,
		CumulativeAdminWithdrawals: global.CumulativeAdminWithdrawals,
		TotalRechargeAmount:        global.TotalRechargeAmount,
		ReserveRatioBps:            global.ReserveRatioBps,
	}, nil
}

// PlayerState returns the global snapshot together with the identity's
// account record.
func (e *Engine) PlayerState(id ledger.Identity) (*PlayerState, error) {
	snapshot, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	account, err := e.state.GetAccount(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ledger.ErrNotFound
	}
	return &PlayerState{
		Global: *snapshot,
		Account: AccountView{
			Identity:  account.ID.String(),
			Nonce:     account.Nonce,
			Points:    account.Points,
			IdleFunds: account.IdleFunds,
		},
	}, nil
}

// CertificateView resolves a certificate by id and derives its display state
// at the current tick.
func (e *Engine) CertificateView(certID uint64) (*CertificateView, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return nil, err
	}
	cert, err := e.state.CertificateByID(certID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, certificate.ErrNotFound
	}
	available, err := cert.AvailableInterest(global.Counter, e.params.SecondsPerTick)
	if err != nil {
		return nil, err
	}
	return &CertificateView{
		ID:                   cert.ID,
		Owner:                cert.Owner.String(),
		ProductTypeID:        cert.ProductTypeID,
		Principal:            cert.Principal,
		PurchaseTime:         cert.PurchaseTime,
		MaturityTime:         cert.MaturityTime,
		LockedAPYBasisPoints: cert.LockedAPYBasisPoints,
		TotalInterestClaimed: cert.TotalInterestClaimed,
		AvailableInterest:    available,
		Status:               cert.DisplayStatus(global.Counter).String(),
	}, nil
}

// ProductTypeView resolves a catalog entry, including the virtual recharge
// product.
func (e *Engine) ProductTypeView(id uint64) (*certificate.ProductType, error) {
	product, err := e.state.GetProductType(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, certificate.ErrProductNotFound
	}
	return product, nil
}
