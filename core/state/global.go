package state

// GlobalState is the single system-wide record every handler reads and most
// mutate. It is loaded once per command, staged in memory and written back
// only when the command commits.
type GlobalState struct {
	// Counter is the monotonic tick; only the tick command advances it.
	Counter      uint64
	TotalPlayers uint64
	// TotalFunds tracks externally-deposited funds not yet withdrawn
	// externally, whether idle or locked in certificates.
	TotalFunds uint64
	TxSize     uint64
	TxCounter  uint64
	// ProductTypeCounter and CertificateCounter assign the next sequential
	// ids; both start at 1 since id 0 is the reserved recharge product.
	ProductTypeCounter uint64
	CertificateCounter uint64
	ReserveRatioBps    uint64
	// CumulativeAdminWithdrawals tracks surplus sent to the multisig.
	CumulativeAdminWithdrawals uint64
	// InterestClaimed accumulates all interest ever paid out.
	InterestClaimed uint64
	// TotalRechargeAmount tracks admin-sourced funds backing certificates
	// through the recharge product.
	TotalRechargeAmount uint64
}

// DefaultReserveRatioBps is the reserve applied before the admin configures
// one: 10%.
const DefaultReserveRatioBps = 1000

func newGlobalState() *GlobalState {
	return &GlobalState{
		ProductTypeCounter: 1,
		CertificateCounter: 1,
		ReserveRatioBps:    DefaultReserveRatioBps,
	}
}

// Clone returns an independent copy safe to mutate before commit.
func (g *GlobalState) Clone() *GlobalState {
	if g == nil {
		return nil
	}
	out := *g
	return &out
}

// GetGlobal loads the global record, falling back to the genesis defaults
// when the store is empty.
func (m *Manager) GetGlobal() (*GlobalState, error) {
	stored := new(GlobalState)
	found, err := m.get(globalStateKey, stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return newGlobalState(), nil
	}
	return stored, nil
}

// PutGlobal persists the global record.
func (m *Manager) PutGlobal(global *GlobalState) error {
	return m.put(globalStateKey, global)
}
