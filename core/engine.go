package core

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"certledger/core/certificate"
	"certledger/core/events"
	"certledger/core/ledger"
	"certledger/core/safemath"
	"certledger/core/settlement"
	"certledger/core/state"
)

const (
	// DefaultSecondsPerTick is the platform's fixed tick length.
	DefaultSecondsPerTick = 5

	// PointsDivisor converts withdrawal units into raw points.
	PointsDivisor = 17_280
	// MinPointsWithdrawal is the smallest unit count a points withdrawal may
	// request.
	MinPointsWithdrawal = 1

	// Batch preemption thresholds: the host is asked to seal a batch every
	// preemptInterval ticks or once either accumulator fills.
	preemptInterval       = 600
	preemptTxThreshold    = 40
	preemptQueueThreshold = 40
)

// Params carries the static engine configuration injected by the host.
type Params struct {
	SecondsPerTick  uint64
	AdminKey        [4]uint64
	MultisigAddress [20]byte
}

// Engine applies commands one at a time against the ledger state. It performs
// no internal concurrency; the driver guarantees sequential execution.
type Engine struct {
	state      *state.Manager
	emitter    events.Emitter
	settlement *settlement.Queue
	params     Params
}

// NewEngine wires the engine to its persistence, event and settlement
// collaborators.
func NewEngine(st *state.Manager, emitter events.Emitter, queue *settlement.Queue, params Params) *Engine {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if queue == nil {
		queue = settlement.NewQueue()
	}
	if params.SecondsPerTick == 0 {
		params.SecondsPerTick = DefaultSecondsPerTick
	}
	return &Engine{
		state:      st,
		emitter:    emitter,
		settlement: queue,
		params:     params,
	}
}

// IdentityFromKey derives the 128-bit account identity from a caller public
// key by hashing its four limbs.
func IdentityFromKey(key [4]uint64) ledger.Identity {
	var buf [32]byte
	for i, limb := range key {
		binary.BigEndian.PutUint64(buf[8*i:], limb)
	}
	digest := ethcrypto.Keccak256(buf[:])
	return ledger.Identity{
		binary.BigEndian.Uint64(digest[:8]),
		binary.BigEndian.Uint64(digest[8:16]),
	}
}

// Receipt reports a command's outcome: the stable error code and tag from the
// closed taxonomy, and the transaction id assigned on success.
type Receipt struct {
	TxID uint64
	Code uint32
	Tag  string
}

// Execute decodes, authorizes and applies a single command. Either every
// state mutation commits, or the store is left byte-identical and the error's
// stable code is reported in the receipt.
func (e *Engine) Execute(caller [4]uint64, env Envelope) (Receipt, error) {
	cmd, err := DecodeCommand(env)
	if err != nil {
		return e.receipt(0, err)
	}

	isAdmin := caller == e.params.AdminKey
	switch cmd.(type) {
	case TickCommand, DepositCommand, CreateProductTypeCommand,
		ModifyProductTypeCommand, AdminWithdrawCommand, SetReserveRatioCommand:
		if !isAdmin {
			return e.receipt(0, ErrUnauthorized)
		}
	}

	id := IdentityFromKey(caller)
	var txID uint64
	switch c := cmd.(type) {
	case TickCommand:
		err = e.handleTick()
	case InstallPlayerCommand:
		txID, err = e.handleInstall(id)
	case WithdrawCommand:
		txID, err = e.handleWithdraw(id, env.Nonce, c)
	case DepositCommand:
		txID, err = e.handleDeposit(id, env.Nonce, c)
	case WithdrawPointsCommand:
		if isAdmin {
			txID, err = e.handleAdminWithdrawPoints(id, env.Nonce, c)
		} else {
			txID, err = e.handleWithdrawPoints(id, env.Nonce, c)
		}
	case CreateProductTypeCommand:
		txID, err = e.handleCreateProductType(id, env.Nonce, c)
	case ModifyProductTypeCommand:
		txID, err = e.handleModifyProductType(id, env.Nonce, c)
	case PurchaseCertificateCommand:
		txID, err = e.handlePurchase(id, env.Nonce, c)
	case ClaimInterestCommand:
		txID, err = e.handleClaim(id, env.Nonce, c)
	case RedeemPrincipalCommand:
		txID, err = e.handleRedeem(id, env.Nonce, c)
	case AdminWithdrawCommand:
		txID, err = e.handleAdminWithdraw(id, env.Nonce, c)
	case SetReserveRatioCommand:
		txID, err = e.handleSetReserveRatio(id, env.Nonce, c)
	default:
		err = ErrUnknownOpcode
	}
	return e.receipt(txID, err)
}

func (e *Engine) receipt(txID uint64, err error) (Receipt, error) {
	code, tag := ErrorCode(err)
	return Receipt{TxID: txID, Code: code, Tag: tag}, err
}

// commit finishes a successful non-tick command: it advances the transaction
// counters, persists the staged records and only then runs the emit callback
// with the assigned transaction id. Persistence happens strictly after all
// validation, so a rejected command never touches the store.
func (e *Engine) commit(global *state.GlobalState, persist func() error, after func(txID uint64)) error {
	txSize, err := safemath.Add(global.TxSize, 1)
	if err != nil {
		return err
	}
	txCounter, err := safemath.Add(global.TxCounter, 1)
	if err != nil {
		return err
	}
	global.TxSize = txSize
	global.TxCounter = txCounter
	if persist != nil {
		if err := persist(); err != nil {
			return err
		}
	}
	if err := e.state.PutGlobal(global); err != nil {
		return err
	}
	txID := txIdentifier(global)
	if after != nil {
		after(txID)
	}
	return nil
}

func txIdentifier(global *state.GlobalState) uint64 {
	return global.Counter<<32 + global.TxCounter
}

// loadAccount fetches the caller's account and verifies the envelope nonce.
func (e *Engine) loadAccount(id ledger.Identity, nonce uint64) (*ledger.Account, error) {
	account, err := e.state.GetAccount(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ledger.ErrNotFound
	}
	if err := account.CheckNonce(nonce); err != nil {
		return nil, err
	}
	return account, nil
}

func (e *Engine) handleTick() error {
	global, err := e.state.GetGlobal()
	if err != nil {
		return err
	}
	counter, err := safemath.Add(global.Counter, 1)
	if err != nil {
		return err
	}
	global.Counter = counter
	return e.state.PutGlobal(global)
}

func (e *Engine) handleInstall(id ledger.Identity) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	exists, err := e.state.HasAccount(id)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ledger.ErrAlreadyExists
	}
	players, err := safemath.Add(global.TotalPlayers, 1)
	if err != nil {
		return 0, err
	}
	global.TotalPlayers = players

	account := ledger.NewAccount(id)
	var txID uint64
	err = e.commit(global, func() error {
		return e.state.PutAccount(account)
	}, func(tx uint64) { txID = tx })
	return txID, err
}

func (e *Engine) handleDeposit(adminID ledger.Identity, nonce uint64, cmd DepositCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	admin, err := e.loadAccount(adminID, nonce)
	if err != nil {
		return 0, err
	}
	if cmd.Amount == 0 {
		return 0, ErrInvalidAmount
	}

	target := admin
	if cmd.Target != adminID {
		target, err = e.state.GetAccount(cmd.Target)
		if err != nil {
			return 0, err
		}
		if target == nil {
			return 0, ledger.ErrNotFound
		}
	}
	if err := target.CreditIdle(cmd.Amount); err != nil {
		return 0, err
	}
	funds, err := safemath.Add(global.TotalFunds, cmd.Amount)
	if err != nil {
		return 0, err
	}
	global.TotalFunds = funds
	if err := admin.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		if err := e.state.PutAccount(target); err != nil {
			return err
		}
		if target != admin {
			return e.state.PutAccount(admin)
		}
		return nil
	}, func(tx uint64) {
		txID = tx
		e.emitter.Emit(events.Deposit{
			Target: cmd.Target,
			Amount: cmd.Amount,
			TxID:   tx,
			Tick:   global.Counter,
		})
	})
	return txID, err
}

func (e *Engine) handleWithdraw(id ledger.Identity, nonce uint64, cmd WithdrawCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	account, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	if cmd.Amount == 0 {
		return 0, ErrInvalidAmount
	}
	if err := account.DebitIdle(cmd.Amount); err != nil {
		return 0, err
	}
	funds, err := safemath.Sub(global.TotalFunds, cmd.Amount)
	if err != nil {
		return 0, err
	}
	global.TotalFunds = funds
	if err := account.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		return e.state.PutAccount(account)
	}, func(tx uint64) {
		txID = tx
		e.settlement.Append(settlement.Intent{
			Address:    cmd.Address,
			Amount:     cmd.Amount,
			TokenIndex: settlement.TokenFunds,
		})
		e.emitter.Emit(events.Withdrawal{
			Account: id,
			Amount:  cmd.Amount,
			Address: cmd.Address,
			TxID:    tx,
			Tick:    global.Counter,
		})
	})
	return txID, err
}

func (e *Engine) handleWithdrawPoints(id ledger.Identity, nonce uint64, cmd WithdrawPointsCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	account, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	if cmd.Units == 0 {
		return 0, ErrInvalidPointsAmount
	}
	if cmd.Units < MinPointsWithdrawal {
		return 0, ErrPointsAmountTooSmall
	}
	required, err := safemath.Mul(cmd.Units, PointsDivisor)
	if err != nil {
		return 0, err
	}
	if err := account.DebitPoints(required); err != nil {
		return 0, err
	}
	if err := account.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		return e.state.PutAccount(account)
	}, func(tx uint64) {
		txID = tx
		e.settlement.Append(settlement.Intent{
			Address:    cmd.Address,
			Amount:     cmd.Units,
			TokenIndex: settlement.TokenPoints,
		})
		e.emitter.Emit(events.PointsWithdrawal{
			Account:     id,
			Units:       cmd.Units,
			PointsSpent: required,
			Address:     cmd.Address,
			TxID:        tx,
			Tick:        global.Counter,
		})
	})
	return txID, err
}

// handleAdminWithdrawPoints settles points for the admin without balance
// checks; the admin's points ledger lives outside the engine.
func (e *Engine) handleAdminWithdrawPoints(id ledger.Identity, nonce uint64, cmd WithdrawPointsCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	admin, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	if err := admin.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		return e.state.PutAccount(admin)
	}, func(tx uint64) {
		txID = tx
		e.settlement.Append(settlement.Intent{
			Address:    cmd.Address,
			Amount:     cmd.Units,
			TokenIndex: settlement.TokenPoints,
		})
		e.emitter.Emit(events.PointsWithdrawal{
			Account: id,
			Units:   cmd.Units,
			Address: cmd.Address,
			TxID:    tx,
			Tick:    global.Counter,
		})
	})
	return txID, err
}

func (e *Engine) handleCreateProductType(id ledger.Identity, nonce uint64, cmd CreateProductTypeCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	admin, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	if err := certificate.ValidateProductParams(cmd.DurationTicks, cmd.APYBasisPoints, cmd.MinAmount); err != nil {
		return 0, err
	}
	productID := global.ProductTypeCounter
	nextID, err := safemath.Add(productID, 1)
	if err != nil {
		return 0, err
	}
	global.ProductTypeCounter = nextID

	product := &certificate.ProductType{
		ID:             productID,
		DurationTicks:  cmd.DurationTicks,
		APYBasisPoints: cmd.APYBasisPoints,
		MinAmount:      cmd.MinAmount,
		Active:         cmd.Active,
	}
	if err := admin.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		if err := e.state.PutProductType(product); err != nil {
			return err
		}
		return e.state.PutAccount(admin)
	}, func(tx uint64) {
		txID = tx
		e.emitter.Emit(events.ProductTypeCreated{Product: *product, TxID: tx})
	})
	return txID, err
}

func (e *Engine) handleModifyProductType(id ledger.Identity, nonce uint64, cmd ModifyProductTypeCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	admin, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	product, err := e.state.GetProductType(cmd.ProductTypeID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, certificate.ErrProductNotFound
	}
	if err := certificate.ValidateProductParams(cmd.DurationTicks, cmd.APYBasisPoints, cmd.MinAmount); err != nil {
		return 0, err
	}
	product.APYBasisPoints = cmd.APYBasisPoints
	product.DurationTicks = cmd.DurationTicks
	product.MinAmount = cmd.MinAmount
	product.Active = cmd.Active
	if err := admin.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		if err := e.state.PutProductType(product); err != nil {
			return err
		}
		return e.state.PutAccount(admin)
	}, func(tx uint64) {
		txID = tx
		e.emitter.Emit(events.ProductTypeModified{Product: *product, TxID: tx})
	})
	return txID, err
}

func (e *Engine) handlePurchase(id ledger.Identity, nonce uint64, cmd PurchaseCertificateCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	account, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	if cmd.Amount < certificate.MinPrincipal || cmd.Amount > certificate.MaxPrincipal {
		return 0, certificate.ErrInvalidPrincipal
	}
	product, err := e.state.GetProductType(cmd.ProductTypeID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, certificate.ErrProductNotFound
	}
	if !product.Active {
		return 0, certificate.ErrProductInactive
	}
	if cmd.Amount < product.MinAmount {
		return 0, certificate.ErrPrincipalTooSmall
	}
	if err := account.DebitIdle(cmd.Amount); err != nil {
		return 0, err
	}

	certID := global.CertificateCounter
	nextID, err := safemath.Add(certID, 1)
	if err != nil {
		return 0, err
	}
	global.CertificateCounter = nextID

	cert, err := certificate.New(certID, id, product, cmd.Amount, global.Counter)
	if err != nil {
		return 0, err
	}

	if cmd.ProductTypeID == certificate.RechargeProductID {
		// Recharge purchases convert user principal into admin-sourced
		// backing: the amount moves out of the external-deposit total.
		funds, err := safemath.Sub(global.TotalFunds, cmd.Amount)
		if err != nil {
			return 0, err
		}
		recharge, err := safemath.Add(global.TotalRechargeAmount, cmd.Amount)
		if err != nil {
			return 0, err
		}
		global.TotalFunds = funds
		global.TotalRechargeAmount = recharge
	}
	if err := account.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		if err := e.state.PutCertificate(cert); err != nil {
			return err
		}
		return e.state.PutAccount(account)
	}, func(tx uint64) {
		txID = tx
		e.emitter.Emit(events.CertificatePurchased{Certificate: *cert, TxID: tx})
	})
	return txID, err
}

// loadOwnedCertificate resolves a certificate for the caller, distinguishing
// an id that was never issued from one owned by someone else.
func (e *Engine) loadOwnedCertificate(id ledger.Identity, certID uint64) (*certificate.Certificate, error) {
	cert, err := e.state.GetCertificate(id, certID)
	if err != nil {
		return nil, err
	}
	if cert != nil {
		return cert, nil
	}
	_, issued, err := e.state.CertificateOwner(certID)
	if err != nil {
		return nil, err
	}
	if !issued {
		return nil, certificate.ErrNotFound
	}
	return nil, certificate.ErrNotOwned
}

func (e *Engine) handleClaim(id ledger.Identity, nonce uint64, cmd ClaimInterestCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	account, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	cert, err := e.loadOwnedCertificate(id, cmd.CertificateID)
	if err != nil {
		return 0, err
	}
	amount, err := cert.Claim(global.Counter, e.params.SecondsPerTick)
	if err != nil {
		return 0, err
	}
	if err := account.CreditIdle(amount); err != nil {
		return 0, err
	}
	claimed, err := safemath.Add(global.InterestClaimed, amount)
	if err != nil {
		return 0, err
	}
	global.InterestClaimed = claimed
	if err := account.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		if err := e.state.PutCertificate(cert); err != nil {
			return err
		}
		return e.state.PutAccount(account)
	}, func(tx uint64) {
		txID = tx
		e.emitter.Emit(events.InterestClaimed{
			Owner:         id,
			CertificateID: cert.ID,
			Amount:        amount,
			TxID:          tx,
			Tick:          global.Counter,
		})
	})
	return txID, err
}

func (e *Engine) handleRedeem(id ledger.Identity, nonce uint64, cmd RedeemPrincipalCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	account, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	cert, err := e.loadOwnedCertificate(id, cmd.CertificateID)
	if err != nil {
		return 0, err
	}
	principal, err := cert.Redeem(global.Counter)
	if err != nil {
		return 0, err
	}
	if err := account.CreditIdle(principal); err != nil {
		return 0, err
	}
	if err := account.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		if err := e.state.PutCertificate(cert); err != nil {
			return err
		}
		return e.state.PutAccount(account)
	}, func(tx uint64) {
		txID = tx
		e.emitter.Emit(events.PrincipalRedeemed{
			Owner:         id,
			CertificateID: cert.ID,
			Amount:        principal,
			TxID:          tx,
			Tick:          global.Counter,
		})
	})
	return txID, err
}

// adminAvailable computes how much system-level surplus the admin may move to
// the multisig: deposits plus recharge backing, minus what was already taken,
// minus the reserve protecting user redeemability. Underflows floor at zero.
func adminAvailable(global *state.GlobalState) (uint64, error) {
	reserveNumerator, err := safemath.Mul(global.TotalFunds, global.ReserveRatioBps)
	if err != nil {
		return 0, err
	}
	reserve, err := safemath.Div(reserveNumerator, safemath.BasisPointsDivisor)
	if err != nil {
		return 0, err
	}
	base, err := safemath.Add(global.TotalFunds, global.TotalRechargeAmount)
	if err != nil {
		return 0, err
	}
	if global.CumulativeAdminWithdrawals >= base {
		return 0, nil
	}
	remaining := base - global.CumulativeAdminWithdrawals
	if reserve >= remaining {
		return 0, nil
	}
	return remaining - reserve, nil
}

func (e *Engine) handleAdminWithdraw(id ledger.Identity, nonce uint64, cmd AdminWithdrawCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	admin, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	if cmd.Amount == 0 {
		return 0, ErrInvalidAmount
	}
	available, err := adminAvailable(global)
	if err != nil {
		return 0, err
	}
	if cmd.Amount > available {
		return 0, ledger.ErrInsufficientBalance
	}
	withdrawn, err := safemath.Add(global.CumulativeAdminWithdrawals, cmd.Amount)
	if err != nil {
		return 0, err
	}
	global.CumulativeAdminWithdrawals = withdrawn
	if err := admin.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		return e.state.PutAccount(admin)
	}, func(tx uint64) {
		txID = tx
		e.settlement.Append(settlement.Intent{
			Address:    e.params.MultisigAddress,
			Amount:     cmd.Amount,
			TokenIndex: settlement.TokenFunds,
		})
		e.emitter.Emit(events.AdminWithdrawal{
			Amount: cmd.Amount,
			TxID:   tx,
			Tick:   global.Counter,
		})
	})
	return txID, err
}

func (e *Engine) handleSetReserveRatio(id ledger.Identity, nonce uint64, cmd SetReserveRatioCommand) (uint64, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return 0, err
	}
	admin, err := e.loadAccount(id, nonce)
	if err != nil {
		return 0, err
	}
	if cmd.RatioBasisPoints > safemath.BasisPointsDivisor {
		return 0, ErrInvalidReserveRatio
	}
	global.ReserveRatioBps = cmd.RatioBasisPoints
	if err := admin.BumpNonce(); err != nil {
		return 0, err
	}

	var txID uint64
	err = e.commit(global, func() error {
		return e.state.PutAccount(admin)
	}, func(tx uint64) {
		txID = tx
		e.emitter.Emit(events.ReserveRatioChanged{
			RatioBasisPoints: cmd.RatioBasisPoints,
			TxID:             tx,
			Tick:             global.Counter,
		})
	})
	return txID, err
}

// Preempt reports whether the host should seal the current batch. The tx-size
// accumulator resets when it fires.
func (e *Engine) Preempt() (bool, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return false, err
	}
	if global.Counter%preemptInterval == 0 ||
		global.TxSize >= preemptTxThreshold ||
		e.settlement.Size() > preemptQueueThreshold {
		global.TxSize = 0
		if err := e.state.PutGlobal(global); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// FlushSettlement drains the pending settlement intents into the host's byte
// encoding.
func (e *Engine) FlushSettlement() []byte {
	return e.settlement.Flush()
}

// SettlementSize reports pending intents without draining.
func (e *Engine) SettlementSize() int {
	return e.settlement.Size()
}
