// Package devnet implements a small in-memory ledger node that speaks the
// same HTTP API as a real node. It backs local standalone runs and the
// end-to-end sweep tests.
package devnet

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/spacemeshos/smh-collector/internal/ledger"
	klog "github.com/spacemeshos/smh-collector/internal/log"
	"github.com/spacemeshos/smh-collector/pkg/crypto"
	"github.com/spacemeshos/smh-collector/pkg/tx"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// Submission errors.
var (
	ErrMalformed         = errors.New("malformed transaction")
	ErrBadSignature      = errors.New("invalid signature")
	ErrBadNonce          = errors.New("unexpected nonce")
	ErrNotSpawned        = errors.New("principal not spawned")
	ErrAlreadySpawned    = errors.New("principal already spawned")
	ErrPrincipalMismatch = errors.New("principal does not match public key")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyExists     = errors.New("transaction already known")
)

// account is the ledger's view of one principal.
type account struct {
	counter   uint64
	balance   sdkmath.Uint
	publicKey []byte // Set once the spawn is applied.

	// Projected values include mempool transactions.
	projCounter uint64
	projBalance sdkmath.Uint
	spawnQueued bool
}

// record is a submitted transaction.
type record struct {
	id    string
	raw   []byte
	tx    *tx.Transaction
	fee   sdkmath.Uint
	state ledger.TxState
	res   *ledger.TxResult
}

// Options configures a Ledger.
type Options struct {
	// Fees charged per transaction. Nil means tx.DefaultFees.
	Fees *tx.FeeSchedule
	// LayerEvery applies a layer after every N transaction list requests.
	// Zero disables automatic layers; call ApplyLayer instead.
	LayerEvery int
}

// Ledger is an in-memory account ledger with a FIFO mempool.
type Ledger struct {
	mu       sync.Mutex
	builder  *tx.Builder
	hrp      string
	fees     tx.FeeSchedule
	accounts map[types.Address]*account
	txs      map[string]*record
	mempool  []string
	layer    uint32

	layerEvery int
	listCalls  int

	// Reject, when set, is consulted before a transaction is accepted.
	// A non-nil error fails the submission.
	reject func(*tx.Transaction) error

	logger zerolog.Logger
}

// New creates an empty ledger for the given genesis ID and address HRP.
func New(genesis types.GenesisID, hrp string, opts Options) *Ledger {
	fees := tx.DefaultFees()
	if opts.Fees != nil {
		fees = *opts.Fees
	}
	return &Ledger{
		builder:    tx.NewBuilder(genesis),
		hrp:        hrp,
		fees:       fees,
		accounts:   make(map[types.Address]*account),
		txs:        make(map[string]*record),
		layerEvery: opts.LayerEvery,
		logger:     klog.WithComponent("devnet"),
	}
}

// HRP returns the address prefix this ledger accepts.
func (l *Ledger) HRP() string {
	return l.hrp
}

// GenesisID returns the genesis ID signatures must be bound to.
func (l *Ledger) GenesisID() types.GenesisID {
	return l.builder.GenesisID()
}

// SetRejectHook installs a hook that can refuse submissions.
func (l *Ledger) SetRejectHook(fn func(*tx.Transaction) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reject = fn
}

// Fund credits amount to addr, creating the account if needed.
func (l *Ledger) Fund(addr types.Address, amount sdkmath.Uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.getOrCreate(addr)
	acc.balance = acc.balance.Add(amount)
	acc.projBalance = acc.projBalance.Add(amount)
}

// SetCounters overrides an account's nonce counters. Used to model
// accounts that were spawned or that have pending transactions elsewhere.
func (l *Ledger) SetCounters(addr types.Address, current, projected uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.getOrCreate(addr)
	acc.counter = current
	acc.projCounter = projected
}

// MarkSpawned records publicKey as the owner of addr, as if its spawn had
// already been applied.
func (l *Ledger) MarkSpawned(addr types.Address, publicKey []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.getOrCreate(addr)
	acc.publicKey = append([]byte(nil), publicKey...)
	if acc.counter == 0 {
		acc.counter = 1
	}
	if acc.projCounter < acc.counter {
		acc.projCounter = acc.counter
	}
}

func (l *Ledger) getOrCreate(addr types.Address) *account {
	acc, ok := l.accounts[addr]
	if !ok {
		acc = &account{balance: sdkmath.ZeroUint(), projBalance: sdkmath.ZeroUint()}
		l.accounts[addr] = acc
	}
	return acc
}

// Balance returns the confirmed balance of addr.
func (l *Ledger) Balance(addr types.Address) sdkmath.Uint {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[addr]; ok {
		return acc.balance
	}
	return sdkmath.ZeroUint()
}

// Transaction returns a submitted transaction and its current state.
func (l *Ledger) Transaction(id string) (*tx.Transaction, ledger.TxState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.txs[id]
	if !ok {
		return nil, ledger.TxStateUnspecified, false
	}
	return rec.tx, rec.state, true
}

// Submitted returns the number of accepted transactions.
func (l *Ledger) Submitted() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.txs)
}

// Submit validates a signed transaction and queues it in the mempool.
func (l *Ledger) Submit(raw []byte) (string, error) {
	t, _, err := tx.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.reject != nil {
		if err := l.reject(t); err != nil {
			return "", err
		}
	}

	h := crypto.Hash(raw)
	id := base64.StdEncoding.EncodeToString(h[:])
	if _, exists := l.txs[id]; exists {
		return "", ErrAlreadyExists
	}

	acc := l.getOrCreate(t.Principal)
	fee := l.fees.Spend
	cost := sdkmath.NewUint(t.Amount)

	switch t.Kind() {
	case tx.KindSpawn:
		if acc.publicKey != nil || acc.spawnQueued {
			return "", ErrAlreadySpawned
		}
		if crypto.ComputePrincipal(tx.WalletTemplate, t.PublicKey) != t.Principal {
			return "", ErrPrincipalMismatch
		}
		if err := l.builder.Verify(raw, t.PublicKey); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadSignature, err)
		}
		fee = l.fees.Spawn
		cost = sdkmath.ZeroUint()
	case tx.KindSpend:
		if acc.publicKey == nil {
			return "", ErrNotSpawned
		}
		if err := l.builder.Verify(raw, acc.publicKey); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadSignature, err)
		}
	}

	if t.Nonce != acc.projCounter {
		return "", fmt.Errorf("%w: got %d, want %d", ErrBadNonce, t.Nonce, acc.projCounter)
	}
	total := cost.Add(fee)
	if acc.projBalance.LT(total) {
		return "", fmt.Errorf("%w: balance %s, need %s", ErrInsufficientFunds, acc.projBalance, total)
	}

	acc.projCounter++
	acc.projBalance = acc.projBalance.Sub(total)
	if t.Kind() == tx.KindSpawn {
		acc.spawnQueued = true
	}

	l.txs[id] = &record{id: id, raw: raw, tx: t, fee: fee, state: ledger.TxStateMempool}
	l.mempool = append(l.mempool, id)

	l.logger.Debug().
		Str("id", id).
		Str("kind", t.Kind().String()).
		Uint64("nonce", t.Nonce).
		Msg("Transaction accepted")
	return id, nil
}

// ApplyLayer executes every mempool transaction in arrival order and
// returns how many were applied.
func (l *Ledger) ApplyLayer() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLayerLocked()
}

func (l *Ledger) applyLayerLocked() int {
	l.layer++
	applied := 0
	for _, id := range l.mempool {
		rec := l.txs[id]
		l.apply(rec)
		applied++
	}
	l.mempool = l.mempool[:0]
	if applied > 0 {
		l.logger.Debug().Uint32("layer", l.layer).Int("txs", applied).Msg("Layer applied")
	}
	return applied
}

func (l *Ledger) apply(rec *record) {
	t := rec.tx
	acc := l.getOrCreate(t.Principal)
	touched := []types.Address{t.Principal}

	amount := sdkmath.NewUint(t.Amount)
	total := rec.fee.Add(amount)
	if acc.balance.LT(total) {
		rec.state = ledger.TxStateInsufficientFunds
		return
	}

	acc.balance = acc.balance.Sub(total)
	acc.counter = t.Nonce + 1
	switch t.Kind() {
	case tx.KindSpawn:
		acc.publicKey = append([]byte(nil), t.PublicKey...)
		acc.spawnQueued = false
	case tx.KindSpend:
		dst := l.getOrCreate(t.Destination)
		dst.balance = dst.balance.Add(amount)
		dst.projBalance = dst.projBalance.Add(amount)
		touched = append(touched, t.Destination)
	}

	rec.state = ledger.TxStateProcessed
	rec.res = &ledger.TxResult{
		Status:      "TRANSACTION_STATUS_SUCCESS",
		GasConsumed: ledger.Decimal(rec.fee.String()),
		Fee:         ledger.Decimal(rec.fee.String()),
		Layer:       l.layer,
	}
	for _, a := range touched {
		if s, err := a.Encode(l.hrp); err == nil {
			rec.res.TouchedAddresses = append(rec.res.TouchedAddresses, s)
		}
	}
}

// SetState forces the state of a transaction, removing it from the
// mempool. It models node-side failures such as rejection.
func (l *Ledger) SetState(id string, state ledger.TxState, message string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.txs[id]
	if !ok {
		return false
	}
	rec.state = state
	if message != "" {
		rec.res = &ledger.TxResult{Status: "TRANSACTION_STATUS_FAILURE", Message: message}
	}
	for i, mid := range l.mempool {
		if mid == id {
			l.mempool = append(l.mempool[:i], l.mempool[i+1:]...)
			break
		}
	}
	return true
}

// Accounts returns the state of every known address among addrs, in
// request order. Unknown addresses are omitted.
func (l *Ledger) Accounts(addrs []string) ([]ledger.AccountState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ledger.AccountState, 0, len(addrs))
	for _, s := range addrs {
		addr, err := types.ParseAddress(s, l.hrp)
		if err != nil {
			return nil, err
		}
		acc, ok := l.accounts[addr]
		if !ok {
			continue
		}
		out = append(out, ledger.AccountState{
			Address:   s,
			Current:   ledger.Snapshot{Counter: acc.counter, Balance: acc.balance},
			Projected: ledger.Snapshot{Counter: acc.projCounter, Balance: acc.projBalance},
		})
	}
	return out, nil
}

// Lookup returns the known transactions among ids. A layer is applied
// first when the automatic layer cadence is due.
func (l *Ledger) Lookup(ids []string) []ledger.TransactionInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.listCalls++
	if l.layerEvery > 0 && l.listCalls%l.layerEvery == 0 {
		l.applyLayerLocked()
	}

	out := make([]ledger.TransactionInfo, 0, len(ids))
	for _, id := range ids {
		rec, ok := l.txs[id]
		if !ok {
			continue
		}
		out = append(out, l.info(rec))
	}
	return out
}

func (l *Ledger) info(rec *record) ledger.TransactionInfo {
	t := rec.tx
	principal, _ := t.Principal.Encode(l.hrp)
	template, _ := tx.WalletTemplate.Encode(l.hrp)
	state := rec.state
	info := ledger.TransactionInfo{
		Tx: ledger.TxSummary{
			ID:        rec.id,
			Principal: principal,
			Template:  template,
			Method:    uint32(t.Method),
			Nonce:     ledger.TxNonce{Counter: ledger.Decimal(fmt.Sprint(t.Nonce))},
			GasPrice:  ledger.Decimal(fmt.Sprint(t.GasPrice)),
			MaxGas:    ledger.Decimal(rec.fee.String()),
			MaxSpend:  ledger.Decimal(fmt.Sprint(t.Amount)),
			Raw:       base64.StdEncoding.EncodeToString(rec.raw),
		},
		State: &state,
	}
	if rec.res != nil {
		res := *rec.res
		info.Result = &res
	}
	return info
}
