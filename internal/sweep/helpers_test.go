package sweep

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/spacemeshos/smh-collector/internal/ledger"
	"github.com/spacemeshos/smh-collector/internal/wallet"
	"github.com/spacemeshos/smh-collector/pkg/crypto"
	"github.com/spacemeshos/smh-collector/pkg/tx"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

var testGenesis = types.GenesisID{0x9e, 0xeb, 0xff, 0x02}

func noSleep(context.Context, time.Duration) error { return nil }

// testAccounts returns n accounts with fixed keys.
func testAccounts(t *testing.T, n int) []*wallet.DerivedAccount {
	t.Helper()
	out := make([]*wallet.DerivedAccount, n)
	for i := range out {
		seed := make([]byte, ed25519.SeedSize)
		seed[0] = byte(i + 1)
		acc, err := wallet.NewDerivedAccount(uint32(i), seed, types.StandaloneHRP)
		if err != nil {
			t.Fatalf("NewDerivedAccount(%d) error: %v", i, err)
		}
		out[i] = acc
	}
	return out
}

func testDestination(t *testing.T) types.Address {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 0xd5
	key, err := crypto.PrivateKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("PrivateKeyFromSeed() error: %v", err)
	}
	return crypto.ComputePrincipal(tx.WalletTemplate, key.PublicKey())
}

func state(addr string, counter, projected uint64, balance uint64) ledger.AccountState {
	return ledger.AccountState{
		Address:   addr,
		Current:   ledger.Snapshot{Counter: counter, Balance: sdkmath.NewUint(balance)},
		Projected: ledger.Snapshot{Counter: projected, Balance: sdkmath.NewUint(balance)},
	}
}

// fakeLedger is a scripted Ledger.
type fakeLedger struct {
	mu sync.Mutex

	accounts map[string]ledger.AccountState
	listErr  error

	// submitErr, when set, decides whether a submission fails.
	submitErr func(t *tx.Transaction) error
	// stateOf returns the state reported on the n-th poll (from 1) of t.
	stateOf func(t *tx.Transaction, poll int) ledger.TxState

	submitted []*tx.Transaction
	byID      map[string]*tx.Transaction
	polls     map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts: make(map[string]ledger.AccountState),
		byID:     make(map[string]*tx.Transaction),
		polls:    make(map[string]int),
	}
}

func (f *fakeLedger) set(s ledger.AccountState) {
	f.accounts[s.Address] = s
}

func (f *fakeLedger) ListAccounts(ctx context.Context, addresses []string) ([]ledger.AccountState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []ledger.AccountState
	for _, a := range addresses {
		if s, ok := f.accounts[a]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLedger) SubmitTransaction(ctx context.Context, raw []byte) (string, error) {
	t, _, err := tx.Decode(raw)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		if err := f.submitErr(t); err != nil {
			return "", err
		}
	}
	id := fmt.Sprintf("tx-%d", len(f.submitted))
	f.submitted = append(f.submitted, t)
	f.byID[id] = t
	return id, nil
}

func (f *fakeLedger) ListTransactions(ctx context.Context, ids []string) ([]ledger.TransactionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.TransactionInfo
	for _, id := range ids {
		t, ok := f.byID[id]
		if !ok {
			continue
		}
		f.polls[id]++
		st := ledger.TxStateProcessed
		if f.stateOf != nil {
			st = f.stateOf(t, f.polls[id])
		}
		out = append(out, ledger.TransactionInfo{Tx: ledger.TxSummary{ID: id}, State: &st})
	}
	return out, nil
}

func (f *fakeLedger) transactions() []*tx.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*tx.Transaction(nil), f.submitted...)
}

func testParams(t *testing.T) Params {
	return Params{
		Builder:     tx.NewBuilder(testGenesis),
		Destination: testDestination(t),
		Fees:        tx.DefaultFees(),
		LayerTime:   DefaultLayerTime,
		BatchSize:   DefaultBatchSize,
	}
}

func newTestOrchestrator(t *testing.T, l Ledger, p Params) *Orchestrator {
	t.Helper()
	o, err := New(l, p)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	o.SetSleeper(noSleep)
	return o
}

func sdkUint(v uint64) sdkmath.Uint {
	return sdkmath.NewUint(v)
}
