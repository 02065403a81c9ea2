package devnet

import (
	"crypto/ed25519"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"

	"github.com/spacemeshos/smh-collector/internal/ledger"
	"github.com/spacemeshos/smh-collector/pkg/crypto"
	"github.com/spacemeshos/smh-collector/pkg/tx"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

var testGenesis = types.GenesisID{0x01, 0x02, 0x03}

type testAccount struct {
	key       *crypto.PrivateKey
	principal types.Address
	address   string
}

func newTestAccount(t *testing.T, b byte) testAccount {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = b
	key, err := crypto.PrivateKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("PrivateKeyFromSeed() error: %v", err)
	}
	principal := crypto.ComputePrincipal(tx.WalletTemplate, key.PublicKey())
	addr, err := principal.Encode(types.StandaloneHRP)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	return testAccount{key: key, principal: principal, address: addr}
}

func TestLedger_SpawnThenSpend(t *testing.T) {
	l := New(testGenesis, types.StandaloneHRP, Options{})
	acc := newTestAccount(t, 1)
	dst := newTestAccount(t, 2)
	l.Fund(acc.principal, sdkmath.NewUint(200000))

	b := tx.NewBuilder(testGenesis)
	spawn, err := b.Spawn(acc.principal, acc.key, 0)
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
	spawnID, err := l.Submit(spawn)
	if err != nil {
		t.Fatalf("Submit(spawn) error: %v", err)
	}

	// Spend must wait for the spawn to be applied.
	spend, _ := b.Spend(acc.principal, dst.principal, 1000, 1, acc.key)
	if _, err := l.Submit(spend); !errors.Is(err, ErrNotSpawned) {
		t.Fatalf("Submit(spend) before spawn error = %v, want ErrNotSpawned", err)
	}

	if n := l.ApplyLayer(); n != 1 {
		t.Fatalf("ApplyLayer() = %d, want 1", n)
	}
	if _, state, _ := l.Transaction(spawnID); state != ledger.TxStateProcessed {
		t.Fatalf("spawn state = %s", state)
	}

	if _, err := l.Submit(spend); err != nil {
		t.Fatalf("Submit(spend) error: %v", err)
	}
	l.ApplyLayer()

	want := 200000 - tx.DefaultSpawnFee - tx.DefaultSpendFee - 1000
	if got := l.Balance(acc.principal); got.Uint64() != uint64(want) {
		t.Fatalf("balance = %s, want %d", got, want)
	}
	if got := l.Balance(dst.principal); got.Uint64() != 1000 {
		t.Fatalf("destination balance = %s, want 1000", got)
	}

	states, err := l.Accounts([]string{acc.address})
	if err != nil {
		t.Fatalf("Accounts() error: %v", err)
	}
	if states[0].Current.Counter != 2 || states[0].Projected.Counter != 2 {
		t.Fatalf("counters = %d/%d, want 2/2", states[0].Current.Counter, states[0].Projected.Counter)
	}
}

func TestLedger_Rejections(t *testing.T) {
	l := New(testGenesis, types.StandaloneHRP, Options{})
	acc := newTestAccount(t, 1)
	other := newTestAccount(t, 3)
	l.Fund(acc.principal, sdkmath.NewUint(1000000))

	// Wrong genesis.
	wrong, _ := tx.NewBuilder(types.GenesisID{0xff}).Spawn(acc.principal, acc.key, 0)
	if _, err := l.Submit(wrong); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("wrong genesis error = %v, want ErrBadSignature", err)
	}

	// Principal not derived from the key.
	b := tx.NewBuilder(testGenesis)
	mismatch, _ := b.Spawn(other.principal, acc.key, 0)
	if _, err := l.Submit(mismatch); !errors.Is(err, ErrPrincipalMismatch) {
		t.Fatalf("mismatch error = %v, want ErrPrincipalMismatch", err)
	}

	// Bad nonce.
	badNonce, _ := b.Spawn(acc.principal, acc.key, 5)
	if _, err := l.Submit(badNonce); !errors.Is(err, ErrBadNonce) {
		t.Fatalf("nonce error = %v, want ErrBadNonce", err)
	}

	// Garbage.
	if _, err := l.Submit([]byte{0x01, 0x02}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("garbage error = %v, want ErrMalformed", err)
	}

	// Unfunded principal.
	poor, _ := b.Spawn(other.principal, other.key, 0)
	if _, err := l.Submit(poor); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("unfunded error = %v, want ErrInsufficientFunds", err)
	}

	// Duplicate spawn.
	ok, _ := b.Spawn(acc.principal, acc.key, 0)
	if _, err := l.Submit(ok); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if _, err := l.Submit(ok); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate error = %v, want ErrAlreadyExists", err)
	}
}

func TestLedger_RejectHook(t *testing.T) {
	l := New(testGenesis, types.StandaloneHRP, Options{})
	acc := newTestAccount(t, 1)
	l.Fund(acc.principal, sdkmath.NewUint(1000000))

	hookErr := errors.New("node busy")
	l.SetRejectHook(func(t *tx.Transaction) error {
		if t.Kind() == tx.KindSpawn {
			return hookErr
		}
		return nil
	})
	raw, _ := tx.NewBuilder(testGenesis).Spawn(acc.principal, acc.key, 0)
	if _, err := l.Submit(raw); !errors.Is(err, hookErr) {
		t.Fatalf("Submit() error = %v, want hook error", err)
	}
	if l.Submitted() != 0 {
		t.Fatalf("Submitted() = %d, want 0", l.Submitted())
	}
}

func TestLedger_LayerEvery(t *testing.T) {
	l := New(testGenesis, types.StandaloneHRP, Options{LayerEvery: 2})
	acc := newTestAccount(t, 1)
	l.Fund(acc.principal, sdkmath.NewUint(1000000))

	raw, _ := tx.NewBuilder(testGenesis).Spawn(acc.principal, acc.key, 0)
	id, err := l.Submit(raw)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	first := l.Lookup([]string{id})
	if len(first) != 1 || first[0].EffectiveState() != ledger.TxStateMempool {
		t.Fatalf("first lookup = %+v", first)
	}
	second := l.Lookup([]string{id, "unknown"})
	if len(second) != 1 || second[0].EffectiveState() != ledger.TxStateProcessed {
		t.Fatalf("second lookup = %+v", second)
	}
	if second[0].Result == nil || second[0].Result.Layer != 1 {
		t.Fatalf("result = %+v", second[0].Result)
	}
}

func TestLedger_SetState(t *testing.T) {
	l := New(testGenesis, types.StandaloneHRP, Options{})
	acc := newTestAccount(t, 1)
	l.Fund(acc.principal, sdkmath.NewUint(1000000))

	raw, _ := tx.NewBuilder(testGenesis).Spawn(acc.principal, acc.key, 0)
	id, _ := l.Submit(raw)
	if !l.SetState(id, ledger.TxStateRejected, "nope") {
		t.Fatal("SetState() = false")
	}
	if n := l.ApplyLayer(); n != 0 {
		t.Fatalf("ApplyLayer() = %d, want 0 after forced state", n)
	}
	info := l.Lookup([]string{id})
	if info[0].EffectiveState() != ledger.TxStateRejected || info[0].Message() != "nope" {
		t.Fatalf("info = %+v", info[0])
	}
	if l.SetState("missing", ledger.TxStateRejected, "") {
		t.Fatal("SetState(missing) = true")
	}
}

func TestLedger_AccountsUnknownOmitted(t *testing.T) {
	l := New(testGenesis, types.StandaloneHRP, Options{})
	acc := newTestAccount(t, 1)
	known := newTestAccount(t, 2)
	l.Fund(known.principal, sdkmath.NewUint(7))

	states, err := l.Accounts([]string{acc.address, known.address})
	if err != nil {
		t.Fatalf("Accounts() error: %v", err)
	}
	if len(states) != 1 || states[0].Address != known.address {
		t.Fatalf("states = %+v", states)
	}

	if _, err := l.Accounts([]string{"sm1qqqq"}); err == nil {
		t.Fatal("expected error for foreign address")
	}
}
