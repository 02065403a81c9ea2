package wallet

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/spacemeshos/smh-collector/pkg/crypto"
	"github.com/spacemeshos/smh-collector/pkg/tx"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// testSeed returns a deterministic BIP-39 seed for testing.
func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	return seed
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

// SLIP-10 test vector 1 for ed25519.
func TestNewMasterKey_SLIP10Vector(t *testing.T) {
	seed := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	master, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	if got := hex.EncodeToString(master.ChainCode()); got != "90046a93de5380a72b5e45010748567d5ea02bbf6522f979e05c0d8d8ca9fffb" {
		t.Errorf("master chain code = %s", got)
	}
	if got := hex.EncodeToString(master.PrivateKeyBytes()); got != "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7" {
		t.Errorf("master private key = %s", got)
	}

	child, err := master.DeriveChild(HardenedOffset + 0)
	if err != nil {
		t.Fatalf("DeriveChild(0') error: %v", err)
	}
	if got := hex.EncodeToString(child.ChainCode()); got != "8b59aa11380b624e81507a27fedda59fea6d0b779a778918a2fd3590e16e9c69" {
		t.Errorf("m/0' chain code = %s", got)
	}
	if got := hex.EncodeToString(child.PrivateKeyBytes()); got != "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3" {
		t.Errorf("m/0' private key = %s", got)
	}
	if child.Depth() != 1 {
		t.Errorf("child depth = %d, want 1", child.Depth())
	}
}

func TestNewMasterKey_InvalidSeedLength(t *testing.T) {
	tests := []struct {
		name string
		seed []byte
	}{
		{"empty", []byte{}},
		{"too short", make([]byte, 8)},
		{"too long", make([]byte, 128)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMasterKey(tt.seed); err == nil {
				t.Error("expected error for invalid seed length")
			}
		})
	}
}

func TestDeriveChild_RejectsNonHardened(t *testing.T) {
	master, err := NewMasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	if _, err := master.DeriveChild(0); err == nil {
		t.Error("non-hardened derivation should fail")
	}
}

func TestDerivePath_EqualsSequential(t *testing.T) {
	master, _ := NewMasterKey(testSeed(t))

	c1, _ := master.DeriveChild(PurposeBIP44)
	c2, _ := c1.DeriveChild(CoinTypeSpacemesh)

	combined, err := master.DerivePath(PurposeBIP44, CoinTypeSpacemesh)
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}
	if !bytes.Equal(c2.PrivateKeyBytes(), combined.PrivateKeyBytes()) {
		t.Error("DerivePath should equal sequential DeriveChild")
	}
}

func TestDeriveAccount(t *testing.T) {
	master, _ := NewMasterKey(testSeed(t))

	k0, err := master.DeriveAccount(0)
	if err != nil {
		t.Fatalf("DeriveAccount(0) error: %v", err)
	}
	if k0.Depth() != 5 {
		t.Errorf("account key depth = %d, want 5", k0.Depth())
	}

	k1, _ := master.DeriveAccount(1)
	if bytes.Equal(k0.PrivateKeyBytes(), k1.PrivateKeyBytes()) {
		t.Error("different indices should produce different keys")
	}

	again, _ := master.DeriveAccount(0)
	if !bytes.Equal(k0.PrivateKeyBytes(), again.PrivateKeyBytes()) {
		t.Error("derivation should be deterministic")
	}

	if _, err := master.DeriveAccount(HardenedOffset); err == nil {
		t.Error("index beyond hardened range should fail")
	}
}

func TestHDKey_Principal(t *testing.T) {
	master, _ := NewMasterKey(testSeed(t))
	key, _ := master.DeriveAccount(0)

	principal, err := key.Principal()
	if err != nil {
		t.Fatalf("Principal() error: %v", err)
	}
	signer, _ := key.Signer()
	if want := crypto.ComputePrincipal(tx.WalletTemplate, signer.PublicKey()); principal != want {
		t.Errorf("Principal() = %x, want %x", principal, want)
	}
}

func TestHDKey_Zero(t *testing.T) {
	master, _ := NewMasterKey(testSeed(t))
	master.Zero()
	if !bytes.Equal(master.PrivateKeyBytes(), make([]byte, 32)) {
		t.Error("Zero() should wipe the key")
	}
	if !bytes.Equal(master.ChainCode(), make([]byte, 32)) {
		t.Error("Zero() should wipe the chain code")
	}
}

func TestDeriveAccounts(t *testing.T) {
	accounts, err := DeriveAccounts(testSeed(t), 3, types.MainnetHRP)
	if err != nil {
		t.Fatalf("DeriveAccounts() error: %v", err)
	}
	defer WipeAll(accounts)

	if len(accounts) != 3 {
		t.Fatalf("account count = %d, want 3", len(accounts))
	}

	seen := make(map[string]bool)
	for i, acc := range accounts {
		if acc.Index != uint32(i) {
			t.Errorf("account %d index = %d", i, acc.Index)
		}
		if !strings.HasPrefix(acc.Address, "sm1") {
			t.Errorf("account %d address = %s, want sm1 prefix", i, acc.Address)
		}
		if seen[acc.Address] {
			t.Errorf("duplicate address %s", acc.Address)
		}
		seen[acc.Address] = true

		decoded, err := types.ParseAddress(acc.Address, types.MainnetHRP)
		if err != nil {
			t.Fatalf("ParseAddress(%s) error: %v", acc.Address, err)
		}
		if decoded != acc.Principal {
			t.Errorf("account %d address does not encode its principal", i)
		}
	}
}

func TestDerivedAccount_Wipe(t *testing.T) {
	accounts, err := DeriveAccounts(testSeed(t), 1, types.TestnetHRP)
	if err != nil {
		t.Fatalf("DeriveAccounts() error: %v", err)
	}
	acc := accounts[0]
	if acc.Signer() == nil {
		t.Fatal("signer should be present before wipe")
	}
	acc.Wipe()
	if acc.key != nil {
		t.Error("Wipe() should drop the key")
	}
	acc.Wipe() // idempotent
}

func TestDerivedAccount_StringHidesKey(t *testing.T) {
	acc, err := NewDerivedAccount(7, bytes.Repeat([]byte{0x01}, 32), types.MainnetHRP)
	if err != nil {
		t.Fatalf("NewDerivedAccount() error: %v", err)
	}
	s := acc.String()
	if !strings.HasPrefix(s, "#7 sm1") {
		t.Errorf("String() = %q", s)
	}
	if strings.Contains(s, "0101010101") {
		t.Error("String() leaks key material")
	}
}
