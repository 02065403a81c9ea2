package wallet

import (
	"fmt"

	"github.com/spacemeshos/smh-collector/internal/log"
	"github.com/spacemeshos/smh-collector/pkg/crypto"
	"github.com/spacemeshos/smh-collector/pkg/tx"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// DerivedAccount is one account of the seed phrase. The private key is
// owned by the account and only ever used for in-memory signing.
type DerivedAccount struct {
	Index     uint32
	PublicKey []byte
	Principal types.Address
	Address   string

	key *crypto.PrivateKey
}

// Signer returns the account's signer.
func (a *DerivedAccount) Signer() crypto.Signer {
	return a.key
}

// Wipe zeroes the private key. The account cannot sign afterwards.
func (a *DerivedAccount) Wipe() {
	if a.key != nil {
		a.key.Zero()
		a.key = nil
	}
}

// String identifies the account without exposing key material.
func (a *DerivedAccount) String() string {
	return fmt.Sprintf("#%d %s", a.Index, a.Address)
}

// NewDerivedAccount builds an account from a raw ed25519 seed. Used by
// DeriveAccounts and by tests that need fixed keys.
func NewDerivedAccount(index uint32, privateSeed []byte, hrp string) (*DerivedAccount, error) {
	key, err := crypto.PrivateKeyFromSeed(privateSeed)
	if err != nil {
		return nil, err
	}
	pub := key.PublicKey()
	principal := crypto.ComputePrincipal(tx.WalletTemplate, pub)
	addr, err := principal.Encode(hrp)
	if err != nil {
		key.Zero()
		return nil, fmt.Errorf("encode address: %w", err)
	}
	return &DerivedAccount{
		Index:     index,
		PublicKey: pub,
		Principal: principal,
		Address:   addr,
		key:       key,
	}, nil
}

// DeriveAccounts derives accounts 0..count-1 from a BIP-39 seed, encoding
// addresses under hrp.
func DeriveAccounts(seed []byte, count uint32, hrp string) ([]*DerivedAccount, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	accounts := make([]*DerivedAccount, 0, count)
	for i := uint32(0); i < count; i++ {
		hd, err := master.DeriveAccount(i)
		if err != nil {
			WipeAll(accounts)
			return nil, fmt.Errorf("derive account %d: %w", i, err)
		}
		acc, err := NewDerivedAccount(i, hd.key[:], hrp)
		hd.Zero()
		if err != nil {
			WipeAll(accounts)
			return nil, fmt.Errorf("derive account %d: %w", i, err)
		}
		accounts = append(accounts, acc)
	}

	log.Wallet.Debug().Uint32("count", count).Str("hrp", hrp).Msg("accounts derived")
	return accounts, nil
}

// WipeAll zeroes every account's key.
func WipeAll(accounts []*DerivedAccount) {
	for _, a := range accounts {
		a.Wipe()
	}
}
