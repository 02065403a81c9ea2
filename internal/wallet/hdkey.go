package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/spacemeshos/smh-collector/pkg/crypto"
	"github.com/spacemeshos/smh-collector/pkg/tx"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// HardenedOffset is added to an index to request hardened derivation.
const HardenedOffset uint32 = 0x80000000

// BIP-44 derivation path constants. Ed25519 only supports hardened
// derivation, so every level is hardened.
// Full path: m/44'/540'/account'/change'/index'
const (
	// PurposeBIP44 is the BIP-44 purpose field (hardened).
	PurposeBIP44 = HardenedOffset + 44

	// CoinTypeSpacemesh is the SLIP-44 coin type of the ledger (hardened).
	CoinTypeSpacemesh = HardenedOffset + 540
)

// masterKeySalt is the HMAC key SLIP-10 uses for the ed25519 curve.
var masterKeySalt = []byte("ed25519 seed")

// Seed length bounds from BIP-32.
const (
	minSeedSize = 16
	maxSeedSize = 64
)

// HDKey is a SLIP-10 ed25519 extended private key.
type HDKey struct {
	key       [32]byte
	chainCode [32]byte
	depth     uint8
}

// NewMasterKey creates the master key from a BIP-39 seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) < minSeedSize || len(seed) > maxSeedSize {
		return nil, fmt.Errorf("seed must be %d-%d bytes, got %d", minSeedSize, maxSeedSize, len(seed))
	}
	return split(hmacSHA512(masterKeySalt, seed), 0), nil
}

// DeriveChild derives the hardened child at index. Index must already
// include HardenedOffset.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	if index < HardenedOffset {
		return nil, fmt.Errorf("derive child %d: ed25519 supports hardened derivation only", index)
	}
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, k.key[:]...)
	data = binary.BigEndian.AppendUint32(data, index)
	child := split(hmacSHA512(k.chainCode[:], data), k.depth+1)
	Zero(data)
	return child, nil
}

// DerivePath derives a key along a sequence of indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		if current != k {
			current.Zero()
		}
		current = child
	}
	return current, nil
}

// DeriveAccount derives the key at m/44'/540'/0'/0'/index'.
func (k *HDKey) DeriveAccount(index uint32) (*HDKey, error) {
	if index >= HardenedOffset {
		return nil, fmt.Errorf("account index %d out of range", index)
	}
	return k.DerivePath(
		PurposeBIP44,
		CoinTypeSpacemesh,
		HardenedOffset+0,
		HardenedOffset+0,
		HardenedOffset+index,
	)
}

// PrivateKeyBytes returns a copy of the 32-byte ed25519 seed.
func (k *HDKey) PrivateKeyBytes() []byte {
	b := make([]byte, 32)
	copy(b, k.key[:])
	return b
}

// ChainCode returns a copy of the chain code.
func (k *HDKey) ChainCode() []byte {
	b := make([]byte, 32)
	copy(b, k.chainCode[:])
	return b
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.depth
}

// Signer returns an ed25519 signer for this key.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	return crypto.PrivateKeyFromSeed(k.key[:])
}

// Principal derives the single-signature wallet address controlled by this
// key.
func (k *HDKey) Principal() (types.Address, error) {
	signer, err := k.Signer()
	if err != nil {
		return types.Address{}, err
	}
	defer signer.Zero()
	return crypto.ComputePrincipal(tx.WalletTemplate, signer.PublicKey()), nil
}

// Zero wipes the key material.
func (k *HDKey) Zero() {
	Zero(k.key[:])
	Zero(k.chainCode[:])
}

func hmacSHA512(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func split(i []byte, depth uint8) *HDKey {
	k := &HDKey{depth: depth}
	copy(k.key[:], i[:32])
	copy(k.chainCode[:], i[32:])
	Zero(i)
	return k
}
