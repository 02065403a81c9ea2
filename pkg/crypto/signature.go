package crypto

import (
	"crypto/ed25519"
	"fmt"
)

// SeedSize is the length of an ed25519 private key seed.
const SeedSize = ed25519.SeedSize

// SignatureSize is the length of an ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// Signer signs arbitrary messages with a private key.
type Signer interface {
	// Sign produces an ed25519 signature over msg.
	Sign(msg []byte) []byte
	// PublicKey returns the 32-byte public key.
	PublicKey() []byte
}

// PrivateKey wraps an ed25519 private key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// PrivateKeyFromSeed creates a PrivateKey from a 32-byte seed.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("private key seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// Sign produces an ed25519 signature over msg.
func (pk *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(pk.key, msg)
}

// PublicKey returns the 32-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	pub := make([]byte, ed25519.PublicKeySize)
	copy(pub, pk.key[SeedSize:])
	return pub
}

// Zero overwrites the key material. The key must not be used afterwards.
func (pk *PrivateKey) Zero() {
	for i := range pk.key {
		pk.key[i] = 0
	}
}

// VerifySignature checks an ed25519 signature. Returns false on malformed
// input.
func VerifySignature(msg, signature, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(signature) != SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, msg, signature)
}
