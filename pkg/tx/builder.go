package tx

import (
	"fmt"

	"github.com/spacemeshos/smh-collector/pkg/crypto"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// Builder encodes and signs transactions for one network. Every
// transaction it produces is bound to the same genesis ID.
type Builder struct {
	genesis types.GenesisID
}

// NewBuilder creates a builder for the network identified by genesis.
func NewBuilder(genesis types.GenesisID) *Builder {
	return &Builder{genesis: genesis}
}

// GenesisID returns the genesis ID mixed into every signature.
func (b *Builder) GenesisID() types.GenesisID {
	return b.genesis
}

// Sign encodes t and returns the signed transaction: body || signature.
func (b *Builder) Sign(t *Transaction, signer crypto.Signer) ([]byte, error) {
	body, err := t.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode %s tx: %w", t.Kind(), err)
	}
	sig := signer.Sign(SigningBytes(b.genesis, body))
	if len(sig) != crypto.SignatureSize {
		return nil, fmt.Errorf("sign %s tx: signature is %d bytes", t.Kind(), len(sig))
	}
	return append(body, sig...), nil
}

// Spawn builds and signs a spawn transaction for the signer's own principal.
func (b *Builder) Spawn(principal types.Address, signer crypto.Signer, nonce uint64) ([]byte, error) {
	return b.Sign(NewSpawn(principal, signer.PublicKey(), nonce), signer)
}

// Spend builds and signs a spend transaction.
func (b *Builder) Spend(principal, destination types.Address, amount, nonce uint64, signer crypto.Signer) ([]byte, error) {
	return b.Sign(NewSpend(principal, destination, amount, nonce), signer)
}

// Verify checks the signature of a signed transaction against publicKey.
func (b *Builder) Verify(raw, publicKey []byte) error {
	if len(raw) < crypto.SignatureSize {
		return ErrShortBuffer
	}
	body := raw[:len(raw)-crypto.SignatureSize]
	sig := raw[len(raw)-crypto.SignatureSize:]
	if !crypto.VerifySignature(SigningBytes(b.genesis, body), sig, publicKey) {
		return fmt.Errorf("invalid transaction signature")
	}
	return nil
}
