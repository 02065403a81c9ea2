// Package tx encodes spawn and spend transactions for the single-signature
// wallet template and computes their fees.
package tx

import (
	"crypto/ed25519"
	"fmt"

	"github.com/spacemeshos/smh-collector/pkg/crypto"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// Version is the only transaction encoding version the ledger accepts.
const Version = 0

// Method selectors of the single-signature wallet template.
const (
	MethodSpawn uint64 = 0
	MethodSpend uint64 = 16
)

// DefaultGasPrice is the gas price used for every sweep transaction.
const DefaultGasPrice = 1

// WalletTemplate is the address of the single-signature wallet template.
var WalletTemplate = types.Address{types.AddressSize - 1: 1}

// Kind distinguishes the two transactions a sweep can produce.
type Kind uint8

const (
	KindSpawn Kind = iota
	KindSpend
)

func (k Kind) String() string {
	switch k {
	case KindSpawn:
		return "spawn"
	case KindSpend:
		return "spend"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Transaction is the unsigned body of a wallet transaction.
type Transaction struct {
	Principal types.Address
	Method    uint64
	Nonce     uint64
	GasPrice  uint64

	// Spawn arguments.
	PublicKey []byte

	// Spend arguments.
	Destination types.Address
	Amount      uint64
}

// NewSpawn returns a spawn transaction activating principal for publicKey.
func NewSpawn(principal types.Address, publicKey []byte, nonce uint64) *Transaction {
	return &Transaction{
		Principal: principal,
		Method:    MethodSpawn,
		Nonce:     nonce,
		GasPrice:  DefaultGasPrice,
		PublicKey: publicKey,
	}
}

// NewSpend returns a spend transaction moving amount from principal to
// destination.
func NewSpend(principal, destination types.Address, amount, nonce uint64) *Transaction {
	return &Transaction{
		Principal:   principal,
		Method:      MethodSpend,
		Nonce:       nonce,
		GasPrice:    DefaultGasPrice,
		Destination: destination,
		Amount:      amount,
	}
}

// Kind reports whether the transaction is a spawn or a spend.
func (t *Transaction) Kind() Kind {
	if t.Method == MethodSpawn {
		return KindSpawn
	}
	return KindSpend
}

// Encode returns the canonical body bytes:
//
//	version | principal | method | [template] | nonce | gasPrice | args
//
// The template address is only present for spawn.
func (t *Transaction) Encode() ([]byte, error) {
	buf := make([]byte, 0, 128)
	buf = appendCompact(buf, Version)
	buf = append(buf, t.Principal[:]...)
	buf = appendCompact(buf, t.Method)

	switch t.Method {
	case MethodSpawn:
		if len(t.PublicKey) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("spawn public key must be %d bytes, got %d", ed25519.PublicKeySize, len(t.PublicKey))
		}
		buf = append(buf, WalletTemplate[:]...)
		buf = appendCompact(buf, t.Nonce)
		buf = appendCompact(buf, t.GasPrice)
		buf = append(buf, t.PublicKey...)
	case MethodSpend:
		buf = appendCompact(buf, t.Nonce)
		buf = appendCompact(buf, t.GasPrice)
		buf = append(buf, t.Destination[:]...)
		buf = appendCompact(buf, t.Amount)
	default:
		return nil, fmt.Errorf("unsupported method %d", t.Method)
	}
	return buf, nil
}

// SigningBytes returns the message a signer must sign: the genesis ID
// followed by the encoded body.
func SigningBytes(genesis types.GenesisID, body []byte) []byte {
	msg := make([]byte, 0, types.GenesisIDSize+len(body))
	msg = append(msg, genesis[:]...)
	return append(msg, body...)
}

// Decode parses a signed transaction into its body and signature.
func Decode(raw []byte) (*Transaction, []byte, error) {
	r := &reader{buf: raw}

	version, err := r.compact()
	if err != nil {
		return nil, nil, fmt.Errorf("decode version: %w", err)
	}
	if version != Version {
		return nil, nil, fmt.Errorf("unsupported transaction version %d", version)
	}

	t := &Transaction{}
	principal, err := r.bytes(types.AddressSize)
	if err != nil {
		return nil, nil, fmt.Errorf("decode principal: %w", err)
	}
	copy(t.Principal[:], principal)

	if t.Method, err = r.compact(); err != nil {
		return nil, nil, fmt.Errorf("decode method: %w", err)
	}

	switch t.Method {
	case MethodSpawn:
		template, err := r.bytes(types.AddressSize)
		if err != nil {
			return nil, nil, fmt.Errorf("decode template: %w", err)
		}
		if types.Address(template) != WalletTemplate {
			return nil, nil, fmt.Errorf("unknown template %x", template)
		}
		if err := t.decodePayload(r); err != nil {
			return nil, nil, err
		}
		pub, err := r.bytes(ed25519.PublicKeySize)
		if err != nil {
			return nil, nil, fmt.Errorf("decode public key: %w", err)
		}
		t.PublicKey = append([]byte(nil), pub...)
	case MethodSpend:
		if err := t.decodePayload(r); err != nil {
			return nil, nil, err
		}
		dest, err := r.bytes(types.AddressSize)
		if err != nil {
			return nil, nil, fmt.Errorf("decode destination: %w", err)
		}
		copy(t.Destination[:], dest)
		if t.Amount, err = r.compact(); err != nil {
			return nil, nil, fmt.Errorf("decode amount: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported method %d", t.Method)
	}

	if r.remaining() != crypto.SignatureSize {
		return nil, nil, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureSize, r.remaining())
	}
	sig, _ := r.bytes(crypto.SignatureSize)
	return t, append([]byte(nil), sig...), nil
}

func (t *Transaction) decodePayload(r *reader) error {
	var err error
	if t.Nonce, err = r.compact(); err != nil {
		return fmt.Errorf("decode nonce: %w", err)
	}
	if t.GasPrice, err = r.compact(); err != nil {
		return fmt.Errorf("decode gas price: %w", err)
	}
	return nil
}
