package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AddressSize is the length of an account address (principal) in bytes.
const AddressSize = 24

// AddressReservedSpace is the number of leading zero bytes in every address.
const AddressReservedSpace = 4

// Address HRP (human-readable part) constants for bech32 encoding.
const (
	MainnetHRP    = "sm"
	TestnetHRP    = "stest"
	StandaloneHRP = "standalone"
)

// Address is the raw account identifier (principal) on the ledger.
type Address [AddressSize]byte

// GenerateAddress builds an address from the trailing 20 bytes of a hash,
// leaving the reserved prefix zeroed.
func GenerateAddress(h []byte) Address {
	var a Address
	n := AddressSize - AddressReservedSpace
	if len(h) < n {
		copy(a[AddressSize-len(h):], h)
		return a
	}
	copy(a[AddressReservedSpace:], h[len(h)-n:])
	return a
}

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Encode returns the bech32 form of the address under the given HRP.
func (a Address) Encode(hrp string) (string, error) {
	if hrp == "" {
		return "", fmt.Errorf("bech32: empty HRP")
	}
	s, err := bech32.EncodeFromBase256(hrp, a[:])
	if err != nil {
		return "", fmt.Errorf("bech32: %w", err)
	}
	return s, nil
}

// String returns the raw hex-encoded address. Use Encode for the
// human-readable form.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// ParseAddress decodes a bech32 address and checks its HRP. An empty hrp
// accepts any prefix.
func ParseAddress(s, hrp string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	gotHRP, data, err := bech32.DecodeToBase256(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	if hrp != "" && gotHRP != hrp {
		return Address{}, fmt.Errorf("address prefix %q does not match network prefix %q", gotHRP, hrp)
	}
	if len(data) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(data))
	}
	var a Address
	copy(a[:], data)
	return a, nil
}
