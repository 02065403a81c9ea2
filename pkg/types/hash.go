// Package types defines the primitive ledger types shared by the sweeper.
package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// GenesisIDSize is the length of a network genesis identifier in bytes.
const GenesisIDSize = 20

// Hash represents a 256-bit hash value.
type Hash [HashSize]byte

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// GenesisID identifies a network. It prefixes every signed payload so a
// signature is only valid on the network it was produced for.
type GenesisID [GenesisIDSize]byte

// String returns the hex-encoded genesis ID.
func (g GenesisID) String() string {
	return hex.EncodeToString(g[:])
}

// Bytes returns a copy of the genesis ID as a byte slice.
func (g GenesisID) Bytes() []byte {
	b := make([]byte, GenesisIDSize)
	copy(b, g[:])
	return b
}

// IsZero returns true if the genesis ID is all zeros.
func (g GenesisID) IsZero() bool {
	return g == GenesisID{}
}

// ParseGenesisID decodes a 40-character hex genesis ID. A "0x" prefix is
// tolerated.
func ParseGenesisID(s string) (GenesisID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return GenesisID{}, fmt.Errorf("invalid genesis id hex: %w", err)
	}
	if len(b) != GenesisIDSize {
		return GenesisID{}, fmt.Errorf("genesis id must be %d bytes, got %d", GenesisIDSize, len(b))
	}
	var g GenesisID
	copy(g[:], b)
	return g, nil
}
