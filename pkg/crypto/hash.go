// Package crypto provides the hashing and signing primitives used to build
// and authorise ledger transactions.
package crypto

import (
	"github.com/spacemeshos/smh-collector/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// Sum hashes the concatenation of all chunks without copying them into a
// single buffer.
func Sum(chunks ...[]byte) types.Hash {
	hasher := blake3.New()
	for _, c := range chunks {
		hasher.Write(c)
	}
	var h types.Hash
	copy(h[:], hasher.Sum(nil))
	return h
}

// ComputePrincipal derives the account address owned by a template
// instance: BLAKE3(template || spawn args)[12:] behind the reserved prefix.
// For the single-signature wallet the spawn args are the raw public key.
func ComputePrincipal(template types.Address, spawnArgs []byte) types.Address {
	h := Sum(template[:], spawnArgs)
	return types.GenerateAddress(h[:])
}
