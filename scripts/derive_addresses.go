// derive_addresses.go prints the public keys and addresses of the first
// accounts of a seed phrase file, as the sweep derives them.
// Usage: go run scripts/derive_addresses.go <phrasefile> [count] [hrp]
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/spacemeshos/smh-collector/internal/wallet"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_addresses <phrasefile> [count] [hrp]")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	count := uint64(5)
	if len(os.Args) > 2 {
		count, err = strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	hrp := types.MainnetHRP
	if len(os.Args) > 3 {
		hrp = os.Args[3]
	}

	seed, err := wallet.SeedFromMnemonic(string(data), "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	accounts, err := wallet.DeriveAccounts(seed, uint32(count), hrp)
	wallet.Zero(seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, acc := range accounts {
		fmt.Printf("index=%d pubkey=%s address=%s\n", acc.Index, hex.EncodeToString(acc.PublicKey), acc.Address)
	}
	wallet.WipeAll(accounts)
}
