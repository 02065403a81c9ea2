package config

import (
	"fmt"
	"strings"

	"github.com/spacemeshos/smh-collector/pkg/types"
)

// =============================================================================
// Network parameters (fixed per network)
// =============================================================================

// Well-known genesis IDs.
const (
	MainnetGenesisID = "9eebff023abb17ccb775c602daade8ed708f0a50"
	TestnetGenesisID = "e0ce350b570c2b392c9ee84cb4f788d7f44974ee"
)

// Default JSON API endpoints.
const (
	MainnetRPCURL    = "https://wallet-api.spacemesh.network"
	TestnetRPCURL    = "https://testnet-12-api.spacemesh.network"
	StandaloneRPCURL = "http://127.0.0.1:8080/127.0.0.1:9095"
)

// Denomination: 1 SMH = 10^9 Smidge. All amounts are in Smidge.
const (
	Decimals = 9
	Smidge   = 1
	SMH      = 1_000_000_000
)

// NetworkParams holds the identity of one network.
type NetworkParams struct {
	Name NetworkType
	HRP  string
	// GenesisID is the well-known genesis ID, empty when the network has
	// none and the operator must supply it.
	GenesisID string
	// AskGenesis is true when the operator is offered a chance to
	// override GenesisID.
	AskGenesis bool
	RPCURL     string
}

var networks = map[NetworkType]NetworkParams{
	Mainnet: {
		Name:      Mainnet,
		HRP:       types.MainnetHRP,
		GenesisID: MainnetGenesisID,
		RPCURL:    MainnetRPCURL,
	},
	Testnet: {
		Name:       Testnet,
		HRP:        types.TestnetHRP,
		GenesisID:  TestnetGenesisID,
		AskGenesis: true,
		RPCURL:     TestnetRPCURL,
	},
	Standalone: {
		Name:       Standalone,
		HRP:        types.StandaloneHRP,
		AskGenesis: true,
		RPCURL:     StandaloneRPCURL,
	},
}

// Networks lists the supported networks in menu order.
func Networks() []NetworkParams {
	return []NetworkParams{networks[Mainnet], networks[Testnet], networks[Standalone]}
}

// Params returns the parameters of a network.
func Params(network NetworkType) (NetworkParams, error) {
	p, ok := networks[network]
	if !ok {
		return NetworkParams{}, fmt.Errorf("unknown network %q", network)
	}
	return p, nil
}

// ParseNetwork accepts a network name or its address HRP.
func ParseNetwork(s string) (NetworkType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range networks {
		if s == string(p.Name) || s == p.HRP {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("unknown network %q (want mainnet, testnet or standalone)", s)
}

// FormatSmidge renders an amount in Smidge as SMH with fractional digits.
func FormatSmidge(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	if len(s) <= Decimals {
		s = strings.Repeat("0", Decimals-len(s)+1) + s
	}
	whole, frac := s[:len(s)-Decimals], strings.TrimRight(s[len(s)-Decimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
