// Package config handles application configuration.
//
// Settings are layered: defaults, then the config file, then SMH_*
// environment variables, then command-line flags. Settings left empty
// after all layers are asked for interactively.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/spacemeshos/smh-collector/pkg/tx"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// NetworkType identifies the ledger network.
type NetworkType string

const (
	Mainnet    NetworkType = "mainnet"
	Testnet    NetworkType = "testnet"
	Standalone NetworkType = "standalone"
)

// DefaultAccounts is the number of accounts offered for scanning.
const DefaultAccounts = 100

// Config holds the settings of one sweep run.
type Config struct {
	// Core. Empty values are prompted for.
	Network     NetworkType `conf:"network"`
	Genesis     string      `conf:"genesis"`     // Hex genesis ID.
	Destination string      `conf:"destination"` // Bech32 address.

	// Ledger API
	RPC RPCConfig

	// Account scan
	Scan ScanConfig

	// Fees in Smidge
	Fees FeeConfig

	// Layer duration; transactions are polled every half layer.
	LayerTime time.Duration `conf:"layer.time"`

	Poll  PollConfig
	Sweep SweepConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds the ledger API settings.
type RPCConfig struct {
	URL     string        `conf:"rpc.url"` // Empty = prompt with the network default.
	Timeout time.Duration `conf:"rpc.timeout"`
}

// ScanConfig controls which accounts are read and how.
type ScanConfig struct {
	Accounts uint32 `conf:"scan.accounts"` // 0 = prompt.
	Batch    int    `conf:"scan.batch"`    // Addresses per request.
	Parallel int    `conf:"scan.parallel"` // Concurrent requests (0 = unlimited).
}

// FeeConfig holds the fixed per-transaction fees.
type FeeConfig struct {
	Spawn uint64 `conf:"fee.spawn"`
	Spend uint64 `conf:"fee.spend"`
}

// PollConfig controls transaction status polling.
type PollConfig struct {
	MaxAttempts int `conf:"poll.max_attempts"` // 0 = until final.
}

// SweepConfig holds sweep behaviour switches.
type SweepConfig struct {
	WaitSpend bool `conf:"sweep.wait_spend"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// NetworkParams returns the parameters of the configured network.
func (c *Config) NetworkParams() (NetworkParams, error) {
	return Params(c.Network)
}

// HRP returns the address prefix of the configured network.
func (c *Config) HRP() (string, error) {
	p, err := c.NetworkParams()
	if err != nil {
		return "", err
	}
	return p.HRP, nil
}

// GenesisID returns the genesis ID, falling back to the network's
// well-known ID.
func (c *Config) GenesisID() (types.GenesisID, error) {
	s := c.Genesis
	if s == "" {
		p, err := c.NetworkParams()
		if err != nil {
			return types.GenesisID{}, err
		}
		s = p.GenesisID
	}
	if s == "" {
		return types.GenesisID{}, fmt.Errorf("genesis ID is required for network %s", c.Network)
	}
	return types.ParseGenesisID(s)
}

// DestinationAddress decodes the destination under the network's HRP.
func (c *Config) DestinationAddress() (types.Address, error) {
	hrp, err := c.HRP()
	if err != nil {
		return types.Address{}, err
	}
	addr, err := types.ParseAddress(c.Destination, hrp)
	if err != nil {
		return types.Address{}, fmt.Errorf("destination: %w", err)
	}
	return addr, nil
}

// RPCURL returns the API endpoint, falling back to the network default.
func (c *Config) RPCURL() string {
	if c.RPC.URL != "" {
		return c.RPC.URL
	}
	if p, err := c.NetworkParams(); err == nil {
		return p.RPCURL
	}
	return ""
}

// FeeSchedule returns the fees as a transaction fee schedule.
func (c *Config) FeeSchedule() tx.FeeSchedule {
	return tx.FeeSchedule{
		Spawn: sdkmath.NewUint(c.Fees.Spawn),
		Spend: sdkmath.NewUint(c.Fees.Spend),
	}
}

// DefaultConfigFile returns the default config file path, under the
// user's config directory.
func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "smh-collector.conf"
	}
	return filepath.Join(dir, "smh-collector", "smh-collector.conf")
}
