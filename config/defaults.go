package config

import (
	"github.com/spacemeshos/smh-collector/internal/ledger"
	"github.com/spacemeshos/smh-collector/internal/sweep"
	"github.com/spacemeshos/smh-collector/pkg/tx"
)

// Default returns the default configuration. Network, genesis,
// destination, account count and RPC URL are left empty so they are
// asked for.
func Default() *Config {
	return &Config{
		RPC: RPCConfig{
			Timeout: ledger.DefaultTimeout,
		},
		Scan: ScanConfig{
			Batch:    sweep.DefaultBatchSize,
			Parallel: 0,
		},
		Fees: FeeConfig{
			Spawn: tx.DefaultSpawnFee,
			Spend: tx.DefaultSpendFee,
		},
		LayerTime: sweep.DefaultLayerTime,
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
