package config

import (
	"fmt"
	"net/url"

	"github.com/spacemeshos/smh-collector/internal/ledger"
	klog "github.com/spacemeshos/smh-collector/internal/log"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// Validate checks the config for obvious operator mistakes. Settings that
// are still empty are allowed; Complete checks those after prompting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != "" {
		if _, err := Params(cfg.Network); err != nil {
			return err
		}
	}
	if cfg.Genesis != "" {
		if _, err := types.ParseGenesisID(cfg.Genesis); err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
	}
	if cfg.Destination != "" && cfg.Network != "" {
		if _, err := cfg.DestinationAddress(); err != nil {
			return err
		}
	}
	if cfg.RPC.URL != "" {
		if err := validateURL(cfg.RPC.URL); err != nil {
			return fmt.Errorf("rpc.url: %w", err)
		}
	}
	if cfg.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc.timeout must be positive")
	}
	if cfg.Scan.Batch < 1 || cfg.Scan.Batch > ledger.MaxPerCall {
		return fmt.Errorf("scan.batch must be in range [1, %d]", ledger.MaxPerCall)
	}
	if cfg.Scan.Parallel < 0 {
		return fmt.Errorf("scan.parallel must not be negative")
	}
	if cfg.LayerTime <= 0 {
		return fmt.Errorf("layer.time must be positive")
	}
	if cfg.Poll.MaxAttempts < 0 {
		return fmt.Errorf("poll.max_attempts must not be negative")
	}
	if !klog.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}

// Complete checks that every setting needed for a run is present.
func Complete(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if cfg.Network == "" {
		return fmt.Errorf("network is required")
	}
	if _, err := cfg.GenesisID(); err != nil {
		return err
	}
	if cfg.Destination == "" {
		return fmt.Errorf("destination is required")
	}
	if _, err := cfg.DestinationAddress(); err != nil {
		return err
	}
	if cfg.Scan.Accounts < 1 {
		return fmt.Errorf("scan.accounts must be at least 1")
	}
	if err := validateURL(cfg.RPCURL()); err != nil {
		return fmt.Errorf("rpc.url: %w", err)
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
