// Command smh-devnet serves an in-memory ledger over the node JSON API,
// for trying a sweep without a real network.
//
// Usage:
//
//	smh-devnet -fund standalone1...=1000000000 -layer-time 2s
//	smh-devnet -seed-accounts 5 -seed-amount 250000 < phrase.txt
//
// Pending transactions are applied once per layer. Ctrl+C to stop.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/spacemeshos/smh-collector/config"
	"github.com/spacemeshos/smh-collector/internal/devnet"
	klog "github.com/spacemeshos/smh-collector/internal/log"
	"github.com/spacemeshos/smh-collector/internal/sweep"
	"github.com/spacemeshos/smh-collector/internal/wallet"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// fundings collects repeated -fund address=amount flags.
type fundings []string

func (f *fundings) String() string { return strings.Join(*f, ",") }

func (f *fundings) Set(v string) error {
	if !strings.Contains(v, "=") {
		return errors.New("want address=amount")
	}
	*f = append(*f, v)
	return nil
}

func main() {
	var (
		listen       = flag.String("listen", "127.0.0.1:9071", "Listen address")
		network      = flag.String("network", "standalone", "Network whose address prefix is served")
		genesisHex   = flag.String("genesis", "", "Genesis ID (hex, default: the network's)")
		layerTime    = flag.Duration("layer-time", sweep.DefaultLayerTime, "Interval between applied layers")
		seedAccounts = flag.Uint("seed-accounts", 0, "Fund the first N accounts of a seed phrase read from stdin")
		seedAmount   = flag.Uint64("seed-amount", config.SMH, "Smidge given to each seed account")
		logLevel     = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		funds        fundings
	)
	flag.Var(&funds, "fund", "Initial balance as address=smidge (repeatable)")
	flag.Parse()

	if err := klog.Init(*logLevel, false, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("devnet")

	netType, err := config.ParseNetwork(*network)
	if err != nil {
		logger.Fatal().Err(err).Msg("network")
	}
	cfg := config.Default()
	cfg.Network = netType
	cfg.Genesis = *genesisHex
	if cfg.Genesis == "" && netType == config.Standalone {
		cfg.Genesis = config.TestnetGenesisID
	}
	genesis, err := cfg.GenesisID()
	if err != nil {
		logger.Fatal().Err(err).Msg("genesis")
	}
	hrp, _ := cfg.HRP()

	l := devnet.New(genesis, hrp, devnet.Options{})

	for _, f := range funds {
		addrStr, amountStr, _ := strings.Cut(f, "=")
		addr, err := types.ParseAddress(addrStr, hrp)
		if err != nil {
			logger.Fatal().Err(err).Str("address", addrStr).Msg("fund")
		}
		amount, err := sdkmath.ParseUint(amountStr)
		if err != nil {
			logger.Fatal().Err(err).Str("amount", amountStr).Msg("fund")
		}
		l.Fund(addr, amount)
		logger.Info().Str("address", addrStr).Str("amount", amount.String()).Msg("Funded")
	}

	if *seedAccounts > 0 {
		if err := fundSeed(l, hrp, uint32(*seedAccounts), sdkmath.NewUint(*seedAmount)); err != nil {
			logger.Fatal().Err(err).Msg("fund seed accounts")
		}
	}

	srv := devnet.NewServer(*listen, l)
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start server")
	}
	logger.Info().
		Str("url", srv.URL()).
		Str("genesis", genesis.String()).
		Str("network", string(netType)).
		Dur("layer_time", *layerTime).
		Msg("Devnet ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*layerTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := l.ApplyLayer(); n > 0 {
				logger.Info().Int("txs", n).Msg("Layer applied")
			}
		case <-sigCh:
			logger.Info().Msg("Shutting down")
			if err := srv.Stop(); err != nil {
				logger.Error().Err(err).Msg("stop server")
			}
			return
		}
	}
}

// fundSeed reads a seed phrase from stdin and funds its first n accounts.
func fundSeed(l *devnet.Ledger, hrp string, n uint32, amount sdkmath.Uint) error {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read seed phrase: %w", err)
	}
	seed, err := wallet.SeedFromMnemonic(line, "")
	if err != nil {
		return err
	}
	defer wallet.Zero(seed)

	accounts, err := wallet.DeriveAccounts(seed, n, hrp)
	if err != nil {
		return err
	}
	defer wallet.WipeAll(accounts)

	for _, acc := range accounts {
		l.Fund(acc.Principal, amount)
		logger := klog.WithAccount(acc.Index, acc.Address)
		logger.Info().Str("amount", amount.String()).Msg("Funded")
	}
	return nil
}
