// smh-collector sweeps the funds of every account derived from a seed
// phrase to one destination address.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacemeshos/smh-collector/config"
	"github.com/spacemeshos/smh-collector/internal/ledger"
	klog "github.com/spacemeshos/smh-collector/internal/log"
	"github.com/spacemeshos/smh-collector/internal/sweep"
	"github.com/spacemeshos/smh-collector/internal/wallet"
	"github.com/spacemeshos/smh-collector/pkg/tx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one sweep and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, flags, err := config.Load(args, stdout)
	if errors.Is(err, config.ErrExit) {
		return sweep.ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return sweep.ExitFatal
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(stderr, "Error: init logging: %v\n", err)
		return sweep.ExitFatal
	}
	p := newPrompter(stdin, stdout, !flags.NoPrompt)
	mnemonic, err := p.fill(ctx, cfg)
	if errors.Is(err, errCancelled) {
		fmt.Fprintln(stdout, "Cancelled")
		return sweep.ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return sweep.ExitFatal
	}
	if err := config.Complete(cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return sweep.ExitFatal
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return sweep.ExitFatal
	}
	defer wallet.Zero(seed)

	orch, accounts, err := setup(cfg, seed)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return sweep.ExitFatal
	}
	defer wallet.WipeAll(accounts)

	report, err := orch.Run(ctx, accounts)
	printReport(stdout, report)
	return finish(stdout, stderr, err)
}

// setup derives the accounts and wires the orchestrator to the ledger.
func setup(cfg *config.Config, seed []byte) (*sweep.Orchestrator, []*wallet.DerivedAccount, error) {
	hrp, err := cfg.HRP()
	if err != nil {
		return nil, nil, err
	}
	genesis, err := cfg.GenesisID()
	if err != nil {
		return nil, nil, err
	}
	dest, err := cfg.DestinationAddress()
	if err != nil {
		return nil, nil, err
	}

	done := klog.Benchmark("derive accounts")
	accounts, err := wallet.DeriveAccounts(seed, cfg.Scan.Accounts, hrp)
	done()
	if err != nil {
		return nil, nil, fmt.Errorf("derive accounts: %w", err)
	}

	client := ledger.NewWithTimeout(cfg.RPCURL(), cfg.RPC.Timeout)
	logger := klog.WithComponent("cli")
	logger.Info().
		Str("network", string(cfg.Network)).
		Str("rpc", client.Endpoint()).
		Str("destination", cfg.Destination).
		Uint32("accounts", cfg.Scan.Accounts).
		Msg("Starting sweep")

	orch, err := sweep.New(client, sweep.Params{
		Builder:         tx.NewBuilder(genesis),
		Destination:     dest,
		Fees:            cfg.FeeSchedule(),
		LayerTime:       cfg.LayerTime,
		BatchSize:       cfg.Scan.Batch,
		Parallel:        cfg.Scan.Parallel,
		MaxPollAttempts: cfg.Poll.MaxAttempts,
		WaitSpend:       cfg.Sweep.WaitSpend,
	})
	if err != nil {
		wallet.WipeAll(accounts)
		return nil, nil, err
	}
	return orch, accounts, nil
}

func printReport(w io.Writer, r *sweep.Report) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "Checked %d accounts, %d eligible: %d spawn and %d spend transactions published",
		r.Scanned, r.Eligible, r.Spawned, r.Spent)
	if r.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", r.Failed)
	}
	fmt.Fprintln(w)
}

// finish prints the outcome of a run and returns its exit code.
func finish(stdout, stderr io.Writer, err error) int {
	code := sweep.ExitCode(err)
	if err == nil {
		return code
	}
	if code == sweep.ExitOK {
		fmt.Fprintln(stdout, "Cancelled")
		return code
	}

	var subErr *sweep.SubmissionError
	if errors.As(err, &subErr) {
		fmt.Fprintf(stderr, "Cannot publish %s transaction: %v\n", subErr.Kind, subErr.Err)
		fmt.Fprintf(stderr, "Encoded and signed transaction:\n%s\n", subErr.Hex())
		return code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return code
}
