// Package sweep moves the funds of derived accounts to a single
// destination: it reads account states in batches, selects the accounts
// worth sweeping, and publishes their spawn and spend transactions.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/smh-collector/internal/ledger"
	klog "github.com/spacemeshos/smh-collector/internal/log"
	"github.com/spacemeshos/smh-collector/internal/wallet"
	"github.com/spacemeshos/smh-collector/pkg/tx"
	"github.com/spacemeshos/smh-collector/pkg/types"
)

// DefaultLayerTime is the ledger's layer duration.
const DefaultLayerTime = 6 * time.Second

// Ledger is the subset of the node API the sweep needs.
type Ledger interface {
	AccountLister
	TxLister
	SubmitTransaction(ctx context.Context, raw []byte) (string, error)
}

// Params configures one sweep run. Values are fixed for the whole run.
type Params struct {
	Builder     *tx.Builder
	Destination types.Address
	Fees        tx.FeeSchedule
	LayerTime   time.Duration

	BatchSize int // Addresses per account query.
	Parallel  int // Concurrent account queries (0 = unlimited).

	MaxPollAttempts int  // 0 = poll until terminal.
	WaitSpend       bool // Also wait for spend transactions to finish.
}

// PendingTransaction is a transaction accepted by the node.
type PendingTransaction struct {
	ID          string
	Kind        tx.Kind
	Account     uint32
	SubmittedAt time.Time
}

// Report summarises a run.
type Report struct {
	Scanned      int
	Eligible     int
	Spawned      int
	Spent        int
	Failed       int
	Transactions []PendingTransaction
}

// Orchestrator runs the sweep against one ledger.
type Orchestrator struct {
	ledger Ledger
	params Params
	poller *Poller
	logger zerolog.Logger

	mu     sync.Mutex
	report Report
}

// New validates params and creates an orchestrator.
func New(l Ledger, params Params) (*Orchestrator, error) {
	if params.Builder == nil {
		return nil, errors.New("sweep: nil transaction builder")
	}
	if params.Destination.IsZero() {
		return nil, errors.New("sweep: destination not set")
	}
	if params.Fees.IsUnset() {
		params.Fees = tx.DefaultFees()
	}
	if params.LayerTime <= 0 {
		params.LayerTime = DefaultLayerTime
	}
	if params.BatchSize == 0 {
		params.BatchSize = DefaultBatchSize
	}
	if params.BatchSize < 1 || params.BatchSize > ledger.MaxPerCall {
		return nil, fmt.Errorf("sweep: batch size %d out of range [1, %d]", params.BatchSize, ledger.MaxPerCall)
	}

	poller := NewPoller(l, params.LayerTime/2)
	poller.SetMaxAttempts(params.MaxPollAttempts)

	return &Orchestrator{
		ledger: l,
		params: params,
		poller: poller,
		logger: klog.Sweep,
	}, nil
}

// SetSleeper replaces the wait between confirmation polls.
func (o *Orchestrator) SetSleeper(s Sleeper) {
	o.poller.SetSleeper(s)
}

// Run sweeps accounts in order. Accounts that need a spawn are finished in
// the background once the spawn is confirmed; Run returns after all of
// them are done. The first fatal error is logged, stops the scan of further
// accounts, cancels the background work and is returned; otherwise the
// first background failure is returned.
func (o *Orchestrator) Run(ctx context.Context, accounts []*wallet.DerivedAccount) (*Report, error) {
	cands, err := QueryBalances(ctx, o.ledger, accounts, o.params.BatchSize, o.params.Parallel)
	if err != nil {
		return o.snapshot(), fmt.Errorf("read balances: %w", err)
	}

	eligible := Filter(cands, o.params.Fees)
	o.mu.Lock()
	o.report.Scanned = len(cands)
	o.report.Eligible = len(eligible)
	o.mu.Unlock()

	for _, c := range cands {
		o.logger.Info().
			Uint32("account", c.Account.Index).
			Str("address", c.Account.Address).
			Uint64("counter", c.State.Current.Counter).
			Uint64("projected_counter", c.State.Projected.Counter).
			Str("balance", c.State.Current.Balance.String()).
			Msg("Account")
	}
	o.logger.Info().
		Int("scanned", len(cands)).
		Int("eligible", len(eligible)).
		Msg("Accounts selected for sweep")

	// Detached chains stop waiting once the main loop hits a fatal error.
	chainCtx, stopChains := context.WithCancel(ctx)
	defer stopChains()

	var chains errgroup.Group
	var fatal error

	for _, c := range eligible {
		c := c
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}

		if !NeedsSpawn(c.State) {
			logger := klog.WithAccount(c.Account.Index, c.Account.Address)
			logger.Debug().Msg("Account is already spawned")
			if _, err := o.spend(ctx, c, c.State.Projected.Counter, false); err != nil {
				fatal = err
				break
			}
			continue
		}

		id, err := o.spawn(ctx, c)
		if err != nil {
			fatal = err
			break
		}
		chains.Go(func() error {
			return o.completeSpawned(chainCtx, c, id)
		})
	}

	if fatal != nil {
		o.logFatal(fatal)
		stopChains()
	}
	chainErr := chains.Wait()
	if fatal != nil {
		return o.snapshot(), fatal
	}
	return o.snapshot(), chainErr
}

// logFatal reports a main-loop failure as soon as it happens, before the
// detached chains are wound down.
func (o *Orchestrator) logFatal(err error) {
	if errors.Is(err, context.Canceled) {
		o.logger.Warn().Msg("Sweep cancelled")
		return
	}
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		o.logger.Error().
			Err(subErr.Err).
			Uint32("account", subErr.Account).
			Str("kind", subErr.Kind.String()).
			Str("signed_tx", subErr.Hex()).
			Msg("Cannot publish transaction")
		return
	}
	o.logger.Error().Err(err).Msg("Sweep stopped")
}

// spawn publishes the spawn transaction of an account.
func (o *Orchestrator) spawn(ctx context.Context, c Candidate) (string, error) {
	acc := c.Account
	logger := klog.WithAccount(acc.Index, acc.Address)

	raw, err := o.params.Builder.Spawn(acc.Principal, acc.Signer(), 0)
	if err != nil {
		return "", fmt.Errorf("build spawn for account #%d: %w", acc.Index, err)
	}
	id, err := o.ledger.SubmitTransaction(ctx, raw)
	if err != nil {
		o.recordFailure()
		return "", &SubmissionError{Kind: tx.KindSpawn, Account: acc.Index, SignedTx: raw, Err: err}
	}

	o.record(PendingTransaction{ID: id, Kind: tx.KindSpawn, Account: acc.Index, SubmittedAt: time.Now()})
	logger.Info().Str("tx", id).Msg("Spawn transaction published")
	return id, nil
}

// spend publishes a spend of the account's full sendable balance.
func (o *Orchestrator) spend(ctx context.Context, c Candidate, nonce uint64, justSpawned bool) (string, error) {
	acc := c.Account
	logger := klog.WithAccount(acc.Index, acc.Address)

	amount, err := o.params.Fees.SendableAmount(c.State.Current.Balance, justSpawned)
	if err != nil {
		return "", fmt.Errorf("account #%d: %w", acc.Index, err)
	}
	amount64, err := tx.AmountUint64(amount)
	if err != nil {
		return "", fmt.Errorf("account #%d: %w", acc.Index, err)
	}

	raw, err := o.params.Builder.Spend(acc.Principal, o.params.Destination, amount64, nonce, acc.Signer())
	if err != nil {
		return "", fmt.Errorf("build spend for account #%d: %w", acc.Index, err)
	}
	id, err := o.ledger.SubmitTransaction(ctx, raw)
	if err != nil {
		o.recordFailure()
		return "", &SubmissionError{Kind: tx.KindSpend, Account: acc.Index, SignedTx: raw, Err: err}
	}

	o.record(PendingTransaction{ID: id, Kind: tx.KindSpend, Account: acc.Index, SubmittedAt: time.Now()})
	logger.Info().
		Str("tx", id).
		Uint64("nonce", nonce).
		Str("amount", amount.String()).
		Msg("Spend transaction published")

	if o.params.WaitSpend {
		if _, err := o.poller.Wait(ctx, id, tx.KindSpend); err != nil {
			o.recordFailure()
			return id, err
		}
		logger.Info().Str("tx", id).Msg("Spend transaction processed")
	}
	return id, nil
}

// completeSpawned waits for a spawn to be processed and then sweeps the
// account. Failures are logged here since siblings keep running.
func (o *Orchestrator) completeSpawned(ctx context.Context, c Candidate, spawnID string) error {
	logger := klog.WithAccount(c.Account.Index, c.Account.Address)

	if _, err := o.poller.Wait(ctx, spawnID, tx.KindSpawn); err != nil {
		if ctx.Err() != nil {
			logger.Warn().Str("tx", spawnID).Msg("Stopped waiting for spawn transaction")
			return err
		}
		o.recordFailure()
		logger.Error().Err(err).Str("tx", spawnID).Msg("Spawn transaction did not complete")
		return err
	}
	logger.Info().Str("tx", spawnID).Msg("Spawn transaction processed")

	_, err := o.spend(ctx, c, c.State.Projected.Counter+1, true)
	if err != nil {
		ev := logger.Error().Err(err)
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			ev = ev.Str("signed_tx", subErr.Hex())
		}
		ev.Msg("Sweep of spawned account failed")
		return err
	}
	return nil
}

func (o *Orchestrator) record(p PendingTransaction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report.Transactions = append(o.report.Transactions, p)
	switch p.Kind {
	case tx.KindSpawn:
		o.report.Spawned++
	case tx.KindSpend:
		o.report.Spent++
	}
}

func (o *Orchestrator) recordFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report.Failed++
}

func (o *Orchestrator) snapshot() *Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	r := o.report
	r.Transactions = append([]PendingTransaction(nil), o.report.Transactions...)
	return &r
}
