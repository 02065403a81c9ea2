package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/spacemeshos/smh-collector/internal/ledger"
	klog "github.com/spacemeshos/smh-collector/internal/log"
	"github.com/spacemeshos/smh-collector/pkg/tx"
)

// TxLister fetches transaction states.
type TxLister interface {
	ListTransactions(ctx context.Context, ids []string) ([]ledger.TransactionInfo, error)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poller waits for submitted transactions to reach a terminal state.
type Poller struct {
	ledger      TxLister
	interval    time.Duration
	maxAttempts int
	sleep       Sleeper
	logger      zerolog.Logger
}

// NewPoller creates a poller that checks every interval.
func NewPoller(l TxLister, interval time.Duration) *Poller {
	return &Poller{
		ledger:   l,
		interval: interval,
		sleep:    SleepContext,
		logger:   klog.Sweep,
	}
}

// SetSleeper replaces the function used to wait between polls.
func (p *Poller) SetSleeper(s Sleeper) {
	p.sleep = s
}

// SetMaxAttempts bounds the number of polls per transaction (0 = no bound).
func (p *Poller) SetMaxAttempts(n int) {
	p.maxAttempts = n
}

// Wait polls the transaction until it leaves the pending states. The first
// poll is immediate. A processed transaction returns its final info; any
// other final state returns a *TerminalStateError.
func (p *Poller) Wait(ctx context.Context, id string, kind tx.Kind) (ledger.TransactionInfo, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return ledger.TransactionInfo{}, fmt.Errorf("wait for %s transaction %s: %w", kind, id, err)
		}
		txs, err := p.ledger.ListTransactions(ctx, []string{id})
		if err != nil {
			return ledger.TransactionInfo{}, fmt.Errorf("poll %s transaction %s: %w", kind, id, err)
		}

		var info *ledger.TransactionInfo
		for i := range txs {
			if txs[i].Tx.ID == id {
				info = &txs[i]
				break
			}
		}

		state := ledger.TxStateUnspecified
		if info != nil {
			state = info.EffectiveState()
		}

		if state.IsTerminal() {
			if state.IsSuccess() {
				return *info, nil
			}
			return *info, &TerminalStateError{ID: id, Kind: kind, State: state, Message: info.Message()}
		}

		p.logger.Debug().
			Str("id", id).
			Str("kind", kind.String()).
			Str("state", state.String()).
			Int("attempt", attempt).
			Msg("Transaction pending")

		if p.maxAttempts > 0 && attempt >= p.maxAttempts {
			return ledger.TransactionInfo{}, fmt.Errorf("%s transaction %s: %w (%d polls)", kind, id, ErrPollLimit, attempt)
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return ledger.TransactionInfo{}, fmt.Errorf("wait for %s transaction %s: %w", kind, id, err)
		}
	}
}
