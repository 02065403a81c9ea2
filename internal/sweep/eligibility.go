package sweep

import (
	"github.com/spacemeshos/smh-collector/internal/ledger"
	"github.com/spacemeshos/smh-collector/pkg/tx"
)

// NeedsSpawn reports whether the account must be spawned before it can
// spend.
func NeedsSpawn(s ledger.AccountState) bool {
	return s.Projected.Counter == 0
}

// Eligible reports whether an account can be swept now. Accounts with
// pending transactions are skipped, as are accounts whose balance does
// not strictly exceed the fees of the transactions needed to empty them.
func Eligible(s ledger.AccountState, fees tx.FeeSchedule) bool {
	if s.Current.Counter != s.Projected.Counter {
		return false
	}
	return s.Current.Balance.GT(fees.SweepCost(s.Current.Counter == 0))
}

// Filter returns the eligible candidates in their original order.
func Filter(cands []Candidate, fees tx.FeeSchedule) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if Eligible(c.State, fees) {
			out = append(out, c)
		}
	}
	return out
}
