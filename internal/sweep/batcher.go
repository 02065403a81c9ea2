package sweep

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/smh-collector/internal/ledger"
	"github.com/spacemeshos/smh-collector/internal/wallet"
)

// DefaultBatchSize is the number of addresses per account query.
const DefaultBatchSize = 2

// AccountLister fetches account states.
type AccountLister interface {
	ListAccounts(ctx context.Context, addresses []string) ([]ledger.AccountState, error)
}

// Candidate is a derived account together with its ledger state.
type Candidate struct {
	Account *wallet.DerivedAccount
	State   ledger.AccountState
}

// Chunk splits items into consecutive groups of at most k elements.
// The last group may be shorter.
func Chunk[T any](items []T, k int) ([][]T, error) {
	if k <= 0 {
		return nil, fmt.Errorf("chunk size %d must be positive", k)
	}
	chunks := make([][]T, 0, (len(items)+k-1)/k)
	for start := 0; start < len(items); start += k {
		end := start + k
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks, nil
}

// QueryBalances fetches the ledger state of every account, batchSize
// addresses per request. Requests run concurrently, at most parallel at a
// time (0 means no limit). Results keep the order of accounts. Any failed
// request fails the whole query.
func QueryBalances(ctx context.Context, l AccountLister, accounts []*wallet.DerivedAccount, batchSize, parallel int) ([]Candidate, error) {
	if batchSize < 1 || batchSize > ledger.MaxPerCall {
		return nil, fmt.Errorf("batch size %d out of range [1, %d]", batchSize, ledger.MaxPerCall)
	}

	chunks, err := Chunk(accounts, batchSize)
	if err != nil {
		return nil, err
	}
	results := make([][]Candidate, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			cands, err := queryChunk(ctx, l, chunk)
			if err != nil {
				return fmt.Errorf("query accounts %d..%d: %w",
					chunk[0].Index, chunk[len(chunk)-1].Index, err)
			}
			results[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(accounts))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// queryChunk queries one chunk and pairs each returned state with the
// account that requested it.
func queryChunk(ctx context.Context, l AccountLister, chunk []*wallet.DerivedAccount) ([]Candidate, error) {
	addrs := make([]string, len(chunk))
	pos := make(map[string]int, len(chunk))
	for i, acc := range chunk {
		addrs[i] = acc.Address
		pos[acc.Address] = i
	}

	states, err := l.ListAccounts(ctx, addrs)
	if err != nil {
		return nil, err
	}

	found := make([]*ledger.AccountState, len(chunk))
	for i := range states {
		idx, ok := pos[states[i].Address]
		if !ok {
			return nil, &ledger.ValidationError{
				Op:     ledger.PathAccountList,
				Reason: fmt.Sprintf("unrequested address %s in response", states[i].Address),
			}
		}
		if found[idx] != nil {
			return nil, &ledger.ValidationError{
				Op:     ledger.PathAccountList,
				Reason: fmt.Sprintf("duplicate address %s in response", states[i].Address),
			}
		}
		found[idx] = &states[i]
	}

	out := make([]Candidate, len(chunk))
	for i, acc := range chunk {
		state := ledger.ZeroState(acc.Address)
		if found[i] != nil {
			state = *found[i]
		}
		out[i] = Candidate{Account: acc, State: state}
	}
	return out, nil
}
