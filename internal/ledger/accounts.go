package ledger

import (
	"context"
	"fmt"
)

type accountListRequest struct {
	Addresses []string `json:"addresses"`
	Limit     int      `json:"limit"`
}

type wireSnapshot struct {
	Counter Decimal `json:"counter"`
	Balance Decimal `json:"balance"`
}

type wireAccount struct {
	Address   string        `json:"address"`
	Current   *wireSnapshot `json:"current"`
	Projected *wireSnapshot `json:"projected"`
}

type accountListResponse struct {
	Accounts []wireAccount `json:"accounts"`
}

// ListAccounts fetches the current and projected state of each address.
// At most MaxPerCall addresses may be requested at once. The node omits
// addresses it has never seen; the result only holds what it returned.
func (c *Client) ListAccounts(ctx context.Context, addresses []string) ([]AccountState, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	if len(addresses) > MaxPerCall {
		return nil, fmt.Errorf("list accounts: %d addresses exceeds limit of %d", len(addresses), MaxPerCall)
	}

	var resp accountListResponse
	req := accountListRequest{Addresses: addresses, Limit: MaxPerCall}
	if err := c.post(ctx, PathAccountList, req, &resp); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	out := make([]AccountState, 0, len(resp.Accounts))
	for i, acc := range resp.Accounts {
		state, err := acc.decode()
		if err != nil {
			return nil, invalid(PathAccountList, "account %d: %v", i, err)
		}
		out = append(out, state)
	}
	return out, nil
}

func (w wireAccount) decode() (AccountState, error) {
	if w.Address == "" {
		return AccountState{}, fmt.Errorf("missing address")
	}
	if w.Current == nil {
		return AccountState{}, fmt.Errorf("%s: missing current state", w.Address)
	}
	if w.Projected == nil {
		return AccountState{}, fmt.Errorf("%s: missing projected state", w.Address)
	}
	cur, err := w.Current.decode()
	if err != nil {
		return AccountState{}, fmt.Errorf("%s: current: %w", w.Address, err)
	}
	proj, err := w.Projected.decode()
	if err != nil {
		return AccountState{}, fmt.Errorf("%s: projected: %w", w.Address, err)
	}
	if proj.Counter < cur.Counter {
		return AccountState{}, fmt.Errorf("%s: projected counter %d below current %d",
			w.Address, proj.Counter, cur.Counter)
	}
	return AccountState{Address: w.Address, Current: cur, Projected: proj}, nil
}

func (w wireSnapshot) decode() (Snapshot, error) {
	counter, err := w.Counter.Uint64()
	if err != nil {
		return Snapshot{}, fmt.Errorf("counter: %w", err)
	}
	balance, err := w.Balance.Uint()
	if err != nil {
		return Snapshot{}, fmt.Errorf("balance: %w", err)
	}
	return Snapshot{Counter: counter, Balance: balance}, nil
}
