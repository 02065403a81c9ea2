package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	sdkmath "cosmossdk.io/math"
)

// Snapshot is an account's nonce counter and balance at one point in time.
type Snapshot struct {
	Counter uint64
	Balance sdkmath.Uint
}

// AccountState pairs the confirmed state of an account with its projected
// state, which includes transactions still in the mempool.
type AccountState struct {
	Address   string
	Current   Snapshot
	Projected Snapshot
}

// ZeroState is the state of an address the node knows nothing about.
func ZeroState(address string) AccountState {
	return AccountState{
		Address:   address,
		Current:   Snapshot{Balance: sdkmath.ZeroUint()},
		Projected: Snapshot{Balance: sdkmath.ZeroUint()},
	}
}

// TxState is the lifecycle state of a submitted transaction.
type TxState int

const (
	TxStateUnspecified TxState = iota
	TxStateRejected
	TxStateInsufficientFunds
	TxStateConflicting
	TxStateMempool
	TxStateMesh
	TxStateProcessed
)

var txStateNames = map[TxState]string{
	TxStateUnspecified:       "TRANSACTION_STATE_UNSPECIFIED",
	TxStateRejected:          "TRANSACTION_STATE_REJECTED",
	TxStateInsufficientFunds: "TRANSACTION_STATE_INSUFFICIENT_FUNDS",
	TxStateConflicting:       "TRANSACTION_STATE_CONFLICTING",
	TxStateMempool:           "TRANSACTION_STATE_MEMPOOL",
	TxStateMesh:              "TRANSACTION_STATE_MESH",
	TxStateProcessed:         "TRANSACTION_STATE_PROCESSED",
}

// String returns the wire name of the state.
func (s TxState) String() string {
	if name, ok := txStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TxState(%d)", int(s))
}

// ParseTxState parses a wire state name.
func ParseTxState(s string) (TxState, error) {
	for state, name := range txStateNames {
		if name == s {
			return state, nil
		}
	}
	return TxStateUnspecified, fmt.Errorf("unknown transaction state %q", s)
}

// IsPending reports whether the transaction may still change state.
func (s TxState) IsPending() bool {
	switch s {
	case TxStateUnspecified, TxStateMempool, TxStateMesh:
		return true
	}
	return false
}

// IsTerminal reports whether the state is final.
func (s TxState) IsTerminal() bool {
	return !s.IsPending()
}

// IsSuccess reports whether the transaction was applied.
func (s TxState) IsSuccess() bool {
	return s == TxStateProcessed
}

// MarshalText implements encoding.TextMarshaler.
func (s TxState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TxState) UnmarshalText(b []byte) error {
	v, err := ParseTxState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TxResult is the execution outcome reported for an applied transaction.
type TxResult struct {
	Status           string   `json:"status"`
	Message          string   `json:"message"`
	GasConsumed      Decimal  `json:"gasConsumed"`
	Fee              Decimal  `json:"fee"`
	Block            string   `json:"block"`
	Layer            uint32   `json:"layer"`
	TouchedAddresses []string `json:"touchedAddresses"`
}

// TxNonce is the nonce object embedded in transaction summaries.
type TxNonce struct {
	Counter  Decimal `json:"counter"`
	Bitfield uint32  `json:"bitfield,omitempty"`
}

// TxSummary is the node's view of a submitted transaction.
type TxSummary struct {
	ID        string  `json:"id"`
	Principal string  `json:"principal"`
	Template  string  `json:"template"`
	Method    uint32  `json:"method"`
	Nonce     TxNonce `json:"nonce"`
	MaxGas    Decimal `json:"maxGas"`
	GasPrice  Decimal `json:"gasPrice"`
	MaxSpend  Decimal `json:"maxSpend"`
	Raw       string  `json:"raw"`
}

// TransactionInfo is one entry of a transaction List response.
// State is nil when the node has not assigned one yet.
type TransactionInfo struct {
	Tx     TxSummary `json:"tx"`
	Result *TxResult `json:"txResult"`
	State  *TxState  `json:"txState"`
}

// EffectiveState returns the reported state, or Unspecified when absent.
func (t TransactionInfo) EffectiveState() TxState {
	if t.State == nil {
		return TxStateUnspecified
	}
	return *t.State
}

// Message returns the result message, if any.
func (t TransactionInfo) Message() string {
	if t.Result == nil {
		return ""
	}
	return t.Result.Message
}

// Decimal is a non-negative integer carried on the wire either as a
// decimal string or as a JSON number.
type Decimal string

// UnmarshalJSON implements json.Unmarshaler.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("invalid decimal %q", s)
		}
	}
	*d = Decimal(s)
	return nil
}

// MarshalJSON encodes the value as a decimal string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// Uint64 parses the value into a uint64.
func (d Decimal) Uint64() (uint64, error) {
	if d == "" {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseUint(string(d), 10, 64)
}

// Uint parses the value into an arbitrary precision integer.
func (d Decimal) Uint() (sdkmath.Uint, error) {
	if d == "" {
		return sdkmath.Uint{}, fmt.Errorf("missing value")
	}
	return sdkmath.ParseUint(string(d))
}
