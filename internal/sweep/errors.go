package sweep

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spacemeshos/smh-collector/internal/ledger"
	"github.com/spacemeshos/smh-collector/pkg/tx"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitSpawnSubmit = 1
	ExitSpendSubmit = 2
	ExitTxFailed    = 3
	ExitFatal       = 4
)

// ErrPollLimit is returned when a transaction is still pending after the
// configured number of status polls.
var ErrPollLimit = errors.New("transaction still pending after poll limit")

// SubmissionError is a failed transaction submission. It carries the
// signed payload so the transaction can be rebroadcast by hand.
type SubmissionError struct {
	Kind     tx.Kind
	Account  uint32
	SignedTx []byte
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s transaction for account #%d: %v", e.Kind, e.Account, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Hex returns the signed transaction hex-encoded.
func (e *SubmissionError) Hex() string {
	return hex.EncodeToString(e.SignedTx)
}

// TerminalStateError reports a transaction that reached a final state
// other than processed.
type TerminalStateError struct {
	ID      string
	Kind    tx.Kind
	State   ledger.TxState
	Message string
}

func (e *TerminalStateError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s transaction %s failed with status: %s", e.Kind, e.ID, e.State)
	}
	return fmt.Sprintf("%s transaction %s failed with status: %s %s", e.Kind, e.ID, e.State, e.Message)
}

// ExitCode maps an error returned by the sweep to a process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return ExitOK
	}

	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		if subErr.Kind == tx.KindSpawn {
			return ExitSpawnSubmit
		}
		return ExitSpendSubmit
	}

	var stateErr *TerminalStateError
	if errors.As(err, &stateErr) {
		return ExitTxFailed
	}
	return ExitFatal
}
