package ledger

import "fmt"

// ValidationError reports a response that does not match the expected
// schema. Callers must treat it as fatal: decisions built on a partially
// understood response are unsafe.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid response from %s: %s", e.Op, e.Reason)
}

func invalid(op, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
