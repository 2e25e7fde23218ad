package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound also covers "exists but belongs to someone else" for jobs,
	// so callers cannot probe for other clients' jobs.
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyPaid       = errors.New("job is already paid")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotPaid           = errors.New("job is not paid")
	// ErrTransactionFailure is an infrastructure fault. Nothing was persisted
	// and the call may be retried.
	ErrTransactionFailure = errors.New("transaction failure")
)

// TxError wraps a store failure during a payment. It matches
// ErrTransactionFailure but does not expose the underlying driver error
// through errors.Unwrap.
type TxError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction failure during %s: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error {
	return ErrTransactionFailure
}
