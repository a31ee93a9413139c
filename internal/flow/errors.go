package flow

import (
	"context"
	"errors"
	"strings"

	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/poller"
	"miden-wallet-lab/internal/storage"
)

// FailureKind is the closed taxonomy of flow failures. Structured errors are
// classified first; message inspection is the last resort.
type FailureKind string

const (
	FailureInsufficientFunds FailureKind = "INSUFFICIENT_FUNDS"
	FailureTimeout           FailureKind = "TIMEOUT"
	FailureNotFound          FailureKind = "NOT_FOUND"
	FailureTransient         FailureKind = "TRANSIENT"
	FailureUnknown           FailureKind = "UNKNOWN"
)

// FlowError is a classified flow failure.
type FlowError struct {
	Kind FailureKind
	Err  error
}

func (e *FlowError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user for this failure.
func (e *FlowError) UserMessage() string {
	switch e.Kind {
	case FailureInsufficientFunds:
		return "Insufficient balance or funds"
	case FailureTimeout:
		return "Timed out waiting for the note to appear"
	case FailureNotFound:
		return "Account or note not found"
	case FailureTransient:
		return "Network error, please try again"
	default:
		return e.Err.Error()
	}
}

// classifyError maps err onto the failure taxonomy.
func classifyError(err error) *FlowError {
	var ferr *FlowError
	if errors.As(err, &ferr) {
		return ferr
	}

	kind := FailureUnknown
	switch {
	case miden.IsInsufficientFunds(err):
		kind = FailureInsufficientFunds
	case errors.Is(err, poller.ErrTimeout):
		kind = FailureTimeout
	case miden.IsNotFound(err) || errors.Is(err, storage.ErrNotFound):
		kind = FailureNotFound
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		kind = FailureTransient
	case strings.Contains(strings.ToLower(err.Error()), "insufficient"):
		// Some nodes report balance failures as plain text.
		kind = FailureInsufficientFunds
	}

	return &FlowError{Kind: kind, Err: err}
}
