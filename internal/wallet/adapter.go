// Package wallet abstracts transaction approval and submission on behalf of
// an account owner.
package wallet

import (
	"context"

	"miden-wallet-lab/internal/miden"
)

// SendTransaction describes a token transfer for the adapter to approve.
type SendTransaction struct {
	Recipient miden.AccountID
	Faucet    miden.AccountID
	NoteType  miden.NoteType
	Amount    uint64 // base units
}

// ConsumeTransaction describes a note-consumption for the adapter to approve.
type ConsumeTransaction struct {
	NoteIDs []string
}

// ScriptTransaction describes a custom transaction script for the adapter to
// approve.
type ScriptTransaction struct {
	Script string
}

// Adapter signs and submits transactions for one account. Implementations
// decide how approval happens; the flows never see key material.
type Adapter interface {
	// Address returns the account the adapter signs for.
	Address() miden.AccountID

	// Connected reports whether the adapter is ready to sign.
	Connected() bool

	// RequestSend approves and submits a transfer, returning the tx id.
	RequestSend(ctx context.Context, tx SendTransaction) (string, error)

	// RequestConsume approves and submits a note consumption, returning the tx id.
	RequestConsume(ctx context.Context, tx ConsumeTransaction) (string, error)

	// RequestScript approves and submits a script transaction, returning the tx id.
	RequestScript(ctx context.Context, tx ScriptTransaction) (string, error)
}
