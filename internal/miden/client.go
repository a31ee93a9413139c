// Package miden provides the chain client facade for the Miden rollup node.
package miden

import (
	"context"

	"miden-wallet-lab/internal/domain"
)

// Client defines the chain client facade used by the flows and the poller.
//
// GetAccount returns (nil, nil) when the account is unknown to the local
// state; callers import it and sync before retrying.
type Client interface {
	// SyncState refreshes local cached chain state from the network.
	// Idempotent and safe to repeat.
	SyncState(ctx context.Context) error

	// GetAccount retrieves locally tracked account state, or nil if untracked.
	GetAccount(ctx context.Context, id AccountID) (*Account, error)

	// ImportAccountByID starts tracking a public account by its id.
	ImportAccountByID(ctx context.Context, id AccountID) error

	// GetConsumableNotes lists notes currently claimable by the account.
	GetConsumableNotes(ctx context.Context, id AccountID) ([]domain.ConsumableNote, error)

	// SubmitTransaction submits a transaction executing against the account
	// and returns its transaction id. Never retried at the transport level.
	SubmitTransaction(ctx context.Context, id AccountID, req *TransactionRequest) (string, error)

	// GetTransactionStatus reports whether a submitted transaction has been
	// committed to the chain.
	GetTransactionStatus(ctx context.Context, txID string) (domain.TxStatus, error)

	// GetAccountStorageItem reads one storage slot of a tracked account and
	// returns its word as a hex string.
	GetAccountStorageItem(ctx context.Context, id AccountID, slot uint8) (string, error)

	// DeployFaucet creates a new fungible faucet account.
	DeployFaucet(ctx context.Context, cfg FaucetConfig) (AccountID, error)
}

// Account is the locally tracked state of an on-chain account.
type Account struct {
	ID          AccountID
	Nonce       uint64
	StorageMode string // "public" | "private"
	IsFaucet    bool
}

// FaucetConfig describes a fungible faucet to deploy.
type FaucetConfig struct {
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	InitialSupply uint64 `json:"initial_supply"`
	NonFungible   bool   `json:"non_fungible"`
}
