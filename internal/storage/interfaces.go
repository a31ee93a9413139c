package storage

import (
	"context"

	"miden-wallet-lab/internal/domain"
)

// ProfileStore provides access to creator profile storage.
type ProfileStore interface {
	// Upsert creates or replaces the profile keyed by wallet address.
	// CreatedAt of an existing profile is preserved.
	Upsert(ctx context.Context, p *domain.CreatorProfile) error

	// GetByWallet retrieves a profile by wallet address. Returns ErrNotFound if not exists.
	GetByWallet(ctx context.Context, walletAddress string) (*domain.CreatorProfile, error)
}

// TransactionStore provides access to transaction record storage.
type TransactionStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if tx_id exists.
	Insert(ctx context.Context, t *domain.TransactionRecord) error

	// GetByID retrieves a record by transaction id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, txID string) (*domain.TransactionRecord, error)

	// ListByAccount retrieves all records for an account, ordered by created_at DESC.
	ListByAccount(ctx context.Context, accountID string) ([]*domain.TransactionRecord, error)

	// MarkConfirmed flips a record to CONFIRMED. Returns ErrNotFound if not exists.
	MarkConfirmed(ctx context.Context, txID string) error
}

// PaymentEventStore provides access to payment event storage.
// Payment events are append-only.
type PaymentEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, e *domain.PaymentEvent) error

	// ListByCreator retrieves all events for a creator, ordered by timestamp DESC.
	ListByCreator(ctx context.Context, creator string) ([]*domain.PaymentEvent, error)

	// TotalByCreator sums the amounts of all events for a creator.
	TotalByCreator(ctx context.Context, creator string) (uint64, error)
}
