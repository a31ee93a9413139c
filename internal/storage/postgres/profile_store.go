package postgres

import (
	"context"
	"fmt"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/observability"
	"miden-wallet-lab/internal/storage"
)

// ProfileStore implements storage.ProfileStore using PostgreSQL.
type ProfileStore struct {
	pool *Pool
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(pool *Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProfileStore = (*ProfileStore)(nil)

// Upsert creates or replaces the profile keyed by wallet address.
// CreatedAt of an existing row is preserved by the ON CONFLICT clause.
func (s *ProfileStore) Upsert(ctx context.Context, p *domain.CreatorProfile) error {
	if p == nil || p.WalletAddress == "" || p.Name == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO creator_profiles (
			wallet_address, name, bio, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (wallet_address) DO UPDATE SET
			name = EXCLUDED.name,
			bio = EXCLUDED.bio,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UnixMilli()
	_, err := s.pool.Exec(ctx, query,
		p.WalletAddress,
		p.Name,
		p.Bio,
		now,
	)
	if err != nil {
		observability.RecordDBQueryError("postgres", "upsert_profile")
		return fmt.Errorf("upsert creator profile: %w", err)
	}
	return nil
}

// GetByWallet retrieves a profile by wallet address. Returns ErrNotFound if not exists.
func (s *ProfileStore) GetByWallet(ctx context.Context, walletAddress string) (*domain.CreatorProfile, error) {
	query := `
		SELECT wallet_address, name, bio, created_at, updated_at
		FROM creator_profiles
		WHERE wallet_address = $1
	`

	var p domain.CreatorProfile
	err := s.pool.QueryRow(ctx, query, walletAddress).Scan(
		&p.WalletAddress,
		&p.Name,
		&p.Bio,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		observability.RecordDBQueryError("postgres", "get_profile")
		return nil, fmt.Errorf("get creator profile: %w", err)
	}
	return &p, nil
}
