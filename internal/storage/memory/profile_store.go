// Package memory provides in-memory store implementations for tests and
// local development.
package memory

import (
	"context"
	"sync"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/storage"
)

// ProfileStore is an in-memory implementation of storage.ProfileStore.
type ProfileStore struct {
	mu       sync.RWMutex
	byWallet map[string]*domain.CreatorProfile // keyed by wallet_address
}

// NewProfileStore creates a new in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		byWallet: make(map[string]*domain.CreatorProfile),
	}
}

// Upsert creates or replaces the profile keyed by wallet address.
func (s *ProfileStore) Upsert(_ context.Context, p *domain.CreatorProfile) error {
	if p == nil || p.WalletAddress == "" || p.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	profileCopy := *p
	profileCopy.UpdatedAt = now

	if existing, exists := s.byWallet[p.WalletAddress]; exists {
		profileCopy.CreatedAt = existing.CreatedAt
	} else {
		profileCopy.CreatedAt = now
	}

	s.byWallet[p.WalletAddress] = &profileCopy
	return nil
}

// GetByWallet retrieves a profile by wallet address. Returns ErrNotFound if not exists.
func (s *ProfileStore) GetByWallet(_ context.Context, walletAddress string) (*domain.CreatorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.byWallet[walletAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	profileCopy := *p
	return &profileCopy, nil
}

var _ storage.ProfileStore = (*ProfileStore)(nil)
