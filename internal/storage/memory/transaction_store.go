package memory

import (
	"context"
	"sort"
	"sync"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu        sync.RWMutex
	byTxID    map[string]*domain.TransactionRecord // keyed by tx_id
	byAccount map[string][]*domain.TransactionRecord
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		byTxID:    make(map[string]*domain.TransactionRecord),
		byAccount: make(map[string][]*domain.TransactionRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if tx_id exists.
func (s *TransactionStore) Insert(_ context.Context, t *domain.TransactionRecord) error {
	if t == nil || t.TxID == "" || t.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTxID[t.TxID]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *t
	recordCopy.NoteIDs = append([]string(nil), t.NoteIDs...)
	s.byTxID[t.TxID] = &recordCopy
	s.byAccount[t.AccountID] = append(s.byAccount[t.AccountID], &recordCopy)
	return nil
}

// GetByID retrieves a record by transaction id. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(_ context.Context, txID string) (*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.byTxID[txID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *t
	recordCopy.NoteIDs = append([]string(nil), t.NoteIDs...)
	return &recordCopy, nil
}

// ListByAccount retrieves all records for an account, ordered by created_at DESC.
func (s *TransactionStore) ListByAccount(_ context.Context, accountID string) ([]*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.TransactionRecord, 0, len(s.byAccount[accountID]))
	for _, t := range s.byAccount[accountID] {
		recordCopy := *t
		recordCopy.NoteIDs = append([]string(nil), t.NoteIDs...)
		records = append(records, &recordCopy)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
	return records, nil
}

// MarkConfirmed flips a record to CONFIRMED. Returns ErrNotFound if not exists.
func (s *TransactionStore) MarkConfirmed(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.byTxID[txID]
	if !exists {
		return storage.ErrNotFound
	}

	t.Status = domain.TxStatusConfirmed
	return nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
