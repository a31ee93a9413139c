package memory

import (
	"context"
	"sort"
	"sync"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/storage"
)

// PaymentEventStore is an in-memory implementation of storage.PaymentEventStore.
type PaymentEventStore struct {
	mu        sync.RWMutex
	byEventID map[string]*domain.PaymentEvent // keyed by event_id
	byCreator map[string][]*domain.PaymentEvent
}

// NewPaymentEventStore creates a new in-memory payment event store.
func NewPaymentEventStore() *PaymentEventStore {
	return &PaymentEventStore{
		byEventID: make(map[string]*domain.PaymentEvent),
		byCreator: make(map[string][]*domain.PaymentEvent),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *PaymentEventStore) Insert(_ context.Context, e *domain.PaymentEvent) error {
	if e == nil || e.EventID == "" || e.Creator == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEventID[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.byEventID[e.EventID] = &eventCopy
	s.byCreator[e.Creator] = append(s.byCreator[e.Creator], &eventCopy)
	return nil
}

// ListByCreator retrieves all events for a creator, ordered by timestamp DESC.
func (s *PaymentEventStore) ListByCreator(_ context.Context, creator string) ([]*domain.PaymentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*domain.PaymentEvent, 0, len(s.byCreator[creator]))
	for _, e := range s.byCreator[creator] {
		eventCopy := *e
		events = append(events, &eventCopy)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
	return events, nil
}

// TotalByCreator sums the amounts of all events for a creator.
func (s *PaymentEventStore) TotalByCreator(_ context.Context, creator string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total uint64
	for _, e := range s.byCreator[creator] {
		total += e.Amount
	}
	return total, nil
}

var _ storage.PaymentEventStore = (*PaymentEventStore)(nil)
