package clickhouse

import (
	"context"
	"fmt"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/observability"
	"miden-wallet-lab/internal/storage"
)

// PaymentEventStore implements storage.PaymentEventStore using ClickHouse.
//
// The table is MergeTree, which does not enforce uniqueness at insert time,
// so event_id duplicates are checked explicitly before insert.
type PaymentEventStore struct {
	conn *Conn
}

// NewPaymentEventStore creates a new PaymentEventStore.
func NewPaymentEventStore(conn *Conn) *PaymentEventStore {
	return &PaymentEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PaymentEventStore = (*PaymentEventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *PaymentEventStore) Insert(ctx context.Context, e *domain.PaymentEvent) error {
	if e == nil || e.EventID == "" || e.Creator == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, e.EventID)
	if err != nil {
		observability.RecordDBQueryError("clickhouse", "insert_event")
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO payment_events (
			event_id, creator, supporter, amount, note_id, tx_id, note_type, timestamp_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		e.EventID, e.Creator, e.Supporter, e.Amount,
		e.NoteID, e.TxID, e.NoteType, uint64(e.Timestamp),
	)
	if err != nil {
		observability.RecordDBQueryError("clickhouse", "insert_event")
		return fmt.Errorf("insert payment event: %w", err)
	}
	return nil
}

// ListByCreator retrieves all events for a creator, ordered by timestamp DESC.
func (s *PaymentEventStore) ListByCreator(ctx context.Context, creator string) ([]*domain.PaymentEvent, error) {
	query := `
		SELECT event_id, creator, supporter, amount, note_id, tx_id, note_type, timestamp_ms
		FROM payment_events
		WHERE creator = ?
		ORDER BY timestamp_ms DESC
	`

	rows, err := s.conn.Query(ctx, query, creator)
	if err != nil {
		observability.RecordDBQueryError("clickhouse", "list_events")
		return nil, fmt.Errorf("query by creator: %w", err)
	}
	defer rows.Close()

	var events []*domain.PaymentEvent
	for rows.Next() {
		var e domain.PaymentEvent
		var timestampMs uint64

		err := rows.Scan(
			&e.EventID, &e.Creator, &e.Supporter, &e.Amount,
			&e.NoteID, &e.TxID, &e.NoteType, &timestampMs,
		)
		if err != nil {
			observability.RecordDBQueryError("clickhouse", "list_events")
			return nil, fmt.Errorf("scan payment event row: %w", err)
		}

		e.Timestamp = int64(timestampMs)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		observability.RecordDBQueryError("clickhouse", "list_events")
		return nil, fmt.Errorf("iterate payment event rows: %w", err)
	}

	return events, nil
}

// TotalByCreator sums the amounts of all events for a creator.
func (s *PaymentEventStore) TotalByCreator(ctx context.Context, creator string) (uint64, error) {
	query := `
		SELECT sum(amount) FROM payment_events
		WHERE creator = ?
	`

	var total uint64
	if err := s.conn.QueryRow(ctx, query, creator).Scan(&total); err != nil {
		observability.RecordDBQueryError("clickhouse", "total_events")
		return 0, fmt.Errorf("sum payment events: %w", err)
	}
	return total, nil
}

// exists checks if an event with the given id exists.
func (s *PaymentEventStore) exists(ctx context.Context, eventID string) (bool, error) {
	query := `
		SELECT count(*) FROM payment_events
		WHERE event_id = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, eventID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
