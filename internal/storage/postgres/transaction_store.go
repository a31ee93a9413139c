package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/observability"
	"miden-wallet-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if tx_id exists.
func (s *TransactionStore) Insert(ctx context.Context, t *domain.TransactionRecord) error {
	if t == nil || t.TxID == "" || t.AccountID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transactions (
			tx_id, account_id, kind, status, note_ids, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TxID,
		t.AccountID,
		string(t.Kind),
		string(t.Status),
		t.NoteIDs,
		t.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		observability.RecordDBQueryError("postgres", "insert_transaction")
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a record by transaction id. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(ctx context.Context, txID string) (*domain.TransactionRecord, error) {
	query := `
		SELECT tx_id, account_id, kind, status, note_ids, created_at
		FROM transactions
		WHERE tx_id = $1
	`

	row := s.pool.QueryRow(ctx, query, txID)
	t, err := scanTransaction(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		observability.RecordDBQueryError("postgres", "get_transaction")
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// ListByAccount retrieves all records for an account, ordered by created_at DESC.
func (s *TransactionStore) ListByAccount(ctx context.Context, accountID string) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT tx_id, account_id, kind, status, note_ids, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		observability.RecordDBQueryError("postgres", "list_transactions")
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var records []*domain.TransactionRecord
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			observability.RecordDBQueryError("postgres", "list_transactions")
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		observability.RecordDBQueryError("postgres", "list_transactions")
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

// MarkConfirmed flips a record to CONFIRMED. Returns ErrNotFound if not exists.
func (s *TransactionStore) MarkConfirmed(ctx context.Context, txID string) error {
	query := `
		UPDATE transactions
		SET status = $2
		WHERE tx_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, txID, string(domain.TxStatusConfirmed))
	if err != nil {
		observability.RecordDBQueryError("postgres", "mark_confirmed")
		return fmt.Errorf("mark transaction confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanTransaction scans a single row into TransactionRecord.
func scanTransaction(row pgx.Row) (*domain.TransactionRecord, error) {
	var t domain.TransactionRecord
	var kind, status string

	err := row.Scan(
		&t.TxID,
		&t.AccountID,
		&kind,
		&status,
		&t.NoteIDs,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Kind = domain.TxKind(kind)
	t.Status = domain.TxStatus(status)
	return &t, nil
}
