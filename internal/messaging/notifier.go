// Package messaging delivers private-note receipts to creators.
//
// Private notes are invisible on-chain to everyone but the parties involved,
// so the recipient needs an off-chain nudge that a note exists at all.
package messaging

import (
	"context"
	"log"

	"miden-wallet-lab/internal/domain"
)

// PrivateNoteReceipt tells a creator that a private note is waiting for them.
type PrivateNoteReceipt struct {
	Creator   string `json:"creator"`
	Supporter string `json:"supporter"`
	NoteID    string `json:"note_id"`
	TxID      string `json:"tx_id"`
	Amount    uint64 `json:"amount"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"` // Unix ms
}

// Notifier delivers receipts. Delivery failures must not fail the payment
// flow that produced the note.
type Notifier interface {
	NotifyPrivateNote(ctx context.Context, receipt PrivateNoteReceipt) error
}

// ReceiptFromEvent builds a receipt from a stored payment event.
func ReceiptFromEvent(e *domain.PaymentEvent, message string) PrivateNoteReceipt {
	return PrivateNoteReceipt{
		Creator:   e.Creator,
		Supporter: e.Supporter,
		NoteID:    e.NoteID,
		TxID:      e.TxID,
		Amount:    e.Amount,
		Message:   message,
		Timestamp: e.Timestamp,
	}
}

// LogNotifier writes receipts to a logger. The default when no webhook is
// configured.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses log.Default().
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Compile-time interface check.
var _ Notifier = (*LogNotifier)(nil)

// NotifyPrivateNote logs the receipt.
func (n *LogNotifier) NotifyPrivateNote(_ context.Context, receipt PrivateNoteReceipt) error {
	n.logger.Printf("private note for %s: %d base units from %s (note %s, tx %s)",
		receipt.Creator, receipt.Amount, receipt.Supporter, receipt.NoteID, receipt.TxID)
	return nil
}
