package domain

// PaymentEvent records one support payment to a creator.
// Append-only; corresponds to the payment_events table in ClickHouse.
type PaymentEvent struct {
	EventID   string // PRIMARY KEY, deterministic from tx id + note id
	Creator   string // recipient wallet address
	Supporter string // sender wallet address
	Amount    uint64 // amount in base units
	NoteID    string // private note carrying the payment
	TxID      string // submitting transaction
	NoteType  string // "public" | "private"
	Timestamp int64  // Unix timestamp in milliseconds
}
