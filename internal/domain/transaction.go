package domain

// TxKind identifies the kind of transaction a record tracks.
type TxKind string

const (
	TxKindSend    TxKind = "SEND"
	TxKindMint    TxKind = "MINT"
	TxKindConsume TxKind = "CONSUME"
	TxKindDeploy  TxKind = "DEPLOY"
	TxKindScript  TxKind = "SCRIPT"
)

// TxStatus is the observed lifecycle state of a submitted transaction.
// Flows advance on submission acknowledgement; confirmation is only ever
// observed later through a state sync.
type TxStatus string

const (
	TxStatusSubmitted TxStatus = "SUBMITTED"
	TxStatusConfirmed TxStatus = "CONFIRMED"
)

// TransactionRecord tracks a submitted transaction. Read-only after creation
// except for the submitted -> confirmed status flip.
// Corresponds to the transactions table in PostgreSQL.
type TransactionRecord struct {
	TxID      string   // PRIMARY KEY, transaction hash/id
	AccountID string   // account the transaction executed against
	Kind      TxKind   // SEND | MINT | CONSUME | DEPLOY | SCRIPT
	Status    TxStatus // SUBMITTED | CONFIRMED
	NoteIDs   []string // note ids produced or consumed (may be empty)
	CreatedAt int64    // Unix timestamp in milliseconds
}
