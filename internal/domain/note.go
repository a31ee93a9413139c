package domain

// ConsumableNote is an on-chain note visible to and claimable by a specific
// account. It is created by a send or mint transaction and logically destroyed
// once consumed.
type ConsumableNote struct {
	NoteID    string // note identifier
	FaucetID  string // issuing faucet account ID (empty if unknown)
	Amount    uint64 // amount in base units (0 if unknown)
	Recipient string // account ID the note is consumable by
	NoteType  string // "public" | "private"
}
