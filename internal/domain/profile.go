package domain

// CreatorProfile is a creator's public display profile, keyed by wallet address.
// Corresponds to the creators table in PostgreSQL.
type CreatorProfile struct {
	WalletAddress string  // UNIQUE, bech32 wallet address
	Name          string  // display name
	Bio           *string // optional bio (nullable)
	CreatedAt     int64   // Unix timestamp in milliseconds
	UpdatedAt     int64   // Unix timestamp in milliseconds, bumped on every save
}
