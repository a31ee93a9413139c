// Package cdp wraps the external EVM account/signing service used to pair
// wallet addresses with server-custodied EVM accounts.
package cdp

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no account matches the query.
var ErrNotFound = errors.New("cdp: account not found")

// Account is a server-custodied EVM account.
type Account struct {
	Name       string `json:"name"`
	EVMAddress string `json:"address"`
}

// Service is the account/signing surface the HTTP API exposes to the UI.
type Service interface {
	// GetOrCreateAccount returns the named account, creating it if absent.
	GetOrCreateAccount(ctx context.Context, name string) (*Account, error)

	// GetAccountByName returns the named account or ErrNotFound.
	GetAccountByName(ctx context.Context, name string) (*Account, error)

	// GetAccountByAddress returns the account owning the EVM address or
	// ErrNotFound.
	GetAccountByAddress(ctx context.Context, address string) (*Account, error)

	// SignMessage signs message with the account's key.
	SignMessage(ctx context.Context, address, message string) (string, error)
}

// AccountNameForWallet derives the deterministic service-side account name
// for a wallet address. Account names only allow alphanumerics and hyphens.
func AccountNameForWallet(walletAddress string) string {
	var b strings.Builder
	for _, r := range walletAddress {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('-')
		}
	}

	name := b.String()
	// Service limit on account name length.
	if len(name) > 36 {
		name = name[:36]
	}
	return strings.Trim(name, "-")
}
