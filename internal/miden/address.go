package miden

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AccountID is the hex-encoded on-chain account identifier ("0x...").
type AccountID string

// Human-readable prefixes for bech32 wallet addresses.
const (
	HRPTestnet = "mtst"
	HRPMainnet = "mm"
)

// IsWalletAddress reports whether s looks like a bech32 wallet address for a
// known network. This is the cheap prefix check the HTTP API applies before
// persisting anything.
func IsWalletAddress(s string) bool {
	return strings.HasPrefix(s, HRPTestnet+"1") || strings.HasPrefix(s, HRPMainnet+"1")
}

// ParseAddress decodes a bech32m wallet address into its account id.
func ParseAddress(addr string) (AccountID, error) {
	hrp, data, _, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return "", fmt.Errorf("decode address %q: %w", addr, err)
	}

	if hrp != HRPTestnet && hrp != HRPMainnet {
		return "", fmt.Errorf("decode address %q: unknown prefix %q", addr, hrp)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("decode address %q: %w", addr, err)
	}

	return AccountID("0x" + hex.EncodeToString(raw)), nil
}

// ResolveAccountID accepts either a raw hex account id or a bech32m wallet
// address and returns the hex id the node RPC expects. Mixing the two
// representations would break faucet-id comparisons against node-reported
// values, so everything entering the flows goes through here first.
func ResolveAccountID(s string) (AccountID, error) {
	if strings.HasPrefix(s, "0x") {
		return AccountID(s), nil
	}
	if IsWalletAddress(s) {
		return ParseAddress(s)
	}
	return "", fmt.Errorf("not an account id or wallet address: %q", s)
}

// FormatAddress encodes an account id as a bech32m wallet address.
func FormatAddress(hrp string, id AccountID) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(string(id), "0x"))
	if err != nil {
		return "", fmt.Errorf("format address: decode id %q: %w", id, err)
	}

	data, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("format address: %w", err)
	}

	addr, err := bech32.EncodeM(hrp, data)
	if err != nil {
		return "", fmt.Errorf("format address: %w", err)
	}
	return addr, nil
}
