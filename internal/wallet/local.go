package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/observability"
)

// LocalAdapter signs with an in-process ed25519 key derived from a base58
// seed. Used by the headless runner; browser extensions are out of scope
// server-side.
type LocalAdapter struct {
	account miden.AccountID
	priv    ed25519.PrivateKey
	client  miden.Client
}

// NewLocalAdapter derives a signing key from a base58-encoded 32-byte seed.
func NewLocalAdapter(account miden.AccountID, seed string, client miden.Client) (*LocalAdapter, error) {
	raw, err := base58.Decode(seed)
	if err != nil {
		return nil, fmt.Errorf("decode wallet seed: %w", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("decode wallet seed: want %d bytes, got %d", ed25519.SeedSize, len(raw))
	}

	priv := ed25519.NewKeyFromSeed(raw)

	// Sanity check: the derived public key must be a valid curve point.
	if !isOnCurve(priv.Public().(ed25519.PublicKey)) {
		return nil, fmt.Errorf("derived public key is not on curve")
	}

	return &LocalAdapter{account: account, priv: priv, client: client}, nil
}

// Compile-time interface check.
var _ Adapter = (*LocalAdapter)(nil)

// Address returns the account the adapter signs for.
func (a *LocalAdapter) Address() miden.AccountID {
	return a.account
}

// Connected reports whether the adapter holds a key.
func (a *LocalAdapter) Connected() bool {
	return a.priv != nil
}

// RequestSend approves and submits a transfer.
func (a *LocalAdapter) RequestSend(ctx context.Context, tx SendTransaction) (string, error) {
	req := miden.NewSendRequest(tx.Recipient, tx.Faucet, tx.NoteType, tx.Amount)
	return a.submit(ctx, req)
}

// RequestConsume approves and submits a note consumption.
func (a *LocalAdapter) RequestConsume(ctx context.Context, tx ConsumeTransaction) (string, error) {
	if len(tx.NoteIDs) == 0 {
		return "", fmt.Errorf("consume request without note ids")
	}
	req := miden.NewConsumeRequest(tx.NoteIDs)
	return a.submit(ctx, req)
}

// RequestScript approves and submits a script transaction.
func (a *LocalAdapter) RequestScript(ctx context.Context, tx ScriptTransaction) (string, error) {
	if tx.Script == "" {
		return "", fmt.Errorf("script request without script")
	}
	req := miden.NewScriptRequest(tx.Script)
	return a.submit(ctx, req)
}

func (a *LocalAdapter) submit(ctx context.Context, req *miden.TransactionRequest) (string, error) {
	digest := req.Digest(a.account)
	req.Signature = ed25519.Sign(a.priv, digest[:])

	txID, err := a.client.SubmitTransaction(ctx, a.account, req)
	if err != nil {
		return "", fmt.Errorf("submit %s transaction: %w", req.Kind, err)
	}

	observability.RecordTransactionSubmitted(string(req.Kind))
	return txID, nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
