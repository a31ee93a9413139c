package miden

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// NoteType selects the visibility of a note produced by a transaction.
type NoteType string

const (
	NoteTypePublic  NoteType = "public"
	NoteTypePrivate NoteType = "private"
)

// RequestKind identifies what a transaction request does.
type RequestKind string

const (
	RequestMint    RequestKind = "mint"
	RequestConsume RequestKind = "consume"
	RequestSend    RequestKind = "send"
	RequestScript  RequestKind = "script"
)

// TransactionRequest is a transaction ready for submission against an account.
// Build one with the New*Request constructors.
type TransactionRequest struct {
	Kind      RequestKind `json:"kind"`
	Recipient AccountID   `json:"recipient,omitempty"`
	Faucet    AccountID   `json:"faucet,omitempty"`
	NoteType  NoteType    `json:"note_type,omitempty"`
	Amount    uint64      `json:"amount,omitempty"`
	NoteIDs   []string    `json:"note_ids,omitempty"`
	Script    string      `json:"script,omitempty"`
	Signature []byte      `json:"signature,omitempty"`
}

// NewMintRequest builds a request minting tokens from faucet to recipient.
func NewMintRequest(recipient, faucet AccountID, noteType NoteType, amount uint64) *TransactionRequest {
	return &TransactionRequest{
		Kind:      RequestMint,
		Recipient: recipient,
		Faucet:    faucet,
		NoteType:  noteType,
		Amount:    amount,
	}
}

// NewConsumeRequest builds a request consuming the given notes into the
// submitting account's vault.
func NewConsumeRequest(noteIDs []string) *TransactionRequest {
	return &TransactionRequest{
		Kind:    RequestConsume,
		NoteIDs: noteIDs,
	}
}

// NewSendRequest builds a request transferring tokens of the given faucet from
// the submitting account to recipient, producing one note of the given type.
func NewSendRequest(recipient, faucet AccountID, noteType NoteType, amount uint64) *TransactionRequest {
	return &TransactionRequest{
		Kind:      RequestSend,
		Recipient: recipient,
		Faucet:    faucet,
		NoteType:  noteType,
		Amount:    amount,
	}
}

// NewScriptRequest builds a request executing a transaction script against the
// submitting account.
func NewScriptRequest(script string) *TransactionRequest {
	return &TransactionRequest{
		Kind:   RequestScript,
		Script: script,
	}
}

// Digest returns the canonical digest a wallet signs for this request.
func (r *TransactionRequest) Digest(account AccountID) [32]byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s|%s|%d|%s|%s",
		account, r.Kind, r.Recipient, r.Faucet, r.NoteType, r.Amount,
		strings.Join(r.NoteIDs, ","), r.Script)
	return sha256.Sum256([]byte(b.String()))
}
