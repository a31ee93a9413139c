// Package stub provides an in-memory Client for tests and local development.
package stub

import (
	"context"
	"fmt"
	"sync"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/miden"
)

// Client is a scripted in-memory implementation of miden.Client.
//
// Accounts, notes and storage items are seeded directly onto the struct (or
// via the Add* helpers). Notes added with a release delay only become visible
// after that many SyncState calls, which is how tests exercise the poller.
type Client struct {
	mu sync.Mutex

	accounts map[miden.AccountID]*miden.Account
	notes    map[miden.AccountID][]pendingNote
	storage  map[storageKey]string
	txStatus map[string]domain.TxStatus

	syncCalls   int
	submitCalls int
	txSeq       int
	faucetSeq   int

	syncErr   error
	submitErr error
}

type pendingNote struct {
	note       domain.ConsumableNote
	availAfter int // visible once syncCalls >= availAfter
}

type storageKey struct {
	id   miden.AccountID
	slot uint8
}

// NewClient creates an empty stub client.
func NewClient() *Client {
	return &Client{
		accounts: make(map[miden.AccountID]*miden.Account),
		notes:    make(map[miden.AccountID][]pendingNote),
		storage:  make(map[storageKey]string),
		txStatus: make(map[string]domain.TxStatus),
	}
}

// Compile-time interface check.
var _ miden.Client = (*Client)(nil)

// AddAccount seeds a tracked account.
func (c *Client) AddAccount(acct *miden.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[acct.ID] = acct
}

// AddNote seeds a note immediately visible to the recipient.
func (c *Client) AddNote(id miden.AccountID, note domain.ConsumableNote) {
	c.AddNoteAfterSyncs(id, note, 0)
}

// AddNoteAfterSyncs seeds a note that becomes visible only after n more
// SyncState calls.
func (c *Client) AddNoteAfterSyncs(id miden.AccountID, note domain.ConsumableNote, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes[id] = append(c.notes[id], pendingNote{note: note, availAfter: c.syncCalls + n})
}

// SetStorageItem seeds a storage slot value.
func (c *Client) SetStorageItem(id miden.AccountID, slot uint8, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storage[storageKey{id, slot}] = value
}

// SetSyncErr makes every subsequent SyncState call return err. Pass nil to heal.
func (c *Client) SetSyncErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncErr = err
}

// SetSubmitErr makes every subsequent SubmitTransaction call return err.
func (c *Client) SetSubmitErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitErr = err
}

// SetTxStatus overrides the status reported for a transaction id.
func (c *Client) SetTxStatus(txID string, status domain.TxStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txStatus[txID] = status
}

// SyncCalls reports how many times SyncState has been called.
func (c *Client) SyncCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncCalls
}

// SubmitCalls reports how many times SubmitTransaction has been called.
func (c *Client) SubmitCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitCalls
}

func (c *Client) SyncState(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncCalls++
	return c.syncErr
}

func (c *Client) GetAccount(ctx context.Context, id miden.AccountID) (*miden.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	acct, ok := c.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *acct
	return &cp, nil
}

func (c *Client) ImportAccountByID(ctx context.Context, id miden.AccountID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.accounts[id]; !ok {
		c.accounts[id] = &miden.Account{ID: id, StorageMode: "public"}
	}
	return nil
}

func (c *Client) GetConsumableNotes(ctx context.Context, id miden.AccountID) ([]domain.ConsumableNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var notes []domain.ConsumableNote
	for _, p := range c.notes[id] {
		if c.syncCalls >= p.availAfter {
			notes = append(notes, p.note)
		}
	}
	return notes, nil
}

func (c *Client) SubmitTransaction(ctx context.Context, id miden.AccountID, req *miden.TransactionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitCalls++
	if c.submitErr != nil {
		return "", c.submitErr
	}

	c.txSeq++
	txID := fmt.Sprintf("0xstubtx%04d", c.txSeq)
	c.txStatus[txID] = domain.TxStatusConfirmed

	// Consumed notes disappear from the recipient's view.
	if req.Kind == miden.RequestConsume {
		consumed := make(map[string]bool, len(req.NoteIDs))
		for _, nid := range req.NoteIDs {
			consumed[nid] = true
		}
		remaining := c.notes[id][:0]
		for _, p := range c.notes[id] {
			if !consumed[p.note.NoteID] {
				remaining = append(remaining, p)
			}
		}
		c.notes[id] = remaining
	}

	return txID, nil
}

func (c *Client) GetTransactionStatus(ctx context.Context, txID string) (domain.TxStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.txStatus[txID]
	if !ok {
		return "", &miden.RPCError{Code: miden.CodeNoteNotFound, Message: "unknown transaction"}
	}
	return status, nil
}

func (c *Client) GetAccountStorageItem(ctx context.Context, id miden.AccountID, slot uint8) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.storage[storageKey{id, slot}]
	if !ok {
		return "", &miden.RPCError{Code: miden.CodeAccountNotFound, Message: "no such storage item"}
	}
	return value, nil
}

func (c *Client) DeployFaucet(ctx context.Context, cfg miden.FaucetConfig) (miden.AccountID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.faucetSeq++
	id := miden.AccountID(fmt.Sprintf("0xstubfaucet%04d", c.faucetSeq))
	c.accounts[id] = &miden.Account{ID: id, StorageMode: "public", IsFaucet: true}
	return id, nil
}
