package flow

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/storage"
	"miden-wallet-lab/internal/wallet"
)

// counterSlot is the storage slot holding the counter value.
const counterSlot uint8 = 0

// ParseCounterValue decodes a counter value from a hex-encoded storage word.
// The value is the little-endian u64 in the last 8 bytes of the word.
func ParseCounterValue(word string) (uint64, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(word, "0x"))
	if err != nil {
		return 0, fmt.Errorf("decode storage word %q: %w", word, err)
	}
	if len(raw) < 8 {
		return 0, fmt.Errorf("storage word too short: %d bytes", len(raw))
	}
	return binary.LittleEndian.Uint64(raw[len(raw)-8:]), nil
}

// CounterConfig wires the counter-contract flow.
type CounterConfig struct {
	Client       miden.Client
	Wallet       wallet.Adapter
	Transactions storage.TransactionStore

	// Contract is the counter contract account.
	Contract miden.AccountID
	// Script is the increment transaction script.
	Script string

	Logger *log.Logger
}

// Counter reads and increments a public counter contract.
type Counter struct {
	cfg CounterConfig
}

// NewCounter creates the counter flow.
func NewCounter(cfg CounterConfig) *Counter {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Counter{cfg: cfg}
}

// Read returns the current counter value, importing the contract into local
// tracking on first use.
func (c *Counter) Read(ctx context.Context) (uint64, error) {
	acct, err := c.cfg.Client.GetAccount(ctx, c.cfg.Contract)
	if err != nil {
		return 0, classifyError(err)
	}
	if acct == nil {
		if err := c.cfg.Client.ImportAccountByID(ctx, c.cfg.Contract); err != nil {
			return 0, classifyError(err)
		}
		if err := c.cfg.Client.SyncState(ctx); err != nil {
			return 0, classifyError(err)
		}
	}

	word, err := c.cfg.Client.GetAccountStorageItem(ctx, c.cfg.Contract, counterSlot)
	if err != nil {
		return 0, classifyError(err)
	}

	value, err := ParseCounterValue(word)
	if err != nil {
		return 0, &FlowError{Kind: FailureUnknown, Err: err}
	}
	return value, nil
}

// Increment submits the increment script, syncs, and returns the new value.
func (c *Counter) Increment(ctx context.Context) (string, uint64, error) {
	if !c.cfg.Wallet.Connected() {
		return "", 0, &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("wallet not connected")}
	}

	txID, err := c.cfg.Wallet.RequestScript(ctx, wallet.ScriptTransaction{Script: c.cfg.Script})
	if err != nil {
		return "", 0, classifyError(err)
	}

	if c.cfg.Transactions != nil {
		err := c.cfg.Transactions.Insert(ctx, &domain.TransactionRecord{
			TxID:      txID,
			AccountID: string(c.cfg.Wallet.Address()),
			Kind:      domain.TxKindScript,
			Status:    domain.TxStatusSubmitted,
			CreatedAt: time.Now().UnixMilli(),
		})
		if err != nil {
			c.cfg.Logger.Printf("counter: record script tx %s: %v", txID, err)
		}
	}

	if err := c.cfg.Client.SyncState(ctx); err != nil {
		return txID, 0, classifyError(err)
	}

	value, err := c.Read(ctx)
	if err != nil {
		return txID, 0, err
	}
	return txID, value, nil
}
