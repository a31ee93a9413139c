package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/miden/stub"
	"miden-wallet-lab/internal/poller"
	"miden-wallet-lab/internal/storage"
	"miden-wallet-lab/internal/storage/memory"
)

// txs is the interface type so a nil argument stays a nil interface; a nil
// *memory.TransactionStore would slip past the optional-store check.
func purchaseConfig(client miden.Client, w *fakeWallet, txs storage.TransactionStore, r *Registry) PurchaseConfig {
	return PurchaseConfig{
		Client:        client,
		Wallet:        w,
		Transactions:  txs,
		Registry:      r,
		MarketAccount: "0xmarket",
		PaymentFaucet: "0xmiden",
		RewardFaucet:  "0xhlt",
		Decimals:      8,
		Poll:          poller.Config{MaxAttempts: 5, Interval: time.Millisecond, Logger: quietLogger()},
		Logger:        quietLogger(),
	}
}

func TestPurchase_HappyPath(t *testing.T) {
	client := stub.NewClient()
	w := newFakeWallet("0xbuyer")
	txs := memory.NewTransactionStore()
	r := NewRegistry()

	// The reward note shows up after one sync.
	client.AddNoteAfterSyncs("0xbuyer", domain.ConsumableNote{NoteID: "0xreward", FaucetID: "0xhlt", Amount: 50}, 1)

	p := NewPurchase(purchaseConfig(client, w, txs, r))
	ctx := context.Background()

	notes, err := p.Run(ctx, "1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if p.Stage() != StageReady {
		t.Errorf("expected ready, got %s", p.Stage())
	}
	if len(notes) != 1 || notes[0].NoteID != "0xreward" {
		t.Errorf("unexpected notes: %v", notes)
	}

	// Price scaled to base units: 100 MIDEN at 8 decimals.
	if len(w.sends) != 1 || w.sends[0].Amount != 100*1e8 {
		t.Errorf("unexpected payment: %+v", w.sends)
	}
	if w.sends[0].Recipient != "0xmarket" {
		t.Errorf("payment went to %s", w.sends[0].Recipient)
	}

	txID, err := p.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if txID == "" {
		t.Error("expected consume tx id")
	}
	if p.Stage() != StageCompleted {
		t.Errorf("expected completed, got %s", p.Stage())
	}
	if len(w.consumes) != 1 || w.consumes[0].NoteIDs[0] != "0xreward" {
		t.Errorf("unexpected consume: %+v", w.consumes)
	}

	// Payment, mint and consume were all recorded.
	records, err := txs.ListByAccount(ctx, "0xbuyer")
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 recorded transactions, got %d", len(records))
	}
}

func TestPurchase_NoTransactionStore(t *testing.T) {
	client := stub.NewClient()
	w := newFakeWallet("0xbuyer")
	r := NewRegistry()

	client.AddNoteAfterSyncs("0xbuyer", domain.ConsumableNote{NoteID: "0xreward", FaucetID: "0xhlt", Amount: 50}, 1)

	// Recording is optional: the flow must run to completion without a
	// store instead of panicking on the send/mint/consume records.
	p := NewPurchase(purchaseConfig(client, w, nil, r))
	ctx := context.Background()

	if _, err := p.Run(ctx, "1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := p.Consume(ctx); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if p.Stage() != StageCompleted {
		t.Errorf("expected completed, got %s", p.Stage())
	}
}

func TestPurchase_UnknownAsset(t *testing.T) {
	client := stub.NewClient()
	w := newFakeWallet("0xbuyer")
	r := NewRegistry()

	p := NewPurchase(purchaseConfig(client, w, nil, r))

	_, err := p.Run(context.Background(), "no-such-asset")
	var ferr *FlowError
	if !errors.As(err, &ferr) || ferr.Kind != FailureNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	// The flow never started, so the wallet is not blocked.
	if _, err := r.Start("purchase", "0xbuyer"); err != nil {
		t.Errorf("wallet left blocked: %v", err)
	}
}

func TestPurchase_WalletNotConnected(t *testing.T) {
	client := stub.NewClient()
	w := newFakeWallet("0xbuyer")
	w.connected = false

	p := NewPurchase(purchaseConfig(client, w, nil, NewRegistry()))

	if _, err := p.Run(context.Background(), "1"); err == nil {
		t.Fatal("expected error for disconnected wallet")
	}
}

func TestPurchase_MintInsufficientFunds(t *testing.T) {
	client := stub.NewClient()
	w := newFakeWallet("0xbuyer")
	r := NewRegistry()

	// The payment goes through the wallet; the mint submission against the
	// node fails with insufficient funds.
	client.SetSubmitErr(&miden.RPCError{Code: miden.CodeInsufficientFunds, Message: "vault empty"})

	p := NewPurchase(purchaseConfig(client, w, nil, r))

	_, err := p.Run(context.Background(), "1")
	var ferr *FlowError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FlowError, got %v", err)
	}
	if ferr.Kind != FailureInsufficientFunds {
		t.Errorf("expected INSUFFICIENT_FUNDS, got %s", ferr.Kind)
	}
	if ferr.UserMessage() != "Insufficient balance or funds" {
		t.Errorf("unexpected user message %q", ferr.UserMessage())
	}
	if p.Stage() != StageError {
		t.Errorf("expected error stage, got %s", p.Stage())
	}

	// ready/completed never reached; consume is rejected.
	if _, err := p.Consume(context.Background()); err == nil {
		t.Error("consume allowed after failure")
	}
}

func TestPurchase_PollTimeout(t *testing.T) {
	client := stub.NewClient()
	w := newFakeWallet("0xbuyer")
	r := NewRegistry()

	// No reward note ever appears.
	p := NewPurchase(purchaseConfig(client, w, nil, r))

	_, err := p.Run(context.Background(), "1")
	var ferr *FlowError
	if !errors.As(err, &ferr) || ferr.Kind != FailureTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if p.Stage() != StageError {
		t.Errorf("expected error stage, got %s", p.Stage())
	}
}

func TestPurchase_SecondFlowBlockedWhileActive(t *testing.T) {
	client := stub.NewClient()
	w := newFakeWallet("0xbuyer")
	r := NewRegistry()

	client.AddNoteAfterSyncs("0xbuyer", domain.ConsumableNote{NoteID: "0xreward", FaucetID: "0xhlt", Amount: 50}, 1)

	p := NewPurchase(purchaseConfig(client, w, nil, r))
	if _, err := p.Run(context.Background(), "1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Flow is at ready, not terminal: a second flow must be rejected.
	p2 := NewPurchase(purchaseConfig(client, w, nil, r))
	_, err := p2.Run(context.Background(), "2")
	var ferr *FlowError
	if !errors.As(err, &ferr) || !errors.Is(ferr.Err, ErrFlowActive) {
		t.Fatalf("expected ErrFlowActive, got %v", err)
	}
}

func TestPurchase_CancelledDuringPoll(t *testing.T) {
	client := stub.NewClient()
	w := newFakeWallet("0xbuyer")
	r := NewRegistry()

	cfg := purchaseConfig(client, w, nil, r)
	cfg.Poll = poller.Config{MaxAttempts: 20, Interval: time.Hour, Logger: quietLogger()}
	p := NewPurchase(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Run(ctx, "1")
	var ferr *FlowError
	if !errors.As(err, &ferr) || ferr.Kind != FailureTransient {
		t.Fatalf("expected TRANSIENT for cancellation, got %v", err)
	}
}
