package flow

import (
	"context"
	"fmt"
	"log"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/messaging"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/observability"
	"miden-wallet-lab/internal/storage"
	"miden-wallet-lab/internal/wallet"
)

// SupportConfig wires the private creator-support flow.
type SupportConfig struct {
	Client       miden.Client
	Wallet       wallet.Adapter
	Transactions storage.TransactionStore
	Payments     storage.PaymentEventStore
	Registry     *Registry
	Notifier     messaging.Notifier

	// Faucet is the token supporters pay with.
	Faucet   miden.AccountID
	Decimals uint8
	// MinAmount is the smallest accepted support, in whole tokens.
	MinAmount uint64

	Logger *log.Logger
}

// Support sends private payment notes to creators and lets creators list
// and claim them. Payments are private notes: nothing about the transfer is
// publicly visible, so the creator is told off-chain via the notifier.
type Support struct {
	cfg SupportConfig
}

// NewSupport creates the support flow.
func NewSupport(cfg SupportConfig) *Support {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Support{cfg: cfg}
}

// Send pays the creator a private note of amount whole tokens. The payment
// completes when the send submission is acknowledged; there is nothing for
// the payer to wait on.
func (s *Support) Send(ctx context.Context, creator miden.AccountID, amount uint64, message string) (*domain.PaymentEvent, error) {
	if !s.cfg.Wallet.Connected() {
		return nil, &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("wallet not connected")}
	}
	if amount < s.cfg.MinAmount {
		return nil, &FlowError{Kind: FailureUnknown,
			Err: fmt.Errorf("support amount %d below minimum %d", amount, s.cfg.MinAmount)}
	}

	supporter := s.cfg.Wallet.Address()
	started := time.Now()

	m, err := s.cfg.Registry.Start("support", string(supporter))
	if err != nil {
		return nil, &FlowError{Kind: FailureUnknown, Err: err}
	}

	if err := m.To(StageSending, ""); err != nil {
		return nil, m.Fail(err)
	}

	base, err := domain.ToBaseUnits(amount, s.cfg.Decimals)
	if err != nil {
		return nil, m.Fail(err)
	}

	txID, err := s.cfg.Wallet.RequestSend(ctx, wallet.SendTransaction{
		Recipient: creator,
		Faucet:    s.cfg.Faucet,
		NoteType:  miden.NoteTypePrivate,
		Amount:    base,
	})
	if err != nil {
		ferr := m.Fail(err)
		observability.RecordFlowFinished("support", "error", time.Since(started).Seconds())
		return nil, ferr
	}

	s.recordTx(ctx, string(supporter), txID)

	event := &domain.PaymentEvent{
		EventID:   txID,
		Creator:   string(creator),
		Supporter: string(supporter),
		Amount:    base,
		TxID:      txID,
		NoteType:  string(miden.NoteTypePrivate),
		Timestamp: time.Now().UnixMilli(),
	}

	// Analytics and the receipt are best-effort: the payment already went
	// through on chain.
	if s.cfg.Payments != nil {
		if err := s.cfg.Payments.Insert(ctx, event); err != nil {
			s.cfg.Logger.Printf("support: record payment event %s: %v", event.EventID, err)
		}
	}
	if s.cfg.Notifier != nil {
		if err := s.cfg.Notifier.NotifyPrivateNote(ctx, messaging.ReceiptFromEvent(event, message)); err != nil {
			s.cfg.Logger.Printf("support: notify creator %s: %v", creator, err)
		}
	}

	if err := m.To(StageCompleted, txID); err != nil {
		return nil, m.Fail(err)
	}

	observability.RecordFlowFinished("support", "completed", time.Since(started).Seconds())
	return event, nil
}

// ListSupportNotes returns the creator's claimable support notes, importing
// the account into local tracking on first use.
func (s *Support) ListSupportNotes(ctx context.Context, creator miden.AccountID) ([]domain.ConsumableNote, error) {
	acct, err := s.cfg.Client.GetAccount(ctx, creator)
	if err != nil {
		return nil, classifyError(err)
	}
	if acct == nil {
		if err := s.cfg.Client.ImportAccountByID(ctx, creator); err != nil {
			return nil, classifyError(err)
		}
	}

	if err := s.cfg.Client.SyncState(ctx); err != nil {
		return nil, classifyError(err)
	}

	notes, err := s.cfg.Client.GetConsumableNotes(ctx, creator)
	if err != nil {
		return nil, classifyError(err)
	}

	var matched []domain.ConsumableNote
	for _, n := range notes {
		if n.FaucetID == string(s.cfg.Faucet) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// ConsumeSupport claims the given notes into the creator's vault. The
// adapter must sign for the creator's account.
func (s *Support) ConsumeSupport(ctx context.Context, noteIDs []string) (string, error) {
	if len(noteIDs) == 0 {
		return "", &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("no notes to consume")}
	}

	txID, err := s.cfg.Wallet.RequestConsume(ctx, wallet.ConsumeTransaction{NoteIDs: noteIDs})
	if err != nil {
		return "", classifyError(err)
	}

	s.recordConsume(ctx, string(s.cfg.Wallet.Address()), txID, noteIDs)
	return txID, nil
}

func (s *Support) recordTx(ctx context.Context, account, txID string) {
	if s.cfg.Transactions == nil {
		return
	}
	err := s.cfg.Transactions.Insert(ctx, &domain.TransactionRecord{
		TxID:      txID,
		AccountID: account,
		Kind:      domain.TxKindSend,
		Status:    domain.TxStatusSubmitted,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		s.cfg.Logger.Printf("support: record send tx %s: %v", txID, err)
	}
}

func (s *Support) recordConsume(ctx context.Context, account, txID string, noteIDs []string) {
	if s.cfg.Transactions == nil {
		return
	}
	err := s.cfg.Transactions.Insert(ctx, &domain.TransactionRecord{
		TxID:      txID,
		AccountID: account,
		Kind:      domain.TxKindConsume,
		Status:    domain.TxStatusSubmitted,
		NoteIDs:   noteIDs,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		s.cfg.Logger.Printf("support: record consume tx %s: %v", txID, err)
	}
}
