package flow

import (
	"context"
	"fmt"
	"log"
	"time"

	"miden-wallet-lab/internal/catalog"
	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/observability"
	"miden-wallet-lab/internal/poller"
	"miden-wallet-lab/internal/storage"
	"miden-wallet-lab/internal/wallet"
)

// PurchaseConfig wires a marketplace purchase flow.
type PurchaseConfig struct {
	Client       miden.Client
	Wallet       wallet.Adapter
	Transactions storage.TransactionStore
	Registry     *Registry

	// MarketAccount receives the payment.
	MarketAccount miden.AccountID
	// PaymentFaucet is the token the asset is priced in.
	PaymentFaucet miden.AccountID
	// RewardFaucet mints the loyalty reward to the buyer.
	RewardFaucet miden.AccountID
	Decimals     uint8

	Poll   poller.Config
	Logger *log.Logger
}

// Purchase runs one marketplace purchase: pay for the asset, mint the
// reward, wait for the reward note, then consume it on user confirmation.
type Purchase struct {
	cfg     PurchaseConfig
	machine *Machine
	buyer   miden.AccountID
	notes   []domain.ConsumableNote
	started time.Time
}

// NewPurchase creates a purchase flow for the configured wallet.
func NewPurchase(cfg PurchaseConfig) *Purchase {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Purchase{cfg: cfg}
}

// Stage returns the current stage, or StageIdle before Run.
func (p *Purchase) Stage() Stage {
	if p.machine == nil {
		return StageIdle
	}
	return p.machine.Stage()
}

// Run executes the flow up to StageReady and returns the reward notes found.
// The caller then triggers Consume to finish. Any step failure moves the
// flow to StageError and halts; the user must restart with a new Purchase.
func (p *Purchase) Run(ctx context.Context, assetID string) ([]domain.ConsumableNote, error) {
	if !p.cfg.Wallet.Connected() {
		return nil, &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("wallet not connected")}
	}

	asset, ok := catalog.AssetByID(assetID)
	if !ok {
		return nil, &FlowError{Kind: FailureNotFound, Err: fmt.Errorf("unknown asset %q", assetID)}
	}

	p.buyer = p.cfg.Wallet.Address()
	p.started = time.Now()

	m, err := p.cfg.Registry.Start("purchase", string(p.buyer))
	if err != nil {
		return nil, &FlowError{Kind: FailureUnknown, Err: err}
	}
	p.machine = m

	if err := m.To(StageSending, ""); err != nil {
		return nil, m.Fail(err)
	}

	price, err := domain.ToBaseUnits(asset.Price, p.cfg.Decimals)
	if err != nil {
		return nil, p.fail(err)
	}

	payTxID, err := p.cfg.Wallet.RequestSend(ctx, wallet.SendTransaction{
		Recipient: p.cfg.MarketAccount,
		Faucet:    p.cfg.PaymentFaucet,
		NoteType:  miden.NoteTypePublic,
		Amount:    price,
	})
	if err != nil {
		return nil, p.fail(err)
	}
	p.record(ctx, payTxID, domain.TxKindSend, nil)

	if err := m.To(StageMinting, payTxID); err != nil {
		return nil, p.fail(err)
	}

	reward, err := domain.ToBaseUnits(asset.HLTReward, p.cfg.Decimals)
	if err != nil {
		return nil, p.fail(err)
	}

	mintTxID, err := p.cfg.Client.SubmitTransaction(ctx, p.buyer,
		miden.NewMintRequest(p.buyer, p.cfg.RewardFaucet, miden.NoteTypePublic, reward))
	if err != nil {
		return nil, p.fail(err)
	}
	p.record(ctx, mintTxID, domain.TxKindMint, nil)

	if err := m.To(StageSearching, mintTxID); err != nil {
		return nil, p.fail(err)
	}

	pollCfg := p.cfg.Poll
	pollCfg.Filter = poller.FilterByFaucet(string(p.cfg.RewardFaucet))
	pollCfg.Logger = p.cfg.Logger

	notes, err := poller.New(p.cfg.Client, pollCfg).Poll(ctx, p.buyer)
	if err != nil {
		return nil, p.fail(err)
	}

	if err := m.To(StageReady, ""); err != nil {
		return nil, p.fail(err)
	}

	p.notes = notes
	return notes, nil
}

// Consume claims the reward notes found by Run and completes the flow.
// Only legal from StageReady.
func (p *Purchase) Consume(ctx context.Context) (string, error) {
	if p.machine == nil || p.machine.Stage() != StageReady {
		return "", &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("flow is not ready to consume")}
	}

	noteIDs := make([]string, len(p.notes))
	for i, n := range p.notes {
		noteIDs[i] = n.NoteID
	}

	txID, err := p.cfg.Wallet.RequestConsume(ctx, wallet.ConsumeTransaction{NoteIDs: noteIDs})
	if err != nil {
		return "", p.fail(err)
	}
	p.record(ctx, txID, domain.TxKindConsume, noteIDs)

	if err := p.machine.To(StageCompleted, txID); err != nil {
		return "", p.fail(err)
	}

	observability.RecordFlowFinished("purchase", "completed", time.Since(p.started).Seconds())
	return txID, nil
}

func (p *Purchase) fail(err error) *FlowError {
	ferr := p.machine.Fail(err)
	observability.RecordFlowFinished("purchase", "error", time.Since(p.started).Seconds())
	return ferr
}

// record stores the transaction; storage failures are logged, never fatal to
// the chain flow.
func (p *Purchase) record(ctx context.Context, txID string, kind domain.TxKind, noteIDs []string) {
	if p.cfg.Transactions == nil {
		return
	}
	err := p.cfg.Transactions.Insert(ctx, &domain.TransactionRecord{
		TxID:      txID,
		AccountID: string(p.buyer),
		Kind:      kind,
		Status:    domain.TxStatusSubmitted,
		NoteIDs:   noteIDs,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		p.cfg.Logger.Printf("purchase: record %s tx %s: %v", kind, txID, err)
	}
}
