package flow

import (
	"context"
	"fmt"
	"log"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/observability"
	"miden-wallet-lab/internal/poller"
	"miden-wallet-lab/internal/storage"
	"miden-wallet-lab/internal/wallet"
)

// MintConfig wires a token-mint flow.
type MintConfig struct {
	Client       miden.Client
	Wallet       wallet.Adapter
	Transactions storage.TransactionStore
	Registry     *Registry

	// Faucet issues the tokens.
	Faucet   miden.AccountID
	Decimals uint8
	NoteType miden.NoteType

	Poll   poller.Config
	Logger *log.Logger
}

// Mint requests tokens from a faucet, waits for the minted note, then
// consumes it into the wallet's vault on user confirmation.
type Mint struct {
	cfg     MintConfig
	machine *Machine
	account miden.AccountID
	notes   []domain.ConsumableNote
	started time.Time
}

// NewMint creates a mint flow for the configured wallet.
func NewMint(cfg MintConfig) *Mint {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.NoteType == "" {
		cfg.NoteType = miden.NoteTypePublic
	}
	return &Mint{cfg: cfg}
}

// Stage returns the current stage, or StageIdle before Run.
func (f *Mint) Stage() Stage {
	if f.machine == nil {
		return StageIdle
	}
	return f.machine.Stage()
}

// Run submits the mint, waits for the note and stops at StageReady. amount
// is in whole tokens; scaling to base units happens here.
func (f *Mint) Run(ctx context.Context, amount uint64) ([]domain.ConsumableNote, error) {
	if !f.cfg.Wallet.Connected() {
		return nil, &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("wallet not connected")}
	}
	if amount == 0 {
		return nil, &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("mint amount must be positive")}
	}

	f.account = f.cfg.Wallet.Address()
	f.started = time.Now()

	m, err := f.cfg.Registry.Start("mint", string(f.account))
	if err != nil {
		return nil, &FlowError{Kind: FailureUnknown, Err: err}
	}
	f.machine = m

	if err := m.To(StageSending, ""); err != nil {
		return nil, m.Fail(err)
	}

	base, err := domain.ToBaseUnits(amount, f.cfg.Decimals)
	if err != nil {
		return nil, f.fail(err)
	}

	txID, err := f.cfg.Client.SubmitTransaction(ctx, f.account,
		miden.NewMintRequest(f.account, f.cfg.Faucet, f.cfg.NoteType, base))
	if err != nil {
		return nil, f.fail(err)
	}
	f.record(ctx, txID, domain.TxKindMint, nil)

	if err := m.To(StageSearching, txID); err != nil {
		return nil, f.fail(err)
	}

	pollCfg := f.cfg.Poll
	pollCfg.Filter = poller.FilterByFaucet(string(f.cfg.Faucet))
	pollCfg.Logger = f.cfg.Logger

	notes, err := poller.New(f.cfg.Client, pollCfg).Poll(ctx, f.account)
	if err != nil {
		return nil, f.fail(err)
	}

	if err := m.To(StageReady, ""); err != nil {
		return nil, f.fail(err)
	}

	f.notes = notes
	return notes, nil
}

// Consume claims the minted notes and completes the flow.
func (f *Mint) Consume(ctx context.Context) (string, error) {
	if f.machine == nil || f.machine.Stage() != StageReady {
		return "", &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("flow is not ready to consume")}
	}

	noteIDs := make([]string, len(f.notes))
	for i, n := range f.notes {
		noteIDs[i] = n.NoteID
	}

	txID, err := f.cfg.Wallet.RequestConsume(ctx, wallet.ConsumeTransaction{NoteIDs: noteIDs})
	if err != nil {
		return "", f.fail(err)
	}
	f.record(ctx, txID, domain.TxKindConsume, noteIDs)

	if err := f.machine.To(StageCompleted, txID); err != nil {
		return "", f.fail(err)
	}

	observability.RecordFlowFinished("mint", "completed", time.Since(f.started).Seconds())
	return txID, nil
}

func (f *Mint) fail(err error) *FlowError {
	ferr := f.machine.Fail(err)
	observability.RecordFlowFinished("mint", "error", time.Since(f.started).Seconds())
	return ferr
}

func (f *Mint) record(ctx context.Context, txID string, kind domain.TxKind, noteIDs []string) {
	if f.cfg.Transactions == nil {
		return
	}
	err := f.cfg.Transactions.Insert(ctx, &domain.TransactionRecord{
		TxID:      txID,
		AccountID: string(f.account),
		Kind:      kind,
		Status:    domain.TxStatusSubmitted,
		NoteIDs:   noteIDs,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		f.cfg.Logger.Printf("mint: record %s tx %s: %v", kind, txID, err)
	}
}

// DeployFaucet creates a new fungible faucet and records the deployment.
func DeployFaucet(ctx context.Context, client miden.Client, txs storage.TransactionStore, cfg miden.FaucetConfig) (miden.AccountID, error) {
	if cfg.Symbol == "" {
		return "", &FlowError{Kind: FailureUnknown, Err: fmt.Errorf("faucet symbol required")}
	}

	id, err := client.DeployFaucet(ctx, cfg)
	if err != nil {
		return "", classifyError(err)
	}

	if txs != nil {
		err := txs.Insert(ctx, &domain.TransactionRecord{
			TxID:      "deploy-" + string(id),
			AccountID: string(id),
			Kind:      domain.TxKindDeploy,
			Status:    domain.TxStatusSubmitted,
			CreatedAt: time.Now().UnixMilli(),
		})
		if err != nil {
			log.Printf("deploy: record faucet %s: %v", id, err)
		}
	}
	return id, nil
}
