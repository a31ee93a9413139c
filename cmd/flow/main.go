// Package main is a headless runner for the demo flows. It drives the same
// flow code the backend exposes, signing locally with a seed-derived key:
//
//	flow purchase --asset 1
//	flow mint --amount 100
//	flow deploy-faucet --symbol HLT
//	flow support --creator <address> --amount 25 --message "thanks"
//	flow claim-support
//	flow counter [--increment]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"miden-wallet-lab/internal/catalog"
	"miden-wallet-lab/internal/flow"
	"miden-wallet-lab/internal/messaging"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/poller"
	"miden-wallet-lab/internal/storage"
	"miden-wallet-lab/internal/storage/memory"
	"miden-wallet-lab/internal/wallet"
)

type runner struct {
	client       miden.Client
	adapter      *wallet.LocalAdapter
	transactions storage.TransactionStore
	registry     *flow.Registry
	pollCfg      poller.Config
	webhookURL   string
	logger       *log.Logger

	// Catalog addresses resolved to the hex ids the node reports.
	midenFaucet     miden.AccountID
	hltFaucet       miden.AccountID
	counterContract miden.AccountID
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	nodeEndpoint := fs.String("node-endpoint", envOr("MIDEN_NODE_ENDPOINT", catalog.DefaultNodeEndpoint), "Miden node RPC endpoint")
	account := fs.String("account", os.Getenv("MIDEN_ACCOUNT"), "Wallet account id")
	seed := fs.String("seed", os.Getenv("MIDEN_WALLET_SEED"), "Base58 wallet seed")
	pollAttempts := fs.Int("poll-attempts", poller.DefaultMaxAttempts, "Max note poll attempts")
	pollInterval := fs.Duration("poll-interval", poller.DefaultInterval, "Delay between poll attempts")
	webhookURL := fs.String("webhook-url", os.Getenv("SUPPORT_WEBHOOK_URL"), "Creator notification webhook")

	// Per-command flags.
	assetID := fs.String("asset", "", "Marketplace asset id (purchase)")
	amount := fs.Uint64("amount", 0, "Amount in whole tokens (mint, support)")
	creator := fs.String("creator", "", "Creator account id (support)")
	message := fs.String("message", "", "Message to the creator (support)")
	symbol := fs.String("symbol", "", "Token symbol (deploy-faucet)")
	supply := fs.Uint64("supply", 1_000_000, "Initial supply in whole tokens (deploy-faucet)")
	increment := fs.Bool("increment", false, "Increment the counter instead of only reading it (counter)")

	fs.Parse(os.Args[2:])

	logger := log.New(os.Stdout, "[flow] ", log.LstdFlags)

	if *account == "" || *seed == "" {
		logger.Fatal("--account and --seed (or MIDEN_ACCOUNT / MIDEN_WALLET_SEED) are required")
	}

	// The catalog ships bech32m addresses; the node RPC speaks hex account
	// ids. Resolve everything up front so the flows compare like with like.
	resolve := func(s string) miden.AccountID {
		id, err := miden.ResolveAccountID(s)
		if err != nil {
			logger.Fatalf("Bad account id: %v", err)
		}
		return id
	}

	client := miden.NewHTTPClient(*nodeEndpoint)
	adapter, err := wallet.NewLocalAdapter(resolve(*account), *seed, client)
	if err != nil {
		logger.Fatalf("Failed to create wallet adapter: %v", err)
	}

	r := &runner{
		client:       client,
		adapter:      adapter,
		transactions: memory.NewTransactionStore(),
		registry:     flow.NewRegistry(),
		pollCfg: poller.Config{
			MaxAttempts: *pollAttempts,
			Interval:    *pollInterval,
			Logger:      logger,
		},
		webhookURL:      *webhookURL,
		logger:          logger,
		midenFaucet:     resolve(catalog.MidenFaucetID),
		hltFaucet:       resolve(catalog.HLTFaucetID),
		counterContract: resolve(catalog.CounterContractAddress),
	}

	// Ctrl-C cancels the flow mid-poll.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "purchase":
		err = r.purchase(ctx, *assetID)
	case "mint":
		err = r.mint(ctx, *amount)
	case "deploy-faucet":
		err = r.deployFaucet(ctx, *symbol, *supply)
	case "support":
		err = r.support(ctx, *creator, *amount, *message)
	case "claim-support":
		err = r.claimSupport(ctx)
	case "counter":
		err = r.counter(ctx, *increment)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalf("%s failed: %v", command, err)
	}
}

func (r *runner) purchase(ctx context.Context, assetID string) error {
	if assetID == "" {
		return fmt.Errorf("--asset is required")
	}

	p := flow.NewPurchase(flow.PurchaseConfig{
		Client:        r.client,
		Wallet:        r.adapter,
		Transactions:  r.transactions,
		Registry:      r.registry,
		MarketAccount: r.midenFaucet,
		PaymentFaucet: r.midenFaucet,
		RewardFaucet:  r.hltFaucet,
		Decimals:      catalog.TokenDecimals,
		Poll:          r.pollCfg,
		Logger:        r.logger,
	})

	notes, err := p.Run(ctx, assetID)
	if err != nil {
		return err
	}
	r.logger.Printf("Reward ready: %d note(s)", len(notes))

	txID, err := p.Consume(ctx)
	if err != nil {
		return err
	}
	r.logger.Printf("Reward claimed in tx %s", txID)
	return nil
}

func (r *runner) mint(ctx context.Context, amount uint64) error {
	m := flow.NewMint(flow.MintConfig{
		Client:       r.client,
		Wallet:       r.adapter,
		Transactions: r.transactions,
		Registry:     r.registry,
		Faucet:       r.midenFaucet,
		Decimals:     catalog.TokenDecimals,
		Poll:         r.pollCfg,
		Logger:       r.logger,
	})

	notes, err := m.Run(ctx, amount)
	if err != nil {
		return err
	}
	r.logger.Printf("Minted note(s): %d", len(notes))

	txID, err := m.Consume(ctx)
	if err != nil {
		return err
	}
	r.logger.Printf("Tokens claimed in tx %s", txID)
	return nil
}

func (r *runner) deployFaucet(ctx context.Context, symbol string, supply uint64) error {
	id, err := flow.DeployFaucet(ctx, r.client, r.transactions, miden.FaucetConfig{
		Symbol:        strings.ToUpper(symbol),
		Decimals:      catalog.TokenDecimals,
		InitialSupply: supply,
	})
	if err != nil {
		return err
	}
	r.logger.Printf("Faucet deployed: %s", id)
	return nil
}

func (r *runner) support(ctx context.Context, creator string, amount uint64, message string) error {
	if creator == "" {
		return fmt.Errorf("--creator is required")
	}
	creatorID, err := miden.ResolveAccountID(creator)
	if err != nil {
		return err
	}

	var notifier messaging.Notifier = messaging.NewLogNotifier(r.logger)
	if r.webhookURL != "" {
		notifier = messaging.NewWebhookNotifier(r.webhookURL)
	}

	s := flow.NewSupport(flow.SupportConfig{
		Client:       r.client,
		Wallet:       r.adapter,
		Transactions: r.transactions,
		Registry:     r.registry,
		Notifier:     notifier,
		Faucet:       r.hltFaucet,
		Decimals:     catalog.TokenDecimals,
		MinAmount:    catalog.MinSupportAmount,
		Logger:       r.logger,
	})

	event, err := s.Send(ctx, creatorID, amount, message)
	if err != nil {
		return err
	}
	r.logger.Printf("Support sent: tx %s, %d base units", event.TxID, event.Amount)
	return nil
}

func (r *runner) claimSupport(ctx context.Context) error {
	s := flow.NewSupport(flow.SupportConfig{
		Client:   r.client,
		Wallet:   r.adapter,
		Registry: r.registry,
		Faucet:   r.hltFaucet,
		Decimals: catalog.TokenDecimals,
		Logger:   r.logger,
	})

	notes, err := s.ListSupportNotes(ctx, r.adapter.Address())
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		r.logger.Println("No support notes to claim")
		return nil
	}

	noteIDs := make([]string, len(notes))
	var total uint64
	for i, n := range notes {
		noteIDs[i] = n.NoteID
		total += n.Amount
	}

	txID, err := s.ConsumeSupport(ctx, noteIDs)
	if err != nil {
		return err
	}
	r.logger.Printf("Claimed %d note(s), %d base units, tx %s", len(notes), total, txID)
	return nil
}

func (r *runner) counter(ctx context.Context, increment bool) error {
	c := flow.NewCounter(flow.CounterConfig{
		Client:       r.client,
		Wallet:       r.adapter,
		Transactions: r.transactions,
		Contract:     r.counterContract,
		Script:       catalog.CounterContractCode,
		Logger:       r.logger,
	})

	if !increment {
		value, err := c.Read(ctx)
		if err != nil {
			return err
		}
		r.logger.Printf("Counter value: %d", value)
		return nil
	}

	txID, value, err := c.Increment(ctx)
	if err != nil {
		return err
	}
	r.logger.Printf("Counter incremented in tx %s, value now %d", txID, value)

	// The chain needs a moment before the new value is observable; re-read
	// once to show the settled value.
	select {
	case <-time.After(3 * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}
	settled, err := c.Read(ctx)
	if err != nil {
		return err
	}
	r.logger.Printf("Settled counter value: %d", settled)
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: flow <purchase|mint|deploy-faucet|support|claim-support|counter> [flags]")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
