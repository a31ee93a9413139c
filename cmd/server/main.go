// Package main runs the wallet demo backend: the REST API, the flow event
// WebSocket, the uploaded-file server and the Prometheus endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"miden-wallet-lab/internal/catalog"
	"miden-wallet-lab/internal/cdp"
	"miden-wallet-lab/internal/flow"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/miden/stub"
	"miden-wallet-lab/internal/server"
	"miden-wallet-lab/internal/storage"
	chstore "miden-wallet-lab/internal/storage/clickhouse"
	"miden-wallet-lab/internal/storage/memory"
	pgstore "miden-wallet-lab/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	profiles     storage.ProfileStore
	transactions storage.TransactionStore
	payments     storage.PaymentEventStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	nodeEndpoint := flag.String("node-endpoint", envOr("MIDEN_NODE_ENDPOINT", catalog.DefaultNodeEndpoint), "Miden node RPC endpoint")
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	useStub := flag.Bool("use-stub", false, "Use an in-memory chain client instead of the node RPC")
	uploadDir := flag.String("upload-dir", envOr("UPLOAD_DIR", "uploads"), "Directory for uploaded files")
	cdpBaseURL := flag.String("cdp-base-url", envOr("CDP_BASE_URL", "https://api.cdp.coinbase.com/platform"), "EVM account service base URL")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	var client miden.Client = miden.NewHTTPClient(*nodeEndpoint)
	if *useStub {
		logger.Println("Using in-memory chain client")
		client = stub.NewClient()
	}

	var cdpService cdp.Service
	if keyID := os.Getenv("CDP_API_KEY_ID"); keyID != "" {
		cdpService = cdp.NewClient(cdp.Config{
			BaseURL:      *cdpBaseURL,
			APIKeyID:     keyID,
			APIKeySecret: os.Getenv("CDP_API_KEY_SECRET"),
			WalletSecret: os.Getenv("CDP_WALLET_SECRET"),
		})
	} else {
		logger.Println("CDP_API_KEY_ID not set, using in-process account stub")
		cdpService = cdp.NewStubService()
	}

	handler := server.NewHandler(server.Config{
		Client:       client,
		Profiles:     stores.profiles,
		Transactions: stores.transactions,
		Payments:     stores.payments,
		CDP:          cdpService,
		Registry:     flow.NewRegistry(),
		UploadDir:    *uploadDir,
		NodeEndpoint: *nodeEndpoint,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:         *listenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // WebSocket connections stay open
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		go func() {
			sig := <-sigCh
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		}()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s (node: %s)", *listenAddr, *nodeEndpoint)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			profiles:     memory.NewProfileStore(),
			transactions: memory.NewTransactionStore(),
			payments:     memory.NewPaymentEventStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// ClickHouse
	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &allStores{
		profiles:     pgstore.NewProfileStore(pool),
		transactions: pgstore.NewTransactionStore(pool),
		payments:     chstore.NewPaymentEventStore(chConn),
	}
	cleanup := func() {
		pool.Close()
		chConn.Close()
	}
	return stores, cleanup, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
