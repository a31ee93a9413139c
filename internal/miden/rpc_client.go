package miden

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// HTTPClient implements Client using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
	requestID  atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for idempotent calls.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Miden node RPC client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// call performs a JSON-RPC call with retries and exponential backoff.
// Only used for idempotent methods; submissions go through callOnce.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		err := c.callOnce(ctx, method, params, result)
		if err == nil {
			return nil
		}

		// RPC errors are not retried; transport errors are.
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// callOnce performs a single JSON-RPC call.
func (c *HTTPClient) callOnce(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCCall(method, time.Since(start).Seconds())
	}()

	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

// SyncState refreshes local cached chain state from the network.
func (c *HTTPClient) SyncState(ctx context.Context) error {
	return c.call(ctx, "sync_state", nil, nil)
}

// getAccountResult is the raw RPC response for get_account.
type getAccountResult struct {
	Account *struct {
		ID          string `json:"id"`
		Nonce       uint64 `json:"nonce"`
		StorageMode string `json:"storage_mode"`
		IsFaucet    bool   `json:"is_faucet"`
	} `json:"account"`
}

// GetAccount retrieves locally tracked account state.
// Returns (nil, nil) if the account is not tracked.
func (c *HTTPClient) GetAccount(ctx context.Context, id AccountID) (*Account, error) {
	var result getAccountResult
	if err := c.call(ctx, "get_account", []interface{}{string(id)}, &result); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if result.Account == nil {
		return nil, nil
	}

	return &Account{
		ID:          AccountID(result.Account.ID),
		Nonce:       result.Account.Nonce,
		StorageMode: result.Account.StorageMode,
		IsFaucet:    result.Account.IsFaucet,
	}, nil
}

// ImportAccountByID starts tracking a public account by its id.
func (c *HTTPClient) ImportAccountByID(ctx context.Context, id AccountID) error {
	return c.call(ctx, "import_account", []interface{}{string(id)}, nil)
}

// getConsumableNotesResult is the raw RPC response item for get_consumable_notes.
type consumableNoteResult struct {
	NoteID   string `json:"note_id"`
	FaucetID string `json:"faucet_id"`
	Amount   uint64 `json:"amount"`
	NoteType string `json:"note_type"`
}

// GetConsumableNotes lists notes currently claimable by the account.
func (c *HTTPClient) GetConsumableNotes(ctx context.Context, id AccountID) ([]domain.ConsumableNote, error) {
	var result []consumableNoteResult
	if err := c.call(ctx, "get_consumable_notes", []interface{}{string(id)}, &result); err != nil {
		return nil, err
	}

	notes := make([]domain.ConsumableNote, len(result))
	for i, r := range result {
		notes[i] = domain.ConsumableNote{
			NoteID:    r.NoteID,
			FaucetID:  r.FaucetID,
			Amount:    r.Amount,
			Recipient: string(id),
			NoteType:  r.NoteType,
		}
	}
	return notes, nil
}

// submitResult is the raw RPC response for submit_transaction.
type submitResult struct {
	TxID string `json:"tx_id"`
}

// SubmitTransaction submits a transaction executing against the account.
// Submissions are never retried: a transport error after the node accepted
// the transaction would double-submit.
func (c *HTTPClient) SubmitTransaction(ctx context.Context, id AccountID, req *TransactionRequest) (string, error) {
	var result submitResult
	if err := c.callOnce(ctx, "submit_transaction", []interface{}{string(id), req}, &result); err != nil {
		return "", err
	}
	return result.TxID, nil
}

// txStatusResult is the raw RPC response for get_transaction_status.
type txStatusResult struct {
	Status string `json:"status"`
}

// GetTransactionStatus reports whether a submitted transaction committed.
func (c *HTTPClient) GetTransactionStatus(ctx context.Context, txID string) (domain.TxStatus, error) {
	var result txStatusResult
	if err := c.call(ctx, "get_transaction_status", []interface{}{txID}, &result); err != nil {
		return "", err
	}

	if result.Status == "committed" {
		return domain.TxStatusConfirmed, nil
	}
	return domain.TxStatusSubmitted, nil
}

// storageItemResult is the raw RPC response for get_account_storage_item.
type storageItemResult struct {
	Value string `json:"value"` // hex-encoded word
}

// GetAccountStorageItem reads one storage slot of a tracked account.
func (c *HTTPClient) GetAccountStorageItem(ctx context.Context, id AccountID, slot uint8) (string, error) {
	var result storageItemResult
	if err := c.call(ctx, "get_account_storage_item", []interface{}{string(id), slot}, &result); err != nil {
		return "", err
	}
	return result.Value, nil
}

// deployFaucetResult is the raw RPC response for deploy_faucet.
type deployFaucetResult struct {
	AccountID string `json:"account_id"`
}

// DeployFaucet creates a new fungible faucet account. Not retried, like
// SubmitTransaction.
func (c *HTTPClient) DeployFaucet(ctx context.Context, cfg FaucetConfig) (AccountID, error) {
	var result deployFaucetResult
	if err := c.callOnce(ctx, "deploy_faucet", []interface{}{cfg}, &result); err != nil {
		return "", err
	}
	return AccountID(result.AccountID), nil
}
