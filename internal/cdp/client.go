package cdp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Config holds the credentials and endpoint for the signing service.
type Config struct {
	BaseURL      string
	APIKeyID     string
	APIKeySecret string
	WalletSecret string
}

// Client is the HTTP implementation of Service.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a Client for the configured service.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Compile-time interface check.
var _ Service = (*Client)(nil)

// GetOrCreateAccount returns the named account, creating it if absent.
func (c *Client) GetOrCreateAccount(ctx context.Context, name string) (*Account, error) {
	var acct Account
	err := c.do(ctx, http.MethodPost, "/v2/evm/accounts", map[string]string{"name": name}, &acct)
	if err != nil {
		return nil, fmt.Errorf("get or create account %q: %w", name, err)
	}
	return &acct, nil
}

// GetAccountByName returns the named account or ErrNotFound.
func (c *Client) GetAccountByName(ctx context.Context, name string) (*Account, error) {
	var acct Account
	err := c.do(ctx, http.MethodGet, "/v2/evm/accounts/by-name/"+url.PathEscape(name), nil, &acct)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// GetAccountByAddress returns the account owning the EVM address or ErrNotFound.
func (c *Client) GetAccountByAddress(ctx context.Context, address string) (*Account, error) {
	var acct Account
	err := c.do(ctx, http.MethodGet, "/v2/evm/accounts/"+url.PathEscape(address), nil, &acct)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// SignMessage signs message with the account's key.
func (c *Client) SignMessage(ctx context.Context, address, message string) (string, error) {
	var result struct {
		Signature string `json:"signature"`
	}
	payload := map[string]string{"message": message}
	err := c.do(ctx, http.MethodPost, "/v2/evm/accounts/"+url.PathEscape(address)+"/sign", payload, &result)
	if err != nil {
		return "", fmt.Errorf("sign message for %s: %w", address, err)
	}
	return result.Signature, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key-ID", c.cfg.APIKeyID)
	req.Header.Set("X-API-Key-Secret", c.cfg.APIKeySecret)
	if c.cfg.WalletSecret != "" {
		req.Header.Set("X-Wallet-Secret", c.cfg.WalletSecret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
