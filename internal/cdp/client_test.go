package cdp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAccountNameForWallet(t *testing.T) {
	tests := []struct {
		wallet string
		want   string
	}{
		{"mtst1qz0abc", "mtst1qz0abc"},
		{"MTST1QZ0ABC", "mtst1qz0abc"},
		{"mtst1_qz.0", "mtst1-qz-0"},
		{"mtst1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq", "mtst1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"},
		{"...", ""},
	}

	for _, tt := range tests {
		if got := AccountNameForWallet(tt.wallet); got != tt.want {
			t.Errorf("AccountNameForWallet(%q) = %q, want %q", tt.wallet, got, tt.want)
		}
	}
}

func cdpServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:      srv.URL,
		APIKeyID:     "key-id",
		APIKeySecret: "key-secret",
		WalletSecret: "wallet-secret",
	})
}

func TestClient_GetOrCreateAccount(t *testing.T) {
	client := cdpServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/evm/accounts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key-ID") != "key-id" {
			t.Error("missing api key header")
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Account{Name: req["name"], EVMAddress: "0xabc"})
	})

	acct, err := client.GetOrCreateAccount(context.Background(), "mtst1demo")
	if err != nil {
		t.Fatalf("GetOrCreateAccount failed: %v", err)
	}
	if acct.Name != "mtst1demo" || acct.EVMAddress != "0xabc" {
		t.Errorf("unexpected account: %+v", acct)
	}
}

func TestClient_GetAccountByName_NotFound(t *testing.T) {
	client := cdpServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	if _, err := client.GetAccountByName(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_GetAccountByAddress(t *testing.T) {
	client := cdpServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/evm/accounts/0xabc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Account{Name: "mtst1demo", EVMAddress: "0xabc"})
	})

	acct, err := client.GetAccountByAddress(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("GetAccountByAddress failed: %v", err)
	}
	if acct.Name != "mtst1demo" {
		t.Errorf("unexpected account: %+v", acct)
	}
}

func TestClient_SignMessage(t *testing.T) {
	client := cdpServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/evm/accounts/0xabc/sign" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"signature": "0xsig"})
	})

	sig, err := client.SignMessage(context.Background(), "0xabc", "hello")
	if err != nil {
		t.Fatalf("SignMessage failed: %v", err)
	}
	if sig != "0xsig" {
		t.Errorf("unexpected signature: %s", sig)
	}
}

func TestClient_ServerError(t *testing.T) {
	client := cdpServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.GetOrCreateAccount(context.Background(), "demo"); err == nil {
		t.Fatal("expected error on server failure")
	}
}

func TestStubService(t *testing.T) {
	s := NewStubService()
	ctx := context.Background()

	acct, err := s.GetOrCreateAccount(ctx, "mtst1demo")
	if err != nil {
		t.Fatalf("GetOrCreateAccount failed: %v", err)
	}

	again, err := s.GetOrCreateAccount(ctx, "mtst1demo")
	if err != nil {
		t.Fatalf("GetOrCreateAccount failed: %v", err)
	}
	if again.EVMAddress != acct.EVMAddress {
		t.Error("account address not stable across calls")
	}

	byAddr, err := s.GetAccountByAddress(ctx, acct.EVMAddress)
	if err != nil || byAddr.Name != "mtst1demo" {
		t.Errorf("lookup by address failed: %v %+v", err, byAddr)
	}

	if _, err := s.GetAccountByName(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	sig, err := s.SignMessage(ctx, acct.EVMAddress, "hello")
	if err != nil || sig == "" {
		t.Errorf("SignMessage failed: %v %q", err, sig)
	}
	if _, err := s.SignMessage(ctx, "0xunknown", "hello"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
