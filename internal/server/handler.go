// Package server exposes the REST and WebSocket API backing the wallet UIs.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"miden-wallet-lab/internal/catalog"
	"miden-wallet-lab/internal/cdp"
	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/flow"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/observability"
	"miden-wallet-lab/internal/storage"
)

// Config carries the handler's dependencies.
type Config struct {
	Client       miden.Client
	Profiles     storage.ProfileStore
	Transactions storage.TransactionStore
	Payments     storage.PaymentEventStore
	CDP          cdp.Service
	Registry     *flow.Registry
	UploadDir    string
	NodeEndpoint string
	Logger       *log.Logger
}

type handler struct {
	cfg Config
	log *log.Logger
}

// NewHandler returns a mux exposing the REST API, the flow event WebSocket,
// the uploaded-file server and the Prometheus endpoint.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := &handler{cfg: cfg, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/status", withMetrics("/status", h.status))
	mux.HandleFunc("/api/assets", withMetrics("/api/assets", h.assets))
	mux.HandleFunc("/api/creator/", withMetrics("/api/creator", h.creator))
	mux.HandleFunc("/api/profile", withMetrics("/api/profile", h.profile))
	mux.HandleFunc("/api/payments/", withMetrics("/api/payments", h.payments))
	mux.HandleFunc("/api/transactions/", withMetrics("/api/transactions", h.transactions))
	mux.HandleFunc("/api/cdp/account", withMetrics("/api/cdp/account", h.cdpAccount))
	mux.HandleFunc("/api/cdp/sign", withMetrics("/api/cdp/sign", h.cdpSign))
	mux.HandleFunc("/api/storage/upload", withMetrics("/api/storage/upload", h.upload))
	mux.Handle("/metrics", observability.Handler())

	if cfg.UploadDir != "" {
		mux.Handle("/storage/", http.StripPrefix("/storage/", http.FileServer(http.Dir(cfg.UploadDir))))
	}
	if cfg.Registry != nil {
		mux.Handle("/ws/flows", newFlowSocket(cfg.Registry, logger))
	}
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// status reports whether the node endpoint answers a sync_state call.
func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	connected := false
	if h.cfg.Client != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.cfg.Client.SyncState(ctx); err == nil {
			connected = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": connected,
		"endpoint":  h.cfg.NodeEndpoint,
	})
}

func (h *handler) assets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Assets())
}

func (h *handler) creator(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	addr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/creator"), "/")
	if addr == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	profile, err := h.cfg.Profiles.GetByWallet(r.Context(), addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("no profile for %s", addr))
			return
		}
		h.log.Printf("profile lookup failed for %s: %v", addr, err)
		writeError(w, http.StatusInternalServerError, errors.New("profile lookup failed"))
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		WalletAddress string  `json:"walletAddress"`
		Name          string  `json:"name"`
		Bio           *string `json:"bio"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.WalletAddress == "" || payload.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("walletAddress and name are required"))
		return
	}
	if !miden.IsWalletAddress(payload.WalletAddress) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%q is not a wallet address", payload.WalletAddress))
		return
	}

	p := &domain.CreatorProfile{
		WalletAddress: payload.WalletAddress,
		Name:          payload.Name,
		Bio:           payload.Bio,
	}
	if err := h.cfg.Profiles.Upsert(r.Context(), p); err != nil {
		h.log.Printf("profile upsert failed for %s: %v", payload.WalletAddress, err)
		writeError(w, http.StatusInternalServerError, errors.New("profile save failed"))
		return
	}

	saved, err := h.cfg.Profiles.GetByWallet(r.Context(), payload.WalletAddress)
	if err != nil {
		h.log.Printf("profile readback failed for %s: %v", payload.WalletAddress, err)
		writeError(w, http.StatusInternalServerError, errors.New("profile save failed"))
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(saved))
}

func (h *handler) payments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	addr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/payments"), "/")
	if addr == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	events, err := h.cfg.Payments.ListByCreator(r.Context(), addr)
	if err != nil {
		h.log.Printf("payment list failed for %s: %v", addr, err)
		writeError(w, http.StatusInternalServerError, errors.New("payment lookup failed"))
		return
	}
	total, err := h.cfg.Payments.TotalByCreator(r.Context(), addr)
	if err != nil {
		h.log.Printf("payment total failed for %s: %v", addr, err)
		writeError(w, http.StatusInternalServerError, errors.New("payment lookup failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": eventResponses(events),
		"total":  total,
	})
}

func (h *handler) transactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/transactions"), "/")
	if account == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	records, err := h.cfg.Transactions.ListByAccount(r.Context(), account)
	if err != nil {
		h.log.Printf("transaction list failed for %s: %v", account, err)
		writeError(w, http.StatusInternalServerError, errors.New("transaction lookup failed"))
		return
	}
	h.refreshStatuses(r.Context(), records)
	writeJSON(w, http.StatusOK, transactionResponses(records))
}

// refreshStatuses flips submitted records to confirmed when the chain reports
// them committed. Lookup failures leave the stored status untouched.
func (h *handler) refreshStatuses(ctx context.Context, records []*domain.TransactionRecord) {
	if h.cfg.Client == nil {
		return
	}
	for _, rec := range records {
		if rec.Status != domain.TxStatusSubmitted {
			continue
		}
		status, err := h.cfg.Client.GetTransactionStatus(ctx, rec.TxID)
		if err != nil || status != domain.TxStatusConfirmed {
			continue
		}
		if err := h.cfg.Transactions.MarkConfirmed(ctx, rec.TxID); err != nil {
			h.log.Printf("mark confirmed %s: %v", rec.TxID, err)
			continue
		}
		rec.Status = domain.TxStatusConfirmed
	}
}

// cdpAccount pairs a wallet address with a server-custodied EVM account.
// POST creates the pairing if absent; GET only looks it up.
func (h *handler) cdpAccount(w http.ResponseWriter, r *http.Request) {
	if h.cfg.CDP == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("account service not configured"))
		return
	}

	switch r.Method {
	case http.MethodPost:
		var payload struct {
			MidenAddress string `json:"midenAddress"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		name := cdp.AccountNameForWallet(payload.MidenAddress)
		if name == "" {
			writeError(w, http.StatusBadRequest, errors.New("midenAddress is required"))
			return
		}
		acct, err := h.cfg.CDP.GetOrCreateAccount(r.Context(), name)
		if err != nil {
			h.log.Printf("account pairing failed for %s: %v", name, err)
			writeError(w, http.StatusBadGateway, errors.New("account service unavailable"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"evmAddress":   acct.EVMAddress,
			"midenAddress": payload.MidenAddress,
		})

	case http.MethodGet:
		midenAddress := r.URL.Query().Get("midenAddress")
		name := cdp.AccountNameForWallet(midenAddress)
		if name == "" {
			writeError(w, http.StatusBadRequest, errors.New("midenAddress is required"))
			return
		}
		acct, err := h.cfg.CDP.GetAccountByName(r.Context(), name)
		if err != nil {
			if errors.Is(err, cdp.ErrNotFound) {
				writeJSON(w, http.StatusOK, map[string]any{
					"evmAddress":   nil,
					"midenAddress": midenAddress,
				})
				return
			}
			h.log.Printf("account lookup failed for %s: %v", name, err)
			writeError(w, http.StatusBadGateway, errors.New("account service unavailable"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"evmAddress":   acct.EVMAddress,
			"midenAddress": midenAddress,
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// cdpSign signs a message with the paired account's key. The account is
// resolved by wallet address first, then by raw EVM address.
func (h *handler) cdpSign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.cfg.CDP == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("account service not configured"))
		return
	}

	var payload struct {
		MidenAddress string `json:"midenAddress"`
		Address      string `json:"address"`
		Message      string `json:"message"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	acct, err := h.resolveSigner(r.Context(), payload.MidenAddress, payload.Address)
	if err != nil {
		if errors.Is(err, cdp.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("no paired account"))
			return
		}
		h.log.Printf("signer lookup failed: %v", err)
		writeError(w, http.StatusBadGateway, errors.New("account service unavailable"))
		return
	}

	sig, err := h.cfg.CDP.SignMessage(r.Context(), acct.EVMAddress, payload.Message)
	if err != nil {
		h.log.Printf("signing failed for %s: %v", acct.EVMAddress, err)
		writeError(w, http.StatusBadGateway, errors.New("signing failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address":   acct.EVMAddress,
		"signature": sig,
	})
}

func (h *handler) resolveSigner(ctx context.Context, midenAddress, address string) (*cdp.Account, error) {
	if name := cdp.AccountNameForWallet(midenAddress); name != "" {
		acct, err := h.cfg.CDP.GetAccountByName(ctx, name)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, cdp.ErrNotFound) {
			return nil, err
		}
	}
	if address != "" {
		return h.cfg.CDP.GetAccountByAddress(ctx, address)
	}
	return nil, cdp.ErrNotFound
}

// upload accepts a base64-encoded file and serves it back under /storage/.
func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.cfg.UploadDir == "" {
		writeError(w, http.StatusServiceUnavailable, errors.New("uploads not configured"))
		return
	}

	var payload struct {
		File     string `json:"file"`
		Filename string `json:"filename"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.File == "" || payload.Filename == "" {
		writeError(w, http.StatusBadRequest, errors.New("file and filename are required"))
		return
	}

	raw, err := base64.StdEncoding.DecodeString(payload.File)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file is not valid base64: %w", err))
		return
	}

	// Drop any path components the client sent.
	name := sanitizeFilename(payload.Filename)
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("invalid filename"))
		return
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		h.log.Printf("upload dir creation failed for %s: %v", h.cfg.UploadDir, err)
		writeError(w, http.StatusInternalServerError, errors.New("upload failed"))
		return
	}
	dest := filepath.Join(h.cfg.UploadDir, name)
	if err := os.WriteFile(dest, raw, 0o644); err != nil {
		h.log.Printf("upload write failed for %s: %v", dest, err)
		writeError(w, http.StatusInternalServerError, errors.New("upload failed"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": "/storage/" + name})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return ""
	}
	return out
}

func profileResponse(p *domain.CreatorProfile) map[string]any {
	return map[string]any{
		"walletAddress": p.WalletAddress,
		"name":          p.Name,
		"bio":           p.Bio,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
}

func eventResponses(events []*domain.PaymentEvent) []map[string]any {
	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		out = append(out, map[string]any{
			"eventId":   e.EventID,
			"creator":   e.Creator,
			"supporter": e.Supporter,
			"amount":    e.Amount,
			"noteId":    e.NoteID,
			"txId":      e.TxID,
			"noteType":  e.NoteType,
			"timestamp": e.Timestamp,
		})
	}
	return out
}

func transactionResponses(records []*domain.TransactionRecord) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, t := range records {
		out = append(out, map[string]any{
			"txId":      t.TxID,
			"accountId": t.AccountID,
			"kind":      t.Kind,
			"status":    t.Status,
			"noteIds":   t.NoteIDs,
			"createdAt": t.CreatedAt,
		})
	}
	return out
}

// withMetrics records request counts and latency per route.
func withMetrics(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		observability.RecordAPIRequest(route, fmt.Sprintf("%d", sw.status), time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
