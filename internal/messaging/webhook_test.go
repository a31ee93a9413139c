package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookNotifier_Delivers(t *testing.T) {
	var received PrivateNoteReceipt
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode receipt: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	receipt := PrivateNoteReceipt{
		Creator:   "mtst1creator",
		Supporter: "mtst1fan",
		NoteID:    "0xnote1",
		TxID:      "0xtx1",
		Amount:    1000,
		Timestamp: 1704067200000,
	}

	if err := n.NotifyPrivateNote(context.Background(), receipt); err != nil {
		t.Fatalf("NotifyPrivateNote failed: %v", err)
	}

	if received.NoteID != "0xnote1" || received.Amount != 1000 {
		t.Errorf("unexpected receipt delivered: %+v", received)
	}
}

func TestWebhookNotifier_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.NotifyPrivateNote(context.Background(), PrivateNoteReceipt{Creator: "mtst1creator"})
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestLogNotifier_NeverFails(t *testing.T) {
	n := NewLogNotifier(nil)
	if err := n.NotifyPrivateNote(context.Background(), PrivateNoteReceipt{Creator: "mtst1creator"}); err != nil {
		t.Fatalf("LogNotifier returned error: %v", err)
	}
}
