package poller

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/miden/stub"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPoll_FindsNoteImmediately(t *testing.T) {
	client := stub.NewClient()
	client.AddNote("0xacct", domain.ConsumableNote{NoteID: "0xnote1", FaucetID: "0xfaucet", Amount: 100})

	p := New(client, Config{MaxAttempts: 5, Interval: time.Millisecond, Logger: quietLogger()})

	notes, err := p.Poll(context.Background(), "0xacct")
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(notes) != 1 || notes[0].NoteID != "0xnote1" {
		t.Errorf("unexpected notes: %v", notes)
	}
	if client.SyncCalls() != 1 {
		t.Errorf("expected 1 sync, got %d", client.SyncCalls())
	}
}

func TestPoll_FindsNoteAfterSeveralAttempts(t *testing.T) {
	client := stub.NewClient()
	// Visible only after 3 more syncs
	client.AddNoteAfterSyncs("0xacct", domain.ConsumableNote{NoteID: "0xnote1", FaucetID: "0xfaucet", Amount: 100}, 3)

	p := New(client, Config{MaxAttempts: 10, Interval: time.Millisecond, Logger: quietLogger()})

	notes, err := p.Poll(context.Background(), "0xacct")
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if client.SyncCalls() != 3 {
		t.Errorf("expected 3 syncs, got %d", client.SyncCalls())
	}
}

func TestPoll_TimeoutAfterBudgetExhausted(t *testing.T) {
	client := stub.NewClient()

	p := New(client, Config{MaxAttempts: 4, Interval: time.Millisecond, Logger: quietLogger()})

	_, err := p.Poll(context.Background(), "0xacct")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if client.SyncCalls() != 4 {
		t.Errorf("expected 4 attempts, got %d", client.SyncCalls())
	}
}

func TestPoll_SwallowsAttemptErrors(t *testing.T) {
	client := stub.NewClient()
	client.SetSyncErr(errors.New("node unreachable"))

	p := New(client, Config{MaxAttempts: 3, Interval: time.Millisecond, Logger: quietLogger()})

	// Every attempt fails but the poll still runs to budget, then times out.
	_, err := p.Poll(context.Background(), "0xacct")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout after swallowed errors, got %v", err)
	}
	if client.SyncCalls() != 3 {
		t.Errorf("expected 3 attempts, got %d", client.SyncCalls())
	}
}

func TestPoll_NoteAppearsAfterErrors(t *testing.T) {
	client := stub.NewClient()
	client.SetSyncErr(errors.New("node unreachable"))
	client.AddNote("0xacct", domain.ConsumableNote{NoteID: "0xnote1", FaucetID: "0xfaucet", Amount: 100})

	p := New(client, Config{MaxAttempts: 10, Interval: time.Millisecond, Logger: quietLogger()})

	done := make(chan struct{})
	go func() {
		// Heal the node after the first couple of failed attempts.
		time.Sleep(5 * time.Millisecond)
		client.SetSyncErr(nil)
		close(done)
	}()

	notes, err := p.Poll(context.Background(), "0xacct")
	<-done
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("expected 1 note, got %d", len(notes))
	}
}

func TestPoll_ContextCancellation(t *testing.T) {
	client := stub.NewClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(client, Config{MaxAttempts: 20, Interval: time.Hour, Logger: quietLogger()})

	_, err := p.Poll(ctx, "0xacct")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("cancellation must not be reported as timeout")
	}
}

func TestPoll_ContextCancelledDuringWait(t *testing.T) {
	client := stub.NewClient()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	p := New(client, Config{MaxAttempts: 20, Interval: time.Hour, Logger: quietLogger()})

	start := time.Now()
	_, err := p.Poll(ctx, "0xacct")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("poll did not abort promptly on cancellation")
	}
}

func TestPoll_FilterByFaucet(t *testing.T) {
	client := stub.NewClient()
	client.AddNote("0xacct", domain.ConsumableNote{NoteID: "0xother", FaucetID: "0xwrong", Amount: 10})
	client.AddNoteAfterSyncs("0xacct", domain.ConsumableNote{NoteID: "0xwanted", FaucetID: "0xfaucet", Amount: 100}, 2)

	p := New(client, Config{
		MaxAttempts: 10,
		Interval:    time.Millisecond,
		Filter:      FilterByFaucet("0xfaucet"),
		Logger:      quietLogger(),
	})

	notes, err := p.Poll(context.Background(), "0xacct")
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(notes) != 1 || notes[0].NoteID != "0xwanted" {
		t.Errorf("filter mismatch: %v", notes)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, cfg.MaxAttempts)
	}
	if cfg.Interval != DefaultInterval {
		t.Errorf("expected %v interval, got %v", DefaultInterval, cfg.Interval)
	}
	if cfg.Logger == nil {
		t.Error("expected default logger")
	}
}
