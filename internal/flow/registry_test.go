package flow

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRegistry_OneFlowPerWallet(t *testing.T) {
	r := NewRegistry()

	m, err := r.Start("purchase", "mtst1buyer")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := r.Start("mint", "mtst1buyer"); !errors.Is(err, ErrFlowActive) {
		t.Errorf("expected ErrFlowActive, got %v", err)
	}

	// A different wallet is unaffected.
	if _, err := r.Start("mint", "mtst1other"); err != nil {
		t.Errorf("unrelated wallet blocked: %v", err)
	}

	// Once terminal, the wallet can start again.
	if err := m.To(StageSending, ""); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	m.Fail(errors.New("boom"))

	if _, err := r.Start("purchase", "mtst1buyer"); err != nil {
		t.Errorf("expected restart after terminal flow, got %v", err)
	}
}

func TestRegistry_Release(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Start("purchase", "mtst1buyer"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Release("mtst1buyer")

	if _, err := r.Start("purchase", "mtst1buyer"); err != nil {
		t.Errorf("expected start after release, got %v", err)
	}
}

func TestRegistry_SubscribeReceivesEvents(t *testing.T) {
	r := NewRegistry()

	ch, cancel := r.Subscribe()
	defer cancel()

	m, err := r.Start("purchase", "mtst1buyer")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.To(StageSending, "0xtx1"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Stage != StageSending || ev.Wallet != "mtst1buyer" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestRegistry_SlowSubscriberDoesNotBlock(t *testing.T) {
	r := NewRegistry()

	// Never read from this subscription.
	_, cancel := r.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Overflow the buffer; must not deadlock.
		for i := 0; i < 200; i++ {
			m, err := r.Start("purchase", fmt.Sprintf("mtst1wallet%d", i))
			if err != nil {
				t.Errorf("Start failed: %v", err)
				return
			}
			if err := m.To(StageSending, ""); err != nil {
				t.Errorf("transition failed: %v", err)
				return
			}
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}

func TestRegistry_CancelIsIdempotent(t *testing.T) {
	r := NewRegistry()
	_, cancel := r.Subscribe()
	cancel()
	cancel() // must not panic
}
