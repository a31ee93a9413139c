package flow

import (
	"errors"
	"testing"
)

func TestStageTransitions_HappyPath(t *testing.T) {
	m := newMachine("purchase", "mtst1buyer", nil)

	for _, stage := range []Stage{StageSending, StageMinting, StageSearching, StageReady, StageCompleted} {
		if err := m.To(stage, ""); err != nil {
			t.Fatalf("transition to %s failed: %v", stage, err)
		}
		if m.Stage() != stage {
			t.Fatalf("expected stage %s, got %s", stage, m.Stage())
		}
	}

	if !m.Stage().Terminal() {
		t.Error("completed must be terminal")
	}
}

func TestStageTransitions_SkipMinting(t *testing.T) {
	// Flows without a reward-mint step go sending -> searching directly.
	m := newMachine("mint", "mtst1acct", nil)

	steps := []Stage{StageSending, StageSearching, StageReady, StageCompleted}
	for _, stage := range steps {
		if err := m.To(stage, ""); err != nil {
			t.Fatalf("transition to %s failed: %v", stage, err)
		}
	}
}

func TestStageTransitions_Illegal(t *testing.T) {
	tests := []struct {
		from, to Stage
	}{
		{StageIdle, StageMinting},
		{StageIdle, StageReady},
		{StageIdle, StageCompleted},
		{StageSending, StageReady},
		{StageMinting, StageReady},
		{StageSearching, StageCompleted}, // must pass through ready
		{StageReady, StageSearching},     // no reverting
		{StageCompleted, StageSending},
	}

	for _, tt := range tests {
		m := newMachine("test", "mtst1acct", nil)
		m.mu.Lock()
		m.stage = tt.from
		m.mu.Unlock()

		if err := m.To(tt.to, ""); !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s -> %s: expected ErrIllegalTransition, got %v", tt.from, tt.to, err)
		}
		if m.Stage() != tt.from {
			t.Errorf("%s -> %s: stage changed on rejected transition", tt.from, tt.to)
		}
	}
}

func TestFail_FromAnyNonTerminalStage(t *testing.T) {
	for _, from := range []Stage{StageIdle, StageSending, StageMinting, StageSearching, StageReady} {
		m := newMachine("test", "mtst1acct", nil)
		m.mu.Lock()
		m.stage = from
		m.mu.Unlock()

		ferr := m.Fail(errors.New("boom"))
		if ferr == nil {
			t.Fatalf("Fail from %s returned nil", from)
		}
		if m.Stage() != StageError {
			t.Errorf("Fail from %s: expected error stage, got %s", from, m.Stage())
		}
	}
}

func TestFail_KeepsTerminalStage(t *testing.T) {
	m := newMachine("test", "mtst1acct", nil)
	m.mu.Lock()
	m.stage = StageCompleted
	m.mu.Unlock()

	m.Fail(errors.New("late failure"))
	if m.Stage() != StageCompleted {
		t.Errorf("terminal stage overwritten: %s", m.Stage())
	}
}

func TestErrorStage_HaltsProgression(t *testing.T) {
	m := newMachine("test", "mtst1acct", nil)
	if err := m.To(StageSending, ""); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	m.Fail(errors.New("boom"))

	for _, stage := range []Stage{StageMinting, StageSearching, StageReady, StageCompleted} {
		if err := m.To(stage, ""); !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("transition %s allowed after error", stage)
		}
	}
}

func TestMachine_EmitsEvents(t *testing.T) {
	var events []Event
	m := newMachine("purchase", "mtst1buyer", func(ev Event) {
		events = append(events, ev)
	})

	if err := m.To(StageSending, "0xtx1"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	m.Fail(errors.New("boom"))

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Stage != StageSending || events[0].TxID != "0xtx1" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Stage != StageError || events[1].Message == "" {
		t.Errorf("unexpected error event: %+v", events[1])
	}
	if events[0].Flow != "purchase" || events[0].Wallet != "mtst1buyer" {
		t.Errorf("event missing flow identity: %+v", events[0])
	}
}
