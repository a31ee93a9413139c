// Package flow sequences multi-step chain operations (pay, mint reward,
// wait for the note, consume) and exposes each stage transition to callers.
package flow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"miden-wallet-lab/internal/observability"
)

// Stage is the single authoritative state of a flow.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageSending   Stage = "sending"
	StageMinting   Stage = "minting"
	StageSearching Stage = "searching"
	StageReady     Stage = "ready"
	StageCompleted Stage = "completed"
	StageError     Stage = "error"
)

// transitions enumerates every legal stage change. Flows that have no
// reward-mint step go sending -> searching directly; simple payments with
// nothing to wait for go sending -> completed. A stage never reverts.
var transitions = map[Stage][]Stage{
	StageIdle:      {StageSending},
	StageSending:   {StageMinting, StageSearching, StageCompleted},
	StageMinting:   {StageSearching},
	StageSearching: {StageReady},
	StageReady:     {StageCompleted},
}

// Terminal reports whether no further transition can leave the stage.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageError
}

// canTransition reports whether s -> to is in the transition table.
// StageError is reachable from any non-terminal stage.
func (s Stage) canTransition(to Stage) bool {
	if to == StageError {
		return !s.Terminal()
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrIllegalTransition is returned when a stage change is not in the
// transition table.
var ErrIllegalTransition = errors.New("illegal stage transition")

// Event is one stage change, as seen by subscribers.
type Event struct {
	Wallet    string `json:"wallet"`
	Flow      string `json:"flow"`
	Stage     Stage  `json:"stage"`
	TxID      string `json:"tx_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"` // Unix ms
}

// Machine tracks the current stage of one flow instance and enforces the
// transition table. Safe for concurrent use.
type Machine struct {
	mu     sync.Mutex
	name   string
	wallet string
	stage  Stage
	sink   func(Event)
}

// newMachine creates a machine in StageIdle. sink receives every transition
// and may be nil.
func newMachine(name, wallet string, sink func(Event)) *Machine {
	return &Machine{name: name, wallet: wallet, stage: StageIdle, sink: sink}
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// To moves the machine to the given stage, rejecting anything outside the
// transition table.
func (m *Machine) To(stage Stage, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.stage.canTransition(stage) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.stage, stage)
	}

	m.stage = stage
	m.emit(Event{
		Wallet:    m.wallet,
		Flow:      m.name,
		Stage:     stage,
		TxID:      txID,
		Timestamp: time.Now().UnixMilli(),
	})
	return nil
}

// Fail moves the machine to StageError and wraps err with its classified
// failure kind. Calling Fail on an already-terminal machine keeps the first
// terminal stage and still returns the wrapped error.
func (m *Machine) Fail(err error) *FlowError {
	ferr := classifyError(err)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.stage.Terminal() {
		m.stage = StageError
		m.emit(Event{
			Wallet:    m.wallet,
			Flow:      m.name,
			Stage:     StageError,
			Message:   ferr.UserMessage(),
			Timestamp: time.Now().UnixMilli(),
		})
	}
	return ferr
}

// emit is called with m.mu held; sinks must not call back into the machine.
func (m *Machine) emit(ev Event) {
	observability.RecordFlowStage(m.name, string(ev.Stage))
	if m.sink != nil {
		m.sink(ev)
	}
}
