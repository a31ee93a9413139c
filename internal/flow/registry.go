package flow

import (
	"errors"
	"sync"
)

// ErrFlowActive is returned when a wallet already has a flow in progress.
var ErrFlowActive = errors.New("a flow is already active for this wallet")

// Registry enforces one active flow per wallet and fans stage events out to
// subscribers. Flows are registered on start and released when they reach a
// terminal stage.
type Registry struct {
	mu     sync.Mutex
	active map[string]*Machine // keyed by wallet address

	subMu sync.RWMutex
	subs  map[chan Event]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]*Machine),
		subs:   make(map[chan Event]struct{}),
	}
}

// Start registers a new flow for the wallet and returns its machine.
// Returns ErrFlowActive while a previous flow for the wallet is non-terminal.
func (r *Registry) Start(name, wallet string) (*Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.active[wallet]; ok && !m.Stage().Terminal() {
		return nil, ErrFlowActive
	}

	m := newMachine(name, wallet, r.publish)
	r.active[wallet] = m
	return m, nil
}

// Release drops the wallet's registration so a new flow can start. A flow
// that reached a terminal stage is released implicitly by the next Start;
// Release exists for explicit user-triggered restarts.
func (r *Registry) Release(wallet string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, wallet)
}

// Active returns the wallet's current machine, or nil.
func (r *Registry) Active(wallet string) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[wallet]
}

// Subscribe returns a channel receiving every stage event, and a cancel
// function that must be called to stop delivery. Slow subscribers drop
// events rather than block flows.
func (r *Registry) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()

	cancel := func() {
		r.subMu.Lock()
		if _, ok := r.subs[ch]; ok {
			delete(r.subs, ch)
			close(ch)
		}
		r.subMu.Unlock()
	}
	return ch, cancel
}

func (r *Registry) publish(ev Event) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()

	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
