// Package poller implements note-availability polling against the chain client.
//
// A submitted transaction produces notes that only become visible to the
// recipient after the node syncs them. The poller repeatedly syncs and
// queries until a matching note appears, the attempt budget is exhausted,
// or the context is cancelled.
package poller

import (
	"context"
	"errors"
	"log"
	"time"

	"miden-wallet-lab/internal/domain"
	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/observability"
)

// ErrTimeout is returned when the attempt budget is exhausted without a
// matching note. Distinct from transport failures, which are swallowed
// per attempt.
var ErrTimeout = errors.New("poller: no matching note before attempt budget exhausted")

// Default polling parameters.
const (
	DefaultMaxAttempts = 20
	DefaultInterval    = 3 * time.Second
)

// Config controls one polling run.
type Config struct {
	// MaxAttempts is the attempt budget. Defaults to DefaultMaxAttempts.
	MaxAttempts int

	// Interval is the pause between attempts. Defaults to DefaultInterval.
	Interval time.Duration

	// Filter restricts which notes count as a match. Nil accepts any note.
	Filter func(domain.ConsumableNote) bool

	// Logger for per-attempt diagnostics. Defaults to log.Default().
	Logger *log.Logger
}

func (c Config) withDefaults() Config {
	cfg := c
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return cfg
}

// Poller polls for consumable notes.
type Poller struct {
	client miden.Client
	cfg    Config
}

// New creates a Poller. A zero Config selects all defaults.
func New(client miden.Client, cfg Config) *Poller {
	return &Poller{client: client, cfg: cfg.withDefaults()}
}

// Poll waits until the account has at least one matching consumable note and
// returns all matching notes from that attempt.
//
// Each attempt syncs state and queries notes. Attempt errors are logged and
// swallowed: a flaky node should not abort the wait. Poll returns ErrTimeout
// after MaxAttempts empty or failed attempts, and ctx.Err() as soon as the
// context is cancelled.
func (p *Poller) Poll(ctx context.Context, account miden.AccountID) ([]domain.ConsumableNote, error) {
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		notes, err := p.attempt(ctx, account)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			p.cfg.Logger.Printf("poller: attempt %d/%d for %s failed: %v",
				attempt, p.cfg.MaxAttempts, account, err)
			observability.RecordPollAttempt("error")
		} else if len(notes) > 0 {
			observability.RecordPollAttempt("found")
			observability.RecordPollOutcome("found")
			return notes, nil
		} else {
			observability.RecordPollAttempt("empty")
		}

		if attempt == p.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.cfg.Interval):
		}
	}

	observability.RecordPollOutcome("timeout")
	return nil, ErrTimeout
}

// attempt performs one sync-and-query round.
func (p *Poller) attempt(ctx context.Context, account miden.AccountID) ([]domain.ConsumableNote, error) {
	if err := p.client.SyncState(ctx); err != nil {
		return nil, err
	}

	notes, err := p.client.GetConsumableNotes(ctx, account)
	if err != nil {
		return nil, err
	}

	if p.cfg.Filter == nil {
		return notes, nil
	}

	var matched []domain.ConsumableNote
	for _, n := range notes {
		if p.cfg.Filter(n) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// FilterByFaucet returns a Filter matching notes issued by the given faucet.
func FilterByFaucet(faucetID string) func(domain.ConsumableNote) bool {
	return func(n domain.ConsumableNote) bool {
		return n.FaucetID == faucetID
	}
}
