package infra

import (
	"errors"
	"sync"
	"time"
)

// SheetsBreaker guards calls to the Sheets API. The API enforces per-minute
// quotas, so once requests start failing they keep failing until the quota
// window rolls over; the breaker fast-fails operator commands during that
// window instead of stacking them behind timeouts.
//
// Closed: calls pass through; TripAfter consecutive failures open the breaker.
// Open: calls fail immediately with ErrSheetsUnavailable until the cooldown
// elapses. Probing: a single call is let through; success closes the breaker,
// failure reopens it, and concurrent calls keep fast-failing meanwhile.

// ErrSheetsUnavailable is returned without touching the network while the
// breaker is open.
var ErrSheetsUnavailable = errors.New("sheets API circuit is open")

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerProbing
)

// String names the state for the health endpoint and logs.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerProbing:
		return "probing"
	default:
		return "unknown"
	}
}

type SheetsBreakerConfig struct {
	TripAfter int           // consecutive failures that open the breaker
	Cooldown  time.Duration // open interval before the next probe
}

// DefaultBreakerConfig fits the Sheets quota model: quota errors repeat
// deterministically within a window, so three failures are proof enough, and
// the cooldown outlasts a full per-minute quota window with slack.
func DefaultBreakerConfig() SheetsBreakerConfig {
	return SheetsBreakerConfig{TripAfter: 3, Cooldown: 75 * time.Second}
}

type SheetsBreaker struct {
	mu       sync.Mutex
	cfg      SheetsBreakerConfig
	state    BreakerState
	failures int
	openedAt time.Time
}

func NewSheetsBreaker(cfg SheetsBreakerConfig) *SheetsBreaker {
	if cfg.TripAfter <= 0 {
		cfg.TripAfter = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 75 * time.Second
	}
	return &SheetsBreaker{cfg: cfg}
}

// State reports the current state without advancing it.
func (b *SheetsBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && time.Since(b.openedAt) >= b.cfg.Cooldown {
		return BreakerProbing
	}
	return b.state
}

// Do runs fn unless the breaker is open. After the cooldown, exactly one
// caller probes; everyone else keeps getting ErrSheetsUnavailable until the
// probe settles.
func (b *SheetsBreaker) Do(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case BreakerOpen:
		if time.Since(b.openedAt) < b.cfg.Cooldown {
			b.mu.Unlock()
			return ErrSheetsUnavailable
		}
		b.state = BreakerProbing
	case BreakerProbing:
		b.mu.Unlock()
		return ErrSheetsUnavailable
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.state == BreakerProbing || b.failures >= b.cfg.TripAfter {
			b.state = BreakerOpen
			b.openedAt = time.Now()
			b.failures = 0
		}
		return err
	}
	b.state = BreakerClosed
	b.failures = 0
	return nil
}
