package quota

import (
	"context"
	"time"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

// OutcomeKind classifies the result of a consume attempt.
type OutcomeKind int

const (
	// Consumed: one unit charged within the current window.
	Consumed OutcomeKind = iota
	// WindowReset: the window had lapsed; the full quota was restored first,
	// then one unit was charged.
	WindowReset
	// Exhausted: no units left and the window has not lapsed. Nothing mutated.
	Exhausted
)

// Outcome carries the post-transition state of the user's record.
type Outcome struct {
	Kind        OutcomeKind
	Remaining   int
	WindowStart time.Time
}

// Ledger is the durable per-user counter. Implementations must serialize the
// read-modify-write in TryConsume (and the reset in Peek) per user; cross-user
// calls are independent and share no lock.
type Ledger interface {
	// TryConsume performs the check-reset-decrement sequence as one atomic
	// step: create the record if absent, restore the full limit if the window
	// lapsed, then charge one unit unless the counter is at zero. The reset
	// check runs before the exhaustion check so a lapsed window never causes
	// a stale denial.
	TryConsume(ctx context.Context, userID string, limit int, window time.Duration, now time.Time) (Outcome, error)

	// Peek returns the current record without charging. A lapsed window is
	// resolved and persisted even on this pure read.
	Peek(ctx context.Context, userID string, limit int, window time.Duration, now time.Time) (domain.QuotaRecord, error)
}

// advance applies the shared state transition to rec in place and reports the
// outcome. It assumes the caller holds whatever per-user exclusivity the
// backend provides.
func advance(rec *domain.QuotaRecord, limit int, window time.Duration, now time.Time, consume bool) Outcome {
	reset := now.Sub(rec.WindowStart) >= window
	if reset {
		// Hard reset: full quota in one step, no fractional carry-over.
		rec.Remaining = limit
		rec.WindowStart = now
	}

	if !consume {
		kind := Consumed
		if reset {
			kind = WindowReset
		}
		return Outcome{Kind: kind, Remaining: rec.Remaining, WindowStart: rec.WindowStart}
	}

	if rec.Remaining <= 0 {
		return Outcome{Kind: Exhausted, Remaining: rec.Remaining, WindowStart: rec.WindowStart}
	}

	rec.Remaining--
	kind := Consumed
	if reset {
		kind = WindowReset
	}
	return Outcome{Kind: kind, Remaining: rec.Remaining, WindowStart: rec.WindowStart}
}
