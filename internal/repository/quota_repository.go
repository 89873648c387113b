package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/quota"
)

const uniqueViolation = "23505"

// quotaRepository implements quota.Ledger on Postgres. Each operation is a
// single statement: the row lock taken by the locking CTE serializes the
// read-modify-write per user, so two overlapping calls can never both observe
// remaining=1 and drive the counter negative.
type quotaRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaRepository returns a Postgres-backed ledger.
func NewQuotaRepository(pool *pgxpool.Pool) quota.Ledger {
	return &quotaRepository{pool: pool}
}

// consumeQuery creates the record on first use (already charged), otherwise
// resets a lapsed window and charges one unit unless the counter is at zero.
// Reset is checked before exhaustion.
const consumeQuery = `
WITH existing AS (
    SELECT remaining, window_start FROM request_quotas WHERE user_id=$1 FOR UPDATE
), inserted AS (
    INSERT INTO request_quotas (user_id, remaining, window_start)
    SELECT $1, $2 - 1, $3::timestamptz
    WHERE NOT EXISTS (SELECT 1 FROM existing)
    RETURNING remaining, window_start
), updated AS (
    UPDATE request_quotas q SET
        remaining = CASE
            WHEN EXTRACT(EPOCH FROM ($3::timestamptz - e.window_start)) >= $4 THEN $2 - 1
            WHEN e.remaining > 0 THEN e.remaining - 1
            ELSE e.remaining
        END,
        window_start = CASE
            WHEN EXTRACT(EPOCH FROM ($3::timestamptz - e.window_start)) >= $4 THEN $3::timestamptz
            ELSE e.window_start
        END
    FROM existing e
    WHERE q.user_id = $1
    RETURNING q.remaining, q.window_start,
        (EXTRACT(EPOCH FROM ($3::timestamptz - e.window_start)) >= $4) AS did_reset,
        (e.remaining <= 0 AND EXTRACT(EPOCH FROM ($3::timestamptz - e.window_start)) < $4) AS exhausted
)
SELECT remaining, window_start, false AS did_reset, false AS exhausted FROM inserted
UNION ALL
SELECT remaining, window_start, did_reset, exhausted FROM updated`

// TryConsume implements quota.Ledger.
func (r *quotaRepository) TryConsume(ctx context.Context, userID string, limit int, window time.Duration, now time.Time) (quota.Outcome, error) {
	out, err := r.tryConsumeOnce(ctx, userID, limit, window, now)
	if err == nil {
		return out, nil
	}

	// Two first-ever calls for the same user can race past the NOT EXISTS
	// guard; the loser hits the primary key and simply retries against the
	// now-existing row.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return r.tryConsumeOnce(ctx, userID, limit, window, now)
	}
	return quota.Outcome{}, err
}

func (r *quotaRepository) tryConsumeOnce(ctx context.Context, userID string, limit int, window time.Duration, now time.Time) (quota.Outcome, error) {
	var (
		remaining   int
		windowStart time.Time
		didReset    bool
		exhausted   bool
	)
	err := r.pool.QueryRow(ctx, consumeQuery, userID, limit, now, window.Seconds()).
		Scan(&remaining, &windowStart, &didReset, &exhausted)
	if err != nil {
		return quota.Outcome{}, err
	}

	kind := quota.Consumed
	switch {
	case exhausted:
		kind = quota.Exhausted
	case didReset:
		kind = quota.WindowReset
	}
	return quota.Outcome{Kind: kind, Remaining: remaining, WindowStart: windowStart}, nil
}

// peekQuery resolves a lapsed window without charging.
const peekQuery = `
WITH existing AS (
    SELECT remaining, window_start FROM request_quotas WHERE user_id=$1 FOR UPDATE
), inserted AS (
    INSERT INTO request_quotas (user_id, remaining, window_start)
    SELECT $1, $2, $3::timestamptz
    WHERE NOT EXISTS (SELECT 1 FROM existing)
    RETURNING remaining, window_start
), updated AS (
    UPDATE request_quotas q SET
        remaining = CASE
            WHEN EXTRACT(EPOCH FROM ($3::timestamptz - e.window_start)) >= $4 THEN $2
            ELSE e.remaining
        END,
        window_start = CASE
            WHEN EXTRACT(EPOCH FROM ($3::timestamptz - e.window_start)) >= $4 THEN $3::timestamptz
            ELSE e.window_start
        END
    FROM existing e
    WHERE q.user_id = $1
    RETURNING q.remaining, q.window_start
)
SELECT remaining, window_start FROM inserted
UNION ALL
SELECT remaining, window_start FROM updated`

// Peek implements quota.Ledger.
func (r *quotaRepository) Peek(ctx context.Context, userID string, limit int, window time.Duration, now time.Time) (domain.QuotaRecord, error) {
	rec, err := r.peekOnce(ctx, userID, limit, window, now)
	if err == nil {
		return rec, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return r.peekOnce(ctx, userID, limit, window, now)
	}
	return domain.QuotaRecord{}, err
}

func (r *quotaRepository) peekOnce(ctx context.Context, userID string, limit int, window time.Duration, now time.Time) (domain.QuotaRecord, error) {
	rec := domain.QuotaRecord{UserID: userID}
	err := r.pool.QueryRow(ctx, peekQuery, userID, limit, now, window.Seconds()).
		Scan(&rec.Remaining, &rec.WindowStart)
	if err != nil {
		return domain.QuotaRecord{}, err
	}
	return rec, nil
}
