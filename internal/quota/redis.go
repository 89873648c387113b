package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

// consumeScript runs the whole check-reset-decrement sequence server-side.
// Redis executes scripts atomically, which gives the per-user serialization
// the ledger contract requires.
//
// KEYS[1] record hash, ARGV: limit, window millis, now millis, consume flag.
// Returns {kind, remaining, window_start_millis} with kind 0=consumed,
// 1=window reset, 2=exhausted.
var consumeScript = redis.NewScript(`
local remaining = tonumber(redis.call('HGET', KEYS[1], 'remaining'))
local window_start = tonumber(redis.call('HGET', KEYS[1], 'window_start'))
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local kind = 0
if remaining == nil or window_start == nil then
    remaining = limit
    window_start = now
elseif now - window_start >= window then
    remaining = limit
    window_start = now
    kind = 1
end

if tonumber(ARGV[4]) == 1 then
    if remaining <= 0 then
        kind = 2
    else
        remaining = remaining - 1
    end
end

redis.call('HSET', KEYS[1], 'remaining', remaining, 'window_start', window_start)
return {kind, remaining, window_start}
`)

// RedisLedger stores quota records as Redis hashes, one per user.
type RedisLedger struct {
	client *redis.Client
}

// NewRedisLedger builds a ledger on top of an existing client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func quotaKey(userID string) string {
	return "quota:" + userID
}

func (l *RedisLedger) run(ctx context.Context, userID string, limit int, window time.Duration, now time.Time, consume bool) (Outcome, error) {
	consumeFlag := 0
	if consume {
		consumeFlag = 1
	}

	res, err := consumeScript.Run(ctx, l.client,
		[]string{quotaKey(userID)},
		limit, window.Milliseconds(), now.UnixMilli(), consumeFlag,
	).Slice()
	if err != nil {
		return Outcome{}, err
	}
	if len(res) != 3 {
		return Outcome{}, fmt.Errorf("unexpected script reply of length %d", len(res))
	}

	kind, ok1 := res[0].(int64)
	remaining, ok2 := res[1].(int64)
	startMillis, ok3 := res[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return Outcome{}, fmt.Errorf("unexpected script reply types %T %T %T", res[0], res[1], res[2])
	}

	return Outcome{
		Kind:        OutcomeKind(kind),
		Remaining:   int(remaining),
		WindowStart: time.UnixMilli(startMillis).UTC(),
	}, nil
}

// TryConsume implements Ledger.
func (l *RedisLedger) TryConsume(ctx context.Context, userID string, limit int, window time.Duration, now time.Time) (Outcome, error) {
	return l.run(ctx, userID, limit, window, now, true)
}

// Peek implements Ledger.
func (l *RedisLedger) Peek(ctx context.Context, userID string, limit int, window time.Duration, now time.Time) (domain.QuotaRecord, error) {
	out, err := l.run(ctx, userID, limit, window, now, false)
	if err != nil {
		return domain.QuotaRecord{}, err
	}
	return domain.QuotaRecord{UserID: userID, Remaining: out.Remaining, WindowStart: out.WindowStart}, nil
}
