package quota

import (
	"context"
	"sync"
	"time"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

// MemoryLedger keeps quota records in process memory with a lock per user.
// Used when no database is configured, and by tests.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu  sync.Mutex
	rec domain.QuotaRecord
}

// NewMemoryLedger builds an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]*memoryEntry)}
}

// entry returns the per-user entry, creating it lazily with a full quota.
// The outer lock only guards the map; mutation happens under the entry lock.
func (l *MemoryLedger) entry(userID string, limit int, now time.Time) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[userID]
	if !ok {
		e = &memoryEntry{rec: domain.QuotaRecord{UserID: userID, Remaining: limit, WindowStart: now}}
		l.entries[userID] = e
	}
	return e
}

// TryConsume implements Ledger.
func (l *MemoryLedger) TryConsume(_ context.Context, userID string, limit int, window time.Duration, now time.Time) (Outcome, error) {
	e := l.entry(userID, limit, now)
	e.mu.Lock()
	defer e.mu.Unlock()
	return advance(&e.rec, limit, window, now, true), nil
}

// Peek implements Ledger.
func (l *MemoryLedger) Peek(_ context.Context, userID string, limit int, window time.Duration, now time.Time) (domain.QuotaRecord, error) {
	e := l.entry(userID, limit, now)
	e.mu.Lock()
	defer e.mu.Unlock()
	advance(&e.rec, limit, window, now, false)
	return e.rec, nil
}
