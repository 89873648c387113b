package audit

import (
	"context"
	"sync"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

// Log is the append-only record of admitted metered calls. Entries are
// write-once; nothing reads them back on the request path.
type Log interface {
	Append(ctx context.Context, entry domain.RequestLog) error
}

// MemoryLog keeps entries in memory, in append order. Used when no database
// is configured, and by tests.
type MemoryLog struct {
	mu      sync.Mutex
	entries []domain.RequestLog
}

// NewMemoryLog builds an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append implements Log.
func (l *MemoryLog) Append(_ context.Context, entry domain.RequestLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of everything appended so far.
func (l *MemoryLog) Entries() []domain.RequestLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.RequestLog, len(l.entries))
	copy(out, l.entries)
	return out
}
