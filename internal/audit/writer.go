package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

const appendTimeout = 5 * time.Second

// Writer decouples audit appends from the request path. A single consumer
// goroutine drains a buffered channel, which preserves append order. Entries
// for an admitted call are handed off before the request returns; when the
// buffer is full the send blocks until the consumer frees a slot. The
// consumer retries failed store appends with backoff until they land, so a
// handed-off entry is never dropped.
type Writer struct {
	store  Log
	logger *zap.Logger

	retryBase time.Duration
	retryMax  time.Duration

	mu     sync.RWMutex
	closed bool
	ch     chan domain.RequestLog
	done   chan struct{}
}

// NewWriter starts the consumer goroutine.
func NewWriter(store Log, buffer int, logger *zap.Logger) *Writer {
	if buffer <= 0 {
		buffer = 64
	}
	w := &Writer{
		store:     store,
		logger:    logger,
		retryBase: 100 * time.Millisecond,
		retryMax:  5 * time.Second,
		ch:        make(chan domain.RequestLog, buffer),
		done:      make(chan struct{}),
	}
	go w.run()
	return w
}

// Append implements Log. Concurrent callers only share the read lock, so a
// full buffer stalls the sender, not every other append. After Close it falls
// through to a synchronous append so late entries still land.
func (w *Writer) Append(ctx context.Context, entry domain.RequestLog) error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return w.store.Append(ctx, entry)
	}
	w.ch <- entry
	w.mu.RUnlock()
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for entry := range w.ch {
		w.flush(entry)
	}
}

// flush keeps retrying until the store accepts the entry. The admission
// already happened and the quota unit is spent, so giving up would lose the
// only record of it. Head-of-line blocking during an outage is the price of
// keeping entries ordered.
func (w *Writer) flush(entry domain.RequestLog) {
	delay := w.retryBase
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		err := w.store.Append(ctx, entry)
		cancel()
		if err == nil {
			return
		}

		w.logger.Warn("audit append failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("user_id", entry.UserID),
			zap.Time("requested_at", entry.RequestedAt),
			zap.Error(err),
		)
		time.Sleep(delay)
		if delay *= 2; delay > w.retryMax {
			delay = w.retryMax
		}
	}
}

// Close drains buffered entries and stops the consumer. The write lock waits
// out in-flight Append sends before the channel is closed.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()
	<-w.done
}
