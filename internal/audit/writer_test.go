package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

func TestWriterPreservesOrder(t *testing.T) {
	store := NewMemoryLog()
	writer := NewWriter(store, 4, zap.NewNop())

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	const n = 20
	for i := 0; i < n; i++ {
		entry := domain.RequestLog{
			UserID:      "user-1",
			RequestedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := writer.Append(context.Background(), entry); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	writer.Close()

	entries := store.Entries()
	if len(entries) != n {
		t.Fatalf("expected %d entries, got %d", n, len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].RequestedAt.Before(entries[i-1].RequestedAt) {
			t.Fatalf("entries out of order at %d: %v after %v", i, entries[i].RequestedAt, entries[i-1].RequestedAt)
		}
	}
}

func TestWriterCloseDrains(t *testing.T) {
	store := &slowLog{delegate: NewMemoryLog(), delay: 5 * time.Millisecond}
	writer := NewWriter(store, 16, zap.NewNop())

	for i := 0; i < 10; i++ {
		if err := writer.Append(context.Background(), domain.RequestLog{UserID: "user-1"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	writer.Close()

	if got := len(store.delegate.Entries()); got != 10 {
		t.Fatalf("expected 10 entries after close, got %d", got)
	}
}

func TestWriterAppendAfterClose(t *testing.T) {
	store := NewMemoryLog()
	writer := NewWriter(store, 4, zap.NewNop())
	writer.Close()

	if err := writer.Append(context.Background(), domain.RequestLog{UserID: "user-1"}); err != nil {
		t.Fatalf("append after close: %v", err)
	}
	if got := len(store.Entries()); got != 1 {
		t.Fatalf("expected synchronous append after close, got %d entries", got)
	}
}

func TestWriterRetriesFailedAppend(t *testing.T) {
	store := &flakyLog{delegate: NewMemoryLog(), failures: 1}
	writer := NewWriter(store, 4, zap.NewNop())
	writer.retryBase = time.Millisecond

	if err := writer.Append(context.Background(), domain.RequestLog{UserID: "user-1"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	writer.Close()

	if got := len(store.delegate.Entries()); got != 1 {
		t.Fatalf("expected retry to land the entry, got %d", got)
	}
}

func TestWriterSurvivesStoreOutage(t *testing.T) {
	store := &flakyLog{delegate: NewMemoryLog(), failures: 4}
	writer := NewWriter(store, 4, zap.NewNop())
	writer.retryBase = time.Millisecond

	if err := writer.Append(context.Background(), domain.RequestLog{UserID: "user-1"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := writer.Append(context.Background(), domain.RequestLog{UserID: "user-2"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	writer.Close()

	entries := store.delegate.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected both entries persisted after outage, got %d", len(entries))
	}
	if entries[0].UserID != "user-1" || entries[1].UserID != "user-2" {
		t.Fatalf("entries out of order after outage: %+v", entries)
	}
}

func TestWriterConcurrentAppends(t *testing.T) {
	store := &slowLog{delegate: NewMemoryLog(), delay: time.Millisecond}
	writer := NewWriter(store, 2, zap.NewNop())

	const workers = 8
	const perWorker = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if err := writer.Append(context.Background(), domain.RequestLog{UserID: "user-1"}); err != nil {
					t.Errorf("worker %d append %d: %v", id, j, err)
				}
			}
		}(i)
	}
	wg.Wait()
	writer.Close()

	if got := len(store.delegate.Entries()); got != workers*perWorker {
		t.Fatalf("expected %d entries, got %d", workers*perWorker, got)
	}
}

type slowLog struct {
	delegate *MemoryLog
	delay    time.Duration
}

func (l *slowLog) Append(ctx context.Context, entry domain.RequestLog) error {
	time.Sleep(l.delay)
	return l.delegate.Append(ctx, entry)
}

type flakyLog struct {
	mu       sync.Mutex
	delegate *MemoryLog
	failures int
}

func (l *flakyLog) Append(ctx context.Context, entry domain.RequestLog) error {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
		l.mu.Unlock()
		return errors.New("transient failure")
	}
	l.mu.Unlock()
	return l.delegate.Append(ctx, entry)
}
