package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// newTestWindow builds a MemoryWindow whose clock we control, so tests never
// sleep through real windows.
func newTestWindow(limit int, window time.Duration) (*MemoryWindow, *time.Time) {
	m := NewMemoryWindow(limit, window)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestAllow_FirstNAllowed_ThenRejected(t *testing.T) {
	m, _ := newTestWindow(10, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		res, err := m.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	res, _ := m.Allow(ctx, "1.2.3.4")
	if res.Allowed {
		t.Error("11th request in the window should be rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", res.Remaining)
	}
}

func TestAllow_RetryAfterCoversFullWindow(t *testing.T) {
	m, now := newTestWindow(10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		m.Allow(ctx, "1.2.3.4")
	}

	res, _ := m.Allow(ctx, "1.2.3.4")
	if res.Allowed {
		t.Fatal("expected rejection")
	}

	// All requests landed at the same instant, so the full window remains
	if got := res.RetryAfterSeconds(*now); got != 60 {
		t.Errorf("expected retry after 60s, got %d", got)
	}
}

func TestAllow_WindowExpiryResetsCount(t *testing.T) {
	m, now := newTestWindow(10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		m.Allow(ctx, "1.2.3.4")
	}

	// Advance past the window
	*now = now.Add(61 * time.Second)

	res, _ := m.Allow(ctx, "1.2.3.4")
	if !res.Allowed {
		t.Fatal("request after window expiry should be allowed")
	}
	if res.Remaining != 9 {
		t.Errorf("expected a fresh count of 1 (remaining 9), got remaining %d", res.Remaining)
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	m, _ := newTestWindow(5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		m.Allow(ctx, "1.2.3.4")
	}

	res, _ := m.Allow(ctx, "5.6.7.8")
	if !res.Allowed {
		t.Error("a different client key must not be affected by another key's count")
	}
	if res.Remaining != 4 {
		t.Errorf("expected remaining 4 for fresh key, got %d", res.Remaining)
	}
}

func TestSweep_RemovesOnlyExpiredEntries(t *testing.T) {
	m, now := newTestWindow(10, time.Minute)
	ctx := context.Background()

	m.Allow(ctx, "old-client")

	*now = now.Add(2 * time.Minute)
	m.Allow(ctx, "fresh-client")

	m.sweep()

	m.mu.Lock()
	_, oldExists := m.entries["old-client"]
	_, freshExists := m.entries["fresh-client"]
	m.mu.Unlock()

	if oldExists {
		t.Error("expired entry should have been swept")
	}
	if !freshExists {
		t.Error("live entry must never be swept")
	}
}

func TestAllow_ConcurrentSameKey(t *testing.T) {
	// Hammer one key from many goroutines. Run with -race. The exact split
	// of allowed/rejected is what matters: counts must never be lost.
	m := NewMemoryWindow(50, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.Allow(ctx, "shared")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed, got %d", allowed)
	}
}

func TestRetryAfterSeconds_RoundsUp(t *testing.T) {
	now := time.Now()
	res := Result{ResetAt: now.Add(1500 * time.Millisecond)}
	if got := res.RetryAfterSeconds(now); got != 2 {
		t.Errorf("expected ceil to 2, got %d", got)
	}

	res = Result{ResetAt: now.Add(-time.Second)}
	if got := res.RetryAfterSeconds(now); got != 0 {
		t.Errorf("expected 0 for elapsed reset, got %d", got)
	}
}
