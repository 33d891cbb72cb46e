package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"
)

type memoryEntry struct {
	count   int
	resetAt time.Time
}

// MemoryWindow is a fixed-window limiter backed by an in-process map. One
// entry per client key; the counter resets wholesale when its window ends.
// State does not survive a restart, which is fine for an abuse deterrent.
type MemoryWindow struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewMemoryWindow(limit int, window time.Duration) *MemoryWindow {
	return &MemoryWindow{
		entries: make(map[string]*memoryEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (m *MemoryWindow) Allow(ctx context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	entry, exists := m.entries[key]
	if !exists || now.After(entry.resetAt) {
		// First request in a window, or the previous window elapsed
		entry = &memoryEntry{count: 1, resetAt: now.Add(m.window)}
		m.entries[key] = entry

		return Result{
			Allowed:   true,
			Limit:     m.limit,
			Remaining: m.limit - 1,
			ResetAt:   entry.resetAt,
		}, nil
	}

	entry.count++

	remaining := m.limit - entry.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   entry.count <= m.limit,
		Limit:     m.limit,
		Remaining: remaining,
		ResetAt:   entry.resetAt,
	}, nil
}

func (m *MemoryWindow) Limit() int {
	return m.limit
}

func (m *MemoryWindow) Window() time.Duration {
	return m.window
}

// StartSweeper launches a background goroutine that evicts expired entries
// every 10 minutes, so one-off clients don't stay in memory forever.
func (m *MemoryWindow) StartSweeper() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			m.sweep()
		}
	}()
}

func (m *MemoryWindow) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	evicted := 0

	for key, entry := range m.entries {
		if now.After(entry.resetAt) {
			delete(m.entries, key)
			evicted++
		}
	}

	if evicted > 0 {
		log.Printf("rate limit sweeper evicted %d expired entries", evicted)
	}
}
