package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps hit timestamps in process memory. State is never
// shared with other instances, so it is only suitable as a fallback or
// for single-instance deployments.
type MemoryStore struct {
	policy Policy

	mu   sync.Mutex
	hits map[string][]time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{
		policy: policy,
		hits:   make(map[string][]time.Time),
		stopCh: make(chan struct{}),
	}
}

// Name implements Store.
func (m *MemoryStore) Name() string { return "memory" }

// Hit implements Store.
func (m *MemoryStore) Hit(_ context.Context, key string, now time.Time) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := prune(m.hits[key], now.Add(-m.policy.Window))

	if len(recent) >= m.policy.Max {
		m.hits[key] = recent
		return Result{
			Allowed:    false,
			RetryAfter: retryAfter(recent[0], now, m.policy.Window),
		}, nil
	}

	m.hits[key] = append(recent, now)
	return Result{Allowed: true}, nil
}

// Start runs Sweep every interval until Stop is called.
func (m *MemoryStore) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				m.Sweep(now)
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop ends the sweep loop started by Start. It is safe to call twice.
func (m *MemoryStore) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Sweep drops expired timestamps and removes keys left empty. It returns
// the number of keys removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	cutoff := now.Add(-m.policy.Window)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, ts := range m.hits {
		recent := prune(ts, cutoff)
		if len(recent) == 0 {
			delete(m.hits, key)
			removed++
			continue
		}
		m.hits[key] = recent
	}
	return removed
}

// Len returns the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// prune returns the suffix of ts newer than cutoff. ts is in insertion
// order, which is also time order.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	out := make([]time.Time, len(ts)-i)
	copy(out, ts[i:])
	return out
}
