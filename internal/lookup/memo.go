package lookup

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// memo is a write-once-per-key map with collapsed concurrent misses.
type memo[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	group   singleflight.Group
	// timeout bounds a shared lookup, which outlives the caller that
	// started it.
	timeout time.Duration
}

func newMemo[V any](timeout time.Duration) *memo[V] {
	return &memo[V]{
		entries: make(map[string]V),
		timeout: timeout,
	}
}

func (m *memo[V]) load(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *memo[V]) store(key string, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = v
}

// resolve returns the cached value for key, or runs fetch once for all
// concurrent callers. Only successful results are stored.
func (m *memo[V]) resolve(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	var zero V
	if v, ok := m.load(key); ok {
		return v, nil
	}

	ch := m.group.DoChan(key, func() (interface{}, error) {
		if v, ok := m.load(key); ok {
			return v, nil
		}
		fctx := context.WithoutCancel(ctx)
		if m.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, m.timeout)
			defer cancel()
		}
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		m.store(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func (m *memo[V]) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *memo[V]) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]V)
}
