package gateway

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo caches the result of one expensive fetch per key for the lifetime of a
// run. Concurrent callers for the same key share a single fetch. Errors are
// not cached.
type memo[T any] struct {
	group singleflight.Group
	mu    sync.Mutex
	data  map[string]T
}

func (m *memo[T]) get(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	m.mu.Lock()
	if v, ok := m.data[key]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		res, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if m.data == nil {
			m.data = make(map[string]T)
		}
		m.data[key] = res
		m.mu.Unlock()
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
