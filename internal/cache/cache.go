// Package cache stores answers of remote lookups so reruns of the pipeline do not
// query UniProt and KEGG again.
package cache

import (
	"context"
	"sync"

	"github.com/paces/backend/internal/metrics"
)

// Store is a string cache. Misses are reported with ok=false, not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	if ok {
		metrics.CacheHits.WithLabelValues("memory").Inc()
	} else {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
	}
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Fetch returns the cached value for key or computes, stores and returns it. A
// failed Set is not fatal; the value is still returned.
func Fetch(ctx context.Context, s Store, key string, compute func() (string, error)) (string, error) {
	if s != nil {
		if v, ok, err := s.Get(ctx, key); err == nil && ok {
			return v, nil
		}
	}
	v, err := compute()
	if err != nil {
		return "", err
	}
	if s != nil {
		_ = s.Set(ctx, key, v)
	}
	return v, nil
}
