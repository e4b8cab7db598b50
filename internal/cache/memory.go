package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"booktable/internal/metrics"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// Memory is a process-local cache. Values are stored encoded so callers
// never share memory with it.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, out any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expires.Equal(e.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		ok = false
	}
	metrics.IncCacheLookup(BackendMemory, ok)
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(e.data, out); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Put(_ context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
