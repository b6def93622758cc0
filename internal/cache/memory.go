package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process store bounded by entry count. When full, expired
// entries are purged first and then the oldest entry by CreatedAt is evicted.
type Memory struct {
	mu         sync.Mutex
	items      *gocache.Cache
	maxEntries int
}

// NewMemory constructs a Memory store. Entries expire after ttl and expired
// ones are swept every ttl. Non-positive arguments select the defaults.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		items:      gocache.New(ttl, ttl),
		maxEntries: maxEntries,
	}
}

// Get returns the entry for key, or nil on a miss.
func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, nil
	}
	entry := v.(Entry)
	return &entry, nil
}

// Set stores entry under key, evicting to stay within the size bound.
func (m *Memory) Set(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items.Get(key); !exists && m.items.ItemCount() >= m.maxEntries {
		m.items.DeleteExpired()
		for m.items.ItemCount() >= m.maxEntries {
			if !m.evictOldest() {
				break
			}
		}
	}

	m.items.Set(key, entry, gocache.DefaultExpiration)
	return nil
}

// Delete removes the entry for key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// Len returns the number of stored entries, including any not yet swept.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) evictOldest() bool {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, item := range m.items.Items() {
		entry, ok := item.Object.(Entry)
		if !ok {
			continue
		}
		if !found || entry.CreatedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, entry.CreatedAt, true
		}
	}
	if found {
		m.items.Delete(oldestKey)
	}
	return found
}
