package cache

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds the in-process store when no capacity is given.
const DefaultMemoryEntries = 1024

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store keeps opaque byte payloads for a limited time.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store holding at most a fixed number of entries.
// The least recently used entry is evicted once the store is full, and
// expired entries are swept before a new key would force an eviction.
type Memory struct {
	entries  *lru.Cache[string, memoryEntry]
	capacity int
	now      func() time.Time
}

// NewMemory returns an empty in-process store with room for capacity
// entries. A non-positive capacity uses DefaultMemoryEntries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryEntries
	}
	entries, err := lru.New[string, memoryEntry](capacity)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Memory{entries: entries, capacity: capacity, now: time.Now}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if entry.expired(m.now()) {
		m.entries.Remove(key)
		return nil, ErrMiss
	}
	return append([]byte(nil), entry.value...), nil
}

// Set implements Store. A non-positive ttl keeps the value until it is
// evicted or the store is closed.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := m.now()
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	if m.entries.Len() >= m.capacity && !m.entries.Contains(key) {
		m.sweep(now)
	}
	m.entries.Add(key, entry)
	return nil
}

// Len reports how many entries are currently held, expired or not.
func (m *Memory) Len() int {
	return m.entries.Len()
}

// Close drops every entry.
func (m *Memory) Close() error {
	m.entries.Purge()
	return nil
}

func (m *Memory) sweep(now time.Time) {
	for _, key := range m.entries.Keys() {
		if entry, ok := m.entries.Peek(key); ok && entry.expired(now) {
			m.entries.Remove(key)
		}
	}
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
