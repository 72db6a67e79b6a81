package memory

import (
	"context"
	"sync"
	"time"
)

type inMemoryEntry struct {
	record    []byte
	expiresAt time.Time
}

// InMemoryBackend is the in-process backend used for local runs and as the
// test fake. Entries expire lazily on read.
type InMemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{entries: make(map[string]inMemoryEntry)}
}

func (b *InMemoryBackend) Save(_ context.Context, key string, record []byte, ttl time.Duration) error {
	cp := make([]byte, len(record))
	copy(cp, record)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = inMemoryEntry{record: cp, expiresAt: expiresAt}
	return nil
}

func (b *InMemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(b.entries, key)
		return nil, ErrNotFound
	}
	cp := make([]byte, len(entry.record))
	copy(cp, entry.record)
	return cp, nil
}

func (b *InMemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
	return nil
}

func (b *InMemoryBackend) Ping(context.Context) error { return nil }

func (b *InMemoryBackend) Close() error { return nil }

// Len reports the number of stored entries, expired or not.
func (b *InMemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
