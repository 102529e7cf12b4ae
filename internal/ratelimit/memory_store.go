package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStoreClient is an in-process fake StoreClient used by unit and
// property tests that do not need a live Redis. It reproduces the
// hash-plus-TTL semantics the bucket store depends on without any
// network I/O.
type MemoryStoreClient struct {
	mu        sync.Mutex
	hashes    map[string]map[string]string
	expiresAt map[string]time.Time
	available bool
}

// NewMemoryStoreClient returns a ready, available fake store.
func NewMemoryStoreClient() *MemoryStoreClient {
	return &MemoryStoreClient{
		hashes:    make(map[string]map[string]string),
		expiresAt: make(map[string]time.Time),
		available: true,
	}
}

// SetAvailable flips the health signal the degradation policy observes,
// for simulating a store outage mid-test.
func (m *MemoryStoreClient) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

func (m *MemoryStoreClient) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

func (m *MemoryStoreClient) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.expiresAt[key]; ok && time.Now().After(exp) {
		delete(m.hashes, key)
		delete(m.expiresAt, key)
	}

	fields, ok := m.hashes[key]
	if !ok || len(fields) == 0 {
		return nil, nil
	}

	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return copied, nil
}

func (m *MemoryStoreClient) WritePipeline(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.hashes[key]
	if !ok {
		existing = make(map[string]string, len(fields))
		m.hashes[key] = existing
	}
	for k, v := range fields {
		existing[k] = v
	}
	m.expiresAt[key] = time.Now().Add(ttl)
	return nil
}

func (m *MemoryStoreClient) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = true
	return nil
}
