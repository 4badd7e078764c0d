package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
	accessed time.Time
}

func (m *memoryItem) expired() bool {
	return time.Now().After(m.expireAt)
}

// MemoryStore implements Store with an in-process map, TTL expiry and LRU
// eviction. Entries hold JSON bytes so Get semantics match the Redis store.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[string]*memoryItem
	maxSize int
	sweeper *time.Ticker
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ms := &MemoryStore{
		items:   make(map[string]*memoryItem),
		maxSize: cfg.MaxSize,
		sweeper: time.NewTicker(cfg.CleanupInterval),
	}
	go ms.sweep()
	return ms
}

func (ms *MemoryStore) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encodeCacheValue(value)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if len(ms.items) >= ms.maxSize {
		ms.evictLRU()
	}

	now := time.Now()
	expireAt := now.Add(expiration)
	if expiration <= 0 {
		expireAt = now.Add(7 * 24 * time.Hour)
	}
	ms.items[key] = &memoryItem{data: data, expireAt: expireAt, accessed: now}
	return nil
}

func (ms *MemoryStore) Get(_ context.Context, key string, dest interface{}) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.items[key]
	if !ok || item.expired() {
		if ok {
			delete(ms.items, key)
		}
		return ErrCacheMiss
	}
	item.accessed = time.Now()
	return decodeCacheValue(item.data, dest)
}

func (ms *MemoryStore) Delete(_ context.Context, keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, key := range keys {
		delete(ms.items, key)
	}
	return nil
}

func (ms *MemoryStore) Exists(_ context.Context, keys ...string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, key := range keys {
		if item, ok := ms.items[key]; ok && !item.expired() {
			return true, nil
		}
	}
	return false, nil
}

func (ms *MemoryStore) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if item, ok := ms.items[key]; ok && !item.expired() {
		return false, nil
	}
	now := time.Now()
	ms.items[key] = &memoryItem{data: []byte(`"locked"`), expireAt: now.Add(ttl), accessed: now}
	return true, nil
}

func (ms *MemoryStore) Unlock(ctx context.Context, key string) error {
	return ms.Delete(ctx, key)
}

// Close stops the sweep ticker.
func (ms *MemoryStore) Close() error {
	ms.sweeper.Stop()
	return nil
}

func (ms *MemoryStore) evictLRU() {
	var oldestKey string
	oldest := time.Now()
	for key, item := range ms.items {
		if item.accessed.Before(oldest) {
			oldest = item.accessed
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(ms.items, oldestKey)
	}
}

func (ms *MemoryStore) sweep() {
	for range ms.sweeper.C {
		ms.mu.Lock()
		for key, item := range ms.items {
			if item.expired() {
				delete(ms.items, key)
			}
		}
		ms.mu.Unlock()
	}
}

func encodeCacheValue(value interface{}) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(value)
}

func decodeCacheValue(data []byte, dest interface{}) error {
	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}
