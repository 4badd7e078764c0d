package cache

import (
	"context"
	"time"
)

// LayeredStore reads through a small in-process layer in front of a shared
// remote store. Writes go to the remote first so peers never see stale data
// masked by L1.
type LayeredStore struct {
	mem    *MemoryStore
	remote Store
}

// memTTL bounds how long a read-filled L1 entry may outlive the remote copy.
const memTTL = time.Minute

// NewLayeredStore creates a layered store over an existing shared store.
func NewLayeredStore(remote Store, opts ...MemoryOption) *LayeredStore {
	return &LayeredStore{
		mem:    NewMemoryStore(opts...),
		remote: remote,
	}
}

func (ls *LayeredStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := ls.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = ls.mem.Set(ctx, key, value, expiration)
	return nil
}

func (ls *LayeredStore) Get(ctx context.Context, key string, dest interface{}) error {
	if err := ls.mem.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := ls.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = ls.mem.Set(ctx, key, dest, memTTL)
	return nil
}

func (ls *LayeredStore) Delete(ctx context.Context, keys ...string) error {
	_ = ls.mem.Delete(ctx, keys...)
	return ls.remote.Delete(ctx, keys...)
}

func (ls *LayeredStore) Exists(ctx context.Context, keys ...string) (bool, error) {
	return ls.remote.Exists(ctx, keys...)
}

// Locks always live in the remote store so they hold across instances.
func (ls *LayeredStore) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return ls.remote.TryLock(ctx, key, ttl)
}

func (ls *LayeredStore) Unlock(ctx context.Context, key string) error {
	return ls.remote.Unlock(ctx, key)
}

// Close closes both layers.
func (ls *LayeredStore) Close() error {
	_ = ls.mem.Close()
	return ls.remote.Close()
}
