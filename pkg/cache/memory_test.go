package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	type doc struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	if err := ms.Set(ctx, "k1", doc{Name: "a", N: 3}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got doc
	if err := ms.Get(ctx, "k1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "a" || got.N != 3 {
		t.Fatalf("got %+v", got)
	}

	// strings round-trip without JSON quoting
	if err := ms.Set(ctx, "k2", "raw", time.Minute); err != nil {
		t.Fatalf("set string: %v", err)
	}
	var s string
	if err := ms.Get(ctx, "k2", &s); err != nil {
		t.Fatalf("get string: %v", err)
	}
	if s != "raw" {
		t.Fatalf("string = %q", s)
	}
}

func TestMemoryStoreMissAndExpiry(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	var s string
	if err := ms.Get(ctx, "absent", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := ms.Set(ctx, "short", "v", time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := ms.Get(ctx, "short", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired key should miss, got %v", err)
	}
}

func TestMemoryStoreLock(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	ok, err := ms.TryLock(ctx, "lock:a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock: ok=%v err=%v", ok, err)
	}
	ok, err = ms.TryLock(ctx, "lock:a", time.Minute)
	if err != nil || ok {
		t.Fatalf("held lock reacquired: ok=%v err=%v", ok, err)
	}
	if err := ms.Unlock(ctx, "lock:a"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	ok, err = ms.TryLock(ctx, "lock:a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("TryLock after unlock: ok=%v err=%v", ok, err)
	}

	// an expired lock is free
	if ok, _ := ms.TryLock(ctx, "lock:b", time.Millisecond); !ok {
		t.Fatalf("lock:b not acquired")
	}
	time.Sleep(5 * time.Millisecond)
	if ok, _ := ms.TryLock(ctx, "lock:b", time.Minute); !ok {
		t.Fatalf("expired lock still held")
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	ms := NewMemoryStore(WithMemoryMaxSize(2))
	defer ms.Close()
	ctx := context.Background()

	_ = ms.Set(ctx, "a", "1", time.Minute)
	time.Sleep(time.Millisecond)
	_ = ms.Set(ctx, "b", "2", time.Minute)
	time.Sleep(time.Millisecond)
	_ = ms.Set(ctx, "c", "3", time.Minute) // evicts a, the least recently used

	if ok, _ := ms.Exists(ctx, "a"); ok {
		t.Fatalf("oldest entry not evicted")
	}
	if ok, _ := ms.Exists(ctx, "b"); !ok {
		t.Fatalf("entry b evicted unexpectedly")
	}
	if ok, _ := ms.Exists(ctx, "c"); !ok {
		t.Fatalf("entry c missing")
	}
}
