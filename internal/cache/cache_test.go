package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMemoryRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemory(0)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := store.Get(ctx, "formula:1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss for unknown key, got %v", err)
	}

	if err := store.Set(ctx, "formula:1", []byte(`{"id":"1"}`), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, err := store.Get(ctx, "formula:1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != `{"id":"1"}` {
		t.Fatalf("Get = %q", got)
	}

	got[0] = 'x'
	again, _ := store.Get(ctx, "formula:1")
	if string(again) != `{"id":"1"}` {
		t.Fatal("expected stored value to be isolated from caller mutation")
	}

	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "formula:1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestMemoryCloseClearsEntries(t *testing.T) {
	t.Parallel()

	store := NewMemory(0)
	ctx := context.Background()
	_ = store.Set(ctx, "k", []byte("v"), 0)
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after close, got %v", err)
	}
}

func TestMemoryStaysBoundedAcrossDistinctKeys(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemory(100)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		key := fmt.Sprintf("herbs?filter[title][value]=%d", i)
		if err := store.Set(ctx, key, []byte("[]"), time.Minute); err != nil {
			t.Fatalf("Set(%q) returned error: %v", key, err)
		}
		if store.Len() > 100 {
			t.Fatalf("store grew to %d entries after %d writes", store.Len(), i+1)
		}
	}

	now = now.Add(time.Hour)
	if err := store.Set(ctx, "herbs?filter[title][value]=late", []byte("[]"), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := store.Len(); got != 1 {
		t.Fatalf("expected expired entries to be swept, store holds %d", got)
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	store := NewMemory(2)
	ctx := context.Background()
	_ = store.Set(ctx, "a", []byte("1"), 0)
	_ = store.Set(ctx, "b", []byte("2"), 0)
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Fatalf("Get(a) returned error: %v", err)
	}
	_ = store.Set(ctx, "c", []byte("3"), 0)

	if _, err := store.Get(ctx, "b"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected least recently used key to be evicted, got %v", err)
	}
	for _, key := range []string{"a", "c"} {
		if _, err := store.Get(ctx, key); err != nil {
			t.Fatalf("Get(%s) returned error: %v", key, err)
		}
	}
}

func TestNewRedisRequiresAddress(t *testing.T) {
	t.Parallel()

	if _, err := NewRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatal("expected error when redis address is empty")
	}
}
