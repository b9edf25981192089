package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New(Config{TTL: time.Minute})
	ctx := context.Background()

	if _, ok := s.Get(ctx, "missing"); ok {
		t.Fatal("unexpected hit on empty store")
	}
	s.Set(ctx, "k", "v")
	got, ok := s.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("got %v (hit=%v), want v", got, ok)
	}
	s.Delete(ctx, "k")
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("hit after delete")
	}
}

func TestStoreTTLExpiry(t *testing.T) {
	s := New(Config{TTL: 30 * time.Millisecond})
	ctx := context.Background()

	s.Set(ctx, "k", 42)
	if _, ok := s.Get(ctx, "k"); !ok {
		t.Fatal("miss before expiry")
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("hit after expiry")
	}
}

func TestGetOrComputeMemoizes(t *testing.T) {
	s := New(Config{TTL: time.Minute})
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 3; i++ {
		v, err := GetOrCompute(ctx, s, "k", compute)
		if err != nil {
			t.Fatalf("get or compute: %v", err)
		}
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
}

func TestGetOrComputeNilStoreFailsOpen(t *testing.T) {
	ctx := context.Background()
	var s *Store

	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "fresh", nil
	}
	for i := 0; i < 2; i++ {
		v, err := GetOrCompute(ctx, s, "k", compute)
		if err != nil {
			t.Fatalf("get or compute: %v", err)
		}
		if v != "fresh" {
			t.Fatalf("got %q, want fresh", v)
		}
	}
	// Disabled cache means every read recomputes.
	if calls != 2 {
		t.Fatalf("compute ran %d times, want 2", calls)
	}

	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("nil store reported a hit")
	}
	s.Set(ctx, "k", "v") // must not panic
	s.Delete(ctx, "k")
}

func TestGetOrComputePropagatesErrors(t *testing.T) {
	s := New(Config{TTL: time.Minute})
	boom := errors.New("boom")

	_, err := GetOrCompute(context.Background(), s, "k", func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
}
