package gate

import (
	"context"
	"testing"
	"time"
)

func TestCachedResolver_CachesProfile(t *testing.T) {
	inner := NewStaticResolver[uint]()
	inner.Set(1, NewStaticProfile(1, "viewer"))
	cached := NewCachedResolver[uint](inner, 5*time.Minute)

	p1, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1.Name() != "viewer" {
		t.Errorf("expected 'viewer', got '%s'", p1.Name())
	}

	inner.Set(1, NewStaticProfile(1, "administrateurs"))
	p2, _ := cached.Resolve(context.Background(), 1)
	if p2.Name() != "viewer" {
		t.Errorf("expected cached 'viewer', got '%s'", p2.Name())
	}
}

func TestCachedResolver_Invalidate(t *testing.T) {
	inner := NewStaticResolver[uint]()
	inner.Set(1, NewStaticProfile(1, "viewer"))
	inner.Set(2, NewStaticProfile(2, "viewer"))
	cached := NewCachedResolver[uint](inner, 5*time.Minute)
	_, _ = cached.Resolve(context.Background(), 1)
	_, _ = cached.Resolve(context.Background(), 2)

	inner.Set(1, NewStaticProfile(1, "administrateurs"))
	inner.Set(2, NewStaticProfile(2, "administrateurs"))

	cached.Invalidate(1)
	p1, _ := cached.Resolve(context.Background(), 1)
	p2, _ := cached.Resolve(context.Background(), 2)
	if p1.Name() != "administrateurs" {
		t.Errorf("expected refreshed profile for user 1, got %s", p1.Name())
	}
	if p2.Name() != "viewer" {
		t.Errorf("expected cached profile for user 2, got %s", p2.Name())
	}

	cached.InvalidateAll()
	p2, _ = cached.Resolve(context.Background(), 2)
	if p2.Name() != "administrateurs" {
		t.Errorf("expected refreshed profile for user 2, got %s", p2.Name())
	}
}

func TestCachedResolver_TTLExpiry(t *testing.T) {
	inner := NewStaticResolver[uint]()
	inner.Set(1, NewStaticProfile(1, "viewer"))
	cached := NewCachedResolver[uint](inner, time.Minute)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }
	_, _ = cached.Resolve(context.Background(), 1)

	inner.Set(1, NewStaticProfile(1, "administrateurs"))
	now = now.Add(2 * time.Minute)

	p, _ := cached.Resolve(context.Background(), 1)
	if p.Name() != "administrateurs" {
		t.Errorf("expected 'administrateurs' after TTL expiry, got '%s'", p.Name())
	}
}
