package idempotency

import (
	"context"
	"testing"
	"time"
)

func TestReserveFirstCallerWins(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	reserved, err := store.Reserve(context.Background(), "order.submitted:evt_1", now, time.Hour)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !reserved {
		t.Fatal("first reservation should win")
	}

	reserved, err = store.Reserve(context.Background(), "order.submitted:evt_1", now.Add(time.Minute), time.Hour)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if reserved {
		t.Fatal("duplicate key within the ttl must be rejected")
	}

	// A different key is independent.
	reserved, err = store.Reserve(context.Background(), "order.submitted:evt_2", now, time.Hour)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !reserved {
		t.Fatal("distinct key should reserve")
	}
}

func TestReserveAfterExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if _, err := store.Reserve(context.Background(), "payment.completed:evt_9", now, time.Hour); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	reserved, err := store.Reserve(context.Background(), "payment.completed:evt_9", now.Add(time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !reserved {
		t.Fatal("expired reservation should be reclaimable")
	}
}

func TestReleaseReopensKey(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if _, err := store.Reserve(context.Background(), "order.submitted:evt_7", now, time.Hour); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := store.Release(context.Background(), "order.submitted:evt_7"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	reserved, err := store.Reserve(context.Background(), "order.submitted:evt_7", now.Add(time.Minute), time.Hour)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !reserved {
		t.Fatal("released key should be claimable again")
	}

	// Releasing an unknown key is harmless.
	if err := store.Release(context.Background(), "missing"); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestReserveDefaultTTL(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if _, err := store.Reserve(context.Background(), "k", now, 0); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	reserved, err := store.Reserve(context.Background(), "k", now.Add(DefaultTTL-time.Minute), time.Hour)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if reserved {
		t.Fatal("zero ttl should fall back to the default window")
	}
}
