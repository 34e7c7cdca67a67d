package cache

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"bankrates/internal/ratetree"
)

func sampleRecord(sourceID string, updated time.Time) RateRecord {
	rate := decimal.RequireFromString("8.60")
	return RateRecord{
		SourceID:      sourceID,
		SourceName:    "Test Bank",
		EffectiveDate: civil.Date{Year: 2025, Month: time.October, Day: 24},
		LastUpdated:   updated,
		Data: ratetree.Tree{
			"mortgages": ratetree.Branch(ratetree.Tree{
				"indexed": ratetree.Leaf(rate),
			}),
		},
		SourceURL: "https://example.is/vaxtatafla.pdf",
	}
}

func TestIsStaleInclusiveBoundary(t *testing.T) {
	ttl := 24 * time.Hour
	updated := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord("testbank", updated)

	cases := []struct {
		name  string
		now   time.Time
		stale bool
	}{
		{"fresh", updated.Add(time.Hour), false},
		{"one second under", updated.Add(ttl - time.Second), false},
		{"exactly ttl", updated.Add(ttl), true},
		{"past ttl", updated.Add(ttl + time.Hour), true},
	}
	for _, tc := range cases {
		if got := IsStale(rec, tc.now, ttl); got != tc.stale {
			t.Errorf("%s: IsStale = %v, expected %v", tc.name, got, tc.stale)
		}
	}
}

func TestMemoryStoreGetReturnsNewest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "testbank"); err != ErrNoRecord {
		t.Fatalf("empty store must return ErrNoRecord, got %v", err)
	}

	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := store.Put(ctx, sampleRecord("testbank", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	rec, err := store.Get(ctx, "testbank")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.LastUpdated.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("expected newest snapshot, got %s", rec.LastUpdated)
	}
}

func TestMemoryStoreHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		store.Put(ctx, sampleRecord("testbank", base.Add(time.Duration(i)*time.Hour)))
	}

	history, err := store.History(ctx, "testbank", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
	if !history[0].LastUpdated.After(history[1].LastUpdated) {
		t.Fatal("history must be newest first")
	}
}

func TestMemoryStoreOrdersByLastUpdated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	// Inserted newest first, so insertion order disagrees with timestamps.
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		store.Put(ctx, sampleRecord("testbank", base.Add(offset)))
	}

	rec, err := store.Get(ctx, "testbank")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.LastUpdated.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("get must return the newest by last_updated, got %s", rec.LastUpdated)
	}

	if err := store.Trim(ctx, "testbank", 1); err != nil {
		t.Fatalf("trim: %v", err)
	}
	history, _ := store.History(ctx, "testbank", 0)
	if len(history) != 1 || !history[0].LastUpdated.Equal(base.Add(2*time.Hour)) {
		t.Fatal("trim must retain the newest by last_updated, not by insertion order")
	}
}

func TestMemoryStoreTrim(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		store.Put(ctx, sampleRecord("testbank", base.Add(time.Duration(i)*time.Hour)))
	}

	if err := store.Trim(ctx, "testbank", 5); err != nil {
		t.Fatalf("trim: %v", err)
	}

	history, _ := store.History(ctx, "testbank", 0)
	if len(history) != 5 {
		t.Fatalf("expected 5 retained snapshots, got %d", len(history))
	}
	if !history[0].LastUpdated.Equal(base.Add(7 * time.Hour)) {
		t.Fatal("trim must keep the newest snapshots")
	}
}

func TestMemoryStoreTrimBelowKeepIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		store.Put(ctx, sampleRecord("testbank", base.Add(time.Duration(i)*time.Hour)))
	}

	if err := store.Trim(ctx, "testbank", 5); err != nil {
		t.Fatalf("trim: %v", err)
	}
	history, _ := store.History(ctx, "testbank", 0)
	if len(history) != 3 {
		t.Fatalf("trim below keep must retain everything, got %d", len(history))
	}
}

func TestMemoryStoreSourcesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	store.Put(ctx, sampleRecord("a", now))
	store.Put(ctx, sampleRecord("b", now.Add(time.Hour)))

	rec, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.SourceID != "a" || !rec.LastUpdated.Equal(now) {
		t.Fatal("records must be keyed per source")
	}
}
