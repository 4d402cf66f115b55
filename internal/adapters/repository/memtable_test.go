package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
)

func TestMemTable_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()

	// Empty store
	count, err := store.Count(ctx, "scores")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	// Insert and read back
	if err := store.Insert(ctx, "scores", "k1", []byte("v1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value, err := store.Get(ctx, "scores", "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(value) != "v1" {
		t.Errorf("expected v1, got %s", value)
	}

	count, err = store.Count(ctx, "scores")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	// Unknown key
	if _, err := store.Get(ctx, "scores", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemTable_InsertConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()

	if err := store.Insert(ctx, "scores", "k1", []byte("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := store.Insert(ctx, "scores", "k1", []byte("second"))
	if !errors.Is(err, ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}

	// The original value must survive the failed insert.
	value, err := store.Get(ctx, "scores", "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(value) != "first" {
		t.Errorf("expected first, got %s", value)
	}
}

func TestMemTable_Upsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()

	if err := store.Upsert(ctx, "stats", "ABC", []byte("one")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Upsert(ctx, "stats", "ABC", []byte("two")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := store.Get(ctx, "stats", "ABC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(value) != "two" {
		t.Errorf("expected two, got %s", value)
	}

	count, err := store.Count(ctx, "stats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestMemTable_ScanAscending(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()

	keys := []string{"delta", "alpha", "echo", "charlie", "bravo"}
	for _, k := range keys {
		if err := store.Insert(ctx, "scores", k, []byte(k)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rows, err := store.ScanAscending(ctx, "scores", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != len(keys) {
		t.Fatalf("expected %d rows, got %d", len(keys), len(rows))
	}

	want := append([]string(nil), keys...)
	sort.Strings(want)
	for i, row := range rows {
		if row.Key != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], row.Key)
		}
		if string(row.Value) != want[i] {
			t.Errorf("position %d: value mismatch: %s", i, row.Value)
		}
	}

	// Limited scan returns the prefix of the full ordering.
	rows, err = store.ScanAscending(ctx, "scores", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Key != "alpha" || rows[1].Key != "bravo" {
		t.Errorf("unexpected limited scan: %s, %s", rows[0].Key, rows[1].Key)
	}

	// Unknown partition scans empty without error.
	rows, err = store.ScanAscending(ctx, "nope", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(rows))
	}
}

func TestMemTable_PartitionIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()

	if err := store.Insert(ctx, "Default", "k", []byte("default")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same key in a different partition must not conflict.
	if err := store.Insert(ctx, "Hard", "k", []byte("hard")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := store.Get(ctx, "Hard", "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(value) != "hard" {
		t.Errorf("expected hard, got %s", value)
	}
}

func TestMemTable_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()

	if err := store.Insert(ctx, "scores", "k1", []byte("v1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(ctx, "scores", "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "scores", "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "scores", "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
	if err := store.Delete(ctx, "nope", "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on unknown partition, got %v", err)
	}
}

func TestMemTable_ValueIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()

	original := []byte("payload")
	if err := store.Insert(ctx, "scores", "k1", original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	original[0] = 'X'

	value, err := store.Get(ctx, "scores", "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(value) != "payload" {
		t.Errorf("stored value aliases caller slice: %s", value)
	}

	// Mutating the returned slice must not touch the stored copy either.
	value[0] = 'Y'
	again, err := store.Get(ctx, "scores", "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(again) != "payload" {
		t.Errorf("returned value aliases stored copy: %s", again)
	}
}

func TestMemTable_TreapOrderingUnderChurn(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()
	rng := rand.New(rand.NewSource(42))

	live := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		key := fmt.Sprintf("key-%06d", rng.Intn(5000))
		switch {
		case rng.Intn(3) == 0 && len(live) > 0:
			if live[key] {
				if err := store.Delete(ctx, "churn", key); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				delete(live, key)
			}
		default:
			if !live[key] {
				if err := store.Insert(ctx, "churn", key, []byte(key)); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				live[key] = true
			}
		}
	}

	rows, err := store.ScanAscending(ctx, "churn", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != len(live) {
		t.Fatalf("expected %d rows, got %d", len(live), len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Key >= rows[i].Key {
			t.Fatalf("scan out of order at %d: %s >= %s", i, rows[i-1].Key, rows[i].Key)
		}
	}
}

func TestMemTable_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemTable()

	const goroutines = 8
	const perGoroutine = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				key := fmt.Sprintf("g%d-i%04d", g, i)
				if err := store.Insert(ctx, "concurrent", key, []byte(key)); err != nil {
					t.Errorf("insert %s: %v", key, err)
					return
				}
				if _, err := store.ScanAscending(ctx, "concurrent", 10); err != nil {
					t.Errorf("scan: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	count, err := store.Count(ctx, "concurrent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != goroutines*perGoroutine {
		t.Errorf("expected %d rows, got %d", goroutines*perGoroutine, count)
	}
}
