package repository

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisTable(t *testing.T) *RedisTable {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisTable(client, WithKeyPrefix("test"))
}

func TestRedisTable_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisTable(t)

	count, err := store.Count(ctx, "scores")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

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

	if _, err := store.Get(ctx, "scores", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisTable_InsertConflict(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisTable(t)

	if err := store.Insert(ctx, "scores", "k1", []byte("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := store.Insert(ctx, "scores", "k1", []byte("second"))
	if !errors.Is(err, ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}

	value, err := store.Get(ctx, "scores", "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(value) != "first" {
		t.Errorf("expected first, got %s", value)
	}
}

func TestRedisTable_Upsert(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisTable(t)

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

func TestRedisTable_ScanAscending(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisTable(t)

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

	rows, err = store.ScanAscending(ctx, "nope", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(rows))
	}
}

func TestRedisTable_PartitionIsolation(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisTable(t)

	if err := store.Insert(ctx, "Default", "k", []byte("default")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
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

func TestRedisTable_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisTable(t)

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

	// The scan index must not resurrect deleted rows.
	if err := store.Insert(ctx, "scores", "k2", []byte("v2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := store.ScanAscending(ctx, "scores", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != "k2" {
		t.Errorf("unexpected rows after delete: %v", rows)
	}
}

func TestRedisTable_Unavailable(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisTable(client)

	mr.Close()

	if err := store.Insert(ctx, "scores", "k1", []byte("v1")); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on insert, got %v", err)
	}
	if _, err := store.Get(ctx, "scores", "k1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on get, got %v", err)
	}
	if _, err := store.ScanAscending(ctx, "scores", 0); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on scan, got %v", err)
	}
	if _, err := store.Count(ctx, "scores"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on count, got %v", err)
	}
}
