// Package repository defines the partitioned table-store contract and its
// implementations. Rows live inside a partition and are addressed by an
// opaque string key; scans return rows in ascending key order, which is
// the only ordering primitive the rest of the system relies on.
package repository

import "context"

// Row is one stored record. Value is an opaque serialized entity owned by
// the caller.
type Row struct {
	Partition string
	Key       string
	Value     []byte
}

// Store provides partition/row addressed access with ordered scans.
type Store interface {
	// Insert writes a new row. Returns ErrKeyExists when the key is
	// already present in the partition; the existing row is never
	// overwritten.
	Insert(ctx context.Context, partition, key string, value []byte) error

	// Upsert writes a row, replacing any existing value for the key.
	Upsert(ctx context.Context, partition, key string, value []byte) error

	// Get returns the value stored under the key.
	// Returns ErrNotFound for unknown keys.
	Get(ctx context.Context, partition, key string) ([]byte, error)

	// ScanAscending returns up to limit rows in ascending key order.
	// A limit <= 0 returns the whole partition. The result is a finite
	// snapshot, not a live cursor.
	ScanAscending(ctx context.Context, partition string, limit int) ([]Row, error)

	// Delete removes a row. Returns ErrNotFound for unknown keys.
	Delete(ctx context.Context, partition, key string) error

	// Count returns the number of rows in the partition.
	Count(ctx context.Context, partition string) (int, error)
}
