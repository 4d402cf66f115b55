package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/tapcircle/pkg/metrics"
)

// Redis-backed Store implementation.
//
// Each partition is stored as a hash (key -> value) plus a zset of row
// keys, all with score 0, so ZRANGEBYLEX returns keys in ascending
// lexicographic order. The hash is authoritative; the zset is the scan
// index. Both are kept in step inside Lua scripts so the store keeps the
// single-row atomicity the callers rely on.

var (
	insertScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
  return 0
end
redis.call('ZADD', KEYS[2], 0, ARGV[1])
return 1`)

	upsertScript = redis.NewScript(`
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('ZADD', KEYS[2], 0, ARGV[1])
return 1`)

	deleteScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
return 1`)
)

// RedisTable is the Store used when the service runs against Redis.
type RedisTable struct {
	client    *redis.Client
	keyPrefix string
}

// RedisOption applies a configuration option to the RedisTable.
type RedisOption func(*RedisTable)

// WithKeyPrefix sets the namespace prefix for all Redis keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(t *RedisTable) {
		if prefix != "" {
			t.keyPrefix = prefix
		}
	}
}

// NewRedisTable constructs a Redis-backed table store on an existing client.
func NewRedisTable(client *redis.Client, opts ...RedisOption) *RedisTable {
	t := &RedisTable{
		client:    client,
		keyPrefix: "tapcircle",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Close releases the underlying client connection.
func (t *RedisTable) Close() error {
	return t.client.Close()
}

func (t *RedisTable) rowsKey(partition string) string {
	return t.keyPrefix + ":rows:" + partition
}

func (t *RedisTable) indexKey(partition string) string {
	return t.keyPrefix + ":keys:" + partition
}

// wrapUnavailable maps transport-level failures onto ErrUnavailable so
// callers can branch with errors.Is.
func wrapUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// Insert implements Store.Insert via an atomic HSETNX+ZADD script.
func (t *RedisTable) Insert(ctx context.Context, partition, key string, value []byte) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	res, err := insertScript.Run(ctx, t.client,
		[]string{t.rowsKey(partition), t.indexKey(partition)}, key, value).Int()
	if err != nil {
		return wrapUnavailable("insert", err)
	}
	if res == 0 {
		metrics.RecordStoreConflict()
		return fmt.Errorf("%w: %s/%s", ErrKeyExists, partition, key)
	}
	return nil
}

// Upsert implements Store.Upsert.
func (t *RedisTable) Upsert(ctx context.Context, partition, key string, value []byte) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if _, err := upsertScript.Run(ctx, t.client,
		[]string{t.rowsKey(partition), t.indexKey(partition)}, key, value).Result(); err != nil {
		return wrapUnavailable("upsert", err)
	}
	return nil
}

// Get implements Store.Get.
func (t *RedisTable) Get(ctx context.Context, partition, key string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	value, err := t.client.HGet(ctx, t.rowsKey(partition), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, partition, key)
	}
	if err != nil {
		return nil, wrapUnavailable("get", err)
	}
	return value, nil
}

// ScanAscending implements Store.ScanAscending using ZRANGEBYLEX over the
// key index, then a bulk HMGET for the values.
func (t *RedisTable) ScanAscending(ctx context.Context, partition string, limit int) ([]Row, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	count := int64(-1)
	if limit > 0 {
		count = int64(limit)
	}
	keys, err := t.client.ZRangeByLex(ctx, t.indexKey(partition), &redis.ZRangeBy{
		Min:   "-",
		Max:   "+",
		Count: count,
	}).Result()
	if err != nil {
		return nil, wrapUnavailable("scan", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := t.client.HMGet(ctx, t.rowsKey(partition), keys...).Result()
	if err != nil {
		return nil, wrapUnavailable("scan", err)
	}

	rows := make([]Row, 0, len(keys))
	for i, k := range keys {
		raw, ok := values[i].(string)
		if !ok {
			// Row deleted between the index read and the value read.
			continue
		}
		rows = append(rows, Row{Partition: partition, Key: k, Value: []byte(raw)})
	}
	return rows, nil
}

// Delete implements Store.Delete.
func (t *RedisTable) Delete(ctx context.Context, partition, key string) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	res, err := deleteScript.Run(ctx, t.client,
		[]string{t.rowsKey(partition), t.indexKey(partition)}, key).Int()
	if err != nil {
		return wrapUnavailable("delete", err)
	}
	if res == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, partition, key)
	}
	return nil
}

// Count implements Store.Count.
func (t *RedisTable) Count(ctx context.Context, partition string) (int, error) {
	n, err := t.client.ZCard(ctx, t.indexKey(partition)).Result()
	if err != nil {
		return 0, wrapUnavailable("count", err)
	}
	return int(n), nil
}
