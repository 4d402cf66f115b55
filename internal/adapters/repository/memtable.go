package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/okian/tapcircle/pkg/metrics"
)

// Treap-backed, in-memory Store implementation.
//
// Each partition keeps its rows in a treap keyed by the row key, so an
// in-order traversal yields rows in ascending key order. Priorities come
// from a hash of the key, which keeps the tree balanced in expectation
// without storing a random seed per node.

// treap node
type node struct {
	key   string
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// keyPriority hashes a row key into a treap priority.
func keyPriority(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

func insertNode(n *node, key string) *node {
	if n == nil {
		return &node{key: key, prio: keyPriority(key), size: 1}
	}
	if key < n.key {
		n.left = insertNode(n.left, key)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insertNode(n.right, key)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, key string) *node {
	if n == nil {
		return nil
	}
	switch {
	case key == n.key:
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, key)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, key)
		}
	case key < n.key:
		n.left = deleteNode(n.left, key)
	default:
		n.right = deleteNode(n.right, key)
	}
	fix(n)
	return n
}

// collectAscending appends up to limit keys in ascending order.
// A limit <= 0 collects everything.
func collectAscending(n *node, limit int, out *[]string) {
	if n == nil {
		return
	}
	if limit > 0 && len(*out) >= limit {
		return
	}
	collectAscending(n.left, limit, out)
	if limit <= 0 || len(*out) < limit {
		*out = append(*out, n.key)
	}
	if limit <= 0 || len(*out) < limit {
		collectAscending(n.right, limit, out)
	}
}

type memPartition struct {
	root *node
	rows map[string][]byte
}

// MemTable is the in-memory Store used for development and tests.
type MemTable struct {
	mu    sync.RWMutex
	parts map[string]*memPartition
}

// NewMemTable constructs an empty in-memory table store.
func NewMemTable() *MemTable {
	return &MemTable{
		parts: make(map[string]*memPartition),
	}
}

func (s *MemTable) partition(name string) *memPartition {
	p, ok := s.parts[name]
	if !ok {
		p = &memPartition{rows: make(map[string][]byte)}
		s.parts[name] = p
	}
	return p
}

// Insert implements Store.Insert with O(log n) expected time.
func (s *MemTable) Insert(_ context.Context, partition, key string, value []byte) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(partition)
	if _, exists := p.rows[key]; exists {
		metrics.RecordStoreConflict()
		return fmt.Errorf("%w: %s/%s", ErrKeyExists, partition, key)
	}
	p.rows[key] = append([]byte(nil), value...)
	p.root = insertNode(p.root, key)
	metrics.UpdateStoreRows(partition, len(p.rows))
	return nil
}

// Upsert implements Store.Upsert.
func (s *MemTable) Upsert(_ context.Context, partition, key string, value []byte) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(partition)
	if _, exists := p.rows[key]; !exists {
		p.root = insertNode(p.root, key)
	}
	p.rows[key] = append([]byte(nil), value...)
	metrics.UpdateStoreRows(partition, len(p.rows))
	return nil
}

// Get implements Store.Get.
func (s *MemTable) Get(_ context.Context, partition, key string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parts[partition]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, partition, key)
	}
	value, ok := p.rows[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, partition, key)
	}
	return append([]byte(nil), value...), nil
}

// ScanAscending implements Store.ScanAscending.
func (s *MemTable) ScanAscending(_ context.Context, partition string, limit int) ([]Row, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parts[partition]
	if !ok {
		return nil, nil
	}

	keys := make([]string, 0, nsize(p.root))
	collectAscending(p.root, limit, &keys)

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Row{
			Partition: partition,
			Key:       k,
			Value:     append([]byte(nil), p.rows[k]...),
		})
	}
	return rows, nil
}

// Delete implements Store.Delete.
func (s *MemTable) Delete(_ context.Context, partition, key string) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.parts[partition]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, partition, key)
	}
	if _, exists := p.rows[key]; !exists {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, partition, key)
	}
	delete(p.rows, key)
	p.root = deleteNode(p.root, key)
	metrics.UpdateStoreRows(partition, len(p.rows))
	return nil
}

// Count implements Store.Count.
func (s *MemTable) Count(_ context.Context, partition string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parts[partition]
	if !ok {
		return 0, nil
	}
	return len(p.rows), nil
}
