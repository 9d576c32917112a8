// Package dedup implements an identity-keyed, order-preserving multi-index.
//
// # Overview
//
// An [Index] is shared by every aggregate of one object type. Each aggregate
// owns one [Partition] per object type: an ordered list of entries with an
// identity-keyed bucket for O(1) lookup. The iteration order is kept in the
// list and is independent of bucket order.
//
// The per-type [Policy] supplies the identity key, full equality and the
// merge precedence applied when an object with an existing identity is
// inserted.
//
// # Bulk rebuild
//
// Callers that rebuild a partition from scratch mark every entry dirty,
// re-add the new content with append-force (which clears the mark and moves
// the entry to the back) and finally drop whatever is still dirty. Identities
// that survive keep their entry.
//
// The index is not safe for concurrent use.
package dedup

import (
	"container/list"
	"fmt"
)

// Policy describes one object type stored in an Index.
type Policy[K comparable, T any] interface {
	// Key returns the identity of obj.
	Key(obj T) K
	// Equal reports full field equality.
	Equal(a, b T) bool
	// Merge patches incoming against the stored object according to the
	// type's precedence rules and returns the object to store.
	Merge(stored, incoming T) T
	// Ifindex returns the interface index obj is bound to.
	Ifindex(obj T) int
	// Valid reports whether obj is of the type this index stores.
	Valid(obj T) bool
}

// Index is the shared store for one object type.
type Index[K comparable, T any] struct {
	policy Policy[K, T]
	parts  map[uint64]*Partition[K, T]
	nextID uint64
}

// New creates an empty index using policy.
func New[K comparable, T any](policy Policy[K, T]) *Index[K, T] {
	return &Index[K, T]{
		policy: policy,
		parts:  make(map[uint64]*Partition[K, T]),
	}
}

// NewPartition allocates a partition bound to ifindex.
func (idx *Index[K, T]) NewPartition(ifindex int) *Partition[K, T] {
	if ifindex <= 0 {
		panic(fmt.Sprintf("dedup: invalid ifindex %d", ifindex))
	}
	idx.nextID++
	p := &Partition[K, T]{
		idx:     idx,
		id:      idx.nextID,
		ifindex: ifindex,
		order:   list.New(),
		bucket:  make(map[K]*list.Element),
	}
	idx.parts[p.id] = p
	return p
}

// Len returns the number of entries across all partitions.
func (idx *Index[K, T]) Len() int {
	n := 0
	for _, p := range idx.parts {
		n += p.Len()
	}
	return n
}

// Partitions returns the number of live partitions.
func (idx *Index[K, T]) Partitions() int {
	return len(idx.parts)
}
