package dedup

import (
	"container/list"
	"fmt"
	"iter"
	"slices"
)

type entry[T any] struct {
	obj   T
	dirty bool
}

// Partition is the ordered set of objects of one type owned by one
// aggregate.
type Partition[K comparable, T any] struct {
	idx     *Index[K, T]
	id      uint64
	ifindex int
	order   *list.List
	bucket  map[K]*list.Element
}

// Ifindex returns the interface index objects of this partition carry.
func (p *Partition[K, T]) Ifindex() int {
	return p.ifindex
}

// Len returns the number of objects.
func (p *Partition[K, T]) Len() int {
	return p.order.Len()
}

func (p *Partition[K, T]) check(obj T) {
	if p.idx == nil {
		panic("dedup: use of released partition")
	}
	if !p.idx.policy.Valid(obj) {
		panic(fmt.Sprintf("dedup: object %v has the wrong type for this index", obj))
	}
	if got := p.idx.policy.Ifindex(obj); got != p.ifindex {
		panic(fmt.Sprintf("dedup: object ifindex %d does not match partition ifindex %d", got, p.ifindex))
	}
}

// Add inserts obj or merges it into the entry with the same identity.
//
// When the stored object is field-equal to obj only the dirty mark is
// cleared. Otherwise, with merge set, the policy's precedence rules patch obj
// and a result equal to the stored object is again a no-op; without merge
// the stored object is replaced. appendForce moves an existing entry to the
// back of the order. New entries are always appended.
//
// Add returns the stored object and whether the partition changed.
func (p *Partition[K, T]) Add(obj T, merge, appendForce bool) (T, bool) {
	p.check(obj)
	pol := p.idx.policy
	key := pol.Key(obj)

	el, ok := p.bucket[key]
	if !ok {
		p.bucket[key] = p.order.PushBack(&entry[T]{obj: obj})
		return obj, true
	}

	e := el.Value.(*entry[T])
	if !pol.Equal(e.obj, obj) && merge {
		obj = pol.Merge(e.obj, obj)
	}
	if pol.Equal(e.obj, obj) {
		e.dirty = false
		moved := appendForce && p.moveToBack(el)
		return e.obj, moved
	}

	e.obj = obj
	e.dirty = false
	if appendForce {
		p.moveToBack(el)
	}
	return obj, true
}

func (p *Partition[K, T]) moveToBack(el *list.Element) bool {
	if p.order.Back() == el {
		return false
	}
	p.order.MoveToBack(el)
	return true
}

// Lookup returns the object stored under key.
func (p *Partition[K, T]) Lookup(key K) (T, bool) {
	if el, ok := p.bucket[key]; ok {
		return el.Value.(*entry[T]).obj, true
	}
	var zero T
	return zero, false
}

// Contains reports whether an object with the identity of obj is stored.
func (p *Partition[K, T]) Contains(obj T) bool {
	_, ok := p.bucket[p.idx.policy.Key(obj)]
	return ok
}

// Remove deletes the object stored under key.
func (p *Partition[K, T]) Remove(key K) bool {
	el, ok := p.bucket[key]
	if !ok {
		return false
	}
	p.order.Remove(el)
	delete(p.bucket, key)
	return true
}

// RemoveFunc deletes every object for which drop returns true and reports
// how many were removed.
func (p *Partition[K, T]) RemoveFunc(drop func(T) bool) int {
	n := 0
	for el := p.order.Front(); el != nil; {
		next := el.Next()
		obj := el.Value.(*entry[T]).obj
		if drop(obj) {
			p.order.Remove(el)
			delete(p.bucket, p.idx.policy.Key(obj))
			n++
		}
		el = next
	}
	return n
}

// Clear removes every object and returns how many were removed.
func (p *Partition[K, T]) Clear() int {
	n := p.order.Len()
	p.order.Init()
	clear(p.bucket)
	return n
}

// All yields objects in order. The partition must not be modified while
// iterating.
func (p *Partition[K, T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for el := p.order.Front(); el != nil; el = el.Next() {
			if !yield(el.Value.(*entry[T]).obj) {
				return
			}
		}
	}
}

// Objects returns a snapshot of the objects in order.
func (p *Partition[K, T]) Objects() []T {
	out := make([]T, 0, p.order.Len())
	for obj := range p.All() {
		out = append(out, obj)
	}
	return out
}

// First returns the first object in order.
func (p *Partition[K, T]) First() (T, bool) {
	if el := p.order.Front(); el != nil {
		return el.Value.(*entry[T]).obj, true
	}
	var zero T
	return zero, false
}

// MarkDirty sets the dirty mark on every entry.
func (p *Partition[K, T]) MarkDirty() {
	for el := p.order.Front(); el != nil; el = el.Next() {
		el.Value.(*entry[T]).dirty = true
	}
}

// DropDirty removes every entry still marked dirty and returns how many were
// removed.
func (p *Partition[K, T]) DropDirty() int {
	n := 0
	for el := p.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry[T])
		if e.dirty {
			p.order.Remove(el)
			delete(p.bucket, p.idx.policy.Key(e.obj))
			n++
		}
		el = next
	}
	return n
}

// Reorder moves the entry stored under key to the back (toBack) or front.
// It reports whether the order changed.
func (p *Partition[K, T]) Reorder(key K, toBack bool) bool {
	el, ok := p.bucket[key]
	if !ok {
		return false
	}
	if toBack {
		return p.moveToBack(el)
	}
	if p.order.Front() == el {
		return false
	}
	p.order.MoveToFront(el)
	return true
}

// Sort stably reorders the partition by cmp.
func (p *Partition[K, T]) Sort(cmp func(a, b T) int) {
	els := make([]*list.Element, 0, p.order.Len())
	for el := p.order.Front(); el != nil; el = el.Next() {
		els = append(els, el)
	}
	slices.SortStableFunc(els, func(a, b *list.Element) int {
		return cmp(a.Value.(*entry[T]).obj, b.Value.(*entry[T]).obj)
	})
	for _, el := range els {
		p.order.MoveToBack(el)
	}
}

// Rebind moves the partition to another interface index, restamping every
// stored object with restamp.
func (p *Partition[K, T]) Rebind(ifindex int, restamp func(T, int) T) {
	if ifindex <= 0 {
		panic(fmt.Sprintf("dedup: invalid ifindex %d", ifindex))
	}
	p.ifindex = ifindex
	for el := p.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[T])
		e.obj = restamp(e.obj, ifindex)
	}
}

// Release purges the partition from the index. The partition must not be
// used afterwards.
func (p *Partition[K, T]) Release() {
	if p.idx == nil {
		return
	}
	p.Clear()
	delete(p.idx.parts, p.id)
	p.idx = nil
}
