package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// item is a small object used to exercise the index without netobj.
type item struct {
	ifindex int
	name    string
	rank    int
	value   string
}

type itemPolicy struct{}

func (itemPolicy) Key(it item) string { return it.name }
func (itemPolicy) Equal(a, b item) bool { return a == b }
func (itemPolicy) Ifindex(it item) int { return it.ifindex }
func (itemPolicy) Valid(it item) bool { return !strings.HasPrefix(it.name, "bad") }
func (itemPolicy) Merge(old, new item) item {
	if new.rank < old.rank {
		new.rank = old.rank
	}
	return new
}

func names(p *Partition[string, item]) []string {
	var out []string
	for it := range p.All() {
		out = append(out, it.name)
	}
	return out
}

func TestPartition_AddAndLookup(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)

	_, changed := p.Add(item{ifindex: 2, name: "a", value: "1"}, true, false)
	assert.True(t, changed)
	_, changed = p.Add(item{ifindex: 2, name: "b"}, true, false)
	assert.True(t, changed)

	got, ok := p.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "1", got.value)

	_, ok = p.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, names(p))
	assert.Equal(t, 2, idx.Len())
}

func TestPartition_AddEqualIsNoop(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)

	p.Add(item{ifindex: 2, name: "a"}, true, false)
	p.Add(item{ifindex: 2, name: "b"}, true, false)

	_, changed := p.Add(item{ifindex: 2, name: "a"}, true, false)
	assert.False(t, changed)
	assert.Equal(t, []string{"a", "b"}, names(p))

	// append-force moves the existing entry without losing the slot
	_, changed = p.Add(item{ifindex: 2, name: "a"}, false, true)
	assert.True(t, changed)
	assert.Equal(t, []string{"b", "a"}, names(p))
}

func TestPartition_MergeKeepsRank(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)

	p.Add(item{ifindex: 2, name: "a", rank: 10}, true, false)

	stored, changed := p.Add(item{ifindex: 2, name: "a", rank: 3}, true, false)
	assert.False(t, changed, "patched object equals stored one")
	assert.Equal(t, 10, stored.rank)

	stored, changed = p.Add(item{ifindex: 2, name: "a", rank: 3, value: "x"}, true, false)
	assert.True(t, changed)
	assert.Equal(t, 10, stored.rank)
	assert.Equal(t, "x", stored.value)
}

func TestPartition_ReplaceWithoutMerge(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)

	p.Add(item{ifindex: 2, name: "a", rank: 10}, true, false)
	stored, changed := p.Add(item{ifindex: 2, name: "a", rank: 3}, false, false)
	assert.True(t, changed)
	assert.Equal(t, 3, stored.rank)
}

func TestPartition_DirtyRebuild(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)
	for _, n := range []string{"a", "b", "c"} {
		p.Add(item{ifindex: 2, name: n}, false, false)
	}

	p.MarkDirty()
	p.Add(item{ifindex: 2, name: "c"}, false, true)
	p.Add(item{ifindex: 2, name: "d"}, false, true)
	p.Add(item{ifindex: 2, name: "a"}, false, true)

	assert.Equal(t, 1, p.DropDirty())
	assert.Equal(t, []string{"c", "d", "a"}, names(p))
}

func TestPartition_RemoveAndClear(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)
	for _, n := range []string{"a", "b", "c"} {
		p.Add(item{ifindex: 2, name: n}, false, false)
	}

	assert.True(t, p.Remove("b"))
	assert.False(t, p.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, names(p))

	assert.Equal(t, 1, p.RemoveFunc(func(it item) bool { return it.name == "a" }))
	assert.Equal(t, 1, p.Clear())
	assert.Equal(t, 0, p.Len())
}

func TestPartition_SortIsStable(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)
	p.Add(item{ifindex: 2, name: "x", rank: 1}, false, false)
	p.Add(item{ifindex: 2, name: "y", rank: 2}, false, false)
	p.Add(item{ifindex: 2, name: "z", rank: 1}, false, false)

	p.Sort(func(a, b item) int { return b.rank - a.rank })
	assert.Equal(t, []string{"y", "x", "z"}, names(p))

	assert.True(t, p.Reorder("z", false))
	assert.Equal(t, []string{"z", "y", "x"}, names(p))
}

func TestPartition_ContractViolationsPanic(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)

	assert.Panics(t, func() { p.Add(item{ifindex: 3, name: "a"}, false, false) })
	assert.Panics(t, func() { p.Add(item{ifindex: 2, name: "bad-type"}, false, false) })
	assert.Panics(t, func() { idx.NewPartition(0) })
}

func TestPartition_RebindAndRelease(t *testing.T) {
	idx := New[string, item](itemPolicy{})
	p := idx.NewPartition(2)
	q := idx.NewPartition(5)
	p.Add(item{ifindex: 2, name: "a"}, false, false)
	q.Add(item{ifindex: 5, name: "a"}, false, false)
	assert.Equal(t, 2, idx.Partitions())

	p.Rebind(7, func(it item, ifindex int) item {
		it.ifindex = ifindex
		return it
	})
	got, _ := p.Lookup("a")
	assert.Equal(t, 7, got.ifindex)

	p.Release()
	assert.Equal(t, 1, idx.Partitions())
	assert.Equal(t, 1, idx.Len())
	assert.Panics(t, func() { p.Add(item{ifindex: 7, name: "a"}, false, false) })
}
