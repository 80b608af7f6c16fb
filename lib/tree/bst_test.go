package tree

import (
	randv2 "math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/arena"
	"github.com/benz9527/xtree/lib/infra"
)

func requireBSTOrdered(t *testing.T, tree *xArenaBST[uint64, uint64]) {
	var walk func(idx uint32)
	walk = func(idx uint32) {
		if idx == nilIdx {
			return
		}
		n := tree.node(idx)
		if n.left != nilIdx {
			ln := tree.node(n.left)
			require.Equal(t, idx, ln.parent)
			require.Negative(t, tree.kcmp(ln.key, n.key))
			walk(n.left)
		}
		if n.right != nilIdx {
			rn := tree.node(n.right)
			require.Equal(t, idx, rn.parent)
			require.Positive(t, tree.kcmp(rn.key, n.key))
			walk(n.right)
		}
	}
	walk(tree.root)
}

func TestBST_RoundTrip(t *testing.T) {
	tree := NewBST[uint64, uint64](16, infra.Identity[uint64]())

	_, found := tree.Search(7)
	require.False(t, found)

	require.NoError(t, tree.Insert(7))
	val, found := tree.Search(7)
	require.True(t, found)
	require.Equal(t, uint64(7), val)
	require.Equal(t, int64(1), tree.Len())

	removed, err := tree.Remove(7)
	require.NoError(t, err)
	require.Equal(t, uint64(7), removed)
	_, found = tree.Search(7)
	require.False(t, found)
	require.Equal(t, int64(0), tree.Len())
}

func TestBST_DuplicateAndAbsentKey(t *testing.T) {
	tree := NewBST[uint64, uint64](8, infra.Identity[uint64]())
	require.NoError(t, tree.Insert(5))
	require.NoError(t, tree.Insert(3))

	err := tree.Insert(5)
	require.ErrorIs(t, err, ErrXTreeAlreadyExists)
	require.Equal(t, int64(2), tree.Len())

	_, err = tree.Remove(42)
	require.ErrorIs(t, err, ErrXTreeNotFound)
	require.Equal(t, int64(2), tree.Len())
}

func TestBST_OutOfSpace(t *testing.T) {
	const capacity = 8
	tree := NewBST[uint64, uint64](capacity, infra.Identity[uint64]())
	for i := uint64(0); i < capacity; i++ {
		require.NoError(t, tree.Insert(i))
	}

	err := tree.Insert(capacity)
	require.ErrorIs(t, err, ErrXTreeOutOfSpace)
	require.Equal(t, int64(capacity), tree.Len())

	// A duplicate of a stored key still reports the duplicate, not the
	// full pool.
	err = tree.Insert(3)
	require.ErrorIs(t, err, ErrXTreeAlreadyExists)

	// Releasing one slot makes room again.
	_, err = tree.Remove(0)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(capacity))
}

func TestBST_TwoChildrenDelete_SuccessorTransplant(t *testing.T) {
	tree := NewBST[uint64, uint64](8, infra.Identity[uint64]()).(*xArenaBST[uint64, uint64])
	for _, k := range []uint64{50, 10, 75, 70, 85} {
		require.NoError(t, tree.Insert(k))
	}

	removed, err := tree.Remove(50)
	require.NoError(t, err)
	require.Equal(t, uint64(50), removed)

	// The in-order successor 70 takes over the removed root's position
	// and both of its children.
	root := tree.node(tree.root)
	require.Equal(t, uint64(70), root.key)
	require.Equal(t, uint32(nilIdx), root.parent)

	left := tree.node(root.left)
	require.Equal(t, uint64(10), left.key)
	require.Equal(t, tree.root, left.parent)

	right := tree.node(root.right)
	require.Equal(t, uint64(75), right.key)
	require.Equal(t, tree.root, right.parent)
	require.Equal(t, uint32(nilIdx), right.left)

	rr := tree.node(right.right)
	require.Equal(t, uint64(85), rr.key)
	require.Equal(t, root.right, rr.parent)

	requireBSTOrdered(t, tree)
}

func TestBST_RandomInsertAndRemove(t *testing.T) {
	const capacity = 1024
	tree := NewBST[uint64, uint64](capacity, infra.Identity[uint64]()).(*xArenaBST[uint64, uint64])

	set := make(map[uint64]struct{}, capacity)
	for len(set) < capacity {
		set[randv2.Uint64()%100_000] = struct{}{}
	}
	keys := make([]uint64, 0, capacity)
	for k := range set {
		keys = append(keys, k)
	}

	for _, k := range keys {
		require.NoError(t, tree.Insert(k))
	}
	require.Equal(t, int64(capacity), tree.Len())
	require.Equal(t, tree.pool.Len(), tree.Len())
	requireBSTOrdered(t, tree)

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	tree.Foreach(func(idx int64, key uint64, data uint64) bool {
		require.Equal(t, keys[idx], key)
		require.Equal(t, keys[idx], data)
		return true
	})

	// Remove in shuffled order, checking order and back-links as the
	// structure shrinks.
	order := randv2.Perm(capacity)
	for i, ki := range order {
		removed, err := tree.Remove(keys[ki])
		require.NoError(t, err)
		require.Equal(t, keys[ki], removed)
		if i%64 == 0 {
			requireBSTOrdered(t, tree)
		}
	}
	require.Equal(t, int64(0), tree.Len())
	require.Equal(t, int64(0), tree.pool.Len())
}

func TestBST_FromBytes(t *testing.T) {
	const capacity = 32
	buf := make([]byte, uintptr(capacity)*BSTNodeSlotSize[uint64, uint64]())
	tree := NewBSTFromBytes[uint64, uint64](buf, capacity, infra.Identity[uint64]())

	for i := uint64(0); i < capacity; i++ {
		require.NoError(t, tree.Insert(i*3))
	}
	require.ErrorIs(t, tree.Insert(1), ErrXTreeOutOfSpace)

	tree.Foreach(func(idx int64, key uint64, data uint64) bool {
		require.Equal(t, uint64(idx*3), key)
		return true
	})

	tree.Release()
	require.Equal(t, int64(0), tree.Len())
}

func TestBST_DescOrder(t *testing.T) {
	tree := NewBST[uint64, uint64](8, infra.Identity[uint64](), WithBSTDesc[uint64, uint64]())
	for _, k := range []uint64{3, 9, 1, 7} {
		require.NoError(t, tree.Insert(k))
	}

	expected := []uint64{9, 7, 3, 1}
	tree.Foreach(func(idx int64, key uint64, data uint64) bool {
		require.Equal(t, expected[idx], key)
		return true
	})
}

func TestBST_DerivedSortKey(t *testing.T) {
	type span struct {
		base uint64
		size uint64
	}
	keyFn := func(data span) uint64 { return data.base }
	tree := NewBST[uint64, span](4, keyFn)

	require.NoError(t, tree.Insert(span{base: 0x4000, size: 16}))
	require.NoError(t, tree.Insert(span{base: 0x1000, size: 32}))

	// Equality is decided by the projection alone.
	err := tree.Insert(span{base: 0x4000, size: 64})
	require.ErrorIs(t, err, ErrXTreeAlreadyExists)

	got, found := tree.Search(0x4000)
	require.True(t, found)
	require.Equal(t, uint64(16), got.size)
}

func TestBSTNodeSlotSize(t *testing.T) {
	require.Equal(t, arena.SlotSize[bstNode[uint64, uint64]](), BSTNodeSlotSize[uint64, uint64]())
	require.GreaterOrEqual(t, BSTNodeSlotSize[uint64, uint64](), uintptr(8+8+4+4+4+1))
}
