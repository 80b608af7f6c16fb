package slice

import (
	randv2 "math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/infra"
)

func TestSortedSlice_RoundTrip(t *testing.T) {
	s := NewSortedSlice[uint64, uint64](16, infra.Identity[uint64]())

	_, found := s.SearchWithKey(7)
	require.False(t, found)

	require.NoError(t, s.Add(7))
	val, found := s.SearchWithKey(7)
	require.True(t, found)
	require.Equal(t, uint64(7), val)

	removed, err := s.RemoveWithKey(7)
	require.NoError(t, err)
	require.Equal(t, uint64(7), removed)
	require.Equal(t, int64(0), s.Len())
}

func TestSortedSlice_KeepsOrder(t *testing.T) {
	s := NewSortedSlice[uint64, uint64](8, infra.Identity[uint64]())
	for _, k := range []uint64{5, 1, 9, 3, 7} {
		require.NoError(t, s.Add(k))
	}

	expected := []uint64{1, 3, 5, 7, 9}
	s.Foreach(func(idx int64, key uint64, data uint64) bool {
		require.Equal(t, expected[idx], key)
		return true
	})

	at, found := s.SearchIdxWithKey(7)
	require.True(t, found)
	require.Equal(t, 3, at)

	// Miss reports the insertion slot.
	at, found = s.SearchIdxWithKey(4)
	require.False(t, found)
	require.Equal(t, 2, at)
}

func TestSortedSlice_DuplicateAndOutOfSpace(t *testing.T) {
	const capacity = 4
	s := NewSortedSlice[uint64, uint64](capacity, infra.Identity[uint64]())
	for i := uint64(0); i < capacity; i++ {
		require.NoError(t, s.Add(i * 2))
	}

	require.ErrorIs(t, s.Add(2), ErrSortedSliceAlreadyExists)
	require.ErrorIs(t, s.Add(100), ErrSortedSliceOutOfSpace)
	require.Equal(t, int64(capacity), s.Len())

	_, err := s.RemoveWithKey(0)
	require.NoError(t, err)
	require.NoError(t, s.Add(100))
}

func TestSortedSlice_RemoveAtIdx(t *testing.T) {
	s := NewSortedSlice[uint64, uint64](8, infra.Identity[uint64]())
	for _, k := range []uint64{1, 3, 5} {
		require.NoError(t, s.Add(k))
	}

	removed, err := s.RemoveAtIdx(1)
	require.NoError(t, err)
	require.Equal(t, uint64(3), removed)

	_, err = s.RemoveAtIdx(2)
	require.ErrorIs(t, err, ErrSortedSliceIdxOutOfRange)
	_, err = s.RemoveAtIdx(-1)
	require.ErrorIs(t, err, ErrSortedSliceIdxOutOfRange)

	_, err = s.RemoveWithKey(3)
	require.ErrorIs(t, err, ErrSortedSliceNotFound)
}

func TestSortedSlice_DescOrder(t *testing.T) {
	s := NewSortedSlice[uint64, uint64](8, infra.Identity[uint64](), WithSortedSliceDesc[uint64, uint64]())
	for _, k := range []uint64{3, 9, 1, 7} {
		require.NoError(t, s.Add(k))
	}

	expected := []uint64{9, 7, 3, 1}
	s.Foreach(func(idx int64, key uint64, data uint64) bool {
		require.Equal(t, expected[idx], key)
		return true
	})
}

func TestSortedSlice_DerivedSortKey(t *testing.T) {
	type span struct {
		base uint64
		size uint64
	}
	keyFn := func(data span) uint64 { return data.base }
	s := NewSortedSlice[uint64, span](4, keyFn)

	require.NoError(t, s.Add(span{base: 0x4000, size: 16}))
	require.NoError(t, s.Add(span{base: 0x1000, size: 32}))
	require.ErrorIs(t, s.Add(span{base: 0x4000, size: 64}), ErrSortedSliceAlreadyExists)

	got, found := s.SearchWithKey(0x4000)
	require.True(t, found)
	require.Equal(t, uint64(16), got.size)
}

func TestSortedSlice_RandomAddAndRemove(t *testing.T) {
	const total = 1024
	s := NewSortedSlice[uint64, uint64](total, infra.Identity[uint64]())

	set := make(map[uint64]struct{}, total)
	for len(set) < total {
		set[randv2.Uint64()%100_000] = struct{}{}
	}
	keys := make([]uint64, 0, total)
	for k := range set {
		keys = append(keys, k)
	}

	for _, k := range keys {
		require.NoError(t, s.Add(k))
	}
	require.Equal(t, int64(total), s.Len())

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	s.Foreach(func(idx int64, key uint64, data uint64) bool {
		require.Equal(t, keys[idx], key)
		return true
	})

	order := randv2.Perm(total)
	for _, ki := range order {
		removed, err := s.RemoveWithKey(keys[ki])
		require.NoError(t, err)
		require.Equal(t, keys[ki], removed)
	}
	require.Equal(t, int64(0), s.Len())
}

func TestSortedSlice_Release(t *testing.T) {
	s := NewSortedSlice[uint64, uint64](8, infra.Identity[uint64]())
	for _, k := range []uint64{1, 2, 3} {
		require.NoError(t, s.Add(k))
	}
	s.Release()
	require.Equal(t, int64(0), s.Len())
	require.Equal(t, 8, s.Cap())
	require.NoError(t, s.Add(5))
}
