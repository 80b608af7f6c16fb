// Package slice provides a fixed-capacity sorted-slice key store. It
// keeps the same insert/search/remove surface as the tree variants and
// serves as the linear baseline they are measured against.
package slice

import (
	"errors"
	"sort"

	"github.com/benz9527/xtree/lib/infra"
)

var (
	ErrSortedSliceOutOfSpace    = errors.New("[x-slice] out of space")
	ErrSortedSliceNotFound      = errors.New("[x-slice] key not found")
	ErrSortedSliceAlreadyExists = errors.New("[x-slice] key already exists")
	ErrSortedSliceIdxOutOfRange = errors.New("[x-slice] index out of range")
)

type SortedSlice[K infra.OrderedKey, D any] struct {
	entries []D
	keyFn   infra.SortKeyFunc[K, D]
	kcmp    infra.OrderedKeyComparator[K]
}

type SortedSliceOpt[K infra.OrderedKey, D any] func(*SortedSlice[K, D])

func WithSortedSliceDesc[K infra.OrderedKey, D any]() SortedSliceOpt[K, D] {
	return func(s *SortedSlice[K, D]) {
		s.kcmp = infra.DescOrderedKeyCompare[K]
	}
}

func NewSortedSlice[K infra.OrderedKey, D any](capacity int, keyFn infra.SortKeyFunc[K, D], opts ...SortedSliceOpt[K, D]) *SortedSlice[K, D] {
	if capacity <= 0 {
		panic( /* debug assertion */ "[x-slice] capacity must be positive")
	}
	s := &SortedSlice[K, D]{
		entries: make([]D, 0, capacity),
		keyFn:   keyFn,
		kcmp:    infra.AscOrderedKeyCompare[K],
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *SortedSlice[K, D]) Len() int64 {
	return int64(len(s.entries))
}

func (s *SortedSlice[K, D]) Cap() int {
	return cap(s.entries)
}

// lowerBound locates the first position whose key does not precede
// key under the configured comparator.
func (s *SortedSlice[K, D]) lowerBound(key K) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return s.kcmp(s.keyFn(s.entries[i]), key) >= 0
	})
}

func (s *SortedSlice[K, D]) Add(data D) error {
	key := s.keyFn(data)
	at := s.lowerBound(key)
	if at < len(s.entries) && s.kcmp(s.keyFn(s.entries[at]), key) == 0 {
		return ErrSortedSliceAlreadyExists
	}
	if len(s.entries) == cap(s.entries) {
		return ErrSortedSliceOutOfSpace
	}

	var zero D
	s.entries = append(s.entries, zero)
	copy(s.entries[at+1:], s.entries[at:])
	s.entries[at] = data
	return nil
}

func (s *SortedSlice[K, D]) SearchWithKey(key K) (D, bool) {
	at, found := s.SearchIdxWithKey(key)
	if !found {
		var zero D
		return zero, false
	}
	return s.entries[at], true
}

// SearchIdxWithKey reports the slot the key occupies, or where it
// would be inserted when absent.
func (s *SortedSlice[K, D]) SearchIdxWithKey(key K) (int, bool) {
	at := s.lowerBound(key)
	if at < len(s.entries) && s.kcmp(s.keyFn(s.entries[at]), key) == 0 {
		return at, true
	}
	return at, false
}

func (s *SortedSlice[K, D]) RemoveWithKey(key K) (D, error) {
	var zero D
	at, found := s.SearchIdxWithKey(key)
	if !found {
		return zero, ErrSortedSliceNotFound
	}
	return s.RemoveAtIdx(at)
}

func (s *SortedSlice[K, D]) RemoveAtIdx(at int) (D, error) {
	var zero D
	if at < 0 || at >= len(s.entries) {
		return zero, ErrSortedSliceIdxOutOfRange
	}
	removed := s.entries[at]
	copy(s.entries[at:], s.entries[at+1:])
	s.entries[len(s.entries)-1] = zero
	s.entries = s.entries[:len(s.entries)-1]
	return removed, nil
}

func (s *SortedSlice[K, D]) Foreach(action func(idx int64, key K, data D) bool) {
	for i, e := range s.entries {
		if !action(int64(i), s.keyFn(e), e) {
			return
		}
	}
}

func (s *SortedSlice[K, D]) Release() {
	var zero D
	for i := range s.entries {
		s.entries[i] = zero
	}
	s.entries = s.entries[:0]
}
