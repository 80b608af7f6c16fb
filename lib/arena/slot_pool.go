// Package arena provides a fixed-capacity slot pool whose node storage
// lives in one backing block, either owned by the pool or supplied by
// the caller as a raw byte buffer (e.g. a reserved memory region at a
// fixed address). Nothing here locks: a pool supports one writer at a
// time, and readers only while no mutation is in flight. Enforcing
// that exclusion is the caller's responsibility.
package arena

import (
	"errors"
	"unsafe"
)

// Handle addresses one allocated slot. It stays valid only while its
// slot remains allocated and must not be retained across a Release.
type Handle = uint32

// Nil is the null handle sentinel.
const Nil Handle = ^Handle(0)

var ErrArenaOutOfSpace = errors.New("[slot-pool] out of space")

type slot[T any] struct {
	occupied bool
	record   T
}

// SlotSize reports the per-slot footprint for record type T, occupied
// flag and padding included. A caller-supplied backing buffer must be
// at least capacity*SlotSize[T]() bytes.
func SlotSize[T any]() uintptr {
	return unsafe.Sizeof(slot[T]{})
}

// SlotAlign reports the alignment a caller-supplied backing buffer
// must satisfy for record type T.
func SlotAlign[T any]() uintptr {
	return unsafe.Alignof(slot[T]{})
}

// SlotPool hands out and reclaims fixed-size slots in O(1) via a LIFO
// free list. Capacity is fixed at construction.
type SlotPool[T any] struct {
	slots  []slot[T]
	free   []Handle
	length int64
}

func NewSlotPool[T any](capacity int) *SlotPool[T] {
	if capacity <= 0 || uint64(capacity) >= uint64(Nil) {
		panic( /* debug assertion */ "[slot-pool] capacity out of range")
	}
	pool := &SlotPool[T]{
		slots: make([]slot[T], capacity),
	}
	pool.initFreeList()
	return pool
}

// NewSlotPoolFromBytes reinterprets buf as an array of capacity slot
// records. The pool owns buf for its whole lifetime and the caller
// must keep it valid at least as long. Size or alignment violations
// abort; they are contract breaches, not runtime outcomes.
func NewSlotPoolFromBytes[T any](buf []byte, capacity int) *SlotPool[T] {
	if capacity <= 0 || uint64(capacity) >= uint64(Nil) {
		panic( /* debug assertion */ "[slot-pool] capacity out of range")
	}
	if uintptr(len(buf)) < uintptr(capacity)*SlotSize[T]() {
		panic( /* debug assertion */ "[slot-pool] backing buffer smaller than capacity*SlotSize")
	}
	base := unsafe.Pointer(unsafe.SliceData(buf))
	if uintptr(base)&(SlotAlign[T]()-1) != 0 {
		panic( /* debug assertion */ "[slot-pool] backing buffer misaligned for slot record")
	}
	pool := &SlotPool[T]{
		slots: unsafe.Slice((*slot[T])(base), capacity),
	}
	for i := range pool.slots {
		pool.slots[i] = slot[T]{}
	}
	pool.initFreeList()
	return pool
}

func (pool *SlotPool[T]) initFreeList() {
	pool.free = make([]Handle, 0, len(pool.slots))
	for i := 0; i < len(pool.slots); i++ {
		pool.free = append(pool.free, Handle(i))
	}
}

func (pool *SlotPool[T]) Cap() int {
	return len(pool.slots)
}

// Len is the occupied-slot count.
func (pool *SlotPool[T]) Len() int64 {
	return pool.length
}

func (pool *SlotPool[T]) Full() bool {
	return len(pool.free) == 0
}

// Allocate pops a free slot, writes record into it and marks it
// occupied. Fails with ErrArenaOutOfSpace once every slot is taken.
func (pool *SlotPool[T]) Allocate(record T) (Handle, error) {
	n := len(pool.free)
	if n == 0 {
		return Nil, ErrArenaOutOfSpace
	}
	idx := pool.free[n-1]
	pool.free = pool.free[:n-1]
	s := &pool.slots[idx]
	s.occupied = true
	s.record = record
	pool.length++
	return idx, nil
}

// Get returns a pointer to the slot's record. The pointer is stable
// for as long as the slot stays allocated.
func (pool *SlotPool[T]) Get(h Handle) *T {
	s := &pool.slots[h]
	if !s.occupied {
		panic( /* debug assertion */ "[slot-pool] access to an unoccupied slot")
	}
	return &s.record
}

// Release marks the slot unoccupied and returns it to the free list.
// Precondition, not checked at runtime: the record has already been
// unlinked from whatever structure referenced it.
func (pool *SlotPool[T]) Release(h Handle) {
	s := &pool.slots[h]
	if !s.occupied {
		panic( /* debug assertion */ "[slot-pool] release of an unoccupied slot")
	}
	s.occupied = false
	var zero T
	s.record = zero
	pool.length--
	pool.free = append(pool.free, h)
}

func (pool *SlotPool[T]) Occupied(h Handle) bool {
	return h != Nil && int(h) < len(pool.slots) && pool.slots[h].occupied
}
