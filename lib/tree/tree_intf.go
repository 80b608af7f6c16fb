// Package tree provides arena-backed ordered key stores: a plain
// intrusive binary search tree and a red-black balanced variant. All
// node storage comes from a fixed-capacity slot pool; nothing is
// allocated per operation. The structures do no locking: one writer at
// a time, readers only while no mutation is in flight, enforced by the
// caller.
package tree

import (
	"errors"

	"github.com/benz9527/xtree/lib/infra"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

var (
	ErrXTreeOutOfSpace    = errors.New("[x-tree] out of space")
	ErrXTreeNotFound      = errors.New("[x-tree] key not found")
	ErrXTreeAlreadyExists = errors.New("[x-tree] key already exists")
)

// BSTree is the unbalanced variant. Height is unbounded under adverse
// insert orders; it exists standalone and as the comparison baseline
// for the red-black variant.
type BSTree[K infra.OrderedKey, D any] interface {
	Len() int64
	Cap() int
	Insert(data D) error
	Search(key K) (D, bool)
	Remove(key K) (D, error)
	Foreach(action func(idx int64, key K, data D) bool)
	Release()
}

// RBNode is a read-only view of one allocated node. A view is an
// ephemeral derived value: it is valid only while the node's slot
// remains allocated and must never be retained across a Remove of the
// same key.
type RBNode[K infra.OrderedKey, D any] interface {
	Key() K
	Data() D
	Color() RBColor
	Left() RBNode[K, D]
	Right() RBNode[K, D]
	Parent() RBNode[K, D]
}

// RBTree is the balanced variant, height bounded at O(log n).
type RBTree[K infra.OrderedKey, D any] interface {
	Len() int64
	Cap() int
	Root() RBNode[K, D]
	Insert(data D) error
	Search(key K) (D, bool)
	Remove(key K) (D, error)
	RemoveMin() (D, error)
	Foreach(action func(idx int64, color RBColor, key K, data D) bool)
	Release()
}
