package tree

import (
	"github.com/benz9527/xtree/lib/arena"
	"github.com/benz9527/xtree/lib/infra"
)

const nilIdx = arena.Nil

type bstNode[K infra.OrderedKey, D any] struct {
	key    K
	data   D
	parent uint32
	left   uint32
	right  uint32
}

// BSTNodeSlotSize reports the bytes one BST slot occupies for a given
// key/payload instantiation. A caller-supplied backing buffer must be
// capacity*BSTNodeSlotSize bytes, aligned per BSTNodeSlotAlign.
func BSTNodeSlotSize[K infra.OrderedKey, D any]() uintptr {
	return arena.SlotSize[bstNode[K, D]]()
}

func BSTNodeSlotAlign[K infra.OrderedKey, D any]() uintptr {
	return arena.SlotAlign[bstNode[K, D]]()
}

var _ BSTree[uint64, uint64] = (*xArenaBST[uint64, uint64])(nil)

type xArenaBST[K infra.OrderedKey, D any] struct {
	pool  *arena.SlotPool[bstNode[K, D]]
	keyFn infra.SortKeyFunc[K, D]
	kcmp  infra.OrderedKeyComparator[K]
	root  uint32
	count int64
}

type BSTOpt[K infra.OrderedKey, D any] func(*xArenaBST[K, D])

func WithBSTDesc[K infra.OrderedKey, D any]() BSTOpt[K, D] {
	return func(t *xArenaBST[K, D]) {
		t.kcmp = infra.DescOrderedKeyCompare[K]
	}
}

func NewBST[K infra.OrderedKey, D any](capacity int, keyFn infra.SortKeyFunc[K, D], opts ...BSTOpt[K, D]) BSTree[K, D] {
	t := &xArenaBST[K, D]{
		pool:  arena.NewSlotPool[bstNode[K, D]](capacity),
		keyFn: keyFn,
		kcmp:  infra.AscOrderedKeyCompare[K],
		root:  nilIdx,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// NewBSTFromBytes builds the tree over a caller-supplied backing
// buffer, which may sit at a fixed address. The buffer must stay valid
// for the tree's whole lifetime.
func NewBSTFromBytes[K infra.OrderedKey, D any](buf []byte, capacity int, keyFn infra.SortKeyFunc[K, D], opts ...BSTOpt[K, D]) BSTree[K, D] {
	t := &xArenaBST[K, D]{
		pool:  arena.NewSlotPoolFromBytes[bstNode[K, D]](buf, capacity),
		keyFn: keyFn,
		kcmp:  infra.AscOrderedKeyCompare[K],
		root:  nilIdx,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (tree *xArenaBST[K, D]) node(idx uint32) *bstNode[K, D] {
	return tree.pool.Get(idx)
}

func (tree *xArenaBST[K, D]) Len() int64 {
	return tree.count
}

func (tree *xArenaBST[K, D]) Cap() int {
	return tree.pool.Cap()
}

func (tree *xArenaBST[K, D]) Insert(data D) error {
	key := tree.keyFn(data)
	if tree.root == nilIdx {
		h, err := tree.pool.Allocate(bstNode[K, D]{
			key: key, data: data,
			parent: nilIdx, left: nilIdx, right: nilIdx,
		})
		if err != nil {
			return ErrXTreeOutOfSpace
		}
		tree.root = h
		tree.count++
		return nil
	}

	// Descend before allocating so that a duplicate key never consumes
	// a slot and a full pool is only reported once the key is known to
	// be absent.
	x, y := tree.root, nilIdx
	res := int64(0)
	for x != nilIdx {
		y = x
		n := tree.node(x)
		res = tree.kcmp(key, n.key)
		if res == 0 {
			return ErrXTreeAlreadyExists
		} else if res < 0 {
			x = n.left
		} else {
			x = n.right
		}
	}

	h, err := tree.pool.Allocate(bstNode[K, D]{
		key: key, data: data,
		parent: y, left: nilIdx, right: nilIdx,
	})
	if err != nil {
		return ErrXTreeOutOfSpace
	}
	if res < 0 {
		tree.node(y).left = h
	} else {
		tree.node(y).right = h
	}
	tree.count++
	return nil
}

func (tree *xArenaBST[K, D]) searchNode(key K) uint32 {
	aux := tree.root
	for aux != nilIdx {
		n := tree.node(aux)
		res := tree.kcmp(key, n.key)
		if res == 0 {
			return aux
		} else if res < 0 {
			aux = n.left
		} else {
			aux = n.right
		}
	}
	return nilIdx
}

func (tree *xArenaBST[K, D]) Search(key K) (D, bool) {
	idx := tree.searchNode(key)
	if idx == nilIdx {
		var zero D
		return zero, false
	}
	return tree.node(idx).data, true
}

// transplant replaces the subtree rooted at old with the subtree
// rooted at neo (possibly nil), updating the affected parent's child
// link and the tree-level root reference.
func (tree *xArenaBST[K, D]) transplant(old, neo uint32) {
	p := tree.node(old).parent
	if p == nilIdx {
		tree.root = neo
		if neo != nilIdx {
			tree.node(neo).parent = nilIdx
		}
		return
	}
	pn := tree.node(p)
	switch {
	case pn.left == old:
		pn.left = neo
	case pn.right == old:
		pn.right = neo
	default:
		// impossible run to here
		panic( /* debug assertion */ "[x-bst] corrupted, parent does not point back to child")
	}
	if neo != nilIdx {
		tree.node(neo).parent = p
	}
}

func (tree *xArenaBST[K, D]) Remove(key K) (D, error) {
	var zero D
	z := tree.searchNode(key)
	if z == nilIdx {
		return zero, ErrXTreeNotFound
	}
	zn := tree.node(z)
	removed := zn.data
	left, right := zn.left, zn.right

	switch {
	case left == nilIdx && right == nilIdx:
		tree.transplant(z, nilIdx)
	case left == nilIdx:
		tree.transplant(z, right)
	case right == nilIdx:
		tree.transplant(z, left)
	default:
		// In-order successor, the left-most node of the right subtree.
		succ := right
		for tree.node(succ).left != nilIdx {
			succ = tree.node(succ).left
		}
		if succ != right {
			tree.transplant(succ, tree.node(succ).right)
			tree.node(succ).right = right
			tree.node(right).parent = succ
		}
		tree.transplant(z, succ)
		tree.node(succ).left = left
		tree.node(left).parent = succ
	}

	// Slot goes back to the free list only after every link above has
	// been rewritten.
	tree.pool.Release(z)
	tree.count--
	return removed, nil
}

// Inorder traversal, ascending under the configured comparator. The
// walk is lazy: returning false from action stops it, and a fresh call
// restarts from the smallest key.
func (tree *xArenaBST[K, D]) Foreach(action func(idx int64, key K, data D) bool) {
	if tree.root == nilIdx {
		return
	}

	stack := make([]uint32, 0, tree.count>>1+1)
	for aux := tree.root; aux != nilIdx; aux = tree.node(aux).left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		n := tree.node(aux)
		if !action(idx, n.key, n.data) {
			return
		}
		idx++
		for aux = n.right; aux != nilIdx; aux = tree.node(aux).left {
			stack = append(stack, aux)
		}
	}
}

// Release unlinks and frees every node, leaving an empty tree over the
// same pool.
func (tree *xArenaBST[K, D]) Release() {
	if tree.root == nilIdx {
		return
	}

	stack := make([]uint32, 0, tree.count>>1+1)
	for aux := tree.root; aux != nilIdx; aux = tree.node(aux).left {
		stack = append(stack, aux)
	}
	tree.root = nilIdx

	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		r := tree.node(aux).right
		tree.pool.Release(aux)
		tree.count--
		for aux = r; aux != nilIdx; aux = tree.node(aux).left {
			stack = append(stack, aux)
		}
	}
}
