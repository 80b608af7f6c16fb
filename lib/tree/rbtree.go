package tree

import (
	"github.com/benz9527/xtree/lib/arena"
	"github.com/benz9527/xtree/lib/infra"
)

type rbNode[K infra.OrderedKey, D any] struct {
	key    K
	data   D
	parent uint32
	left   uint32
	right  uint32
	color  RBColor
}

// RBNodeSlotSize reports the bytes one red-black slot occupies for a
// given key/payload instantiation (color bit and links included).
func RBNodeSlotSize[K infra.OrderedKey, D any]() uintptr {
	return arena.SlotSize[rbNode[K, D]]()
}

func RBNodeSlotAlign[K infra.OrderedKey, D any]() uintptr {
	return arena.SlotAlign[rbNode[K, D]]()
}

var _ RBTree[uint64, uint64] = (*xArenaRBTree[uint64, uint64])(nil)

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. (Optional) The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.
type xArenaRBTree[K infra.OrderedKey, D any] struct {
	pool           *arena.SlotPool[rbNode[K, D]]
	keyFn          infra.SortKeyFunc[K, D]
	kcmp           infra.OrderedKeyComparator[K]
	root           uint32
	count          int64
	isRmBorrowPred bool
}

type RBTreeOpt[K infra.OrderedKey, D any] func(*xArenaRBTree[K, D])

func WithRBTreeDesc[K infra.OrderedKey, D any]() RBTreeOpt[K, D] {
	return func(t *xArenaRBTree[K, D]) {
		t.kcmp = infra.DescOrderedKeyCompare[K]
	}
}

// WithRBTreeBorrowPred makes a two-children delete borrow the in-order
// predecessor instead of the default successor.
func WithRBTreeBorrowPred[K infra.OrderedKey, D any]() RBTreeOpt[K, D] {
	return func(t *xArenaRBTree[K, D]) {
		t.isRmBorrowPred = true
	}
}

func NewRBTree[K infra.OrderedKey, D any](capacity int, keyFn infra.SortKeyFunc[K, D], opts ...RBTreeOpt[K, D]) RBTree[K, D] {
	t := &xArenaRBTree[K, D]{
		pool:  arena.NewSlotPool[rbNode[K, D]](capacity),
		keyFn: keyFn,
		kcmp:  infra.AscOrderedKeyCompare[K],
		root:  nilIdx,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// NewRBTreeFromBytes builds the tree over a caller-supplied backing
// buffer of at least capacity*RBNodeSlotSize bytes, aligned per
// RBNodeSlotAlign. The buffer may sit at a fixed address and must stay
// valid for the tree's whole lifetime.
func NewRBTreeFromBytes[K infra.OrderedKey, D any](buf []byte, capacity int, keyFn infra.SortKeyFunc[K, D], opts ...RBTreeOpt[K, D]) RBTree[K, D] {
	t := &xArenaRBTree[K, D]{
		pool:  arena.NewSlotPoolFromBytes[rbNode[K, D]](buf, capacity),
		keyFn: keyFn,
		kcmp:  infra.AscOrderedKeyCompare[K],
		root:  nilIdx,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (tree *xArenaRBTree[K, D]) node(idx uint32) *rbNode[K, D] {
	return tree.pool.Get(idx)
}

func (tree *xArenaRBTree[K, D]) isRed(idx uint32) bool {
	return idx != nilIdx && tree.node(idx).color == Red
}

func (tree *xArenaRBTree[K, D]) isBlack(idx uint32) bool {
	return idx == nilIdx || tree.node(idx).color == Black
}

func (tree *xArenaRBTree[K, D]) direction(x uint32) RBDirection {
	if x == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[x-rbtree] nil leaf node without direction")
	}
	p := tree.node(x).parent
	if p == nilIdx {
		return Root
	}
	pn := tree.node(p)
	switch {
	case pn.left == x:
		return Left
	case pn.right == x:
		return Right
	default:
		panic( /* debug assertion */ "[x-rbtree] corrupted, parent does not point back to child")
	}
}

func (tree *xArenaRBTree[K, D]) sibling(x uint32) uint32 {
	switch tree.direction(x) {
	case Left:
		return tree.node(tree.node(x).parent).right
	case Right:
		return tree.node(tree.node(x).parent).left
	default:
	}
	return nilIdx
}

func (tree *xArenaRBTree[K, D]) uncle(x uint32) uint32 {
	return tree.sibling(tree.node(x).parent)
}

func (tree *xArenaRBTree[K, D]) grandpa(x uint32) uint32 {
	return tree.node(tree.node(x).parent).parent
}

func (tree *xArenaRBTree[K, D]) minimum(x uint32) uint32 {
	aux := x
	for aux != nilIdx && tree.node(aux).left != nilIdx {
		aux = tree.node(aux).left
	}
	return aux
}

func (tree *xArenaRBTree[K, D]) maximum(x uint32) uint32 {
	aux := x
	for aux != nilIdx && tree.node(aux).right != nilIdx {
		aux = tree.node(aux).right
	}
	return aux
}

// The pred node of the current node is its previous node in sorted order.
func (tree *xArenaRBTree[K, D]) pred(x uint32) uint32 {
	if x == nilIdx {
		return nilIdx
	}
	if l := tree.node(x).left; l != nilIdx {
		return tree.maximum(l)
	}
	aux := tree.node(x).parent
	for aux != nilIdx && x == tree.node(aux).left {
		x = aux
		aux = tree.node(aux).parent
	}
	return aux
}

// The succ node of the current node is its next node in sorted order.
func (tree *xArenaRBTree[K, D]) succ(x uint32) uint32 {
	if x == nilIdx {
		return nilIdx
	}
	if r := tree.node(x).right; r != nilIdx {
		return tree.minimum(r)
	}
	aux := tree.node(x).parent
	for aux != nilIdx && x == tree.node(aux).right {
		x = aux
		aux = tree.node(aux).parent
	}
	return aux
}

func (tree *xArenaRBTree[K, D]) Len() int64 {
	return tree.count
}

func (tree *xArenaRBTree[K, D]) Cap() int {
	return tree.pool.Cap()
}

func (tree *xArenaRBTree[K, D]) Root() RBNode[K, D] {
	if tree.root == nilIdx {
		return nil
	}
	return rbNodeView[K, D]{tree: tree, idx: tree.root}
}

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *xArenaRBTree[K, D]) leftRotate(x uint32) {
	xn := tree.node(x)
	if xn.right == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[x-rbtree] left rotate node x.right is nil")
	}

	p, y := xn.parent, xn.right
	yn := tree.node(y)
	dir := tree.direction(x)

	xn.right = yn.left
	yn.left = x
	if xn.right != nilIdx {
		tree.node(xn.right).parent = x
	}
	xn.parent = y

	switch dir {
	case Root:
		tree.root = y
	case Left:
		tree.node(p).left = y
	case Right:
		tree.node(p).right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[x-rbtree] unknown node direction to left-rotate")
	}
	yn.parent = p
}

/*
			 |                         |
			 X                         S
			/ \     rightRotate(X)    / \
	       S   R    ============>    Sc  X
		  / \                           / \
		Sc   Sd                       Sd   R
*/
func (tree *xArenaRBTree[K, D]) rightRotate(x uint32) {
	xn := tree.node(x)
	if xn.left == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[x-rbtree] right rotate node x.left is nil")
	}

	p, y := xn.parent, xn.left
	yn := tree.node(y)
	dir := tree.direction(x)

	xn.left = yn.right
	yn.right = x
	if xn.left != nilIdx {
		tree.node(xn.left).parent = x
	}
	xn.parent = y

	switch dir {
	case Root:
		tree.root = y
	case Left:
		tree.node(p).left = y
	case Right:
		tree.node(p).right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[x-rbtree] unknown node direction to right-rotate")
	}
	yn.parent = p
}

// i1: Empty rbtree, insert directly, but root node is painted to black.
func (tree *xArenaRBTree[K, D]) Insert(data D) error {
	key := tree.keyFn(data)
	if /* i1 */ tree.root == nilIdx {
		h, err := tree.pool.Allocate(rbNode[K, D]{
			key: key, data: data, color: Black,
			parent: nilIdx, left: nilIdx, right: nilIdx,
		})
		if err != nil {
			return ErrXTreeOutOfSpace
		}
		tree.root = h
		tree.count++
		return nil
	}

	// Descend before allocating: a duplicate key must not consume a
	// slot, and a failed insert leaves the tree untouched.
	x, y := tree.root, nilIdx
	res := int64(0)
	for x != nilIdx {
		y = x
		n := tree.node(x)
		res = tree.kcmp(key, n.key)
		if /* equal */ res == 0 {
			return ErrXTreeAlreadyExists
		} else /* less */ if res < 0 {
			x = n.left
		} else /* greater */ {
			x = n.right
		}
	}

	z, err := tree.pool.Allocate(rbNode[K, D]{
		key: key, data: data, color: Red,
		parent: y, left: nilIdx, right: nilIdx,
	})
	if err != nil {
		return ErrXTreeOutOfSpace
	}
	if res < 0 {
		tree.node(y).left = z
	} else {
		tree.node(y).right = z
	}

	tree.count++
	tree.insertRebalance(z)
	return nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X's parent P is black, hold p3 and p4.

im2: Current node X's parent P is red and P is root, repaint P into black.

im3: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Recursive to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im4: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to opposite direction.
After rotation may be still red-violation. Here must enter im5 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im5: Handle im4 scenario, current node is the same direction as parent.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *xArenaRBTree[K, D]) insertRebalance(x uint32) {
	for x != nilIdx {
		if x == tree.root {
			if tree.isRed(x) {
				tree.node(x).color = Black
			}
			return
		}

		p := tree.node(x).parent
		if /* im1 */ tree.isBlack(p) {
			return
		}

		if /* im2 */ p == tree.root {
			tree.node(p).color = Black
			return
		}

		if /* im3 */ u := tree.uncle(x); tree.isRed(u) {
			tree.node(p).color = Black
			tree.node(u).color = Black
			gp := tree.grandpa(x)
			tree.node(gp).color = Red
			x = gp
			continue
		}

		dir := tree.direction(x)
		if /* im4 */ dir != tree.direction(p) {
			switch dir {
			case Left:
				tree.rightRotate(p)
			case Right:
				tree.leftRotate(p)
			default:
				// impossible run to here
				panic( /* debug assertion */ "[x-rbtree] insert rebalance violate (im4)")
			}
			x = p // enter im5 to fix
		}

		switch /* im5 */ tree.direction(tree.node(x).parent) {
		case Left:
			tree.rightRotate(tree.grandpa(x))
		case Right:
			tree.leftRotate(tree.grandpa(x))
		default:
			// impossible run to here
			panic( /* debug assertion */ "[x-rbtree] insert rebalance violate (im5)")
		}

		tree.node(tree.node(x).parent).color = Black
		tree.node(tree.sibling(x)).color = Red
		return
	}
}

func (tree *xArenaRBTree[K, D]) searchNode(key K) uint32 {
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

func (tree *xArenaRBTree[K, D]) Search(key K) (D, bool) {
	idx := tree.searchNode(key)
	if idx == nilIdx {
		var zero D
		return zero, false
	}
	return tree.node(idx).data, true
}

/*
r1: Only a root node, remove directly.

r2: Current node X has left and right node.
Find node X's pred or succ to replace it to be removed.
Swap the key and payload only; the doomed slot becomes the borrowed
node's, which has at most one child.

r3: (1) Current node X is a red leaf node, remove directly.

r3: (2) Current node X is a black leaf node, rebalance before the
unlink. (black-violation)

r4: Current node X is not a leaf node but contains a not nil child
node. The child node must be a red node. (See conclusion above.
Otherwise, black-violation)
*/
func (tree *xArenaRBTree[K, D]) removeNode(z uint32) {
	if /* r1 */ tree.count == 1 && z == tree.root {
		tree.root = nilIdx
		tree.pool.Release(z)
		return
	}

	y := z
	zn := tree.node(z)
	if /* r2 */ zn.left != nilIdx && zn.right != nilIdx {
		if tree.isRmBorrowPred {
			y = tree.pred(z) // enter r3-r4
		} else {
			y = tree.succ(z) // enter r3-r4
		}
		yn := tree.node(y)
		zn.key, zn.data = yn.key, yn.data
	}

	yn := tree.node(y)
	if /* r3 */ yn.left == nilIdx && yn.right == nilIdx {
		if /* r3 (2) */ yn.color == Black {
			tree.removeRebalance(y)
		}
		p := tree.node(y).parent
		pn := tree.node(p)
		switch {
		case pn.left == y:
			pn.left = nilIdx
		case pn.right == y:
			pn.right = nilIdx
		default:
			// impossible run to here
			panic( /* debug assertion */ "[x-rbtree] corrupted, parent does not point back to child (r3)")
		}
	} else /* r4 */ {
		replace := yn.right
		if replace == nilIdx {
			replace = yn.left
		}

		switch dir := tree.direction(y); dir {
		case Root:
			tree.root = replace
			tree.node(replace).parent = nilIdx
		case Left:
			tree.node(yn.parent).left = replace
			tree.node(replace).parent = yn.parent
		case Right:
			tree.node(yn.parent).right = replace
			tree.node(replace).parent = yn.parent
		default:
			// impossible run to here
			panic( /* debug assertion */ "[x-rbtree] remove violate (r4)")
		}

		if yn.color == Black {
			if tree.isRed(replace) {
				tree.node(replace).color = Black
			} else {
				tree.removeRebalance(replace)
			}
		}
	}

	tree.pool.Release(y)
}

func (tree *xArenaRBTree[K, D]) Remove(key K) (D, error) {
	var zero D
	if tree.count <= 0 {
		return zero, ErrXTreeNotFound
	}
	z := tree.searchNode(key)
	if z == nilIdx {
		return zero, ErrXTreeNotFound
	}
	removed := tree.node(z).data
	tree.removeNode(z)
	tree.count--
	return removed, nil
}

func (tree *xArenaRBTree[K, D]) RemoveMin() (D, error) {
	var zero D
	if tree.count <= 0 {
		return zero, ErrXTreeNotFound
	}
	_min := tree.minimum(tree.root)
	if _min == nilIdx {
		return zero, ErrXTreeNotFound
	}
	removed := tree.node(_min).data
	tree.removeNode(_min)
	tree.count--
	return removed, nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

Sc is the same direction to X and it X's sibling's child node.
Sd is the opposite direction to X and it X's sibling's child node.

rm1: Current node X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. (Otherwise, red-violation)
(1) X is left node of P, left rotate P
(2) X is right node of P, right rotate P.
(3) repaint S into black, P into red.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======> <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: Current node X's parent P is red, the sibling S, nephew node Sc and Sd
is black.
Repaint S into red and P into black.

	  <P>             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: All of current node X's parent P, the sibling S, nephew node Sc and Sd
are black.
Unable to satisfy p3 and p4. We have to paint the S into red to satisfy
p4 locally. Then recursive to handle P.

	  [P]             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm4: Current node X's sibling S is black, nephew node Sc is red and Sd
is black. Ignore X's parent P's color (red or black is okay)
Unable to satisfy p3 and p4.
(1) If X is left node of P, right rotate S.
(2) If X is right node of P, left rotate S.
(3) Repaint S into red, Sc into black
Enter into rm5 to fix.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

rm5: Current node X's sibling S is black, nephew node Sc is black and Sd
is red. Ignore X's parent P's color (red or black is okay)
Unable to satisfy p4 (black-violation)
(1) If X is left node of P, left rotate P.
(2) If X is right node of P, right rotate P.
(3) Swap P and S's color (red-violation)
(4) Repaint Sd into black.

	  {P}                   [S]                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]
*/
func (tree *xArenaRBTree[K, D]) removeRebalance(x uint32) {
	for {
		if x == tree.root {
			return
		}

		sib := tree.sibling(x)
		dir := tree.direction(x)
		if /* rm1 */ tree.isRed(sib) {
			switch dir {
			case Left:
				tree.leftRotate(tree.node(x).parent)
			case Right:
				tree.rightRotate(tree.node(x).parent)
			default:
				// impossible run to here
				panic( /* debug assertion */ "[x-rbtree] remove rebalance violate (rm1)")
			}
			tree.node(sib).color = Black
			tree.node(tree.node(x).parent).color = Red // ready to enter rm2
			sib = tree.sibling(x)
		}

		var sc, sd uint32
		switch dir {
		case Left:
			sc, sd = tree.node(sib).left, tree.node(sib).right
		case Right:
			sc, sd = tree.node(sib).right, tree.node(sib).left
		default:
			// impossible run to here
			panic( /* debug assertion */ "[x-rbtree] remove rebalance violate (rm2)")
		}

		if tree.isBlack(sc) && tree.isBlack(sd) {
			p := tree.node(x).parent
			if /* rm2 */ tree.isRed(p) {
				tree.node(sib).color = Red
				tree.node(p).color = Black
				break
			}
			/* rm3 */
			tree.node(sib).color = Red
			x = p
			continue
		}

		if /* rm4 */ tree.isRed(sc) {
			switch dir {
			case Left:
				tree.rightRotate(sib)
			case Right:
				tree.leftRotate(sib)
			default:
				// impossible run to here
				panic( /* debug assertion */ "[x-rbtree] remove rebalance violate (rm4)")
			}
			tree.node(sc).color = Black
			tree.node(sib).color = Red
			sib = tree.sibling(x)
			switch dir {
			case Left:
				sd = tree.node(sib).right
			case Right:
				sd = tree.node(sib).left
			default:
				// impossible run to here
				panic( /* debug assertion */ "[x-rbtree] remove rebalance violate (rm4)")
			}
		}

		/* rm5 */
		p := tree.node(x).parent
		switch dir {
		case Left:
			tree.leftRotate(p)
		case Right:
			tree.rightRotate(p)
		default:
			// impossible run to here
			panic( /* debug assertion */ "[x-rbtree] remove rebalance violate (rm5)")
		}
		tree.node(sib).color = tree.node(p).color
		tree.node(p).color = Black
		if sd != nilIdx {
			tree.node(sd).color = Black
		}
		break
	}
}

// Inorder traversal, ascending under the configured comparator. The
// walk is lazy: returning false from action stops it, and a fresh call
// restarts from the smallest key.
func (tree *xArenaRBTree[K, D]) Foreach(action func(idx int64, color RBColor, key K, data D) bool) {
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
		if !action(idx, n.color, n.key, n.data) {
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
func (tree *xArenaRBTree[K, D]) Release() {
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

// rbNodeView adapts a slot handle to the read-only RBNode interface.
type rbNodeView[K infra.OrderedKey, D any] struct {
	tree *xArenaRBTree[K, D]
	idx  uint32
}

func (v rbNodeView[K, D]) Key() K {
	return v.tree.node(v.idx).key
}

func (v rbNodeView[K, D]) Data() D {
	return v.tree.node(v.idx).data
}

func (v rbNodeView[K, D]) Color() RBColor {
	return v.tree.node(v.idx).color
}

func (v rbNodeView[K, D]) Left() RBNode[K, D] {
	if l := v.tree.node(v.idx).left; l != nilIdx {
		return rbNodeView[K, D]{tree: v.tree, idx: l}
	}
	return nil
}

func (v rbNodeView[K, D]) Right() RBNode[K, D] {
	if r := v.tree.node(v.idx).right; r != nilIdx {
		return rbNodeView[K, D]{tree: v.tree, idx: r}
	}
	return nil
}

func (v rbNodeView[K, D]) Parent() RBNode[K, D] {
	if p := v.tree.node(v.idx).parent; p != nilIdx {
		return rbNodeView[K, D]{tree: v.tree, idx: p}
	}
	return nil
}
