package tree

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

var (
	errRBTreeRedViolation   = errors.New("[x-rbtree] red violation")
	errRBTreeBlackViolation = errors.New("[x-rbtree] black violation")
)

func isNodeBlack[K infra.OrderedKey, D any](node RBNode[K, D]) bool {
	return node == nil || node.Color() == Black
}

func isNodeRed[K infra.OrderedKey, D any](node RBNode[K, D]) bool {
	return node != nil && node.Color() == Red
}

func blackDepthTo[K infra.OrderedKey, D any](target, to RBNode[K, D]) int {
	depth := 0
	for aux := target; aux != nil; aux = aux.Parent() {
		if isNodeBlack(aux) {
			depth++
		}
		if aux == to {
			break
		}
	}
	return depth
}

// rbtree rule validation utilities.

// Inorder traversal to validate that the root is black and that no red
// node has a red child.
func RedViolationValidate[K infra.OrderedKey, D any](tree RBTree[K, D]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}
	if isNodeRed(aux) {
		return errRBTreeRedViolation
	}

	stack := make([]RBNode[K, D], 0, tree.Len()>>1+1)
	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if isNodeRed(aux) && (isNodeRed(aux.Parent()) || isNodeRed(aux.Left()) || isNodeRed(aux.Right())) {
			return errRBTreeRedViolation
		}
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

// BFS traversal to load every node with at least one nil child; those
// are the nodes whose nil leaves bound the black depth.
func bfsLeaves[K infra.OrderedKey, D any](tree RBTree[K, D]) []RBNode[K, D] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]RBNode[K, D], 0, tree.Len()>>1+1)
	queue := make([]RBNode[K, D], 0, tree.Len()>>1+1)
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		queue = queue[1:]
		l, r := aux.Left(), aux.Right()
		if l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

Each path from the root to a nil leaf passes the same number of black
nodes.
*/
func BlackViolationValidate[K infra.OrderedKey, D any](tree RBTree[K, D]) error {
	leaves := bfsLeaves(tree)
	if leaves == nil {
		return nil
	}

	blackDepth := blackDepthTo(leaves[0], tree.Root())
	for i := 1; i < len(leaves); i++ {
		if blackDepthTo(leaves[i], tree.Root()) != blackDepth {
			return errRBTreeBlackViolation
		}
	}
	return nil
}

// InvariantValidate reports every violated red-black property at once.
func InvariantValidate[K infra.OrderedKey, D any](tree RBTree[K, D]) error {
	return multierr.Combine(
		RedViolationValidate(tree),
		BlackViolationValidate(tree),
	)
}
