package rbtree

import (
	"errors"
	"fmt"
)

// Invariant violations reported by Validate.
var (
	ErrOrderViolation = errors.New("elements out of order")
	ErrRedViolation   = errors.New("red node with red parent")
	ErrBlackHeight    = errors.New("unequal black height")
	ErrSizeMismatch   = errors.New("subtree size mismatch")
	ErrRootColor      = errors.New("root is red")
	ErrParentLink     = errors.New("broken parent link")
	ErrBounds         = errors.New("cached minimum or maximum is stale")
)

// Validate checks every red-black, ordering, size and header invariant and
// returns the first violation found. It runs in O(n).
func (tree *Tree[T]) Validate() error {
	if tree.root == 0 {
		if tree.minNode != 0 || tree.maxNode != 0 {
			return fmt.Errorf("%w: empty tree with min %d max %d", ErrBounds, tree.minNode, tree.maxNode)
		}

		return nil
	}

	alloc := tree.storage()

	if alloc[tree.root].color == red {
		return ErrRootColor
	}

	if alloc[tree.root].parent != 0 {
		return fmt.Errorf("%w: root %d has parent %d", ErrParentLink, tree.root, alloc[tree.root].parent)
	}

	_, err := tree.validateSubtree(tree.root)
	if err != nil {
		return err
	}

	return tree.validateOrder()
}

// validateSubtree returns the number of black nodes on every path from nodeIdx
// down to the sentinel, nodeIdx included.
func (tree *Tree[T]) validateSubtree(nodeIdx uint32) (int, error) {
	if nodeIdx == 0 {
		return 0, nil
	}

	alloc := tree.allocator.storage
	nd := alloc[nodeIdx]

	for _, child := range [2]uint32{nd.left, nd.right} {
		if child == 0 {
			continue
		}

		if alloc[child].parent != nodeIdx {
			return 0, fmt.Errorf("%w: node %d is a child of %d but points to %d",
				ErrParentLink, child, nodeIdx, alloc[child].parent)
		}

		if nd.color == red && alloc[child].color == red {
			return 0, fmt.Errorf("%w: nodes %d and %d", ErrRedViolation, nodeIdx, child)
		}
	}

	if nd.size != 1+alloc[nd.left].size+alloc[nd.right].size {
		return 0, fmt.Errorf("%w: node %d has size %d, children %d+%d",
			ErrSizeMismatch, nodeIdx, nd.size, alloc[nd.left].size, alloc[nd.right].size)
	}

	leftHeight, err := tree.validateSubtree(nd.left)
	if err != nil {
		return 0, err
	}

	rightHeight, err := tree.validateSubtree(nd.right)
	if err != nil {
		return 0, err
	}

	if leftHeight != rightHeight {
		return 0, fmt.Errorf("%w: node %d has %d on the left and %d on the right",
			ErrBlackHeight, nodeIdx, leftHeight, rightHeight)
	}

	if nd.color == black {
		leftHeight++
	}

	return leftHeight, nil
}

func (tree *Tree[T]) validateOrder() error {
	alloc := tree.allocator.storage

	leftmost, rightmost := tree.root, tree.root
	for alloc[leftmost].left != 0 {
		leftmost = alloc[leftmost].left
	}

	for alloc[rightmost].right != 0 {
		rightmost = alloc[rightmost].right
	}

	if leftmost != tree.minNode || rightmost != tree.maxNode {
		return fmt.Errorf("%w: min %d max %d, expected %d and %d",
			ErrBounds, tree.minNode, tree.maxNode, leftmost, rightmost)
	}

	count := 1
	prev := tree.minNode

	for cursor := doNext(prev, alloc); cursor != 0; cursor = doNext(cursor, alloc) {
		if tree.compare(alloc[prev].value, alloc[cursor].value) >= 0 {
			return fmt.Errorf("%w: node %d is not below node %d", ErrOrderViolation, prev, cursor)
		}

		prev = cursor
		count++
	}

	if count != int(alloc[tree.root].size) {
		return fmt.Errorf("%w: walked %d nodes, root size %d", ErrSizeMismatch, count, alloc[tree.root].size)
	}

	return nil
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (tree *Tree[T]) Height() int {
	if tree.root == 0 {
		return 0
	}

	alloc := tree.storage()
	height := 0
	level := []uint32{tree.root}

	for len(level) > 0 {
		height++

		next := make([]uint32, 0, len(level)*2)

		for _, nodeIdx := range level {
			if alloc[nodeIdx].left != 0 {
				next = append(next, alloc[nodeIdx].left)
			}

			if alloc[nodeIdx].right != 0 {
				next = append(next, alloc[nodeIdx].right)
			}
		}

		level = next
	}

	return height
}

// BlackHeight returns the number of black nodes from the root down to a leaf,
// the root included and the sentinel excluded.
func (tree *Tree[T]) BlackHeight() int {
	if tree.root == 0 {
		return 0
	}

	alloc := tree.storage()
	height := 0

	for nodeIdx := tree.root; nodeIdx != 0; nodeIdx = alloc[nodeIdx].left {
		if alloc[nodeIdx].color == black {
			height++
		}
	}

	return height
}
