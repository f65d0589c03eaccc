package rbtree

import "iter"

// Min creates an iterator that points to the minimum item in the tree.
// If the tree is empty, returns Limit().
func (tree *Tree[T]) Min() Iterator[T] {
	return Iterator[T]{tree, tree.minNode}
}

// Max creates an iterator that points at the maximum item in the tree.
//
// If the tree is empty, returns NegativeLimit().
func (tree *Tree[T]) Max() Iterator[T] {
	if tree.maxNode == 0 {
		return Iterator[T]{tree, negativeLimitNode}
	}

	return Iterator[T]{tree, tree.maxNode}
}

// Limit creates an iterator that points beyond the maximum item in the tree.
func (tree *Tree[T]) Limit() Iterator[T] {
	return Iterator[T]{tree, 0}
}

// NegativeLimit creates an iterator that points before the minimum item in the tree.
func (tree *Tree[T]) NegativeLimit() Iterator[T] {
	return Iterator[T]{tree, negativeLimitNode}
}

// Begin is the start of a forward scan, same as Min.
func (tree *Tree[T]) Begin() Iterator[T] { return tree.Min() }

// End is the end of a forward scan, same as Limit.
func (tree *Tree[T]) End() Iterator[T] { return tree.Limit() }

// RBegin is the start of a reverse scan, same as Max.
func (tree *Tree[T]) RBegin() Iterator[T] { return tree.Max() }

// REnd is the end of a reverse scan, same as NegativeLimit.
func (tree *Tree[T]) REnd() Iterator[T] { return tree.NegativeLimit() }

// All yields the elements in ascending order. The tree must not be mutated
// during the scan.
func (tree *Tree[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for it := tree.Begin(); !it.Limit(); it = it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

// Backward yields the elements in descending order.
func (tree *Tree[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for it := tree.RBegin(); !it.NegativeLimit(); it = it.Prev() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

// Iterator allows scanning tree elements in sort order.
//
// Iterator invalidation rule is the same as C++ std::map<>'s. That
// is, if you delete the element that an iterator points to, the
// iterator becomes invalid. For other operation types, the iterator
// remains valid.
type Iterator[T any] struct {
	tree *Tree[T]
	node uint32
}

// Equal checks for the underlying nodes equality.
func (iter Iterator[T]) Equal(other Iterator[T]) bool {
	return iter.tree == other.tree && iter.node == other.node
}

// Limit checks if the iterator points beyond the max element in the tree.
func (iter Iterator[T]) Limit() bool {
	return iter.node == 0
}

// NegativeLimit checks if the iterator points before the minimum element in the tree.
func (iter Iterator[T]) NegativeLimit() bool {
	return iter.node == negativeLimitNode
}

// Min checks if the iterator points to the minimum element in the tree.
func (iter Iterator[T]) Min() bool {
	return !iter.Limit() && iter.node == iter.tree.minNode
}

// Max checks if the iterator points to the maximum element in the tree.
func (iter Iterator[T]) Max() bool {
	return !iter.Limit() && iter.node == iter.tree.maxNode
}

// Value returns the element the iterator points to.
//
// REQUIRES: !iter.Limit() && !iter.NegativeLimit().
func (iter Iterator[T]) Value() T {
	doAssert(!iter.Limit() && !iter.NegativeLimit())

	return iter.tree.storage()[iter.node].value
}

// Next creates a new iterator that points to the successor of the current element.
//
// REQUIRES: !iter.Limit().
func (iter Iterator[T]) Next() Iterator[T] {
	doAssert(!iter.Limit())

	if iter.NegativeLimit() {
		return Iterator[T]{iter.tree, iter.tree.minNode}
	}

	return Iterator[T]{iter.tree, doNext(iter.node, iter.tree.storage())}
}

// Prev creates a new iterator that points to the predecessor of the current
// node.
//
// REQUIRES: !iter.NegativeLimit().
func (iter Iterator[T]) Prev() Iterator[T] {
	doAssert(!iter.NegativeLimit())

	if !iter.Limit() {
		return Iterator[T]{iter.tree, doPrev(iter.node, iter.tree.storage())}
	}

	return iter.tree.Max()
}

// Return the minimum node that's larger than N. Return 0 if no such
// node is found.
func doNext[T any](nodeIdx uint32, alloc []node[T]) uint32 {
	if alloc[nodeIdx].right != 0 {
		cursor := alloc[nodeIdx].right

		for alloc[cursor].left != 0 {
			cursor = alloc[cursor].left
		}

		return cursor
	}

	for {
		parentIdx := alloc[nodeIdx].parent
		if parentIdx == 0 || alloc[parentIdx].left == nodeIdx {
			return parentIdx
		}

		nodeIdx = parentIdx
	}
}

// Return the maximum node that's smaller than N. Return negativeLimitNode if no
// such node is found.
func doPrev[T any](nodeIdx uint32, alloc []node[T]) uint32 {
	if alloc[nodeIdx].left != 0 {
		cursor := alloc[nodeIdx].left

		for alloc[cursor].right != 0 {
			cursor = alloc[cursor].right
		}

		return cursor
	}

	for {
		parentIdx := alloc[nodeIdx].parent
		if parentIdx == 0 {
			return negativeLimitNode
		}

		if alloc[parentIdx].right == nodeIdx {
			return parentIdx
		}

		nodeIdx = parentIdx
	}
}
