package rbtree

// Insert adds value to the set. It returns an iterator to the element equal to
// value and whether it was inserted; an existing element is left untouched.
// Insert panics with ErrAllocatorExhausted when the allocator is full; use
// TryInsert to handle that case.
func (tree *Tree[T]) Insert(value T) (Iterator[T], bool) {
	iter, inserted, err := tree.TryInsert(value)
	if err != nil {
		panic(err)
	}

	return iter, inserted
}

// TryInsert is Insert reporting allocation failure as an error. On error the
// tree is unchanged.
func (tree *Tree[T]) TryInsert(value T) (Iterator[T], bool, error) {
	alloc := tree.storage()
	parent := uint32(0)
	asLeft := false

	for cursor := tree.root; cursor != 0; {
		comp := tree.compare(value, alloc[cursor].value)

		switch {
		case comp == 0:
			return Iterator[T]{tree, cursor}, false, nil
		case comp < 0:
			parent, asLeft = cursor, true
			cursor = alloc[cursor].left
		default:
			parent, asLeft = cursor, false
			cursor = alloc[cursor].right
		}
	}

	// Allocation is the first side effect.
	nodeIdx, err := tree.allocator.malloc()
	if err != nil {
		return tree.End(), false, err
	}

	tree.createNode(nodeIdx, parent, asLeft, value)
	tree.propagateSize(parent)
	tree.insertFixup(nodeIdx)

	return Iterator[T]{tree, nodeIdx}, true, nil
}

// Erase removes value from the set and returns the number of removed elements, 0 or 1.
func (tree *Tree[T]) Erase(value T) int {
	nodeIdx := tree.search(value)
	if nodeIdx == 0 {
		return 0
	}

	tree.deleteNode(nodeIdx)

	return 1
}

// EraseAt removes the element iter points to and returns an iterator to its successor.
//
// REQUIRES: iter belongs to this tree, !iter.Limit() && !iter.NegativeLimit().
func (tree *Tree[T]) EraseAt(iter Iterator[T]) Iterator[T] {
	doAssert(iter.tree == tree && !iter.Limit() && !iter.NegativeLimit())

	next := doNext(iter.node, tree.storage())
	tree.deleteNode(iter.node)

	return Iterator[T]{tree, next}
}

// Find returns an iterator to the element equal to value, or Limit() if absent.
func (tree *Tree[T]) Find(value T) Iterator[T] {
	return Iterator[T]{tree, tree.search(value)}
}

// Contains reports whether value is in the set.
func (tree *Tree[T]) Contains(value T) bool {
	return tree.search(value) != 0
}

func (tree *Tree[T]) search(value T) uint32 {
	if tree.root == 0 {
		return 0
	}

	alloc := tree.storage()
	nodeIdx := tree.root

	for nodeIdx != 0 {
		comp := tree.compare(value, alloc[nodeIdx].value)

		switch {
		case comp == 0:
			return nodeIdx
		case comp < 0:
			nodeIdx = alloc[nodeIdx].left
		default:
			nodeIdx = alloc[nodeIdx].right
		}
	}

	return 0
}

// FindGreaterThan returns an iterator to the smallest element strictly greater
// than value, or Limit() if there is none.
func (tree *Tree[T]) FindGreaterThan(value T) Iterator[T] {
	return Iterator[T]{tree, tree.bound(value, func(comp int) bool { return comp < 0 }, true)}
}

// FindLessThan returns an iterator to the largest element strictly less than
// value, or Limit() if there is none.
func (tree *Tree[T]) FindLessThan(value T) Iterator[T] {
	return Iterator[T]{tree, tree.bound(value, func(comp int) bool { return comp > 0 }, false)}
}

// FindGE finds the smallest element N such that N >= value. If no such element
// is found, returns Limit().
func (tree *Tree[T]) FindGE(value T) Iterator[T] {
	return Iterator[T]{tree, tree.bound(value, func(comp int) bool { return comp <= 0 }, true)}
}

// FindLE finds the largest element N such that N <= value. If no such element
// is found, returns NegativeLimit() so that reverse scans work unchanged.
func (tree *Tree[T]) FindLE(value T) Iterator[T] {
	nodeIdx := tree.bound(value, func(comp int) bool { return comp >= 0 }, false)
	if nodeIdx == 0 {
		return tree.NegativeLimit()
	}

	return Iterator[T]{tree, nodeIdx}
}

// bound descends once from the root. A node qualifies when accept holds for
// compare(value, node). The tightest qualifying node lies further left when
// seeking upward (towardLeft) and further right otherwise.
func (tree *Tree[T]) bound(value T, accept func(comp int) bool, towardLeft bool) uint32 {
	if tree.root == 0 {
		return 0
	}

	alloc := tree.storage()
	best := uint32(0)

	for nodeIdx := tree.root; nodeIdx != 0; {
		qualifies := accept(tree.compare(value, alloc[nodeIdx].value))
		if qualifies {
			best = nodeIdx
		}

		if qualifies == towardLeft {
			nodeIdx = alloc[nodeIdx].left
		} else {
			nodeIdx = alloc[nodeIdx].right
		}
	}

	return best
}

// Statistic returns an iterator to the element of 0-indexed rank in sort order,
// or Limit() when rank is outside [0, Len()).
func (tree *Tree[T]) Statistic(rank int) Iterator[T] {
	if rank < 0 || rank >= tree.Len() {
		return tree.End()
	}

	alloc := tree.storage()
	nodeIdx := tree.root

	for nodeIdx != 0 {
		leftSize := int(alloc[alloc[nodeIdx].left].size)

		switch {
		case rank < leftSize:
			nodeIdx = alloc[nodeIdx].left
		case rank == leftSize:
			return Iterator[T]{tree, nodeIdx}
		default:
			rank -= leftSize + 1
			nodeIdx = alloc[nodeIdx].right
		}
	}

	// Unreachable while the size invariant holds.
	doAssert(false)

	return tree.End()
}

// Rank returns the number of elements strictly less than value and whether
// value itself is in the set.
func (tree *Tree[T]) Rank(value T) (int, bool) {
	if tree.root == 0 {
		return 0, false
	}

	alloc := tree.storage()
	rank := 0

	for nodeIdx := tree.root; nodeIdx != 0; {
		comp := tree.compare(value, alloc[nodeIdx].value)
		leftSize := int(alloc[alloc[nodeIdx].left].size)

		switch {
		case comp == 0:
			return rank + leftSize, true
		case comp < 0:
			nodeIdx = alloc[nodeIdx].left
		default:
			rank += leftSize + 1
			nodeIdx = alloc[nodeIdx].right
		}
	}

	return rank, false
}
