package rbtree

// insertFixup restores the red-black properties after nodeIdx was linked as a red leaf.
// Subtree sizes must already account for the new leaf.
func (tree *Tree[T]) insertFixup(nodeIdx uint32) {
	alloc := tree.allocator.storage

	for {
		parent := alloc[nodeIdx].parent

		// Case 1: N is at the root.
		if parent == 0 {
			alloc[nodeIdx].color = black

			return
		}

		// Case 2: the parent is black, so the tree already satisfies the RB properties.
		if alloc[parent].color == black {
			return
		}

		// A red parent is never the root, so the grandparent exists.
		grandparent := alloc[parent].parent
		parentIsLeft := alloc[grandparent].left == parent

		uncle := alloc[grandparent].left
		if parentIsLeft {
			uncle = alloc[grandparent].right
		}

		// Case 3: parent and uncle are both red.
		// Paint both black, make the grandparent red and continue from it.
		if tree.isRed(uncle) {
			alloc[parent].color = black
			alloc[uncle].color = black
			alloc[grandparent].color = red
			nodeIdx = grandparent

			continue
		}

		// Case 4: N is an inner grandchild. Rotate it over the parent so that
		// it becomes the outer one.
		if (alloc[parent].left == nodeIdx) != parentIsLeft {
			tree.rotate(parent, parentIsLeft)
			parent = nodeIdx
		}

		// Case 5: N is an outer grandchild.
		alloc[parent].color = black
		alloc[grandparent].color = red
		tree.rotate(grandparent, !parentIsLeft)

		return
	}
}

// deleteNode removes nodeIdx from the tree, rebalances it and frees the slot.
func (tree *Tree[T]) deleteNode(nodeIdx uint32) {
	alloc := tree.storage()

	if alloc[nodeIdx].left != 0 && alloc[nodeIdx].right != 0 {
		succ := alloc[nodeIdx].right
		for alloc[succ].left != 0 {
			succ = alloc[succ].left
		}

		tree.swapWithSuccessor(nodeIdx, succ)
	}

	// With a single child, the node is black and the child is a red leaf.
	// Rotate the child up; the node becomes a red leaf below it.
	switch {
	case alloc[nodeIdx].left != 0:
		child := alloc[nodeIdx].left
		tree.rotateRight(nodeIdx)
		alloc[child].color = black
		alloc[nodeIdx].color = red
	case alloc[nodeIdx].right != 0:
		child := alloc[nodeIdx].right
		tree.rotateLeft(nodeIdx)
		alloc[child].color = black
		alloc[nodeIdx].color = red
	}

	if alloc[nodeIdx].color == black && nodeIdx != tree.root {
		tree.deleteFixup(nodeIdx)
	}

	tree.unlinkAndRelease(nodeIdx)
}

// deleteFixup rebalances the tree before the black leaf nodeIdx is unlinked.
// Removing it would shorten every path through it by one black node; the loop
// moves that deficiency up until a rotation or recoloring absorbs it.
// The leaf stays a leaf throughout: rotations only happen above it or beside it.
func (tree *Tree[T]) deleteFixup(nodeIdx uint32) {
	alloc := tree.allocator.storage

	for nodeIdx != tree.root {
		parent := alloc[nodeIdx].parent
		isLeft := alloc[parent].left == nodeIdx

		if alloc[parent].color == red {
			tree.fixRedParent(parent, isLeft)

			return
		}

		sibling := tree.siblingOf(parent, isLeft)

		// Black parent, red sibling: lift the sibling, which leaves a red parent
		// with a black sibling on the deficient side.
		if alloc[sibling].color == red {
			alloc[sibling].color = black
			alloc[parent].color = red
			tree.rotate(parent, isLeft)
			tree.fixRedParent(parent, isLeft)

			return
		}

		if tree.fixBlackSibling(parent, isLeft) {
			return
		}

		// Black parent, black sibling without red children: push the deficiency up.
		alloc[sibling].color = red
		nodeIdx = parent
	}
}

// siblingOf returns the child of parent opposite to the deficient side.
func (tree *Tree[T]) siblingOf(parent uint32, deficientLeft bool) uint32 {
	if deficientLeft {
		return tree.allocator.storage[parent].right
	}

	return tree.allocator.storage[parent].left
}

// nephews returns the children of sibling nearest to and farthest from the deficient side.
func (tree *Tree[T]) nephews(sibling uint32, deficientLeft bool) (near, far uint32) {
	alloc := tree.allocator.storage

	if deficientLeft {
		return alloc[sibling].left, alloc[sibling].right
	}

	return alloc[sibling].right, alloc[sibling].left
}

// fixRedParent resolves a deficiency below a red parent. The sibling is black.
func (tree *Tree[T]) fixRedParent(parent uint32, deficientLeft bool) {
	alloc := tree.allocator.storage
	sibling := tree.siblingOf(parent, deficientLeft)
	near, far := tree.nephews(sibling, deficientLeft)

	switch {
	case tree.isRed(far):
		alloc[sibling].color = red
		alloc[parent].color = black
		alloc[far].color = black
		tree.rotate(parent, deficientLeft)
	case tree.isRed(near):
		// The near nephew ends on top and keeps its red color.
		tree.rotate(sibling, !deficientLeft)
		alloc[parent].color = black
		tree.rotate(parent, deficientLeft)
	default:
		alloc[parent].color = black
		alloc[sibling].color = red
	}
}

// fixBlackSibling resolves a deficiency below a black parent with a black
// sibling that has a red child. It reports false when the sibling has none.
func (tree *Tree[T]) fixBlackSibling(parent uint32, deficientLeft bool) bool {
	alloc := tree.allocator.storage
	sibling := tree.siblingOf(parent, deficientLeft)
	near, far := tree.nephews(sibling, deficientLeft)

	switch {
	case tree.isRed(far):
		alloc[far].color = black
		tree.rotate(parent, deficientLeft)
	case tree.isRed(near):
		alloc[near].color = black
		tree.rotate(sibling, !deficientLeft)
		tree.rotate(parent, deficientLeft)
	default:
		return false
	}

	return true
}
