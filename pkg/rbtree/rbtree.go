package rbtree

import (
	"cmp"
	"math"
)

const (
	// The zero node is black, which makes slot 0 a black sentinel for free.
	black = false
	red   = true

	negativeLimitNode = math.MaxUint32
)

type node[T any] struct {
	value               T
	parent, left, right uint32
	// Number of live nodes in the subtree rooted here, the node included.
	size  uint32
	color bool
}

// noCopy makes `go vet` flag a Tree copied by value. Use Clone instead.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Tree is an ordered set with order statistics, implemented as a red-black tree
// whose nodes carry subtree sizes.
//
// The Allocator slot 0 terminates every leaf edge. The header role of the
// sentinel (root, minimum and maximum) is kept on the Tree because one
// Allocator may back several trees.
//
// A Tree is not safe for concurrent use.
type Tree[T any] struct {
	_ noCopy

	allocator *Allocator[T]
	compare   func(a, b T) int

	root uint32

	// The minimum and maximum nodes under the tree.
	minNode, maxNode uint32
}

// NewTree creates an empty tree ordered by compare, which must define a strict
// total order returning a negative, zero or positive number.
// A nil allocator gets a fresh private one.
func NewTree[T any](compare func(a, b T) int, allocator *Allocator[T]) *Tree[T] {
	doAssert(compare != nil)

	if allocator == nil {
		allocator = NewAllocator[T]()
	}

	return &Tree[T]{allocator: allocator, compare: compare}
}

// NewOrdered creates an empty tree using the natural ordering of T.
func NewOrdered[T cmp.Ordered]() *Tree[T] {
	return NewTree(cmp.Compare[T], nil)
}

func (tree *Tree[T]) storage() []node[T] {
	tree.allocator.assertAwake()

	return tree.allocator.storage
}

// Allocator returns the bound nodes allocator.
func (tree *Tree[T]) Allocator() *Allocator[T] {
	return tree.allocator
}

// Len returns the number of elements in the tree.
func (tree *Tree[T]) Len() int {
	if tree.root == 0 {
		return 0
	}

	return int(tree.storage()[tree.root].size)
}

// Empty reports whether the tree holds no elements.
func (tree *Tree[T]) Empty() bool {
	return tree.root == 0
}

// Clear removes all the nodes from the tree and returns them to the allocator.
func (tree *Tree[T]) Clear() {
	if tree.root == 0 {
		return
	}

	alloc := tree.storage()
	nodes := make([]uint32, 0, alloc[tree.root].size)
	stack := []uint32{tree.root}

	for len(stack) > 0 {
		nodeIdx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes = append(nodes, nodeIdx)

		if alloc[nodeIdx].left != 0 {
			stack = append(stack, alloc[nodeIdx].left)
		}

		if alloc[nodeIdx].right != 0 {
			stack = append(stack, alloc[nodeIdx].right)
		}
	}

	for _, nodeIdx := range nodes {
		tree.allocator.free(nodeIdx)
	}

	tree.root = 0
	tree.minNode = 0
	tree.maxNode = 0
}

// Clone copies the tree into allocator by re-inserting every element in order.
// The copy rebuilds its own colors and links. A nil allocator gets a fresh one.
func (tree *Tree[T]) Clone(allocator *Allocator[T]) (*Tree[T], error) {
	clone := NewTree(tree.compare, allocator)

	err := clone.insertAll(tree)
	if err != nil {
		clone.Clear()

		return nil, err
	}

	return clone, nil
}

// CopyFrom replaces the contents of the tree with the elements of src.
// On allocation failure the tree is left empty.
func (tree *Tree[T]) CopyFrom(src *Tree[T]) error {
	if src == tree {
		return nil
	}

	tree.Clear()

	err := tree.insertAll(src)
	if err != nil {
		tree.Clear()

		return err
	}

	return nil
}

func (tree *Tree[T]) insertAll(src *Tree[T]) error {
	for iter := src.Begin(); !iter.Limit(); iter = iter.Next() {
		_, _, err := tree.TryInsert(iter.Value())
		if err != nil {
			return err
		}
	}

	return nil
}

// Tree core.

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}

func (tree *Tree[T]) isRed(nodeIdx uint32) bool {
	return tree.allocator.storage[nodeIdx].color == red
}

// createNode links a fresh red leaf under parent. Slot nodeIdx must come from malloc.
func (tree *Tree[T]) createNode(nodeIdx, parent uint32, asLeft bool, value T) {
	alloc := tree.storage()
	alloc[nodeIdx] = node[T]{value: value, parent: parent, size: 1, color: red}

	switch {
	case parent == 0:
		tree.root = nodeIdx
		tree.minNode = nodeIdx
		tree.maxNode = nodeIdx
	case asLeft:
		alloc[parent].left = nodeIdx

		if parent == tree.minNode {
			tree.minNode = nodeIdx
		}
	default:
		alloc[parent].right = nodeIdx

		if parent == tree.maxNode {
			tree.maxNode = nodeIdx
		}
	}
}

// unlinkAndRelease detaches a leaf and frees its slot.
func (tree *Tree[T]) unlinkAndRelease(nodeIdx uint32) {
	alloc := tree.storage()
	doAssert(alloc[nodeIdx].left == 0 && alloc[nodeIdx].right == 0)

	parent := alloc[nodeIdx].parent
	tree.replaceChild(parent, nodeIdx, 0)

	// A leaf minimum is a left child, so its parent is the next smallest; mirrored for the maximum.
	if tree.minNode == nodeIdx {
		tree.minNode = parent
	}

	if tree.maxNode == nodeIdx {
		tree.maxNode = parent
	}

	tree.allocator.free(nodeIdx)
	tree.propagateSize(parent)
}

// replaceChild points the link of parent that held oldChild at newChild.
// A zero parent means oldChild was the root.
func (tree *Tree[T]) replaceChild(parent, oldChild, newChild uint32) {
	alloc := tree.allocator.storage

	switch {
	case parent == 0:
		tree.root = newChild
	case alloc[parent].left == oldChild:
		alloc[parent].left = newChild
	default:
		alloc[parent].right = newChild
	}

	if newChild != 0 {
		alloc[newChild].parent = parent
	}
}

func (tree *Tree[T]) resize(nodeIdx uint32) {
	alloc := tree.allocator.storage
	alloc[nodeIdx].size = 1 + alloc[alloc[nodeIdx].left].size + alloc[alloc[nodeIdx].right].size
}

// propagateSize recomputes subtree sizes from nodeIdx up to the root.
func (tree *Tree[T]) propagateSize(nodeIdx uint32) {
	alloc := tree.allocator.storage

	for ; nodeIdx != 0; nodeIdx = alloc[nodeIdx].parent {
		tree.resize(nodeIdx)
	}
}

// rotate performs a tree rotation around pivot. toLeft=true performs a left
// rotation, toLeft=false a right rotation. Only the sizes of pivot and the
// child that replaces it change; colors are untouched.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation:
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[T]) rotate(pivot uint32, toLeft bool) {
	alloc := tree.allocator.storage

	var child, inner uint32

	if toLeft {
		child = alloc[pivot].right
		inner = alloc[child].left
		alloc[pivot].right = inner
		alloc[child].left = pivot
	} else {
		child = alloc[pivot].left
		inner = alloc[child].right
		alloc[pivot].left = inner
		alloc[child].right = pivot
	}

	doAssert(child != 0)

	if inner != 0 {
		alloc[inner].parent = pivot
	}

	tree.replaceChild(alloc[pivot].parent, pivot, child)
	alloc[pivot].parent = child

	alloc[child].size = alloc[pivot].size
	tree.resize(pivot)
}

func (tree *Tree[T]) rotateLeft(pivot uint32) {
	tree.rotate(pivot, true)
}

func (tree *Tree[T]) rotateRight(pivot uint32) {
	tree.rotate(pivot, false)
}

// swapWithSuccessor exchanges the tree positions of upper and its in-order
// successor lower, the leftmost node of upper's right subtree. Colors and
// sizes belong to positions and are exchanged too; values stay in their
// nodes, so cursors to lower remain valid.
//
//nolint:gocognit // every link around both positions is patched explicitly.
func (tree *Tree[T]) swapWithSuccessor(upper, lower uint32) {
	alloc := tree.allocator.storage
	up, low := alloc[upper], alloc[lower]

	doAssert(low.left == 0)

	tree.replaceChild(up.parent, upper, lower)

	if low.parent == upper {
		alloc[lower].right = upper
		alloc[upper].parent = lower
	} else {
		alloc[lower].right = up.right
		alloc[up.right].parent = lower

		alloc[low.parent].left = upper
		alloc[upper].parent = low.parent
	}

	alloc[lower].left = up.left
	alloc[up.left].parent = lower

	alloc[upper].left = 0
	alloc[upper].right = low.right

	if low.right != 0 {
		alloc[low.right].parent = upper
	}

	alloc[upper].color, alloc[lower].color = low.color, up.color
	alloc[upper].size, alloc[lower].size = low.size, up.size
}
