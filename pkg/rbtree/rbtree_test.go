package rbtree //nolint:testpackage // tests require access to unexported fields (storage, gaps, minNode, etc.)

import (
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Create a tree storing a set of integers.
func testNewIntSet() *Tree[int] {
	return NewOrdered[int]()
}

func boolInsert(tree *Tree[int], item int) bool {
	_, status := tree.Insert(item)

	return status
}

func testFill(tree *Tree[int], items ...int) {
	for _, item := range items {
		tree.Insert(item)
	}
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	assert.Equal(t, 0, tree.Len())
	assert.True(t, tree.Empty())
	assert.True(t, tree.Max().NegativeLimit())
	assert.True(t, tree.Min().Limit())
	assert.True(t, tree.Find(10).Limit())
	assert.True(t, tree.FindGreaterThan(10).Limit())
	assert.True(t, tree.FindLessThan(10).Limit())
	assert.True(t, tree.FindGE(10).Limit())
	assert.True(t, tree.FindLE(10).NegativeLimit())
	assert.True(t, tree.Statistic(0).Limit())
	assert.True(t, tree.Begin().Equal(tree.End()))
	assert.NoError(t, tree.Validate())

	rank, found := tree.Rank(10)
	assert.Equal(t, 0, rank)
	assert.False(t, found)
}

func TestInsertDuplicate(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()

	first, inserted := tree.Insert(10)
	require.True(t, inserted)

	second, inserted := tree.Insert(10)
	assert.False(t, inserted)
	assert.True(t, first.Equal(second))
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, 10, second.Value())
}

func TestErase(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	assert.Equal(t, 0, tree.Erase(10))
	assert.True(t, boolInsert(tree, 10))
	assert.Equal(t, 1, tree.Erase(10))
	assert.Equal(t, 0, tree.Len())

	// Erasing a missing neighbor must not touch the stored one.
	assert.True(t, boolInsert(tree, 10))
	assert.Equal(t, 0, tree.Erase(9))
	assert.Equal(t, 1, tree.Len())
	assert.True(t, tree.Contains(10))
}

func TestBoundQueries(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	testFill(tree, 3, 7, 9, 15)

	assert.Equal(t, 9, tree.FindGreaterThan(7).Value())
	assert.Equal(t, 3, tree.FindLessThan(7).Value())
	assert.True(t, tree.FindGreaterThan(15).Limit())
	assert.True(t, tree.FindLessThan(3).Limit())
	assert.Equal(t, 3, tree.FindGreaterThan(-100).Value())
	assert.Equal(t, 15, tree.FindLessThan(100).Value())
	assert.Equal(t, 9, tree.FindGreaterThan(8).Value())
	assert.Equal(t, 7, tree.FindLessThan(8).Value())

	assert.Equal(t, 7, tree.FindGE(7).Value())
	assert.Equal(t, 9, tree.FindGE(8).Value())
	assert.Equal(t, 7, tree.FindLE(7).Value())
	assert.Equal(t, 7, tree.FindLE(8).Value())
	assert.True(t, tree.FindLE(2).NegativeLimit())
	assert.True(t, tree.FindGE(16).Limit())
}

func TestStatisticAndRank(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	testFill(tree, 15, 3, 9, 7)

	for rank, want := range []int{3, 7, 9, 15} {
		assert.Equal(t, want, tree.Statistic(rank).Value(), "rank %d", rank)

		got, found := tree.Rank(want)
		assert.True(t, found)
		assert.Equal(t, rank, got)
	}

	assert.True(t, tree.Statistic(-1).Limit())
	assert.True(t, tree.Statistic(4).Limit())

	rank, found := tree.Rank(8)
	assert.False(t, found)
	assert.Equal(t, 2, rank)

	rank, found = tree.Rank(100)
	assert.False(t, found)
	assert.Equal(t, 4, rank)
}

func TestEraseAtReturnsSuccessor(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	testFill(tree, 3, 7, 9, 15)

	next := tree.EraseAt(tree.Find(9))
	assert.Equal(t, 15, next.Value())
	assert.Equal(t, 3, tree.Len())

	next = tree.EraseAt(next)
	assert.True(t, next.Limit())
	require.NoError(t, tree.Validate())
}

func TestEraseAtTwoChildrenKeepsOtherCursors(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()

	for idx := range 64 {
		boolInsert(tree, idx)
	}

	// The root has two children; its successor is moved into its position.
	root := Iterator[int]{tree, tree.root}
	rootValue := root.Value()
	succ := tree.Find(rootValue + 1)

	next := tree.EraseAt(root)
	assert.True(t, next.Equal(succ))
	assert.Equal(t, rootValue+1, succ.Value())
	assert.Equal(t, rootValue+1, next.Value())
	assert.False(t, tree.Contains(rootValue))
	require.NoError(t, tree.Validate())
}

func TestDrainFromBegin(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	rng := rand.New(rand.NewSource(7))

	for range 500 {
		boolInsert(tree, rng.Intn(2000))
	}

	prev := -1

	for it := tree.Begin(); !it.Limit(); {
		assert.Greater(t, it.Value(), prev)
		prev = it.Value()
		it = tree.EraseAt(it)
		require.NoError(t, tree.Validate())
	}

	assert.Equal(t, 0, tree.Len())
	assert.True(t, tree.Begin().Equal(tree.End()))
	assert.Equal(t, 1, tree.Allocator().Used())
}

func iterToString(iter Iterator[int]) string {
	parts := []string{}

	for ; !iter.Limit(); iter = iter.Next() {
		parts = append(parts, strconv.Itoa(iter.Value()))
	}

	return strings.Join(parts, ",")
}

func reverseIterToString(iter Iterator[int]) string {
	parts := []string{}

	for ; !iter.NegativeLimit(); iter = iter.Prev() {
		parts = append(parts, strconv.Itoa(iter.Value()))
	}

	return strings.Join(parts, ",")
}

func TestIterator(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()

	for idx := 0; idx < 10; idx += 2 {
		boolInsert(tree, idx)
	}

	assert.Equal(t, "4,6,8", iterToString(tree.FindGE(3)))
	assert.Equal(t, "4,6,8", iterToString(tree.FindGE(4)))
	assert.Equal(t, "8", iterToString(tree.FindGE(8)))
	assert.Empty(t, iterToString(tree.FindGE(9)))
	assert.Equal(t, "2,0", reverseIterToString(tree.FindLE(3)))
	assert.Equal(t, "2,0", reverseIterToString(tree.FindLE(2)))
	assert.Equal(t, "0", reverseIterToString(tree.FindLE(0)))
	assert.Equal(t, "8,6,4,2,0", reverseIterToString(tree.RBegin()))

	// Stepping back from the end and forward from before the start are O(1) shortcuts.
	assert.Equal(t, 8, tree.End().Prev().Value())
	assert.Equal(t, 0, tree.REnd().Next().Value())
	assert.Equal(t, []int{0, 2, 4, 6, 8}, slices.Collect(tree.All()))
	assert.Equal(t, []int{8, 6, 4, 2, 0}, slices.Collect(tree.Backward()))
}

func TestIteratorEarlyStop(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	testFill(tree, 1, 2, 3, 4)

	var seen []int

	for value := range tree.All() {
		if value == 3 {
			break
		}

		seen = append(seen, value)
	}

	assert.Equal(t, []int{1, 2}, seen)
}

func TestIteratorMinMax(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	testFill(tree, 5, 10, 15)

	minIter := tree.Min()
	assert.True(t, minIter.Min())
	assert.False(t, minIter.Max())
	assert.Equal(t, 5, minIter.Value())

	maxIter := tree.Max()
	assert.True(t, maxIter.Max())
	assert.False(t, maxIter.Min())
	assert.Equal(t, 15, maxIter.Value())

	midIter := tree.Find(10)
	assert.False(t, midIter.Min())
	assert.False(t, midIter.Max())

	singleTree := testNewIntSet()
	boolInsert(singleTree, 42)
	assert.True(t, singleTree.Min().Max())
	assert.True(t, singleTree.Max().Min())
}

func TestContractViolationsPanic(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	testFill(tree, 1)

	assert.Panics(t, func() { tree.End().Value() })
	assert.Panics(t, func() { tree.End().Next() })
	assert.Panics(t, func() { tree.REnd().Prev() })
	assert.Panics(t, func() { tree.EraseAt(tree.End()) })

	other := testNewIntSet()
	testFill(other, 1)
	assert.Panics(t, func() { tree.EraseAt(other.Begin()) })
}

func TestCustomComparator(t *testing.T) {
	t.Parallel()

	descending := func(a, b string) int { return strings.Compare(b, a) }
	tree := NewTree(descending, nil)

	for _, word := range []string{"pear", "apple", "fig", "apple"} {
		tree.Insert(word)
	}

	assert.Equal(t, []string{"pear", "fig", "apple"}, slices.Collect(tree.All()))
	assert.Equal(t, "apple", tree.FindGreaterThan("fig").Value())
	assert.Equal(t, "pear", tree.Statistic(0).Value())
	require.NoError(t, tree.Validate())
}

func TestClear(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int]()
	tree := NewTree(func(a, b int) int { return a - b }, alloc)

	for idx := range 10 {
		tree.Insert(idx)
	}

	assert.Equal(t, 11, alloc.Used())
	tree.Clear()
	assert.Equal(t, 1, alloc.Used())
	assert.Equal(t, 11, alloc.Size())
	assert.True(t, tree.Empty())
	assert.NoError(t, tree.Validate())

	// Freed slots are reused.
	tree.Insert(3)
	assert.Equal(t, 11, alloc.Size())
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()

	for idx := range 100 {
		tree.Insert(idx * 3)
	}

	clone, err := tree.Clone(nil)
	require.NoError(t, err)
	require.NoError(t, clone.Validate())
	assert.Equal(t, slices.Collect(tree.All()), slices.Collect(clone.All()))

	clone.Erase(0)
	clone.Insert(1)
	assert.True(t, tree.Contains(0))
	assert.False(t, tree.Contains(1))
	assert.NotSame(t, tree.Allocator(), clone.Allocator())
}

func TestCopyFrom(t *testing.T) {
	t.Parallel()

	src := testNewIntSet()
	testFill(src, 4, 5, 6)

	dst := testNewIntSet()
	testFill(dst, 1, 2)

	require.NoError(t, dst.CopyFrom(src))
	assert.Equal(t, []int{4, 5, 6}, slices.Collect(dst.All()))
	require.NoError(t, dst.CopyFrom(dst))
	assert.Equal(t, 3, dst.Len())
}

func TestSharedAllocator(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int]()
	first := NewTree(func(a, b int) int { return a - b }, alloc)
	second := NewTree(func(a, b int) int { return b - a }, alloc)

	for idx := range 50 {
		first.Insert(idx)
		second.Insert(idx)
	}

	for idx := 0; idx < 50; idx += 2 {
		first.Erase(idx)
	}

	require.NoError(t, first.Validate())
	require.NoError(t, second.Validate())
	assert.Equal(t, 25, first.Len())
	assert.Equal(t, 50, second.Len())
	assert.Equal(t, 49, second.Begin().Value())
	assert.Equal(t, 76, alloc.Used())
}

func TestAllocatorLimit(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int]()
	alloc.MaxNodes = 3
	tree := NewTree(func(a, b int) int { return a - b }, alloc)

	testFill(tree, 1, 2, 3)

	iter, inserted, err := tree.TryInsert(4)
	require.ErrorIs(t, err, ErrAllocatorExhausted)
	assert.False(t, inserted)
	assert.True(t, iter.Limit())
	assert.Equal(t, 3, tree.Len())
	require.NoError(t, tree.Validate())

	// Present values do not need a node.
	_, inserted, err = tree.TryInsert(2)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.PanicsWithValue(t, ErrAllocatorExhausted, func() { tree.Insert(5) })

	_, err = tree.Clone(alloc)
	require.ErrorIs(t, err, ErrAllocatorExhausted)
	assert.Equal(t, 3, alloc.Live())

	tree.Erase(1)
	_, inserted, err = tree.TryInsert(4)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestAllocatorFreeZero(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int]()
	_, err := alloc.malloc()
	require.NoError(t, err)
	assert.Panics(t, func() { alloc.free(0) })
}

func TestLayoutAfterInsertions(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int]()
	tree := NewTree(func(a, b int) int { return a - b }, alloc)
	testFill(tree, 1, 2, 3)

	// Inserting ascending values rotates the middle one up.
	assert.Equal(t, []node[int]{
		{},
		{value: 1, parent: 2, size: 1, color: red},
		{value: 2, left: 1, right: 3, size: 3, color: black},
		{value: 3, parent: 2, size: 1, color: red},
	}, alloc.storage)
	assert.Equal(t, uint32(2), tree.root)
	assert.Equal(t, uint32(1), tree.minNode)
	assert.Equal(t, uint32(3), tree.maxNode)
	assert.Equal(t, 2, tree.Height())
	assert.Equal(t, 1, tree.BlackHeight())
}

func TestValidateDetectsCorruption(t *testing.T) {
	t.Parallel()

	build := func() *Tree[int] {
		tree := NewTree(func(a, b int) int { return a - b }, nil)
		testFill(tree, 1, 2, 3)

		return tree
	}

	tree := build()
	tree.allocator.storage[tree.root].color = red
	require.ErrorIs(t, tree.Validate(), ErrRootColor)

	tree = build()
	tree.allocator.storage[tree.root].size = 7
	require.ErrorIs(t, tree.Validate(), ErrSizeMismatch)

	tree = build()
	tree.allocator.storage[1].value = 5
	require.ErrorIs(t, tree.Validate(), ErrOrderViolation)

	tree = build()
	tree.allocator.storage[3].color = black
	require.ErrorIs(t, tree.Validate(), ErrBlackHeight)

	tree = build()
	tree.allocator.storage[1].parent = 3
	require.ErrorIs(t, tree.Validate(), ErrParentLink)

	tree = build()
	tree.minNode = 2
	require.ErrorIs(t, tree.Validate(), ErrBounds)
}

func TestValidateRedViolation(t *testing.T) {
	t.Parallel()

	tree := NewTree(func(a, b int) int { return a - b }, nil)
	testFill(tree, 10, 5, 15, 1)

	// 5 and 15 are black after the recolor, 1 is red; make 5 red too.
	fiveIdx := tree.Find(5).node
	tree.allocator.storage[fiveIdx].color = red
	require.ErrorIs(t, tree.Validate(), ErrRedViolation)
}

// Randomized tests.

// oracle provides an interface similar to Tree, but stores
// data in a sorted slice.
type oracle struct {
	data []int
}

func (o *oracle) Insert(key int) bool {
	pos, found := slices.BinarySearch(o.data, key)
	if found {
		return false
	}

	o.data = slices.Insert(o.data, pos, key)

	return true
}

func (o *oracle) Delete(key int) bool {
	pos, found := slices.BinarySearch(o.data, key)
	if !found {
		return false
	}

	o.data = slices.Delete(o.data, pos, pos+1)

	return true
}

func (o *oracle) RandomExistingKey(rng *rand.Rand) int {
	return o.data[rng.Intn(len(o.data))]
}

// greaterThan returns the index of the first element > key, len(data) if none.
func (o *oracle) greaterThan(key int) int {
	pos, found := slices.BinarySearch(o.data, key)
	if found {
		pos++
	}

	return pos
}

// lessThan returns the index of the last element < key, -1 if none.
func (o *oracle) lessThan(key int) int {
	pos, _ := slices.BinarySearch(o.data, key)

	return pos - 1
}

func compareContentsFull(tb testing.TB, orc *oracle, tree *Tree[int]) {
	tb.Helper()

	require.NoError(tb, tree.Validate())
	require.Equal(tb, len(orc.data), tree.Len())
	require.Equal(tb, orc.data, append([]int{}, slices.Collect(tree.All())...))

	reversed := slices.Clone(orc.data)
	slices.Reverse(reversed)
	require.Equal(tb, reversed, append([]int{}, slices.Collect(tree.Backward())...))
}

func TestRandomized(t *testing.T) {
	t.Parallel()

	const numKeys = 1000

	orc := &oracle{}
	tree := testNewIntSet()
	rng := rand.New(rand.NewSource(0))

	for range 10000 {
		op := rng.Intn(100)

		switch {
		case op < 45:
			key := rng.Intn(numKeys)
			require.Equal(t, orc.Insert(key), boolInsert(tree, key))
			compareContentsFull(t, orc, tree)
		case op < 75 && len(orc.data) > 0:
			key := orc.RandomExistingKey(rng)
			orc.Delete(key)
			require.Equal(t, 1, tree.Erase(key), "DeleteExisting %d", key)
			compareContentsFull(t, orc, tree)
		case op < 80 && len(orc.data) > 0:
			key := orc.RandomExistingKey(rng)
			next := tree.EraseAt(tree.Find(key))
			pos := orc.greaterThan(key)
			orc.Delete(key)

			if pos-1 < len(orc.data) {
				require.Equal(t, orc.data[pos-1], next.Value())
			} else {
				require.True(t, next.Limit())
			}

			compareContentsFull(t, orc, tree)
		case op < 85:
			key := rng.Intn(numKeys)
			require.Equal(t, 0, tree.Erase(key+numKeys))

			pos := orc.greaterThan(key)
			got := tree.FindGreaterThan(key)

			if pos < len(orc.data) {
				require.Equal(t, orc.data[pos], got.Value())
			} else {
				require.True(t, got.Limit())
			}
		case op < 90:
			key := rng.Intn(numKeys)
			pos := orc.lessThan(key)
			got := tree.FindLessThan(key)

			if pos >= 0 {
				require.Equal(t, orc.data[pos], got.Value())
			} else {
				require.True(t, got.Limit())
			}
		case op < 95 && len(orc.data) > 0:
			rank := rng.Intn(len(orc.data))
			require.Equal(t, orc.data[rank], tree.Statistic(rank).Value())

			got, found := tree.Rank(orc.data[rank])
			require.True(t, found)
			require.Equal(t, rank, got)
		default:
			key := rng.Intn(numKeys)
			pos, found := slices.BinarySearch(orc.data, key)
			got, treeFound := tree.Rank(key)
			require.Equal(t, found, treeFound)
			require.Equal(t, pos, got)
		}
	}
}

func TestSequentialPatterns(t *testing.T) {
	t.Parallel()

	const count = 300

	patterns := map[string]func(int) int{
		"ascending":  func(idx int) int { return idx },
		"descending": func(idx int) int { return count - idx },
		"zigzag": func(idx int) int {
			if idx%2 == 0 {
				return idx
			}

			return 2*count - idx
		},
	}

	for name, pattern := range patterns {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tree := testNewIntSet()
			for idx := range count {
				tree.Insert(pattern(idx))
				require.NoError(t, tree.Validate())
			}

			// A red-black tree never gets taller than twice its black height.
			assert.LessOrEqual(t, tree.Height(), 2*tree.BlackHeight())

			for idx := range count {
				require.Equal(t, 1, tree.Erase(pattern(idx)))
				require.NoError(t, tree.Validate())
			}

			assert.True(t, tree.Empty())
		})
	}
}

func BenchmarkInsertErase(b *testing.B) {
	tree := testNewIntSet()
	rng := rand.New(rand.NewSource(1))

	b.ResetTimer()

	for range b.N {
		key := rng.Intn(1 << 16)
		if _, inserted := tree.Insert(key); !inserted {
			tree.Erase(key)
		}
	}
}
