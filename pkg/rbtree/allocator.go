package rbtree

import (
	"errors"
	"math"
	"slices"
	"sync"
	"unsafe"

	"github.com/Sumatoshi-tech/ordset/pkg/safeconv"
)

// ErrAllocatorExhausted is returned when the allocator cannot hand out another node,
// either because MaxNodes is reached or because the uint32 index space is used up.
var ErrAllocatorExhausted = errors.New("rbtree allocator exhausted")

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor used on Boot.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

// Hibernated link columns, in hibernatedData order.
const (
	columnLeft = iota
	columnRight
	columnParent
	columnSize
	columnColor
	columnGaps
	columnCount
)

// Allocator is the arena for the nodes of one or more trees. Slot 0 is the
// shared black sentinel and is never handed out.
type Allocator[T any] struct {
	storage          []node[T]
	gaps             map[uint32]bool
	hibernatedData   [columnCount][]byte
	hibernatedValues []T

	// HibernationThreshold is the minimal arena length Hibernate compresses.
	HibernationThreshold int
	// MaxNodes caps the number of live nodes. Zero means no cap below the index space.
	MaxNodes int

	hibernatedStorageLen int
	hibernatedGapsLen    int
}

// NewAllocator creates a new allocator for tree nodes.
func NewAllocator[T any]() *Allocator[T] {
	return &Allocator[T]{
		storage: []node[T]{},
		gaps:    map[uint32]bool{},
	}
}

// Size returns the currently allocated arena length, the sentinel slot included.
func (allocator *Allocator[T]) Size() int {
	return len(allocator.storage)
}

// Used returns the number of slots in use, the sentinel slot included.
func (allocator *Allocator[T]) Used() int {
	allocator.assertAwake()

	return len(allocator.storage) - len(allocator.gaps)
}

// Live returns the number of nodes currently owned by trees.
func (allocator *Allocator[T]) Live() int {
	used := allocator.Used()
	if used == 0 {
		return 0
	}

	return used - 1
}

// NodeSize returns the in-memory size of one arena slot holding a T.
func NodeSize[T any]() uint64 {
	return uint64(unsafe.Sizeof(node[T]{}))
}

// NodeSize returns the in-memory size of one arena slot.
func (allocator *Allocator[T]) NodeSize() uint64 {
	return NodeSize[T]()
}

// Bytes returns the memory reserved by the arena backing array.
func (allocator *Allocator[T]) Bytes() uint64 {
	return uint64(cap(allocator.storage)) * allocator.NodeSize()
}

// HibernatedBytes returns the size of the compressed link columns, zero
// while the allocator is awake. Values are kept aside uncompressed and are
// not counted.
func (allocator *Allocator[T]) HibernatedBytes() uint64 {
	var total uint64

	for _, column := range allocator.hibernatedData {
		total += uint64(len(column))
	}

	return total
}

// Hibernated reports whether the allocator is compressed and unusable until Boot.
func (allocator *Allocator[T]) Hibernated() bool {
	return allocator.storage == nil
}

// Hibernate compresses the link columns of the arena. Values are moved aside
// untouched since their type is opaque to the allocator.
func (allocator *Allocator[T]) Hibernate() {
	if allocator.hibernatedStorageLen > 0 {
		panic("cannot hibernate an already hibernated Allocator")
	}

	if len(allocator.storage) < allocator.HibernationThreshold {
		return
	}

	allocator.hibernatedStorageLen = len(allocator.storage)
	if allocator.hibernatedStorageLen == 0 {
		allocator.storage = nil
		allocator.gaps = nil

		return
	}

	buffers := [columnGaps][]uint32{}

	for idx := range buffers {
		buffers[idx] = make([]uint32, len(allocator.storage))
	}

	allocator.hibernatedValues = make([]T, len(allocator.storage))

	// Deinterleaving keeps each column homogeneous, which compresses better.
	for idx, nd := range allocator.storage {
		buffers[columnLeft][idx] = nd.left
		buffers[columnRight][idx] = nd.right
		buffers[columnParent][idx] = nd.parent
		buffers[columnSize][idx] = nd.size

		if nd.color == red {
			buffers[columnColor][idx] = 1
		}

		allocator.hibernatedValues[idx] = nd.value
	}

	allocator.storage = nil

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx, buffer := range buffers {
		go func(bufIdx int, buf []uint32) {
			defer wg.Done()

			allocator.hibernatedData[bufIdx] = mustCompress(buf)
		}(idx, buffer)
	}

	go func() {
		defer wg.Done()

		if len(allocator.gaps) > 0 {
			allocator.hibernatedGapsLen = len(allocator.gaps)

			gapsBuffer := make([]uint32, 0, len(allocator.gaps))
			for key := range allocator.gaps {
				gapsBuffer = append(gapsBuffer, key)
			}

			slices.Sort(gapsBuffer)
			DeltaEncodeUInt32Slice(gapsBuffer)

			allocator.hibernatedData[columnGaps] = mustCompress(gapsBuffer)
		}

		allocator.gaps = nil
	}()

	wg.Wait()
}

// Boot performs the opposite of Hibernate: decompresses and restores the arena.
func (allocator *Allocator[T]) Boot() {
	if allocator.storage != nil {
		return
	}

	if allocator.hibernatedStorageLen == 0 {
		allocator.storage = []node[T]{}
		allocator.gaps = map[uint32]bool{}

		return
	}

	allocator.gaps = map[uint32]bool{}
	buffers := [columnGaps][]uint32{}

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx := range buffers {
		go func(bufIdx int) {
			defer wg.Done()

			buffers[bufIdx] = make([]uint32, allocator.hibernatedStorageLen)
			mustDecompress(allocator.hibernatedData[bufIdx], buffers[bufIdx])
			allocator.hibernatedData[bufIdx] = nil
		}(idx)
	}

	go func() {
		defer wg.Done()

		if allocator.hibernatedGapsLen == 0 {
			return
		}

		buffer := make([]uint32, allocator.hibernatedGapsLen)
		mustDecompress(allocator.hibernatedData[columnGaps], buffer)
		DeltaDecodeUInt32Slice(buffer)

		for _, key := range buffer {
			allocator.gaps[key] = true
		}

		allocator.hibernatedData[columnGaps] = nil
		allocator.hibernatedGapsLen = 0
	}()

	wg.Wait()

	capSize := (allocator.hibernatedStorageLen * growCapacityNumerator) / growCapacityDenominator
	allocator.storage = make([]node[T], allocator.hibernatedStorageLen, capSize)

	for idx := range allocator.storage {
		nd := &allocator.storage[idx]
		nd.value = allocator.hibernatedValues[idx]
		nd.left = buffers[columnLeft][idx]
		nd.right = buffers[columnRight][idx]
		nd.parent = buffers[columnParent][idx]
		nd.size = buffers[columnSize][idx]
		nd.color = buffers[columnColor][idx] > 0
	}

	allocator.hibernatedValues = nil
	allocator.hibernatedStorageLen = 0
}

func mustCompress(column []uint32) []byte {
	packed, err := CompressUInt32Slice(column)
	if err != nil {
		panic("rbtree hibernation: " + err.Error())
	}

	return packed
}

func mustDecompress(packed []byte, column []uint32) {
	err := DecompressUInt32Slice(packed, column)
	if err != nil {
		panic("rbtree boot: " + err.Error())
	}
}

func (allocator *Allocator[T]) assertAwake() {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}
}

func (allocator *Allocator[T]) malloc() (uint32, error) {
	allocator.assertAwake()

	if allocator.MaxNodes > 0 && allocator.Live() >= allocator.MaxNodes {
		return 0, ErrAllocatorExhausted
	}

	if len(allocator.gaps) > 0 {
		var key uint32

		for key = range allocator.gaps {
			break
		}

		delete(allocator.gaps, key)

		return key, nil
	}

	nodeLen := len(allocator.storage)
	if nodeLen == 0 {
		// Zero is the sentinel.
		allocator.storage = append(allocator.storage, node[T]{})
		nodeLen = 1
	}

	if uint64(nodeLen) >= math.MaxUint32 {
		// [math.MaxUint32] marks the position before the minimum.
		return 0, ErrAllocatorExhausted
	}

	allocator.storage = append(allocator.storage, node[T]{})

	return safeconv.MustIntToUint32(nodeLen), nil
}

func (allocator *Allocator[T]) free(nodeIdx uint32) {
	allocator.assertAwake()

	if nodeIdx == 0 {
		panic("node #0 is special and cannot be deallocated")
	}

	_, exists := allocator.gaps[nodeIdx]
	doAssert(!exists)

	allocator.storage[nodeIdx] = node[T]{}
	allocator.gaps[nodeIdx] = true
}
