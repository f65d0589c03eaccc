package rbtree

import (
	"hash/fnv"
	"sync"
)

// minHibernationThreshold is the minimal reasonable default if division results in 0.
const minHibernationThreshold = 1000

// ShardedAllocator spreads the trees of many named sets over several Allocators,
// so that idle shards can be hibernated and booted in parallel.
type ShardedAllocator[T any] struct {
	shards []*Allocator[T]
}

// NewShardedAllocator creates a new ShardedAllocator with shardCount shards.
// hibernationThreshold is split evenly between the shards; maxNodes is applied
// to every shard as is.
func NewShardedAllocator[T any](shardCount, hibernationThreshold, maxNodes int) *ShardedAllocator[T] {
	if shardCount <= 0 {
		shardCount = 1
	}

	shards := make([]*Allocator[T], shardCount)

	for idx := range shardCount {
		shards[idx] = NewAllocator[T]()
		shards[idx].MaxNodes = maxNodes

		if hibernationThreshold > 0 {
			shards[idx].HibernationThreshold = hibernationThreshold / shardCount
			if shards[idx].HibernationThreshold == 0 {
				shards[idx].HibernationThreshold = minHibernationThreshold
			}
		}
	}

	return &ShardedAllocator[T]{shards: shards}
}

// GetShard returns the allocator shard for the given set name.
func (sa *ShardedAllocator[T]) GetShard(name string) *Allocator[T] {
	hasher := fnv.New32a()
	hasher.Write([]byte(name))

	return sa.shards[hasher.Sum32()%uint32(len(sa.shards))]
}

// Shards returns all underlying allocators.
func (sa *ShardedAllocator[T]) Shards() []*Allocator[T] {
	return sa.shards
}

// Hibernate hibernates all shards in parallel, ignoring their thresholds.
// Already hibernated shards are skipped.
func (sa *ShardedAllocator[T]) Hibernate() {
	wg := sync.WaitGroup{}
	wg.Add(len(sa.shards))

	for _, shard := range sa.shards {
		go func(alloc *Allocator[T]) {
			defer wg.Done()

			if alloc.Hibernated() {
				return
			}

			originalThreshold := alloc.HibernationThreshold
			alloc.HibernationThreshold = 0
			alloc.Hibernate()
			alloc.HibernationThreshold = originalThreshold
		}(shard)
	}

	wg.Wait()
}

// HibernateIdle hibernates, in parallel, the awake shards whose arena has
// reached their HibernationThreshold. It returns the shards it compressed.
func (sa *ShardedAllocator[T]) HibernateIdle() []*Allocator[T] {
	compressed := make([]bool, len(sa.shards))

	wg := sync.WaitGroup{}
	wg.Add(len(sa.shards))

	for idx, shard := range sa.shards {
		go func(shardIdx int, alloc *Allocator[T]) {
			defer wg.Done()

			if alloc.Hibernated() {
				return
			}

			alloc.Hibernate()
			compressed[shardIdx] = alloc.Hibernated()
		}(idx, shard)
	}

	wg.Wait()

	var result []*Allocator[T]

	for idx, shard := range sa.shards {
		if compressed[idx] {
			result = append(result, shard)
		}
	}

	return result
}

// Boot boots all shards in parallel.
func (sa *ShardedAllocator[T]) Boot() {
	wg := sync.WaitGroup{}
	wg.Add(len(sa.shards))

	for _, shard := range sa.shards {
		go func(alloc *Allocator[T]) {
			defer wg.Done()

			alloc.Boot()
		}(shard)
	}

	wg.Wait()
}
