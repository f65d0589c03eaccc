package script

import (
	"cmp"
	"slices"

	"github.com/Sumatoshi-tech/ordset/pkg/rbtree"
)

// DefaultSet is the set commands act on before the first use.
const DefaultSet = "default"

// Registry owns the named sets of a script run. Sets are created on first use
// and placed on an allocator shard picked by name.
type Registry struct {
	alloc *rbtree.ShardedAllocator[int64]
	sets  map[string]*rbtree.Tree[int64]
}

// NewRegistry creates an empty registry over alloc.
func NewRegistry(alloc *rbtree.ShardedAllocator[int64]) *Registry {
	return &Registry{alloc: alloc, sets: map[string]*rbtree.Tree[int64]{}}
}

// Get returns the set called name, creating it if needed.
func (r *Registry) Get(name string) *rbtree.Tree[int64] {
	tree, exists := r.sets[name]
	if !exists {
		tree = rbtree.NewTree(cmp.Compare[int64], r.alloc.GetShard(name))
		r.sets[name] = tree
	}

	return tree
}

// Lookup returns the set called name if it was ever used.
func (r *Registry) Lookup(name string) (*rbtree.Tree[int64], bool) {
	tree, exists := r.sets[name]

	return tree, exists
}

// Names returns the set names in ascending order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Allocator returns the sharded allocator backing the sets.
func (r *Registry) Allocator() *rbtree.ShardedAllocator[int64] {
	return r.alloc
}

// shardIndex returns the position of the shard holding name.
func (r *Registry) shardIndex(name string) int {
	return slices.Index(r.alloc.Shards(), r.alloc.GetShard(name))
}

// SetStats describes one set and the arena shard it lives on.
type SetStats struct {
	Name        string `json:"name"         yaml:"name"`
	Size        int    `json:"size"         yaml:"size"`
	Height      int    `json:"height"       yaml:"height"`
	BlackHeight int    `json:"black_height" yaml:"black_height"`
	Shard       int    `json:"shard"        yaml:"shard"`
	ArenaUsed   int    `json:"arena_used"   yaml:"arena_used"`
	ArenaSize   int    `json:"arena_size"   yaml:"arena_size"`
	ArenaBytes  uint64 `json:"arena_bytes"  yaml:"arena_bytes"`
}

// Stats reports every set in name order. The allocator must be awake.
func (r *Registry) Stats() []SetStats {
	names := r.Names()
	stats := make([]SetStats, 0, len(names))

	for _, name := range names {
		tree := r.sets[name]
		shard := tree.Allocator()

		stats = append(stats, SetStats{
			Name:        name,
			Size:        tree.Len(),
			Height:      tree.Height(),
			BlackHeight: tree.BlackHeight(),
			Shard:       r.shardIndex(name),
			ArenaUsed:   shard.Used(),
			ArenaSize:   shard.Size(),
			ArenaBytes:  shard.Bytes(),
		})
	}

	return stats
}

// Hibernate compresses every shard and returns the compressed size.
func (r *Registry) Hibernate() uint64 {
	r.alloc.Hibernate()

	var total uint64
	for _, shard := range r.alloc.Shards() {
		total += shard.HibernatedBytes()
	}

	return total
}

// HibernateIdle compresses only the shards whose arena reached the
// hibernation threshold. It returns their compressed size and count.
func (r *Registry) HibernateIdle() (uint64, int) {
	shards := r.alloc.HibernateIdle()

	var total uint64
	for _, shard := range shards {
		total += shard.HibernatedBytes()
	}

	return total, len(shards)
}

// Boot restores every shard.
func (r *Registry) Boot() {
	r.alloc.Boot()
}
