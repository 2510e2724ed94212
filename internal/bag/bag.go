// Package bag implements an alternative BFS frontier representation: a
// set-like (key id) -> (parent id) mapping, sharded by the low bits of
// the key so that Split can hand out roughly even shares of work to BFS
// workers without rehashing. A Bag is not safe for concurrent use — a
// caller gives each worker its own input and output Bag and merges
// between rounds under a single-owner-per-shard-set discipline.
package bag

import (
	"sort"

	"github.com/pathgraph/wikipath/internal/wikipath"
)

// hashBits controls the shard count (1<<hashBits). 16 bits gives 65,536
// shards, a good balance between per-shard contention and per-Bag
// overhead for corpora in the tens-of-millions-of-articles range.
const hashBits = 16
const numShards = 1 << hashBits
const shardMask = numShards - 1

// entry is one key->parent pair held by a shard.
type entry struct {
	key    wikipath.ArticleID
	parent wikipath.ArticleID
}

// Bag is a sharded, ordered (key -> parent) set with first-writer-wins
// semantics on duplicate keys.
type Bag struct {
	shards [numShards][]entry
	size   int
}

// New returns an empty Bag.
func New() *Bag {
	return &Bag{}
}

func shardOf(key wikipath.ArticleID) uint32 {
	return uint32(key) & shardMask
}

// Insert adds (key, parent) if key is not already present; it is a no-op
// on a duplicate key, so the first writer for any key always wins.
func (b *Bag) Insert(key, parent wikipath.ArticleID) {
	s := shardOf(key)
	shard := b.shards[s]
	i := sort.Search(len(shard), func(i int) bool { return shard[i].key >= key })
	if i < len(shard) && shard[i].key == key {
		return
	}
	shard = append(shard, entry{})
	copy(shard[i+1:], shard[i:])
	shard[i] = entry{key: key, parent: parent}
	b.shards[s] = shard
	b.size++
}

// Find returns the parent stored for key, or 0 if key is absent.
func (b *Bag) Find(key wikipath.ArticleID) wikipath.ArticleID {
	shard := b.shards[shardOf(key)]
	i := sort.Search(len(shard), func(i int) bool { return shard[i].key >= key })
	if i < len(shard) && shard[i].key == key {
		return shard[i].parent
	}
	return 0
}

// Len returns the number of distinct keys in the bag.
func (b *Bag) Len() int {
	return b.size
}

// Merge moves every entry of other into b, clearing other. Keys present
// in both bags keep b's existing (earlier) parent, preserving
// first-writer-wins across a merge.
func (b *Bag) Merge(other *Bag) {
	for s := range other.shards {
		for _, e := range other.shards[s] {
			b.Insert(e.key, e.parent)
		}
		other.shards[s] = nil
	}
	other.size = 0
}

// Split moves roughly half of each shard's entries into a new Bag,
// returning it. Splitting by shard rather than by a single cut point
// keeps both halves' hash distribution representative, which is what
// lets BFS hand a split half to another worker without skewing its
// share of any one hash bucket.
func (b *Bag) Split() *Bag {
	other := New()
	for s := range b.shards {
		shard := b.shards[s]
		if len(shard) < 2 {
			continue
		}
		cut := len(shard) / 2
		other.shards[s] = append(other.shards[s], shard[cut:]...)
		b.shards[s] = shard[:cut]
		other.size += len(shard) - cut
		b.size -= len(shard) - cut
	}
	return other
}

// ForEach iterates every (key, parent) pair in an unspecified but stable
// order (ascending within each shard, shards visited in index order).
func (b *Bag) ForEach(f func(key, parent wikipath.ArticleID)) {
	for s := range b.shards {
		for _, e := range b.shards[s] {
			f(e.key, e.parent)
		}
	}
}

// Keys returns every key in the bag, in the same stable order as ForEach.
func (b *Bag) Keys() []wikipath.ArticleID {
	keys := make([]wikipath.ArticleID, 0, b.size)
	b.ForEach(func(key, _ wikipath.ArticleID) {
		keys = append(keys, key)
	})
	return keys
}
