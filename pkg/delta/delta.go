// Package delta implements the signed-delta algebra that carries all state
// changes through the incremental view maintenance pipeline. A change is
// encoded as an ordered, epoch-tagged batch of keyed insert/delete entries;
// views consume input batches and emit output batches, and no other
// mutation channel exists.
//
// The encoding follows the standard IVM signed-tuple model: an insert
// carries weight +1, a delete weight -1, and a fully cancelling sequence
// for one key sums its weights to zero.
package delta

// Entry is a single signed delta: either an Insert carrying a value or a
// Delete. It is a closed sum type; the only implementations are Insert and
// Delete in this package, so a type switch over the two variants is
// exhaustive.
type Entry[K comparable, V any] interface {
	// Key returns the key affected by this entry.
	Key() K
	// LogicalTime returns the monotonic counter ordering entries within a
	// batch. It carries no wall-clock meaning.
	LogicalTime() uint64
	// Weight returns the signed weight: +1 for Insert, -1 for Delete.
	Weight() int
	// IsInsert reports whether this entry is an Insert.
	IsInsert() bool

	sealedEntry()
}

// Insert is a delta entry that adds or replaces the mapping at a key.
type Insert[K comparable, V any] struct {
	key   K
	value V
	at    uint64
}

// NewInsert builds an Insert entry.
func NewInsert[K comparable, V any](key K, value V, logicalTime uint64) Insert[K, V] {
	return Insert[K, V]{key: key, value: value, at: logicalTime}
}

func (e Insert[K, V]) Key() K              { return e.key }
func (e Insert[K, V]) LogicalTime() uint64 { return e.at }
func (e Insert[K, V]) Weight() int         { return 1 }
func (e Insert[K, V]) IsInsert() bool      { return true }
func (e Insert[K, V]) sealedEntry()        {}

// Value returns the inserted value.
func (e Insert[K, V]) Value() V { return e.value }

// Delete is a delta entry that removes the mapping at a key.
type Delete[K comparable, V any] struct {
	key K
	at  uint64
}

// NewDelete builds a Delete entry.
func NewDelete[K comparable, V any](key K, logicalTime uint64) Delete[K, V] {
	return Delete[K, V]{key: key, at: logicalTime}
}

func (e Delete[K, V]) Key() K              { return e.key }
func (e Delete[K, V]) LogicalTime() uint64 { return e.at }
func (e Delete[K, V]) Weight() int         { return -1 }
func (e Delete[K, V]) IsInsert() bool      { return false }
func (e Delete[K, V]) sealedEntry()        {}

// Pair is a materialized (key, value) tuple, the element type of full
// recomputation results.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Batch is an ordered sequence of delta entries tagged with the epoch it
// belongs to. Entries are applied in append order; logical times break ties
// for consumers that re-sort.
type Batch[K comparable, V any] struct {
	epoch   uint64
	entries []Entry[K, V]
}

// NewBatch creates an empty batch for the given epoch.
func NewBatch[K comparable, V any](epoch uint64) *Batch[K, V] {
	return &Batch[K, V]{epoch: epoch}
}

// Epoch returns the epoch this batch belongs to.
func (b *Batch[K, V]) Epoch() uint64 { return b.epoch }

// Len returns the number of entries in the batch.
func (b *Batch[K, V]) Len() int { return len(b.entries) }

// IsEmpty reports whether the batch has no entries.
func (b *Batch[K, V]) IsEmpty() bool { return len(b.entries) == 0 }

// Insert appends an insert entry. It cannot fail.
func (b *Batch[K, V]) Insert(key K, value V, logicalTime uint64) {
	b.entries = append(b.entries, NewInsert(key, value, logicalTime))
}

// Delete appends a delete entry. It cannot fail.
func (b *Batch[K, V]) Delete(key K, logicalTime uint64) {
	b.entries = append(b.entries, NewDelete[K, V](key, logicalTime))
}

// Append adds an already-built entry, preserving order.
func (b *Batch[K, V]) Append(entry Entry[K, V]) {
	b.entries = append(b.entries, entry)
}

// Entries returns the entries in application order. The slice is shared
// with the batch; callers must not mutate it.
func (b *Batch[K, V]) Entries() []Entry[K, V] { return b.entries }

// Extend appends every entry of other, preserving both orders. Used by the
// orchestrator to merge the output of several upstream views into one input
// batch for a downstream view.
func (b *Batch[K, V]) Extend(other *Batch[K, V]) {
	if other == nil {
		return
	}
	b.entries = append(b.entries, other.entries...)
}
