package view

import "github.com/fluxterm/fluxterm/pkg/delta"

// FilteredListView maintains a predicate-filtered subset of a keyed
// collection. It tracks every inserted (key, value) pair and keeps the
// visible subset exactly equal to the pairs passing the predicate, at every
// point of the delta sequence.
//
// Output deltas reflect visibility transitions only: an insert that makes a
// key visible or changes a visible key's value emits an insert; an insert
// that hides a visible key emits a delete; re-inserting an identical value
// with an unchanged predicate result emits nothing. Deleting an absent key
// is a silent no-op.
type FilteredListView[K comparable, V comparable] struct {
	label   string
	pred    Predicate[K, V]
	all     map[K]V
	order   []K // first-insertion order of live keys
	visible map[K]struct{}
}

var _ IncrementalView[int, int] = &FilteredListView[int, int]{}

// NewFilteredListView creates an empty filtered view over the given
// predicate.
func NewFilteredListView[K comparable, V comparable](label string, pred Predicate[K, V]) *FilteredListView[K, V] {
	return &FilteredListView[K, V]{
		label:   label,
		pred:    pred,
		all:     make(map[K]V),
		visible: make(map[K]struct{}),
	}
}

// Label returns the view's name.
func (v *FilteredListView[K, V]) Label() string { return v.label }

// Domain returns DomainFilteredList.
func (v *FilteredListView[K, V]) Domain() Domain { return DomainFilteredList }

// ApplyDelta replays the batch entry by entry, in order, and returns the
// visibility transitions it caused.
func (v *FilteredListView[K, V]) ApplyDelta(batch *delta.Batch[K, V]) *delta.Batch[K, V] {
	out := delta.NewBatch[K, V](batch.Epoch())

	for _, entry := range batch.Entries() {
		switch e := entry.(type) {
		case delta.Insert[K, V]:
			v.applyInsert(e, out)
		case delta.Delete[K, V]:
			v.applyDelete(e, out)
		}
	}

	return out
}

func (v *FilteredListView[K, V]) applyInsert(e delta.Insert[K, V], out *delta.Batch[K, V]) {
	key, value := e.Key(), e.Value()
	old, tracked := v.all[key]
	if !tracked {
		v.order = append(v.order, key)
	}
	v.all[key] = value

	_, wasVisible := v.visible[key]
	nowVisible := v.pred(key, value)

	switch {
	case nowVisible && !wasVisible:
		v.visible[key] = struct{}{}
		out.Insert(key, value, e.LogicalTime())
	case !nowVisible && wasVisible:
		delete(v.visible, key)
		out.Delete(key, e.LogicalTime())
	case nowVisible && wasVisible && value != old:
		// Value changed while staying visible.
		out.Insert(key, value, e.LogicalTime())
	}
	// Unchanged value with unchanged visibility is a no-op.
}

func (v *FilteredListView[K, V]) applyDelete(e delta.Delete[K, V], out *delta.Batch[K, V]) {
	key := e.Key()
	if _, tracked := v.all[key]; !tracked {
		return
	}
	delete(v.all, key)
	v.dropFromOrder(key)

	if _, wasVisible := v.visible[key]; wasVisible {
		delete(v.visible, key)
		out.Delete(key, e.LogicalTime())
	}
}

func (v *FilteredListView[K, V]) dropFromOrder(key K) {
	for i, k := range v.order {
		if k == key {
			v.order = append(v.order[:i], v.order[i+1:]...)
			return
		}
	}
}

// FullRecompute re-applies the predicate over the full tracked set. The
// result is the ground truth the incremental path must match.
func (v *FilteredListView[K, V]) FullRecompute() []delta.Pair[K, V] {
	result := make([]delta.Pair[K, V], 0, len(v.visible))
	for _, key := range v.order {
		value := v.all[key]
		if v.pred(key, value) {
			result = append(result, delta.Pair[K, V]{Key: key, Value: value})
		}
	}
	return result
}

// MaterializedSize returns the number of visible entries.
func (v *FilteredListView[K, V]) MaterializedSize() int { return len(v.visible) }

// VisibleCount returns the number of entries passing the predicate.
func (v *FilteredListView[K, V]) VisibleCount() int { return len(v.visible) }

// TotalCount returns the number of tracked entries, visible or not.
func (v *FilteredListView[K, V]) TotalCount() int { return len(v.all) }
