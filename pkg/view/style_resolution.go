package view

import "github.com/fluxterm/fluxterm/pkg/delta"

// StyleResolutionView resolves per-key styles as the XOR of a base style
// hash with the most recent live override for the key. XOR composition
// makes cancellation algebraic: toggling an override on and off restores
// the base resolution without replaying history.
//
// An insert stores the override hash for the key; re-inserting an identical
// hash emits nothing. A delete drops the override; a key without a live
// override is absent from the materialization. Changing the base hash with
// SetBase re-resolves every key on the next FullRecompute without touching
// the override map.
type StyleResolutionView struct {
	label     string
	baseHash  uint64
	overrides map[StyleKey]uint64
	order     []StyleKey // first-insertion order of live keys
}

var _ IncrementalView[StyleKey, ResolvedStyleValue] = &StyleResolutionView{}

// NewStyleResolutionView creates an empty view resolving against the given
// base style hash.
func NewStyleResolutionView(label string, baseHash uint64) *StyleResolutionView {
	return &StyleResolutionView{
		label:     label,
		baseHash:  baseHash,
		overrides: make(map[StyleKey]uint64),
	}
}

// Label returns the view's name.
func (v *StyleResolutionView) Label() string { return v.label }

// Domain returns DomainStyle.
func (v *StyleResolutionView) Domain() Domain { return DomainStyle }

// BaseHash returns the current base style hash.
func (v *StyleResolutionView) BaseHash() uint64 { return v.baseHash }

// SetBase swaps the base style hash (a theme change). Overrides are
// untouched; resolutions pick up the new base.
func (v *StyleResolutionView) SetBase(baseHash uint64) { v.baseHash = baseHash }

// ApplyDelta ingests override changes. Inserted values carry the override
// hash in StyleHash; output entries carry the resolved value
// (base XOR override) for every key whose resolution changed.
func (v *StyleResolutionView) ApplyDelta(batch *delta.Batch[StyleKey, ResolvedStyleValue]) *delta.Batch[StyleKey, ResolvedStyleValue] {
	out := delta.NewBatch[StyleKey, ResolvedStyleValue](batch.Epoch())

	for _, entry := range batch.Entries() {
		switch e := entry.(type) {
		case delta.Insert[StyleKey, ResolvedStyleValue]:
			key, override := e.Key(), e.Value().StyleHash
			old, live := v.overrides[key]
			if live && old == override {
				continue
			}
			if !live {
				v.order = append(v.order, key)
			}
			v.overrides[key] = override
			out.Insert(key, ResolvedStyleValue{StyleHash: v.baseHash ^ override}, e.LogicalTime())
		case delta.Delete[StyleKey, ResolvedStyleValue]:
			key := e.Key()
			if _, live := v.overrides[key]; !live {
				continue
			}
			delete(v.overrides, key)
			v.dropFromOrder(key)
			out.Delete(key, e.LogicalTime())
		}
	}

	return out
}

func (v *StyleResolutionView) dropFromOrder(key StyleKey) {
	for i, k := range v.order {
		if k == key {
			v.order = append(v.order[:i], v.order[i+1:]...)
			return
		}
	}
}

// FullRecompute resolves every key with a live override from scratch.
func (v *StyleResolutionView) FullRecompute() []delta.Pair[StyleKey, ResolvedStyleValue] {
	result := make([]delta.Pair[StyleKey, ResolvedStyleValue], 0, len(v.overrides))
	for _, key := range v.order {
		override := v.overrides[key]
		result = append(result, delta.Pair[StyleKey, ResolvedStyleValue]{
			Key:   key,
			Value: ResolvedStyleValue{StyleHash: v.baseHash ^ override},
		})
	}
	return result
}

// MaterializedSize returns the number of keys with a live override.
func (v *StyleResolutionView) MaterializedSize() int { return len(v.overrides) }
