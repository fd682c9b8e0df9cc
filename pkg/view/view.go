// Package view implements materialized views maintained incrementally from
// delta batches. Every view satisfies the same contract: apply a batch and
// report the entries that actually changed the visible materialization, or
// rebuild the ground truth from scratch. The two results must always agree;
// that equivalence is the core correctness obligation of the package and is
// exercised continuously by the package tests.
package view

import "github.com/fluxterm/fluxterm/pkg/delta"

// Domain tags a view's kind. It is diagnostic only: evidence records and
// log lines carry it, the maintenance algorithms ignore it.
type Domain int

const (
	// DomainStyle marks style resolution views (theme -> resolved style).
	DomainStyle Domain = iota
	// DomainLayout marks layout computation views.
	DomainLayout
	// DomainRender marks render cell views.
	DomainRender
	// DomainFilteredList marks predicate-filtered list views.
	DomainFilteredList
	// DomainCustom marks user-defined views.
	DomainCustom
)

// String returns the human-readable label used in logs and evidence.
func (d Domain) String() string {
	switch d {
	case DomainStyle:
		return "style"
	case DomainLayout:
		return "layout"
	case DomainRender:
		return "render"
	case DomainFilteredList:
		return "filtered_list"
	case DomainCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Predicate is a pure function of (key, value) with no captured mutable
// state. FilteredListView evaluates it on every insert to decide
// visibility; evaluating it twice on the same arguments must yield the
// same result.
type Predicate[K comparable, V any] func(key K, value V) bool

// IncrementalView is the capability every materialized view implements.
//
// ApplyDelta ingests one batch and returns the output delta: exactly the
// entries that changed the visible materialization. FullRecompute rebuilds
// the ground truth from the view's base state and must agree with the
// incrementally maintained result in size and contents after every batch.
//
// Views are single-writer: one logical goroutine applies batches in
// increasing epoch order. None of the methods block, suspend, or perform
// I/O.
type IncrementalView[K comparable, V any] interface {
	// Label returns the view's human-readable name.
	Label() string
	// Domain returns the diagnostic domain tag.
	Domain() Domain
	// ApplyDelta applies a batch and returns the output delta. The output
	// batch carries the input batch's epoch.
	ApplyDelta(batch *delta.Batch[K, V]) *delta.Batch[K, V]
	// FullRecompute rebuilds the visible materialization from scratch and
	// returns it in stable first-insertion key order.
	FullRecompute() []delta.Pair[K, V]
	// MaterializedSize returns the number of visible entries.
	MaterializedSize() int
}
