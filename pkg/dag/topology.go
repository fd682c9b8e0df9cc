// Package dag maintains the static topology of the view pipeline: views as
// nodes, producer-to-consumer delta routes as directed edges, and a cached
// deterministic topological order the orchestrator walks once per epoch.
//
// The topology owns no reference to the views themselves, only their
// identifiers. Determinism is load-bearing: identical AddView/AddEdge call
// sequences always yield byte-identical orderings, because evidence logs
// are compared across runs.
package dag

import (
	"fmt"
	"sort"

	"github.com/fluxterm/fluxterm/pkg/view"
)

// ViewID is a stable handle identifying a view in the topology. IDs are
// assigned sequentially by each Topology instance; independent topologies
// never share a counter.
type ViewID uint32

func (id ViewID) String() string { return fmt.Sprintf("V%d", uint32(id)) }

// Edge is a directed dependency: From produces deltas consumed by To.
type Edge struct {
	From ViewID
	To   ViewID
}

// ViewDescriptor holds the registration data of one view.
type ViewDescriptor struct {
	ID     ViewID
	Label  string
	Domain view.Domain
}

// CycleError reports an edge that closes a cycle in the topology.
type CycleError struct {
	From ViewID
	To   ViewID
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("topology cycle: edge %s -> %s closes a cycle", e.From, e.To)
}

// Topology is the static structure of the view DAG. Built once when the
// pipeline is constructed; ComputeTopoOrder must be re-invoked whenever the
// node or edge set changes.
type Topology struct {
	views     []ViewDescriptor
	edges     []Edge
	topoOrder []ViewID
	nextID    ViewID // per-instance counter, never process-wide
}

// New creates an empty topology.
func New() *Topology {
	return &Topology{}
}

// AddView registers a view and returns its stable identifier. The cached
// topological order is invalidated.
func (t *Topology) AddView(label string, domain view.Domain) ViewID {
	id := t.nextID
	t.nextID++
	t.views = append(t.views, ViewDescriptor{ID: id, Label: label, Domain: domain})
	t.topoOrder = nil
	return id
}

// AddEdge records that from produces deltas consumed by to. Unknown
// endpoints, self-loops, and edges that would close a cycle are rejected;
// cycles are reported as *CycleError.
func (t *Topology) AddEdge(from, to ViewID) error {
	if !t.knows(from) {
		return fmt.Errorf("unknown source view %s", from)
	}
	if !t.knows(to) {
		return fmt.Errorf("unknown target view %s", to)
	}
	if from == to {
		return &CycleError{From: from, To: to}
	}
	if t.canReach(to, from) {
		return &CycleError{From: from, To: to}
	}
	t.edges = append(t.edges, Edge{From: from, To: to})
	t.topoOrder = nil
	return nil
}

func (t *Topology) knows(id ViewID) bool {
	return uint32(id) < uint32(t.nextID)
}

// canReach reports whether to is reachable from from via existing edges.
func (t *Topology) canReach(from, to ViewID) bool {
	visited := make([]bool, t.nextID)
	stack := []ViewID{from}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == to {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, e := range t.edges {
			if e.From == current && !visited[e.To] {
				stack = append(stack, e.To)
			}
		}
	}
	return false
}

// ComputeTopoOrder computes and caches the topological order via Kahn's
// algorithm, ties broken by ascending ViewID. Every registered view appears
// exactly once and every edge points forward in the order. A cycle is
// reported as *CycleError naming one offending edge; the cached order is
// left empty in that case.
func (t *Topology) ComputeTopoOrder() error {
	n := len(t.views)
	inDegree := make([]int, n)
	adjacency := make([][]ViewID, n)
	for _, e := range t.edges {
		inDegree[e.To]++
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}

	// Ready list kept sorted ascending; the smallest ready ID is emitted
	// first so the order is a pure function of the call sequence.
	ready := make([]ViewID, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			ready = append(ready, ViewID(i))
		}
	}

	order := make([]ViewID, 0, n)
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		neighbors := append([]ViewID(nil), adjacency[next]...)
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		for _, nb := range neighbors {
			inDegree[nb]--
			if inDegree[nb] == 0 {
				pos := sort.Search(len(ready), func(i int) bool { return ready[i] >= nb })
				ready = append(ready, 0)
				copy(ready[pos+1:], ready[pos:])
				ready[pos] = nb
			}
		}
	}

	if len(order) != n {
		t.topoOrder = nil
		return t.residualCycleEdge(order)
	}

	t.topoOrder = order
	return nil
}

// residualCycleEdge names an edge among the views left out of a stalled
// Kahn pass. AddEdge validation makes this unreachable for topologies built
// through the public API, but the order computation still refuses to emit a
// partial order.
func (t *Topology) residualCycleEdge(order []ViewID) error {
	emitted := make([]bool, len(t.views))
	for _, id := range order {
		emitted[id] = true
	}
	for _, e := range t.edges {
		if !emitted[e.From] && !emitted[e.To] {
			return &CycleError{From: e.From, To: e.To}
		}
	}
	return fmt.Errorf("topology cycle: %d of %d views unorderable", len(t.views)-len(order), len(t.views))
}

// TopoOrder returns the cached order, or nil if ComputeTopoOrder has not
// succeeded since the last mutation.
func (t *Topology) TopoOrder() []ViewID { return t.topoOrder }

// Downstream returns the views consuming deltas from id, in edge insertion
// order.
func (t *Topology) Downstream(id ViewID) []ViewID {
	var out []ViewID
	for _, e := range t.edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Upstream returns the views producing deltas for id, in edge insertion
// order.
func (t *Topology) Upstream(id ViewID) []ViewID {
	var out []ViewID
	for _, e := range t.edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}

// Descriptor returns the registration data for id.
func (t *Topology) Descriptor(id ViewID) (ViewDescriptor, bool) {
	if !t.knows(id) {
		return ViewDescriptor{}, false
	}
	return t.views[id], true
}

// ViewCount returns the number of registered views.
func (t *Topology) ViewCount() int { return len(t.views) }

// EdgeCount returns the number of edges.
func (t *Topology) EdgeCount() int { return len(t.edges) }
