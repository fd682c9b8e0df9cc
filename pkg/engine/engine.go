// Package engine implements the epoch orchestrator: once per epoch it
// walks the topology's computed order, chooses between incremental delta
// application and bulk recomputation per view, routes each view's output
// delta to its downstream consumers, and aggregates the pass into one
// evidence record.
//
// All propagation is synchronous and single-threaded. The cross-view
// ordering requirement is satisfied by sequencing along the topological
// order, not by locking; callers own the single-writer discipline.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/fluxterm/fluxterm/pkg/config"
	"github.com/fluxterm/fluxterm/pkg/dag"
	"github.com/fluxterm/fluxterm/pkg/delta"
	"github.com/fluxterm/fluxterm/pkg/evidence"
	"github.com/fluxterm/fluxterm/pkg/fallback"
	"github.com/fluxterm/fluxterm/pkg/view"
)

// ErrEpochOrder is returned when a propagation pass is requested for an
// epoch that does not strictly increase over the last propagated one.
var ErrEpochOrder = errors.New("epoch not strictly increasing")

// Engine binds a topology to concrete views of one key/value shape and
// drives delta propagation through them. Views with different key types
// belong to separate engines chained by an external translation layer.
type Engine[K comparable, V comparable] struct {
	topology  *dag.Topology
	views     map[dag.ViewID]view.IncrementalView[K, V]
	policies  map[dag.ViewID]fallback.Policy
	cfg       config.Config
	log       logr.Logger
	lastEpoch uint64
	epochSeen bool
}

// New creates an engine over an already-built topology.
func New[K comparable, V comparable](topology *dag.Topology, cfg config.Config, log logr.Logger) *Engine[K, V] {
	return &Engine[K, V]{
		topology: topology,
		views:    make(map[dag.ViewID]view.IncrementalView[K, V]),
		policies: make(map[dag.ViewID]fallback.Policy),
		cfg:      cfg,
		log:      log.WithName("engine"),
	}
}

// Register binds a view instance to its topology identifier.
func (e *Engine[K, V]) Register(id dag.ViewID, v view.IncrementalView[K, V]) error {
	if _, ok := e.topology.Descriptor(id); !ok {
		return fmt.Errorf("cannot register view %q: %s not in topology", v.Label(), id)
	}
	if _, ok := e.views[id]; ok {
		return fmt.Errorf("cannot register view %q: %s already bound", v.Label(), id)
	}
	e.views[id] = v
	return nil
}

// SetPolicy overrides the default fallback policy for one view.
func (e *Engine[K, V]) SetPolicy(id dag.ViewID, p fallback.Policy) error {
	if _, ok := e.topology.Descriptor(id); !ok {
		return fmt.Errorf("cannot set policy: %s not in topology", id)
	}
	e.policies[id] = p
	return nil
}

// View returns the view bound to id.
func (e *Engine[K, V]) View(id dag.ViewID) (view.IncrementalView[K, V], bool) {
	v, ok := e.views[id]
	return v, ok
}

// Propagate runs one epoch: the input batches enter at their source views,
// flow through the topological order, and the pass is summarized in the
// returned evidence record.
//
// Every input batch must carry the same epoch, and that epoch must strictly
// increase over the previous pass (ErrEpochOrder otherwise). Views that
// receive no deltas in the pass are skipped and not counted as processed.
func (e *Engine[K, V]) Propagate(inputs map[dag.ViewID]*delta.Batch[K, V]) (*evidence.Epoch, error) {
	order := e.topology.TopoOrder()
	if order == nil {
		return nil, errors.New("topology order not computed")
	}
	if len(inputs) == 0 {
		return nil, errors.New("no input batches")
	}

	epoch, err := e.checkEpoch(inputs)
	if err != nil {
		return nil, err
	}

	pending := make(map[dag.ViewID]*delta.Batch[K, V], len(inputs))
	for id, batch := range inputs {
		if _, ok := e.views[id]; !ok {
			return nil, fmt.Errorf("input for unregistered view %s", id)
		}
		merged := delta.NewBatch[K, V](epoch)
		merged.Extend(batch)
		pending[id] = merged
	}

	ev := &evidence.Epoch{Epoch: epoch}
	start := time.Now()

	for _, id := range order {
		batch, ok := pending[id]
		if !ok {
			continue
		}
		v, ok := e.views[id]
		if !ok {
			return nil, fmt.Errorf("deltas routed to unregistered view %s", id)
		}

		out, fellBack, took := e.processView(id, v, batch)

		for _, downstream := range e.topology.Downstream(id) {
			next, ok := pending[downstream]
			if !ok {
				next = delta.NewBatch[K, V](epoch)
				pending[downstream] = next
			}
			next.Extend(out)
		}

		ev.PerView = append(ev.PerView, evidence.ViewResult{
			ViewID:           id,
			Domain:           v.Domain(),
			InputDeltaSize:   batch.Len(),
			OutputDeltaSize:  out.Len(),
			FellBack:         fellBack,
			MaterializedSize: v.MaterializedSize(),
			Duration:         took,
		})
		ev.ViewsProcessed++
		if fellBack {
			ev.ViewsRecomputed++
		}
		ev.TotalDeltaSize += batch.Len()
		ev.TotalMaterializedSize += v.MaterializedSize()
	}

	ev.Duration = time.Since(start)
	e.lastEpoch = epoch
	e.epochSeen = true

	observeEpoch(ev)
	if e.cfg.EmitEvidence {
		e.log.V(1).Info("epoch propagated", "epoch", epoch,
			"views_processed", ev.ViewsProcessed, "views_recomputed", ev.ViewsRecomputed,
			"total_delta_size", ev.TotalDeltaSize, "delta_ratio", ev.DeltaRatio())
	}
	return ev, nil
}

// processView applies one view's input batch on either the incremental or
// the fallback path and returns the output delta to route downstream.
//
// The fallback path still ingests the batch (the base state must see every
// change), then replaces the view's materialization wholesale via
// FullRecompute. The incremental output is routed downstream on both paths:
// it is the only encoding that carries deletions, and the equivalence law
// guarantees it describes the recomputed state exactly.
func (e *Engine[K, V]) processView(id dag.ViewID, v view.IncrementalView[K, V], batch *delta.Batch[K, V]) (*delta.Batch[K, V], bool, time.Duration) {
	policy, ok := e.policies[id]
	if !ok {
		policy = e.cfg.DefaultFallback
	}
	fellBack := e.cfg.ForceFull || policy.ShouldFallback(batch.Len(), v.MaterializedSize())

	viewStart := time.Now()
	out := v.ApplyDelta(batch)
	if fellBack {
		v.FullRecompute()
	}
	took := time.Since(viewStart)

	e.log.V(2).Info("view processed", "view", id.String(), "label", v.Label(),
		"domain", v.Domain().String(), "input_delta", batch.Len(), "output_delta", out.Len(),
		"fell_back", fellBack, "duration", took)
	return out, fellBack, took
}

func (e *Engine[K, V]) checkEpoch(inputs map[dag.ViewID]*delta.Batch[K, V]) (uint64, error) {
	var epoch uint64
	first := true
	for id, batch := range inputs {
		if batch == nil {
			return 0, fmt.Errorf("nil input batch for view %s", id)
		}
		if first {
			epoch = batch.Epoch()
			first = false
			continue
		}
		if batch.Epoch() != epoch {
			return 0, fmt.Errorf("mixed epochs in one pass: %d and %d", epoch, batch.Epoch())
		}
	}
	if e.epochSeen && epoch <= e.lastEpoch {
		return 0, fmt.Errorf("%w: epoch %d after %d", ErrEpochOrder, epoch, e.lastEpoch)
	}
	return epoch, nil
}

// LastEpoch returns the most recently propagated epoch and whether any
// epoch has been propagated yet.
func (e *Engine[K, V]) LastEpoch() (uint64, bool) {
	return e.lastEpoch, e.epochSeen
}
