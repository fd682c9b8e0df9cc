// Package evidence defines the immutable per-epoch telemetry records the
// orchestrator emits for each propagation pass. Records serialize to
// single-line JSON for a structured-log pipeline; consumers compare them
// across runs, so every field is deterministic.
package evidence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fluxterm/fluxterm/pkg/dag"
	"github.com/fluxterm/fluxterm/pkg/view"
)

// RecordType is the constant discriminator identifying an epoch record in
// mixed JSONL streams.
const RecordType = "ivm_epoch"

// ViewResult is the outcome of processing a single view during one epoch.
type ViewResult struct {
	ViewID           dag.ViewID
	Domain           view.Domain
	InputDeltaSize   int
	OutputDeltaSize  int
	FellBack         bool
	MaterializedSize int
	Duration         time.Duration
}

// Epoch is the evidence record for one propagation pass. It is constructed
// once by the orchestrator and never mutated.
type Epoch struct {
	// Epoch is the monotonic epoch counter.
	Epoch uint64
	// ViewsProcessed is the number of views that received deltas.
	ViewsProcessed int
	// ViewsRecomputed is the number of views that fell back to full
	// recomputation.
	ViewsRecomputed int
	// TotalDeltaSize sums input delta entry counts across all views.
	TotalDeltaSize int
	// TotalMaterializedSize sums materialized view sizes (the baseline
	// cost of recomputing everything).
	TotalMaterializedSize int
	// Duration is the wall-clock time of the whole pass, measured by the
	// orchestrator, not enforced by the views.
	Duration time.Duration
	// PerView holds the per-view results in processing order.
	PerView []ViewResult
}

// DeltaRatio is delta volume over materialized size. Values below 1 mean
// incremental maintenance did less work than a full recomputation would
// have. Returns 0 for a zero total materialized size; never negative for
// non-negative inputs.
func (e *Epoch) DeltaRatio() float64 {
	if e.TotalMaterializedSize == 0 {
		return 0
	}
	return float64(e.TotalDeltaSize) / float64(e.TotalMaterializedSize)
}

type epochJSON struct {
	Type                  string  `json:"type"`
	Epoch                 uint64  `json:"epoch"`
	ViewsProcessed        int     `json:"views_processed"`
	ViewsRecomputed       int     `json:"views_recomputed"`
	TotalDeltaSize        int     `json:"total_delta_size"`
	TotalMaterializedSize int     `json:"total_materialized_size"`
	DeltaRatio            float64 `json:"delta_ratio"`
	DurationMicros        int64   `json:"duration_us"`
}

// ToJSONL serializes the record as one JSON object on a single line.
func (e *Epoch) ToJSONL() string {
	data, err := json.Marshal(epochJSON{
		Type:                  RecordType,
		Epoch:                 e.Epoch,
		ViewsProcessed:        e.ViewsProcessed,
		ViewsRecomputed:       e.ViewsRecomputed,
		TotalDeltaSize:        e.TotalDeltaSize,
		TotalMaterializedSize: e.TotalMaterializedSize,
		DeltaRatio:            e.DeltaRatio(),
		DurationMicros:        e.Duration.Microseconds(),
	})
	if err != nil {
		// Marshaling a struct of scalars cannot fail; keep the sink alive
		// anyway.
		return fmt.Sprintf(`{"type":%q,"epoch":%d}`, RecordType, e.Epoch)
	}
	return string(data)
}
