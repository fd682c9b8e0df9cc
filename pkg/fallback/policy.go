// Package fallback implements the cost rule deciding when incremental
// maintenance should be abandoned for a bulk recomputation. The policy only
// affects cost, never correctness: both paths leave a view in a state whose
// full recomputation output is identical.
package fallback

// Policy decides whether a delta is disproportionate to a view's
// materialized size. It is a stateless value; ShouldFallback is a pure
// function with no side effects.
type Policy struct {
	// RatioThreshold triggers fallback when deltaSize/materializedSize
	// reaches it. A fraction in (0, 1].
	RatioThreshold float64 `json:"ratioThreshold"`
	// MinDeltaForFallback is the absolute minimum delta size before
	// fallback is considered. It keeps the ratio from being noisy on tiny
	// views.
	MinDeltaForFallback int `json:"minDeltaForFallback"`
}

// Default returns the stock policy: fall back when the delta is at least
// half the view and at least 10 entries.
func Default() Policy {
	return Policy{RatioThreshold: 0.5, MinDeltaForFallback: 10}
}

// ShouldFallback reports whether the epoch's delta volume should bypass
// incremental maintenance. True iff the delta meets the minimum count and
// the delta/materialized ratio reaches the threshold. A zero-sized view
// counts as past the ratio test: any delta meeting the minimum against an
// empty materialization triggers recomputation, so the quotient is never
// taken with a zero denominator.
//
// The decision is monotonic non-decreasing in deltaSize for any fixed
// materializedSize.
func (p Policy) ShouldFallback(deltaSize, materializedSize int) bool {
	if deltaSize < p.MinDeltaForFallback {
		return false
	}
	if materializedSize == 0 {
		return true
	}
	return float64(deltaSize)/float64(materializedSize) >= p.RatioThreshold
}
