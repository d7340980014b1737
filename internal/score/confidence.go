package score

import (
	"time"

	"github.com/ppiankov/fundgate/internal/model"
)

// Blend weights for the confidence components
const (
	coverageWeight  = 0.4
	diversityWeight = 0.3
	recencyWeight   = 0.3
)

// DefaultMinItems is the evidence count at which an axis reaches full coverage
var DefaultMinItems = map[model.Axis]int{
	model.AxisTechnologyDepth:     3,
	model.AxisMarket:              2,
	model.AxisTraction:            2,
	model.AxisCompetitiveMoat:     1,
	model.AxisRisk:                2,
	model.AxisTeam:                1,
	model.AxisDeploymentReadiness: 2,
}

// DefaultRecencyMonths is the trailing window counted as recent
const DefaultRecencyMonths = 18

// Parts are the three confidence components, each within [0,1]
type Parts struct {
	Coverage  float64
	Diversity float64
	Recency   float64
}

// Blend combines the parts into a single confidence within [0,1]
func (p Parts) Blend() float64 {
	return clamp01(coverageWeight*p.Coverage + diversityWeight*p.Diversity + recencyWeight*p.Recency)
}

// ConfidenceEstimator measures how much an axis value can be trusted
type ConfidenceEstimator struct {
	minItems      map[model.Axis]int
	recencyMonths int
}

// NewConfidenceEstimator creates an estimator. Missing axes in minItems use
// the defaults; thresholds below 1 are treated as 1.
func NewConfidenceEstimator(minItems map[model.Axis]int, recencyMonths int) *ConfidenceEstimator {
	merged := make(map[model.Axis]int, len(DefaultMinItems))
	for axis, n := range DefaultMinItems {
		merged[axis] = n
	}
	for axis, n := range minItems {
		if n < 1 {
			n = 1
		}
		merged[axis] = n
	}
	if recencyMonths < 1 {
		recencyMonths = DefaultRecencyMonths
	}
	return &ConfidenceEstimator{minItems: merged, recencyMonths: recencyMonths}
}

// Estimate computes the confidence parts for items on axis as of asOf.
// The same inputs always give the same result.
func (c *ConfidenceEstimator) Estimate(axis model.Axis, items []model.Evidence, asOf time.Time) Parts {
	n := len(items)
	if n == 0 {
		return Parts{}
	}

	need := c.minItems[axis]
	if need < 1 {
		need = 1
	}

	domains := make(map[string]struct{}, n)
	recent := 0
	cutoff := asOf.AddDate(0, -c.recencyMonths, 0)

	for _, ev := range items {
		domains[ev.Domain()] = struct{}{}
		if ev.Published != nil && !ev.Published.Before(cutoff) {
			recent++
		}
	}

	return Parts{
		Coverage:  clamp01(float64(n) / float64(need)),
		Diversity: clamp01(float64(len(domains)) / float64(n)),
		Recency:   clamp01(float64(recent) / float64(n)),
	}
}

// MinItems returns the full-coverage threshold for axis
func (c *ConfidenceEstimator) MinItems(axis model.Axis) int {
	return c.minItems[axis]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
