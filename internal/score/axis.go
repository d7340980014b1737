package score

import (
	"fmt"

	"github.com/ppiankov/fundgate/internal/match"
	"github.com/ppiankov/fundgate/internal/model"
)

// AxisScorer turns one axis worth of entity evidence into a raw value
type AxisScorer struct{}

// NewAxisScorer creates an axis scorer
func NewAxisScorer() *AxisScorer {
	return &AxisScorer{}
}

// Score sums strength increments (weak 1, medium 2, strong 3) weighted by
// the dedup factor. The value is not capped.
func (s *AxisScorer) Score(items []model.Evidence) (float64, string) {
	if len(items) == 0 {
		return 0, "no evidence"
	}

	var value float64
	var full, dup int
	for _, w := range match.Weigh(items) {
		value += w.Evidence.Strength.Increment() * w.Factor
		if w.Duplicate {
			dup++
		} else {
			full++
		}
	}

	return value, fmt.Sprintf("value = Σ(strength × factor) = %.2f over %d item(s), %d at ×%.1f duplicate weight",
		value, full+dup, dup, match.DuplicateFactor)
}
