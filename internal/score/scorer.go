package score

import (
	"fmt"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
)

// Scorer produces an entity scorecard from its matched evidence
type Scorer struct {
	axis       *AxisScorer
	confidence *ConfidenceEstimator
	aggregator *Aggregator
}

// NewScorer creates a scorer with explicit confidence and gate settings
func NewScorer(confidence *ConfidenceEstimator, gate Gate) *Scorer {
	return &Scorer{
		axis:       NewAxisScorer(),
		confidence: confidence,
		aggregator: NewAggregator(gate),
	}
}

// NewDefaultScorer uses the built-in thresholds
func NewDefaultScorer() *Scorer {
	return NewScorer(NewConfidenceEstimator(nil, DefaultRecencyMonths), DefaultGate())
}

// NewScorerFromConfig builds a scorer from the scoring section of the config
func NewScorerFromConfig(cfg model.ScoringConfig) (*Scorer, error) {
	minItems, err := cfg.MinItemsByAxis()
	if err != nil {
		return nil, err
	}
	gate := Gate{MinTotal: cfg.MinTotal, MinConfidence: cfg.MinConfidence}
	return NewScorer(NewConfidenceEstimator(minItems, cfg.RecencyMonths), gate), nil
}

// Score scores every axis of one entity. Axes missing from byAxis score 0
// with confidence 0. Evidence on the wrong axis or attached to another
// entity is an invariant violation.
func (s *Scorer) Score(entityID string, byAxis map[model.Axis][]model.Evidence, asOf time.Time) (model.ScoreCard, error) {
	for axis, items := range byAxis {
		if !axis.Valid() {
			return model.ScoreCard{}, fmt.Errorf("%w: entity %s: evidence grouped under %v", model.ErrInvariantViolation, entityID, axis)
		}
		for _, ev := range items {
			if ev.Axis != axis {
				return model.ScoreCard{}, fmt.Errorf("%w: entity %s: %s evidence grouped under %s", model.ErrInvariantViolation, entityID, ev.Axis, axis)
			}
			if ev.EntityID != "" && ev.EntityID != entityID {
				return model.ScoreCard{}, fmt.Errorf("%w: entity %s: evidence attached to %s", model.ErrInvariantViolation, entityID, ev.EntityID)
			}
		}
	}

	items := make([]model.AxisScore, 0, len(Weights))
	for _, axis := range model.Axes() {
		items = append(items, s.ScoreAxis(axis, byAxis[axis], asOf))
	}
	return s.aggregator.Aggregate(entityID, items)
}

// ScoreAxis computes the value and confidence of a single axis
func (s *Scorer) ScoreAxis(axis model.Axis, items []model.Evidence, asOf time.Time) model.AxisScore {
	value, valueNote := s.axis.Score(items)
	parts := s.confidence.Estimate(axis, items, asOf)
	conf := parts.Blend()

	rationale := fmt.Sprintf("%s; confidence = 0.4×coverage(%.2f, min %d) + 0.3×diversity(%.2f) + 0.3×recency(%.2f) = %.3f",
		valueNote, parts.Coverage, s.confidence.MinItems(axis), parts.Diversity, parts.Recency, conf)

	return model.AxisScore{
		Axis:       axis,
		Value:      value,
		Confidence: conf,
		Coverage:   parts.Coverage,
		Diversity:  parts.Diversity,
		Recency:    parts.Recency,
		Rationale:  rationale,
		Evidence:   append([]model.Evidence(nil), items...),
	}
}

// Gate returns the invest thresholds in use
func (s *Scorer) Gate() Gate {
	return s.aggregator.gate
}
