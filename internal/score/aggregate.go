package score

import (
	"fmt"

	"github.com/ppiankov/fundgate/internal/model"
)

// Weights are the fixed axis percentages of the total
var Weights = map[model.Axis]float64{
	model.AxisTechnologyDepth:     25,
	model.AxisMarket:              20,
	model.AxisTraction:            15,
	model.AxisCompetitiveMoat:     10,
	model.AxisRisk:                10,
	model.AxisTeam:                10,
	model.AxisDeploymentReadiness: 10,
}

// Default gate thresholds
const (
	DefaultMinTotal      = 7.5
	DefaultMinConfidence = 0.55
)

// Gate is the conjunctive invest condition
type Gate struct {
	MinTotal      float64
	MinConfidence float64
}

// DefaultGate returns the standard invest thresholds
func DefaultGate() Gate {
	return Gate{MinTotal: DefaultMinTotal, MinConfidence: DefaultMinConfidence}
}

// Decide returns invest only when both thresholds are met
func (g Gate) Decide(total, meanConfidence float64) model.Decision {
	if total >= g.MinTotal && meanConfidence >= g.MinConfidence {
		return model.DecisionInvest
	}
	return model.DecisionHold
}

// Aggregator combines seven axis scores into a scorecard
type Aggregator struct {
	gate        Gate
	weightTotal float64
}

// NewAggregator creates an aggregator with the given gate
func NewAggregator(gate Gate) *Aggregator {
	var sum float64
	for _, axis := range model.Axes() {
		sum += Weights[axis]
	}
	if sum != 100 {
		panic(fmt.Sprintf("score: axis weights sum to %v, want 100", sum))
	}
	return &Aggregator{gate: gate, weightTotal: sum}
}

// Aggregate builds the scorecard. items must hold exactly one score per axis;
// anything else is an invariant violation. Items are reordered into axis order
// and summed in that fixed order so results are reproducible.
func (a *Aggregator) Aggregate(entityID string, items []model.AxisScore) (model.ScoreCard, error) {
	byAxis := make(map[model.Axis]model.AxisScore, len(items))
	for _, item := range items {
		if !item.Axis.Valid() {
			return model.ScoreCard{}, fmt.Errorf("%w: entity %s: score for %v", model.ErrInvariantViolation, entityID, item.Axis)
		}
		if _, dup := byAxis[item.Axis]; dup {
			return model.ScoreCard{}, fmt.Errorf("%w: entity %s: duplicate score for %s", model.ErrInvariantViolation, entityID, item.Axis)
		}
		if item.Confidence < 0 || item.Confidence > 1 {
			return model.ScoreCard{}, fmt.Errorf("%w: entity %s: %s confidence %v outside [0,1]", model.ErrInvariantViolation, entityID, item.Axis, item.Confidence)
		}
		byAxis[item.Axis] = item
	}

	ordered := make([]model.AxisScore, 0, len(Weights))
	var weighted, confSum float64
	for _, axis := range model.Axes() {
		item, ok := byAxis[axis]
		if !ok {
			return model.ScoreCard{}, fmt.Errorf("%w: entity %s: missing score for %s", model.ErrInvariantViolation, entityID, axis)
		}
		ordered = append(ordered, item)
		weighted += Weights[axis] * item.Value
		confSum += item.Confidence
	}

	// Weights sum to 100, so this is the weighted mean on the 0-10 axis scale
	total := weighted / a.weightTotal
	mean := confSum / float64(len(ordered))

	return model.ScoreCard{
		EntityID:       entityID,
		Items:          ordered,
		Total:          total,
		MeanConfidence: mean,
		Decision:       a.gate.Decide(total, mean),
	}, nil
}
