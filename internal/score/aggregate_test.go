package score

import (
	"errors"
	"testing"

	"github.com/ppiankov/fundgate/internal/model"
)

func uniform(value, conf float64) []model.AxisScore {
	items := make([]model.AxisScore, 0, 7)
	for _, axis := range model.Axes() {
		items = append(items, model.AxisScore{Axis: axis, Value: value, Confidence: conf})
	}
	return items
}

func TestGate_Conjunctive(t *testing.T) {
	g := DefaultGate()
	tests := []struct {
		total, conf float64
		want        model.Decision
	}{
		{9.0, 0.40, model.DecisionHold},
		{7.0, 0.99, model.DecisionHold},
		{7.5, 0.55, model.DecisionInvest},
		{7.49, 0.9, model.DecisionHold},
		{8.0, 0.549, model.DecisionHold},
	}
	for _, tt := range tests {
		if got := g.Decide(tt.total, tt.conf); got != tt.want {
			t.Errorf("Decide(%v, %v) = %v, want %v", tt.total, tt.conf, got, tt.want)
		}
	}
}

func TestAggregator_GateThroughAggregate(t *testing.T) {
	agg := NewAggregator(DefaultGate())

	card, err := agg.Aggregate("x", uniform(9.0, 0.40))
	if err != nil {
		t.Fatal(err)
	}
	if card.Decision != model.DecisionHold || !almostEqual(card.Total, 9.0) {
		t.Errorf("high total, low confidence: %+v", card)
	}

	card, err = agg.Aggregate("x", uniform(7.0, 0.99))
	if err != nil {
		t.Fatal(err)
	}
	if card.Decision != model.DecisionHold {
		t.Errorf("low total, high confidence should hold: %+v", card)
	}
}

func TestAggregator_Monotonic(t *testing.T) {
	agg := NewAggregator(DefaultGate())
	base, _ := agg.Aggregate("x", uniform(2, 0.5))

	for i := range model.Axes() {
		items := uniform(2, 0.5)
		items[i].Value += 1
		bumped, err := agg.Aggregate("x", items)
		if err != nil {
			t.Fatal(err)
		}
		if bumped.Total <= base.Total {
			t.Errorf("raising %s did not raise total: %v <= %v", items[i].Axis, bumped.Total, base.Total)
		}

		items[i].Value -= 1
		items[i].Confidence = 0.9
		confOnly, _ := agg.Aggregate("x", items)
		if confOnly.Total != base.Total {
			t.Errorf("confidence changed total for %s", items[i].Axis)
		}
	}
}

func TestAggregator_Idempotent(t *testing.T) {
	agg := NewAggregator(DefaultGate())
	items := uniform(3.3, 0.61)
	items[0], items[6] = items[6], items[0]

	first, err := agg.Aggregate("x", items)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := agg.Aggregate("x", items)
		if again.Total != first.Total || again.MeanConfidence != first.MeanConfidence || again.Decision != first.Decision {
			t.Fatalf("aggregate not reproducible: %+v vs %+v", again, first)
		}
	}
	if first.Items[0].Axis != model.AxisTechnologyDepth {
		t.Error("items not reordered into axis order")
	}
}

func TestAggregator_InvariantViolations(t *testing.T) {
	agg := NewAggregator(DefaultGate())

	missing := uniform(1, 0.5)[:6]
	if _, err := agg.Aggregate("x", missing); !errors.Is(err, model.ErrInvariantViolation) {
		t.Errorf("missing axis: %v", err)
	}

	dup := append(uniform(1, 0.5), model.AxisScore{Axis: model.AxisTeam})
	if _, err := agg.Aggregate("x", dup); !errors.Is(err, model.ErrInvariantViolation) {
		t.Errorf("duplicate axis: %v", err)
	}

	bad := uniform(1, 0.5)
	bad[2].Confidence = 1.2
	if _, err := agg.Aggregate("x", bad); !errors.Is(err, model.ErrInvariantViolation) {
		t.Errorf("confidence out of range: %v", err)
	}
}

func TestWeights_SumToHundred(t *testing.T) {
	var sum float64
	for _, axis := range model.Axes() {
		sum += Weights[axis]
	}
	if sum != 100 {
		t.Errorf("weights sum to %v", sum)
	}
}

func TestAggregator_TotalNotCapped(t *testing.T) {
	agg := NewAggregator(DefaultGate())

	card, err := agg.Aggregate("dense", uniform(14, 0.9))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !almostEqual(card.Total, 140) {
		t.Errorf("total = %v, want 140 (no cap)", card.Total)
	}
	if card.Decision != model.DecisionInvest {
		t.Errorf("decision = %s", card.Decision)
	}
}
