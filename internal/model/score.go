package model

// Decision is the gate outcome for an entity
type Decision string

const (
	DecisionInvest Decision = "invest"
	DecisionHold   Decision = "hold"
)

// AxisScore is the scored result of one axis for one entity
type AxisScore struct {
	Axis       Axis       `json:"axis"`
	Value      float64    `json:"value"`      // Sum of strength increments after dedup, uncapped
	Confidence float64    `json:"confidence"` // Within [0,1]
	Coverage   float64    `json:"coverage"`
	Diversity  float64    `json:"diversity"`
	Recency    float64    `json:"recency"`
	Rationale  string     `json:"rationale"`
	Evidence   []Evidence `json:"evidence,omitempty"`
}

// ScoreCard aggregates the seven axis scores of an entity
type ScoreCard struct {
	EntityID       string      `json:"entity_id"`
	Items          []AxisScore `json:"items"`
	Total          float64     `json:"total"`
	MeanConfidence float64     `json:"mean_confidence"`
	Decision       Decision    `json:"decision"`
}

// Item returns the score for axis, if present
func (c ScoreCard) Item(axis Axis) (AxisScore, bool) {
	for _, item := range c.Items {
		if item.Axis == axis {
			return item, true
		}
	}
	return AxisScore{}, false
}

// Invest reports whether the card cleared the gate
func (c ScoreCard) Invest() bool {
	return c.Decision == DecisionInvest
}
