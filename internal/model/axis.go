package model

import (
	"fmt"
	"strings"
)

// Axis is one of the seven scorecard dimensions
type Axis int

const (
	AxisInvalid Axis = iota
	AxisTechnologyDepth
	AxisMarket
	AxisTraction
	AxisCompetitiveMoat
	AxisRisk
	AxisTeam
	AxisDeploymentReadiness
)

var axisNames = map[Axis]string{
	AxisTechnologyDepth:     "technology_depth",
	AxisMarket:              "market",
	AxisTraction:            "traction",
	AxisCompetitiveMoat:     "competitive_moat",
	AxisRisk:                "risk",
	AxisTeam:                "team",
	AxisDeploymentReadiness: "deployment_readiness",
}

// axisAliases maps short names used by upstream classifiers and config files
var axisAliases = map[string]Axis{
	"ai_tech":       AxisTechnologyDepth,
	"technology":    AxisTechnologyDepth,
	"tech":          AxisTechnologyDepth,
	"moat":          AxisCompetitiveMoat,
	"deployability": AxisDeploymentReadiness,
	"deployment":    AxisDeploymentReadiness,
}

// Axes returns all axes in scorecard order
func Axes() []Axis {
	return []Axis{
		AxisTechnologyDepth,
		AxisMarket,
		AxisTraction,
		AxisCompetitiveMoat,
		AxisRisk,
		AxisTeam,
		AxisDeploymentReadiness,
	}
}

// Valid reports whether a is one of the seven axes
func (a Axis) Valid() bool {
	_, ok := axisNames[a]
	return ok
}

func (a Axis) String() string {
	if name, ok := axisNames[a]; ok {
		return name
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Label returns a human-readable axis title for reports
func (a Axis) Label() string {
	switch a {
	case AxisTechnologyDepth:
		return "Technology Depth"
	case AxisMarket:
		return "Market"
	case AxisTraction:
		return "Traction"
	case AxisCompetitiveMoat:
		return "Competitive Moat"
	case AxisRisk:
		return "Risk"
	case AxisTeam:
		return "Team"
	case AxisDeploymentReadiness:
		return "Deployment Readiness"
	default:
		return a.String()
	}
}

// ParseAxis converts a name or alias to an Axis
func ParseAxis(s string) (Axis, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")

	for axis, name := range axisNames {
		if name == key {
			return axis, nil
		}
	}
	if axis, ok := axisAliases[key]; ok {
		return axis, nil
	}
	return AxisInvalid, fmt.Errorf("%w: %q", ErrInvalidAxis, s)
}

// MarshalText implements encoding.TextMarshaler
func (a Axis) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAxis, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Axis) UnmarshalText(text []byte) error {
	parsed, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Strength grades how strongly a piece of evidence supports its axis
type Strength int

const (
	StrengthInvalid Strength = iota
	StrengthWeak
	StrengthMedium
	StrengthStrong
)

func (s Strength) Valid() bool {
	return s >= StrengthWeak && s <= StrengthStrong
}

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthMedium:
		return "medium"
	case StrengthStrong:
		return "strong"
	default:
		return fmt.Sprintf("strength(%d)", int(s))
	}
}

// Increment is the score contribution of one undiscounted item
func (s Strength) Increment() float64 {
	if !s.Valid() {
		return 0
	}
	return float64(s)
}

// Bump raises the strength one tier, saturating at strong
func (s Strength) Bump() Strength {
	if s < StrengthStrong {
		return s + 1
	}
	return StrengthStrong
}

// ParseStrength converts weak/medium/strong to a Strength
func ParseStrength(s string) (Strength, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weak", "low":
		return StrengthWeak, nil
	case "medium", "moderate":
		return StrengthMedium, nil
	case "strong", "high":
		return StrengthStrong, nil
	default:
		return StrengthInvalid, fmt.Errorf("%w: %q", ErrInvalidStrength, s)
	}
}

func (s Strength) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStrength, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Strength) UnmarshalText(text []byte) error {
	parsed, err := ParseStrength(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
