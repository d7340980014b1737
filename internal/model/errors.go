package model

import "errors"

var (
	// ErrInvariantViolation reports a broken pipeline or aggregation invariant.
	// It is fatal for the run.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrInvalidAxis is returned when a value outside the seven axes is used.
	ErrInvalidAxis = errors.New("invalid axis")

	// ErrInvalidStrength is returned for strengths outside weak/medium/strong.
	ErrInvalidStrength = errors.New("invalid strength")
)
