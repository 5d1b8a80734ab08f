package domain

import "github.com/pkg/errors"

// Direction identifies which of a pool's two assets is sold.
// AtoB sells CurrencyA for CurrencyB, BtoA the reverse.
type Direction string

const (
	DirectionAtoB    Direction = "AtoB"
	DirectionBtoA    Direction = "BtoA"
	DirectionUnknown Direction = ""
)

// ParseDirection converts a configuration value into a Direction.
// An empty string means "no fixed direction" and maps to DirectionUnknown.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionAtoB, DirectionBtoA, DirectionUnknown:
		return Direction(s), nil
	default:
		return DirectionUnknown, errors.Errorf("invalid direction %q, expected AtoB or BtoA", s)
	}
}

// Known reports whether the direction is resolved to one of the two sides.
func (d Direction) Known() bool {
	return d == DirectionAtoB || d == DirectionBtoA
}

// Opposite returns the reverse direction. Unknown stays unknown.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionAtoB:
		return DirectionBtoA
	case DirectionBtoA:
		return DirectionAtoB
	default:
		return DirectionUnknown
	}
}

func (d Direction) String() string {
	if d == DirectionUnknown {
		return "Unknown"
	}
	return string(d)
}
