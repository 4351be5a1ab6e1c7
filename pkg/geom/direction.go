package geom

import (
	"fmt"
	"strings"
)

// Direction represents a cardinal direction.
// Directions are ordered clockwise so adding quarter turns is arithmetic.
type Direction int

// Direction constants
const (
	North Direction = iota
	East
	South
	West
)

// AllDirections returns all valid directions for iteration
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// String returns the lowercase name of a direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// IsValid returns true if the direction is a valid cardinal direction
func (d Direction) IsValid() bool {
	return d >= North && d <= West
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	return d.Rotate(2)
}

// TurnLeft returns the direction a quarter turn counter-clockwise.
func (d Direction) TurnLeft() Direction { return d.Rotate(3) }

// TurnRight returns the direction a quarter turn clockwise.
func (d Direction) TurnRight() Direction { return d.Rotate(1) }

// Rotate turns d clockwise by k quarter turns. Negative k turns counter-clockwise.
func (d Direction) Rotate(k int) Direction {
	return Direction(((int(d)+k)%4 + 4) % 4)
}

// Delta returns the x and y offsets for one step in this direction.
// Screen coordinates are used: y grows downward, so North is (0, -1).
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Names are case-insensitive and single-letter abbreviations are accepted.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses a direction name such as "north" or "N".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, nil
	case "east", "e":
		return East, nil
	case "south", "s":
		return South, nil
	case "west", "w":
		return West, nil
	}
	return North, fmt.Errorf("unknown direction %q", s)
}
