package model

import (
	"fmt"
	"math"
)

// Location is a point in world space.
// Value type, passed by value (immutable).
type Location struct {
	X float64
	Y float64
	Z float64
}

// NewLocation creates a Location with the given coordinates.
func NewLocation(x, y, z float64) Location {
	return Location{X: x, Y: y, Z: z}
}

// Add returns the component-wise sum of two locations.
func (l Location) Add(other Location) Location {
	return Location{X: l.X + other.X, Y: l.Y + other.Y, Z: l.Z + other.Z}
}

// Finite reports whether no coordinate is NaN or infinite.
func (l Location) Finite() bool {
	return finite(l.X) && finite(l.Y) && finite(l.Z)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (l Location) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", l.X, l.Y, l.Z)
}
