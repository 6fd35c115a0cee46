package model

import "math"

// octant is one eighth of a full turn (45 degrees).
const octant = math.Pi / 4

// Rotation is a facing direction in radians.
// Yaw turns around the vertical axis, Pitch tilts the head up or down.
type Rotation struct {
	Yaw   float32
	Pitch float32
	Roll  float32
}

// NewRotation creates a Rotation with zero roll.
func NewRotation(yaw, pitch float32) Rotation {
	return Rotation{Yaw: yaw, Pitch: pitch}
}

// ClipRotation snaps a yaw angle to the nearest of the eight compass
// directions: 0, ±π/4, ±π/2, ±3π/4 and π.
//
// The angle is reduced into (-π, π] first. An input exactly halfway between
// two octants goes to the one closer to zero. NaN and infinities map to 0.
func ClipRotation(angle float32) float32 {
	a := float64(angle)
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}

	a = wrapAngle(a)

	q := a / octant
	var n float64
	if q >= 0 {
		n = math.Ceil(q - 0.5)
	} else {
		n = math.Floor(q + 0.5)
	}

	snapped := n * octant
	if snapped <= -math.Pi {
		snapped = math.Pi
	}
	if snapped == 0 {
		// drop the sign of -0
		return 0
	}
	return float32(snapped)
}

// wrapAngle reduces a into (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
