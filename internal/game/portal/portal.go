// Package portal defines portals, their trigger volumes and destinations,
// and the registries that store them.
package portal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/model"
)

// ErrInvalidPortal is returned when a portal fails validation.
var ErrInvalidPortal = errors.New("invalid portal")

// Destination is where a player arrives when a portal is used as the target.
// Value type, embedded in Portal.
type Destination struct {
	Position model.Location
	Yaw      float32
	Pitch    float32
}

// Valid reports whether the position and pitch are finite numbers.
// Yaw is not checked: NormalizeDestination maps a non-finite yaw to 0.
func (d Destination) Valid() bool {
	p := float64(d.Pitch)
	return d.Position.Finite() && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// Rotation returns the destination facing.
func (d Destination) Rotation() model.Rotation {
	return model.NewRotation(d.Yaw, d.Pitch)
}

// NormalizeDestination snaps the destination yaw to one of the eight compass
// directions. Called when a portal is authored or imported; the transit path
// uses stored values as is.
func NormalizeDestination(d Destination) Destination {
	d.Yaw = model.ClipRotation(d.Yaw)
	return d
}

// Volume is an axis-aligned box. Bounds are inclusive.
type Volume struct {
	Min model.Location
	Max model.Location
}

// NewVolume creates a Volume spanning the two corners in any order.
func NewVolume(a, b model.Location) Volume {
	return Volume{
		Min: model.NewLocation(min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)),
		Max: model.NewLocation(max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)),
	}
}

// Contains checks if loc is inside the box (bounds included).
func (v Volume) Contains(loc model.Location) bool {
	return loc.X >= v.Min.X && loc.X <= v.Max.X &&
		loc.Y >= v.Min.Y && loc.Y <= v.Max.Y &&
		loc.Z >= v.Min.Z && loc.Z <= v.Max.Z
}

// Valid reports whether both corners are finite and Min is not greater than
// Max on every axis.
func (v Volume) Valid() bool {
	if !v.Min.Finite() || !v.Max.Finite() {
		return false
	}
	return v.Min.X <= v.Max.X && v.Min.Y <= v.Max.Y && v.Min.Z <= v.Max.Z
}

// Portal is a named trigger volume in a world, linked to other portals that
// share its network.
type Portal struct {
	ID          uuid.UUID
	NetworkID   uuid.UUID
	WorldID     uuid.UUID
	Name        string
	Volume      Volume
	Destination Destination
	CreatedAt   time.Time
}

// Validate checks that the portal can be stored.
func (p *Portal) Validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil portal", ErrInvalidPortal)
	case p.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", ErrInvalidPortal)
	case p.NetworkID == uuid.Nil:
		return fmt.Errorf("%w: portal %s: missing network id", ErrInvalidPortal, p.ID)
	case p.WorldID == uuid.Nil:
		return fmt.Errorf("%w: portal %s: missing world id", ErrInvalidPortal, p.ID)
	case p.Name == "":
		return fmt.Errorf("%w: portal %s: missing name", ErrInvalidPortal, p.ID)
	case !p.Volume.Valid():
		return fmt.Errorf("%w: portal %s: volume is not finite or min exceeds max", ErrInvalidPortal, p.ID)
	case !p.Destination.Valid():
		return fmt.Errorf("%w: portal %s: destination is not finite", ErrInvalidPortal, p.ID)
	}
	return nil
}

// Clone returns a copy of the portal.
func (p *Portal) Clone() *Portal {
	c := *p
	return &c
}

// ExcludeID returns portals without the one with the given id.
// Order is preserved.
func ExcludeID(portals []*Portal, id uuid.UUID) []*Portal {
	out := make([]*Portal, 0, len(portals))
	for _, p := range portals {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
