package testutil

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/model"
)

// PortalSize is the edge length of fixture portal volumes.
const PortalSize = 4

// NewPortal returns a valid portal with a PortalSize cube volume at corner.
// The destination lies 10 units along X from corner, outside the volume,
// facing east (yaw π/2) with pitch 0.25.
func NewPortal(name string, worldID, networkID uuid.UUID, corner model.Location) *portal.Portal {
	return &portal.Portal{
		ID:        uuid.New(),
		NetworkID: networkID,
		WorldID:   worldID,
		Name:      name,
		Volume:    portal.NewVolume(corner, corner.Add(model.NewLocation(PortalSize, PortalSize, PortalSize))),
		Destination: portal.Destination{
			Position: corner.Add(model.NewLocation(10, 0, 0)),
			Yaw:      math.Pi / 2,
			Pitch:    0.25,
		},
	}
}

// Inside returns a point strictly inside the portal volume.
func Inside(p *portal.Portal) model.Location {
	return p.Volume.Min.Add(model.NewLocation(1, 1, 1))
}

// SavePortals saves portals in order and fails the test on error.
func SavePortals(tb testing.TB, store portal.Store, portals ...*portal.Portal) {
	tb.Helper()
	for _, p := range portals {
		if err := store.Save(context.Background(), p); err != nil {
			tb.Fatalf("saving portal %s: %v", p.Name, err)
		}
	}
}
