// Package seed loads portals from a YAML file and keeps a registry in sync
// with it.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/model"
)

// File is the YAML layout of a seed file.
type File struct {
	Portals []Entry `yaml:"portals"`
}

// Point is a position in a seed file.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (p Point) location() model.Location {
	return model.NewLocation(p.X, p.Y, p.Z)
}

// DestinationEntry is where players arrive when the portal is the target.
// Yaw and pitch are radians.
type DestinationEntry struct {
	Point `yaml:",inline"`
	Yaw   float32 `yaml:"yaw"`
	Pitch float32 `yaml:"pitch"`
}

// Entry is one portal in a seed file.
type Entry struct {
	ID          string           `yaml:"id"`
	NetworkID   string           `yaml:"network_id"`
	WorldID     string           `yaml:"world_id"`
	Name        string           `yaml:"name"`
	Min         Point            `yaml:"min"`
	Max         Point            `yaml:"max"`
	Destination DestinationEntry `yaml:"destination"`
}

// Portal converts the entry. Corners may be given in any order; the
// destination yaw is snapped to the nearest compass direction.
func (e Entry) Portal() (*portal.Portal, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return nil, fmt.Errorf("portal %q: parsing id: %w", e.Name, err)
	}
	networkID, err := uuid.Parse(e.NetworkID)
	if err != nil {
		return nil, fmt.Errorf("portal %q: parsing network_id: %w", e.Name, err)
	}
	worldID, err := uuid.Parse(e.WorldID)
	if err != nil {
		return nil, fmt.Errorf("portal %q: parsing world_id: %w", e.Name, err)
	}

	p := &portal.Portal{
		ID:        id,
		NetworkID: networkID,
		WorldID:   worldID,
		Name:      e.Name,
		Volume:    portal.NewVolume(e.Min.location(), e.Max.location()),
		Destination: portal.NormalizeDestination(portal.Destination{
			Position: e.Destination.location(),
			Yaw:      e.Destination.Yaw,
			Pitch:    e.Destination.Pitch,
		}),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes seed YAML into portals, in file order.
func Parse(data []byte) ([]*portal.Portal, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}

	portals := make([]*portal.Portal, 0, len(f.Portals))
	seen := make(map[uuid.UUID]struct{}, len(f.Portals))
	for i, e := range f.Portals {
		p, err := e.Portal()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("seed entry %d: duplicate portal id %s", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		portals = append(portals, p)
	}
	return portals, nil
}

// Load reads and parses a seed file.
func Load(path string) ([]*portal.Portal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", path, err)
	}
	portals, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return portals, nil
}

// Apply loads path and replaces the registry content with it.
// Returns the number of portals loaded.
func Apply(ctx context.Context, store portal.Store, path string) (int, error) {
	portals, err := Load(path)
	if err != nil {
		return 0, err
	}
	if err := store.Replace(ctx, portals); err != nil {
		return 0, fmt.Errorf("replacing portals from %s: %w", path, err)
	}
	return len(portals), nil
}
