package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/model"
)

// Store is a portal registry.
//
// Get and FindPortalAtLocation return nil, nil when nothing matches.
// PortalsInNetwork and All return portals in registry order (creation order);
// callers rely on that order to pick destinations deterministically.
type Store interface {
	Save(ctx context.Context, p *Portal) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*Portal, error)
	All(ctx context.Context) ([]*Portal, error)
	FindPortalAtLocation(ctx context.Context, worldID uuid.UUID, loc model.Location) (*Portal, error)
	PortalsInNetwork(ctx context.Context, networkID uuid.UUID) ([]*Portal, error)
	// Replace swaps the whole content for portals, keeping their order.
	Replace(ctx context.Context, portals []*Portal) error
}

// Prepare validates p and returns the copy that a store should persist.
// The destination yaw is normalized and CreatedAt is filled in when zero.
func Prepare(p *Portal, now func() time.Time) (*Portal, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := p.Clone()
	c.Destination = NormalizeDestination(c.Destination)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now().UTC()
	}
	return c, nil
}

// PrepareAll runs Prepare over a Replace batch and rejects duplicate ids, so
// every Store implementation accepts the same input.
func PrepareAll(portals []*Portal, now func() time.Time) ([]*Portal, error) {
	out := make([]*Portal, 0, len(portals))
	seen := make(map[uuid.UUID]struct{}, len(portals))
	for _, p := range portals {
		c, err := Prepare(p, now)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidPortal, c.ID)
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
