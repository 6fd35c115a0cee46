// Package transit moves players through portals.
//
// The Coordinator is a world system. Every tick it checks whether a player
// stands inside a portal, picks the linked portal in the same network and
// queues the teleport on the player's world. A guard keeps a player from
// triggering a second transit while the first one is in flight.
package transit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/message"
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

// Player-facing texts.
const (
	msgNeedTwoPortals = "You need at least two portals in your network to use this feature."
	msgWorldNotFound  = "Destination world not found for portal %s"
	msgTeleported     = "Teleported to %s!"
)

// Registry answers the two portal queries transit needs.
// Both methods return portals in registry order.
type Registry interface {
	// FindPortalAtLocation returns the portal whose volume contains loc, or nil.
	FindPortalAtLocation(ctx context.Context, worldID uuid.UUID, loc model.Location) (*portal.Portal, error)
	PortalsInNetwork(ctx context.Context, networkID uuid.UUID) ([]*portal.Portal, error)
}

// WorldLookup resolves a world by id. Returns nil when the world is unknown.
type WorldLookup interface {
	World(id uuid.UUID) *world.World
}

// Coordinator detects portal hits and schedules teleports.
// One Coordinator is shared by all worlds; register it after the
// world.TeleportSystem so that a teleport applied in a turn is seen by the
// coordinator at the new position in the same turn.
type Coordinator struct {
	registry Registry
	worlds   WorldLookup
	guard    *GuardSet
	metrics  *Metrics
}

var _ world.System = (*Coordinator)(nil)

// NewCoordinator creates a Coordinator. metrics may be nil.
func NewCoordinator(registry Registry, worlds WorldLookup, metrics *Metrics) *Coordinator {
	return &Coordinator{
		registry: registry,
		worlds:   worlds,
		guard:    NewGuardSet(),
		metrics:  metrics,
	}
}

// Guard exposes the in-transit set.
func (c *Coordinator) Guard() *GuardSet {
	return c.guard
}

// Query selects player entities.
func (c *Coordinator) Query() []world.Component {
	return []world.Component{world.ComponentPlayer}
}

// transitPlan is everything the deferred task needs. Values only: the task
// runs a turn later and must not hold on to registry objects.
type transitPlan struct {
	ref       world.Ref
	playerID  uuid.UUID
	worldID   uuid.UUID
	position  model.Location
	rotation  model.Rotation
	portalID  uuid.UUID
	name      string
	fromWorld string
}

// Tick handles one player entity for the current tick.
func (c *Coordinator) Tick(ctx context.Context, w *world.World, ref world.Ref) {
	store := w.Store()
	if !store.Valid(ref) {
		return
	}
	player, ok := store.Player(ref)
	if !ok {
		return
	}
	transform, ok := store.Transform(ref)
	if !ok {
		return
	}
	// teleport already requested, TeleportSystem has not applied it yet
	if store.Has(ref, world.ComponentTeleport) {
		return
	}
	if c.guard.Holds(player.ID) {
		return
	}

	hit, err := c.registry.FindPortalAtLocation(ctx, w.ID(), transform.Position)
	if err != nil {
		c.metrics.registryError(opFindPortal)
		slog.Warn("portal lookup failed",
			"world", w.Name(),
			"player", player.ID,
			"position", transform.Position.String(),
			"err", err)
		return
	}
	if hit == nil {
		return
	}

	if !c.guard.Acquire(player.ID) {
		return
	}
	c.metrics.setInTransit(c.guard.Len())

	slog.Debug("player entered portal",
		"world", w.Name(),
		"player", player.ID,
		"portal", hit.Name,
		"network", hit.NetworkID)

	network, err := c.registry.PortalsInNetwork(ctx, hit.NetworkID)
	if err != nil {
		c.metrics.registryError(opNetwork)
		slog.Warn("portal network lookup failed",
			"portal", hit.Name,
			"network", hit.NetworkID,
			"err", err)
		c.release(player.ID)
		return
	}

	peers := portal.ExcludeID(network, hit.ID)
	if len(peers) == 0 {
		slog.Debug("portal has no peers", "portal", hit.Name, "network", hit.NetworkID)
		player.SendMessage(message.Warning(msgNeedTwoPortals))
		c.metrics.outcome(OutcomeNoPeer)
		c.release(player.ID)
		return
	}

	// Первый по порядку реестра; выбор среди нескольких пиров не поддерживается.
	dest := peers[0]

	plan := transitPlan{
		ref:       ref,
		playerID:  player.ID,
		worldID:   dest.WorldID,
		position:  dest.Destination.Position,
		rotation:  dest.Destination.Rotation(),
		portalID:  dest.ID,
		name:      dest.Name,
		fromWorld: w.Name(),
	}

	slog.Debug("transit scheduled",
		"player", player.ID,
		"from", hit.Name,
		"to", dest.Name,
		"destination_world", dest.WorldID)

	w.Execute(func(context.Context) {
		c.complete(w, plan)
	})
}

// complete runs on the origin world's next turn. Every branch releases the
// guard.
func (c *Coordinator) complete(w *world.World, plan transitPlan) {
	defer c.release(plan.playerID)

	store := w.Store()
	if !store.Valid(plan.ref) {
		slog.Debug("transit abandoned: entity gone",
			"world", plan.fromWorld,
			"player", plan.playerID)
		c.metrics.outcome(OutcomeEntityGone)
		return
	}
	player, _ := store.Player(plan.ref)

	if c.worlds.World(plan.worldID) == nil {
		slog.Warn("transit abandoned: destination world not found",
			"portal", plan.name,
			"portal_id", plan.portalID,
			"destination_world", plan.worldID)
		player.SendMessage(message.Warning(fmt.Sprintf(msgWorldNotFound, plan.name)))
		c.metrics.outcome(OutcomeWorldMissing)
		return
	}

	store.PutTeleport(plan.ref, world.NewTeleport(plan.worldID, plan.position, plan.rotation))
	player.SendMessage(message.Success(fmt.Sprintf(msgTeleported, plan.name)))
	c.metrics.outcome(OutcomeTeleported)

	slog.Info("player teleported",
		"player", plan.playerID,
		"from_world", plan.fromWorld,
		"portal", plan.name,
		"destination_world", plan.worldID,
		"position", plan.position.String())
}

func (c *Coordinator) release(id uuid.UUID) {
	c.guard.Release(id)
	c.metrics.setInTransit(c.guard.Len())
}
