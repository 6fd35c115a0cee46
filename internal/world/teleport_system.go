package world

import (
	"context"
	"log/slog"
)

// TeleportSystem applies pending Teleport components.
//
// A teleport inside the same world updates the transform in place. A teleport
// into another world removes the entity here and spawns it in the destination
// during the destination's next turn. Requests for unknown worlds are dropped.
type TeleportSystem struct {
	universe *Universe
}

// NewTeleportSystem creates a TeleportSystem resolving worlds in u.
func NewTeleportSystem(u *Universe) *TeleportSystem {
	return &TeleportSystem{universe: u}
}

// Query selects players with a pending teleport.
func (s *TeleportSystem) Query() []Component {
	return []Component{ComponentPlayer, ComponentTeleport}
}

// Tick applies the teleport of one entity.
func (s *TeleportSystem) Tick(_ context.Context, w *World, ref Ref) {
	store := w.Store()
	tp, ok := store.Teleport(ref)
	if !ok {
		return
	}
	store.RemoveTeleport(ref)

	target := Transform{Position: tp.Position, Rotation: tp.Rotation}

	if tp.WorldID == w.ID() {
		store.SetTransform(ref, target)
		slog.Debug("teleport applied", "world", w.Name(), "entity", ref, "position", tp.Position.String())
		return
	}

	dest := s.universe.Transfer(w, ref, tp.WorldID, target)
	if dest == nil {
		slog.Warn("teleport dropped: destination world not registered",
			"world", w.Name(),
			"entity", ref,
			"destination", tp.WorldID)
		return
	}

	slog.Debug("teleport crossing worlds",
		"from", w.Name(),
		"to", dest.Name(),
		"entity", ref)
}
