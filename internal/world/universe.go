package world

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Universe is the registry of running worlds. Safe for concurrent use.
type Universe struct {
	mu     sync.RWMutex
	worlds map[uuid.UUID]*World
	order  []*World
}

// NewUniverse creates an empty universe.
func NewUniverse() *Universe {
	return &Universe{worlds: make(map[uuid.UUID]*World)}
}

// Add registers a world. Fails if a world with the same id exists.
func (u *Universe) Add(w *World) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, exists := u.worlds[w.ID()]; exists {
		return fmt.Errorf("world %s (%s) already registered", w.ID(), w.Name())
	}
	u.worlds[w.ID()] = w
	u.order = append(u.order, w)
	return nil
}

// Remove unregisters a world. Unknown ids are ignored.
func (u *Universe) Remove(id uuid.UUID) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, exists := u.worlds[id]; !exists {
		return
	}
	delete(u.worlds, id)
	for i, w := range u.order {
		if w.ID() == id {
			u.order = append(u.order[:i], u.order[i+1:]...)
			break
		}
	}
}

// World returns a world by id, or nil if not found.
func (u *Universe) World(id uuid.UUID) *World {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.worlds[id]
}

// Worlds returns all worlds in registration order.
func (u *Universe) Worlds() []*World {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*World, len(u.order))
	copy(out, u.order)
	return out
}

// Transfer moves a player entity from one world into another. The entity is
// destroyed in from immediately and spawned in the destination during its next
// turn. Returns the destination world, or nil when it is not registered or
// ref is not a live player in from (nothing is changed then).
func (u *Universe) Transfer(from *World, ref Ref, to uuid.UUID, t Transform) *World {
	dest := u.World(to)
	if dest == nil {
		return nil
	}
	player, ok := from.Store().Player(ref)
	if !ok {
		return nil
	}
	from.Store().Destroy(ref)

	dest.Execute(func(context.Context) {
		dest.SpawnPlayer(player, t)
	})
	return dest
}
