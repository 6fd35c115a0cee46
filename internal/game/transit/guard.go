package transit

import (
	"sync"

	"github.com/google/uuid"
)

// GuardSet holds the ids of players whose transit is in flight.
// A player id is present from the moment a portal hit is detected until the
// deferred teleport task has finished (or the transit was abandoned).
// Safe for concurrent use: worlds tick on separate goroutines.
type GuardSet struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

// NewGuardSet creates an empty GuardSet.
func NewGuardSet() *GuardSet {
	return &GuardSet{ids: make(map[uuid.UUID]struct{})}
}

// Acquire adds id. Returns false if id was already present.
func (g *GuardSet) Acquire(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.ids[id]; held {
		return false
	}
	g.ids[id] = struct{}{}
	return true
}

// Release removes id. Releasing an absent id is a no-op.
func (g *GuardSet) Release(id uuid.UUID) {
	g.mu.Lock()
	delete(g.ids, id)
	g.mu.Unlock()
}

// Holds reports whether id is in transit.
func (g *GuardSet) Holds(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.ids[id]
	return held
}

// Len returns the number of players in transit.
func (g *GuardSet) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ids)
}
