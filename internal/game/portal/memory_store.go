package portal

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/model"
)

const (
	// cellSize is the edge of one spatial index cell in world units.
	cellSize = 64.0

	// maxIndexedCells caps the cells one portal may occupy. Larger portals go
	// to the wide list, scanned on every lookup.
	maxIndexedCells = 1024
)

var _ Store = (*MemoryStore)(nil)

type cellKey struct {
	world  uuid.UUID
	cx, cz int32
}

// MemoryStore keeps portals in memory with a grid index for containment
// lookups. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	ordered []*Portal // registry order
	byID    map[uuid.UUID]*Portal
	grid    map[cellKey][]*Portal
	wide    []*Portal         // too large for the grid, registry order
	rank    map[uuid.UUID]int // id -> position in ordered
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[uuid.UUID]*Portal),
		grid: make(map[cellKey][]*Portal),
		rank: make(map[uuid.UUID]int),
		now:  time.Now,
	}
}

// Save inserts or updates a portal. An updated portal keeps its position in
// registry order.
func (s *MemoryStore) Save(_ context.Context, p *Portal) error {
	c, err := Prepare(p, s.now)
	if err != nil {
		return fmt.Errorf("saving portal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[c.ID]; exists {
		for i, old := range s.ordered {
			if old.ID == c.ID {
				c.CreatedAt = old.CreatedAt
				s.ordered[i] = c
				break
			}
		}
	} else {
		s.ordered = append(s.ordered, c)
	}
	s.byID[c.ID] = c
	s.buildGrid()

	return nil
}

// Delete removes a portal. Deleting an unknown id is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return nil
	}
	delete(s.byID, id)
	for i, p := range s.ordered {
		if p.ID == id {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
	s.buildGrid()

	return nil
}

// Get returns a portal by id, or nil if not found.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Portal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id], nil
}

// All returns every portal in registry order.
func (s *MemoryStore) All(_ context.Context) ([]*Portal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Portal, len(s.ordered))
	copy(out, s.ordered)
	return out, nil
}

// FindPortalAtLocation returns the first portal in registry order whose volume
// contains loc in the given world, or nil.
func (s *MemoryStore) FindPortalAtLocation(_ context.Context, worldID uuid.UUID, loc model.Location) (*Portal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hit *Portal
	cx, okX := cellIndex(loc.X)
	cz, okZ := cellIndex(loc.Z)
	if okX && okZ {
		for _, p := range s.grid[cellKey{world: worldID, cx: cx, cz: cz}] {
			if p.Volume.Contains(loc) {
				hit = p
				break
			}
		}
	}
	for _, p := range s.wide {
		if p.WorldID != worldID || !p.Volume.Contains(loc) {
			continue
		}
		if hit == nil || s.rank[p.ID] < s.rank[hit.ID] {
			hit = p
		}
		break
	}
	return hit, nil
}

// PortalsInNetwork returns all portals of a network in registry order.
func (s *MemoryStore) PortalsInNetwork(_ context.Context, networkID uuid.UUID) ([]*Portal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Portal
	for _, p := range s.ordered {
		if p.NetworkID == networkID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Replace swaps the whole store content. Either every portal is accepted or
// the store is left untouched.
func (s *MemoryStore) Replace(_ context.Context, portals []*Portal) error {
	ordered, err := PrepareAll(portals, s.now)
	if err != nil {
		return fmt.Errorf("replacing portals: %w", err)
	}
	byID := make(map[uuid.UUID]*Portal, len(ordered))
	for _, c := range ordered {
		byID[c.ID] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordered = ordered
	s.byID = byID
	s.buildGrid()

	return nil
}

// Len returns the number of stored portals.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}

// buildGrid registers every portal in all cells its volume overlaps on the
// horizontal plane. Cell lists keep registry order. Portals spanning more than
// maxIndexedCells go to s.wide instead. Caller holds s.mu.
func (s *MemoryStore) buildGrid() {
	grid := make(map[cellKey][]*Portal, len(s.grid))
	rank := make(map[uuid.UUID]int, len(s.ordered))
	var wide []*Portal

	for i, p := range s.ordered {
		rank[p.ID] = i

		minX, okMinX := cellIndex(p.Volume.Min.X)
		maxX, okMaxX := cellIndex(p.Volume.Max.X)
		minZ, okMinZ := cellIndex(p.Volume.Min.Z)
		maxZ, okMaxZ := cellIndex(p.Volume.Max.Z)
		if !okMinX || !okMaxX || !okMinZ || !okMaxZ {
			wide = append(wide, p)
			continue
		}
		if cells := (int64(maxX) - int64(minX) + 1) * (int64(maxZ) - int64(minZ) + 1); cells > maxIndexedCells {
			wide = append(wide, p)
			continue
		}

		for cx := minX; cx <= maxX; cx++ {
			for cz := minZ; cz <= maxZ; cz++ {
				key := cellKey{world: p.WorldID, cx: cx, cz: cz}
				grid[key] = append(grid[key], p)
			}
		}
	}

	s.grid = grid
	s.rank = rank
	s.wide = wide
}

// cellIndex maps a coordinate to its grid cell (floor division).
// ok is false when the cell does not fit in int32.
func cellIndex(v float64) (idx int32, ok bool) {
	c := math.Floor(v / cellSize)
	if math.IsNaN(c) || c < math.MinInt32 || c > math.MaxInt32 {
		return 0, false
	}
	return int32(c), true
}
