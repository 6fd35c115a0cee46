package world

import (
	"slices"

	"github.com/google/uuid"
)

// Store owns entities and their components for one world.
// Not safe for concurrent use: touch it from the owning world's goroutine,
// or before the world starts running.
type Store struct {
	gens  []uint32
	alive []bool
	free  []uint32

	players    map[uint32]*Player
	transforms map[uint32]Transform
	teleports  map[uint32]Teleport
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		players:    make(map[uint32]*Player),
		transforms: make(map[uint32]Transform),
		teleports:  make(map[uint32]Teleport),
	}
}

// Create allocates a new entity without components.
func (s *Store) Create() Ref {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		s.gens[idx]++
		s.alive[idx] = true
		return Ref{index: idx, gen: s.gens[idx]}
	}

	idx := uint32(len(s.gens))
	s.gens = append(s.gens, 1)
	s.alive = append(s.alive, true)
	return Ref{index: idx, gen: 1}
}

// Destroy removes an entity and all its components.
// Returns false if ref was already invalid.
func (s *Store) Destroy(ref Ref) bool {
	if !s.Valid(ref) {
		return false
	}
	s.alive[ref.index] = false
	delete(s.players, ref.index)
	delete(s.transforms, ref.index)
	delete(s.teleports, ref.index)
	s.free = append(s.free, ref.index)
	return true
}

// Valid reports whether ref points to a live entity.
func (s *Store) Valid(ref Ref) bool {
	if ref.IsZero() || int(ref.index) >= len(s.gens) {
		return false
	}
	return s.alive[ref.index] && s.gens[ref.index] == ref.gen
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return len(s.gens) - len(s.free)
}

// Has reports whether the entity carries component c.
func (s *Store) Has(ref Ref, c Component) bool {
	if !s.Valid(ref) {
		return false
	}
	switch c {
	case ComponentPlayer:
		_, ok := s.players[ref.index]
		return ok
	case ComponentTransform:
		_, ok := s.transforms[ref.index]
		return ok
	case ComponentTeleport:
		_, ok := s.teleports[ref.index]
		return ok
	default:
		return false
	}
}

// Query returns every live entity carrying all given components, ordered by
// slot index.
func (s *Store) Query(components ...Component) []Ref {
	var out []Ref
	for idx, alive := range s.alive {
		if !alive {
			continue
		}
		ref := Ref{index: uint32(idx), gen: s.gens[idx]}
		matches := true
		for _, c := range components {
			if !s.Has(ref, c) {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, ref)
		}
	}
	return out
}

// Player returns the player component.
func (s *Store) Player(ref Ref) (*Player, bool) {
	if !s.Valid(ref) {
		return nil, false
	}
	p, ok := s.players[ref.index]
	return p, ok
}

// SetPlayer attaches the player component. No-op for invalid refs or nil p.
func (s *Store) SetPlayer(ref Ref, p *Player) {
	if p != nil && s.Valid(ref) {
		s.players[ref.index] = p
	}
}

// FindPlayer returns the entity of the player with the given id.
func (s *Store) FindPlayer(id uuid.UUID) (Ref, bool) {
	indexes := make([]uint32, 0, len(s.players))
	for idx := range s.players {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)

	for _, idx := range indexes {
		if s.players[idx].ID == id {
			return Ref{index: idx, gen: s.gens[idx]}, true
		}
	}
	return Ref{}, false
}

// Transform returns the transform component.
func (s *Store) Transform(ref Ref) (Transform, bool) {
	if !s.Valid(ref) {
		return Transform{}, false
	}
	t, ok := s.transforms[ref.index]
	return t, ok
}

// SetTransform attaches or replaces the transform component.
func (s *Store) SetTransform(ref Ref, t Transform) {
	if s.Valid(ref) {
		s.transforms[ref.index] = t
	}
}

// Teleport returns the pending teleport request.
func (s *Store) Teleport(ref Ref) (Teleport, bool) {
	if !s.Valid(ref) {
		return Teleport{}, false
	}
	t, ok := s.teleports[ref.index]
	return t, ok
}

// PutTeleport attaches a teleport request, replacing any pending one.
// Returns false if ref is invalid.
func (s *Store) PutTeleport(ref Ref, t Teleport) bool {
	if !s.Valid(ref) {
		return false
	}
	s.teleports[ref.index] = t
	return true
}

// RemoveTeleport drops the pending teleport request.
func (s *Store) RemoveTeleport(ref Ref) {
	if s.Valid(ref) {
		delete(s.teleports, ref.index)
	}
}
