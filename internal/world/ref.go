package world

import "fmt"

// Ref is a handle to an entity in a Store. It carries the slot generation, so
// a handle to a destroyed entity stays invalid even after the slot is reused.
// The zero Ref is never valid.
type Ref struct {
	index uint32
	gen   uint32
}

// IsZero reports whether r is the zero handle.
func (r Ref) IsZero() bool {
	return r.gen == 0
}

func (r Ref) String() string {
	return fmt.Sprintf("%d:%d", r.index, r.gen)
}
