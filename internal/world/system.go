package world

import "context"

// System runs once per tick for every entity that carries all components
// returned by Query.
type System interface {
	Query() []Component
	Tick(ctx context.Context, w *World, ref Ref)
}
