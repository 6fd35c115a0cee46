// Package world is the tick-driven entity runtime: worlds with their own
// entity stores, systems and deferred task queues, and the universe that
// indexes them.
package world

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Task is work deferred into a world's next turn.
type Task func(ctx context.Context)

// World is one simulation space. Its store and systems are driven by a single
// goroutine (Run); other goroutines talk to it through Execute.
type World struct {
	id   uuid.UUID
	name string

	store   *Store
	systems []System

	mu    sync.Mutex
	tasks []Task

	ticks atomic.Uint64
}

// New creates an empty world.
func New(id uuid.UUID, name string) *World {
	return &World{
		id:    id,
		name:  name,
		store: NewStore(),
	}
}

// ID returns the world identifier.
func (w *World) ID() uuid.UUID { return w.id }

// Name returns the world display name.
func (w *World) Name() string { return w.name }

// Store returns the world's entity store.
func (w *World) Store() *Store { return w.store }

// TickCount returns the number of completed ticks.
func (w *World) TickCount() uint64 { return w.ticks.Load() }

// AddSystem appends a system to the tick order. Call before Run.
func (w *World) AddSystem(s System) {
	if s == nil {
		return
	}
	w.systems = append(w.systems, s)
}

// Execute queues task for the world's next turn. Safe for concurrent use.
// Tasks run in the order they were queued, before any system of that turn.
func (w *World) Execute(task Task) {
	if task == nil {
		return
	}
	w.mu.Lock()
	w.tasks = append(w.tasks, task)
	w.mu.Unlock()
}

// PendingTasks returns the number of queued tasks.
func (w *World) PendingTasks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tasks)
}

// SpawnPlayer creates a player entity at the given transform.
func (w *World) SpawnPlayer(p *Player, t Transform) Ref {
	ref := w.store.Create()
	w.store.SetPlayer(ref, p)
	w.store.SetTransform(ref, t)

	slog.Debug("player spawned",
		"world", w.name,
		"player", p.ID,
		"position", t.Position.String())
	return ref
}

// Tick runs one turn: tasks queued before this call, then every system over
// its matching entities. Tasks queued during the turn run in the next one.
func (w *World) Tick(ctx context.Context) {
	w.mu.Lock()
	tasks := w.tasks
	w.tasks = nil
	w.mu.Unlock()

	for _, task := range tasks {
		task(ctx)
	}

	for _, sys := range w.systems {
		for _, ref := range w.store.Query(sys.Query()...) {
			// an earlier system in this turn may have destroyed it
			if !w.store.Valid(ref) {
				continue
			}
			sys.Tick(ctx, w, ref)
		}
	}

	w.ticks.Add(1)
}

// Run ticks the world every interval (blocks until context is canceled).
func (w *World) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("world started", "world", w.name, "id", w.id, "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("world stopping", "world", w.name, "ticks", w.TickCount())
			return nil
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}
