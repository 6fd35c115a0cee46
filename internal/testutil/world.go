package testutil

import (
	"testing"

	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/message"
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

// NewUniverse creates a universe with one world per name, in order.
func NewUniverse(tb testing.TB, names ...string) (*world.Universe, []*world.World) {
	tb.Helper()

	u := world.NewUniverse()
	worlds := make([]*world.World, 0, len(names))
	for _, name := range names {
		w := world.New(uuid.New(), name)
		if err := u.Add(w); err != nil {
			tb.Fatalf("adding world %s: %v", name, err)
		}
		worlds = append(worlds, w)
	}
	return u, worlds
}

// SpawnPlayer puts a player at position in w. Messages sent to the player
// collect in the returned outbox.
func SpawnPlayer(w *world.World, name string, at model.Location) (world.Ref, *world.Player, *message.Outbox) {
	outbox := message.NewOutbox()
	p := &world.Player{ID: uuid.New(), Name: name, Sender: outbox}
	ref := w.SpawnPlayer(p, world.Transform{Position: at})
	return ref, p, outbox
}
