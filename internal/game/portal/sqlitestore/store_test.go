package sqlitestore

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "portals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portals.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	p := testutil.NewPortal("Gate", uuid.New(), uuid.New(), model.Location{})
	require.NoError(t, s.Save(ctx, p))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Gate", got.Name)
}

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := testutil.NewPortal("Gate", uuid.New(), uuid.New(), model.NewLocation(-10.5, 64, 20))
	p.Destination.Yaw = 1.5
	p.Destination.Pitch = -0.25
	require.NoError(t, s.Save(ctx, p))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.NetworkID, got.NetworkID)
	assert.Equal(t, p.WorldID, got.WorldID)
	assert.Equal(t, p.Volume, got.Volume)
	assert.Equal(t, p.Destination.Position, got.Destination.Position)
	assert.InDelta(t, math.Pi/2, got.Destination.Yaw, 1e-4, "yaw normalized on save")
	assert.InDelta(t, -0.25, got.Destination.Pitch, 1e-6)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)

	missing, err := s.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_SaveUpdateKeepsOrderAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	w, n := uuid.New(), uuid.New()

	a := testutil.NewPortal("A", w, n, model.NewLocation(0, 0, 0))
	b := testutil.NewPortal("B", w, n, model.NewLocation(100, 0, 0))
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))

	before, err := s.Get(ctx, a.ID)
	require.NoError(t, err)

	renamed := a.Clone()
	renamed.Name = "A2"
	renamed.CreatedAt = time.Now().Add(time.Hour)
	require.NoError(t, s.Save(ctx, renamed))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A2", all[0].Name)
	assert.Equal(t, "B", all[1].Name)
	assert.True(t, before.CreatedAt.Equal(all[0].CreatedAt))
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	err := s.Save(context.Background(), &portal.Portal{ID: uuid.New()})
	assert.ErrorIs(t, err, portal.ErrInvalidPortal)
}

func TestStore_FindPortalAtLocation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	w, other, n := uuid.New(), uuid.New(), uuid.New()

	first := testutil.NewPortal("First", w, n, model.NewLocation(0, 0, 0))
	second := testutil.NewPortal("Second", w, n, model.NewLocation(2, 0, 2)) // overlaps First
	elsewhere := testutil.NewPortal("Elsewhere", other, n, model.NewLocation(0, 0, 0))
	for _, p := range []*portal.Portal{first, second, elsewhere} {
		require.NoError(t, s.Save(ctx, p))
	}

	got, err := s.FindPortalAtLocation(ctx, w, model.NewLocation(3, 1, 3))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Name, "overlap resolved by registry order")

	got, err = s.FindPortalAtLocation(ctx, w, model.NewLocation(5, 1, 5))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Second", got.Name)

	got, err = s.FindPortalAtLocation(ctx, other, model.NewLocation(1, 1, 1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Elsewhere", got.Name)

	got, err = s.FindPortalAtLocation(ctx, w, model.NewLocation(50, 1, 50))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PortalsInNetwork(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	w, n1, n2 := uuid.New(), uuid.New(), uuid.New()

	for _, p := range []*portal.Portal{
		testutil.NewPortal("A", w, n1, model.NewLocation(0, 0, 0)),
		testutil.NewPortal("X", w, n2, model.NewLocation(10, 0, 0)),
		testutil.NewPortal("B", w, n1, model.NewLocation(20, 0, 0)),
		testutil.NewPortal("C", w, n1, model.NewLocation(30, 0, 0)),
	} {
		require.NoError(t, s.Save(ctx, p))
	}

	got, err := s.PortalsInNetwork(ctx, n1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
	assert.Equal(t, "C", got[2].Name)

	got, err = s.PortalsInNetwork(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	p := testutil.NewPortal("Gate", uuid.New(), uuid.New(), model.Location{})
	require.NoError(t, s.Save(ctx, p))

	require.NoError(t, s.Delete(ctx, p.ID))
	require.NoError(t, s.Delete(ctx, p.ID))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Replace(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	w, n := uuid.New(), uuid.New()

	old := testutil.NewPortal("Old", w, n, model.Location{})
	require.NoError(t, s.Save(ctx, old))

	a := testutil.NewPortal("A", w, n, model.NewLocation(10, 0, 0))
	b := testutil.NewPortal("B", w, n, model.NewLocation(20, 0, 0))
	require.NoError(t, s.Replace(ctx, []*portal.Portal{b, a}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "B", all[0].Name)
	assert.Equal(t, "A", all[1].Name)
}

func TestStore_ReplaceInvalidLeavesContent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	keep := testutil.NewPortal("Keep", uuid.New(), uuid.New(), model.Location{})
	require.NoError(t, s.Save(ctx, keep))

	err := s.Replace(ctx, []*portal.Portal{{ID: uuid.New()}})
	require.ErrorIs(t, err, portal.ErrInvalidPortal)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Keep", all[0].Name)
}

func TestStore_ReplaceRejectsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	w, n := uuid.New(), uuid.New()
	keep := testutil.NewPortal("Keep", w, n, model.Location{})
	require.NoError(t, s.Save(ctx, keep))

	a := testutil.NewPortal("A", w, n, model.NewLocation(10, 0, 0))
	again := a.Clone()
	again.Name = "A again"

	err := s.Replace(ctx, []*portal.Portal{a, again})
	require.ErrorIs(t, err, portal.ErrInvalidPortal)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Keep", all[0].Name)
}

func TestStore_SaveRejectsNonFiniteDestination(t *testing.T) {
	s := openTestStore(t)
	p := testutil.NewPortal("Gate", uuid.New(), uuid.New(), model.Location{})
	p.Destination.Pitch = float32(math.NaN())

	err := s.Save(context.Background(), p)
	require.ErrorIs(t, err, portal.ErrInvalidPortal)

	got, err := s.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
