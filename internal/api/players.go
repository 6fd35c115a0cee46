package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/message"
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

type spawnRequest struct {
	Name     string    `json:"name"`
	Position pointJSON `json:"position"`
	Yaw      float32   `json:"yaw"`
}

type moveRequest struct {
	Position pointJSON `json:"position"`
}

func (p pointJSON) location() model.Location {
	return model.NewLocation(p.X, p.Y, p.Z)
}

// handleSpawnPlayer queues a new player into a world. The entity is created on
// the world's next turn; the response carries the player id only.
func (h *handlers) handleSpawnPlayer(w http.ResponseWriter, r *http.Request) {
	wd, ok := h.lookupWorld(w, r)
	if !ok {
		return
	}

	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	player := &world.Player{
		ID:   uuid.New(),
		Name: req.Name,
	}
	player.Sender = message.LogSender{Player: player.Name}

	t := world.Transform{
		Position: req.Position.location(),
		Rotation: model.NewRotation(req.Yaw, 0),
	}
	wd.Execute(func(context.Context) {
		wd.SpawnPlayer(player, t)
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": player.ID.String()})
}

// handleMovePlayer queues a position change. Unknown players are logged and
// ignored on the world's turn.
func (h *handlers) handleMovePlayer(w http.ResponseWriter, r *http.Request) {
	wd, ok := h.lookupWorld(w, r)
	if !ok {
		return
	}
	playerID, err := uuid.Parse(chi.URLParam(r, "player"))
	if err != nil {
		writeError(w, "invalid player id", http.StatusBadRequest)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	pos := req.Position.location()

	wd.Execute(func(context.Context) {
		store := wd.Store()
		ref, found := store.FindPlayer(playerID)
		if !found {
			slog.Warn("move ignored: player not in world", "world", wd.Name(), "player", playerID)
			return
		}
		t, _ := store.Transform(ref)
		t.Position = pos
		store.SetTransform(ref, t)
	})

	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) lookupWorld(w http.ResponseWriter, r *http.Request) (*world.World, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "invalid world id", http.StatusBadRequest)
		return nil, false
	}
	wd := h.worlds.World(id)
	if wd == nil {
		writeError(w, "world not found", http.StatusNotFound)
		return nil, false
	}
	return wd, true
}
