package api

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/model"
)

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func newPointJSON(l model.Location) pointJSON {
	return pointJSON{X: l.X, Y: l.Y, Z: l.Z}
}

type destinationJSON struct {
	pointJSON
	Yaw   float32 `json:"yaw"`
	Pitch float32 `json:"pitch"`
}

type portalJSON struct {
	ID          string          `json:"id"`
	NetworkID   string          `json:"network_id"`
	WorldID     string          `json:"world_id"`
	Name        string          `json:"name"`
	Min         pointJSON       `json:"min"`
	Max         pointJSON       `json:"max"`
	Destination destinationJSON `json:"destination"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newPortalJSON(p *portal.Portal) portalJSON {
	return portalJSON{
		ID:        p.ID.String(),
		NetworkID: p.NetworkID.String(),
		WorldID:   p.WorldID.String(),
		Name:      p.Name,
		Min:       newPointJSON(p.Volume.Min),
		Max:       newPointJSON(p.Volume.Max),
		Destination: destinationJSON{
			pointJSON: newPointJSON(p.Destination.Position),
			Yaw:       p.Destination.Yaw,
			Pitch:     p.Destination.Pitch,
		},
		CreatedAt: p.CreatedAt,
	}
}

type worldJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ticks uint64 `json:"ticks"`
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleListPortals serves the registry in order. The ETag is a digest of the
// body, so pollers get 304 until the registry changes.
func (h *handlers) handleListPortals(w http.ResponseWriter, r *http.Request) {
	portals, err := h.portals.All(r.Context())
	if err != nil {
		slog.Error("listing portals", "err", err)
		writeError(w, "registry unavailable", http.StatusServiceUnavailable)
		return
	}

	out := make([]portalJSON, 0, len(portals))
	for _, p := range portals {
		out = append(out, newPortalJSON(p))
	}

	body, err := json.Marshal(out)
	if err != nil {
		writeError(w, "encoding portals", http.StatusInternalServerError)
		return
	}

	etag := digestETag(body)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *handlers) handleGetPortal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "invalid portal id", http.StatusBadRequest)
		return
	}

	p, err := h.portals.Get(r.Context(), id)
	if err != nil {
		slog.Error("getting portal", "id", id, "err", err)
		writeError(w, "registry unavailable", http.StatusServiceUnavailable)
		return
	}
	if p == nil {
		writeError(w, "portal not found", http.StatusNotFound)
		return
	}

	writeJSON(w, newPortalJSON(p))
}

func (h *handlers) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	worlds := h.worlds.Worlds()
	out := make([]worldJSON, 0, len(worlds))
	for _, wd := range worlds {
		out = append(out, worldJSON{
			ID:    wd.ID().String(),
			Name:  wd.Name(),
			Ticks: wd.TickCount(),
		})
	}
	writeJSON(w, out)
}

// digestETag returns a strong ETag of body (128-bit BLAKE2b).
func digestETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
