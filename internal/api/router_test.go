package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/testutil"
)

type brokenSource struct{}

func (brokenSource) All(context.Context) ([]*portal.Portal, error) {
	return nil, testutil.ErrSimulated
}

func (brokenSource) Get(context.Context, uuid.UUID) (*portal.Portal, error) {
	return nil, testutil.ErrSimulated
}

func newTestStore(t *testing.T) (*portal.MemoryStore, *portal.Portal) {
	t.Helper()
	store := portal.NewMemoryStore()
	p := testutil.NewPortal("Gate", uuid.New(), uuid.New(), model.NewLocation(0, 64, 0))
	p.Destination.Yaw = 0.3
	require.NoError(t, store.Save(context.Background(), p))
	return store, p
}

func newTestRouter(cfg RouterConfig) http.Handler {
	cfg.DisableLogging = true
	return NewRouter(cfg)
}

func get(t *testing.T, h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	store, _ := newTestStore(t)
	rec := get(t, newTestRouter(RouterConfig{Portals: store}), "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListPortals(t *testing.T) {
	store, p := newTestStore(t)
	h := newTestRouter(RouterConfig{Portals: store})

	rec := get(t, h, "/portals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []portalJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, p.ID.String(), got[0].ID)
	assert.Equal(t, "Gate", got[0].Name)
	assert.Equal(t, pointJSON{X: 0, Y: 64, Z: 0}, got[0].Min)
	assert.Equal(t, 10.0, got[0].Destination.X)
	assert.Equal(t, float32(0), got[0].Destination.Yaw, "stored yaw is snapped")
}

func TestListPortals_ETag(t *testing.T) {
	ctx := context.Background()
	store, p := newTestStore(t)
	h := newTestRouter(RouterConfig{Portals: store})

	first := get(t, h, "/portals", nil)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.True(t, strings.HasPrefix(etag, `"`) && strings.HasSuffix(etag, `"`))

	cached := get(t, h, "/portals", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, cached.Code)
	assert.Empty(t, cached.Body.String())

	require.NoError(t, store.Delete(ctx, p.ID))
	changed := get(t, h, "/portals", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusOK, changed.Code)
	assert.NotEqual(t, etag, changed.Header().Get("ETag"))
	assert.JSONEq(t, `[]`, changed.Body.String())
}

func TestGetPortal(t *testing.T) {
	store, p := newTestStore(t)
	h := newTestRouter(RouterConfig{Portals: store})

	rec := get(t, h, "/portals/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got portalJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, p.NetworkID.String(), got.NetworkID)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/portals/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/portals/not-a-uuid", nil).Code)
}

func TestRegistryErrors(t *testing.T) {
	h := newTestRouter(RouterConfig{Portals: brokenSource{}})

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/portals", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/portals/"+uuid.NewString(), nil).Code)
}

func TestListWorlds(t *testing.T) {
	store, _ := newTestStore(t)
	u, worlds := testutil.NewUniverse(t, "overworld")
	w := worlds[0]
	w.Tick(context.Background())

	h := newTestRouter(RouterConfig{Portals: store, Worlds: u})
	rec := get(t, h, "/worlds", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []worldJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []worldJSON{{ID: w.ID().String(), Name: "overworld", Ticks: 1}}, got)

	// optional routes stay unmounted
	bare := newTestRouter(RouterConfig{Portals: store})
	assert.Equal(t, http.StatusNotFound, get(t, bare, "/worlds", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(t, bare, "/metrics", nil).Code)
}

func TestMetrics(t *testing.T) {
	store, _ := newTestStore(t)
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "portal_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rec := get(t, newTestRouter(RouterConfig{Portals: store, Gatherer: reg}), "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portal_test_total 1")
}

func TestCORS(t *testing.T) {
	store, _ := newTestStore(t)
	h := newTestRouter(RouterConfig{Portals: store, CORSOrigins: []string{"https://admin.example"}})

	rec := get(t, h, "/portals", map[string]string{"Origin": "https://admin.example"})
	assert.Equal(t, "https://admin.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(t, h, "/portals", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_StopsOnCancel(t *testing.T) {
	store, _ := newTestStore(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, newTestRouter(RouterConfig{Portals: store})) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("Serve did not return")
	}
}
