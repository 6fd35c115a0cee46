package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portalserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadServer_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServer(), cfg)
}

func TestLoadServer_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
tick_interval: 100ms
worlds:
  - id: 00000000-0000-4000-8000-000000000001
    name: overworld
  - id: 00000000-0000-4000-8000-000000000002
    name: nether
store:
  driver: sqlite
  sqlite_path: /var/lib/portalgo/portals.db
seed_file: ""
http:
  port: 9090
`)

	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	require.Len(t, cfg.Worlds, 2)
	assert.Equal(t, "nether", cfg.Worlds[1].Name)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/portalgo/portals.db", cfg.Store.SQLitePath)
	assert.Empty(t, cfg.SeedFile)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.BindAddress, "unset keys keep defaults")
	assert.Equal(t, "portalgo", cfg.Store.Database.User)
}

func TestLoadServer_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "log_level: debug\nstore:\n  driver: sqlite\n")
	t.Setenv("PORTALGO_LOG_LEVEL", "warn")
	t.Setenv("PORTALGO_STORE_DRIVER", "postgres")
	t.Setenv("PORTALGO_STORE_DB_PASSWORD", "s3cret")
	t.Setenv("PORTALGO_STORE_DB_PORT", "6543")
	t.Setenv("PORTALGO_HTTP_PORT", "0")
	t.Setenv("PORTALGO_TICK_INTERVAL", "25ms")
	t.Setenv("PORTALGO_WATCH_SEED", "false")

	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "s3cret", cfg.Store.Database.Password)
	assert.Equal(t, 6543, cfg.Store.Database.Port)
	assert.Equal(t, 0, cfg.HTTP.Port)
	assert.Equal(t, 25*time.Millisecond, cfg.TickInterval)
	assert.False(t, cfg.WatchSeed)
}

func TestLoadServer_InvalidEnv(t *testing.T) {
	t.Setenv("PORTALGO_HTTP_PORT", "eighty")
	_, err := LoadServer(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadServer_BadYAML(t *testing.T) {
	_, err := LoadServer(writeConfig(t, "worlds: [\n"))
	assert.Error(t, err)
}

func TestServer_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Server)
	}{
		{"zero tick", func(s *Server) { s.TickInterval = 0 }},
		{"unknown driver", func(s *Server) { s.Store.Driver = "redis" }},
		{"sqlite without path", func(s *Server) { s.Store.Driver = DriverSQLite; s.Store.SQLitePath = "" }},
		{"no worlds", func(s *Server) { s.Worlds = nil }},
		{"bad world id", func(s *Server) { s.Worlds = []WorldEntry{{ID: "x", Name: "x"}} }},
		{"duplicate world", func(s *Server) { s.Worlds = append(s.Worlds, s.Worlds[0]) }},
		{"port range", func(s *Server) { s.HTTP.Port = 70000 }},
	}

	require.NoError(t, DefaultServer().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServer()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "portals", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/portals?sslmode=disable", d.DSN())
}

func TestHTTPConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", DefaultServer().HTTP.Addr())
}
