package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Registry backends.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Server holds all configuration for the portal server.
//
// Values come from defaults, then the YAML file, then PORTALGO_* environment
// variables.
type Server struct {
	LogLevel     string        `yaml:"log_level" env:"PORTALGO_LOG_LEVEL"`
	TickInterval time.Duration `yaml:"tick_interval" env:"PORTALGO_TICK_INTERVAL"`

	// Worlds to run. Portals referencing other world ids fail with
	// "destination world not found".
	Worlds []WorldEntry `yaml:"worlds"`

	Store StoreConfig `yaml:"store" envPrefix:"PORTALGO_STORE_"`

	// Portal seed. When the file exists it replaces the content of the
	// configured store at startup, whatever the driver; with watch_seed the
	// store follows file edits.
	SeedFile  string `yaml:"seed_file" env:"PORTALGO_SEED_FILE"`
	WatchSeed bool   `yaml:"watch_seed" env:"PORTALGO_WATCH_SEED"`

	HTTP HTTPConfig `yaml:"http" envPrefix:"PORTALGO_HTTP_"`
}

// WorldEntry is a world in the config.
type WorldEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// UUID parses the world id.
func (w WorldEntry) UUID() (uuid.UUID, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("world %q: parsing id: %w", w.Name, err)
	}
	return id, nil
}

// StoreConfig selects and configures the portal registry.
type StoreConfig struct {
	Driver     string         `yaml:"driver" env:"DRIVER"`
	SQLitePath string         `yaml:"sqlite_path" env:"SQLITE_PATH"`
	Database   DatabaseConfig `yaml:"database" envPrefix:"DB_"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// HTTPConfig is the admin HTTP listener. Port 0 disables it.
type HTTPConfig struct {
	BindAddress string `yaml:"bind_address" env:"BIND_ADDRESS"`
	Port        int    `yaml:"port" env:"PORT"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.BindAddress, strconv.Itoa(h.Port))
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:     "info",
		TickInterval: 50 * time.Millisecond, // 20 тиков в секунду
		Worlds: []WorldEntry{
			{ID: "00000000-0000-4000-8000-000000000001", Name: "overworld"},
		},
		Store: StoreConfig{
			Driver:     DriverMemory,
			SQLitePath: "data/portals.db",
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "portalgo",
				Password: "portalgo",
				DBName:   "portalgo",
				SSLMode:  "disable",
			},
		},
		SeedFile:  "config/portals.yaml",
		WatchSeed: true,
		HTTP: HTTPConfig{
			BindAddress: "127.0.0.1",
			Port:        8080,
		},
	}
}

// LoadServer loads server config from a YAML file and applies environment
// overrides. If the file doesn't exist, defaults are used.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with PORTALGO_* environment variables that are set.
func ApplyEnv(cfg *Server) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the config for values the server cannot start with.
func (s Server) Validate() error {
	var errs []error

	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", s.TickInterval))
	}

	switch s.Store.Driver {
	case DriverMemory, DriverPostgres:
	case DriverSQLite:
		if s.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", s.Store.Driver))
	}

	if len(s.Worlds) == 0 {
		errs = append(errs, errors.New("at least one world is required"))
	}
	seen := make(map[uuid.UUID]struct{}, len(s.Worlds))
	for _, w := range s.Worlds {
		id, err := w.UUID()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("duplicate world id %s", id))
		}
		seen[id] = struct{}{}
	}

	if s.HTTP.Port < 0 || s.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port out of range: %d", s.HTTP.Port))
	}

	return errors.Join(errs...)
}
