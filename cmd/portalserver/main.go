package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/portalgo/internal/api"
	"github.com/udisondev/portalgo/internal/config"
	"github.com/udisondev/portalgo/internal/db"
	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/game/portal/seed"
	"github.com/udisondev/portalgo/internal/game/portal/sqlitestore"
	"github.com/udisondev/portalgo/internal/game/transit"
	"github.com/udisondev/portalgo/internal/world"
)

const ConfigPath = "config/portalserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("PORTALGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("portalgo server starting",
		"log_level", cfg.LogLevel,
		"tick_interval", cfg.TickInterval,
		"store", cfg.Store.Driver,
		"worlds", len(cfg.Worlds))

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, store, cfg.SeedFile); err != nil {
			return err
		}
	}

	universe, err := buildUniverse(cfg.Worlds)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// TeleportSystem идёт первым: телепорт, выставленный задачей в начале хода,
	// применяется до того, как координатор снова проверит позицию игрока.
	coordinator := transit.NewCoordinator(store, universe, transit.NewMetrics(reg))
	teleports := world.NewTeleportSystem(universe)
	for _, w := range universe.Worlds() {
		w.AddSystem(teleports)
		w.AddSystem(coordinator)
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, w := range universe.Worlds() {
		g.Go(func() error {
			if err := w.Run(gctx, cfg.TickInterval); err != nil {
				return fmt.Errorf("world %s: %w", w.Name(), err)
			}
			return nil
		})
	}

	if cfg.SeedFile != "" && cfg.WatchSeed {
		g.Go(func() error {
			if err := seed.WatchStore(gctx, cfg.SeedFile, store); err != nil {
				return fmt.Errorf("seed watcher: %w", err)
			}
			return nil
		})
	}

	if cfg.HTTP.Port != 0 {
		router := api.NewRouter(api.RouterConfig{
			Portals:  store,
			Worlds:   universe,
			Gatherer: reg,
		})
		g.Go(func() error {
			if err := api.ListenAndServe(gctx, cfg.HTTP.Addr(), router); err != nil {
				return fmt.Errorf("admin http: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("portalgo server stopped")
	return nil
}

// openStore builds the portal registry selected in config. The returned func
// releases it.
func openStore(ctx context.Context, cfg config.StoreConfig) (portal.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return portal.NewMemoryStore(), func() {}, nil

	case config.DriverSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		slog.Info("sqlite store opened", "path", cfg.SQLitePath)
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("closing sqlite store", "err", err)
			}
		}, nil

	case config.DriverPostgres:
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
		return db.NewPortalRepository(database.Pool()), database.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// applySeed loads the seed file into store. A missing file is not an error:
// the registry keeps its current content.
func applySeed(ctx context.Context, store portal.Store, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Info("portal seed not found, skipping", "path", path)
		return nil
	}
	n, err := seed.Apply(ctx, store, path)
	if err != nil {
		return fmt.Errorf("applying portal seed: %w", err)
	}
	slog.Info("portal seed applied", "path", path, "portals", n)
	return nil
}

func buildUniverse(entries []config.WorldEntry) (*world.Universe, error) {
	u := world.NewUniverse()
	for _, e := range entries {
		id, err := e.UUID()
		if err != nil {
			return nil, err
		}
		if err := u.Add(world.New(id, e.Name)); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// parseLogLevel converts string log level to slog.Level.
// Unknown values fall back to info.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
