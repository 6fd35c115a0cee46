// Package sqlitestore is a portal registry backed by an embedded SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/model"
)

var _ portal.Store = (*Store)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS portals (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT    NOT NULL UNIQUE,
	network_id TEXT    NOT NULL,
	world_id   TEXT    NOT NULL,
	name       TEXT    NOT NULL,
	min_x      REAL    NOT NULL,
	min_y      REAL    NOT NULL,
	min_z      REAL    NOT NULL,
	max_x      REAL    NOT NULL,
	max_y      REAL    NOT NULL,
	max_z      REAL    NOT NULL,
	dest_x     REAL    NOT NULL,
	dest_y     REAL    NOT NULL,
	dest_z     REAL    NOT NULL,
	dest_yaw   REAL    NOT NULL,
	dest_pitch REAL    NOT NULL,
	created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_portals_network ON portals(network_id, seq);`,
	`CREATE INDEX IF NOT EXISTS idx_portals_world ON portals(world_id, seq);`,
}

const selectColumns = `id, network_id, world_id, name,
	min_x, min_y, min_z, max_x, max_y, max_z,
	dest_x, dest_y, dest_z, dest_yaw, dest_pitch, created_at`

const upsertPortal = `
INSERT INTO portals (id, network_id, world_id, name,
	min_x, min_y, min_z, max_x, max_y, max_z,
	dest_x, dest_y, dest_z, dest_yaw, dest_pitch, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	network_id = excluded.network_id,
	world_id   = excluded.world_id,
	name       = excluded.name,
	min_x = excluded.min_x, min_y = excluded.min_y, min_z = excluded.min_z,
	max_x = excluded.max_x, max_y = excluded.max_y, max_z = excluded.max_z,
	dest_x = excluded.dest_x, dest_y = excluded.dest_y, dest_z = excluded.dest_z,
	dest_yaw = excluded.dest_yaw, dest_pitch = excluded.dest_pitch`

// Store implements portal.Store on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("opening portal db: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating portal db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening portal db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	stmts := append([]string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}, schema...)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("initializing portal db %s: %w", path, err)
		}
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or updates a portal. Updates keep the original registry position
// and creation time.
func (s *Store) Save(ctx context.Context, p *portal.Portal) error {
	c, err := portal.Prepare(p, s.now)
	if err != nil {
		return fmt.Errorf("saving portal: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertPortal, portalArgs(c)...); err != nil {
		return fmt.Errorf("saving portal %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes a portal by id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM portals WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("deleting portal %s: %w", id, err)
	}
	return nil
}

// Get returns a portal by id, or nil if not found.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*portal.Portal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM portals WHERE id = ?`, id.String())
	p, err := scanPortal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying portal %s: %w", id, err)
	}
	return p, nil
}

// All returns every portal in registry order.
func (s *Store) All(ctx context.Context) ([]*portal.Portal, error) {
	return s.query(ctx, "loading all portals",
		`SELECT `+selectColumns+` FROM portals ORDER BY seq`)
}

// FindPortalAtLocation returns the first portal in registry order containing loc.
func (s *Store) FindPortalAtLocation(ctx context.Context, worldID uuid.UUID, loc model.Location) (*portal.Portal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM portals
		 WHERE world_id = ?
		   AND min_x <= ? AND max_x >= ?
		   AND min_y <= ? AND max_y >= ?
		   AND min_z <= ? AND max_z >= ?
		 ORDER BY seq LIMIT 1`,
		worldID.String(), loc.X, loc.X, loc.Y, loc.Y, loc.Z, loc.Z)
	p, err := scanPortal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding portal at %s: %w", loc, err)
	}
	return p, nil
}

// PortalsInNetwork returns the portals of a network in registry order.
func (s *Store) PortalsInNetwork(ctx context.Context, networkID uuid.UUID) ([]*portal.Portal, error) {
	return s.query(ctx, "loading network portals",
		`SELECT `+selectColumns+` FROM portals WHERE network_id = ? ORDER BY seq`,
		networkID.String())
}

// Replace swaps the table content inside one transaction.
func (s *Store) Replace(ctx context.Context, portals []*portal.Portal) error {
	prepared, err := portal.PrepareAll(portals, s.now)
	if err != nil {
		return fmt.Errorf("replacing portals: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM portals`); err != nil {
		return fmt.Errorf("clearing portals: %w", err)
	}
	for _, c := range prepared {
		if _, err := tx.ExecContext(ctx, upsertPortal, portalArgs(c)...); err != nil {
			return fmt.Errorf("inserting portal %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}
	return nil
}

func (s *Store) query(ctx context.Context, what, q string, args ...any) ([]*portal.Portal, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var out []*portal.Portal
	for rows.Next() {
		p, err := scanPortal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning portal row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating portal rows: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPortal(row scanner) (*portal.Portal, error) {
	var (
		id, networkID, worldID string
		p                      portal.Portal
		yaw, pitch             float64
		createdAt              int64
	)
	err := row.Scan(&id, &networkID, &worldID, &p.Name,
		&p.Volume.Min.X, &p.Volume.Min.Y, &p.Volume.Min.Z,
		&p.Volume.Max.X, &p.Volume.Max.Y, &p.Volume.Max.Z,
		&p.Destination.Position.X, &p.Destination.Position.Y, &p.Destination.Position.Z,
		&yaw, &pitch, &createdAt)
	if err != nil {
		return nil, err
	}

	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing portal id %q: %w", id, err)
	}
	if p.NetworkID, err = uuid.Parse(networkID); err != nil {
		return nil, fmt.Errorf("parsing network id %q: %w", networkID, err)
	}
	if p.WorldID, err = uuid.Parse(worldID); err != nil {
		return nil, fmt.Errorf("parsing world id %q: %w", worldID, err)
	}
	p.Destination.Yaw = float32(yaw)
	p.Destination.Pitch = float32(pitch)
	p.CreatedAt = time.Unix(0, createdAt).UTC()

	return &p, nil
}

func portalArgs(p *portal.Portal) []any {
	return []any{
		p.ID.String(), p.NetworkID.String(), p.WorldID.String(), p.Name,
		p.Volume.Min.X, p.Volume.Min.Y, p.Volume.Min.Z,
		p.Volume.Max.X, p.Volume.Max.Y, p.Volume.Max.Z,
		p.Destination.Position.X, p.Destination.Position.Y, p.Destination.Position.Z,
		float64(p.Destination.Yaw), float64(p.Destination.Pitch),
		p.CreatedAt.UnixNano(),
	}
}
