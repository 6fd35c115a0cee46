package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/model"
)

var _ portal.Store = (*PortalRepository)(nil)

const portalColumns = `id, network_id, world_id, name,
	min_x, min_y, min_z, max_x, max_y, max_z,
	dest_x, dest_y, dest_z, dest_yaw, dest_pitch, created_at`

const upsertPortal = `
	INSERT INTO portals (id, network_id, world_id, name,
		min_x, min_y, min_z, max_x, max_y, max_z,
		dest_x, dest_y, dest_z, dest_yaw, dest_pitch, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO UPDATE SET
		network_id = EXCLUDED.network_id,
		world_id   = EXCLUDED.world_id,
		name       = EXCLUDED.name,
		min_x = EXCLUDED.min_x, min_y = EXCLUDED.min_y, min_z = EXCLUDED.min_z,
		max_x = EXCLUDED.max_x, max_y = EXCLUDED.max_y, max_z = EXCLUDED.max_z,
		dest_x = EXCLUDED.dest_x, dest_y = EXCLUDED.dest_y, dest_z = EXCLUDED.dest_z,
		dest_yaw = EXCLUDED.dest_yaw, dest_pitch = EXCLUDED.dest_pitch`

// PortalRepository handles portal CRUD and registry queries on PostgreSQL.
type PortalRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPortalRepository creates a new portal repository.
func NewPortalRepository(pool *pgxpool.Pool) *PortalRepository {
	return &PortalRepository{pool: pool, now: time.Now}
}

// Save inserts or updates a portal. Updates keep seq and created_at.
func (r *PortalRepository) Save(ctx context.Context, p *portal.Portal) error {
	c, err := portal.Prepare(p, r.now)
	if err != nil {
		return fmt.Errorf("saving portal: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertPortal, portalArgs(c)...); err != nil {
		return fmt.Errorf("saving portal %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes a portal by id.
func (r *PortalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM portals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting portal %s: %w", id, err)
	}
	return nil
}

// Get loads a portal by id.
// Returns nil, nil if the portal does not exist.
func (r *PortalRepository) Get(ctx context.Context, id uuid.UUID) (*portal.Portal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+portalColumns+` FROM portals WHERE id = $1`, id)
	p, err := scanPortal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying portal %s: %w", id, err)
	}
	return p, nil
}

// All loads every portal in registry order.
func (r *PortalRepository) All(ctx context.Context) ([]*portal.Portal, error) {
	return r.query(ctx, "loading all portals",
		`SELECT `+portalColumns+` FROM portals ORDER BY seq`)
}

// FindPortalAtLocation returns the first portal in registry order whose
// volume contains loc, or nil.
func (r *PortalRepository) FindPortalAtLocation(ctx context.Context, worldID uuid.UUID, loc model.Location) (*portal.Portal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+portalColumns+` FROM portals
		 WHERE world_id = $1
		   AND min_x <= $2 AND max_x >= $2
		   AND min_y <= $3 AND max_y >= $3
		   AND min_z <= $4 AND max_z >= $4
		 ORDER BY seq
		 LIMIT 1`,
		worldID, loc.X, loc.Y, loc.Z)
	p, err := scanPortal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding portal at %s: %w", loc, err)
	}
	return p, nil
}

// PortalsInNetwork loads the portals of a network in registry order.
func (r *PortalRepository) PortalsInNetwork(ctx context.Context, networkID uuid.UUID) ([]*portal.Portal, error) {
	return r.query(ctx, "loading network portals",
		`SELECT `+portalColumns+` FROM portals WHERE network_id = $1 ORDER BY seq`, networkID)
}

// Replace swaps the table content in one transaction.
func (r *PortalRepository) Replace(ctx context.Context, portals []*portal.Portal) error {
	prepared, err := portal.PrepareAll(portals, r.now)
	if err != nil {
		return fmt.Errorf("replacing portals: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM portals`); err != nil {
		return fmt.Errorf("clearing portals: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range prepared {
		batch.Queue(upsertPortal, portalArgs(c)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting portals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (r *PortalRepository) query(ctx context.Context, what, query string, args ...any) ([]*portal.Portal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	portals := make([]*portal.Portal, 0, 8)
	for rows.Next() {
		p, err := scanPortal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning portal row: %w", err)
		}
		portals = append(portals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating portal rows: %w", err)
	}

	return portals, nil
}

func scanPortal(row pgx.Row) (*portal.Portal, error) {
	var p portal.Portal
	err := row.Scan(&p.ID, &p.NetworkID, &p.WorldID, &p.Name,
		&p.Volume.Min.X, &p.Volume.Min.Y, &p.Volume.Min.Z,
		&p.Volume.Max.X, &p.Volume.Max.Y, &p.Volume.Max.Z,
		&p.Destination.Position.X, &p.Destination.Position.Y, &p.Destination.Position.Z,
		&p.Destination.Yaw, &p.Destination.Pitch, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func portalArgs(p *portal.Portal) []any {
	return []any{
		p.ID, p.NetworkID, p.WorldID, p.Name,
		p.Volume.Min.X, p.Volume.Min.Y, p.Volume.Min.Z,
		p.Volume.Max.X, p.Volume.Max.Y, p.Volume.Max.Z,
		p.Destination.Position.X, p.Destination.Position.Y, p.Destination.Position.Z,
		p.Destination.Yaw, p.Destination.Pitch,
		p.CreatedAt,
	}
}
