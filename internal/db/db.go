// Package db is the PostgreSQL portal registry: a pgx pool, goose
// migrations and PortalRepository on top of them.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB owns the pgx pool behind the postgres store driver. The server builds a
// PortalRepository from Pool and closes DB on shutdown.
type DB struct {
	pool *pgxpool.Pool
}

// New opens a pool for dsn and pings it once.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close releases every pooled connection.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool returns the pool for NewPortalRepository.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}
