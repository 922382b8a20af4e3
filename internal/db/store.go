// Package db is the PostgreSQL-backed implementation of every detector
// package's narrow Repository port, composed into the single
// pipeline.Repository facade the orchestrator runs against.
//
// One Store type wraps a pgxpool.Pool; raw SQL strings run through
// pool.Exec/QueryRow/Query, with ON CONFLICT upserts for dedup-sensitive
// writes. Migrations apply through golang-migrate's iofs source against
// an embedded migrations directory, since they span many versioned
// files rather than one schema file read at startup.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the concrete pipeline.Repository: one pgx connection pool
// backing every narrow per-package port.
type Store struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetPool exposes the connection pool for callers that need a raw
// transaction (ExecuteMerge's multi-table reassignment, for instance).
func (s *Store) GetPool() *pgxpool.Pool {
	return s.pool
}

// MigrateUp applies every pending migration under migrations/.
func (s *Store) MigrateUp(connStr string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connStr)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}
