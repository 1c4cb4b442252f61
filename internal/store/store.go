// Copyright 2025 James Ross

// Package store holds the durable Postgres-backed state for the aggregator:
// the accepted-events table, the dedupe set, and the running counters, all
// written through the single idempotent commit protocol in commit.go.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jamesross/log-aggregator/internal/config"
)

// Store wraps a pooled, transactional connection to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// Open creates a connection pool from cfg.Store and verifies it is reachable.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse store dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.Store.MaxConns
	poolCfg.MinConns = cfg.Store.MinConns
	poolCfg.MaxConnLifetime = cfg.Store.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Store.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.Store.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create store pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return &Store{pool: pool}, nil
}

// FromPool wraps an already-open pool, used by tests against a
// testcontainers-managed Postgres instance.
func FromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping verifies the store connection is reachable, used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
