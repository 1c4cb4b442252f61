// Copyright 2025 James Ross
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// transientPgCodes are PostgreSQL error codes that reflect momentary
// resource pressure rather than a defect in the commit itself: the worker
// logs and moves on rather than treating these the same as a malformed
// event or a programming error.
var transientPgCodes = map[string]bool{
	"53300": true, // too_many_connections
	"53400": true, // configuration_limit_exceeded
	"57P03": true, // cannot_connect_now
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

// IsTransient reports whether err reflects momentary resource pressure
// (connection loss, pool exhaustion, lock contention) as opposed to a
// permanent defect in the commit. The worker uses this only to choose a
// log severity; it pauses for the backoff either way, and either way the
// event is not retried.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientPgCodes[pgErr.Code]
	}
	if errors.Is(err, pgxpool.ErrClosedPool) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
