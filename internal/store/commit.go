// Copyright 2025 James Ross
package store

import (
	"context"
	"fmt"

	"github.com/jamesross/log-aggregator/internal/event"
)

// Outcome is the result of committing a single event: whether it was
// newly persisted or had already been seen under its dedup key.
type Outcome string

const (
	// OutcomeNew means the event was not previously known and was
	// inserted into the events table.
	OutcomeNew Outcome = "new"
	// OutcomeDuplicate means an event with the same (topic, event_id)
	// had already been committed; this occurrence was dropped.
	OutcomeDuplicate Outcome = "duplicate"
)

// Commit runs the idempotent commit protocol for a single event in one
// transaction: attempt a dedup insert, branch on whether a row was
// actually added, insert the event row (new path) or just bump the
// duplicate counter (duplicate path), and commit. Both branches update
// received_count and last_updated in the same transaction as the dedup
// insert, so a crash or a concurrent commit on the same key can never leave
// the dedup row and the events row out of sync with each other.
func (s *Store) Commit(ctx context.Context, e event.Event) (Outcome, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin commit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO processed_events (topic, event_id) VALUES ($1, $2)
		 ON CONFLICT (topic, event_id) DO NOTHING`,
		e.Topic, e.EventID,
	)
	if err != nil {
		return "", fmt.Errorf("insert dedup row: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE stats SET duplicate_dropped_count = duplicate_dropped_count + 1,
			 received_count = received_count + 1, last_updated = now() WHERE id = 1`,
		); err != nil {
			return "", fmt.Errorf("bump duplicate counters: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return "", fmt.Errorf("commit duplicate path: %w", err)
		}
		return OutcomeDuplicate, nil
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO events (topic, event_id, timestamp, source, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.Topic, e.EventID, e.Timestamp, e.Source, e.Payload,
	); err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE stats SET unique_processed_count = unique_processed_count + 1,
		 received_count = received_count + 1, last_updated = now() WHERE id = 1`,
	); err != nil {
		return "", fmt.Errorf("bump unique counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit new path: %w", err)
	}
	return OutcomeNew, nil
}
