// Copyright 2025 James Ross
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesross/log-aggregator/internal/event"
)

// Stats is the singleton running-counters row, read by GET /stats.
type Stats struct {
	ReceivedCount         int64
	UniqueProcessedCount  int64
	DuplicateDroppedCount int64
	StartedAt             time.Time
	LastUpdated           time.Time
}

// QueryEvents returns events ordered by received_at descending, optionally
// filtered to a single topic. limit is expected to already be clamped to
// [1, 1000] by the caller.
func (s *Store) QueryEvents(ctx context.Context, topic string, limit int) ([]event.Event, error) {
	query := `SELECT topic, event_id, timestamp, source, payload FROM events`
	args := []any{}
	if topic != "" {
		query += ` WHERE topic = $1 ORDER BY received_at DESC LIMIT $2`
		args = append(args, topic, limit)
	} else {
		query += ` ORDER BY received_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		var e event.Event
		if err := rows.Scan(&e.Topic, &e.EventID, &e.Timestamp, &e.Source, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}

// ReadStats returns the current singleton stats row.
func (s *Store) ReadStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT received_count, unique_processed_count, duplicate_dropped_count,
		 started_at, last_updated FROM stats WHERE id = 1`,
	).Scan(&st.ReceivedCount, &st.UniqueProcessedCount, &st.DuplicateDroppedCount, &st.StartedAt, &st.LastUpdated)
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}
	return st, nil
}

// ActiveTopics counts distinct topics present in the events table, used by
// GET /stats' active_topics field.
func (s *Store) ActiveTopics(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(DISTINCT topic) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active topics: %w", err)
	}
	return n, nil
}
