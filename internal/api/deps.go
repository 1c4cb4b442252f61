// Copyright 2025 James Ross

// Package api exposes the HTTP ingestion surface: publish endpoints that
// push onto the broker queue, and read-only endpoints over the store.
// Handlers never touch the store directly for writes — the commit
// protocol, run by the worker pool, is the sole writer.
package api

import (
	"context"

	"github.com/jamesross/log-aggregator/internal/event"
	"github.com/jamesross/log-aggregator/internal/store"
)

// Publisher is the subset of internal/queue.Broker handlers push onto.
type Publisher interface {
	Push(ctx context.Context, data []byte) error
}

// Reader is the subset of internal/store.Store the read-only endpoints use.
type Reader interface {
	QueryEvents(ctx context.Context, topic string, limit int) ([]event.Event, error)
	ReadStats(ctx context.Context) (store.Stats, error)
	ActiveTopics(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Dependencies is the small container every handler closes over, grounded
// on the pack's HandlerDependencies pattern of binding handlers to an
// interface rather than concrete infrastructure types.
type Dependencies struct {
	Broker Publisher
	Store  Reader
}
