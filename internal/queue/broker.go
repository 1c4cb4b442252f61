// Copyright 2025 James Ross
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Broker is the single Redis list events pass through between the ingestion
// API and the worker pool. Delivery is at-least-once: a popped item is only
// gone from the list, never acknowledged back to the broker.
type Broker struct {
	rdb  *redis.Client
	name string
}

// New wraps an existing Redis client around the named list.
func New(rdb *redis.Client, name string) *Broker {
	return &Broker{rdb: rdb, name: name}
}

// Push appends a serialized event to the tail of the queue.
func (b *Broker) Push(ctx context.Context, data []byte) error {
	return b.rdb.RPush(ctx, b.name, data).Err()
}

// Pop blocks for up to timeout waiting for an item at the head of the queue.
// It returns (nil, nil) on timeout, which callers treat as "nothing to do
// this round" rather than an error.
func (b *Broker) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := b.rdb.BLPop(ctx, timeout, b.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BLPop returns [key, value]; we only ever watch one key.
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Len reports the current queue depth.
func (b *Broker) Len(ctx context.Context) (int64, error) {
	return b.rdb.LLen(ctx, b.name).Result()
}

// Ping verifies the broker connection is reachable.
func (b *Broker) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (b *Broker) Close() error {
	return b.rdb.Close()
}
