// Copyright 2025 James Ross

// Package worker runs the pool of goroutines that drain the broker queue
// and hand each event to the store's idempotent commit protocol.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jamesross/log-aggregator/internal/config"
	"github.com/jamesross/log-aggregator/internal/event"
	"github.com/jamesross/log-aggregator/internal/obs"
	"github.com/jamesross/log-aggregator/internal/store"
	"go.uber.org/zap"
)

// Broker is the subset of internal/queue.Broker a worker needs.
type Broker interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Committer is the subset of internal/store.Store a worker needs.
type Committer interface {
	Commit(ctx context.Context, e event.Event) (store.Outcome, error)
}

// Pool runs cfg.Worker.Count goroutines, each independently popping events
// off the broker and committing them to the store.
type Pool struct {
	cfg    *config.Config
	broker Broker
	store  Committer
	log    *zap.Logger
}

// New builds a worker pool over the given broker and store.
func New(cfg *config.Config, broker Broker, st Committer, log *zap.Logger) *Pool {
	return &Pool{cfg: cfg, broker: broker, store: st, log: log}
}

// Run spawns the configured number of worker goroutines and blocks until
// ctx is cancelled and all of them have returned.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Worker.Count; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			obs.WorkerActive.Inc()
			defer obs.WorkerActive.Dec()
			p.runOne(ctx, workerID)
		}(i)
	}
	wg.Wait()
	return nil
}

// runOne is the loop for a single worker: pop, deserialize, commit, repeat.
// A parse error drops the event permanently (it is never retried). A
// transient store error pauses for the configured backoff and also drops
// the event — per the documented "log and drop, no requeue" policy, the
// same event is never seen again once it is off the queue.
func (p *Pool) runOne(ctx context.Context, workerID int) {
	for ctx.Err() == nil {
		payload, err := p.broker.Pop(ctx, p.cfg.Queue.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn("broker pop error", obs.Int("worker_id", workerID), obs.Err(err))
			time.Sleep(p.cfg.Worker.Backoff.Base)
			continue
		}
		if payload == nil {
			continue
		}
		obs.EventsConsumed.Inc()

		e, err := event.Deserialize(payload)
		if err != nil {
			p.log.Error("dropping malformed event", obs.Int("worker_id", workerID), obs.Err(err))
			obs.EventsRejected.Inc()
			continue
		}

		start := time.Now()
		outcome, err := p.store.Commit(ctx, e)
		obs.CommitDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			if store.IsTransient(err) {
				p.log.Warn("transient store error, dropping event",
					obs.Int("worker_id", workerID), obs.String("topic", e.Topic),
					obs.String("event_id", e.EventID), obs.Err(err))
			} else {
				p.log.Error("store error, dropping event",
					obs.Int("worker_id", workerID), obs.String("topic", e.Topic),
					obs.String("event_id", e.EventID), obs.Err(err))
			}
			obs.EventsCommitted.WithLabelValues("error").Inc()
			time.Sleep(p.cfg.Worker.Backoff.Base)
			continue
		}

		obs.EventsCommitted.WithLabelValues(string(outcome)).Inc()
		p.log.Info("event committed",
			obs.Int("worker_id", workerID), obs.String("topic", e.Topic),
			obs.String("event_id", e.EventID), obs.String("outcome", string(outcome)))
	}
}
