// Copyright 2025 James Ross

// Package supervisor wires the ingestion API, worker pool, broker, and store
// into a single running process and manages its startup and shutdown order.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jamesross/log-aggregator/internal/api"
	"github.com/jamesross/log-aggregator/internal/config"
	"github.com/jamesross/log-aggregator/internal/obs"
	"github.com/jamesross/log-aggregator/internal/queue"
	"github.com/jamesross/log-aggregator/internal/redisclient"
	"github.com/jamesross/log-aggregator/internal/store"
	"github.com/jamesross/log-aggregator/internal/worker"
)

// Role selects which part of the aggregator a process runs.
type Role string

const (
	RoleAPI    Role = "api"
	RoleWorker Role = "worker"
	RoleAll    Role = "all"
)

// App holds every long-lived dependency for a running process.
type App struct {
	cfg *config.Config
	log *zap.Logger

	rdb *redis.Client
	st  *store.Store

	apiSrv     *http.Server
	sideSrv    *http.Server
	workerPool *worker.Pool
	workerWg   sync.WaitGroup
}

// Start brings the store pool, migrations, broker connection, and (per role)
// the worker pool and HTTP API up, in that order.
func Start(ctx context.Context, cfg *config.Config, log *zap.Logger, role Role) (*App, error) {
	a := &App{cfg: cfg, log: log}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.st = st

	if cfg.Store.MigrateOnStartup {
		if err := store.Migrate(cfg.Store.DSN); err != nil {
			st.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	rdb := redisclient.New(cfg)
	a.rdb = rdb
	if err := rdb.Ping(ctx).Err(); err != nil {
		st.Close()
		return nil, fmt.Errorf("connect broker: %w", err)
	}

	broker := queue.New(rdb, cfg.Queue.Name)

	readiness := func(c context.Context) error {
		if err := rdb.Ping(c).Err(); err != nil {
			return err
		}
		return st.Ping(c)
	}
	a.sideSrv = obs.StartHTTPServer(cfg, readiness)
	obs.StartQueueLengthUpdater(ctx, cfg, rdb, log)

	if role == RoleWorker || role == RoleAll {
		a.workerPool = worker.New(cfg, broker, st, log)
		a.workerWg.Add(1)
		go func() {
			defer a.workerWg.Done()
			if err := a.workerPool.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("worker pool stopped", obs.Err(err))
			}
		}()
	}

	if role == RoleAPI || role == RoleAll {
		deps := api.Dependencies{Broker: broker, Store: st}
		router := api.NewRouter(deps, log)
		a.apiSrv = &http.Server{Addr: cfg.API.Addr, Handler: router}
		go func() {
			if err := a.apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("api server stopped", obs.Err(err))
			}
		}()
		log.Info("api server listening", obs.String("addr", cfg.API.Addr))
	}

	return a, nil
}

// Shutdown stops the HTTP servers, waits for the worker pool to drain, and
// only then closes the broker and store connections. The caller has already
// cancelled the context passed to Start, so the worker pool is already
// unwinding; this blocks until it actually has, up to a bounded grace
// period, before pulling the connections an in-flight commit might still
// be using.
func (a *App) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if a.apiSrv != nil {
		if err := a.apiSrv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("api server shutdown error", obs.Err(err))
		}
	}
	if a.sideSrv != nil {
		if err := a.sideSrv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("side server shutdown error", obs.Err(err))
		}
	}

	workerDone := make(chan struct{})
	go func() {
		a.workerWg.Wait()
		close(workerDone)
	}()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		a.log.Warn("worker pool did not stop within grace period")
	}

	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.st != nil {
		a.st.Close()
	}
}
