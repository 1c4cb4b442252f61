// Copyright 2025 James Ross

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/jamesross/log-aggregator/internal/api"
	"github.com/jamesross/log-aggregator/internal/config"
	"github.com/jamesross/log-aggregator/internal/queue"
	"github.com/jamesross/log-aggregator/internal/store"
	"github.com/jamesross/log-aggregator/internal/worker"
)

// setupPipeline wires a real Postgres container, a miniredis broker, the
// worker pool, and the HTTP ingestion API together, exactly as the
// supervisor does in production, so the whole intake path can be exercised
// without a running docker-compose stack for Redis.
func setupPipeline(t *testing.T) (*httptest.Server, *store.Store, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("aggregator"),
		postgres.WithUsername("aggregator"),
		postgres.WithPassword("aggregator"),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	if err := store.Migrate(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	st := store.FromPool(pool)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	broker := queue.New(rdb, "events:queue")

	cfg, _ := config.Load("nonexistent.yaml")
	cfg.Worker.Count = 2
	cfg.Worker.Backoff.Base = 5 * time.Millisecond
	cfg.Queue.PopTimeout = 50 * time.Millisecond

	log, _ := zap.NewDevelopment()
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	pool2 := worker.New(cfg, broker, st, log)
	go pool2.Run(workerCtx)

	router := api.NewRouter(api.Dependencies{Broker: broker, Store: st}, log)
	srv := httptest.NewServer(router)

	cleanup := func() {
		srv.Close()
		cancelWorkers()
		rdb.Close()
		mr.Close()
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return srv, st, cleanup
}

func postEvent(t *testing.T, srv *httptest.Server, topic, eventID string) *http.Response {
	t.Helper()
	body := fmt.Sprintf(`{"topic":%q,"event_id":%q,"timestamp":"2024-01-01T00:00:00Z","source":"integration","payload":{"k":"v"}}`, topic, eventID)
	resp, err := http.Post(srv.URL+"/publish", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post event: %v", err)
	}
	return resp
}

func TestEndToEndIngestionDeduplicatesRepeatedPublishes(t *testing.T) {
	srv, st, cleanup := setupPipeline(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		resp := postEvent(t, srv, "orders", "evt-dup")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	}
	resp := postEvent(t, srv, "orders", "evt-unique")
	resp.Body.Close()

	deadline := time.Now().Add(5 * time.Second)
	var stats store.Stats
	for time.Now().Before(deadline) {
		var err error
		stats, err = st.ReadStats(context.Background())
		if err != nil {
			t.Fatalf("read stats: %v", err)
		}
		if stats.ReceivedCount >= 4 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if stats.ReceivedCount != 4 {
		t.Fatalf("expected 4 received events, got %d", stats.ReceivedCount)
	}
	if stats.UniqueProcessedCount != 2 {
		t.Fatalf("expected 2 unique events, got %d", stats.UniqueProcessedCount)
	}
	if stats.DuplicateDroppedCount != 2 {
		t.Fatalf("expected 2 duplicates dropped, got %d", stats.DuplicateDroppedCount)
	}

	events, err := st.QueryEvents(context.Background(), "orders", 10)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 persisted events, got %d", len(events))
	}
}

func TestEndToEndRejectsMalformedPublish(t *testing.T) {
	srv, _, cleanup := setupPipeline(t)
	defer cleanup()

	resp, err := http.Post(srv.URL+"/publish", "application/json", bytes.NewBufferString(`{"topic":""}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if _, ok := body["error"]; !ok {
		t.Fatal("expected an error field in the response body")
	}
}
