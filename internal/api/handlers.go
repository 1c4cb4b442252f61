// Copyright 2025 James Ross
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jamesross/log-aggregator/internal/event"
	"github.com/jamesross/log-aggregator/internal/obs"
)

const (
	maxBatchSize     = 1000
	defaultListLimit = 100
	maxListLimit     = 1000
)

type publishResult struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Publish handles POST /publish: validate, encode, push to the broker.
func Publish(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in event.ValidateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		e, err := event.Validate(in)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if err := pushEvent(c, deps, e); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
			return
		}
		c.JSON(http.StatusOK, publishResult{EventID: e.EventID, Status: "queued", Success: true})
	}
}

// PublishBatch handles POST /publish/batch: validates and enqueues each
// event independently, reporting a per-event result.
func PublishBatch(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Events []event.ValidateInput `json:"events"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if len(body.Events) < 1 || len(body.Events) > maxBatchSize {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "events must contain between 1 and 1000 items"})
			return
		}

		results := make([]publishResult, 0, len(body.Events))
		success, failed := 0, 0
		for _, in := range body.Events {
			e, err := event.Validate(in)
			if err != nil {
				failed++
				results = append(results, publishResult{EventID: in.EventID, Status: "rejected", Success: false, Error: err.Error()})
				continue
			}
			if err := pushEvent(c, deps, e); err != nil {
				failed++
				results = append(results, publishResult{EventID: e.EventID, Status: "rejected", Success: false, Error: "enqueue failed"})
				continue
			}
			success++
			results = append(results, publishResult{EventID: e.EventID, Status: "queued", Success: true})
		}

		c.JSON(http.StatusOK, gin.H{
			"total":   len(body.Events),
			"success": success,
			"failed":  failed,
			"results": results,
		})
	}
}

func pushEvent(c *gin.Context, deps Dependencies, e event.Event) error {
	data, err := e.Serialize()
	if err != nil {
		return err
	}
	if err := deps.Broker.Push(c.Request.Context(), data); err != nil {
		return err
	}
	obs.EventsPublished.Inc()
	return nil
}

// Events handles GET /events?topic=&limit=.
func Events(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultListLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := parseLimit(raw)
			if err != nil || n < 1 || n > maxListLimit {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "limit must be an integer in [1, 1000]"})
				return
			}
			limit = n
		}

		events, err := deps.Store.QueryEvents(c.Request.Context(), c.Query("topic"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// Stats handles GET /stats.
func Stats(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		st, err := deps.Store.ReadStats(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		activeTopics, err := deps.Store.ActiveTopics(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"received_total":    st.ReceivedCount,
			"unique_processed":  st.UniqueProcessedCount,
			"duplicate_dropped": st.DuplicateDroppedCount,
			"active_topics":     activeTopics,
			"uptime_seconds":    time.Since(st.StartedAt).Seconds(),
			"started_at":        st.StartedAt,
			"last_updated":      st.LastUpdated,
		})
	}
}

// Health handles GET /health: a liveness-and-store-reachability check.
func Health(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.Store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

func parseLimit(raw string) (int, error) {
	return strconv.Atoi(raw)
}
