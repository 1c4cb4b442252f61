// Copyright 2025 James Ross
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "events_consumed_total",
		Help: "Total number of events popped off the broker queue by workers",
	})
	EventsCommitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_committed_total",
		Help: "Total number of events committed to the store, by outcome",
	}, []string{"outcome"})
	EventsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "events_rejected_total",
		Help: "Total number of events dropped after failing validation or decoding",
	})
	EventsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Total number of events accepted by the ingestion API and pushed to the broker",
	})
	CommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "event_commit_duration_seconds",
		Help:    "Histogram of idempotent commit transaction durations",
		Buckets: prometheus.DefBuckets,
	})
	QueueLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_length",
		Help: "Current length of the broker event queue",
	}, []string{"queue"})
	WorkerActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "worker_active",
		Help: "Number of active worker goroutines",
	})
)

func init() {
	prometheus.MustRegister(EventsConsumed, EventsCommitted, EventsRejected, EventsPublished, CommitDuration, QueueLength, WorkerActive)
}
