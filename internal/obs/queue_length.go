// Copyright 2025 James Ross
package obs

import (
	"context"
	"time"

	"github.com/jamesross/log-aggregator/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const queueSampleInterval = 2 * time.Second

// StartQueueLengthUpdater samples the broker queue length and updates a gauge.
func StartQueueLengthUpdater(ctx context.Context, cfg *config.Config, rdb *redis.Client, log *zap.Logger) {
	ticker := time.NewTicker(queueSampleInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := rdb.LLen(ctx, cfg.Queue.Name).Result()
				if err != nil {
					log.Debug("queue length poll error", String("queue", cfg.Queue.Name), Err(err))
					continue
				}
				QueueLength.WithLabelValues(cfg.Queue.Name).Set(float64(n))
			}
		}
	}()
}
