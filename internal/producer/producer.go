// Copyright 2025 James Ross

// Package producer generates a synthetic stream of events and publishes them
// against a running aggregator's HTTP ingestion surface, deliberately
// repeating a configured fraction of event IDs so the commit protocol's
// deduplication can be exercised end to end.
package producer

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jamesross/log-aggregator/internal/config"
	"github.com/jamesross/log-aggregator/internal/event"
	"github.com/jamesross/log-aggregator/internal/obs"
)

// Producer drives the synthetic event plan at the configured send rate.
type Producer struct {
	cfg    *config.Config
	client *http.Client
	log    *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Producer {
	return &Producer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Publisher.RequestTimeout},
		log:    log,
	}
}

// Run builds the event plan, shuffles unique events and their duplicates
// together, and sends them one at a time at the configured rate.
func (p *Producer) Run(ctx context.Context) error {
	total := p.cfg.Publisher.TotalEvents
	uniqueCount := int(float64(total) * (1 - p.cfg.Publisher.DuplicateRate))
	duplicateCount := total - uniqueCount

	p.log.Info("event plan",
		obs.Int("total", total),
		obs.Int("unique", uniqueCount),
		obs.Int("duplicates", duplicateCount),
	)

	unique := make([]event.Event, 0, uniqueCount)
	for i := 0; i < uniqueCount; i++ {
		unique = append(unique, p.generate(""))
	}

	plan := make([]event.Event, 0, total)
	plan = append(plan, unique...)
	for i := 0; i < duplicateCount; i++ {
		original := unique[mustIntn(len(unique))]
		dup := p.generate(original.EventID)
		dup.Topic = original.Topic
		plan = append(plan, dup)
	}
	shuffle(plan)

	interval := time.Duration(float64(time.Second) / p.cfg.Publisher.SendRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := 0
	start := time.Now()
	for _, e := range plan {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := p.send(ctx, e); err != nil {
			p.log.Warn("publish failed", obs.String("event_id", e.EventID), obs.Err(err))
			continue
		}
		sent++
		if sent%1000 == 0 {
			elapsed := time.Since(start).Seconds()
			rate := float64(sent) / elapsed
			p.log.Info("progress", obs.Int("sent", sent), obs.Int("total", total), zap.Float64("rate_per_sec", rate))
		}
	}

	elapsed := time.Since(start).Seconds()
	p.log.Info("publishing complete",
		obs.Int("total_sent", sent),
		zap.Float64("duration_seconds", elapsed),
		obs.Int("unique", uniqueCount),
		obs.Int("duplicates", duplicateCount),
	)
	return nil
}

func (p *Producer) send(ctx context.Context, e event.Event) error {
	body, err := json.Marshal(toValidateInput(e))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Publisher.TargetURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("publish: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func toValidateInput(e event.Event) event.ValidateInput {
	return event.ValidateInput{
		Topic:     e.Topic,
		EventID:   e.EventID,
		Timestamp: e.Timestamp.Format(time.RFC3339Nano),
		Source:    e.Source,
		Payload:   e.Payload,
	}
}

// generate builds a random event for one of the configured topics. Passing a
// non-empty eventID produces a deliberate duplicate of a prior event.
func (p *Producer) generate(eventID string) event.Event {
	topics := p.cfg.Publisher.Topics
	topic := topics[mustIntn(len(topics))]
	if eventID == "" {
		eventID = generateEventID()
	}
	return event.Event{
		Topic:     topic,
		EventID:   eventID,
		Timestamp: time.Now().UTC(),
		Source:    "producer",
		Payload:   payloadForTopic(topic),
	}
}

func payloadForTopic(topic string) map[string]interface{} {
	switch {
	case hasPrefix(topic, "user"), hasPrefix(topic, "signups"):
		return map[string]interface{}{
			"user_id":    1000 + mustIntn(9000),
			"ip":         fmt.Sprintf("%d.%d.%d.%d", 1+mustIntn(255), 1+mustIntn(255), 1+mustIntn(255), 1+mustIntn(255)),
			"user_agent": pick([]string{"Chrome/91.0", "Firefox/89.0", "Safari/14.1"}),
		}
	case hasPrefix(topic, "order"):
		return map[string]interface{}{
			"order_id": fmt.Sprintf("ORD-%05d", 10000+mustIntn(90000)),
			"user_id":  1000 + mustIntn(9000),
			"amount":   randomAmount(),
			"items":    1 + mustIntn(10),
		}
	case hasPrefix(topic, "payment"):
		return map[string]interface{}{
			"transaction_id": fmt.Sprintf("TXN-%05d", 10000+mustIntn(90000)),
			"amount":         randomAmount(),
			"method":         pick([]string{"credit_card", "debit_card", "paypal", "bank_transfer"}),
		}
	case hasPrefix(topic, "shipment"), hasPrefix(topic, "inventory"):
		return map[string]interface{}{
			"product_id": fmt.Sprintf("PROD-%03d", 100+mustIntn(900)),
			"quantity":   mustIntn(100),
			"warehouse":  pick([]string{"WH-A", "WH-B", "WH-C"}),
		}
	default:
		return map[string]interface{}{
			"message":  pick([]string{"order shipped", "account verified", "password changed"}),
			"priority": pick([]string{"low", "medium", "high"}),
		}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func randomAmount() float64 {
	cents := 1000 + mustIntn(99000)
	return float64(cents) / 100
}

func pick(options []string) string {
	return options[mustIntn(len(options))]
}

func generateEventID() string {
	return fmt.Sprintf("evt_%s_%s", time.Now().UTC().Format("20060102150405"), randomSuffix(8))
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[mustIntn(len(suffixAlphabet))]
	}
	return string(b)
}

// mustIntn returns a uniform random int in [0, n) using a CSPRNG source;
// the event generator has no need for a seedable or reproducible stream.
func mustIntn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func shuffle(events []event.Event) {
	for i := len(events) - 1; i > 0; i-- {
		j := mustIntn(i + 1)
		events[i], events[j] = events[j], events[i]
	}
}
