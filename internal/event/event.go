// Copyright 2025 James Ross
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const maxIdentifierLen = 255

// Event is the in-flight and persisted representation of a single log event.
// The pair (Topic, EventID) is the deduplication key; payloads are never
// compared for dedup purposes.
type Event struct {
	Topic     string                 `json:"topic"`
	EventID   string                 `json:"event_id"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
}

// ValidationError describes why a raw event failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("event validation failed: %s: %s", e.Field, e.Reason)
}

// raw mirrors Event's wire shape but keeps Timestamp as a string so malformed
// or exotic ISO-8601 offsets can be rejected with a field-specific error
// instead of a generic json.Unmarshal failure.
type raw struct {
	Topic     string                 `json:"topic"`
	EventID   string                 `json:"event_id"`
	Timestamp string                 `json:"timestamp"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
}

// Deserialize parses a JSON-encoded event from the wire or the broker queue.
func Deserialize(data []byte) (Event, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	return validateRaw(r)
}

// Serialize produces the canonical JSON encoding used on the wire and in the
// broker queue. It must round-trip through Deserialize to an equal Event.
func (e Event) Serialize() ([]byte, error) {
	payload := e.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return json.Marshal(raw{
		Topic:     e.Topic,
		EventID:   e.EventID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Source:    e.Source,
		Payload:   payload,
	})
}

// Validate normalizes and checks a decoded JSON body (e.g. from an HTTP
// request) against the rules in the event model.
func Validate(r ValidateInput) (Event, error) {
	return validateRaw(raw{
		Topic:     r.Topic,
		EventID:   r.EventID,
		Timestamp: r.Timestamp,
		Source:    r.Source,
		Payload:   r.Payload,
	})
}

// ValidateInput is the shape accepted from an HTTP request body; Timestamp
// stays a string so ISO-8601 parsing lives in one place.
type ValidateInput struct {
	Topic     string                 `json:"topic"`
	EventID   string                 `json:"event_id"`
	Timestamp string                 `json:"timestamp"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
}

func validateRaw(r raw) (Event, error) {
	topic := strings.TrimSpace(r.Topic)
	if err := checkIdentifier("topic", topic); err != nil {
		return Event{}, err
	}
	eventID := strings.TrimSpace(r.EventID)
	if err := checkIdentifier("event_id", eventID); err != nil {
		return Event{}, err
	}
	source := strings.TrimSpace(r.Source)
	if err := checkIdentifier("source", source); err != nil {
		return Event{}, err
	}

	ts, err := parseTimestamp(r.Timestamp)
	if err != nil {
		return Event{}, &ValidationError{Field: "timestamp", Reason: err.Error()}
	}

	payload := r.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}

	return Event{
		Topic:     topic,
		EventID:   eventID,
		Timestamp: ts,
		Source:    source,
		Payload:   payload,
	}, nil
}

func checkIdentifier(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(value) > maxIdentifierLen {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", maxIdentifierLen)}
	}
	return nil
}

// timestampLayouts covers the accepted ISO-8601 variants: a 'Z' suffix,
// explicit numeric offsets, and naive (offset-less) timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, fmt.Errorf("must not be empty")
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp: %w", lastErr)
}
