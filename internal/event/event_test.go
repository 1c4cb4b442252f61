// Copyright 2025 James Ross
package event

import (
	"testing"
	"time"
)

func TestValidateStripsWhitespace(t *testing.T) {
	e, err := Validate(ValidateInput{
		Topic:     "  t  ",
		EventID:   "e1",
		Timestamp: "2023-12-06T14:45:22Z",
		Source:    "svc",
		Payload:   map[string]interface{}{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Topic != "t" {
		t.Fatalf("expected stripped topic %q, got %q", "t", e.Topic)
	}
}

func TestValidateEmptyPayloadAccepted(t *testing.T) {
	e, err := Validate(ValidateInput{
		Topic:     "t",
		EventID:   "e1",
		Timestamp: "2023-12-06T14:45:22Z",
		Source:    "svc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Payload == nil || len(e.Payload) != 0 {
		t.Fatalf("expected empty map payload, got %#v", e.Payload)
	}
}

func TestValidateRejectsEmptyFields(t *testing.T) {
	cases := []ValidateInput{
		{Topic: "", EventID: "e1", Timestamp: "2023-12-06T14:45:22Z", Source: "svc"},
		{Topic: "t", EventID: "", Timestamp: "2023-12-06T14:45:22Z", Source: "svc"},
		{Topic: "t", EventID: "e1", Timestamp: "2023-12-06T14:45:22Z", Source: ""},
		{Topic: "t", EventID: "e1", Timestamp: "", Source: "svc"},
	}
	for _, c := range cases {
		if _, err := Validate(c); err == nil {
			t.Fatalf("expected validation error for %#v", c)
		}
	}
}

func TestValidateRejectsOverlongFields(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Validate(ValidateInput{
		Topic:     string(long),
		EventID:   "e1",
		Timestamp: "2023-12-06T14:45:22Z",
		Source:    "svc",
	})
	if err == nil {
		t.Fatal("expected validation error for overlong topic")
	}
}

func TestTimestampNormalizedToUTC(t *testing.T) {
	e, err := Validate(ValidateInput{
		Topic:     "t",
		EventID:   "e1",
		Timestamp: "2023-12-06T10:45:22-04:00",
		Source:    "svc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2023, 12, 6, 14, 45, 22, 0, time.UTC)
	if !e.Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, e.Timestamp)
	}
	if e.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", e.Timestamp.Location())
	}
}

func TestNaiveTimestampAssumedUTC(t *testing.T) {
	e, err := Validate(ValidateInput{
		Topic:     "t",
		EventID:   "e1",
		Timestamp: "2023-12-06T14:45:22",
		Source:    "svc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2023, 12, 6, 14, 45, 22, 0, time.UTC)
	if !e.Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, e.Timestamp)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	e, err := Validate(ValidateInput{
		Topic:     "t",
		EventID:   "e1",
		Timestamp: "2023-12-06T14:45:22Z",
		Source:    "svc",
		Payload:   map[string]interface{}{"v": float64(1)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := e.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	e2, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if e2.Topic != e.Topic || e2.EventID != e.EventID || e2.Source != e.Source {
		t.Fatalf("round-trip mismatch: %#v vs %#v", e, e2)
	}
	if !e2.Timestamp.Equal(e.Timestamp) {
		t.Fatalf("timestamp round-trip mismatch: %v vs %v", e.Timestamp, e2.Timestamp)
	}
	if e2.Payload["v"] != e.Payload["v"] {
		t.Fatalf("payload round-trip mismatch: %#v vs %#v", e.Payload, e2.Payload)
	}
}

func TestDeserializeInvalidJSON(t *testing.T) {
	if _, err := Deserialize([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCrossTopicSameEventIDAreDistinct(t *testing.T) {
	a, err := Validate(ValidateInput{Topic: "a", EventID: "s", Timestamp: "2023-12-06T14:45:22Z", Source: "svc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Validate(ValidateInput{Topic: "b", EventID: "s", Timestamp: "2023-12-06T14:45:22Z", Source: "svc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Topic == b.Topic {
		t.Fatal("expected distinct topics")
	}
	if a.EventID != b.EventID {
		t.Fatal("expected same event id")
	}
}
