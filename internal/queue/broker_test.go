// Copyright 2025 James Ross
package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestBroker(t *testing.T) (*Broker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, "events:queue"), mr
}

func TestPushPopRoundTrip(t *testing.T) {
	b, mr := newTestBroker(t)
	defer mr.Close()

	if err := b.Push(context.Background(), []byte(`{"topic":"t"}`)); err != nil {
		t.Fatalf("push: %v", err)
	}

	data, err := b.Pop(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if string(data) != `{"topic":"t"}` {
		t.Fatalf("unexpected payload: %s", data)
	}
}

func TestPopTimeoutReturnsNilNil(t *testing.T) {
	b, mr := newTestBroker(t)
	defer mr.Close()

	data, err := b.Pop(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("expected no error on timeout, got %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil payload on timeout, got %s", data)
	}
}

func TestPushOrderingIsFIFO(t *testing.T) {
	b, mr := newTestBroker(t)
	defer mr.Close()

	for _, v := range []string{"a", "b", "c"} {
		if err := b.Push(context.Background(), []byte(v)); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		got, err := b.Pop(context.Background(), time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestLenReflectsQueueDepth(t *testing.T) {
	b, mr := newTestBroker(t)
	defer mr.Close()

	_ = b.Push(context.Background(), []byte("x"))
	_ = b.Push(context.Background(), []byte("y"))

	n, err := b.Len(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected length 2, got %d", n)
	}
}
