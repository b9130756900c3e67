package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestBackoffWithJitterBounds(t *testing.T) {
	min, max := 50*time.Millisecond, 2*time.Second
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v out of (0, %v]", attempt, d, max)
		}
	}
}

func TestRequestIDHook(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: HeaderRequestID, Value: []byte("req-1")}}}
	ctx, _, _, err := RequestIDHook{}.BeforeHandle(context.Background(), "t", km, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := RequestIDFrom(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFrom(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestHookChainRecoversPanics(t *testing.T) {
	var afterOrder []string
	chain := NewHookChain(
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { afterOrder = append(afterOrder, "a") }},
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { afterOrder = append(afterOrder, "b") }},
		HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		}},
	)

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	if err == nil {
		t.Fatalf("expected panic to surface as error")
	}

	chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, errors.New("x"))
	if len(afterOrder) != 2 || afterOrder[0] != "b" || afterOrder[1] != "a" {
		t.Fatalf("after hooks must run in reverse, got %v", afterOrder)
	}
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]int{"a": 1})
	if err != nil || string(b) != `{"a":1}` {
		t.Fatalf("unexpected encoding %q %v", b, err)
	}
	if b, _ := encodeValue("raw"); string(b) != "raw" {
		t.Fatalf("strings must pass through, got %q", b)
	}
}
