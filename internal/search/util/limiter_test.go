package util

import (
	"context"
	"testing"
	"time"
)

func TestWaitURLNilLimiter(t *testing.T) {
	var hl *HostLimiter
	if err := hl.WaitURL(context.Background(), "https://example.com/x"); err != nil {
		t.Fatalf("nil limiter must not throttle: %v", err)
	}
}

func TestWaitURLSeparateHostBuckets(t *testing.T) {
	hl := NewHostLimiter(0.001, 1)

	// each host gets its own burst token
	if err := hl.WaitURL(context.Background(), "https://a.example/j"); err != nil {
		t.Fatalf("first request on host a: %v", err)
	}
	if err := hl.WaitURL(context.Background(), "https://b.example/j"); err != nil {
		t.Fatalf("first request on host b: %v", err)
	}

	// host a's token is spent; at this rate the next one is far away
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := hl.WaitURL(ctx, "https://a.example/j"); err == nil {
		t.Fatal("second request on host a should have hit the limit")
	}
}
