package net

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" {
		t.Fatalf("empty ctx should have no id")
	}
	if WithRequestID(ctx, "") != ctx {
		t.Fatalf("blank id should return ctx unchanged")
	}
	if got := RequestID(WithRequestID(ctx, "req-1")); got != "req-1" {
		t.Fatalf("RequestID = %q", got)
	}
}
