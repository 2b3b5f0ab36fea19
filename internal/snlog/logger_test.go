package snlog

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLFallsBackToGlobalLogger(t *testing.T) {
	if L(context.Background()) != zap.L() {
		t.Fatalf("expected L to fall back to zap.L() when the context carries no logger")
	}
}

func TestNewContextRoundTrips(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	ctx := NewContext(context.Background(), logger)
	L(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "hello" {
		t.Fatalf("expected the injected logger to receive the entry, got %v", entries)
	}
}
