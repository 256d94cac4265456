package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCtxAddsRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	ctx := WithRequestID(context.Background(), "req-123")
	Ctx(ctx).Infof("hello")

	logs := recorded.All()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	fields := logs[0].ContextMap()
	if fields["request_id"] != "req-123" {
		t.Fatalf("expected request_id to be req-123, got %v", fields["request_id"])
	}
}

func TestCtxWithoutRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	Ctx(context.Background()).Infof("plain")
	if got := len(recorded.All()[0].Context); got != 0 {
		t.Fatalf("expected no context fields, got %d", got)
	}
}

func TestInitRejectsUnknownFormat(t *testing.T) {
	if err := Init(Config{Format: "xml"}); err == nil {
		t.Fatalf("Init() expected error for unknown format")
	}
	if err := Init(Config{Level: "loud"}); err == nil {
		t.Fatalf("Init() expected error for unknown level")
	}
}
