package telemetry

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/joelkehle/nac-tco/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "console"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("error should be enabled at warn level")
	}
	if _, err := NewLogger(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestTracerProviderDisabledIsNoop(t *testing.T) {
	tp, shutdown, err := NewTracerProvider(context.Background(), config.TracingConfig{Enabled: true})
	if err != nil {
		t.Fatalf("tracer provider: %v", err)
	}
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	if span.SpanContext().IsValid() {
		t.Fatal("expected a no-op span without an endpoint")
	}
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestTracerProviderWithEndpoint(t *testing.T) {
	tp, shutdown, err := NewTracerProvider(context.Background(), config.TracingConfig{Enabled: true, Endpoint: "127.0.0.1:4318", Insecure: true, SampleRate: 1})
	if err != nil {
		t.Fatalf("tracer provider: %v", err)
	}
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	if !span.SpanContext().IsValid() {
		t.Fatal("expected a recording span")
	}
	span.End()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
