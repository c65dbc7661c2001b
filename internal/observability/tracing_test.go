package observability

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	if cfg.ServiceName != "fraytypes" {
		t.Fatalf("expected service name 'fraytypes', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{ServiceName: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracing_NilConfig(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
}

func TestSpanHelpers(t *testing.T) {
	ctx := context.Background()

	_, span := StartSelectSpan(ctx, "Character.hx", "hscript", "CHARACTER")
	RecordSelectResult(span, 8, 4096)
	span.End()

	_, span = StartMessageSpan(ctx, "ws", "typedefs.request")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	_, span = StartSettingsSpan(ctx, "migrate")
	span.End()
}
