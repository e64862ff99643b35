package observability

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracingDisabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if tp.IsEnabled() {
		t.Error("disabled config produced an enabled provider")
	}
	_, span := tp.GetTracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracer should produce invalid span contexts")
	}
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestInitTracingRequiresKeys(t *testing.T) {
	if _, err := InitTracing(context.Background(), Config{Enabled: true, LangfuseHost: "http://localhost:3000"}); err == nil {
		t.Fatal("expected an error without Langfuse keys")
	}
}

func TestSessionInjector(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sessionInjector{}),
		sdktrace.WithSpanProcessor(recorder),
	)
	defer tp.Shutdown(context.Background())

	ctx := WithSessionID(context.Background(), "play-123")
	if got := SessionIDFromContext(ctx); got != "play-123" {
		t.Fatalf("SessionIDFromContext() = %q", got)
	}
	_, span := tp.Tracer("test").Start(ctx, "chat")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans", len(spans))
	}
	found := false
	for _, kv := range spans[0].Attributes() {
		if string(kv.Key) == "langfuse.session.id" && kv.Value.AsString() == "play-123" {
			found = true
		}
	}
	if !found {
		t.Errorf("session id missing from %v", spans[0].Attributes())
	}
}
