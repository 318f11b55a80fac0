package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newSpanRecorder returns a TracerProvider whose spans land in an in-memory
// exporter.
func newSpanRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exp
}

// asGlobal installs tp as the global tracer provider for the test's duration.
func asGlobal(t *testing.T, tp *sdktrace.TracerProvider) {
	t.Helper()
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
}

func TestCorrelationID_EmptyWithoutSpan(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(background) = %q, want empty", got)
	}
}

func TestCorrelationID_IsHexTraceID(t *testing.T) {
	tp, _ := newSpanRecorder(t)
	asGlobal(t, tp)

	ctx, span := StartSpan(context.Background(), "chat.respond")
	defer span.End()

	cid := CorrelationID(ctx)
	if len(cid) != 32 {
		t.Fatalf("correlation ID length = %d, want 32", len(cid))
	}
	if strings.Trim(cid, "0123456789abcdef") != "" {
		t.Errorf("correlation ID %q contains non-hex characters", cid)
	}
}

func TestStartSpan_PipelineStagesNest(t *testing.T) {
	tp, exp := newSpanRecorder(t)
	asGlobal(t, tp)

	// A voice exchange traces as one turn with nested provider-call stages.
	ctx, turn := StartSpan(context.Background(), "chat.respond_voice")
	_, transcribe := StartSpan(ctx, "stt.transcribe")
	transcribe.End()
	_, complete := StartSpan(ctx, "llm.complete")
	complete.End()
	turn.End()

	spans := exp.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("recorded %d spans, want 3", len(spans))
	}

	turnID := spans[2].SpanContext.SpanID()
	for _, s := range spans[:2] {
		if s.Parent.SpanID() != turnID {
			t.Errorf("span %q parent = %v, want the turn span", s.Name, s.Parent.SpanID())
		}
		if s.SpanContext.TraceID() != spans[2].SpanContext.TraceID() {
			t.Errorf("span %q left the turn's trace", s.Name)
		}
	}
}

func TestCorrelationID_UniquePerConversation(t *testing.T) {
	tp, _ := newSpanRecorder(t)
	asGlobal(t, tp)

	ids := make(map[string]struct{}, 100)
	for range 100 {
		ctx, span := StartSpan(context.Background(), "chat.respond")
		cid := CorrelationID(ctx)
		span.End()
		if _, dup := ids[cid]; dup {
			t.Fatalf("duplicate correlation ID: %s", cid)
		}
		ids[cid] = struct{}{}
	}
}

func TestLogger_TagsTurnLogsWithTrace(t *testing.T) {
	tp, _ := newSpanRecorder(t)
	asGlobal(t, tp)

	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	ctx, span := StartSpan(context.Background(), "chat.respond_voice")
	defer span.End()

	Logger(ctx).Info("transcription accepted", "confidence", 0.85)

	logged := buf.String()
	if !strings.Contains(logged, "trace_id=") {
		t.Errorf("log output missing trace_id, got: %s", logged)
	}
	if !strings.Contains(logged, "span_id=") {
		t.Errorf("log output missing span_id, got: %s", logged)
	}
}

func TestLogger_PlainWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	Logger(context.Background()).Info("server ready")

	if logged := buf.String(); strings.Contains(logged, "trace_id") {
		t.Errorf("log output should not contain trace_id, got: %s", logged)
	}
}

func TestTracer_UsableWithoutInit(t *testing.T) {
	// Before InitProvider runs, the global provider is a no-op; Tracer must
	// still hand back something spans can be started on.
	tr := Tracer()
	if tr == nil {
		t.Fatal("Tracer() returned nil")
	}
	_, span := tr.Start(context.Background(), "startup")
	span.End()
}
