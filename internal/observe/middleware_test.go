package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newMiddlewareHarness wires metrics and tracing into in-memory sinks for
// middleware tests.
func newMiddlewareHarness(t *testing.T) (*Metrics, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return m, reader, exp
}

func serve(m *Metrics, handler http.HandlerFunc, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Middleware(m)(handler).ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/conversations", "/api/conversations"},
		{"/api/conversations/8f41c1d2", "/api/conversations/{sessionID}"},
		{"/api/conversations/8f41c1d2/messages", "/api/conversations/{sessionID}/messages"},
		{"/api/conversations/8f41c1d2/voice/reply", "/api/conversations/{sessionID}/voice/reply"},
		{"/api/knowledge-base", "/api/knowledge-base"},
		{"/api/training/transcripts", "/api/training/transcripts"},
	}
	for _, tt := range tests {
		if got := routeLabel(tt.path); got != tt.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMiddleware_SetsCorrelationID(t *testing.T) {
	m, _, _ := newMiddlewareHarness(t)

	var capturedCID string
	rec := serve(m, func(w http.ResponseWriter, r *http.Request) {
		capturedCID = CorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	}, "POST", "/api/conversations")

	if capturedCID == "" {
		t.Error("middleware did not set correlation ID in context")
	}
	if len(capturedCID) != 32 {
		t.Errorf("correlation ID length = %d, want 32", len(capturedCID))
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != capturedCID {
		t.Errorf("response X-Correlation-ID = %q, want %q", got, capturedCID)
	}
}

func TestMiddleware_SpanUsesNormalizedRoute(t *testing.T) {
	m, _, exp := newMiddlewareHarness(t)

	serve(m, okHandler, "GET", "/api/conversations/8f41c1d2/messages")

	spans := exp.GetSpans()
	if len(spans) == 0 {
		t.Fatal("middleware did not create a span")
	}
	want := "HTTP GET /api/conversations/{sessionID}/messages"
	if spans[0].Name != want {
		t.Errorf("span name = %q, want %q", spans[0].Name, want)
	}
}

func TestMiddleware_RecordsDurationPerRoute(t *testing.T) {
	m, reader, _ := newMiddlewareHarness(t)

	serve(m, okHandler, "GET", "/api/conversations/abc/analytics")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, "veena.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}

	dp := hist.DataPoints[0]
	if dp.Count != 1 {
		t.Errorf("sample count = %d, want 1", dp.Count)
	}
	foundMethod, foundRoute := false, false
	for _, kv := range dp.Attributes.ToSlice() {
		if string(kv.Key) == "method" && kv.Value.AsString() == "GET" {
			foundMethod = true
		}
		if string(kv.Key) == "route" && kv.Value.AsString() == "/api/conversations/{sessionID}/analytics" {
			foundRoute = true
		}
	}
	if !foundMethod {
		t.Error("missing method attribute")
	}
	if !foundRoute {
		t.Error("missing normalized route attribute")
	}
}

func TestMiddleware_SkipsProbeEndpoints(t *testing.T) {
	m, reader, exp := newMiddlewareHarness(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := serve(m, okHandler, "GET", path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}

	if spans := exp.GetSpans(); len(spans) != 0 {
		t.Errorf("probe endpoints produced %d spans, want 0", len(spans))
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if met := findMetric(rm, "veena.http.request.duration"); met != nil {
		if hist, ok := met.Data.(metricdata.Histogram[float64]); ok && len(hist.DataPoints) > 0 {
			t.Error("probe endpoints recorded request durations")
		}
	}
}

func TestMiddleware_CapturesStatusCode(t *testing.T) {
	m, _, exp := newMiddlewareHarness(t)

	rec := serve(m, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, "GET", "/api/conversations/nope")

	if rec.Code != http.StatusNotFound {
		t.Errorf("response status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	spans := exp.GetSpans()
	if len(spans) == 0 {
		t.Fatal("no spans recorded")
	}
	found := false
	for _, a := range spans[0].Attributes {
		if string(a.Key) == "http.response.status_code" && a.Value.AsInt64() == 404 {
			found = true
		}
	}
	if !found {
		t.Error("span missing http.response.status_code attribute")
	}
}

func TestMiddleware_PropagatesW3CTraceContext(t *testing.T) {
	m, _, _ := newMiddlewareHarness(t)

	var capturedCID string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedCID = CorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/conversations/abc/voice", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	const wantTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	if capturedCID != wantTrace {
		t.Errorf("correlation ID = %q, want %q", capturedCID, wantTrace)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != wantTrace {
		t.Errorf("response X-Correlation-ID = %q, want %q", got, wantTrace)
	}
}
