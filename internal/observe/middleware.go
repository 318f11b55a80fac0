package observe

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// statusWriter wraps [http.ResponseWriter] to capture the status code written
// by the downstream handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// isProbe reports whether path is an operational endpoint that should not
// produce spans or request metrics. Scrapers and liveness probes hit these
// every few seconds and would drown out the conversation traffic.
func isProbe(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}

// routeLabel collapses per-conversation URL segments so metric cardinality
// stays bounded: every session ID would otherwise become its own time series.
//
//	/api/conversations/8f41.../messages -> /api/conversations/{sessionID}/messages
func routeLabel(path string) string {
	const prefix = "/api/conversations/"
	rest, found := strings.CutPrefix(path, prefix)
	if !found || rest == "" {
		return path
	}
	if id, tail, nested := strings.Cut(rest, "/"); nested && id != "" {
		return prefix + "{sessionID}/" + tail
	}
	return prefix + "{sessionID}"
}

// Middleware wraps the API router with the assistant's request telemetry:
// it picks up W3C trace context from the caller (or starts a new trace),
// opens a server span, surfaces the trace ID as X-Correlation-ID, records
// the request duration against the normalized route, and logs completion.
// Probe endpoints pass through untouched.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			route := routeLabel(r.URL.Path)

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := StartSpan(ctx, "HTTP "+r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}
			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			duration := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, duration.Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
				),
			)
			span.SetAttributes(semconv.HTTPResponseStatusCode(sw.status))

			slog.LogAttrs(ctx, slog.LevelInfo, "request completed",
				slog.String("trace_id", cid),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", sw.status),
				slog.Duration("duration", duration),
			)
		})
	}
}
