// Package health serves the assistant's liveness and readiness probes.
//
// /healthz answers 200 whenever the process can serve HTTP. /readyz runs the
// registered [Checker] probes (knowledge store, conversation store, provider
// circuit breakers) and answers 503 until all of them pass, so a deployment
// does not route callers to an instance that cannot answer them.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkTimeout bounds a single readiness probe. A hung database connection
// must not hang the readiness endpoint with it.
const checkTimeout = 5 * time.Second

// Checker is a named readiness probe. Check returns nil when the dependency
// can serve and an error describing the failure otherwise. It must respect
// context cancellation.
type Checker struct {
	// Name keys the probe's entry in the /readyz response, e.g. "knowledge"
	// or "llm".
	Name string

	Check func(ctx context.Context) error
}

// checkResult is one probe's entry in the readiness report.
type checkResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// report is the JSON body of both probe endpoints.
type report struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks,omitempty"`
}

// Handler serves the probe endpoints. The checker set is fixed at
// construction; Handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a [Handler] that evaluates the given checkers on each /readyz
// request. Checkers run concurrently; the slowest one bounds the response
// time.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz is the liveness probe. A process that reaches this handler is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report{Status: "ok"})
}

// Readyz runs every registered probe concurrently, each with its own
// [checkTimeout] deadline derived from the request context, and answers 503
// if any of them fails.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var (
		mu     sync.Mutex
		checks = make(map[string]checkResult, len(h.checkers))
		ready  = true
	)

	g, gctx := errgroup.WithContext(r.Context())
	for _, c := range h.checkers {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(gctx, checkTimeout)
			defer cancel()

			start := time.Now()
			err := c.Check(ctx)
			res := checkResult{
				Status:    "ok",
				LatencyMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				res.Status = "fail"
				res.Error = err.Error()
			}

			mu.Lock()
			checks[c.Name] = res
			if err != nil {
				ready = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	rep := report{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !ready {
		rep.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, rep)
}

// writeJSON encodes v with the given status code, falling back to a
// plain-text 500 when encoding fails.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
