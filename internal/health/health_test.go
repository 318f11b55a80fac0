package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) report {
	t.Helper()
	var rep report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rep
}

func TestHealthz_AlwaysReturns200(t *testing.T) {
	h := New()

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rep := decodeReport(t, rec); rep.Status != "ok" {
		t.Errorf("status = %q, want ok", rep.Status)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestReadyz_AllProbesPass(t *testing.T) {
	h := New(
		Checker{Name: "knowledge", Check: func(context.Context) error { return nil }},
		Checker{Name: "conversations", Check: func(context.Context) error { return nil }},
		Checker{Name: "llm", Check: func(context.Context) error { return nil }},
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	rep := decodeReport(t, rec)
	if rep.Status != "ok" {
		t.Errorf("status = %q, want ok", rep.Status)
	}
	for _, name := range []string{"knowledge", "conversations", "llm"} {
		res, found := rep.Checks[name]
		if !found {
			t.Errorf("missing %q in checks", name)
			continue
		}
		if res.Status != "ok" {
			t.Errorf("%s status = %q, want ok", name, res.Status)
		}
		if res.Error != "" {
			t.Errorf("%s error = %q, want empty", name, res.Error)
		}
	}
}

func TestReadyz_FailedProbeReturns503(t *testing.T) {
	h := New(
		Checker{Name: "postgres", Check: func(context.Context) error {
			return errors.New("connection refused")
		}},
		Checker{Name: "llm", Check: func(context.Context) error { return nil }},
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	rep := decodeReport(t, rec)
	if rep.Status != "fail" {
		t.Errorf("status = %q, want fail", rep.Status)
	}
	if pg := rep.Checks["postgres"]; pg.Status != "fail" || pg.Error != "connection refused" {
		t.Errorf("postgres check = %+v, want fail with connection refused", pg)
	}
	if llm := rep.Checks["llm"]; llm.Status != "ok" {
		t.Errorf("llm check = %+v, want ok despite postgres failing", llm)
	}
}

func TestReadyz_NoProbesIsReady(t *testing.T) {
	h := New()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rep := decodeReport(t, rec); rep.Status != "ok" {
		t.Errorf("status = %q, want ok", rep.Status)
	}
}

func TestReadyz_ProbesRunConcurrently(t *testing.T) {
	// Three probes sleeping 50ms each must finish well under the 150ms a
	// sequential run would need.
	slow := func(ctx context.Context) error {
		select {
		case <-time.After(50 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h := New(
		Checker{Name: "knowledge", Check: slow},
		Checker{Name: "conversations", Check: slow},
		Checker{Name: "tts", Check: slow},
	)

	start := time.Now()
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))
	elapsed := time.Since(start)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if elapsed > 120*time.Millisecond {
		t.Errorf("readiness took %v, want concurrent probes well under 150ms", elapsed)
	}
}

func TestReadyz_ReportsProbeLatency(t *testing.T) {
	h := New(
		Checker{Name: "knowledge", Check: func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			return nil
		}},
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	rep := decodeReport(t, rec)
	if got := rep.Checks["knowledge"].LatencyMS; got < 10 {
		t.Errorf("latency_ms = %d, want >= 10", got)
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	h := New(
		Checker{Name: "slow", Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
