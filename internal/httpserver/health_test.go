package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestReady(t *testing.T) {
	ok := Check{Name: "ok", Run: func(context.Context) error { return nil }}
	down := Check{Name: "store", Run: func(context.Context) error { return errors.New("detached") }}
	slow := Check{Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	tests := []struct {
		name       string
		checks     []Check
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{"no checks", nil, http.StatusOK, "ready", map[string]string{}},
		{"all pass", []Check{ok}, http.StatusOK, "ready", map[string]string{"ok": "ok"}},
		{"one fails", []Check{ok, down}, http.StatusServiceUnavailable, "not_ready", map[string]string{"ok": "ok", "store": "detached"}},
		{"check times out", []Check{slow}, http.StatusServiceUnavailable, "not_ready", map[string]string{"slow": context.DeadlineExceeded.Error()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(Ready("testsvc", 20*time.Millisecond, tt.checks...), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status=%d, want %d", rec.Code, tt.wantCode)
			}
			var h Health
			if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if h.Service != "testsvc" || h.Status != tt.wantStatus {
				t.Fatalf("service=%q status=%q, want testsvc %q", h.Service, h.Status, tt.wantStatus)
			}
			if len(h.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks=%v, want %v", h.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if h.Checks[name] != want {
					t.Fatalf("check %s=%q, want %q", name, h.Checks[name], want)
				}
			}
		})
	}
}

func TestLive(t *testing.T) {
	rec := serve(Live("testsvc"), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type=%q", ct)
	}
}
