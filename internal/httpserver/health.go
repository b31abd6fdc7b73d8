package httpserver

import (
	"context"
	"net/http"
	"time"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 2 * time.Second

// Check is one readiness dependency.
type Check struct {
	Name string
	Run  func(context.Context) error
}

// Health is the body of the health endpoints.
type Health struct {
	Service string            `json:"service"`
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Live answers 200 while the process can serve requests at all.
func Live(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, Health{Service: service, Status: "ok"})
	}
}

// Ready runs every check with its own timeout and answers 200 when all pass,
// 503 otherwise. Each check reports "ok" or its error text.
func Ready(service string, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return func(w http.ResponseWriter, r *http.Request) {
		h := Health{Service: service, Status: "ready", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			err := c.Run(ctx)
			cancel()
			if err != nil {
				h.Checks[c.Name] = err.Error()
				h.Status = "not_ready"
				code = http.StatusServiceUnavailable
				continue
			}
			h.Checks[c.Name] = "ok"
		}
		WriteJSON(w, code, h)
	}
}
