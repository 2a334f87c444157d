package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB and the Redis broker.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain ping function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler reports liveness plus the state of optional dependencies.
type HealthHandler struct {
	Checks map[string]Pinger
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	res := map[string]string{"status": "ok"}
	status := http.StatusOK
	for name, c := range h.Checks {
		if err := c.PingContext(ctx); err != nil {
			res[name] = "unavailable"
			res["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res[name] = "ok"
	}

	writeJSON(w, r, status, res)
}
