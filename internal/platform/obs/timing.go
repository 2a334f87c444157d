package obs

import (
	"context"
	"log"
	"logistics-dashboard-service/internal/platform/metrics"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id used to correlate log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time starts a timer for op and returns a func that logs and records the
// duration. Pass a pointer to the named error result so failures are tagged.
//
//	defer obs.Time(ctx, "osrm.Route")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			metrics.CollaboratorDuration.WithLabelValues(name, "error").Observe(dur.Seconds())
			log.Printf("req_id=%s op=%s dur=%dms err=%v", reqID, name, dur.Milliseconds(), *errp)
			return
		}
		metrics.CollaboratorDuration.WithLabelValues(name, "ok").Observe(dur.Seconds())
		log.Printf("req_id=%s op=%s dur=%dms", reqID, name, dur.Milliseconds())
	}
}
