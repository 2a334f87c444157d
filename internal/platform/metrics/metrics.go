package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)

	// CollaboratorDuration times calls to external systems and caches by operation and outcome.
	CollaboratorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "collaborator_call_duration_seconds", Help: "External collaborator call duration in seconds.", Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}},
		[]string{"op", "outcome"},
	)

	// Optimizations counts optimization requests by outcome
	// (precondition, failed, empty, routes).
	Optimizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizations_total", Help: "Route optimization requests by outcome."},
		[]string{"outcome"},
	)

	// RouteOverlays counts rendered route overlays by style (solid, dashed).
	RouteOverlays = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "map_route_overlays_total", Help: "Rendered route overlays by style."},
		[]string{"style"},
	)

	// GeocodeLookups counts address resolutions by outcome (stored, resolved, omitted).
	GeocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "map_geocode_lookups_total", Help: "Marker coordinate resolutions by outcome."},
		[]string{"outcome"},
	)

	// StoreWrites counts full-collection writes by collection.
	StoreWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "store_collection_writes_total", Help: "Full collection rewrites."},
		[]string{"collection"},
	)

	// SkippedRecords counts stored records that could not be decoded on load.
	SkippedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "store_skipped_records_total", Help: "Stored records skipped because they could not be decoded."},
		[]string{"collection"},
	)
)

var regOnce sync.Once

// Register adds all collectors to Registry. Safe to call more than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(CollaboratorDuration)
		Registry.MustRegister(Optimizations)
		Registry.MustRegister(RouteOverlays)
		Registry.MustRegister(GeocodeLookups)
		Registry.MustRegister(StoreWrites)
		Registry.MustRegister(SkippedRecords)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
