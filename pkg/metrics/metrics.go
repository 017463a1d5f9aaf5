// Package metrics provides Prometheus instrumentation on a private
// registry: the standard HTTP metrics, the drive-specific counters
// (uploads, blob operations, delete cascades, sweeps) and constructors for
// ad-hoc metrics.
//
// Wiring:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks request latency by method, route and status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "drivebox",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drivebox",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight gauges concurrently served requests.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "drivebox",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// ResponseSize tracks response body sizes.
	ResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "drivebox",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Response body sizes in bytes.",
			Buckets:   []float64{100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000},
		},
		[]string{"method", "path"},
	)

	// UploadsTotal counts upload attempts by outcome
	// ("stored" | "rejected" | "failed").
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drivebox",
			Subsystem: "files",
			Name:      "uploads_total",
			Help:      "Total file upload attempts.",
		},
		[]string{"outcome"},
	)

	// UploadBytes tracks stored upload sizes.
	UploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "drivebox",
			Subsystem: "files",
			Name:      "upload_bytes",
			Help:      "Size of stored uploads in bytes.",
			Buckets:   []float64{1 << 10, 64 << 10, 1 << 20, 8 << 20, 32 << 20, 128 << 20},
		},
	)

	// BlobOpDuration tracks blob store latency by operation and driver.
	BlobOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "drivebox",
			Subsystem: "storage",
			Name:      "blob_op_duration_seconds",
			Help:      "Duration of blob store operations in seconds.",
			Buckets:   []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"op", "driver"},
	)

	// CascadeNodes tracks how many rows each folder delete touched.
	CascadeNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "drivebox",
			Subsystem: "hierarchy",
			Name:      "cascade_nodes",
			Help:      "Folders plus files marked deleted per cascade.",
			Buckets:   []float64{1, 5, 25, 100, 500, 2500},
		},
	)

	// OrphansSwept counts blobs removed by the reconciliation sweep.
	OrphansSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "drivebox",
		Subsystem: "storage",
		Name:      "orphans_swept_total",
		Help:      "Orphaned blobs deleted by the reconciliation sweep.",
	})

	// QueueJobsProcessed counts queue jobs by status ("success" | "failed").
	QueueJobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drivebox",
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Total queue jobs processed.",
		},
		[]string{"status"},
	)

	// QueueJobDuration tracks queue job runtime by type.
	QueueJobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "drivebox",
			Subsystem: "queue",
			Name:      "job_duration_seconds",
			Help:      "Duration of queue job processing in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job_type"},
	)
)

// DefaultRegistry is the private Prometheus registry everything registers
// against; the default global registry stays untouched.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		ResponseSize,
		UploadsTotal,
		UploadBytes,
		BlobOpDuration,
		CascadeNodes,
		OrphansSwept,
		QueueJobsProcessed,
		QueueJobDuration,
	)
}

// Register adds a collector to the registry.
func Register(c prometheus.Collector) error {
	return DefaultRegistry.Register(c)
}

// MustRegister adds collectors to the registry, panicking on conflict.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// NewCounter creates and registers a CounterVec.
func NewCounter(namespace, name, help string, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	DefaultRegistry.MustRegister(c)
	return c
}

// NewHistogram creates and registers a HistogramVec.
func NewHistogram(namespace, name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	DefaultRegistry.MustRegister(h)
	return h
}

// NewGauge creates and registers a GaugeVec.
func NewGauge(namespace, name, help string, labels []string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	DefaultRegistry.MustRegister(g)
	return g
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// Middleware records duration, count, in-flight and response size for every
// request. Labels use the chi route pattern ("/api/files/{id}") rather than
// the raw path, keeping cardinality bounded.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			path := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					path = p
				}
			}

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rr.status)

			RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
			ResponseSize.WithLabelValues(r.Method, path).Observe(float64(rr.size))
		})
	}
}

// Handler serves the registry in Prometheus and OpenMetrics formats.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}

// ObserveBlobOp records one blob store operation:
//
//	defer metrics.ObserveBlobOp("put", "s3", time.Now())
func ObserveBlobOp(op, driver string, start time.Time) {
	BlobOpDuration.WithLabelValues(op, driver).Observe(time.Since(start).Seconds())
}

// RecordQueueJob records a queue job outcome.
func RecordQueueJob(jobType, status string, start time.Time) {
	QueueJobsProcessed.WithLabelValues(status).Inc()
	QueueJobDuration.WithLabelValues(jobType).Observe(time.Since(start).Seconds())
}
