// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobrunner/geopipe/internal/ports/output"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "geopipe"

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	documentsProcessed  *prometheus.CounterVec
	processingDuration  *prometheus.HistogramVec
	pipelineErrors      *prometheus.CounterVec
	shapesBegun         *prometheus.CounterVec
	figuresBegun        *prometheus.CounterVec
	shapesBuilt         *prometheus.CounterVec
	documentsLoaded     prometheus.Gauge
	documentsValid      prometheus.Gauge
	storageOperations   *prometheus.CounterVec
	storageDuration     *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

var _ output.MetricsCollector = (*Collector)(nil)

// NewCollector creates a collector registered with the default registry.
func NewCollector(namespace string) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewCollectorWithRegistry creates a collector registered with reg.
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Collector{
		documentsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_processed_total",
				Help:      "Total number of documents run through the pipeline",
			},
			[]string{"status"},
		),

		processingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_processing_duration_seconds",
				Help:      "Document processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),

		pipelineErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_errors_total",
				Help:      "Rejected call streams by error kind",
			},
			[]string{"kind"},
		),

		shapesBegun: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_shapes_begun_total",
				Help:      "Shapes begun in a pipeline, nested shapes included",
			},
			[]string{"topology", "type"},
		),

		figuresBegun: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_figures_begun_total",
				Help:      "Figures begun in a pipeline",
			},
			[]string{"topology"},
		),

		shapesBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "shapes_built_total",
				Help:      "Completed top-level shapes",
			},
			[]string{"type"},
		),

		documentsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "documents_loaded",
				Help:      "Number of documents in the catalog",
			},
		),

		documentsValid: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "documents_valid",
				Help:      "Number of valid documents in the catalog",
			},
		),

		storageOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),

		storageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		gatherer: gatherer,
	}
}

// IncDocumentsProcessed increments the processed document counter.
func (c *Collector) IncDocumentsProcessed(status string) {
	c.documentsProcessed.WithLabelValues(status).Inc()
}

// ObserveProcessingDuration records how long a document took to process.
func (c *Collector) ObserveProcessingDuration(format string, duration time.Duration) {
	c.processingDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// IncPipelineErrors counts a rejected call stream.
func (c *Collector) IncPipelineErrors(kind string) {
	c.pipelineErrors.WithLabelValues(kind).Inc()
}

// IncShapesBegun counts a begun shape.
func (c *Collector) IncShapesBegun(topology, shapeType string) {
	c.shapesBegun.WithLabelValues(topology, shapeType).Inc()
}

// IncFiguresBegun counts a begun figure.
func (c *Collector) IncFiguresBegun(topology string) {
	c.figuresBegun.WithLabelValues(topology).Inc()
}

// IncShapesBuilt counts a completed top-level shape.
func (c *Collector) IncShapesBuilt(shapeType string) {
	c.shapesBuilt.WithLabelValues(shapeType).Inc()
}

// SetDocumentsLoaded sets the number of documents in the catalog.
func (c *Collector) SetDocumentsLoaded(count int) {
	c.documentsLoaded.Set(float64(count))
}

// SetDocumentsValid sets the number of valid documents.
func (c *Collector) SetDocumentsValid(count int) {
	c.documentsValid.Set(float64(count))
}

// IncStorageOperations increments storage operation counter.
func (c *Collector) IncStorageOperations(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.storageOperations.WithLabelValues(operation, status).Inc()
}

// ObserveStorageDuration records storage operation duration.
func (c *Collector) ObserveStorageDuration(operation string, duration time.Duration) {
	c.storageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns the HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Middleware returns HTTP middleware for request metrics.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := routePath(r)
		c.httpRequestsTotal.WithLabelValues(r.Method, path, statusClass(wrapped.statusCode)).Inc()
		c.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// routePath returns the route template so document IDs do not become
// label values.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// statusClass converts an HTTP status code to its class, e.g. "4xx".
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
