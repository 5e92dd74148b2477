package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector() *Collector {
	reg := prometheus.NewRegistry()
	return NewCollectorWithRegistry("", reg, reg)
}

func TestCollectorCounters(t *testing.T) {
	c := newTestCollector()

	c.IncDocumentsProcessed("valid")
	c.IncDocumentsProcessed("valid")
	c.IncDocumentsProcessed("invalid")
	c.IncPipelineErrors("polygon_not_closed")
	c.IncShapesBegun("geography", "Polygon")
	c.IncFiguresBegun("geography")
	c.IncFiguresBegun("geography")
	c.IncShapesBuilt("Polygon")
	c.SetDocumentsLoaded(3)
	c.SetDocumentsValid(2)
	c.IncStorageOperations("read", false)
	c.ObserveStorageDuration("read", time.Millisecond)
	c.ObserveProcessingDuration("wkt", time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"documents valid", testutil.ToFloat64(c.documentsProcessed.WithLabelValues("valid")), 2},
		{"documents invalid", testutil.ToFloat64(c.documentsProcessed.WithLabelValues("invalid")), 1},
		{"pipeline errors", testutil.ToFloat64(c.pipelineErrors.WithLabelValues("polygon_not_closed")), 1},
		{"shapes begun", testutil.ToFloat64(c.shapesBegun.WithLabelValues("geography", "Polygon")), 1},
		{"figures begun", testutil.ToFloat64(c.figuresBegun.WithLabelValues("geography")), 2},
		{"shapes built", testutil.ToFloat64(c.shapesBuilt.WithLabelValues("Polygon")), 1},
		{"documents loaded", testutil.ToFloat64(c.documentsLoaded), 3},
		{"documents valid gauge", testutil.ToFloat64(c.documentsValid), 2},
		{"storage errors", testutil.ToFloat64(c.storageOperations.WithLabelValues("read", "error")), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestCollectorMiddlewareUsesRouteTemplate(t *testing.T) {
	c := newTestCollector()

	router := mux.NewRouter()
	router.Use(c.Middleware)
	router.HandleFunc("/api/v1/documents/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Handle("/metrics", c.Handler())

	for _, id := range []string{"roads", "rivers"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id, nil))
	}

	got := testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("GET", "/api/v1/documents/{id}", "4xx"))
	if got != 2 {
		t.Errorf("http_requests_total = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "geopipe_http_requests_total") {
		t.Errorf("metrics output missing geopipe_http_requests_total")
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{422, "4xx"},
		{503, "5xx"},
		{0, "unknown"},
		{700, "unknown"},
	}

	for _, tt := range tests {
		if got := statusClass(tt.code); got != tt.want {
			t.Errorf("statusClass(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
