package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jobrunner/geopipe/internal/adapters/codec"
	"github.com/jobrunner/geopipe/internal/application"
	"github.com/jobrunner/geopipe/internal/config"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/ports/output"
)

const (
	closedSquare   = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`
	unclosedSquare = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1]]]}`
)

// memoryStorage implements output.ObjectStorage for testing.
type memoryStorage struct {
	content map[string]string
}

func (m *memoryStorage) List(_ context.Context) ([]output.StorageObject, error) {
	var objects []output.StorageObject
	for key, data := range m.content {
		objects = append(objects, output.StorageObject{Key: key, Size: int64(len(data))})
	}
	return objects, nil
}

func (m *memoryStorage) GetReader(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.content[key]
	if !ok {
		return nil, &domain.StorageError{Operation: "read", Key: key, Err: domain.ErrNotFound}
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *memoryStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.content[key]
	return ok, nil
}

// mockSync implements SyncTrigger for testing.
type mockSync struct {
	report application.SyncReport
	err    error
}

func (m *mockSync) TriggerSync(_ context.Context) (application.SyncReport, error) {
	return m.report, m.err
}

// mockMetrics implements Metrics for testing.
type mockMetrics struct {
	requests int
}

func (m *mockMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
}

func (m *mockMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requests++
		next.ServeHTTP(w, r)
	})
}

type testServerOptions struct {
	sync     SyncTrigger
	metrics  *mockMetrics
	maxBody  int64
	origins  []string
	pipeline config.PipelineConfig
}

func newTestServer(t *testing.T, opts testServerOptions) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	storage := &memoryStorage{content: map[string]string{
		"square.geojson": closedSquare,
		"open.geojson":   unclosedSquare,
	}}
	documents := application.NewDocumentService(codec.New(0), nil, nil, logger)
	catalog := application.NewCatalog(storage, documents, nil, nil, logger, application.CatalogConfig{
		Topology: domain.TopologyGeography,
	})
	if err := catalog.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	if opts.pipeline.Topology == "" {
		opts.pipeline = config.PipelineConfig{Topology: "geography", OutputFormat: "wkt"}
	}

	var serverOpts []Option
	if opts.metrics != nil {
		serverOpts = append(serverOpts, WithMetrics(opts.metrics, "/metrics"))
	}

	return NewServer(
		config.ServerConfig{
			Host:         "localhost",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: opts.maxBody,
			CORS:         config.CORSConfig{AllowedOrigins: opts.origins},
		},
		opts.pipeline,
		Services{
			Documents: documents,
			Catalog:   catalog,
			Health:    application.NewHealthService(catalog, false),
			Sync:      opts.sync,
		},
		logger,
		serverOpts...,
	)
}

func serve(srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", rr.Body.String(), err)
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	rr := serve(srv, http.MethodGet, "/health", "", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeBody(t, rr)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want %q", resp["status"], "ok")
	}
	if resp["documents_loaded"] != float64(2) {
		t.Errorf("documents_loaded = %v, want 2", resp["documents_loaded"])
	}
	if resp["documents_valid"] != float64(1) {
		t.Errorf("documents_valid = %v, want 1", resp["documents_valid"])
	}
}

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	rr := serve(srv, http.MethodGet, "/health/live", "", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestHandleReadiness(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	rr := serve(srv, http.MethodGet, "/health/ready", "", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestHandleValidate(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		wantType    string
		wantSRID    float64
	}{
		{
			name:     "geojson format parameter",
			target:   "/api/v1/validate?format=geojson",
			body:     closedSquare,
			wantType: "Polygon",
			wantSRID: 4326,
		},
		{
			name:        "content type",
			target:      "/api/v1/validate",
			contentType: "application/geo+json",
			body:        closedSquare,
			wantType:    "Polygon",
			wantSRID:    4326,
		},
		{
			name:     "geometry with srid",
			target:   "/api/v1/validate?format=wkt&kind=geometry&srid=3857",
			body:     "LINESTRING(0 0, 10 10)",
			wantType: "LineString",
			wantSRID: 3857,
		},
		{
			name:        "wkt content type with charset",
			target:      "/api/v1/validate",
			contentType: "text/plain; charset=utf-8",
			body:        "POINT(13.4 52.5)",
			wantType:    "Point",
			wantSRID:    4326,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, http.MethodPost, tt.target, tt.contentType, tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
			}

			resp := decodeBody(t, rr)
			if resp["valid"] != true {
				t.Errorf("valid = %v, want true", resp["valid"])
			}
			shapes, ok := resp["shapes"].([]interface{})
			if !ok || len(shapes) != 1 {
				t.Fatalf("shapes = %v, want one shape", resp["shapes"])
			}
			shape := shapes[0].(map[string]interface{})
			if shape["type"] != tt.wantType {
				t.Errorf("type = %v, want %q", shape["type"], tt.wantType)
			}
			if shape["srid"] != tt.wantSRID {
				t.Errorf("srid = %v, want %v", shape["srid"], tt.wantSRID)
			}
		})
	}
}

func TestHandleValidateRejects(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	rr := serve(srv, http.MethodPost, "/api/v1/validate?format=geojson", "", unclosedSquare)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["valid"] != false {
		t.Errorf("valid = %v, want false", resp["valid"])
	}
	if resp["kind"] != "polygon_not_closed" {
		t.Errorf("kind = %v, want %q", resp["kind"], "polygon_not_closed")
	}
	if resp["stage"] != application.StagePipeline {
		t.Errorf("stage = %v, want %q", resp["stage"], application.StagePipeline)
	}

	// The pipeline recovers for the next request.
	rr = serve(srv, http.MethodPost, "/api/v1/validate?format=geojson", "", closedSquare)
	if rr.Code != http.StatusOK {
		t.Errorf("status after rejection = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestHandleValidateBadRequest(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		wantStatus  int
	}{
		{"no format", "/api/v1/validate", "", closedSquare, http.StatusBadRequest},
		{"unknown format", "/api/v1/validate?format=kml", "", closedSquare, http.StatusBadRequest},
		{"unknown content type", "/api/v1/validate", "application/xml", closedSquare, http.StatusBadRequest},
		{"invalid kind", "/api/v1/validate?format=geojson&kind=sphere", "", closedSquare, http.StatusBadRequest},
		{"invalid srid", "/api/v1/validate?format=geojson&srid=abc", "", closedSquare, http.StatusBadRequest},
		{"negative srid", "/api/v1/validate?format=geojson&srid=-1", "", closedSquare, http.StatusBadRequest},
		{"empty body", "/api/v1/validate?format=geojson", "", "", http.StatusBadRequest},
		{"malformed geojson", "/api/v1/validate?format=geojson", "", "{", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, http.MethodPost, tt.target, tt.contentType, tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleValidateBodyTooLarge(t *testing.T) {
	srv := newTestServer(t, testServerOptions{maxBody: 16})

	rr := serve(srv, http.MethodPost, "/api/v1/validate?format=geojson", "", closedSquare)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestHandleBuild(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	tests := []struct {
		name   string
		target string
		body   string
		check  func(t *testing.T, data interface{})
	}{
		{
			name:   "default output",
			target: "/api/v1/build?format=wkt&kind=geometry",
			body:   "LINESTRING(0 0, 10 10)",
			check: func(t *testing.T, data interface{}) {
				if data != "LINESTRING (0 0, 10 10)" {
					t.Errorf("data = %v, want %q", data, "LINESTRING (0 0, 10 10)")
				}
			},
		},
		{
			name:   "geojson output is embedded",
			target: "/api/v1/build?format=geojson&output=geojson",
			body:   closedSquare,
			check: func(t *testing.T, data interface{}) {
				obj, ok := data.(map[string]interface{})
				if !ok {
					t.Fatalf("data = %T, want object", data)
				}
				if obj["type"] != "Polygon" {
					t.Errorf("type = %v, want Polygon", obj["type"])
				}
			},
		},
		{
			name:   "wkb output is base64",
			target: "/api/v1/build?format=wkt&kind=geometry&output=wkb",
			body:   "POINT(1 2)",
			check: func(t *testing.T, data interface{}) {
				if _, ok := data.(string); !ok {
					t.Errorf("data = %T, want base64 string", data)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, http.MethodPost, tt.target, "", tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
			}

			resp := decodeBody(t, rr)
			shapes, ok := resp["shapes"].([]interface{})
			if !ok || len(shapes) != 1 {
				t.Fatalf("shapes = %v, want one shape", resp["shapes"])
			}
			tt.check(t, shapes[0].(map[string]interface{})["data"])
		})
	}
}

func TestHandleBuildErrors(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"unknown output", "/api/v1/build?format=geojson&output=svg", http.StatusBadRequest},
		{"invalid persist", "/api/v1/build?format=geojson&persist=maybe", http.StatusBadRequest},
		{"persist without id", "/api/v1/build?format=geojson&persist=true", http.StatusBadRequest},
		{"persist without store", "/api/v1/build?format=geojson&persist=true&id=square", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, http.MethodPost, tt.target, "", closedSquare)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleListDocuments(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	rr := serve(srv, http.MethodGet, "/api/v1/documents", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeBody(t, rr)
	if resp["count"] != float64(2) {
		t.Errorf("count = %v, want 2", resp["count"])
	}
	documents := resp["documents"].([]interface{})
	first := documents[0].(map[string]interface{})
	if first["id"] != "open" || first["status"] != "invalid" {
		t.Errorf("first document = %v, want invalid document open", first)
	}
	if first["error_kind"] != "polygon_not_closed" {
		t.Errorf("error_kind = %v, want %q", first["error_kind"], "polygon_not_closed")
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	rr := serve(srv, http.MethodGet, "/api/v1/documents/square", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeBody(t, rr)
	if resp["valid"] != true {
		t.Errorf("valid = %v, want true", resp["valid"])
	}
	if resp["shape_count"] != float64(1) {
		t.Errorf("shape_count = %v, want 1", resp["shape_count"])
	}

	rr = serve(srv, http.MethodGet, "/api/v1/documents/missing", "", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHandleSync(t *testing.T) {
	t.Run("not registered without sync service", func(t *testing.T) {
		srv := newTestServer(t, testServerOptions{})
		rr := serve(srv, http.MethodPost, "/api/v1/sync", "", "")
		if rr.Code == http.StatusOK {
			t.Errorf("status = %d, want an error status", rr.Code)
		}
	})

	t.Run("report", func(t *testing.T) {
		sync := &mockSync{report: application.SyncReport{Added: []string{"a"}, DocumentsTotal: 1}}
		srv := newTestServer(t, testServerOptions{sync: sync})
		rr := serve(srv, http.MethodPost, "/api/v1/sync", "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		resp := decodeBody(t, rr)
		if resp["documents_total"] != float64(1) {
			t.Errorf("documents_total = %v, want 1", resp["documents_total"])
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := newTestServer(t, testServerOptions{sync: &mockSync{err: application.ErrRateLimited}})
		rr := serve(srv, http.MethodPost, "/api/v1/sync", "", "")
		if rr.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusTooManyRequests)
		}
		if rr.Header().Get("Retry-After") != "30" {
			t.Errorf("Retry-After = %q, want %q", rr.Header().Get("Retry-After"), "30")
		}
	})
}

func TestHandleOpenAPI(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})

	rr := serve(srv, http.MethodGet, "/openapi.json", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeBody(t, rr)
	paths, ok := resp["paths"].(map[string]interface{})
	if !ok {
		t.Fatalf("paths = %T, want object", resp["paths"])
	}
	if _, ok := paths["/api/v1/validate"]; !ok {
		t.Error("paths missing /api/v1/validate")
	}

	rr = serve(srv, http.MethodGet, "/docs", "", "")
	if rr.Code != http.StatusOK || !bytes.Contains(rr.Body.Bytes(), []byte("/openapi.json")) {
		t.Errorf("docs status = %d, want %d with spec url", rr.Code, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := &mockMetrics{}
	srv := newTestServer(t, testServerOptions{metrics: metrics})

	rr := serve(srv, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if metrics.requests != 1 {
		t.Errorf("requests = %d, want 1", metrics.requests)
	}
}

func TestServerCORS(t *testing.T) {
	srv := newTestServer(t, testServerOptions{origins: []string{"https://example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/validate", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://example.com")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := newTestServer(t, testServerOptions{})
	handler := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
