package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jobrunner/geopipe/internal/adapters/watcher"
	"github.com/jobrunner/geopipe/internal/config"
	"github.com/jobrunner/geopipe/internal/domain"
)

const closedSquare = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "documents")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 8080, ShutdownTimeout: time.Second},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: docs,
		},
		Pipeline: config.PipelineConfig{Topology: "geography", OutputFormat: "wkt", Persist: true},
		Store:    config.StoreConfig{Enabled: true, Path: filepath.Join(dir, "shapes.db")},
		Metrics:  config.MetricsConfig{Enabled: false},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewWiresComponents(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.SyncInterval = time.Minute

	a, err := New(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	if a.Local == nil {
		t.Error("Local = nil for local storage")
	}
	if a.Repository == nil {
		t.Error("Repository = nil with store enabled")
	}
	if a.SyncService == nil {
		t.Error("SyncService = nil with sync interval set")
	}
	if a.TLSServer != nil {
		t.Error("TLSServer set with TLS disabled")
	}
}

func TestNewUnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = "ftp"

	if _, err := New(context.Background(), cfg, testLogger()); err == nil {
		t.Fatal("New() error = nil, want error for unknown storage type")
	}
}

func TestHandleFileEvent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	a, err := New(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(ctx) })

	path := filepath.Join(cfg.Storage.LocalPath, "square.geojson")
	if err := os.WriteFile(path, []byte(closedSquare), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := a.handleFileEvent(ctx, watcher.Event{Path: path, Operation: watcher.OpCreate}); err != nil {
		t.Fatalf("handleFileEvent(create) error = %v", err)
	}
	doc, err := a.Catalog.GetDocument(ctx, "square")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Status != domain.StatusValid {
		t.Errorf("Status = %q, want %q (%s)", doc.Status, domain.StatusValid, doc.Error)
	}

	records, err := a.Repository.List(ctx, "square")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].Type != domain.Polygon {
		t.Errorf("stored shapes = %+v, want one polygon", records)
	}

	if err := a.handleFileEvent(ctx, watcher.Event{Path: path, Operation: watcher.OpDelete}); err != nil {
		t.Fatalf("handleFileEvent(delete) error = %v", err)
	}
	if a.Catalog.IsLoaded("square") {
		t.Error("document still loaded after delete")
	}
	records, err = a.Repository.List(ctx, "square")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("stored shapes after delete = %d, want 0", len(records))
	}

	// Files without a document extension are ignored.
	other := filepath.Join(cfg.Storage.LocalPath, "notes.txt")
	if err := a.handleFileEvent(ctx, watcher.Event{Path: other, Operation: watcher.OpCreate}); err != nil {
		t.Errorf("handleFileEvent(notes.txt) error = %v", err)
	}
}
