// Package app provides application initialization and wiring.
package app

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/jobrunner/geopipe/internal/adapters/codec"
	httpAdapter "github.com/jobrunner/geopipe/internal/adapters/http"
	"github.com/jobrunner/geopipe/internal/adapters/metrics"
	"github.com/jobrunner/geopipe/internal/adapters/sqlite"
	"github.com/jobrunner/geopipe/internal/adapters/storage"
	tlsAdapter "github.com/jobrunner/geopipe/internal/adapters/tls"
	"github.com/jobrunner/geopipe/internal/adapters/watcher"
	"github.com/jobrunner/geopipe/internal/application"
	"github.com/jobrunner/geopipe/internal/config"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Storage       output.ObjectStorage
	Local         *storage.LocalStorage // set for local storage only
	Repository    *sqlite.Repository    // nil unless the shape store is enabled
	Documents     *application.DocumentService
	Catalog       *application.Catalog
	SyncService   *application.SyncService
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	TLSServer     *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
	collector     output.MetricsCollector
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		collector: &output.NoOpMetrics{},
	}

	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector(metrics.DefaultNamespace)
		app.collector = app.Metrics
	}

	store, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "initializing storage")
	}
	if local, ok := store.(*storage.LocalStorage); ok {
		app.Local = local
	}
	app.Storage = storage.NewInstrumented(store, app.collector)

	// repo stays a nil interface when the store is disabled.
	var repo output.ShapeRepository
	if cfg.Store.Enabled {
		app.Repository, err = sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, errors.Wrap(err, "opening shape store")
		}
		repo = app.Repository
	}

	app.Documents = application.NewDocumentService(
		codec.New(cfg.Pipeline.MaxDecimalDigits),
		repo,
		app.collector,
		logger,
	)

	app.Catalog = application.NewCatalog(
		app.Storage,
		app.Documents,
		repo,
		app.collector,
		logger,
		application.CatalogConfig{
			Topology: cfg.Pipeline.TopologyValue(),
			SRID:     cfg.Pipeline.SRIDOverride(),
			Persist:  cfg.Pipeline.Persist,
		},
	)

	app.HealthService = application.NewHealthService(app.Catalog, cfg.Store.Enabled)

	services := httpAdapter.Services{
		Documents: app.Documents,
		Catalog:   app.Catalog,
		Health:    app.HealthService,
	}
	if cfg.Storage.SyncInterval > 0 {
		app.SyncService = application.NewSyncService(app.Catalog, cfg.Storage.SyncInterval, logger)
		services.Sync = app.SyncService
	}

	var serverOpts []httpAdapter.Option
	if app.Metrics != nil {
		serverOpts = append(serverOpts, httpAdapter.WithMetrics(app.Metrics, cfg.Metrics.Path))
	}
	app.HTTPServer = httpAdapter.NewServer(cfg.Server, cfg.Pipeline, services, logger, serverOpts...)

	if cfg.TLS.Enabled {
		app.TLSServer, err = tlsAdapter.NewServer(cfg.TLS, cfg.Server, app.HTTPServer.Router(), logger)
		if err != nil {
			return nil, errors.Wrap(err, "initializing TLS")
		}
	}

	if app.Local != nil && cfg.Watch.Enabled {
		w, err := watcher.New(
			watcher.Config{
				Paths:    []string{app.Local.BasePath()},
				Debounce: cfg.Watch.Debounce,
			},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start loads the catalog, starts the background workers and serves HTTP
// until the server stops.
func (a *App) Start(ctx context.Context) error {
	if err := a.Catalog.LoadAll(ctx); err != nil {
		a.Logger.Warn("failed to load documents", "error", err)
	}

	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	if a.SyncService != nil {
		a.SyncService.Start(ctx)
	}

	if a.TLSServer != nil {
		if err := a.TLSServer.ManageCertificates(ctx); err != nil {
			return err
		}
		return a.TLSServer.ListenAndServe()
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	if a.SyncService != nil {
		a.SyncService.Stop()
	}

	if a.TLSServer != nil {
		if err := a.TLSServer.Shutdown(ctx); err != nil {
			a.Logger.Error("TLS server shutdown error", "error", err)
		}
	} else if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}

	if a.Repository != nil {
		if err := a.Repository.Close(); err != nil {
			a.Logger.Error("failed to close shape store", "error", err)
			return err
		}
	}

	return nil
}

// handleFileEvent keeps the catalog in step with the local document
// directory.
func (a *App) handleFileEvent(ctx context.Context, event watcher.Event) error {
	if !domain.IsDocumentPath(event.Path) {
		return nil
	}
	a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		key, err := a.Local.KeyFor(event.Path)
		if err != nil {
			return err
		}
		_, err = a.Catalog.LoadDocument(ctx, key)
		return err

	case watcher.OpDelete:
		id := domain.DocumentID(event.Path)
		if err := a.Catalog.Remove(ctx, id); err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
			a.Logger.Warn("failed to remove deleted document", "id", id, "error", err)
		}
		return nil
	}

	return nil
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil
	}
	return nil, &domain.ConfigError{Field: "storage.type", Message: "unknown storage type " + cfg.Type}
}
