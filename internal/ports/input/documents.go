// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/geopipe/internal/domain"
)

// DocumentService defines the primary port for running documents through
// the validating construction pipeline.
type DocumentService interface {
	// Process decodes, validates and builds the shapes of a document.
	Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResult, error)
}

// DocumentCatalog defines the primary port for the documents found in storage.
type DocumentCatalog interface {
	// ListDocuments returns all known documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetDocument returns a specific document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// Sync reconciles the catalog with storage.
	Sync(ctx context.Context) (*SyncResult, error)
}

// SyncResult summarises a catalog sync.
type SyncResult struct {
	Added   []string // Documents found in storage for the first time
	Updated []string // Documents processed again
	Removed []string // Documents no longer in storage
	Failed  []string // Documents that could not be read
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy         bool              // Overall health status
	Ready           bool              // Ready to accept requests
	DocumentsLoaded int               // Number of documents in the catalog
	DocumentsValid  int               // Number of valid documents
	Components      map[string]string // Component statuses
}
