package application

import (
	"context"

	"github.com/jobrunner/geopipe/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	catalog *Catalog
	store   bool
}

var _ input.HealthChecker = (*HealthService)(nil)

// NewHealthService creates a new health service. store reports whether a
// shape store is configured.
func NewHealthService(catalog *Catalog, store bool) *HealthService {
	return &HealthService{
		catalog: catalog,
		store:   store,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true
}

// IsReady returns true if the service is ready to accept requests: the
// catalog is empty or holds at least one valid document.
func (s *HealthService) IsReady(_ context.Context) bool {
	total, valid := s.catalog.counts()
	return total == 0 || valid > 0
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	total, valid := s.catalog.counts()

	components := map[string]string{
		"storage":  "ok",
		"pipeline": "ok",
		"store":    "disabled",
	}
	if s.store {
		components["store"] = "ok"
	}

	return input.HealthDetails{
		Healthy:         s.IsHealthy(ctx),
		Ready:           s.IsReady(ctx),
		DocumentsLoaded: total,
		DocumentsValid:  valid,
		Components:      components,
	}
}
