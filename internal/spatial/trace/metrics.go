package trace

import (
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/ports/output"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
)

// NewMetricsStage returns a stage that counts begun shapes and figures.
func NewMetricsStage(metrics output.MetricsCollector) *pipeline.DrawBoth {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &pipeline.DrawBoth{
		Geography: metricsHandlers(metrics, domain.TopologyGeography.String()),
		Geometry:  metricsHandlers(metrics, domain.TopologyGeometry.String()),
	}
}

func metricsHandlers(metrics output.MetricsCollector, topology string) pipeline.Handlers {
	return pipeline.Handlers{
		Begin: func(t domain.SpatialType) error {
			metrics.IncShapesBegun(topology, t.String())
			return nil
		},
		BeginFigure: func(domain.Position) error {
			metrics.IncFiguresBegun(topology)
			return nil
		},
	}
}
