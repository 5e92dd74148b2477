package trace

import (
	"context"
	"log/slog"

	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
)

// NewLoggingStage returns a stage that logs every call at debug level.
// Calls are not logged at all when the logger has debug disabled.
func NewLoggingStage(logger *slog.Logger, documentID string) *pipeline.DrawBoth {
	if logger == nil {
		logger = slog.Default()
	}
	return &pipeline.DrawBoth{
		Geography: loggingHandlers(logger.With("document", documentID, "topology", "geography")),
		Geometry:  loggingHandlers(logger.With("document", documentID, "topology", "geometry")),
	}
}

func loggingHandlers(logger *slog.Logger) pipeline.Handlers {
	debug := func(msg string, args ...any) {
		if logger.Enabled(context.Background(), slog.LevelDebug) {
			logger.Debug(msg, args...)
		}
	}
	return pipeline.Handlers{
		SetCoordinateSystem: func(cs domain.CoordinateSystem) error {
			debug("set coordinate system", "srid", cs.EPSGID)
			return nil
		},
		Begin: func(t domain.SpatialType) error {
			debug("begin shape", "type", t.String())
			return nil
		},
		BeginFigure: func(p domain.Position) error {
			debug("begin figure", "position", p.String())
			return nil
		},
		LineTo: func(p domain.Position) error {
			debug("line to", "position", p.String())
			return nil
		},
		EndFigure: func() error {
			debug("end figure")
			return nil
		},
		End: func() error {
			debug("end shape")
			return nil
		},
		Reset: func() {
			debug("reset")
		},
	}
}
