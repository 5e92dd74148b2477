// Package application contains the application services.
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/ports/output"
	"github.com/jobrunner/geopipe/internal/spatial/builder"
	"github.com/jobrunner/geopipe/internal/spatial/emit"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
	"github.com/jobrunner/geopipe/internal/spatial/trace"
	"github.com/jobrunner/geopipe/internal/spatial/validator"
	"github.com/twpayne/go-geom"
)

// Processing stages reported in DocumentError.
const (
	StageDecode   = "decode"
	StagePipeline = "pipeline"
	StageEncode   = "encode"
	StagePersist  = "persist"
)

// DocumentService runs documents through the validating construction
// pipeline.
type DocumentService struct {
	codec   output.ShapeCodec
	repo    output.ShapeRepository
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewDocumentService creates a new document service. repo may be nil, in
// which case persist requests fail.
func NewDocumentService(
	codec output.ShapeCodec,
	repo output.ShapeRepository,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *DocumentService {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &DocumentService{
		codec:   codec,
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

// built collects the top-level shapes a builder produces.
type built struct {
	geographies []*builder.Geography
	geometries  []geom.T
}

func (b *built) count() int {
	return len(b.geographies) + len(b.geometries)
}

// Process decodes the payload, replays every shape through the validator
// into the builder and returns the built shapes.
func (s *DocumentService) Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResult, error) {
	start := time.Now()

	result, err := s.process(ctx, req)
	s.metrics.ObserveProcessingDuration(string(req.Format), time.Since(start))
	if err != nil {
		s.metrics.IncDocumentsProcessed(string(statusOf(err)))
		return nil, err
	}
	s.metrics.IncDocumentsProcessed(string(domain.StatusValid))

	result.Duration = time.Since(start)
	s.logger.Debug("document processed",
		"document", req.DocumentID,
		"shapes", len(result.Shapes),
		"duration", result.Duration,
	)
	return result, nil
}

func (s *DocumentService) process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResult, error) {
	if req.Persist && req.DocumentID == "" {
		return nil, &domain.ValidationError{
			Field:      "document_id",
			Value:      req.DocumentID,
			Constraint: "required",
			Message:    "persisting shapes requires a document id",
		}
	}

	shapes, err := s.codec.Decode(req.Format, req.Payload)
	if err != nil {
		return nil, s.fail(req.DocumentID, StageDecode, err)
	}

	out := &built{}
	b := builder.New(
		builder.OnGeography(func(g *builder.Geography) { out.geographies = append(out.geographies, g) }),
		builder.OnGeometry(func(g geom.T) { out.geometries = append(out.geometries, g) }),
	)
	head := pipeline.Chain(
		validator.New(),
		trace.NewLoggingStage(s.logger, req.DocumentID),
		trace.NewMetricsStage(s.metrics),
		b,
	)

	var target pipeline.TypeWashedPipeline
	if req.Topology == domain.TopologyGeometry {
		target = pipeline.NewGeometryAdapter(head.GeometryPipeline())
	} else {
		target = pipeline.NewGeographyLongLatAdapter(head.GeographyPipeline())
	}

	for i, g := range shapes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := emit.Emit(target, g, req.SRID); err != nil {
			return nil, s.fail(req.DocumentID, StagePipeline, errors.Wrapf(err, "shape %d", i))
		}
	}
	if out.count() != len(shapes) {
		return nil, s.fail(req.DocumentID, StagePipeline,
			errors.AssertionFailedf("built %d of %d shapes", out.count(), len(shapes)))
	}

	result := &domain.ProcessResult{DocumentID: req.DocumentID}
	for _, g := range out.geographies {
		result.Shapes = append(result.Shapes, domain.ShapeSummary{Type: g.Type(), SRID: g.CoordinateSystem().EPSGID})
	}
	for _, g := range out.geometries {
		result.Shapes = append(result.Shapes, domain.ShapeSummary{Type: builder.SpatialTypeOf(g), SRID: g.SRID()})
	}
	for _, shape := range result.Shapes {
		s.metrics.IncShapesBuilt(shape.Type.String())
	}

	if req.Output != "" {
		encoded, err := s.encode(req.Output, out)
		if err != nil {
			return nil, s.fail(req.DocumentID, StageEncode, err)
		}
		result.Encoded = encoded
	}

	if req.Persist {
		if err := s.persist(ctx, req.DocumentID, out); err != nil {
			return nil, s.fail(req.DocumentID, StagePersist, err)
		}
	}

	return result, nil
}

func (s *DocumentService) encode(format domain.Format, out *built) ([][]byte, error) {
	encoded := make([][]byte, 0, out.count())
	for _, g := range out.geographies {
		data, err := s.codec.EncodeGeography(format, g)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, data)
	}
	for _, g := range out.geometries {
		data, err := s.codec.Encode(format, g)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, data)
	}
	return encoded, nil
}

func (s *DocumentService) persist(ctx context.Context, documentID string, out *built) error {
	if s.repo == nil {
		return errors.Wrap(domain.ErrUnavailable, "no shape store configured")
	}

	records := make([]domain.ShapeRecord, 0, out.count())
	for _, g := range out.geographies {
		rec := domain.ShapeRecord{
			DocumentID: documentID,
			Type:       g.Type(),
			Topology:   domain.TopologyGeography,
			SRID:       g.CoordinateSystem().EPSGID,
			FullGlobe:  g.IsFullGlobe(),
		}
		if !g.IsFullGlobe() {
			data, err := s.codec.EncodeEWKB(g.Geom())
			if err != nil {
				return err
			}
			rec.WKB = data
		}
		records = append(records, rec)
	}
	for _, g := range out.geometries {
		data, err := s.codec.EncodeEWKB(g)
		if err != nil {
			return err
		}
		records = append(records, domain.ShapeRecord{
			DocumentID: documentID,
			Type:       builder.SpatialTypeOf(g),
			Topology:   domain.TopologyGeometry,
			SRID:       g.SRID(),
			WKB:        data,
		})
	}

	return s.repo.Save(ctx, documentID, records)
}

func (s *DocumentService) fail(documentID, stage string, err error) error {
	if kind, ok := FormatErrorKind(err); ok {
		s.metrics.IncPipelineErrors(kind.String())
	}
	s.logger.Debug("document rejected", "document", documentID, "stage", stage, "error", err)
	return &domain.DocumentError{DocumentID: documentID, Stage: stage, Err: err}
}

// FormatErrorKind returns the kind of the format error in err's chain.
func FormatErrorKind(err error) (domain.ErrorKind, bool) {
	var fe *domain.FormatError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// statusOf maps a processing error to a document status. Bad input makes
// a document invalid; anything else is an error.
func statusOf(err error) domain.DocumentStatus {
	if errors.Is(err, domain.ErrInvalidInput) {
		return domain.StatusInvalid
	}
	return domain.StatusError
}
