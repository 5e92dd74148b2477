package builder

import (
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
	"github.com/twpayne/go-geom"
)

// Builder is a pipeline stage building both geography and geometry shapes.
type Builder struct {
	geography *GeographyBuilder
	geometry  *GeometryBuilder
}

var _ pipeline.Stage = (*Builder)(nil)

// StageOption configures a Builder.
type StageOption func(*stageOptions)

type stageOptions struct {
	onGeography []Option[*Geography]
	onGeometry  []Option[geom.T]
}

// OnGeography sets the callback for completed geography shapes.
func OnGeography(fn func(*Geography)) StageOption {
	return func(o *stageOptions) {
		o.onGeography = append(o.onGeography, WithProduced(fn))
	}
}

// OnGeometry sets the callback for completed geometry shapes.
func OnGeometry(fn func(geom.T)) StageOption {
	return func(o *stageOptions) {
		o.onGeometry = append(o.onGeometry, WithProduced(fn))
	}
}

// New creates a builder stage.
func New(opts ...StageOption) *Builder {
	var o stageOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{
		geography: NewGeographyBuilder(o.onGeography...),
		geometry:  NewGeometryBuilder(o.onGeometry...),
	}
}

// GeographyPipeline returns the geography facet.
func (b *Builder) GeographyPipeline() pipeline.GeographyPipeline {
	return b.geography
}

// GeometryPipeline returns the geometry facet.
func (b *Builder) GeometryPipeline() pipeline.GeometryPipeline {
	return b.geometry
}

// Geography returns the geography builder.
func (b *Builder) Geography() *GeographyBuilder {
	return b.geography
}

// Geometry returns the geometry builder.
func (b *Builder) Geometry() *GeometryBuilder {
	return b.geometry
}
