// Package pipeline defines the shape construction pipeline: the call
// contracts for the geography and geometry type systems, the forwarding
// chain that composes stages, and adapters between call shapes.
//
// A shape is streamed as a sequence of calls:
//
//	SetCoordinateSystem Begin{BeginFigure LineTo* EndFigure}* End
//
// with Begin/End pairs nesting for multi shapes and collections. Every call
// returns an error; once a call has failed the stage must be Reset before it
// is used again.
package pipeline

import "github.com/jobrunner/geopipe/internal/domain"

// GeographyPipeline receives the construction calls of a geography shape.
type GeographyPipeline interface {
	SetCoordinateSystem(cs domain.CoordinateSystem) error
	BeginGeography(t domain.SpatialType) error
	BeginFigure(p domain.GeographyPosition) error
	LineTo(p domain.GeographyPosition) error
	EndFigure() error
	EndGeography() error
	Reset()
}

// GeometryPipeline receives the construction calls of a geometry shape.
type GeometryPipeline interface {
	SetCoordinateSystem(cs domain.CoordinateSystem) error
	BeginGeometry(t domain.SpatialType) error
	BeginFigure(p domain.GeometryPosition) error
	LineTo(p domain.GeometryPosition) error
	EndFigure() error
	EndGeometry() error
	Reset()
}

// Stage is a pipeline stage handling both type systems. The two method sets
// share names with different argument types, so a stage exposes each as a
// separate facet.
type Stage interface {
	GeographyPipeline() GeographyPipeline
	GeometryPipeline() GeometryPipeline
}

// NewStage pairs a geography and a geometry pipeline into a Stage.
// A nil facet is replaced by the no-op pipeline.
func NewStage(geography GeographyPipeline, geometry GeometryPipeline) Stage {
	if geography == nil {
		geography = NoOp.GeographyPipeline()
	}
	if geometry == nil {
		geometry = NoOp.GeometryPipeline()
	}
	return pair{geography: geography, geometry: geometry}
}

type pair struct {
	geography GeographyPipeline
	geometry  GeometryPipeline
}

func (p pair) GeographyPipeline() GeographyPipeline { return p.geography }
func (p pair) GeometryPipeline() GeometryPipeline   { return p.geometry }
