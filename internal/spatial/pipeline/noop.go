package pipeline

import "github.com/jobrunner/geopipe/internal/domain"

// NoOp is the terminal stage. It accepts every call and does nothing.
var NoOp Stage = noOpStage{}

type noOpStage struct{}

func (noOpStage) GeographyPipeline() GeographyPipeline { return noOpGeography{} }
func (noOpStage) GeometryPipeline() GeometryPipeline   { return noOpGeometry{} }

type noOpGeography struct{}

func (noOpGeography) SetCoordinateSystem(domain.CoordinateSystem) error { return nil }
func (noOpGeography) BeginGeography(domain.SpatialType) error           { return nil }
func (noOpGeography) BeginFigure(domain.GeographyPosition) error        { return nil }
func (noOpGeography) LineTo(domain.GeographyPosition) error             { return nil }
func (noOpGeography) EndFigure() error                                  { return nil }
func (noOpGeography) EndGeography() error                               { return nil }
func (noOpGeography) Reset()                                            {}

type noOpGeometry struct{}

func (noOpGeometry) SetCoordinateSystem(domain.CoordinateSystem) error { return nil }
func (noOpGeometry) BeginGeometry(domain.SpatialType) error            { return nil }
func (noOpGeometry) BeginFigure(domain.GeometryPosition) error         { return nil }
func (noOpGeometry) LineTo(domain.GeometryPosition) error              { return nil }
func (noOpGeometry) EndFigure() error                                  { return nil }
func (noOpGeometry) EndGeometry() error                                { return nil }
func (noOpGeometry) Reset()                                            {}
