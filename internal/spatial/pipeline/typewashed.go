package pipeline

import "github.com/jobrunner/geopipe/internal/domain"

// TypeWashedPipeline is a single call shape for both type systems. Readers
// that do not care about the coordinate kind, such as a GeoJSON decoder,
// drive this interface and an adapter turns the calls into geography or
// geometry pipeline calls.
type TypeWashedPipeline interface {
	// IsGeography reports whether the calls end up in a geography pipeline.
	IsGeography() bool
	SetCoordinateSystem(epsgID *int) error
	BeginGeo(t domain.SpatialType) error
	BeginFigure(c1, c2 float64, z, m domain.Ordinate) error
	LineTo(c1, c2 float64, z, m domain.Ordinate) error
	EndFigure() error
	EndGeo() error
	Reset()
}

// NewGeographyLongLatAdapter adapts a geography pipeline to x/y ordered
// input: c1 is the longitude and c2 the latitude.
func NewGeographyLongLatAdapter(p GeographyPipeline) TypeWashedPipeline {
	return &geographyAdapter{pipeline: p, longitudeFirst: true}
}

// NewGeographyLatLongAdapter adapts a geography pipeline to lat/long
// ordered input: c1 is the latitude and c2 the longitude.
func NewGeographyLatLongAdapter(p GeographyPipeline) TypeWashedPipeline {
	return &geographyAdapter{pipeline: p}
}

// NewGeometryAdapter adapts a geometry pipeline: c1 is x and c2 is y.
func NewGeometryAdapter(p GeometryPipeline) TypeWashedPipeline {
	return &geometryAdapter{pipeline: p}
}

type geographyAdapter struct {
	pipeline       GeographyPipeline
	longitudeFirst bool
}

func (a *geographyAdapter) IsGeography() bool { return true }

func (a *geographyAdapter) SetCoordinateSystem(epsgID *int) error {
	return a.pipeline.SetCoordinateSystem(domain.Geography(epsgID))
}

func (a *geographyAdapter) BeginGeo(t domain.SpatialType) error {
	return a.pipeline.BeginGeography(t)
}

func (a *geographyAdapter) BeginFigure(c1, c2 float64, z, m domain.Ordinate) error {
	return a.pipeline.BeginFigure(a.position(c1, c2, z, m))
}

func (a *geographyAdapter) LineTo(c1, c2 float64, z, m domain.Ordinate) error {
	return a.pipeline.LineTo(a.position(c1, c2, z, m))
}

func (a *geographyAdapter) EndFigure() error { return a.pipeline.EndFigure() }
func (a *geographyAdapter) EndGeo() error    { return a.pipeline.EndGeography() }
func (a *geographyAdapter) Reset()           { a.pipeline.Reset() }

func (a *geographyAdapter) position(c1, c2 float64, z, m domain.Ordinate) domain.GeographyPosition {
	if a.longitudeFirst {
		return domain.GeographyPosition{Latitude: c2, Longitude: c1, Z: z, M: m}
	}
	return domain.GeographyPosition{Latitude: c1, Longitude: c2, Z: z, M: m}
}

type geometryAdapter struct {
	pipeline GeometryPipeline
}

func (a *geometryAdapter) IsGeography() bool { return false }

func (a *geometryAdapter) SetCoordinateSystem(epsgID *int) error {
	return a.pipeline.SetCoordinateSystem(domain.Geometry(epsgID))
}

func (a *geometryAdapter) BeginGeo(t domain.SpatialType) error {
	return a.pipeline.BeginGeometry(t)
}

func (a *geometryAdapter) BeginFigure(c1, c2 float64, z, m domain.Ordinate) error {
	return a.pipeline.BeginFigure(domain.GeometryPosition{X: c1, Y: c2, Z: z, M: m})
}

func (a *geometryAdapter) LineTo(c1, c2 float64, z, m domain.Ordinate) error {
	return a.pipeline.LineTo(domain.GeometryPosition{X: c1, Y: c2, Z: z, M: m})
}

func (a *geometryAdapter) EndFigure() error { return a.pipeline.EndFigure() }
func (a *geometryAdapter) EndGeo() error    { return a.pipeline.EndGeometry() }
func (a *geometryAdapter) Reset()           { a.pipeline.Reset() }
