package pipeline

import "github.com/jobrunner/geopipe/internal/domain"

// Handlers is a table of call handlers for one coordinate kind. Positions
// arrive in their type-washed form. Nil entries are no-ops.
type Handlers struct {
	SetCoordinateSystem func(cs domain.CoordinateSystem) error
	Begin               func(t domain.SpatialType) error
	BeginFigure         func(p domain.Position) error
	LineTo              func(p domain.Position) error
	EndFigure           func() error
	End                 func() error
	Reset               func()
}

// DrawBoth is a stage built from two handler tables, one per coordinate
// kind. A sink that treats geography and geometry alike passes the same
// table twice.
type DrawBoth struct {
	Geography Handlers
	Geometry  Handlers
}

// NewDrawBoth returns a stage that uses h for both coordinate kinds.
func NewDrawBoth(h Handlers) *DrawBoth {
	return &DrawBoth{Geography: h, Geometry: h}
}

// GeographyPipeline returns the geography facet.
func (d *DrawBoth) GeographyPipeline() GeographyPipeline {
	return drawGeography{h: &d.Geography}
}

// GeometryPipeline returns the geometry facet.
func (d *DrawBoth) GeometryPipeline() GeometryPipeline {
	return drawGeometry{h: &d.Geometry}
}

func (h *Handlers) setCoordinateSystem(cs domain.CoordinateSystem) error {
	if h.SetCoordinateSystem == nil {
		return nil
	}
	return h.SetCoordinateSystem(cs)
}

func (h *Handlers) begin(t domain.SpatialType) error {
	if h.Begin == nil {
		return nil
	}
	return h.Begin(t)
}

func (h *Handlers) beginFigure(p domain.Position) error {
	if h.BeginFigure == nil {
		return nil
	}
	return h.BeginFigure(p)
}

func (h *Handlers) lineTo(p domain.Position) error {
	if h.LineTo == nil {
		return nil
	}
	return h.LineTo(p)
}

func (h *Handlers) endFigure() error {
	if h.EndFigure == nil {
		return nil
	}
	return h.EndFigure()
}

func (h *Handlers) end() error {
	if h.End == nil {
		return nil
	}
	return h.End()
}

func (h *Handlers) reset() {
	if h.Reset != nil {
		h.Reset()
	}
}

type drawGeography struct {
	h *Handlers
}

func (d drawGeography) SetCoordinateSystem(cs domain.CoordinateSystem) error {
	return d.h.setCoordinateSystem(cs)
}
func (d drawGeography) BeginGeography(t domain.SpatialType) error { return d.h.begin(t) }
func (d drawGeography) BeginFigure(p domain.GeographyPosition) error {
	return d.h.beginFigure(p.Position())
}
func (d drawGeography) LineTo(p domain.GeographyPosition) error { return d.h.lineTo(p.Position()) }
func (d drawGeography) EndFigure() error                        { return d.h.endFigure() }
func (d drawGeography) EndGeography() error                     { return d.h.end() }
func (d drawGeography) Reset()                                  { d.h.reset() }

type drawGeometry struct {
	h *Handlers
}

func (d drawGeometry) SetCoordinateSystem(cs domain.CoordinateSystem) error {
	return d.h.setCoordinateSystem(cs)
}
func (d drawGeometry) BeginGeometry(t domain.SpatialType) error { return d.h.begin(t) }
func (d drawGeometry) BeginFigure(p domain.GeometryPosition) error {
	return d.h.beginFigure(p.Position())
}
func (d drawGeometry) LineTo(p domain.GeometryPosition) error { return d.h.lineTo(p.Position()) }
func (d drawGeometry) EndFigure() error                       { return d.h.endFigure() }
func (d drawGeometry) EndGeometry() error                     { return d.h.end() }
func (d drawGeometry) Reset()                                 { d.h.reset() }
