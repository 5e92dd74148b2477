package builder

import (
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
	"github.com/twpayne/go-geom"
)

type geometryFactory struct {
	cs domain.CoordinateSystem
}

func (f *geometryFactory) CreatePoint(isEmpty bool, x, y float64, z, m domain.Ordinate) (geom.T, error) {
	p := newPoint(isEmpty, x, y, z, m)
	p.SetSRID(f.cs.EPSGID)
	return p, nil
}

func (f *geometryFactory) CreateShapeInstance(t domain.SpatialType, children []geom.T) (geom.T, error) {
	if t == domain.FullGlobe {
		return nil, domain.NewFormatError(domain.KindInvalidType, "a geometry cannot be a full globe")
	}
	g, err := assemble(t, children)
	if err != nil {
		return nil, err
	}
	SetSRID(g, f.cs.EPSGID)
	return g, nil
}

// GeometryBuilder builds go-geom values from geometry pipeline calls.
// Built values carry the EPSG id of the coordinate system as their SRID.
type GeometryBuilder struct {
	tree    *TreeBuilder[geom.T]
	factory *geometryFactory
}

var _ pipeline.GeometryPipeline = (*GeometryBuilder)(nil)

// NewGeometryBuilder creates a geometry builder.
func NewGeometryBuilder(opts ...Option[geom.T]) *GeometryBuilder {
	f := &geometryFactory{cs: domain.Geometry(nil)}
	return &GeometryBuilder{
		tree:    NewTreeBuilder[geom.T](f, opts...),
		factory: f,
	}
}

// SetCoordinateSystem sets the coordinate system of the shapes that follow.
func (b *GeometryBuilder) SetCoordinateSystem(cs domain.CoordinateSystem) error {
	b.factory.cs = cs
	return nil
}

// BeginGeometry starts a shape.
func (b *GeometryBuilder) BeginGeometry(t domain.SpatialType) error {
	return b.tree.BeginGeo(t)
}

// BeginFigure starts a figure.
func (b *GeometryBuilder) BeginFigure(p domain.GeometryPosition) error {
	return b.tree.BeginFigure(p.X, p.Y, p.Z, p.M)
}

// LineTo adds a position to the figure.
func (b *GeometryBuilder) LineTo(p domain.GeometryPosition) error {
	return b.tree.LineTo(p.X, p.Y, p.Z, p.M)
}

// EndFigure closes the figure.
func (b *GeometryBuilder) EndFigure() error {
	return b.tree.EndFigure()
}

// EndGeometry closes the shape.
func (b *GeometryBuilder) EndGeometry() error {
	return b.tree.EndGeo()
}

// Reset discards any partial shape.
func (b *GeometryBuilder) Reset() {
	b.tree.Reset()
	b.factory.cs = domain.Geometry(nil)
}

// ConstructedInstance returns the last completed shape.
func (b *GeometryBuilder) ConstructedInstance() (geom.T, error) {
	return b.tree.ConstructedInstance()
}
