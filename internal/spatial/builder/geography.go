package builder

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/geo/s2"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
	"github.com/twpayne/go-geom"
)

// EarthRadiusMeters is the mean earth radius used to scale spherical measures.
const EarthRadiusMeters = 6371008.8

// Geography is a shape on the sphere. The wrapped go-geom value stores
// longitude before latitude. A full globe has no go-geom value.
type Geography struct {
	shape     geom.T
	fullGlobe bool
	cs        domain.CoordinateSystem
}

// NewGeography wraps a go-geom value in longitude, latitude order.
func NewGeography(shape geom.T, cs domain.CoordinateSystem) *Geography {
	return &Geography{shape: shape, cs: cs}
}

// NewFullGlobe returns the geography covering the whole sphere.
func NewFullGlobe(cs domain.CoordinateSystem) *Geography {
	return &Geography{fullGlobe: true, cs: cs}
}

// Type returns the spatial type.
func (g *Geography) Type() domain.SpatialType {
	if g.fullGlobe {
		return domain.FullGlobe
	}
	return SpatialTypeOf(g.shape)
}

// IsFullGlobe reports whether g covers the whole sphere.
func (g *Geography) IsFullGlobe() bool {
	return g.fullGlobe
}

// Geom returns the wrapped go-geom value, nil for the full globe.
func (g *Geography) Geom() geom.T {
	return g.shape
}

// CoordinateSystem returns the coordinate system the shape was built in.
func (g *Geography) CoordinateSystem() domain.CoordinateSystem {
	return g.cs
}

// IsEmpty reports whether the shape has no positions.
func (g *Geography) IsEmpty() bool {
	return !g.fullGlobe && isEmpty(g.shape)
}

func isEmpty(t geom.T) bool {
	switch t := t.(type) {
	case *geom.Point:
		return t.Empty()
	case *geom.GeometryCollection:
		for _, c := range t.Geoms() {
			if !isEmpty(c) {
				return false
			}
		}
		return true
	default:
		return len(t.FlatCoords()) == 0
	}
}

// S2Regions returns the shape as s2 regions: an s2.Point per point, an
// *s2.Polyline per line string and an *s2.Polygon per polygon. The full globe
// is a single full *s2.Loop.
func (g *Geography) S2Regions() ([]s2.Region, error) {
	if g.fullGlobe {
		return []s2.Region{s2.FullLoop()}, nil
	}
	return s2Regions(g.shape)
}

func s2Regions(t geom.T) ([]s2.Region, error) {
	switch t := t.(type) {
	case *geom.Point:
		if t.Empty() {
			return nil, nil
		}
		return []s2.Region{s2Point(t.FlatCoords())}, nil

	case *geom.LineString:
		if t.NumCoords() == 0 {
			return nil, nil
		}
		return []s2.Region{s2Polyline(t.FlatCoords(), t.Stride())}, nil

	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return nil, nil
		}
		return []s2.Region{s2Polygon(t)}, nil

	case *geom.MultiPoint:
		regions := make([]s2.Region, 0, t.NumPoints())
		for i := 0; i < t.NumPoints(); i++ {
			r, err := s2Regions(t.Point(i))
			if err != nil {
				return nil, err
			}
			regions = append(regions, r...)
		}
		return regions, nil

	case *geom.MultiLineString:
		regions := make([]s2.Region, 0, t.NumLineStrings())
		for i := 0; i < t.NumLineStrings(); i++ {
			r, err := s2Regions(t.LineString(i))
			if err != nil {
				return nil, err
			}
			regions = append(regions, r...)
		}
		return regions, nil

	case *geom.MultiPolygon:
		regions := make([]s2.Region, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			r, err := s2Regions(t.Polygon(i))
			if err != nil {
				return nil, err
			}
			regions = append(regions, r...)
		}
		return regions, nil

	case *geom.GeometryCollection:
		var regions []s2.Region
		for _, c := range t.Geoms() {
			r, err := s2Regions(c)
			if err != nil {
				return nil, err
			}
			regions = append(regions, r...)
		}
		return regions, nil
	}
	return nil, errors.AssertionFailedf("unknown geography type %T", t)
}

func s2Point(coord []float64) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(coord[1], coord[0]))
}

func s2Points(flat []float64, stride int) []s2.Point {
	points := make([]s2.Point, 0, len(flat)/stride)
	for i := 0; i+stride <= len(flat); i += stride {
		points = append(points, s2Point(flat[i:i+stride]))
	}
	return points
}

func s2Polyline(flat []float64, stride int) *s2.Polyline {
	line := s2.Polyline(s2Points(flat, stride))
	return &line
}

// s2Polygon converts the rings of p into normalized loops. The closing
// position of each ring is dropped and degenerate rings are skipped.
func s2Polygon(p *geom.Polygon) *s2.Polygon {
	loops := make([]*s2.Loop, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		points := s2Points(p.LinearRing(i).FlatCoords(), p.Stride())
		if len(points) > 1 && points[0] == points[len(points)-1] {
			points = points[:len(points)-1]
		}
		if len(points) < 3 {
			continue
		}
		loop := s2.LoopFromPoints(points)
		loop.Normalize()
		loops = append(loops, loop)
	}
	return s2.PolygonFromLoops(loops)
}

// Area returns the area in square meters.
func (g *Geography) Area() (float64, error) {
	regions, err := g.S2Regions()
	if err != nil {
		return 0, err
	}
	var area float64
	for _, r := range regions {
		switch r := r.(type) {
		case *s2.Polygon:
			area += r.Area()
		case *s2.Loop:
			area += r.Area()
		}
	}
	return area * EarthRadiusMeters * EarthRadiusMeters, nil
}

// Length returns the length of the linear parts in meters.
func (g *Geography) Length() (float64, error) {
	regions, err := g.S2Regions()
	if err != nil {
		return 0, err
	}
	var length float64
	for _, r := range regions {
		line, ok := r.(*s2.Polyline)
		if !ok {
			continue
		}
		for i := 0; i < line.NumEdges(); i++ {
			edge := line.Edge(i)
			length += s2.ChordAngleBetweenPoints(edge.V0, edge.V1).Angle().Radians()
		}
	}
	return length * EarthRadiusMeters, nil
}

// Bound returns the latitude/longitude bounding rectangle.
func (g *Geography) Bound() (s2.Rect, error) {
	regions, err := g.S2Regions()
	if err != nil {
		return s2.EmptyRect(), err
	}
	bound := s2.EmptyRect()
	for _, r := range regions {
		bound = bound.Union(r.RectBound())
	}
	return bound, nil
}

type geographyFactory struct {
	cs domain.CoordinateSystem
}

// CreatePoint takes latitude as x and longitude as y, matching the
// type-washed geography position.
func (f *geographyFactory) CreatePoint(isEmpty bool, lat, lon float64, z, m domain.Ordinate) (*Geography, error) {
	p := newPoint(isEmpty, lon, lat, z, m)
	p.SetSRID(f.cs.EPSGID)
	return NewGeography(p, f.cs), nil
}

func (f *geographyFactory) CreateShapeInstance(t domain.SpatialType, children []*Geography) (*Geography, error) {
	if t == domain.FullGlobe {
		return NewFullGlobe(f.cs), nil
	}
	shapes := make([]geom.T, 0, len(children))
	for _, c := range children {
		if c.fullGlobe {
			return nil, domain.NewFormatError(domain.KindFullGlobeInCollection,
				"a full globe cannot be nested inside another shape")
		}
		shapes = append(shapes, c.shape)
	}
	shape, err := assemble(t, shapes)
	if err != nil {
		return nil, err
	}
	SetSRID(shape, f.cs.EPSGID)
	return NewGeography(shape, f.cs), nil
}

// GeographyBuilder builds Geography values from geography pipeline calls.
type GeographyBuilder struct {
	tree    *TreeBuilder[*Geography]
	factory *geographyFactory
}

var _ pipeline.GeographyPipeline = (*GeographyBuilder)(nil)

// NewGeographyBuilder creates a geography builder.
func NewGeographyBuilder(opts ...Option[*Geography]) *GeographyBuilder {
	f := &geographyFactory{cs: domain.Geography(nil)}
	return &GeographyBuilder{
		tree:    NewTreeBuilder[*Geography](f, opts...),
		factory: f,
	}
}

// SetCoordinateSystem sets the coordinate system of the shapes that follow.
func (b *GeographyBuilder) SetCoordinateSystem(cs domain.CoordinateSystem) error {
	b.factory.cs = cs
	return nil
}

// BeginGeography starts a shape.
func (b *GeographyBuilder) BeginGeography(t domain.SpatialType) error {
	return b.tree.BeginGeo(t)
}

// BeginFigure starts a figure.
func (b *GeographyBuilder) BeginFigure(p domain.GeographyPosition) error {
	return b.tree.BeginFigure(p.Latitude, p.Longitude, p.Z, p.M)
}

// LineTo adds a position to the figure.
func (b *GeographyBuilder) LineTo(p domain.GeographyPosition) error {
	return b.tree.LineTo(p.Latitude, p.Longitude, p.Z, p.M)
}

// EndFigure closes the figure.
func (b *GeographyBuilder) EndFigure() error {
	return b.tree.EndFigure()
}

// EndGeography closes the shape.
func (b *GeographyBuilder) EndGeography() error {
	return b.tree.EndGeo()
}

// Reset discards any partial shape.
func (b *GeographyBuilder) Reset() {
	b.tree.Reset()
	b.factory.cs = domain.Geography(nil)
}

// ConstructedInstance returns the last completed shape.
func (b *GeographyBuilder) ConstructedInstance() (*Geography, error) {
	return b.tree.ConstructedInstance()
}
