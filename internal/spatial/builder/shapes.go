package builder

import (
	"github.com/cockroachdb/errors"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/twpayne/go-geom"
)

// SpatialTypeOf returns the spatial type of a go-geom value.
func SpatialTypeOf(t geom.T) domain.SpatialType {
	switch t.(type) {
	case *geom.Point:
		return domain.Point
	case *geom.LineString:
		return domain.LineString
	case *geom.Polygon:
		return domain.Polygon
	case *geom.MultiPoint:
		return domain.MultiPoint
	case *geom.MultiLineString:
		return domain.MultiLineString
	case *geom.MultiPolygon:
		return domain.MultiPolygon
	case *geom.GeometryCollection:
		return domain.Collection
	default:
		return domain.Unknown
	}
}

// newPoint creates a point from two coordinates in storage order.
func newPoint(isEmpty bool, c1, c2 float64, z, m domain.Ordinate) *geom.Point {
	if isEmpty {
		return geom.NewPointEmpty(geom.XY)
	}
	layout := layoutOf(z, m)
	flat := make([]float64, 0, layout.Stride())
	flat = append(flat, c1, c2)
	if z.Valid {
		flat = append(flat, z.Value)
	}
	if m.Valid {
		flat = append(flat, m.Value)
	}
	return geom.NewPointFlat(layout, flat)
}

// assemble builds a shape of type t from closed children. The children of
// a shape other than a collection must share one layout.
func assemble(t domain.SpatialType, children []geom.T) (geom.T, error) {
	if t == domain.Collection {
		gc := geom.NewGeometryCollection()
		if err := gc.Push(children...); err != nil {
			return nil, errors.Wrap(err, "building collection")
		}
		return gc, nil
	}

	layout, err := sharedLayout(t, children)
	if err != nil {
		return nil, err
	}

	switch t {
	case domain.LineString:
		var flat []float64
		for _, c := range children {
			p, ok := c.(*geom.Point)
			if !ok {
				return nil, unexpectedChild(t, c)
			}
			flat = append(flat, p.FlatCoords()...)
		}
		return geom.NewLineStringFlat(layout, flat), nil

	case domain.Polygon:
		var flat []float64
		ends := make([]int, 0, len(children))
		for _, c := range children {
			switch c.(type) {
			case *geom.LineString, *geom.Point:
			default:
				return nil, unexpectedChild(t, c)
			}
			flat = append(flat, c.FlatCoords()...)
			ends = append(ends, len(flat))
		}
		return geom.NewPolygonFlat(layout, flat, ends), nil

	case domain.MultiPoint:
		mp := geom.NewMultiPoint(layout)
		for _, c := range children {
			p, ok := c.(*geom.Point)
			if !ok {
				return nil, unexpectedChild(t, c)
			}
			if err := mp.Push(withLayout(p, layout)); err != nil {
				return nil, errors.Wrap(err, "building multi point")
			}
		}
		return mp, nil

	case domain.MultiLineString:
		mls := geom.NewMultiLineString(layout)
		for _, c := range children {
			switch c.(type) {
			case *geom.LineString, *geom.Point:
			default:
				return nil, unexpectedChild(t, c)
			}
			if err := mls.Push(geom.NewLineStringFlat(layout, c.FlatCoords())); err != nil {
				return nil, errors.Wrap(err, "building multi line string")
			}
		}
		return mls, nil

	case domain.MultiPolygon:
		mp := geom.NewMultiPolygon(layout)
		for _, c := range children {
			p, ok := c.(*geom.Polygon)
			if !ok {
				return nil, unexpectedChild(t, c)
			}
			if p.Layout() != layout {
				p = geom.NewPolygonFlat(layout, p.FlatCoords(), p.Ends())
			}
			if err := mp.Push(p); err != nil {
				return nil, errors.Wrap(err, "building multi polygon")
			}
		}
		return mp, nil
	}

	return nil, domain.NewFormatError(domain.KindInvalidType, "cannot build a %s shape", t)
}

func unexpectedChild(t domain.SpatialType, child geom.T) error {
	return errors.Mark(
		errors.Newf("a %s cannot contain a %s", t, SpatialTypeOf(child)),
		domain.ErrInvalidInput,
	)
}

// SetSRID sets the SRID of a go-geom value.
func SetSRID(t geom.T, srid int) {
	switch t := t.(type) {
	case *geom.Point:
		t.SetSRID(srid)
	case *geom.LineString:
		t.SetSRID(srid)
	case *geom.Polygon:
		t.SetSRID(srid)
	case *geom.MultiPoint:
		t.SetSRID(srid)
	case *geom.MultiLineString:
		t.SetSRID(srid)
	case *geom.MultiPolygon:
		t.SetSRID(srid)
	case *geom.GeometryCollection:
		t.SetSRID(srid)
	}
}
