// Package emit replays shapes into a pipeline. It is the reader side of the
// pipeline: decoded go-geom values and built geographies become the call
// stream a validator or builder consumes.
package emit

import (
	"github.com/cockroachdb/errors"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/builder"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
	"github.com/twpayne/go-geom"
)

// Emit drives p with the calls describing g. The coordinate system is srid
// when set, otherwise the SRID stored on g, with 0 meaning unspecified.
// Coordinates are passed in x, y order.
func Emit(p pipeline.TypeWashedPipeline, g geom.T, srid *int) error {
	if g == nil {
		return errors.AssertionFailedf("nil shape")
	}
	if srid == nil {
		if id := g.SRID(); id != 0 {
			srid = &id
		}
	}
	if err := p.SetCoordinateSystem(srid); err != nil {
		return err
	}
	return emitShape(p, g)
}

// EmitGeometry drives a geometry pipeline with g.
func EmitGeometry(p pipeline.GeometryPipeline, g geom.T) error {
	return Emit(pipeline.NewGeometryAdapter(p), g, nil)
}

// EmitGeography drives a geography pipeline with a built geography.
func EmitGeography(p pipeline.GeographyPipeline, g *builder.Geography) error {
	cs := g.CoordinateSystem()
	if g.IsFullGlobe() {
		if err := p.SetCoordinateSystem(cs); err != nil {
			return err
		}
		if err := p.BeginGeography(domain.FullGlobe); err != nil {
			return err
		}
		return p.EndGeography()
	}
	return Emit(pipeline.NewGeographyLongLatAdapter(p), g.Geom(), &cs.EPSGID)
}

func emitShape(p pipeline.TypeWashedPipeline, g geom.T) error {
	switch g := g.(type) {
	case *geom.Point:
		return shape(p, domain.Point, func() error {
			if g.Empty() {
				return nil
			}
			return figure(p, g.FlatCoords(), g.Layout())
		})

	case *geom.LineString:
		return shape(p, domain.LineString, func() error {
			return figure(p, g.FlatCoords(), g.Layout())
		})

	case *geom.Polygon:
		return shape(p, domain.Polygon, func() error {
			for i := 0; i < g.NumLinearRings(); i++ {
				if err := figure(p, g.LinearRing(i).FlatCoords(), g.Layout()); err != nil {
					return err
				}
			}
			return nil
		})

	case *geom.MultiPoint:
		return shape(p, domain.MultiPoint, func() error {
			for i := 0; i < g.NumPoints(); i++ {
				if err := emitShape(p, g.Point(i)); err != nil {
					return err
				}
			}
			return nil
		})

	case *geom.MultiLineString:
		return shape(p, domain.MultiLineString, func() error {
			for i := 0; i < g.NumLineStrings(); i++ {
				if err := emitShape(p, g.LineString(i)); err != nil {
					return err
				}
			}
			return nil
		})

	case *geom.MultiPolygon:
		return shape(p, domain.MultiPolygon, func() error {
			for i := 0; i < g.NumPolygons(); i++ {
				if err := emitShape(p, g.Polygon(i)); err != nil {
					return err
				}
			}
			return nil
		})

	case *geom.GeometryCollection:
		return shape(p, domain.Collection, func() error {
			for _, c := range g.Geoms() {
				if err := emitShape(p, c); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return domain.NewFormatError(domain.KindInvalidType, "unsupported shape %T", g)
}

func shape(p pipeline.TypeWashedPipeline, t domain.SpatialType, body func() error) error {
	if err := p.BeginGeo(t); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	return p.EndGeo()
}

// figure emits one figure from flat coordinates. An empty coordinate list
// emits nothing.
func figure(p pipeline.TypeWashedPipeline, flat []float64, layout geom.Layout) error {
	stride := layout.Stride()
	if len(flat) < stride {
		return nil
	}
	zi, mi := layout.ZIndex(), layout.MIndex()
	for i := 0; i+stride <= len(flat); i += stride {
		c := flat[i : i+stride]
		z, m := ordinate(c, zi), ordinate(c, mi)
		var err error
		if i == 0 {
			err = p.BeginFigure(c[0], c[1], z, m)
		} else {
			err = p.LineTo(c[0], c[1], z, m)
		}
		if err != nil {
			return err
		}
	}
	return p.EndFigure()
}

func ordinate(c []float64, i int) domain.Ordinate {
	if i < 0 {
		return domain.None
	}
	return domain.Some(c[i])
}
