package builder

import (
	"math"
	"testing"

	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestGeometryBuilderPolygon(t *testing.T) {
	var produced []geom.T
	b := NewGeometryBuilder(WithProduced(func(g geom.T) { produced = append(produced, g) }))

	require.NoError(t, b.SetCoordinateSystem(domain.Geometry(domain.SRID(25832))))
	require.NoError(t, b.BeginGeometry(domain.Polygon))
	require.NoError(t, b.BeginFigure(domain.NewGeometryPosition(0, 0)))
	for _, p := range [][2]float64{{0, 10}, {10, 10}, {10, 0}, {0, 0}} {
		require.NoError(t, b.LineTo(domain.NewGeometryPosition(p[0], p[1])))
	}
	require.NoError(t, b.EndFigure())
	require.NoError(t, b.EndGeometry())

	require.Len(t, produced, 1)
	got, err := b.ConstructedInstance()
	require.NoError(t, err)

	poly, ok := got.(*geom.Polygon)
	require.True(t, ok)
	require.Equal(t, 25832, poly.SRID())
	require.Equal(t, geom.XY, poly.Layout())
	require.Equal(t, 1, poly.NumLinearRings())
	require.Equal(t, []float64{0, 0, 0, 10, 10, 10, 10, 0, 0, 0}, poly.FlatCoords())
	require.Equal(t, 100.0, poly.Area())
}

func TestGeometryBuilderShapes(t *testing.T) {
	b := NewGeometryBuilder()

	require.NoError(t, b.SetCoordinateSystem(domain.Geometry(nil)))
	require.NoError(t, b.BeginGeometry(domain.MultiLineString))
	require.NoError(t, b.BeginGeometry(domain.LineString))
	require.NoError(t, b.BeginFigure(domain.GeometryPosition{X: 0, Y: 0, Z: domain.Some(4)}))
	require.NoError(t, b.LineTo(domain.GeometryPosition{X: 1, Y: 1, Z: domain.Some(5)}))
	require.NoError(t, b.EndFigure())
	require.NoError(t, b.EndGeometry())
	require.NoError(t, b.BeginGeometry(domain.LineString))
	require.NoError(t, b.EndGeometry())
	require.NoError(t, b.EndGeometry())

	got, err := b.ConstructedInstance()
	require.NoError(t, err)
	mls, ok := got.(*geom.MultiLineString)
	require.True(t, ok)
	require.Equal(t, geom.XYZ, mls.Layout())
	require.Equal(t, 2, mls.NumLineStrings())
	require.Equal(t, []float64{0, 0, 4, 1, 1, 5}, mls.LineString(0).FlatCoords())
	require.Empty(t, mls.LineString(1).FlatCoords())
}

func TestGeometryBuilderRejectsMixedDimensions(t *testing.T) {
	withZ := domain.GeometryPosition{X: 1, Y: 1, Z: domain.Some(5)}
	withM := domain.GeometryPosition{X: 1, Y: 1, M: domain.Some(2)}
	plain := domain.NewGeometryPosition(2, 2)

	t.Run("within a figure", func(t *testing.T) {
		for _, second := range []domain.GeometryPosition{plain, withM} {
			b := NewGeometryBuilder()
			require.NoError(t, b.BeginGeometry(domain.LineString))
			require.NoError(t, b.BeginFigure(withZ))
			require.NoError(t, b.LineTo(second))
			require.ErrorIs(t, b.EndFigure(), domain.ErrMixedDimensions)
		}
	})

	t.Run("across children", func(t *testing.T) {
		b := NewGeometryBuilder()
		require.NoError(t, b.BeginGeometry(domain.MultiPoint))
		require.NoError(t, b.BeginGeometry(domain.Point))
		require.NoError(t, b.BeginFigure(withZ))
		require.NoError(t, b.EndFigure())
		require.NoError(t, b.EndGeometry())
		require.NoError(t, b.BeginGeometry(domain.Point))
		require.NoError(t, b.BeginFigure(plain))
		require.NoError(t, b.EndFigure())
		require.NoError(t, b.EndGeometry())

		err := b.EndGeometry()
		require.ErrorIs(t, err, domain.ErrMixedDimensions)
		var fe *domain.FormatError
		require.ErrorAs(t, err, &fe)
		require.Equal(t, domain.KindMixedDimensions, fe.Kind)
	})

	t.Run("empty children take the shared layout", func(t *testing.T) {
		b := NewGeometryBuilder()
		require.NoError(t, b.BeginGeometry(domain.MultiPoint))
		require.NoError(t, b.BeginGeometry(domain.Point))
		require.NoError(t, b.EndGeometry())
		require.NoError(t, b.BeginGeometry(domain.Point))
		require.NoError(t, b.BeginFigure(withM))
		require.NoError(t, b.EndFigure())
		require.NoError(t, b.EndGeometry())
		require.NoError(t, b.EndGeometry())

		got, err := b.ConstructedInstance()
		require.NoError(t, err)
		require.Equal(t, geom.XYM, got.Layout())
	})
}

func TestGeometryBuilderEmptyShapes(t *testing.T) {
	tests := []struct {
		typ  domain.SpatialType
		want domain.SpatialType
	}{
		{domain.Point, domain.Point},
		{domain.LineString, domain.LineString},
		{domain.Polygon, domain.Polygon},
		{domain.MultiPoint, domain.MultiPoint},
		{domain.MultiPolygon, domain.MultiPolygon},
		{domain.Collection, domain.Collection},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			b := NewGeometryBuilder()
			require.NoError(t, b.BeginGeometry(tt.typ))
			require.NoError(t, b.EndGeometry())

			got, err := b.ConstructedInstance()
			require.NoError(t, err)
			require.Equal(t, tt.want, SpatialTypeOf(got))
			require.True(t, isEmpty(got))
		})
	}
}

func TestGeometryBuilderRejectsFullGlobe(t *testing.T) {
	b := NewGeometryBuilder()
	require.NoError(t, b.BeginGeometry(domain.FullGlobe))
	require.ErrorIs(t, b.EndGeometry(), domain.ErrInvalidType)
}

func TestGeographyBuilderAxisOrder(t *testing.T) {
	b := NewGeographyBuilder()
	require.NoError(t, b.SetCoordinateSystem(domain.Geography(nil)))
	require.NoError(t, b.BeginGeography(domain.Point))
	require.NoError(t, b.BeginFigure(domain.GeographyPosition{
		Latitude: 52.52, Longitude: 13.405, Z: domain.Some(34), M: domain.Some(1),
	}))
	require.NoError(t, b.EndFigure())
	require.NoError(t, b.EndGeography())

	got, err := b.ConstructedInstance()
	require.NoError(t, err)
	require.Equal(t, domain.Point, got.Type())
	require.Equal(t, domain.Geography(nil), got.CoordinateSystem())
	require.Equal(t, geom.XYZM, got.Geom().Layout())
	require.Equal(t, []float64{13.405, 52.52, 34, 1}, got.Geom().FlatCoords())
	require.Equal(t, 4326, got.Geom().SRID())
}

func TestGeographyMeasures(t *testing.T) {
	square := NewGeography(
		geom.NewPolygonFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0}, []int{10}),
		domain.Geography(nil),
	)
	area, err := square.Area()
	require.NoError(t, err)
	require.InEpsilon(t, 1.2364e10, area, 0.01)

	length, err := square.Length()
	require.NoError(t, err)
	require.Zero(t, length)

	meridian := NewGeography(geom.NewLineStringFlat(geom.XY, []float64{0, 0, 0, 1}), domain.Geography(nil))
	length, err = meridian.Length()
	require.NoError(t, err)
	require.InEpsilon(t, EarthRadiusMeters*math.Pi/180, length, 1e-6)

	bound, err := meridian.Bound()
	require.NoError(t, err)
	require.InDelta(t, 1.0, bound.Hi().Lat.Degrees(), 1e-9)
	require.InDelta(t, 0.0, bound.Lo().Lat.Degrees(), 1e-9)
}

func TestGeographyFullGlobe(t *testing.T) {
	b := NewGeographyBuilder()
	require.NoError(t, b.SetCoordinateSystem(domain.Geography(nil)))
	require.NoError(t, b.BeginGeography(domain.FullGlobe))
	require.NoError(t, b.EndGeography())

	got, err := b.ConstructedInstance()
	require.NoError(t, err)
	require.True(t, got.IsFullGlobe())
	require.False(t, got.IsEmpty())
	require.Equal(t, domain.FullGlobe, got.Type())
	require.Nil(t, got.Geom())

	area, err := got.Area()
	require.NoError(t, err)
	require.InEpsilon(t, 4*math.Pi*EarthRadiusMeters*EarthRadiusMeters, area, 1e-9)
}

func TestGeographyIsEmpty(t *testing.T) {
	require.True(t, NewGeography(geom.NewPointEmpty(geom.XY), domain.Geography(nil)).IsEmpty())
	require.True(t, NewGeography(geom.NewGeometryCollection(), domain.Geography(nil)).IsEmpty())
	require.False(t, NewGeography(geom.NewPointFlat(geom.XY, []float64{1, 2}), domain.Geography(nil)).IsEmpty())
}
