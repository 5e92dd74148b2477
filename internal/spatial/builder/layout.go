package builder

import (
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/twpayne/go-geom"
)

func layoutOf(z, m domain.Ordinate) geom.Layout {
	switch {
	case z.Valid && m.Valid:
		return geom.XYZM
	case z.Valid:
		return geom.XYZ
	case m.Valid:
		return geom.XYM
	default:
		return geom.XY
	}
}

// sharedLayout returns the layout of the non-empty children. Children whose
// layouts differ are rejected; ordinates are never padded or dropped.
func sharedLayout(t domain.SpatialType, children []geom.T) (geom.Layout, error) {
	layout := geom.NoLayout
	for _, c := range children {
		if isEmpty(c) {
			continue
		}
		switch {
		case layout == geom.NoLayout:
			layout = c.Layout()
		case c.Layout() != layout:
			return geom.NoLayout, domain.NewFormatError(domain.KindMixedDimensions,
				"a %s mixes %s and %s coordinates", t, layout, c.Layout())
		}
	}
	if layout == geom.NoLayout {
		return geom.XY, nil
	}
	return layout, nil
}

// withLayout returns an empty point in the given layout. Non-empty points
// already share it.
func withLayout(p *geom.Point, layout geom.Layout) *geom.Point {
	if p.Layout() == layout {
		return p
	}
	return geom.NewPointEmpty(layout)
}
