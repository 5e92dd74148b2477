// Package validator checks that a pipeline call stream forms valid shapes.
//
// The validator is a pipeline stage. It accepts or rejects every call and
// forwards nothing itself; chain it in front of the stages that should only
// ever see valid input:
//
//	head := validator.New()
//	head.ChainTo(pipeline.NewSegment(builder))
//
// Rejected calls return a *domain.FormatError whose Kind names the rule that
// was broken.
package validator

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
)

// MaxNestingDepth is the deepest shape nesting the validator accepts.
const MaxNestingDepth = 28

// Geography coordinate limits in degrees.
const (
	MaxLatitude  = 90.0
	MaxLongitude = 15069.0
)

// New returns a validator wrapped in a chain segment.
func New() *pipeline.Segment {
	return pipeline.NewSegment(NewValidator())
}

// Validator is the grammar state machine shared by the geography and
// geometry facets. It is not safe for concurrent use.
type Validator struct {
	stack []state
	depth int

	processingGeography bool
	cs                  domain.CoordinateSystem
	csSet               bool

	pointCount int
	first      [2]float64
	last       [2]float64
}

// NewValidator returns a validator in its initial state.
func NewValidator() *Validator {
	v := &Validator{stack: make([]state, 0, 8)}
	v.reset()
	return v
}

// GeographyPipeline returns the geography facet.
func (v *Validator) GeographyPipeline() pipeline.GeographyPipeline {
	return geography{v}
}

// GeometryPipeline returns the geometry facet.
func (v *Validator) GeometryPipeline() pipeline.GeometryPipeline {
	return geometry{v}
}

func (v *Validator) reset() {
	v.stack = append(v.stack[:0], stateCoordinateSystem)
	v.depth = 0
	v.processingGeography = false
	v.cs = domain.CoordinateSystem{}
	v.csSet = false
	v.pointCount = 0
	v.first = [2]float64{}
	v.last = [2]float64{}
}

func (v *Validator) top() state {
	return v.stack[len(v.stack)-1]
}

// execute applies the transition for c to the state stack.
func (v *Validator) execute(c callKind) error {
	act, err := transition(v.top(), c, v.depth)
	if err != nil {
		return err
	}

	switch act.kind {
	case actionStay:
	case actionJump:
		v.stack[len(v.stack)-1] = act.target
	case actionCall:
		if len(v.stack) > MaxNestingDepth {
			return domain.NewFormatError(domain.KindNestingOverflow,
				"shapes cannot be nested more than %d levels deep", MaxNestingDepth)
		}
		v.stack = append(v.stack, act.target)
	case actionReturn:
		v.stack = v.stack[:len(v.stack)-1]
	default:
		return errors.AssertionFailedf("unknown validator action %d", act.kind)
	}
	return nil
}

func (v *Validator) setCoordinateSystem(cs domain.CoordinateSystem) error {
	if err := v.execute(callSetCoordinateSystem); err != nil {
		return err
	}
	if !v.csSet {
		v.cs = cs
		v.csSet = true
		return nil
	}
	if cs != v.cs {
		return domain.NewFormatError(domain.KindCoordinateSystemMismatch,
			"coordinate system %s does not match %s set earlier in the document", cs, v.cs)
	}
	return nil
}

func (v *Validator) beginShape(t domain.SpatialType, isGeography bool) error {
	if v.depth > 0 && v.processingGeography != isGeography {
		if isGeography {
			return domain.NewFormatError(domain.KindUnexpectedGeography,
				"cannot begin a geography %s while building a geometry", t)
		}
		return domain.NewFormatError(domain.KindUnexpectedGeometry,
			"cannot begin a geometry %s while building a geography", t)
	}
	v.processingGeography = isGeography

	c, ok := beginCall(t)
	if !ok || (!isGeography && t == domain.FullGlobe) {
		return domain.NewFormatError(domain.KindInvalidType, "%s is not a valid %s type", t, topology(isGeography))
	}

	v.depth++
	return v.execute(c)
}

func (v *Validator) endShape() error {
	if err := v.execute(callEnd); err != nil {
		return err
	}
	v.depth--
	if v.depth == 0 {
		v.reset()
	}
	return nil
}

func (v *Validator) beginFigure(p domain.Position, isGeography bool) error {
	if err := validatePosition(p, isGeography); err != nil {
		return err
	}
	if err := v.execute(callBeginFigure); err != nil {
		return err
	}
	v.pointCount = 0
	v.track(p)
	return nil
}

func (v *Validator) lineTo(p domain.Position, isGeography bool) error {
	if err := validatePosition(p, isGeography); err != nil {
		return err
	}
	if err := v.execute(callLineTo); err != nil {
		return err
	}
	v.track(p)
	return nil
}

func (v *Validator) endFigure(isGeography bool) error {
	switch v.top() {
	case stateLineStringBuilding:
		if v.pointCount < 2 {
			return domain.NewFormatError(domain.KindLineStringTooShort,
				"a line string needs at least two positions, got %d", v.pointCount)
		}
	case statePolygonBuilding:
		if !v.ringClosed(isGeography) {
			return domain.NewFormatError(domain.KindPolygonNotClosed,
				"a polygon ring needs at least four positions and must end where it starts")
		}
	}
	return v.execute(callEndFigure)
}

func (v *Validator) track(p domain.Position) {
	if v.pointCount == 0 {
		v.first = [2]float64{p.Coordinate1, p.Coordinate2}
	}
	v.last = [2]float64{p.Coordinate1, p.Coordinate2}
	v.pointCount++
}

func (v *Validator) ringClosed(isGeography bool) bool {
	if v.pointCount < 4 || v.first[0] != v.last[0] {
		return false
	}
	if isGeography {
		return longitudesEqual(v.first[1], v.last[1])
	}
	return v.first[1] == v.last[1]
}

// longitudesEqual treats longitudes a whole number of turns apart as equal.
// Other windings are not normalized.
func longitudesEqual(left, right float64) bool {
	return left == right || math.Mod(left-right, 360) == 0
}

func validatePosition(p domain.Position, isGeography bool) error {
	if !p.IsFinite() {
		return domain.NewFormatError(domain.KindInvalidCoordinate,
			"position %s contains a NaN or infinite value", p)
	}
	if !isGeography {
		return nil
	}
	if math.Abs(p.Coordinate1) > MaxLatitude {
		return domain.NewFormatError(domain.KindInvalidLatitude,
			"latitude %g is outside the range [-%g, %g]", p.Coordinate1, MaxLatitude, MaxLatitude)
	}
	if math.Abs(p.Coordinate2) > MaxLongitude {
		return domain.NewFormatError(domain.KindInvalidLongitude,
			"longitude %g is outside the range [-%g, %g]", p.Coordinate2, MaxLongitude, MaxLongitude)
	}
	return nil
}

func topology(isGeography bool) domain.Topology {
	if isGeography {
		return domain.TopologyGeography
	}
	return domain.TopologyGeometry
}

type geography struct{ v *Validator }

func (g geography) SetCoordinateSystem(cs domain.CoordinateSystem) error {
	return g.v.setCoordinateSystem(cs)
}

func (g geography) BeginGeography(t domain.SpatialType) error {
	return g.v.beginShape(t, true)
}

func (g geography) BeginFigure(p domain.GeographyPosition) error {
	return g.v.beginFigure(p.Position(), true)
}

func (g geography) LineTo(p domain.GeographyPosition) error {
	return g.v.lineTo(p.Position(), true)
}

func (g geography) EndFigure() error    { return g.v.endFigure(true) }
func (g geography) EndGeography() error { return g.v.endShape() }
func (g geography) Reset()              { g.v.reset() }

type geometry struct{ v *Validator }

func (g geometry) SetCoordinateSystem(cs domain.CoordinateSystem) error {
	return g.v.setCoordinateSystem(cs)
}

func (g geometry) BeginGeometry(t domain.SpatialType) error {
	return g.v.beginShape(t, false)
}

func (g geometry) BeginFigure(p domain.GeometryPosition) error {
	return g.v.beginFigure(p.Position(), false)
}

func (g geometry) LineTo(p domain.GeometryPosition) error {
	return g.v.lineTo(p.Position(), false)
}

func (g geometry) EndFigure() error   { return g.v.endFigure(false) }
func (g geometry) EndGeometry() error { return g.v.endShape() }
func (g geometry) Reset()             { g.v.reset() }
