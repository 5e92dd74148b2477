package validator

import (
	"strings"

	"github.com/jobrunner/geopipe/internal/domain"
)

// state is a position in the construction grammar.
type state uint8

const (
	stateCoordinateSystem state = iota
	stateBeginGeo
	statePointStart
	statePointBuilding
	statePointEnd
	stateLineStringStart
	stateLineStringBuilding
	stateLineStringEnd
	statePolygonStart
	statePolygonBuilding
	stateMultiPoint
	stateMultiLineString
	stateMultiPolygon
	stateCollection
	stateFullGlobe
)

var stateNames = [...]string{
	stateCoordinateSystem:   "CoordinateSystem",
	stateBeginGeo:           "BeginGeo",
	statePointStart:         "PointStart",
	statePointBuilding:      "PointBuilding",
	statePointEnd:           "PointEnd",
	stateLineStringStart:    "LineStringStart",
	stateLineStringBuilding: "LineStringBuilding",
	stateLineStringEnd:      "LineStringEnd",
	statePolygonStart:       "PolygonStart",
	statePolygonBuilding:    "PolygonBuilding",
	stateMultiPoint:         "MultiPoint",
	stateMultiLineString:    "MultiLineString",
	stateMultiPolygon:       "MultiPolygon",
	stateCollection:         "Collection",
	stateFullGlobe:          "FullGlobe",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Invalid"
}

// callKind is a pipeline call as seen by the grammar. Begin calls are split
// by shape type.
type callKind uint8

const (
	callSetCoordinateSystem callKind = iota
	callBeginPoint
	callBeginLineString
	callBeginPolygon
	callBeginMultiPoint
	callBeginMultiLineString
	callBeginMultiPolygon
	callBeginCollection
	callBeginFullGlobe
	callBeginFigure
	callLineTo
	callEndFigure
	callEnd
)

var callNames = [...]string{
	callSetCoordinateSystem:  "SetCoordinateSystem",
	callBeginPoint:           "BeginPoint",
	callBeginLineString:      "BeginLineString",
	callBeginPolygon:         "BeginPolygon",
	callBeginMultiPoint:      "BeginMultiPoint",
	callBeginMultiLineString: "BeginMultiLineString",
	callBeginMultiPolygon:    "BeginMultiPolygon",
	callBeginCollection:      "BeginCollection",
	callBeginFullGlobe:       "BeginFullGlobe",
	callBeginFigure:          "BeginFigure",
	callLineTo:               "LineTo",
	callEndFigure:            "EndFigure",
	callEnd:                  "End",
}

func (c callKind) String() string {
	if int(c) < len(callNames) {
		return callNames[c]
	}
	return "Invalid"
}

func (c callKind) isBegin() bool {
	return c >= callBeginPoint && c <= callBeginFullGlobe
}

// beginCall maps a shape type to its Begin call.
func beginCall(t domain.SpatialType) (callKind, bool) {
	switch t {
	case domain.Point:
		return callBeginPoint, true
	case domain.LineString:
		return callBeginLineString, true
	case domain.Polygon:
		return callBeginPolygon, true
	case domain.MultiPoint:
		return callBeginMultiPoint, true
	case domain.MultiLineString:
		return callBeginMultiLineString, true
	case domain.MultiPolygon:
		return callBeginMultiPolygon, true
	case domain.Collection:
		return callBeginCollection, true
	case domain.FullGlobe:
		return callBeginFullGlobe, true
	default:
		return 0, false
	}
}

// startState is the state a shape begins in.
var startState = map[callKind]state{
	callBeginPoint:           statePointStart,
	callBeginLineString:      stateLineStringStart,
	callBeginPolygon:         statePolygonStart,
	callBeginMultiPoint:      stateMultiPoint,
	callBeginMultiLineString: stateMultiLineString,
	callBeginMultiPolygon:    stateMultiPolygon,
	callBeginCollection:      stateCollection,
	callBeginFullGlobe:       stateFullGlobe,
}

type actionKind uint8

const (
	// actionStay keeps the current state.
	actionStay actionKind = iota
	// actionJump replaces the top of the stack.
	actionJump
	// actionCall pushes a nested state.
	actionCall
	// actionReturn pops the top of the stack.
	actionReturn
)

type action struct {
	kind   actionKind
	target state
}

func stay() action             { return action{kind: actionStay} }
func jump(target state) action { return action{kind: actionJump, target: target} }
func call(target state) action { return action{kind: actionCall, target: target} }
func returnFromState() action  { return action{kind: actionReturn} }

// transition returns the action for call c in state s. depth is the shape
// nesting depth including a shape begun by c. Figure level checks such as
// ring closure are not part of the grammar and are done by the caller.
func transition(s state, c callKind, depth int) (action, error) {
	switch s {
	case stateCoordinateSystem:
		if c == callSetCoordinateSystem {
			return call(stateBeginGeo), nil
		}
		return action{}, unexpected(c, "SetCoordinateSystem")

	case stateBeginGeo:
		if c == callBeginFullGlobe && depth != 1 {
			return action{}, fullGlobeInCollection()
		}
		if c.isBegin() {
			return jump(startState[c]), nil
		}
		return action{}, unexpected(c, "Begin")

	case statePointStart:
		switch c {
		case callBeginFigure:
			return jump(statePointBuilding), nil
		case callEnd:
			return returnFromState(), nil
		}
		return action{}, unexpected(c, "BeginFigure", "End")

	case statePointBuilding:
		if c == callEndFigure {
			return jump(statePointEnd), nil
		}
		return action{}, unexpected(c, "EndFigure")

	case statePointEnd, stateLineStringEnd:
		if c == callEnd {
			return returnFromState(), nil
		}
		return action{}, unexpected(c, "End")

	case stateLineStringStart:
		switch c {
		case callBeginFigure:
			return jump(stateLineStringBuilding), nil
		case callEnd:
			return returnFromState(), nil
		}
		return action{}, unexpected(c, "BeginFigure", "End")

	case stateLineStringBuilding:
		switch c {
		case callLineTo:
			return stay(), nil
		case callEndFigure:
			return jump(stateLineStringEnd), nil
		}
		return action{}, unexpected(c, "LineTo", "EndFigure")

	case statePolygonStart:
		switch c {
		case callBeginFigure:
			return jump(statePolygonBuilding), nil
		case callEnd:
			return returnFromState(), nil
		}
		return action{}, unexpected(c, "BeginFigure", "End")

	case statePolygonBuilding:
		switch c {
		case callLineTo:
			return stay(), nil
		case callEndFigure:
			return jump(statePolygonStart), nil
		}
		return action{}, unexpected(c, "LineTo", "EndFigure")

	case stateMultiPoint:
		return multi(c, callBeginPoint)

	case stateMultiLineString:
		return multi(c, callBeginLineString)

	case stateMultiPolygon:
		return multi(c, callBeginPolygon)

	case stateCollection:
		switch {
		case c == callSetCoordinateSystem:
			return stay(), nil
		case c == callBeginFullGlobe:
			return action{}, fullGlobeInCollection()
		case c.isBegin():
			return call(startState[c]), nil
		case c == callEnd:
			return returnFromState(), nil
		}
		return action{}, unexpected(c, "SetCoordinateSystem", "Begin", "End")

	case stateFullGlobe:
		if c == callEnd {
			return returnFromState(), nil
		}
		return action{}, domain.NewFormatError(domain.KindFullGlobeHasElements,
			"a full globe cannot contain figures or shapes, got call to %s", c)
	}

	return action{}, domain.NewFormatError(domain.KindUnexpectedCall, "no transitions from state %s", s)
}

// multi is the shared transition of the homogeneous containers.
func multi(c, member callKind) (action, error) {
	switch c {
	case callSetCoordinateSystem:
		return stay(), nil
	case member:
		return call(startState[member]), nil
	case callEnd:
		return returnFromState(), nil
	}
	return action{}, unexpected(c, "SetCoordinateSystem", member.String(), "End")
}

func unexpected(got callKind, expected ...string) error {
	var want string
	switch len(expected) {
	case 1:
		want = expected[0]
	case 2:
		want = expected[0] + " or " + expected[1]
	default:
		want = strings.Join(expected[:len(expected)-1], ", ") + " or " + expected[len(expected)-1]
	}
	return domain.NewFormatError(domain.KindUnexpectedCall, "expected call to %s but got call to %s", want, got)
}

func fullGlobeInCollection() error {
	return domain.NewFormatError(domain.KindFullGlobeInCollection,
		"a full globe cannot be nested inside another shape")
}
