package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Ordinate is an optional coordinate value such as Z or M.
type Ordinate struct {
	Value float64
	Valid bool
}

// Some returns a present ordinate.
func Some(v float64) Ordinate {
	return Ordinate{Value: v, Valid: true}
}

// None is the absent ordinate.
var None = Ordinate{}

// IsFinite returns true if the ordinate is absent or holds a finite value.
func (o Ordinate) IsFinite() bool {
	return !o.Valid || isFinite(o.Value)
}

// String returns the value, or "null" when absent.
func (o Ordinate) String() string {
	if !o.Valid {
		return "null"
	}
	return strconv.FormatFloat(o.Value, 'g', -1, 64)
}

// Position is the type-washed form of a position: two required coordinates
// and optional Z and M values. Its meaning depends on the coordinate kind:
// (latitude, longitude) for geography, (x, y) for geometry.
type Position struct {
	Coordinate1 float64
	Coordinate2 float64
	Z           Ordinate
	M           Ordinate
}

// IsFinite returns true if no value of the position is NaN or infinite.
func (p Position) IsFinite() bool {
	return isFinite(p.Coordinate1) && isFinite(p.Coordinate2) && p.Z.IsFinite() && p.M.IsFinite()
}

// String returns a string representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s)",
		strconv.FormatFloat(p.Coordinate1, 'g', -1, 64),
		strconv.FormatFloat(p.Coordinate2, 'g', -1, 64),
		p.Z, p.M)
}

// GeographyPosition is a position on the ellipsoid.
type GeographyPosition struct {
	Latitude  float64
	Longitude float64
	Z         Ordinate
	M         Ordinate
}

// NewGeographyPosition creates a two dimensional geography position.
func NewGeographyPosition(latitude, longitude float64) GeographyPosition {
	return GeographyPosition{Latitude: latitude, Longitude: longitude}
}

// Position returns the type-washed form (latitude, longitude, z, m).
func (p GeographyPosition) Position() Position {
	return Position{Coordinate1: p.Latitude, Coordinate2: p.Longitude, Z: p.Z, M: p.M}
}

// String returns a string representation of the position.
func (p GeographyPosition) String() string {
	return p.Position().String()
}

// GeometryPosition is a position on a plane.
type GeometryPosition struct {
	X float64
	Y float64
	Z Ordinate
	M Ordinate
}

// NewGeometryPosition creates a two dimensional geometry position.
func NewGeometryPosition(x, y float64) GeometryPosition {
	return GeometryPosition{X: x, Y: y}
}

// Position returns the type-washed form (x, y, z, m).
func (p GeometryPosition) Position() Position {
	return Position{Coordinate1: p.X, Coordinate2: p.Y, Z: p.Z, M: p.M}
}

// String returns a string representation of the position.
func (p GeometryPosition) String() string {
	return p.Position().String()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
