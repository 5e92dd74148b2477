package domain

import "strings"

// SpatialType identifies the kind of shape being constructed.
type SpatialType int

// Spatial type constants.
const (
	Unknown SpatialType = iota
	Point
	LineString
	Polygon
	MultiPoint
	MultiLineString
	MultiPolygon
	Collection
	FullGlobe
)

var spatialTypeNames = [...]string{
	Unknown:         "Unknown",
	Point:           "Point",
	LineString:      "LineString",
	Polygon:         "Polygon",
	MultiPoint:      "MultiPoint",
	MultiLineString: "MultiLineString",
	MultiPolygon:    "MultiPolygon",
	Collection:      "Collection",
	FullGlobe:       "FullGlobe",
}

// String returns the name of the spatial type.
func (t SpatialType) String() string {
	if t < 0 || int(t) >= len(spatialTypeNames) {
		return "Unknown"
	}
	return spatialTypeNames[t]
}

// IsMulti returns true for the homogeneous multi-shape containers.
func (t SpatialType) IsMulti() bool {
	return t == MultiPoint || t == MultiLineString || t == MultiPolygon
}

// IsContainer returns true if shapes of this type are built from nested shapes.
func (t SpatialType) IsContainer() bool {
	return t.IsMulti() || t == Collection
}

// ParseSpatialType parses a spatial type name. Matching is case-insensitive
// and accepts the OGC spellings used by WKT and GeoJSON.
func ParseSpatialType(s string) (SpatialType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point":
		return Point, true
	case "linestring":
		return LineString, true
	case "polygon":
		return Polygon, true
	case "multipoint":
		return MultiPoint, true
	case "multilinestring":
		return MultiLineString, true
	case "multipolygon":
		return MultiPolygon, true
	case "collection", "geometrycollection":
		return Collection, true
	case "fullglobe":
		return FullGlobe, true
	}
	return Unknown, false
}
