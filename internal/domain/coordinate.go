// Package domain contains the core entities and value objects.
package domain

import "fmt"

// Topology distinguishes the two spatial type systems.
type Topology int

// Topology constants.
const (
	TopologyGeography Topology = iota
	TopologyGeometry
)

// String returns the topology name.
func (t Topology) String() string {
	if t == TopologyGeometry {
		return "geometry"
	}
	return "geography"
}

// Common SRID constants.
const (
	SRIDUnknown      = 0     // Unspecified planar system
	SRIDWGS84        = 4326  // WGS 84
	SRIDWebMercator  = 3857  // Web Mercator
	SRIDETRS89UTM32N = 25832 // ETRS89 / UTM zone 32N
	SRIDETRS89UTM33N = 25833 // ETRS89 / UTM zone 33N
)

// DefaultGeographySRID is used when a geography coordinate system has no id.
const DefaultGeographySRID = SRIDWGS84

// DefaultGeometrySRID is used when a geometry coordinate system has no id.
const DefaultGeometrySRID = SRIDUnknown

// CommonProjections names frequently used coordinate systems.
var CommonProjections = map[int]string{
	SRIDUnknown:      "Unknown",
	SRIDWGS84:        "WGS 84",
	SRIDWebMercator:  "Web Mercator",
	SRIDETRS89UTM32N: "ETRS89 / UTM zone 32N",
	SRIDETRS89UTM33N: "ETRS89 / UTM zone 33N",
}

// CoordinateSystem identifies the coordinate reference system of a shape.
// Values are comparable with ==.
type CoordinateSystem struct {
	EPSGID   int
	Topology Topology
}

// Geography returns the geography coordinate system for the EPSG id.
// A nil id resolves to WGS 84.
func Geography(epsgID *int) CoordinateSystem {
	if epsgID == nil {
		return CoordinateSystem{EPSGID: DefaultGeographySRID, Topology: TopologyGeography}
	}
	return CoordinateSystem{EPSGID: *epsgID, Topology: TopologyGeography}
}

// Geometry returns the geometry coordinate system for the EPSG id.
// A nil id resolves to the unspecified planar system.
func Geometry(epsgID *int) CoordinateSystem {
	if epsgID == nil {
		return CoordinateSystem{EPSGID: DefaultGeometrySRID, Topology: TopologyGeometry}
	}
	return CoordinateSystem{EPSGID: *epsgID, Topology: TopologyGeometry}
}

// SRID returns a pointer to id, for use with Geography and Geometry.
func SRID(id int) *int {
	return &id
}

// Name returns a human-readable name, or an empty string if unknown.
func (c CoordinateSystem) Name() string {
	return CommonProjections[c.EPSGID]
}

// IsKnown returns true if the EPSG id is in the common projections table.
func (c CoordinateSystem) IsKnown() bool {
	_, ok := CommonProjections[c.EPSGID]
	return ok
}

// String returns a string representation of the coordinate system.
func (c CoordinateSystem) String() string {
	return fmt.Sprintf("%s(SRID=%d)", c.Topology, c.EPSGID)
}
