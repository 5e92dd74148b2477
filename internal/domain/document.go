package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Format identifies a document encoding.
type Format string

// Supported document formats.
const (
	FormatGeoJSON Format = "geojson"
	FormatWKT     Format = "wkt"
	FormatWKB     Format = "wkb"
	FormatWKBHex  Format = "wkbhex"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatGeoJSON, "json":
		return FormatGeoJSON, true
	case FormatWKT:
		return FormatWKT, true
	case FormatWKB:
		return FormatWKB, true
	case FormatWKBHex, "hex":
		return FormatWKBHex, true
	}
	return "", false
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return FormatGeoJSON, true
	case ".wkt":
		return FormatWKT, true
	case ".wkb":
		return FormatWKB, true
	case ".hex":
		return FormatWKBHex, true
	}
	return "", false
}

// IsDocumentPath returns true if the path has a recognised document extension.
func IsDocumentPath(path string) bool {
	_, ok := FormatFromPath(path)
	return ok
}

// DocumentID derives a document ID from a file path or object key.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentStatus represents the processing status of a document.
type DocumentStatus string

// Document statuses.
const (
	StatusPending DocumentStatus = "pending"
	StatusValid   DocumentStatus = "valid"
	StatusInvalid DocumentStatus = "invalid"
	StatusError   DocumentStatus = "error"
)

// Document represents a spatial document tracked by the catalog.
type Document struct {
	ID          string         // Unique identifier (derived from filename)
	Key         string         // Storage key
	Format      Format         // Encoding
	Topology    Topology       // Geography or geometry
	Size        int64          // Size in bytes
	Status      DocumentStatus // Processing status
	Shapes      []ShapeSummary // Built shapes
	Error       string         // Last error message
	ErrorKind   string         // Kind of the last format error, if any
	ProcessedAt time.Time      // Last processing timestamp
}

// IsValid returns true if the document passed validation.
func (d *Document) IsValid() bool {
	return d.Status == StatusValid
}

// ShapeCount returns the number of shapes built from the document.
func (d *Document) ShapeCount() int {
	return len(d.Shapes)
}

// ShapeSummary describes one top-level shape produced from a document.
type ShapeSummary struct {
	Type SpatialType
	SRID int
}

// ShapeRecord is a persisted shape.
type ShapeRecord struct {
	ID         int64       // Row ID
	DocumentID string      // Source document
	Type       SpatialType // Shape type
	Topology   Topology    // Geography or geometry
	SRID       int         // Spatial reference
	FullGlobe  bool        // Geography full globe (has no WKB)
	WKB        []byte      // Extended well-known binary
	CreatedAt  time.Time   // Insert timestamp
}

// ProcessRequest asks for a document to be run through the pipeline.
type ProcessRequest struct {
	DocumentID string   // Optional identifier
	Payload    []byte   // Encoded document
	Format     Format   // Input encoding
	Topology   Topology // Geography or geometry
	SRID       *int     // Coordinate system override; nil uses the document's
	Output     Format   // Output encoding for built shapes (empty = none)
	Persist    bool     // Store built shapes
}

// ProcessResult is the outcome of running a document through the pipeline.
type ProcessResult struct {
	DocumentID string
	Shapes     []ShapeSummary
	Encoded    [][]byte      // Built shapes in the requested output format
	Duration   time.Duration // Processing time
}
