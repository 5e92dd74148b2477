package domain

import "fmt"

// ErrorKind classifies a spatial format violation.
type ErrorKind int

// Error kinds raised by the pipeline validator.
const (
	KindUnexpectedCall ErrorKind = iota
	KindInvalidCoordinate
	KindInvalidLatitude
	KindInvalidLongitude
	KindPolygonNotClosed
	KindLineStringTooShort
	KindFullGlobeInCollection
	KindFullGlobeHasElements
	KindNestingOverflow
	KindCoordinateSystemMismatch
	KindUnexpectedGeography
	KindUnexpectedGeometry
	KindInvalidType
	KindMixedDimensions
)

// Per-kind sentinels. Each wraps ErrFormat.
var (
	ErrUnexpectedCall           = fmt.Errorf("unexpected call: %w", ErrFormat)
	ErrInvalidCoordinate        = fmt.Errorf("invalid coordinate: %w", ErrFormat)
	ErrInvalidLatitude          = fmt.Errorf("invalid latitude: %w", ErrFormat)
	ErrInvalidLongitude         = fmt.Errorf("invalid longitude: %w", ErrFormat)
	ErrPolygonNotClosed         = fmt.Errorf("polygon ring not closed: %w", ErrFormat)
	ErrLineStringTooShort       = fmt.Errorf("line string too short: %w", ErrFormat)
	ErrFullGlobeInCollection    = fmt.Errorf("full globe in collection: %w", ErrFormat)
	ErrFullGlobeHasElements     = fmt.Errorf("full globe has elements: %w", ErrFormat)
	ErrNestingOverflow          = fmt.Errorf("nesting overflow: %w", ErrFormat)
	ErrCoordinateSystemMismatch = fmt.Errorf("coordinate system mismatch: %w", ErrFormat)
	ErrUnexpectedGeography      = fmt.Errorf("unexpected geography: %w", ErrFormat)
	ErrUnexpectedGeometry       = fmt.Errorf("unexpected geometry: %w", ErrFormat)
	ErrInvalidType              = fmt.Errorf("invalid spatial type: %w", ErrFormat)
	ErrMixedDimensions          = fmt.Errorf("mixed dimensions: %w", ErrFormat)
)

var kindSentinels = map[ErrorKind]error{
	KindUnexpectedCall:           ErrUnexpectedCall,
	KindInvalidCoordinate:        ErrInvalidCoordinate,
	KindInvalidLatitude:          ErrInvalidLatitude,
	KindInvalidLongitude:         ErrInvalidLongitude,
	KindPolygonNotClosed:         ErrPolygonNotClosed,
	KindLineStringTooShort:       ErrLineStringTooShort,
	KindFullGlobeInCollection:    ErrFullGlobeInCollection,
	KindFullGlobeHasElements:     ErrFullGlobeHasElements,
	KindNestingOverflow:          ErrNestingOverflow,
	KindCoordinateSystemMismatch: ErrCoordinateSystemMismatch,
	KindUnexpectedGeography:      ErrUnexpectedGeography,
	KindUnexpectedGeometry:       ErrUnexpectedGeometry,
	KindInvalidType:              ErrInvalidType,
	KindMixedDimensions:          ErrMixedDimensions,
}

var kindNames = map[ErrorKind]string{
	KindUnexpectedCall:           "unexpected_call",
	KindInvalidCoordinate:        "invalid_coordinate",
	KindInvalidLatitude:          "invalid_latitude",
	KindInvalidLongitude:         "invalid_longitude",
	KindPolygonNotClosed:         "polygon_not_closed",
	KindLineStringTooShort:       "linestring_too_short",
	KindFullGlobeInCollection:    "fullglobe_in_collection",
	KindFullGlobeHasElements:     "fullglobe_has_elements",
	KindNestingOverflow:          "nesting_overflow",
	KindCoordinateSystemMismatch: "coordinate_system_mismatch",
	KindUnexpectedGeography:      "unexpected_geography",
	KindUnexpectedGeometry:       "unexpected_geometry",
	KindInvalidType:              "invalid_type",
	KindMixedDimensions:          "mixed_dimensions",
}

// String returns a stable snake_case name for the kind, used as a metrics label.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// FormatError is raised when a call stream violates the construction grammar
// or a shape integrity rule.
type FormatError struct {
	Kind    ErrorKind
	Message string
}

// NewFormatError creates a format error with a formatted message.
func NewFormatError(kind ErrorKind, format string, args ...interface{}) *FormatError {
	return &FormatError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return "invalid spatial data: " + e.Message
}

// Unwrap returns the sentinel for the error kind.
func (e *FormatError) Unwrap() error {
	if err, ok := kindSentinels[e.Kind]; ok {
		return err
	}
	return ErrFormat
}

// InvalidOperationError reports builder misuse, such as reading a result
// before the shape is complete.
type InvalidOperationError struct {
	Operation string
	Message   string
}

// Error implements the error interface.
func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation %s: %s", e.Operation, e.Message)
}

// Unwrap returns ErrInvalidOperation.
func (e *InvalidOperationError) Unwrap() error {
	return ErrInvalidOperation
}
