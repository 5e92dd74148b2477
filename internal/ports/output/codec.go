package output

import (
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/builder"
	"github.com/twpayne/go-geom"
)

// ShapeCodec defines the secondary port for document encodings.
type ShapeCodec interface {
	// Decode decodes a document into its top-level shapes.
	Decode(format domain.Format, data []byte) ([]geom.T, error)

	// Encode encodes a planar shape.
	Encode(format domain.Format, g geom.T) ([]byte, error)

	// EncodeGeography encodes a built geography.
	EncodeGeography(format domain.Format, g *builder.Geography) ([]byte, error)

	// EncodeEWKB encodes a shape for persistence, keeping its SRID.
	EncodeEWKB(g geom.T) ([]byte, error)
}
