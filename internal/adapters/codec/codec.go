// Package codec reads and writes spatial documents with the go-geom
// encoders.
package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/builder"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkbcommon"
	"github.com/twpayne/go-geom/encoding/wkbhex"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// DefaultMaxDecimalDigits is the precision used for text encodings.
const DefaultMaxDecimalDigits = 15

// FullGlobeWKT is the WKT text of the full globe.
const FullGlobeWKT = "FULLGLOBE"

const sridPrefix = "SRID="

var byteOrder = binary.LittleEndian

var emptyPointHandling = wkbcommon.WKBOptionEmptyPointHandling(wkbcommon.EmptyPointHandlingNaN)

// Codec decodes documents into shapes and encodes built shapes.
type Codec struct {
	maxDecimalDigits int
}

// New creates a codec. A non-positive precision uses DefaultMaxDecimalDigits.
func New(maxDecimalDigits int) *Codec {
	if maxDecimalDigits <= 0 {
		maxDecimalDigits = DefaultMaxDecimalDigits
	}
	return &Codec{maxDecimalDigits: maxDecimalDigits}
}

// Decode decodes a document into its shapes. A GeoJSON feature collection
// yields one shape per feature with a geometry. WKT and hex documents hold
// one shape per non-blank line.
func (c *Codec) Decode(format domain.Format, data []byte) ([]geom.T, error) {
	var (
		shapes []geom.T
		err    error
	)
	switch format {
	case domain.FormatGeoJSON:
		shapes, err = decodeGeoJSON(data)
	case domain.FormatWKT:
		shapes, err = decodeLines(data, decodeEWKT)
	case domain.FormatWKB:
		var g geom.T
		g, err = wkb.Unmarshal(data, emptyPointHandling)
		shapes = []geom.T{g}
	case domain.FormatWKBHex:
		shapes, err = decodeLines(data, func(s string) (geom.T, error) {
			return wkbhex.Decode(s, emptyPointHandling)
		})
	default:
		return nil, errors.Wrapf(domain.ErrUnsupportedFormat, "decoding %q", format)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decoding %s", format), domain.ErrInvalidInput)
	}
	if len(shapes) == 0 {
		return nil, errors.Mark(errors.Newf("%s document has no shapes", format), domain.ErrInvalidInput)
	}
	return shapes, nil
}

// Encode encodes a shape.
func (c *Codec) Encode(format domain.Format, g geom.T) ([]byte, error) {
	switch format {
	case domain.FormatGeoJSON:
		return geojson.Marshal(g, geojson.EncodeGeometryWithMaxDecimalDigits(c.maxDecimalDigits))
	case domain.FormatWKT:
		s, err := wkt.Marshal(g, wkt.EncodeOptionWithMaxDecimalDigits(c.maxDecimalDigits))
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case domain.FormatWKB:
		return wkb.Marshal(g, byteOrder, emptyPointHandling)
	case domain.FormatWKBHex:
		s, err := wkbhex.Encode(g, byteOrder, emptyPointHandling)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return nil, errors.Wrapf(domain.ErrUnsupportedFormat, "encoding %q", format)
}

// EncodeGeography encodes a built geography. The full globe only has a
// WKT form.
func (c *Codec) EncodeGeography(format domain.Format, g *builder.Geography) ([]byte, error) {
	if !g.IsFullGlobe() {
		return c.Encode(format, g.Geom())
	}
	if format == domain.FormatWKT {
		return []byte(FullGlobeWKT), nil
	}
	return nil, errors.Wrapf(domain.ErrUnsupportedFormat, "a full globe cannot be encoded as %s", format)
}

// EncodeEWKB encodes a shape as extended WKB.
func (c *Codec) EncodeEWKB(g geom.T) ([]byte, error) {
	return MarshalEWKB(g)
}

// MarshalEWKB encodes a shape as extended WKB, keeping its SRID.
func MarshalEWKB(g geom.T) ([]byte, error) {
	return ewkb.Marshal(g, byteOrder)
}

// UnmarshalEWKB decodes extended WKB.
func UnmarshalEWKB(data []byte) (geom.T, error) {
	return ewkb.Unmarshal(data)
}

func decodeLines(data []byte, decode func(string) (geom.T, error)) ([]geom.T, error) {
	var shapes []geom.T
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		g, err := decode(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		shapes = append(shapes, g)
	}
	return shapes, scanner.Err()
}

// decodeEWKT decodes WKT with an optional "SRID=n;" prefix.
func decodeEWKT(s string) (geom.T, error) {
	srid := 0
	if strings.HasPrefix(strings.ToUpper(s), sridPrefix) {
		end := strings.Index(s, ";")
		if end == -1 {
			return nil, errors.Newf("missing ; after SRID declaration: %q", s)
		}
		id, err := strconv.Atoi(strings.TrimSpace(s[len(sridPrefix):end]))
		if err != nil {
			return nil, errors.Wrap(err, "parsing SRID")
		}
		srid, s = id, s[end+1:]
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, err
	}
	if srid != 0 {
		builder.SetSRID(g, srid)
	}
	return g, nil
}

func decodeGeoJSON(data []byte) ([]geom.T, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
		shapes := make([]geom.T, 0, len(fc.Features))
		for _, f := range fc.Features {
			if f.Geometry != nil {
				shapes = append(shapes, f.Geometry)
			}
		}
		return shapes, nil

	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		if f.Geometry == nil {
			return nil, nil
		}
		return []geom.T{f.Geometry}, nil
	}

	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return []geom.T{g}, nil
}
