package domain

import "testing"

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   Format
		wantOK bool
	}{
		{"parcels.geojson", FormatGeoJSON, true},
		{"parcels.JSON", FormatGeoJSON, true},
		{"/data/roads.wkt", FormatWKT, true},
		{"roads.wkb", FormatWKB, true},
		{"roads.hex", FormatWKBHex, true},
		{"roads.gpkg", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FormatFromPath(tt.path)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FormatFromPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in     string
		want   Format
		wantOK bool
	}{
		{"geojson", FormatGeoJSON, true},
		{"JSON", FormatGeoJSON, true},
		{"wkt", FormatWKT, true},
		{"wkb", FormatWKB, true},
		{"hex", FormatWKBHex, true},
		{"kml", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFormat(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDocumentID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"parcels.geojson", "parcels"},
		{"/data/sub/roads.wkt", "roads"},
		{"region/areas.v2.json", "areas.v2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DocumentID(tt.path); got != tt.want {
				t.Errorf("DocumentID(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDocumentStatus(t *testing.T) {
	doc := Document{
		Status: StatusValid,
		Shapes: []ShapeSummary{{Type: Polygon, SRID: 4326}, {Type: Point, SRID: 4326}},
	}

	if !doc.IsValid() {
		t.Error("IsValid() should be true")
	}
	if doc.ShapeCount() != 2 {
		t.Errorf("ShapeCount() = %d, want 2", doc.ShapeCount())
	}

	doc.Status = StatusInvalid
	if doc.IsValid() {
		t.Error("IsValid() should be false for an invalid document")
	}
}
