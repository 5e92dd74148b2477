package builder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/stretchr/testify/require"
)

// textFactory renders shapes as text so tree folding is easy to inspect.
type textFactory struct {
	failOn domain.SpatialType
}

var errFactory = errors.New("factory failed")

func (f textFactory) CreatePoint(isEmpty bool, x, y float64, z, m domain.Ordinate) (string, error) {
	if isEmpty {
		return "P()", nil
	}
	if z.Valid || m.Valid {
		return fmt.Sprintf("P(%g %g %s %s)", x, y, z, m), nil
	}
	return fmt.Sprintf("P(%g %g)", x, y), nil
}

func (f textFactory) CreateShapeInstance(t domain.SpatialType, children []string) (string, error) {
	if t == f.failOn {
		return "", errFactory
	}
	return t.String() + "[" + strings.Join(children, ",") + "]", nil
}

type call func(b *TreeBuilder[string]) error

func begin(t domain.SpatialType) call {
	return func(b *TreeBuilder[string]) error { return b.BeginGeo(t) }
}

func figure(x, y float64) call {
	return func(b *TreeBuilder[string]) error { return b.BeginFigure(x, y, domain.None, domain.None) }
}

func line(x, y float64) call {
	return func(b *TreeBuilder[string]) error { return b.LineTo(x, y, domain.None, domain.None) }
}

func endFigure() call { return (*TreeBuilder[string]).EndFigure }
func end() call       { return (*TreeBuilder[string]).EndGeo }

func TestTreeBuilderFolding(t *testing.T) {
	tests := []struct {
		name  string
		calls []call
		want  string
	}{
		{
			name:  "point",
			calls: []call{begin(domain.Point), figure(1, 2), endFigure(), end()},
			want:  "P(1 2)",
		},
		{
			name:  "empty point",
			calls: []call{begin(domain.Point), end()},
			want:  "P()",
		},
		{
			name:  "line string",
			calls: []call{begin(domain.LineString), figure(0, 0), line(1, 1), line(2, 2), endFigure(), end()},
			want:  "LineString[P(0 0),P(1 1),P(2 2)]",
		},
		{
			name:  "empty line string",
			calls: []call{begin(domain.LineString), end()},
			want:  "LineString[]",
		},
		{
			name: "polygon with hole",
			calls: []call{
				begin(domain.Polygon),
				figure(0, 0), line(0, 4), line(4, 4), line(0, 0), endFigure(),
				figure(1, 1), line(1, 2), line(2, 2), line(1, 1), endFigure(),
				end(),
			},
			want: "Polygon[LineString[P(0 0),P(0 4),P(4 4),P(0 0)],LineString[P(1 1),P(1 2),P(2 2),P(1 1)]]",
		},
		{
			name: "multi point",
			calls: []call{
				begin(domain.MultiPoint),
				begin(domain.Point), figure(1, 1), endFigure(), end(),
				begin(domain.Point), end(),
				end(),
			},
			want: "MultiPoint[P(1 1),P()]",
		},
		{
			name: "nested collection",
			calls: []call{
				begin(domain.Collection),
				begin(domain.Point), figure(5, 6), endFigure(), end(),
				begin(domain.Collection),
				begin(domain.LineString), figure(0, 0), line(1, 0), endFigure(), end(),
				end(),
				end(),
			},
			want: "Collection[P(5 6),Collection[LineString[P(0 0),P(1 0)]]]",
		},
		{
			name:  "full globe",
			calls: []call{begin(domain.FullGlobe), end()},
			want:  "FullGlobe[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var produced []string
			b := NewTreeBuilder[string](textFactory{}, WithProduced(func(s string) {
				produced = append(produced, s)
			}))

			for _, c := range tt.calls {
				require.NoError(t, c(b))
			}

			got, err := b.ConstructedInstance()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, []string{tt.want}, produced)
		})
	}
}

func TestTreeBuilderKeepsOrdinates(t *testing.T) {
	b := NewTreeBuilder[string](textFactory{})
	require.NoError(t, b.BeginGeo(domain.Point))
	require.NoError(t, b.BeginFigure(1, 2, domain.Some(3), domain.None))
	require.NoError(t, b.EndFigure())
	require.NoError(t, b.EndGeo())

	got, err := b.ConstructedInstance()
	require.NoError(t, err)
	require.Equal(t, "P(1 2 3 null)", got)
}

func TestConstructedInstanceBeforeCompletion(t *testing.T) {
	b := NewTreeBuilder[string](textFactory{})

	_, err := b.ConstructedInstance()
	require.ErrorIs(t, err, domain.ErrInvalidOperation)

	require.NoError(t, b.BeginGeo(domain.Collection))
	require.NoError(t, b.BeginGeo(domain.Point))
	require.NoError(t, b.EndGeo())

	_, err = b.ConstructedInstance()
	require.ErrorIs(t, err, domain.ErrInvalidOperation)

	require.NoError(t, b.EndGeo())
	got, err := b.ConstructedInstance()
	require.NoError(t, err)
	require.Equal(t, "Collection[P()]", got)

	// A new shape hides the previous result until it is complete.
	require.NoError(t, b.BeginGeo(domain.Point))
	_, err = b.ConstructedInstance()
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestTreeBuilderMisuse(t *testing.T) {
	b := NewTreeBuilder[string](textFactory{})

	var opErr *domain.InvalidOperationError
	require.True(t, errors.As(b.LineTo(0, 0, domain.None, domain.None), &opErr))
	require.Equal(t, "LineTo", opErr.Operation)

	require.ErrorIs(t, b.BeginFigure(0, 0, domain.None, domain.None), domain.ErrInvalidOperation)
	require.ErrorIs(t, b.EndFigure(), domain.ErrInvalidOperation)
	require.ErrorIs(t, b.EndGeo(), domain.ErrInvalidOperation)
}

func TestTreeBuilderFactoryError(t *testing.T) {
	b := NewTreeBuilder[string](textFactory{failOn: domain.Polygon})
	require.NoError(t, b.BeginGeo(domain.Polygon))
	require.ErrorIs(t, b.EndGeo(), errFactory)

	_, err := b.ConstructedInstance()
	require.ErrorIs(t, err, domain.ErrInvalidOperation)

	b.Reset()
	b.Reset()
	require.NoError(t, b.BeginGeo(domain.Point))
	require.NoError(t, b.EndGeo())
	got, err := b.ConstructedInstance()
	require.NoError(t, err)
	require.Equal(t, "P()", got)
}
