// Package builder reduces pipeline call streams into shape values.
//
// TreeBuilder is the generic reducer: it collects the calls of one
// top-level shape into a tree of nodes and folds every closed subtree into a
// value using a Factory. GeometryBuilder and GeographyBuilder plug go-geom
// based factories into it and expose the typed pipeline facets.
package builder

import (
	"math"

	"github.com/jobrunner/geopipe/internal/domain"
)

// Factory creates shape values for a TreeBuilder.
type Factory[T any] interface {
	// CreatePoint creates a point. x and y are the type-washed coordinates.
	CreatePoint(isEmpty bool, x, y float64, z, m domain.Ordinate) (T, error)
	// CreateShapeInstance creates a shape of type t from its closed children.
	CreateShapeInstance(t domain.SpatialType, children []T) (T, error)
}

// Option configures a TreeBuilder.
type Option[T any] func(*TreeBuilder[T])

// WithProduced sets a callback fired once for every completed top-level shape.
func WithProduced[T any](fn func(T)) Option[T] {
	return func(b *TreeBuilder[T]) {
		b.produced = fn
	}
}

type node[T any] struct {
	typ      domain.SpatialType
	children []*node[T]
	instance T
	closed   bool
	parent   *node[T]
}

func (n *node[T]) addChild(t domain.SpatialType) *node[T] {
	child := &node[T]{typ: t, parent: n}
	n.children = append(n.children, child)
	return child
}

// TreeBuilder folds a type-washed call stream into values of type T.
// It does not validate the stream; chain a validator in front of it.
type TreeBuilder[T any] struct {
	factory  Factory[T]
	produced func(T)

	current *node[T]
	figure  []T
	inFig   bool
	last    *node[T]
}

// NewTreeBuilder creates a tree builder using factory.
func NewTreeBuilder[T any](factory Factory[T], opts ...Option[T]) *TreeBuilder[T] {
	b := &TreeBuilder[T]{factory: factory}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BeginGeo starts a shape, nested in the open shape if there is one.
func (b *TreeBuilder[T]) BeginGeo(t domain.SpatialType) error {
	if b.current == nil {
		b.current = &node[T]{typ: t}
		b.last = nil
		return nil
	}
	b.current = b.current.addChild(t)
	return nil
}

// BeginFigure starts a figure at the given position.
func (b *TreeBuilder[T]) BeginFigure(x, y float64, z, m domain.Ordinate) error {
	if b.current == nil {
		return misuse("BeginFigure", "no shape has been started")
	}
	p, err := b.factory.CreatePoint(false, x, y, z, m)
	if err != nil {
		return err
	}
	b.figure = []T{p}
	b.inFig = true
	return nil
}

// LineTo adds a position to the open figure.
func (b *TreeBuilder[T]) LineTo(x, y float64, z, m domain.Ordinate) error {
	if !b.inFig {
		return misuse("LineTo", "no figure has been started")
	}
	p, err := b.factory.CreatePoint(false, x, y, z, m)
	if err != nil {
		return err
	}
	b.figure = append(b.figure, p)
	return nil
}

// EndFigure closes the open figure. A figure of one position becomes a point
// child of the open shape, anything longer a line string child.
func (b *TreeBuilder[T]) EndFigure() error {
	if !b.inFig {
		return misuse("EndFigure", "no figure has been started")
	}
	defer func() {
		b.figure = nil
		b.inFig = false
	}()

	if len(b.figure) == 1 {
		child := b.current.addChild(domain.Point)
		child.instance = b.figure[0]
		child.closed = true
		return nil
	}

	line, err := b.factory.CreateShapeInstance(domain.LineString, b.figure)
	if err != nil {
		return err
	}
	child := b.current.addChild(domain.LineString)
	child.instance = line
	child.closed = true
	return nil
}

// EndGeo closes the open shape. Closing a top-level shape fires the produced
// callback.
func (b *TreeBuilder[T]) EndGeo() error {
	n := b.current
	if n == nil {
		return misuse("EndGeo", "no shape has been started")
	}

	instance, err := b.collapse(n)
	if err != nil {
		return err
	}
	n.instance = instance
	n.closed = true

	if n.parent != nil {
		b.current = n.parent
		return nil
	}

	b.last = n
	b.current = nil
	if b.produced != nil {
		b.produced(instance)
	}
	return nil
}

func (b *TreeBuilder[T]) collapse(n *node[T]) (T, error) {
	switch n.typ {
	case domain.Point:
		if len(n.children) > 0 {
			return n.children[0].instance, nil
		}
		return b.factory.CreatePoint(true, math.NaN(), math.NaN(), domain.None, domain.None)

	case domain.LineString:
		if len(n.children) > 0 {
			return n.children[0].instance, nil
		}
		return b.factory.CreateShapeInstance(domain.LineString, nil)

	case domain.FullGlobe:
		return b.factory.CreateShapeInstance(domain.FullGlobe, nil)

	default:
		children := make([]T, 0, len(n.children))
		for _, c := range n.children {
			children = append(children, c.instance)
		}
		return b.factory.CreateShapeInstance(n.typ, children)
	}
}

// ConstructedInstance returns the last completed top-level shape.
func (b *TreeBuilder[T]) ConstructedInstance() (T, error) {
	if b.last == nil || !b.last.closed || b.last.parent != nil {
		var zero T
		return zero, misuse("ConstructedInstance", "the shape has not been completely drawn")
	}
	return b.last.instance, nil
}

// Reset discards the shape being built and the last result.
func (b *TreeBuilder[T]) Reset() {
	b.current = nil
	b.figure = nil
	b.inFig = false
	b.last = nil
}

func misuse(op, msg string) error {
	return &domain.InvalidOperationError{Operation: op, Message: msg}
}
