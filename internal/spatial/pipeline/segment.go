package pipeline

import "github.com/jobrunner/geopipe/internal/domain"

// Segment is one link of a forwarding chain. Every call is handed to the
// segment's own stage and then to the rest of the chain.
//
// If the own stage fails, the own stage and the rest of the chain are reset
// before the error is returned. If the rest of the chain fails, only the own
// stage is reset; the rest has already reset itself on the way back. Either
// way the error is returned unchanged and every stage is ready for a new
// shape. Panics are not recovered and leave the chain as it is.
type Segment struct {
	current Stage
	next    *Segment
	start   *Segment

	geography *geographyForwarder
	geometry  *geometryForwarder
}

// NewSegment wraps a stage as the only link of a new chain.
func NewSegment(current Stage) *Segment {
	s := &Segment{current: current}
	s.start = s
	s.geography = &geographyForwarder{segment: s}
	s.geometry = &geometryForwarder{segment: s}
	return s
}

// Chain links the stages in order and returns the first segment.
func Chain(first Stage, rest ...Stage) *Segment {
	head := asSegment(first)
	tail := head
	for _, stage := range rest {
		tail = tail.ChainTo(asSegment(stage))
	}
	return head
}

func asSegment(stage Stage) *Segment {
	if s, ok := stage.(*Segment); ok {
		return s
	}
	return NewSegment(stage)
}

// ChainTo appends next after this segment and returns next, so calls can
// be chained: a.ChainTo(b).ChainTo(c). Any previously attached tail is
// replaced. If next already heads a chain, the whole chain is attached.
func (s *Segment) ChainTo(next *Segment) *Segment {
	s.next = next
	for seg := next; seg != nil; seg = seg.next {
		seg.start = s.start
	}
	return next
}

// StartingLink returns the first segment of the chain this segment belongs to.
func (s *Segment) StartingLink() *Segment {
	return s.start
}

// GeographyPipeline returns the forwarding geography facet.
func (s *Segment) GeographyPipeline() GeographyPipeline {
	return s.geography
}

// GeometryPipeline returns the forwarding geometry facet.
func (s *Segment) GeometryPipeline() GeometryPipeline {
	return s.geometry
}

func (s *Segment) nextStage() Stage {
	if s.next == nil {
		return NoOp
	}
	return s.next
}

type geographyForwarder struct {
	segment *Segment
}

func (f *geographyForwarder) forward(call func(GeographyPipeline) error) error {
	current := f.segment.current.GeographyPipeline()
	next := f.segment.nextStage().GeographyPipeline()

	if err := call(current); err != nil {
		current.Reset()
		next.Reset()
		return err
	}
	if err := call(next); err != nil {
		current.Reset()
		return err
	}
	return nil
}

func (f *geographyForwarder) SetCoordinateSystem(cs domain.CoordinateSystem) error {
	return f.forward(func(p GeographyPipeline) error { return p.SetCoordinateSystem(cs) })
}

func (f *geographyForwarder) BeginGeography(t domain.SpatialType) error {
	return f.forward(func(p GeographyPipeline) error { return p.BeginGeography(t) })
}

func (f *geographyForwarder) BeginFigure(pos domain.GeographyPosition) error {
	return f.forward(func(p GeographyPipeline) error { return p.BeginFigure(pos) })
}

func (f *geographyForwarder) LineTo(pos domain.GeographyPosition) error {
	return f.forward(func(p GeographyPipeline) error { return p.LineTo(pos) })
}

func (f *geographyForwarder) EndFigure() error {
	return f.forward(GeographyPipeline.EndFigure)
}

func (f *geographyForwarder) EndGeography() error {
	return f.forward(GeographyPipeline.EndGeography)
}

func (f *geographyForwarder) Reset() {
	f.segment.current.GeographyPipeline().Reset()
	f.segment.nextStage().GeographyPipeline().Reset()
}

type geometryForwarder struct {
	segment *Segment
}

func (f *geometryForwarder) forward(call func(GeometryPipeline) error) error {
	current := f.segment.current.GeometryPipeline()
	next := f.segment.nextStage().GeometryPipeline()

	if err := call(current); err != nil {
		current.Reset()
		next.Reset()
		return err
	}
	if err := call(next); err != nil {
		current.Reset()
		return err
	}
	return nil
}

func (f *geometryForwarder) SetCoordinateSystem(cs domain.CoordinateSystem) error {
	return f.forward(func(p GeometryPipeline) error { return p.SetCoordinateSystem(cs) })
}

func (f *geometryForwarder) BeginGeometry(t domain.SpatialType) error {
	return f.forward(func(p GeometryPipeline) error { return p.BeginGeometry(t) })
}

func (f *geometryForwarder) BeginFigure(pos domain.GeometryPosition) error {
	return f.forward(func(p GeometryPipeline) error { return p.BeginFigure(pos) })
}

func (f *geometryForwarder) LineTo(pos domain.GeometryPosition) error {
	return f.forward(func(p GeometryPipeline) error { return p.LineTo(pos) })
}

func (f *geometryForwarder) EndFigure() error {
	return f.forward(GeometryPipeline.EndFigure)
}

func (f *geometryForwarder) EndGeometry() error {
	return f.forward(GeometryPipeline.EndGeometry)
}

func (f *geometryForwarder) Reset() {
	f.segment.current.GeometryPipeline().Reset()
	f.segment.nextStage().GeometryPipeline().Reset()
}
