// Package trace contains pass-through pipeline stages that observe the call
// stream: a text recorder, a structured logger and a metrics counter.
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
)

// CallLog records every call it receives as one line of text. Nesting is
// shown by indentation.
type CallLog struct {
	*pipeline.DrawBoth
	lines []string
	depth int
}

// NewCallLog creates an empty call log.
func NewCallLog() *CallLog {
	l := &CallLog{}
	l.DrawBoth = &pipeline.DrawBoth{
		Geography: l.handlers("geography"),
		Geometry:  l.handlers("geometry"),
	}
	return l
}

func (l *CallLog) handlers(kind string) pipeline.Handlers {
	return pipeline.Handlers{
		SetCoordinateSystem: func(cs domain.CoordinateSystem) error {
			l.add("SetCoordinateSystem %s", cs)
			return nil
		},
		Begin: func(t domain.SpatialType) error {
			l.add("Begin %s %s", kind, t)
			l.depth++
			return nil
		},
		BeginFigure: func(p domain.Position) error {
			l.add("BeginFigure %s", p)
			return nil
		},
		LineTo: func(p domain.Position) error {
			l.add("LineTo %s", p)
			return nil
		},
		EndFigure: func() error {
			l.add("EndFigure")
			return nil
		},
		End: func() error {
			if l.depth > 0 {
				l.depth--
			}
			l.add("End %s", kind)
			return nil
		},
		Reset: func() {
			l.depth = 0
			l.add("Reset")
		},
	}
}

func (l *CallLog) add(format string, args ...interface{}) {
	l.lines = append(l.lines, strings.Repeat("  ", l.depth)+fmt.Sprintf(format, args...))
}

// Lines returns the recorded calls.
func (l *CallLog) Lines() []string {
	return l.lines
}

// String returns the recorded calls, one per line.
func (l *CallLog) String() string {
	return strings.Join(l.lines, "\n")
}

// WriteTo writes the recorded calls to w.
func (l *CallLog) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, line := range l.lines {
		c, err := fmt.Fprintln(w, line)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Clear drops the recorded calls.
func (l *CallLog) Clear() {
	l.lines = nil
	l.depth = 0
}
