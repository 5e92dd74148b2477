package storage

import (
	"context"
	"io"
	"time"

	"github.com/jobrunner/geopipe/internal/ports/output"
)

// Instrumented records operation counts and durations of a storage backend.
type Instrumented struct {
	next    output.ObjectStorage
	metrics output.MetricsCollector
}

var _ output.ObjectStorage = (*Instrumented)(nil)

// NewInstrumented wraps a storage backend with metrics.
func NewInstrumented(next output.ObjectStorage, metrics output.MetricsCollector) *Instrumented {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &Instrumented{next: next, metrics: metrics}
}

// Unwrap returns the wrapped backend.
func (s *Instrumented) Unwrap() output.ObjectStorage {
	return s.next
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	s.metrics.IncStorageOperations(op, err == nil)
	s.metrics.ObserveStorageDuration(op, time.Since(start))
}

// List implements output.ObjectStorage.
func (s *Instrumented) List(ctx context.Context) ([]output.StorageObject, error) {
	start := time.Now()
	objects, err := s.next.List(ctx)
	s.observe("list", start, err)
	return objects, err
}

// GetReader implements output.ObjectStorage.
func (s *Instrumented) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	r, err := s.next.GetReader(ctx, key)
	s.observe("read", start, err)
	return r, err
}

// Exists implements output.ObjectStorage.
func (s *Instrumented) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, key)
	s.observe("stat", start, err)
	return ok, err
}
