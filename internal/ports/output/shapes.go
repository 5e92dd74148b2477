package output

import (
	"context"

	"github.com/jobrunner/geopipe/internal/domain"
)

// ShapeRepository defines the secondary port for persisting built shapes.
type ShapeRepository interface {
	// Save stores the shapes of a document, replacing earlier ones.
	Save(ctx context.Context, documentID string, shapes []domain.ShapeRecord) error

	// Get returns a single shape by ID.
	Get(ctx context.Context, id int64) (*domain.ShapeRecord, error)

	// List returns the shapes of a document in insertion order.
	List(ctx context.Context, documentID string) ([]domain.ShapeRecord, error)

	// Delete removes all shapes of a document.
	Delete(ctx context.Context, documentID string) error

	// Close releases the underlying store.
	Close() error
}
