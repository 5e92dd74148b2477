package application

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	mu      sync.Mutex
	objects map[string]output.StorageObject
	content map[string][]byte
	listErr error
	readErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		objects: make(map[string]output.StorageObject),
		content: make(map[string][]byte),
	}
}

func (m *mockStorage) put(key, data string, modified int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = output.StorageObject{Key: key, Size: int64(len(data)), LastModified: modified}
	m.content[key] = []byte(data)
}

func (m *mockStorage) remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.content, key)
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	objects := make([]output.StorageObject, 0, len(m.objects))
	for _, obj := range m.objects {
		objects = append(objects, obj)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *mockStorage) GetReader(_ context.Context, key string) (io.ReadCloser, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.content[key]
	if !ok {
		return nil, &domain.StorageError{Operation: "read", Key: key, Err: domain.ErrDocumentNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

// mockRepository implements output.ShapeRepository for testing.
type mockRepository struct {
	mu      sync.Mutex
	shapes  map[string][]domain.ShapeRecord
	deleted []string
	saveErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{shapes: make(map[string][]domain.ShapeRecord)}
}

func (m *mockRepository) Save(_ context.Context, documentID string, shapes []domain.ShapeRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shapes[documentID] = shapes
	return nil
}

func (m *mockRepository) Get(_ context.Context, _ int64) (*domain.ShapeRecord, error) {
	return nil, domain.ErrShapeNotFound
}

func (m *mockRepository) List(_ context.Context, documentID string) ([]domain.ShapeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shapes[documentID], nil
}

func (m *mockRepository) Delete(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shapes, documentID)
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockRepository) Close() error {
	return nil
}

// recordingMetrics counts the metrics calls the services make.
type recordingMetrics struct {
	output.NoOpMetrics

	mu        sync.Mutex
	processed map[string]int
	errors    map[string]int
	built     map[string]int
	loaded    int
	valid     int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		processed: make(map[string]int),
		errors:    make(map[string]int),
		built:     make(map[string]int),
	}
}

func (m *recordingMetrics) IncDocumentsProcessed(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[status]++
}

func (m *recordingMetrics) IncPipelineErrors(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *recordingMetrics) IncShapesBuilt(shapeType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built[shapeType]++
}

func (m *recordingMetrics) SetDocumentsLoaded(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = count
}

func (m *recordingMetrics) SetDocumentsValid(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = count
}
