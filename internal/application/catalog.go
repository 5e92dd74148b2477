package application

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/ports/input"
	"github.com/jobrunner/geopipe/internal/ports/output"
)

// CatalogConfig holds how stored documents are processed.
type CatalogConfig struct {
	Topology domain.Topology // Pipeline the documents are replayed into
	SRID     *int            // Coordinate system override
	Persist  bool            // Store built shapes
}

// Catalog tracks the documents found in storage and their validation
// status.
type Catalog struct {
	mu        sync.RWMutex
	documents map[string]*catalogEntry
	storage   output.ObjectStorage
	service   *DocumentService
	repo      output.ShapeRepository
	metrics   output.MetricsCollector
	logger    *slog.Logger
	cfg       CatalogConfig
}

type catalogEntry struct {
	Document     domain.Document
	LastModified int64
	ETag         string
}

var _ input.DocumentCatalog = (*Catalog)(nil)

// NewCatalog creates a new document catalog. repo may be nil when shapes
// are not persisted.
func NewCatalog(
	storage output.ObjectStorage,
	service *DocumentService,
	repo output.ShapeRepository,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	cfg CatalogConfig,
) *Catalog {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &Catalog{
		documents: make(map[string]*catalogEntry),
		storage:   storage,
		service:   service,
		repo:      repo,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// LoadDocument reads a document from storage and runs it through the
// pipeline. A document that fails validation is still registered, with
// status invalid. The returned error is only set when the document could
// not be read.
func (c *Catalog) LoadDocument(ctx context.Context, key string) (*domain.Document, error) {
	return c.load(ctx, output.StorageObject{Key: key})
}

func (c *Catalog) load(ctx context.Context, obj output.StorageObject) (*domain.Document, error) {
	format, ok := domain.FormatFromPath(obj.Key)
	if !ok {
		return nil, errors.Wrapf(domain.ErrUnsupportedFormat, "document %s", obj.Key)
	}
	id := domain.DocumentID(obj.Key)
	c.logger.Info("loading document", "id", id, "key", obj.Key)

	data, err := c.read(ctx, obj.Key)
	if err != nil {
		c.logger.Error("failed to read document", "key", obj.Key, "error", err)
		return nil, err
	}

	doc := domain.Document{
		ID:       id,
		Key:      obj.Key,
		Format:   format,
		Topology: c.cfg.Topology,
		Size:     int64(len(data)),
		Status:   domain.StatusPending,
	}

	result, err := c.service.Process(ctx, domain.ProcessRequest{
		DocumentID: id,
		Payload:    data,
		Format:     format,
		Topology:   c.cfg.Topology,
		SRID:       c.cfg.SRID,
		Persist:    c.cfg.Persist,
	})
	doc.ProcessedAt = time.Now()
	if err != nil {
		doc.Status = statusOf(err)
		doc.Error = err.Error()
		if kind, ok := FormatErrorKind(err); ok {
			doc.ErrorKind = kind.String()
		}
		c.logger.Warn("document rejected", "id", id, "status", doc.Status, "error", err)
	} else {
		doc.Status = domain.StatusValid
		doc.Shapes = result.Shapes
		c.logger.Info("document loaded", "id", id, "shapes", len(result.Shapes))
	}

	c.mu.Lock()
	c.documents[id] = &catalogEntry{
		Document:     doc,
		LastModified: obj.LastModified,
		ETag:         obj.ETag,
	}
	c.mu.Unlock()

	c.updateMetrics()
	return &doc, nil
}

func (c *Catalog) read(ctx context.Context, key string) ([]byte, error) {
	r, err := c.storage.GetReader(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &domain.StorageError{Operation: "read", Key: key, Err: err}
	}
	return data, nil
}

// Remove drops a document and its stored shapes.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	c.logger.Info("removing document", "id", id)

	c.mu.Lock()
	_, ok := c.documents[id]
	delete(c.documents, id)
	c.mu.Unlock()

	if !ok {
		return domain.ErrDocumentNotFound
	}

	if c.repo != nil {
		if err := c.repo.Delete(ctx, id); err != nil {
			c.logger.Error("failed to delete stored shapes", "id", id, "error", err)
			return err
		}
	}

	c.updateMetrics()
	return nil
}

// ListDocuments returns all documents ordered by ID.
func (c *Catalog) ListDocuments(_ context.Context) ([]domain.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	documents := make([]domain.Document, 0, len(c.documents))
	for _, entry := range c.documents {
		documents = append(documents, entry.Document)
	}
	sort.Slice(documents, func(i, j int) bool { return documents[i].ID < documents[j].ID })

	return documents, nil
}

// GetDocument returns a specific document by ID.
func (c *Catalog) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}

	doc := entry.Document
	return &doc, nil
}

// IsLoaded returns true if a document with the given ID is in the catalog.
func (c *Catalog) IsLoaded(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.documents[id]
	return ok
}

// DocumentCount returns the number of documents in the catalog.
func (c *Catalog) DocumentCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.documents)
}

// counts returns the total and valid document counts.
func (c *Catalog) counts() (total, valid int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.documents {
		if entry.Document.IsValid() {
			valid++
		}
	}
	return len(c.documents), valid
}

func (c *Catalog) updateMetrics() {
	total, valid := c.counts()
	c.metrics.SetDocumentsLoaded(total)
	c.metrics.SetDocumentsValid(valid)
}

// LoadAll loads every document in storage.
func (c *Catalog) LoadAll(ctx context.Context) error {
	c.logger.Info("loading all documents from storage")

	objects, err := c.storage.List(ctx)
	if err != nil {
		return err
	}

	for _, obj := range objects {
		if _, err := c.load(ctx, obj); err != nil {
			c.logger.Error("failed to load document", "key", obj.Key, "error", err)
		}
	}

	return nil
}

// Sync reconciles the catalog with storage. New documents are loaded,
// documents whose modification time or ETag changed are processed again
// and documents missing from storage are removed.
func (c *Catalog) Sync(ctx context.Context) (*input.SyncResult, error) {
	c.logger.Info("syncing documents from storage")

	objects, err := c.storage.List(ctx)
	if err != nil {
		return nil, err
	}

	remote := make(map[string]output.StorageObject, len(objects))
	for _, obj := range objects {
		remote[domain.DocumentID(obj.Key)] = obj
	}

	result := &input.SyncResult{}
	for _, id := range sortedKeys(remote) {
		obj := remote[id]
		added, changed := c.compare(id, obj)
		if !added && !changed {
			c.logger.Debug("document unchanged, skipping", "id", id)
			continue
		}

		if _, err := c.load(ctx, obj); err != nil {
			result.Failed = append(result.Failed, id)
			continue
		}
		if added {
			result.Added = append(result.Added, id)
		} else {
			result.Updated = append(result.Updated, id)
		}
	}

	for _, id := range c.findDocumentsToRemove(remote) {
		if err := c.Remove(ctx, id); err != nil {
			c.logger.Error("failed to remove document", "id", id, "error", err)
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Removed = append(result.Removed, id)
	}

	c.logger.Info("sync completed",
		"added", len(result.Added),
		"updated", len(result.Updated),
		"removed", len(result.Removed),
		"failed", len(result.Failed),
		"total", c.DocumentCount(),
	)
	return result, nil
}

// compare reports whether obj is new to the catalog or differs from the
// loaded version.
func (c *Catalog) compare(id string, obj output.StorageObject) (added, changed bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.documents[id]
	if !ok {
		return true, false
	}
	return false, entry.Document.Key != obj.Key ||
		entry.LastModified != obj.LastModified ||
		entry.ETag != obj.ETag
}

// findDocumentsToRemove returns IDs that are loaded but not in storage.
func (c *Catalog) findDocumentsToRemove(remote map[string]output.StorageObject) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var toRemove []string
	for id := range c.documents {
		if _, exists := remote[id]; !exists {
			toRemove = append(toRemove, id)
		}
	}
	sort.Strings(toRemove)
	return toRemove
}

func sortedKeys(m map[string]output.StorageObject) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
