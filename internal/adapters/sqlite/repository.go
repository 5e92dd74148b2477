// Package sqlite provides the SQLite-backed shape repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/ports/output"
)

const driverName = "sqlite3_geopipe"

// Register the sqlite3 driver with per-connection pragmas.
func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000", nil)
			return err
		},
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS shapes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id TEXT    NOT NULL,
	type        TEXT    NOT NULL,
	topology    TEXT    NOT NULL,
	srid        INTEGER NOT NULL,
	full_globe  INTEGER NOT NULL DEFAULT 0,
	wkb         BLOB,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS shapes_document_id ON shapes (document_id);
`

// Repository implements the ShapeRepository port on a SQLite database.
type Repository struct {
	db   *sql.DB
	path string
}

var _ output.ShapeRepository = (*Repository)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, &domain.StorageError{Operation: "open", Key: path, Err: err}
		}
	}

	db, err := openDB(ctx, path)
	if err != nil {
		return nil, &domain.StorageError{Operation: "open", Key: path, Err: err}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, &domain.StorageError{Operation: "migrate", Key: path, Err: err}
	}

	return &Repository{db: db, path: path}, nil
}

// openDB opens the SQLite database with appropriate settings.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared", path)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// Save stores the shapes of a document, replacing earlier ones.
func (r *Repository) Save(ctx context.Context, documentID string, shapes []domain.ShapeRecord) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Operation: "save", Key: documentID, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM shapes WHERE document_id = ?`, documentID); err != nil {
		return &domain.StorageError{Operation: "save", Key: documentID, Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shapes (document_id, type, topology, srid, full_globe, wkb, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &domain.StorageError{Operation: "save", Key: documentID, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().UnixMilli()
	for _, s := range shapes {
		if _, err = stmt.ExecContext(ctx,
			documentID, s.Type.String(), s.Topology.String(), s.SRID, s.FullGlobe, s.WKB, now,
		); err != nil {
			return &domain.StorageError{Operation: "save", Key: documentID, Err: err}
		}
	}

	if err = tx.Commit(); err != nil {
		return &domain.StorageError{Operation: "save", Key: documentID, Err: err}
	}
	return nil
}

const selectShapes = `SELECT id, document_id, type, topology, srid, full_globe, wkb, created_at FROM shapes`

// Get returns a single shape by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*domain.ShapeRecord, error) {
	row := r.db.QueryRowContext(ctx, selectShapes+` WHERE id = ?`, id)
	rec, err := scanShape(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShapeNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Operation: "get", Key: fmt.Sprint(id), Err: err}
	}
	return rec, nil
}

// List returns the shapes of a document in insertion order.
func (r *Repository) List(ctx context.Context, documentID string) ([]domain.ShapeRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectShapes+` WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, &domain.StorageError{Operation: "list", Key: documentID, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var shapes []domain.ShapeRecord
	for rows.Next() {
		rec, err := scanShape(rows)
		if err != nil {
			return nil, &domain.StorageError{Operation: "list", Key: documentID, Err: err}
		}
		shapes = append(shapes, *rec)
	}
	return shapes, rows.Err()
}

// Delete removes all shapes of a document.
func (r *Repository) Delete(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shapes WHERE document_id = ?`, documentID); err != nil {
		return &domain.StorageError{Operation: "delete", Key: documentID, Err: err}
	}
	return nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShape(s scanner) (*domain.ShapeRecord, error) {
	var (
		rec       domain.ShapeRecord
		typ, topo string
		createdAt int64
	)
	if err := s.Scan(&rec.ID, &rec.DocumentID, &typ, &topo, &rec.SRID, &rec.FullGlobe, &rec.WKB, &createdAt); err != nil {
		return nil, err
	}

	t, ok := domain.ParseSpatialType(typ)
	if !ok {
		return nil, fmt.Errorf("unknown shape type %q", typ)
	}
	rec.Type = t
	if topo == domain.TopologyGeometry.String() {
		rec.Topology = domain.TopologyGeometry
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rec, nil
}
