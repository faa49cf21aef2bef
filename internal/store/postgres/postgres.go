// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
// Canvases live in a single table keyed by path; a version column enforces
// the optimistic write check.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an existing database handle without running migrations.
// Used in tests.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Load returns the document stored at path and its current version.
func (s *PostgresStore) Load(ctx context.Context, path string) (*model.Document, int64, error) {
	var (
		raw     []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT doc, version FROM canvases WHERE path = $1`, path,
	).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, store.ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load canvas %q: %w", path, err)
	}

	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("decode canvas %q: %w", path, err)
	}
	return &doc, version, nil
}

// Save persists the document at path. expectRev 0 creates the canvas; a
// non-zero expectRev must match the stored version or the write is rejected
// with store.ErrRevisionConflict.
func (s *PostgresStore) Save(ctx context.Context, path string, doc *model.Document, expectRev int64) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode canvas %q: %w", path, err)
	}

	if expectRev == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO canvases (path, doc) VALUES ($1, $2) ON CONFLICT (path) DO NOTHING`,
			path, raw,
		)
		if err != nil {
			return fmt.Errorf("insert canvas %q: %w", path, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert canvas %q: %w", path, err)
		}
		if n == 0 {
			return store.ErrRevisionConflict
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE canvases SET doc = $1, version = version + 1, updated_at = now()
		 WHERE path = $2 AND version = $3`,
		raw, path, expectRev,
	)
	if err != nil {
		return fmt.Errorf("update canvas %q: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update canvas %q: %w", path, err)
	}
	if n == 0 {
		// Either the canvas is gone or another writer bumped the version.
		return store.ErrRevisionConflict
	}
	return nil
}

// Exists reports whether a canvas is stored at path.
func (s *PostgresStore) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM canvases WHERE path = $1)`, path,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check canvas %q: %w", path, err)
	}
	return exists, nil
}

// ListPaths returns every stored canvas path in lexical order.
func (s *PostgresStore) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM canvases ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan canvas path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	return paths, nil
}
