// Package store defines the persistence interface for canvas documents.
package store

import (
	"context"
	"errors"

	"github.com/weftworks/canvasd/internal/model"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound indicates no canvas exists at the given path.
	ErrNotFound = errors.New("canvas not found")
	// ErrRevisionConflict indicates the canvas was modified between the
	// caller's Load and Save (current-version-must-match-on-write).
	ErrRevisionConflict = errors.New("canvas revision conflict")
)

// Store persists canvas documents keyed by destination path.
//
// Load returns the document together with its revision; Save requires the
// revision the caller loaded, and fails with ErrRevisionConflict when another
// writer got there first. A revision of 0 means "create": Save with
// expectRev 0 fails if the canvas already exists at a later revision.
type Store interface {
	// Load reads the document at path. Returns ErrNotFound if absent.
	Load(ctx context.Context, path string) (*model.Document, int64, error)

	// Save writes the document at path, enforcing the optimistic revision
	// check described above.
	Save(ctx context.Context, path string, doc *model.Document, expectRev int64) error

	// Exists reports whether a canvas exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// ListPaths returns every stored canvas path, sorted.
	ListPaths(ctx context.Context) ([]string, error)

	// Close releases any underlying resources.
	Close() error
}
