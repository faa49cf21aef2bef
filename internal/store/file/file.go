// Package file implements the store.Store interface backed by JSON documents
// on the local filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/store"
)

// ErrInvalidPath indicates a canvas path that escapes the data directory.
var ErrInvalidPath = errors.New("invalid canvas path")

// Store persists canvas documents as JSON files under a data directory.
//
// Revisions are tracked per process: the store serializes all access through
// one lock and bumps an in-memory revision counter per path on every save.
// Cross-process writers are not detected here; deployments needing durable
// version checks use the postgres store instead.
type Store struct {
	dir string

	mu   sync.Mutex
	revs map[string]int64
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns a file store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, revs: make(map[string]int64)}, nil
}

// fsPath maps a canvas path to a filesystem path, rejecting anything that
// would escape the data directory.
func (s *Store) fsPath(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	return filepath.Join(s.dir, clean), nil
}

// Load reads the document at path.
func (s *Store) Load(_ context.Context, path string) (*model.Document, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, err := s.fsPath(path)
	if err != nil {
		return nil, 0, err
	}
	data, err := os.ReadFile(fp)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%q: %w", path, store.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read canvas %q: %w", path, err)
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("parse canvas %q: %w", path, err)
	}
	if s.revs[path] == 0 {
		// First sight of a pre-existing file in this process.
		s.revs[path] = 1
	}
	return &doc, s.revs[path], nil
}

// Save writes the document at path atomically (temp file + rename), enforcing
// the process-local revision check.
func (s *Store) Save(_ context.Context, path string, doc *model.Document, expectRev int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, err := s.fsPath(path)
	if err != nil {
		return err
	}

	cur := s.revs[path]
	if cur == 0 && expectRev == 0 {
		// Creating; make sure no untracked file already exists.
		if _, err := os.Stat(fp); err == nil {
			return fmt.Errorf("%q exists on disk: %w", path, store.ErrRevisionConflict)
		}
	}
	if cur != expectRev {
		return fmt.Errorf("%q: have %d, expected %d: %w", path, cur, expectRev, store.ErrRevisionConflict)
	}

	data, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return fmt.Errorf("encode canvas %q: %w", path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return fmt.Errorf("create canvas dir: %w", err)
	}
	tmp := fp + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write canvas %q: %w", path, err)
	}
	if err := os.Rename(tmp, fp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename canvas %q: %w", path, err)
	}
	s.revs[path] = expectRev + 1
	return nil
}

// Exists reports whether a canvas exists at path.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	fp, err := s.fsPath(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fp)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat canvas %q: %w", path, err)
	}
	return true, nil
}

// ListPaths returns every stored canvas path, sorted.
func (s *Store) ListPaths(_ context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk data dir: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Close is a no-op for the file store.
func (s *Store) Close() error { return nil }
