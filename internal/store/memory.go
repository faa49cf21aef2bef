package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/weftworks/canvasd/internal/model"
)

// Memory is an in-memory Store used by tests and ephemeral setups. Documents
// are deep-copied on the way in and out so callers never share state with the
// store.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*model.Document
	revs map[string]int64
}

// Compile-time check that Memory implements Store.
var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]*model.Document),
		revs: make(map[string]int64),
	}
}

// Load reads the document at path.
func (m *Memory) Load(_ context.Context, path string) (*model.Document, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path]
	if !ok {
		return nil, 0, fmt.Errorf("%q: %w", path, ErrNotFound)
	}
	return doc.Clone(), m.revs[path], nil
}

// Save writes the document at path with an optimistic revision check.
func (m *Memory) Save(_ context.Context, path string, doc *model.Document, expectRev int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.revs[path]; cur != expectRev {
		return fmt.Errorf("%q: have %d, expected %d: %w", path, cur, expectRev, ErrRevisionConflict)
	}
	m.docs[path] = doc.Clone()
	m.revs[path] = expectRev + 1
	return nil
}

// Exists reports whether a canvas exists at path.
func (m *Memory) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[path]
	return ok, nil
}

// ListPaths returns every stored canvas path, sorted.
func (m *Memory) ListPaths(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.docs))
	for p := range m.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
