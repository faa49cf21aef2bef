package enrich

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrContentNotFound indicates a file node references a path with no content
// behind it.
var ErrContentNotFound = errors.New("referenced content not found")

// FSReader reads referenced note content from a vault directory on the local
// filesystem.
type FSReader struct {
	root string
}

// Compile-time check that FSReader implements ContentReader.
var _ ContentReader = (*FSReader)(nil)

// NewFSReader returns a reader rooted at the given vault directory.
func NewFSReader(root string) *FSReader {
	return &FSReader{root: root}
}

// ReadContent reads the file at the given vault-relative path. Paths escaping
// the vault are rejected.
func (r *FSReader) ReadContent(_ context.Context, path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%q escapes the vault", path)
	}
	data, err := os.ReadFile(filepath.Join(r.root, clean))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%q: %w", path, ErrContentNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(data), nil
}
