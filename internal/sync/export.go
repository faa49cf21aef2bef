package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	CanvasCount int       `json:"canvas_count"`
}

// canvasRecord is one exported canvas line.
type canvasRecord struct {
	Type     string          `json:"type"`
	Path     string          `json:"path"`
	Revision int64           `json:"revision"`
	Doc      *model.Document `json:"doc"`
}

// ExportJSONL writes every canvas in the store as JSONL to w: a header line
// followed by one line per canvas, in the store's lexical path order.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	paths, err := s.ListPaths(ctx)
	if err != nil {
		return fmt.Errorf("list canvases: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		CanvasCount: len(paths),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, p := range paths {
		doc, rev, err := s.Load(ctx, p)
		if err != nil {
			return fmt.Errorf("load canvas %q: %w", p, err)
		}
		if err := enc.Encode(canvasRecord{
			Type:     "canvas",
			Path:     p,
			Revision: rev,
			Doc:      doc,
		}); err != nil {
			return fmt.Errorf("encode canvas %q: %w", p, err)
		}
	}

	return nil
}
