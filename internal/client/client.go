// Package client provides a transport-agnostic interface for the canvasd
// service and an HTTP/JSON implementation that talks to the canvasd REST API.
package client

import (
	"context"
	"encoding/json"

	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/op"
)

// CanvasClient is the interface that all canvasctl commands use to
// communicate with the canvasd server.
type CanvasClient interface {
	// Editing
	ApplyEdits(ctx context.Context, path, stream string) (*EditResult, error)
	ApplyOperations(ctx context.Context, path string, ops []op.Operation) (*EditResult, error)

	// Documents
	GetCanvas(ctx context.Context, path string) (*model.Document, error)
	PutCanvas(ctx context.Context, path string, doc *model.Document) error
	ListCanvases(ctx context.Context) ([]string, error)
	GetTranscript(ctx context.Context, path string) (string, error)

	// Events
	WatchEvents(ctx context.Context, topics []string) (<-chan Event, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// EditResult is the server's response to an edit or operation batch.
type EditResult struct {
	Path    string          `json:"path"`
	Summary string          `json:"summary,omitempty"`
	Dropped []DroppedTag    `json:"dropped,omitempty"`
	Result  *op.BatchResult `json:"result"`
	Error   string          `json:"error,omitempty"`
}

// DroppedTag reports an instruction the server recognized but discarded.
type DroppedTag struct {
	Tag    string `json:"tag"`
	Reason string `json:"reason"`
}

// Event is one server-sent event from the watch stream.
type Event struct {
	ID    uint64
	Topic string
	Data  json.RawMessage
}
