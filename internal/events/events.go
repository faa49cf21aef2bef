package events

import (
	"context"

	"github.com/weftworks/canvasd/internal/model"
)

// Event topic constants
const (
	TopicNodeAdded   = "canvas.node.added"
	TopicNodeUpdated = "canvas.node.updated"
	TopicNodeDeleted = "canvas.node.deleted"
	TopicEdgeAdded   = "canvas.edge.added"
	TopicEdgeDeleted = "canvas.edge.deleted"

	// Emitted once per persisted batch.
	TopicCanvasSaved = "canvas.saved"
)

// Event types

type NodeAdded struct {
	Path string     `json:"path"`
	Node model.Node `json:"node"`
}

type NodeUpdated struct {
	Path   string `json:"path"`
	NodeID string `json:"node_id"`
}

type NodeDeleted struct {
	Path string `json:"path"`
	// NodeID plus the ids of every edge removed by the cascade.
	NodeID       string   `json:"node_id"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
}

type EdgeAdded struct {
	Path string      `json:"path"`
	Edge *model.Edge `json:"edge"`
}

type EdgeDeleted struct {
	Path   string `json:"path"`
	EdgeID string `json:"edge_id"`
}

type CanvasSaved struct {
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
	Applied int    `json:"applied"`
	Failed  int    `json:"failed"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
