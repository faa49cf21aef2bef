package server

import (
	"context"
	"log/slog"

	"github.com/weftworks/canvasd/internal/enrich"
	"github.com/weftworks/canvasd/internal/events"
	"github.com/weftworks/canvasd/internal/op"
	"github.com/weftworks/canvasd/internal/store"
)

// CanvasServer serves the canvas editing API over HTTP.
type CanvasServer struct {
	store     store.Store
	executor  *op.Executor
	reader    enrich.ContentReader // nil disables file content inlining
	publisher events.Publisher
	sseHub    *sseHub
	log       *slog.Logger
}

// NewCanvasServer returns a server backed by the given store and publisher.
// reader may be nil when no vault is configured. A nil logger falls back to
// slog.Default().
func NewCanvasServer(s store.Store, reader enrich.ContentReader, p events.Publisher, log *slog.Logger) *CanvasServer {
	if log == nil {
		log = slog.Default()
	}
	return &CanvasServer{
		store:     s,
		executor:  op.NewExecutor(s, log),
		reader:    reader,
		publisher: p,
		sseHub:    newSSEHub(),
		log:       log,
	}
}

// publish sends an event to NATS and fans it out to SSE clients. Publishing
// is best effort; failures are logged and do not affect the response.
func (s *CanvasServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.log.Warn("failed to publish event", "topic", topic, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// publishBatch emits one event per successful operation in a persisted batch,
// followed by a canvas.saved event.
func (s *CanvasServer) publishBatch(ctx context.Context, path, summary string, ops []op.Operation, br *op.BatchResult) {
	applied, failed := 0, 0
	for i, res := range br.Results {
		if !res.Success {
			failed++
			continue
		}
		applied++
		switch v := ops[i].(type) {
		case op.AddNode:
			s.publish(ctx, events.TopicNodeAdded, events.NodeAdded{Path: path, Node: v.Node})
		case op.UpdateNode:
			s.publish(ctx, events.TopicNodeUpdated, events.NodeUpdated{Path: path, NodeID: v.ID})
		case op.DeleteNode:
			s.publish(ctx, events.TopicNodeDeleted, events.NodeDeleted{
				Path:         path,
				NodeID:       v.ID,
				RemovedEdges: res.AffectedIDs[1:],
			})
		case op.AddEdge:
			edge := v.Edge
			s.publish(ctx, events.TopicEdgeAdded, events.EdgeAdded{Path: path, Edge: &edge})
		case op.DeleteEdge:
			s.publish(ctx, events.TopicEdgeDeleted, events.EdgeDeleted{Path: path, EdgeID: v.ID})
		}
	}
	if applied > 0 {
		s.publish(ctx, events.TopicCanvasSaved, events.CanvasSaved{
			Path:    path,
			Summary: summary,
			Applied: applied,
			Failed:  failed,
		})
	}
}
