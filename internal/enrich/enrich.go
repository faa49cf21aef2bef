// Package enrich post-processes a loaded canvas for model consumption:
// inlining referenced content into each node, deriving synthetic containment
// edges from group geometry, and flattening the result into a deterministic
// transcript.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weftworks/canvasd/internal/idgen"
	"github.com/weftworks/canvasd/internal/model"
)

// ContentReader reads the content a file node references. Implementations
// resolve paths against whatever holds the referenced notes (a vault
// directory, object storage, ...).
type ContentReader interface {
	ReadContent(ctx context.Context, path string) (string, error)
}

// Node pairs a canvas node with its inlined content. Content is an
// enrichment-only view: the literal text for text nodes, the referenced
// file's content for file nodes, empty otherwise. It is never persisted.
type Node struct {
	model.Node
	Content string
}

// Canvas is the enriched view of a document: nodes with inlined content plus
// the persisted edges and the derived containment edges. It exists only to
// build transcripts and is discarded afterwards.
type Canvas struct {
	Nodes []Node
	Edges []*model.Edge
}

// Enrich builds the enriched view of a document: content inlined per node and
// containment edges appended after the persisted ones. Content read failures
// are logged and leave the node's content empty; enrichment is best effort.
// A nil reader skips file inlining entirely.
func Enrich(ctx context.Context, doc *model.Document, reader ContentReader, log *slog.Logger) (*Canvas, error) {
	if log == nil {
		log = slog.Default()
	}

	c := &Canvas{
		Nodes: make([]Node, 0, len(doc.Nodes)),
		Edges: append([]*model.Edge{}, doc.Edges...),
	}
	for _, n := range doc.Nodes {
		en := Node{Node: n}
		switch v := n.(type) {
		case *model.TextNode:
			en.Content = v.Text
		case *model.FileNode:
			if reader == nil {
				break
			}
			content, err := reader.ReadContent(ctx, v.File)
			if err != nil {
				log.Warn("inlining file content failed", "node", v.ID, "file", v.File, "err", err)
			} else {
				en.Content = content
			}
		}
		c.Nodes = append(c.Nodes, en)
	}

	contain, err := DeriveContainment(doc)
	if err != nil {
		return nil, err
	}
	c.Edges = append(c.Edges, contain...)
	return c, nil
}

// DeriveContainment emits one synthetic "contains" edge per (group, node)
// pair where the node's center lies within the group's bounding rectangle,
// inclusive on all four sides. A node inside two overlapping groups gets one
// edge per containing group; no nesting precedence is applied. The edges
// carry freshly generated ids and are never persisted.
func DeriveContainment(doc *model.Document) ([]*model.Edge, error) {
	var edges []*model.Edge
	for _, g := range doc.Nodes {
		group, ok := g.(*model.GroupNode)
		if !ok {
			continue
		}
		for _, n := range doc.Nodes {
			b := n.Base()
			if b.ID == group.ID {
				continue
			}
			if !group.Contains(b.CenterX(), b.CenterY()) {
				continue
			}
			id, err := idgen.NewEdgeID()
			if err != nil {
				return nil, fmt.Errorf("containment edge id: %w", err)
			}
			edges = append(edges, &model.Edge{
				ID:       id,
				FromNode: group.ID,
				ToNode:   b.ID,
				Label:    model.ContainsLabel,
			})
		}
	}
	return edges, nil
}
