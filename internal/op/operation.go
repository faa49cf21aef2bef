// Package op defines canvas edit operations and the executor that applies
// them to a document with referential-integrity guarantees.
package op

import (
	"fmt"

	"github.com/weftworks/canvasd/internal/model"
)

// Operation is the closed set of canvas edit instructions.
type Operation interface {
	// Name returns the wire name of the operation ("add_node", ...).
	Name() string

	sealed()
}

// AddNode inserts a fully-formed node into the canvas.
type AddNode struct {
	Node model.Node
}

// UpdateNode applies a partial update to an existing node. Only non-nil
// fields are touched. Content applies to text nodes only; Label applies to
// group nodes only; geometry and color apply to any kind.
type UpdateNode struct {
	ID      string
	X       *int
	Y       *int
	Width   *int
	Height  *int
	Color   *string
	Content *string
	Label   *string
}

// DeleteNode removes a node and, cascading, every edge touching it.
type DeleteNode struct {
	ID string
}

// AddEdge inserts an edge. The ID is auto-generated at parse time when the
// instruction did not supply one; sides default to right/left at execution.
type AddEdge struct {
	Edge model.Edge
}

// DeleteEdge removes an edge by id.
type DeleteEdge struct {
	ID string
}

func (AddNode) Name() string    { return "add_node" }
func (UpdateNode) Name() string { return "update_node" }
func (DeleteNode) Name() string { return "delete_node" }
func (AddEdge) Name() string    { return "add_edge" }
func (DeleteEdge) Name() string { return "delete_edge" }

func (AddNode) sealed()    {}
func (UpdateNode) sealed() {}
func (DeleteNode) sealed() {}
func (AddEdge) sealed()    {}
func (DeleteEdge) sealed() {}

// String renders a short human-readable description, used in logs.
func describe(o Operation) string {
	switch v := o.(type) {
	case AddNode:
		return fmt.Sprintf("add_node %s (%s)", v.Node.Base().ID, v.Node.Kind())
	case UpdateNode:
		return "update_node " + v.ID
	case DeleteNode:
		return "delete_node " + v.ID
	case AddEdge:
		return fmt.Sprintf("add_edge %s (%s -> %s)", v.Edge.ID, v.Edge.FromNode, v.Edge.ToNode)
	case DeleteEdge:
		return "delete_edge " + v.ID
	}
	return "unknown"
}
