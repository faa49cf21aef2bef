package model

import (
	"errors"
	"fmt"
)

// Integrity errors returned by Document mutations.
var (
	ErrDuplicateID      = errors.New("duplicate id")
	ErrNotFound         = errors.New("not found")
	ErrEndpointNotFound = errors.New("endpoint not found")
	ErrUnknownKind      = errors.New("unknown node kind")
)

// Document is the in-memory node-and-edge graph of one canvas. Node and edge
// order is preserved as authored so that serialization and transcript output
// stay deterministic.
//
// A Document is not safe for concurrent use; callers serialize access per
// destination (see the executor's per-path locking).
type Document struct {
	Nodes []Node
	Edges []*Edge
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Node returns the node with the given id, if present.
func (d *Document) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.Base().ID == id {
			return n, true
		}
	}
	return nil, false
}

// Edge returns the edge with the given id, if present.
func (d *Document) Edge(id string) (*Edge, bool) {
	for _, e := range d.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// AddNode inserts a node. It fails with ErrDuplicateID if a node with the
// same id already exists.
func (d *Document) AddNode(n Node) error {
	id := n.Base().ID
	if _, ok := d.Node(id); ok {
		return fmt.Errorf("node %q: %w", id, ErrDuplicateID)
	}
	d.Nodes = append(d.Nodes, n)
	return nil
}

// RemoveNode deletes the node with the given id and every edge referencing it
// as an endpoint. It returns the ids of the removed edges, and ErrNotFound if
// no such node exists. A dangling edge is never left behind.
func (d *Document) RemoveNode(id string) (removedEdges []string, err error) {
	idx := -1
	for i, n := range d.Nodes {
		if n.Base().ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	d.Nodes = append(d.Nodes[:idx], d.Nodes[idx+1:]...)

	kept := d.Edges[:0]
	for _, e := range d.Edges {
		if e.FromNode == id || e.ToNode == id {
			removedEdges = append(removedEdges, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	d.Edges = kept
	return removedEdges, nil
}

// AddEdge inserts an edge. Both endpoints must name existing nodes at the
// moment of insertion; otherwise it fails with ErrEndpointNotFound. A
// duplicate edge id fails with ErrDuplicateID.
func (d *Document) AddEdge(e *Edge) error {
	if _, ok := d.Edge(e.ID); ok {
		return fmt.Errorf("edge %q: %w", e.ID, ErrDuplicateID)
	}
	if _, ok := d.Node(e.FromNode); !ok {
		return fmt.Errorf("edge %q from %q: %w", e.ID, e.FromNode, ErrEndpointNotFound)
	}
	if _, ok := d.Node(e.ToNode); !ok {
		return fmt.Errorf("edge %q to %q: %w", e.ID, e.ToNode, ErrEndpointNotFound)
	}
	d.Edges = append(d.Edges, e)
	return nil
}

// RemoveEdge deletes the edge with the given id, failing with ErrNotFound if
// absent.
func (d *Document) RemoveEdge(id string) error {
	for i, e := range d.Edges {
		if e.ID == id {
			d.Edges = append(d.Edges[:i], d.Edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("edge %q: %w", id, ErrNotFound)
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{}
	if d.Nodes != nil {
		c.Nodes = make([]Node, len(d.Nodes))
		for i, n := range d.Nodes {
			c.Nodes[i] = n.Clone()
		}
	}
	if d.Edges != nil {
		c.Edges = make([]*Edge, len(d.Edges))
		for i, e := range d.Edges {
			c.Edges[i] = e.Clone()
		}
	}
	return c
}
