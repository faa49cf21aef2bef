package model

import (
	"encoding/json"
	"fmt"
)

// nodeRecord is the flat persisted form of a node, discriminated by "type".
// It exists only at the codec boundary; application code works with the Node
// variants.
type nodeRecord struct {
	ID     string   `json:"id"`
	Type   NodeKind `json:"type"`
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Color  string   `json:"color,omitempty"`
	Text   string   `json:"text,omitempty"`
	File   string   `json:"file,omitempty"`
	URL    string   `json:"url,omitempty"`
	Label  string   `json:"label,omitempty"`
}

func encodeNode(n Node) nodeRecord {
	b := n.Base()
	r := nodeRecord{
		ID:     b.ID,
		Type:   n.Kind(),
		X:      b.X,
		Y:      b.Y,
		Width:  b.Width,
		Height: b.Height,
		Color:  b.Color,
	}
	switch v := n.(type) {
	case *TextNode:
		r.Text = v.Text
	case *FileNode:
		r.File = v.File
	case *LinkNode:
		r.URL = v.URL
	case *GroupNode:
		r.Label = v.Label
	}
	return r
}

func decodeNode(r nodeRecord) (Node, error) {
	base := NodeBase{
		ID:     r.ID,
		X:      r.X,
		Y:      r.Y,
		Width:  r.Width,
		Height: r.Height,
		Color:  r.Color,
	}
	switch r.Type {
	case KindText:
		return &TextNode{NodeBase: base, Text: r.Text}, nil
	case KindFile:
		return &FileNode{NodeBase: base, File: r.File}, nil
	case KindLink:
		return &LinkNode{NodeBase: base, URL: r.URL}, nil
	case KindGroup:
		return &GroupNode{NodeBase: base, Label: r.Label}, nil
	default:
		return nil, fmt.Errorf("node %q type %q: %w", r.ID, r.Type, ErrUnknownKind)
	}
}

// MarshalJSON emits the flat persisted record for the node.
func (n *TextNode) MarshalJSON() ([]byte, error)  { return json.Marshal(encodeNode(n)) }
func (n *FileNode) MarshalJSON() ([]byte, error)  { return json.Marshal(encodeNode(n)) }
func (n *LinkNode) MarshalJSON() ([]byte, error)  { return json.Marshal(encodeNode(n)) }
func (n *GroupNode) MarshalJSON() ([]byte, error) { return json.Marshal(encodeNode(n)) }

// DecodeNode parses a single flat node record.
func DecodeNode(data []byte) (Node, error) {
	var r nodeRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	return decodeNode(r)
}

// MarshalJSON emits the persisted document form {"nodes":[...],"edges":[...]}.
// Empty collections are encoded as empty arrays, not null.
func (d *Document) MarshalJSON() ([]byte, error) {
	nodes := make([]nodeRecord, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		nodes = append(nodes, encodeNode(n))
	}
	edges := d.Edges
	if edges == nil {
		edges = []*Edge{}
	}
	return json.Marshal(struct {
		Nodes []nodeRecord `json:"nodes"`
		Edges []*Edge      `json:"edges"`
	}{Nodes: nodes, Edges: edges})
}

// UnmarshalJSON parses the persisted document form, constructing the proper
// node variant per record.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes []nodeRecord `json:"nodes"`
		Edges []*Edge      `json:"edges"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	d.Nodes = d.Nodes[:0]
	for _, r := range raw.Nodes {
		n, err := decodeNode(r)
		if err != nil {
			return err
		}
		d.Nodes = append(d.Nodes, n)
	}
	d.Edges = raw.Edges
	return nil
}
