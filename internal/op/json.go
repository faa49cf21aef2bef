package op

import (
	"encoding/json"
	"fmt"

	"github.com/weftworks/canvasd/internal/idgen"
	"github.com/weftworks/canvasd/internal/model"
)

// Default node geometry applied when a creation instruction omits dimensions.
const (
	DefaultWidth  = 200
	DefaultHeight = 100
)

// wireOp is the flat JSON form of an operation, discriminated by "op". It
// exists only at the codec boundary.
type wireOp struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`

	// add_node
	Type  model.NodeKind `json:"type,omitempty"`
	Text  string         `json:"text,omitempty"`
	File  string         `json:"file,omitempty"`
	URL   string         `json:"url,omitempty"`
	Label *string        `json:"label,omitempty"`

	// geometry; pointers so update_node can distinguish absent from zero
	X      *int    `json:"x,omitempty"`
	Y      *int    `json:"y,omitempty"`
	Width  *int    `json:"width,omitempty"`
	Height *int    `json:"height,omitempty"`
	Color  *string `json:"color,omitempty"`

	// update_node text payload
	Content *string `json:"content,omitempty"`

	// add_edge
	From     string     `json:"from,omitempty"`
	To       string     `json:"to,omitempty"`
	FromSide model.Side `json:"fromSide,omitempty"`
	ToSide   model.Side `json:"toSide,omitempty"`
}

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

func strOr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

func decodeWire(w wireOp) (Operation, error) {
	switch w.Op {
	case "add_node":
		base := model.NodeBase{
			ID:     w.ID,
			X:      intOr(w.X, 0),
			Y:      intOr(w.Y, 0),
			Width:  intOr(w.Width, DefaultWidth),
			Height: intOr(w.Height, DefaultHeight),
			Color:  strOr(w.Color),
		}
		if w.ID == "" {
			return nil, errf(CodeMissingField, "add_node requires an id")
		}
		switch w.Type {
		case model.KindText:
			return AddNode{Node: &model.TextNode{NodeBase: base, Text: w.Text}}, nil
		case model.KindFile:
			return AddNode{Node: &model.FileNode{NodeBase: base, File: w.File}}, nil
		case model.KindLink:
			return AddNode{Node: &model.LinkNode{NodeBase: base, URL: w.URL}}, nil
		case model.KindGroup:
			return AddNode{Node: &model.GroupNode{NodeBase: base, Label: strOr(w.Label)}}, nil
		default:
			return nil, errf(CodeUnknownKind, "add_node %q: unknown type %q", w.ID, w.Type)
		}

	case "update_node":
		if w.ID == "" {
			return nil, errf(CodeMissingField, "update_node requires an id")
		}
		return UpdateNode{
			ID:      w.ID,
			X:       w.X,
			Y:       w.Y,
			Width:   w.Width,
			Height:  w.Height,
			Color:   w.Color,
			Content: w.Content,
			Label:   w.Label,
		}, nil

	case "delete_node":
		if w.ID == "" {
			return nil, errf(CodeMissingField, "delete_node requires an id")
		}
		return DeleteNode{ID: w.ID}, nil

	case "add_edge":
		if w.From == "" || w.To == "" {
			return nil, errf(CodeMissingField, "add_edge requires from and to")
		}
		id := w.ID
		if id == "" {
			var err error
			id, err = idgen.NewEdgeID()
			if err != nil {
				return nil, fmt.Errorf("generate edge id: %w", err)
			}
		}
		return AddEdge{Edge: model.Edge{
			ID:       id,
			FromNode: w.From,
			ToNode:   w.To,
			FromSide: w.FromSide,
			ToSide:   w.ToSide,
			Label:    strOr(w.Label),
			Color:    strOr(w.Color),
		}}, nil

	case "delete_edge":
		if w.ID == "" {
			return nil, errf(CodeMissingField, "delete_edge requires an id")
		}
		return DeleteEdge{ID: w.ID}, nil
	}
	return nil, errf(CodeUnknownKind, "unknown operation %q", w.Op)
}

func encodeWire(o Operation) wireOp {
	switch v := o.(type) {
	case AddNode:
		b := v.Node.Base()
		w := wireOp{
			Op: "add_node", ID: b.ID, Type: v.Node.Kind(),
			X: &b.X, Y: &b.Y, Width: &b.Width, Height: &b.Height,
		}
		if b.Color != "" {
			w.Color = &b.Color
		}
		switch n := v.Node.(type) {
		case *model.TextNode:
			w.Text = n.Text
		case *model.FileNode:
			w.File = n.File
		case *model.LinkNode:
			w.URL = n.URL
		case *model.GroupNode:
			if n.Label != "" {
				w.Label = &n.Label
			}
		}
		return w
	case UpdateNode:
		return wireOp{
			Op: "update_node", ID: v.ID,
			X: v.X, Y: v.Y, Width: v.Width, Height: v.Height,
			Color: v.Color, Content: v.Content, Label: v.Label,
		}
	case DeleteNode:
		return wireOp{Op: "delete_node", ID: v.ID}
	case AddEdge:
		w := wireOp{
			Op: "add_edge", ID: v.Edge.ID,
			From: v.Edge.FromNode, To: v.Edge.ToNode,
			FromSide: v.Edge.FromSide, ToSide: v.Edge.ToSide,
		}
		if v.Edge.Label != "" {
			w.Label = &v.Edge.Label
		}
		if v.Edge.Color != "" {
			w.Color = &v.Edge.Color
		}
		return w
	case DeleteEdge:
		return wireOp{Op: "delete_edge", ID: v.ID}
	}
	return wireOp{}
}

// DecodeList parses a JSON array of wire operations into typed operations.
func DecodeList(data []byte) ([]Operation, error) {
	var wires []wireOp
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	ops := make([]Operation, 0, len(wires))
	for i, w := range wires {
		o, err := decodeWire(w)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, o)
	}
	return ops, nil
}

// EncodeList renders operations as their wire JSON array.
func EncodeList(ops []Operation) ([]byte, error) {
	wires := make([]wireOp, len(ops))
	for i, o := range ops {
		wires[i] = encodeWire(o)
	}
	return json.Marshal(wires)
}
