// Package model defines the canvas document types: nodes, edges, and the
// document aggregate with its referential-integrity rules.
package model

// NodeKind discriminates the four node variants of a canvas.
type NodeKind string

const (
	KindText  NodeKind = "text"
	KindFile  NodeKind = "file"
	KindLink  NodeKind = "link"
	KindGroup NodeKind = "group"
)

// String returns the string representation of the kind.
func (k NodeKind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k NodeKind) IsValid() bool {
	switch k {
	case KindText, KindFile, KindLink, KindGroup:
		return true
	}
	return false
}

// NodeBase holds the geometry and identity shared by every node kind.
type NodeBase struct {
	ID     string
	X      int
	Y      int
	Width  int
	Height int
	Color  string
}

// Node is the closed set of canvas node variants. Each variant carries the
// shared base plus exactly the payload its kind requires.
type Node interface {
	// Base returns the shared identity and geometry of the node.
	Base() *NodeBase
	// Kind returns the variant discriminator.
	Kind() NodeKind
	// Clone returns a deep copy of the node.
	Clone() Node

	sealed()
}

// TextNode is a box holding literal text.
type TextNode struct {
	NodeBase
	Text string
}

// FileNode is a box referencing a file by path.
type FileNode struct {
	NodeBase
	File string
}

// LinkNode is a box referencing a URL.
type LinkNode struct {
	NodeBase
	URL string
}

// GroupNode is a box that visually groups other nodes. The label is optional.
type GroupNode struct {
	NodeBase
	Label string
}

func (n *TextNode) Base() *NodeBase  { return &n.NodeBase }
func (n *FileNode) Base() *NodeBase  { return &n.NodeBase }
func (n *LinkNode) Base() *NodeBase  { return &n.NodeBase }
func (n *GroupNode) Base() *NodeBase { return &n.NodeBase }

func (n *TextNode) Kind() NodeKind  { return KindText }
func (n *FileNode) Kind() NodeKind  { return KindFile }
func (n *LinkNode) Kind() NodeKind  { return KindLink }
func (n *GroupNode) Kind() NodeKind { return KindGroup }

func (n *TextNode) Clone() Node  { c := *n; return &c }
func (n *FileNode) Clone() Node  { c := *n; return &c }
func (n *LinkNode) Clone() Node  { c := *n; return &c }
func (n *GroupNode) Clone() Node { c := *n; return &c }

func (n *TextNode) sealed()  {}
func (n *FileNode) sealed()  {}
func (n *LinkNode) sealed()  {}
func (n *GroupNode) sealed() {}

// Contains reports whether the point (x, y) lies within the node's bounding
// rectangle. Bounds are inclusive on all four sides.
func (b *NodeBase) Contains(x, y int) bool {
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}

// CenterX returns the horizontal center of the node's bounding rectangle.
func (b *NodeBase) CenterX() int { return b.X + b.Width/2 }

// CenterY returns the vertical center of the node's bounding rectangle.
func (b *NodeBase) CenterY() int { return b.Y + b.Height/2 }
