package model

// Side names the side of a node's bounding box an edge attaches to.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// String returns the string representation of the side.
func (s Side) String() string {
	return string(s)
}

// IsValid checks whether the side is a known value. The empty side is not
// valid; callers treat absence separately.
func (s Side) IsValid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// ContainsLabel is the label carried by synthetic containment edges derived
// from group geometry. Edges with this label are never persisted.
const ContainsLabel = "contains"

// Edge is a directed, optionally labeled connection between two node ids.
type Edge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
	FromSide Side   `json:"fromSide,omitempty"`
	ToSide   Side   `json:"toSide,omitempty"`
	Label    string `json:"label,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Clone returns a copy of the edge.
func (e *Edge) Clone() *Edge {
	c := *e
	return &c
}
