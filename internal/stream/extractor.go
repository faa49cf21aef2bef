// Package stream incrementally recognizes canvas edit instructions in a
// progressively-arriving model output stream.
//
// The extractor keeps a single growing buffer. Each Feed call appends the
// fragment, extracts every instruction tag that is now syntactically whole in
// one left-to-right pass, removes the matched text, and keeps only the
// trailing text that could still become a tag. Instructions completing in the
// same fragment are emitted in source order.
package stream

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/weftworks/canvasd/internal/idgen"
	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/op"
)

// Drop records an instruction tag that was recognized but discarded because
// its required attributes were missing or invalid.
type Drop struct {
	Tag    string
	Reason string
}

// Extractor converts text fragments into typed operations. It is not safe
// for concurrent use; one extractor serves one stream.
type Extractor struct {
	buf     string
	path    string
	summary string
	dropped []Drop
	log     *slog.Logger

	// newEdgeID is swappable in tests for deterministic ids.
	newEdgeID func() (string, error)
}

// NewExtractor returns an extractor ready to consume a stream. A nil logger
// falls back to slog.Default().
func NewExtractor(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log, newEdgeID: idgen.NewEdgeID}
}

// Path returns the destination captured from the <canvas_edit> wrapper, or
// "" if it has not appeared yet. Once captured it is never overwritten.
func (x *Extractor) Path() string { return x.path }

// Summary returns the human-readable summary captured from the wrapper, or
// "" if it has not appeared yet.
func (x *Extractor) Summary() string { return x.summary }

// Dropped returns the instructions discarded since the last Reset.
func (x *Extractor) Dropped() []Drop { return x.dropped }

// Reset clears all state for reuse on a new stream.
func (x *Extractor) Reset() {
	x.buf = ""
	x.path = ""
	x.summary = ""
	x.dropped = nil
}

// Tag patterns. The wrapper open tag is consumed for its attributes only;
// the wrapper close tag carries nothing and is consumed to keep the buffer
// from growing. Paired add_node requires a non-self-closing open tag.
var (
	reAttr = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)="([^"]*)"`)

	tagPatterns = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"canvas_edit", regexp.MustCompile(`<canvas_edit(?:\s[^>]*?)?>`)},
		{"/canvas_edit", regexp.MustCompile(`</canvas_edit>`)},
		{"add_node", regexp.MustCompile(`(?s)<add_node(\s[^>]*?)?/>|<add_node(\s[^>]*?)?>(.*?)</add_node>`)},
		{"update_node", regexp.MustCompile(`<update_node(\s[^>]*?)?/>`)},
		{"delete_node", regexp.MustCompile(`<delete_node(\s[^>]*?)?/>`)},
		{"add_edge", regexp.MustCompile(`<add_edge(\s[^>]*?)?/>`)},
		{"delete_edge", regexp.MustCompile(`<delete_edge(\s[^>]*?)?/>`)},
	}

	// tagOpeners are the literal prefixes a retained buffer tail may begin
	// with; anything that cannot become one of these is discarded.
	tagOpeners = []string{
		"<canvas_edit",
		"</canvas_edit>",
		"<add_node",
		"<update_node",
		"<delete_node",
		"<add_edge",
		"<delete_edge",
	}
)

// match is one complete tag found in the buffer.
type match struct {
	tag        string
	start, end int
	attrText   string
	inner      string // paired add_node payload
}

// Feed appends a fragment and returns every operation whose markup is now
// complete, in source order. Re-chunking the same text arbitrarily yields the
// same operations once all of it has arrived.
func (x *Extractor) Feed(fragment string) []op.Operation {
	x.buf += fragment

	var ops []op.Operation
	for {
		m, ok := x.earliest(x.buf)
		if !ok {
			break
		}
		x.buf = x.buf[:m.start] + x.buf[m.end:]

		switch m.tag {
		case "canvas_edit":
			x.captureHeader(m.attrText)
		case "/canvas_edit":
			// wrapper closer, nothing to capture
		default:
			if o, drop := x.build(m); drop == nil {
				ops = append(ops, o)
			} else {
				x.dropped = append(x.dropped, *drop)
				x.log.Debug("dropped malformed instruction", "tag", drop.Tag, "reason", drop.Reason)
			}
		}
	}

	x.buf = x.buf[carryStart(x.buf):]
	return ops
}

// earliest finds the first complete tag of any shape in s.
func (x *Extractor) earliest(s string) (match, bool) {
	best := match{start: -1}
	for _, p := range tagPatterns {
		loc := p.re.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		if best.start >= 0 && loc[0] >= best.start {
			continue
		}
		m := match{tag: p.name, start: loc[0], end: loc[1]}
		switch p.name {
		case "canvas_edit":
			m.attrText = s[loc[0]:loc[1]]
		case "/canvas_edit":
			// no attributes
		case "add_node":
			// group 1: self-closing attrs; groups 2+3: paired attrs and
			// payload. The payload group is present iff the paired
			// alternative matched.
			if loc[6] >= 0 {
				if loc[4] >= 0 {
					m.attrText = s[loc[4]:loc[5]]
				}
				m.inner = s[loc[6]:loc[7]]
			} else if loc[2] >= 0 {
				m.attrText = s[loc[2]:loc[3]]
			}
		default:
			if loc[2] >= 0 {
				m.attrText = s[loc[2]:loc[3]]
			}
		}
		best = m
	}
	return best, best.start >= 0
}

// captureHeader pulls path and summary from the wrapper's attributes. Each is
// captured at most once per stream.
func (x *Extractor) captureHeader(attrText string) {
	attrs := parseAttrs(attrText)
	if x.path == "" {
		x.path = attrs["path"]
	}
	if x.summary == "" {
		x.summary = attrs["summary"]
	}
}

// carryStart returns the index from which the buffer tail must be retained:
// the earliest position that is, or could still grow into, a recognized tag.
func carryStart(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		rest := s[i:]
		for _, opener := range tagOpeners {
			if strings.HasPrefix(rest, opener) || strings.HasPrefix(opener, rest) {
				return i
			}
		}
	}
	return len(s)
}

// parseAttrs extracts every key="value" pair into a map. The map stays
// inside the parser; shapes convert it immediately into typed operations.
func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range reAttr.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

// intOr parses a numeric attribute, falling back to def when absent or
// unparsable.
func intOr(attrs map[string]string, key string, def int) int {
	v, ok := attrs[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// intPtr parses a numeric attribute into a pointer, nil when absent or
// unparsable (partial updates leave absent fields untouched).
func intPtr(attrs map[string]string, key string) *int {
	v, ok := attrs[key]
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}

func strPtr(attrs map[string]string, key string) *string {
	v, ok := attrs[key]
	if !ok {
		return nil
	}
	return &v
}

// build converts a matched tag into a typed operation, or reports why it was
// dropped.
func (x *Extractor) build(m match) (op.Operation, *Drop) {
	attrs := parseAttrs(m.attrText)

	switch m.tag {
	case "add_node":
		id := attrs["id"]
		kind := model.NodeKind(attrs["type"])
		if id == "" || attrs["type"] == "" {
			return nil, &Drop{Tag: m.tag, Reason: "missing id or type"}
		}
		base := model.NodeBase{
			ID:     id,
			X:      intOr(attrs, "x", 0),
			Y:      intOr(attrs, "y", 0),
			Width:  intOr(attrs, "width", op.DefaultWidth),
			Height: intOr(attrs, "height", op.DefaultHeight),
			Color:  attrs["color"],
		}
		switch kind {
		case model.KindText:
			return op.AddNode{Node: &model.TextNode{NodeBase: base, Text: strings.TrimSpace(m.inner)}}, nil
		case model.KindFile:
			return op.AddNode{Node: &model.FileNode{NodeBase: base, File: attrs["file"]}}, nil
		case model.KindLink:
			return op.AddNode{Node: &model.LinkNode{NodeBase: base, URL: attrs["url"]}}, nil
		case model.KindGroup:
			return op.AddNode{Node: &model.GroupNode{NodeBase: base, Label: attrs["label"]}}, nil
		default:
			return nil, &Drop{Tag: m.tag, Reason: "unknown type " + attrs["type"]}
		}

	case "update_node":
		id := attrs["id"]
		if id == "" {
			return nil, &Drop{Tag: m.tag, Reason: "missing id"}
		}
		return op.UpdateNode{
			ID:      id,
			X:       intPtr(attrs, "x"),
			Y:       intPtr(attrs, "y"),
			Width:   intPtr(attrs, "width"),
			Height:  intPtr(attrs, "height"),
			Color:   strPtr(attrs, "color"),
			Content: strPtr(attrs, "content"),
			Label:   strPtr(attrs, "label"),
		}, nil

	case "delete_node":
		if attrs["id"] == "" {
			return nil, &Drop{Tag: m.tag, Reason: "missing id"}
		}
		return op.DeleteNode{ID: attrs["id"]}, nil

	case "add_edge":
		from, to := attrs["from"], attrs["to"]
		if from == "" || to == "" {
			return nil, &Drop{Tag: m.tag, Reason: "missing from or to"}
		}
		id := attrs["id"]
		if id == "" {
			generated, err := x.newEdgeID()
			if err != nil {
				return nil, &Drop{Tag: m.tag, Reason: "id generation failed: " + err.Error()}
			}
			id = generated
		}
		return op.AddEdge{Edge: model.Edge{
			ID:       id,
			FromNode: from,
			ToNode:   to,
			FromSide: model.Side(attrs["fromSide"]),
			ToSide:   model.Side(attrs["toSide"]),
			Label:    attrs["label"],
			Color:    attrs["color"],
		}}, nil

	case "delete_edge":
		if attrs["id"] == "" {
			return nil, &Drop{Tag: m.tag, Reason: "missing id"}
		}
		return op.DeleteEdge{ID: attrs["id"]}, nil
	}
	return nil, &Drop{Tag: m.tag, Reason: "unrecognized tag"}
}
