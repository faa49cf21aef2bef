package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/weftworks/canvasd/internal/model"
)

// mapReader serves content from a map for tests.
type mapReader map[string]string

func (m mapReader) ReadContent(_ context.Context, path string) (string, error) {
	c, ok := m[path]
	if !ok {
		return "", ErrContentNotFound
	}
	return c, nil
}

func group(id string, x, y, w, h int) *model.GroupNode {
	return &model.GroupNode{NodeBase: model.NodeBase{ID: id, X: x, Y: y, Width: w, Height: h}}
}

func text(id string, x, y, w, h int) *model.TextNode {
	return &model.TextNode{NodeBase: model.NodeBase{ID: id, X: x, Y: y, Width: w, Height: h}, Text: "t"}
}

func TestDeriveContainment_CenterInside(t *testing.T) {
	doc := model.NewDocument()
	doc.AddNode(group("g1", 0, 0, 400, 400))
	doc.AddNode(text("in", 100, 100, 100, 100))   // center (150,150) inside
	doc.AddNode(text("out", 500, 500, 100, 100))  // center (550,550) outside
	doc.AddNode(text("edge", 380, 380, 100, 100)) // center (430,430) outside

	edges, err := DeriveContainment(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d containment edges, want 1: %+v", len(edges), edges)
	}
	e := edges[0]
	if e.FromNode != "g1" || e.ToNode != "in" || e.Label != model.ContainsLabel {
		t.Errorf("edge = %+v", e)
	}
	if e.ID == "" {
		t.Error("containment edge has no generated id")
	}
}

// A node whose center falls exactly on the group's top-left corner is
// contained: the boundary is inclusive, not exclusive.
func TestDeriveContainment_InclusiveBoundary(t *testing.T) {
	doc := model.NewDocument()
	doc.AddNode(group("g1", 100, 100, 300, 300))
	// Center = (100, 100) == group's top-left corner.
	doc.AddNode(text("corner", 50, 50, 100, 100))

	edges, err := DeriveContainment(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("corner-centered node not contained; edges = %+v", edges)
	}
}

func TestDeriveContainment_OverlappingGroups(t *testing.T) {
	doc := model.NewDocument()
	doc.AddNode(group("g1", 0, 0, 400, 400))
	doc.AddNode(group("g2", 200, 200, 400, 400))
	doc.AddNode(text("both", 250, 250, 100, 100)) // center (300,300) inside both

	edges, err := DeriveContainment(doc)
	if err != nil {
		t.Fatal(err)
	}
	// g1 contains "both" and g2's center (400,400); g2 contains "both".
	froms := map[string]int{}
	for _, e := range edges {
		if e.ToNode == "both" {
			froms[e.FromNode]++
		}
	}
	if froms["g1"] != 1 || froms["g2"] != 1 {
		t.Errorf("node inside two overlapping groups: edges = %+v", edges)
	}
}

func TestEnrich_InlinesContent(t *testing.T) {
	doc := model.NewDocument()
	doc.AddNode(&model.TextNode{NodeBase: model.NodeBase{ID: "t1"}, Text: "literal"})
	doc.AddNode(&model.FileNode{NodeBase: model.NodeBase{ID: "f1"}, File: "notes/a.md"})
	doc.AddNode(&model.FileNode{NodeBase: model.NodeBase{ID: "f2"}, File: "gone.md"})
	doc.AddNode(&model.LinkNode{NodeBase: model.NodeBase{ID: "l1"}, URL: "https://example.com"})

	c, err := Enrich(context.Background(), doc, mapReader{"notes/a.md": "# Plan\nDo it."}, nil)
	if err != nil {
		t.Fatal(err)
	}
	byID := map[string]string{}
	for _, n := range c.Nodes {
		byID[n.Base().ID] = n.Content
	}
	if byID["t1"] != "literal" {
		t.Errorf("text node content = %q", byID["t1"])
	}
	if byID["f1"] != "# Plan\nDo it." {
		t.Errorf("file node content = %q", byID["f1"])
	}
	if byID["f2"] != "" {
		t.Errorf("missing file content = %q, want empty (best effort)", byID["f2"])
	}
	if byID["l1"] != "" {
		t.Errorf("link node content = %q, want empty", byID["l1"])
	}
}

func TestFlatten_Deterministic(t *testing.T) {
	doc := model.NewDocument()
	doc.AddNode(group("g1", 0, 0, 600, 400))
	doc.AddNode(&model.TextNode{NodeBase: model.NodeBase{ID: "t1", X: 50, Y: 50, Width: 200, Height: 100}, Text: "hello\nworld"})
	doc.AddNode(&model.FileNode{NodeBase: model.NodeBase{ID: "f1", X: 300, Y: 50, Width: 200, Height: 100}, File: "a.md"})
	doc.AddEdge(&model.Edge{ID: "e1", FromNode: "t1", ToNode: "f1", Label: "refs"})
	doc.AddEdge(&model.Edge{ID: "e2", FromNode: "f1", ToNode: "t1"})

	c, err := Enrich(context.Background(), doc, mapReader{"a.md": "body"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	first := Flatten(c)
	second := Flatten(c)
	if first != second {
		t.Fatal("flattening the same canvas twice produced different bytes")
	}

	if !strings.HasPrefix(first, "Canvas: 3 nodes, 4 edges\n") {
		t.Errorf("header = %q", strings.SplitN(first, "\n", 2)[0])
	}
	for _, want := range []string{
		"[group g1] at (0, 0) size 600x400",
		"label: (no label)",
		"[text t1] at (50, 50) size 200x100",
		"  hello\n  world",
		"file: a.md",
		"  body",
		"t1 -> f1 \"refs\"",
		"f1 -> t1\n",
		"g1 -> t1 \"contains\"",
	} {
		if !strings.Contains(first, want) {
			t.Errorf("transcript missing %q:\n%s", want, first)
		}
	}
}

func TestFSReader(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "notes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes", "a.md"), []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewFSReader(dir)
	ctx := context.Background()

	got, err := r.ReadContent(ctx, "notes/a.md")
	if err != nil || got != "content" {
		t.Errorf("ReadContent = %q, %v", got, err)
	}
	if _, err := r.ReadContent(ctx, "missing.md"); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("missing file: %v, want ErrContentNotFound", err)
	}
	if _, err := r.ReadContent(ctx, "../escape.md"); err == nil {
		t.Error("vault escape accepted")
	}
}
