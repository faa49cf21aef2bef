package enrich

import (
	"fmt"
	"strings"

	"github.com/weftworks/canvasd/internal/model"
)

// noLabelPlaceholder is rendered for groups without a label.
const noLabelPlaceholder = "(no label)"

// Flatten renders the enriched canvas as a deterministic text block for model
// consumption. Identical input always yields byte-identical output: nodes and
// edges are rendered in document order and nothing time- or
// randomness-dependent is emitted.
func Flatten(c *Canvas) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Canvas: %d nodes, %d edges\n", len(c.Nodes), len(c.Edges))

	for _, n := range c.Nodes {
		base := n.Base()
		fmt.Fprintf(&b, "\n[%s %s] at (%d, %d) size %dx%d\n",
			n.Kind(), base.ID, base.X, base.Y, base.Width, base.Height)

		switch v := n.Node.(type) {
		case *model.TextNode:
			writeIndented(&b, v.Text)
		case *model.FileNode:
			fmt.Fprintf(&b, "  file: %s\n", v.File)
			if n.Content != "" {
				writeIndented(&b, n.Content)
			}
		case *model.LinkNode:
			fmt.Fprintf(&b, "  url: %s\n", v.URL)
		case *model.GroupNode:
			label := v.Label
			if label == "" {
				label = noLabelPlaceholder
			}
			fmt.Fprintf(&b, "  label: %s\n", label)
		}
	}

	if len(c.Edges) > 0 {
		b.WriteString("\nEdges:\n")
		for _, e := range c.Edges {
			if e.Label != "" {
				fmt.Fprintf(&b, "%s -> %s %q\n", e.FromNode, e.ToNode, e.Label)
			} else {
				fmt.Fprintf(&b, "%s -> %s\n", e.FromNode, e.ToNode)
			}
		}
	}

	return b.String()
}

// writeIndented writes multi-line content with a two-space indent per line.
func writeIndented(b *strings.Builder, content string) {
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
}
