package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/weftworks/canvasd/internal/client"
	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/ui"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printEditResult renders the server's batch outcome, one line per operation.
func printEditResult(res *client.EditResult) error {
	if jsonOutput {
		return printJSON(res)
	}

	if res.Summary != "" {
		fmt.Printf("%s %s\n", ui.RenderMuted("summary:"), res.Summary)
	}
	for i, r := range res.Result.Results {
		if r.Success {
			fmt.Printf("%s op %d: affected %v\n", ui.RenderOK("ok"), i+1, r.AffectedIDs)
		} else {
			fmt.Printf("%s op %d: %s (%s)\n", ui.RenderFail("failed"), i+1, r.Err.Message, r.Err.Code)
		}
	}
	for _, d := range res.Dropped {
		fmt.Printf("%s <%s>: %s\n", ui.RenderFail("dropped"), d.Tag, d.Reason)
	}
	if res.Result.AllSuccess {
		fmt.Printf("%s %s\n", ui.RenderOK("applied"), ui.RenderAccent(res.Path))
	} else {
		fmt.Printf("%s %s\n", ui.RenderFail("partially applied"), ui.RenderAccent(res.Path))
	}
	return nil
}

// printDocument renders a short human listing of a canvas document.
func printDocument(path string, doc *model.Document) error {
	if jsonOutput {
		return printJSON(doc)
	}

	fmt.Printf("%s  %d nodes, %d edges\n", ui.RenderAccent(path), len(doc.Nodes), len(doc.Edges))
	for _, n := range doc.Nodes {
		b := n.Base()
		detail := ""
		switch v := n.(type) {
		case *model.TextNode:
			detail = firstLine(v.Text)
		case *model.FileNode:
			detail = v.File
		case *model.LinkNode:
			detail = v.URL
		case *model.GroupNode:
			detail = v.Label
		}
		fmt.Printf("  %s %s (%d,%d) %dx%d  %s\n",
			ui.RenderMuted(string(n.Kind())), ui.RenderAccent(b.ID),
			b.X, b.Y, b.Width, b.Height, detail)
	}
	for _, e := range doc.Edges {
		label := ""
		if e.Label != "" {
			label = fmt.Sprintf(" %q", e.Label)
		}
		fmt.Printf("  %s %s -> %s%s\n", ui.RenderMuted("edge"), e.FromNode, e.ToNode, label)
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
