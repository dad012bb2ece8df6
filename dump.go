package domtest

import (
	"fmt"
	"strings"

	"github.com/domtestrun/domtest/internal/dom"
)

// DumpDOM renders the subtree rooted at selector as an indented tree, one
// node per line, for debugging fixtures. (A failing assertion's Snippet
// field comes from Snippet below, not from this dump.) An empty selector
// dumps the whole document.
func (r *Runtime) DumpDOM(selector string) (string, error) {
	root := r.Doc.Root
	if selector != "" {
		h, err := r.resolve(selector)
		if err != nil {
			return "", err
		}
		root = h
	}
	var sb strings.Builder
	r.dumpNode(&sb, root, 0)
	return sb.String(), nil
}

func (r *Runtime) dumpNode(sb *strings.Builder, h dom.Handle, depth int) {
	n := r.Doc.Node(h)
	if n == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.String())
	sb.WriteString("\n")
	for _, c := range n.Children {
		r.dumpNode(sb, c, depth+1)
	}
}

// Snippet renders a short, single-line description of h for use in an
// AssertionFailed diagnostic: tag, id, and a truncated text preview.
func (r *Runtime) Snippet(h dom.Handle) string {
	n := r.Doc.Node(h)
	if n == nil {
		return "<detached>"
	}
	text := r.Doc.TextContent(h)
	if len(text) > 40 {
		text = text[:40] + "…"
	}
	return fmt.Sprintf("%s %q", n.String(), text)
}
