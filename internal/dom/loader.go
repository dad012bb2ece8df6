package dom

import (
	"strings"

	gohtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/domtestrun/domtest/internal/domerr"
)

// ScriptSource is one inline <script> block collected during Load, in
// document order, ready for the harness to feed to the evaluator (C1 never
// executes script itself -- that is C3's job, per spec.md §4.1).
type ScriptSource struct {
	Code string
	Attrs map[string]string
}

var voidAtoms = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// isVoidElement uses x/net/html/atom's interned tag table rather than a
// hand-rolled string set, the same lookup table the tokenizer itself
// builds tag names from.
func isVoidElement(tag string) bool {
	return voidAtoms[atom.Lookup([]byte(tag))]
}

// Load parses an HTML document into a fresh arena, using the teacher's
// htmlrewriter.go tokenizer-loop pattern (golang.org/x/net/html's
// Tokenizer, switched on TokenType) but driving a persistent stack-based
// tree builder instead of a one-pass rewrite stream, per spec.md §4.1's
// "simplified stack-based builder" requirement. Root is a permanent
// KindDocument node created once up front; every top-level token (there may
// be any number of them -- fixtures routinely omit the <html> wrapper)
// becomes one of its children, so multi-root fixtures never lose a subtree
// to a later top-level sibling.
func Load(htmlSrc string) (*Document, []ScriptSource, error) {
	doc := NewDocument()
	doc.Root = doc.allocHandle()
	doc.nodes[doc.Root] = newNode(doc.Root, KindDocument)

	z := gohtml.NewTokenizer(strings.NewReader(htmlSrc))

	var stack []Handle
	var scripts []ScriptSource
	var pendingScriptAttrs map[string]string
	inScript := false

	push := func(h Handle) {
		if len(stack) > 0 {
			doc.AppendChild(stack[len(stack)-1], h)
		} else {
			doc.AppendChild(doc.Root, h)
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case gohtml.ErrorToken:
			err := z.Err()
			if err.Error() == "EOF" {
				if len(doc.Node(doc.Root).Children) == 0 {
					return nil, nil, &domerr.HtmlParse{Message: "document has no root element"}
				}
				return doc, scripts, nil
			}
			return nil, nil, &domerr.HtmlParse{Message: "tokenize: " + err.Error()}

		case gohtml.StartTagToken, gohtml.SelfClosingTagToken:
			tok := z.Token()
			tag := strings.ToLower(tok.Data)
			h := doc.CreateElement(tag)
			for _, a := range tok.Attr {
				doc.SetAttribute(h, strings.ToLower(a.Key), a.Val)
			}
			push(h)
			if tag == "script" {
				inScript = true
				pendingScriptAttrs = attrMap(tok.Attr)
			}
			if tt == gohtml.StartTagToken && !isVoidElement(tag) {
				stack = append(stack, h)
			}

		case gohtml.EndTagToken:
			tok := z.Token()
			tag := strings.ToLower(tok.Data)
			if tag == "script" {
				inScript = false
			}
			for i := len(stack) - 1; i >= 0; i-- {
				if doc.Node(stack[i]).TagName == tag {
					stack = stack[:i]
					break
				}
			}

		case gohtml.TextToken:
			tok := z.Token()
			if inScript {
				if strings.TrimSpace(tok.Data) != "" {
					scripts = append(scripts, ScriptSource{Code: tok.Data, Attrs: pendingScriptAttrs})
				}
				continue
			}
			if len(stack) == 0 {
				continue
			}
			h := doc.CreateText(tok.Data)
			doc.AppendChild(stack[len(stack)-1], h)

		case gohtml.CommentToken:
			tok := z.Token()
			if len(stack) == 0 {
				continue
			}
			h := doc.CreateComment(tok.Data)
			doc.AppendChild(stack[len(stack)-1], h)

		case gohtml.DoctypeToken:
			// Doctype carries no DOM node in this model; fixtures never
			// assert on it.
		}
	}
}

func attrMap(attrs []gohtml.Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}

// LoadFragment parses htmlSrc as an innerHTML fragment: the returned
// children are detached nodes ready to be spliced into an existing parent.
// Any <script> elements are parsed as inert markup only -- spec.md §7's
// resolved Open Question -- and never returned for execution.
func LoadFragment(doc *Document, htmlSrc string) ([]Handle, error) {
	frag, _, err := Load("<html><body>" + htmlSrc + "</body></html>")
	if err != nil {
		return nil, err
	}
	htmlChildren := frag.ElementChildren(frag.Root)
	if len(htmlChildren) == 0 {
		return nil, &domerr.HtmlParse{Message: "fragment produced no root"}
	}
	bodyChildren := frag.ElementChildren(htmlChildren[0])
	var bodyHandle Handle
	for _, c := range bodyChildren {
		if frag.Node(c).TagName == "body" {
			bodyHandle = c
			break
		}
	}
	if bodyHandle == NoHandle {
		return nil, nil
	}
	var out []Handle
	var clone func(src *Document, h Handle) Handle
	clone = func(src *Document, h Handle) Handle {
		n := src.Node(h)
		var nh Handle
		switch n.Kind {
		case KindElement:
			nh = doc.CreateElement(n.TagName)
			for k, v := range n.Attrs {
				doc.SetAttribute(nh, k, v)
			}
		case KindText:
			nh = doc.CreateText(n.Data)
		case KindComment:
			nh = doc.CreateComment(n.Data)
		}
		for _, c := range n.Children {
			ch := clone(src, c)
			doc.AppendChild(nh, ch)
		}
		return nh
	}
	bodyNode := frag.Node(bodyHandle)
	for _, c := range bodyNode.Children {
		out = append(out, clone(frag, c))
	}
	return out, nil
}
