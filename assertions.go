package domtest

import (
	"github.com/domtestrun/domtest/internal/dom"
	"github.com/domtestrun/domtest/internal/domerr"
)

const snippetMaxLen = 200

// AssertText asserts that selector's text content equals expected.
func (r *Runtime) AssertText(selector, expected string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	actual := r.Doc.TextContent(h)
	if actual != expected {
		return r.fail("assert_text", selector, expected, actual, h)
	}
	return nil
}

// AssertValue asserts that selector's live .value equals expected.
func (r *Runtime) AssertValue(selector, expected string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	n := r.Doc.Node(h)
	actual := liveControlValue(n)
	if actual != expected {
		return r.fail("assert_value", selector, expected, actual, h)
	}
	return nil
}

// liveControlValue mirrors internal/script/dombridge.go's controlValueOf:
// the live .value property if ever assigned, falling back to the value
// attribute's initial default.
func liveControlValue(n *dom.Node) string {
	if n.Props.ValueSet {
		return n.Props.Value
	}
	if v, ok := n.Attr("value"); ok {
		return v
	}
	return ""
}

// AssertChecked asserts that selector's live .checked equals expected.
func (r *Runtime) AssertChecked(selector string, expected bool) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	n := r.Doc.Node(h)
	actual := n.Props.Checked
	if actual != expected {
		return r.fail("assert_checked", selector, boolLiteral(expected), boolLiteral(actual), h)
	}
	return nil
}

// AssertExists asserts that selector matches at least one node.
func (r *Runtime) AssertExists(selector string) error {
	_, err := r.resolve(selector)
	if err == nil {
		return nil
	}
	if _, ok := err.(*domerr.SelectorNotFound); ok {
		return &domerr.AssertionFailed{
			Kind:     "assert_exists",
			Selector: selector,
			Expected: "at least one match",
			Actual:   "no match",
			Snippet:  r.truncatedSnippet(r.Doc.Root),
		}
	}
	return err
}

func (r *Runtime) fail(kind, selector, expected, actual string, h dom.Handle) error {
	return &domerr.AssertionFailed{
		Kind:     kind,
		Selector: selector,
		Expected: expected,
		Actual:   actual,
		Snippet:  r.truncatedSnippet(h),
	}
}

func boolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// truncatedSnippet renders up to snippetMaxLen characters of HTML-ish
// debug text around h, per §6.4's assertion-failure format.
func (r *Runtime) truncatedSnippet(h dom.Handle) string {
	s := r.Snippet(h)
	if len(s) > snippetMaxLen {
		s = s[:snippetMaxLen]
	}
	return s
}
