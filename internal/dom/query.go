package dom

import (
	"strings"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/text/cases"

	"github.com/domtestrun/domtest/internal/domerr"
)

// tagFold is the caser backing tag-name comparison; HTML tag names are
// ASCII but spec.md §4.1's "case-insensitive" rule is stated generically,
// so this goes through the same Unicode-aware folding the rest of the
// ecosystem uses rather than strings.EqualFold's ASCII-only fast path.
var tagFold = cases.Fold()

func tagNameEqual(a, b string) bool {
	return tagFold.String(a) == tagFold.String(b)
}

// QuerySelectorAll returns every element under root (root included) that
// matches list, in document order, deduped across the selector list's
// members via a bitset keyed by handle -- grounded on the teacher's
// bitset-bookkeeping dependency, repurposed here from pool bitmaps to
// selector-list dedup.
func (d *Document) QuerySelectorAll(root Handle, list *SelectorList) []Handle {
	all := d.Descendants(root, true)
	seen := bitset.New(uint(len(d.nodes) + 1))
	var out []Handle
	for _, h := range all {
		if d.matchesAny(h, list) {
			if !seen.Test(uint(h)) {
				seen.Set(uint(h))
				out = append(out, h)
			}
		}
	}
	return out
}

// QuerySelector returns the first match in document order, or NoHandle.
func (d *Document) QuerySelector(root Handle, list *SelectorList) Handle {
	all := d.Descendants(root, true)
	for _, h := range all {
		if d.matchesAny(h, list) {
			return h
		}
	}
	return NoHandle
}

// Matches reports whether h satisfies raw (parsing it first); returns
// domerr.UnsupportedSelector on parse failure.
func (d *Document) Matches(h Handle, raw string) (bool, error) {
	list, err := ParseSelectorList(raw)
	if err != nil {
		return false, err
	}
	return d.matchesAny(h, list), nil
}

func (d *Document) matchesAny(h Handle, list *SelectorList) bool {
	for _, sel := range list.Selectors {
		if d.matchesChain(h, sel) {
			return true
		}
	}
	return false
}

// matchesChain implements the teacher's matchesWithContext right-to-left
// walk, generalized to live ancestor/sibling queries against the arena
// instead of precomputed elementInfo slices (the tree is mutable and
// persistent here, so context is fetched on demand rather than snapshotted
// up front).
func (d *Document) matchesChain(h Handle, sel *Selector) bool {
	n := d.Node(h)
	if n == nil || n.Kind != KindElement {
		return false
	}
	if len(sel.Parts) == 0 {
		return false
	}
	if !d.matchesSimple(h, sel.Parts[len(sel.Parts)-1].Sel) {
		return false
	}
	if len(sel.Parts) == 1 {
		return true
	}

	cur := h
	for i := len(sel.Parts) - 2; i >= 0; i-- {
		part := sel.Parts[i]
		switch part.Combinator {
		case CombinatorChild:
			parent := d.Node(cur).Parent
			if parent == NoHandle || !d.matchesSimple(parent, part.Sel) {
				return false
			}
			cur = parent
		case CombinatorDescendant:
			found := NoHandle
			for anc := d.Node(cur).Parent; anc != NoHandle; {
				if d.matchesSimple(anc, part.Sel) {
					found = anc
					break
				}
				an := d.Node(anc)
				if an == nil {
					break
				}
				anc = an.Parent
			}
			if found == NoHandle {
				return false
			}
			cur = found
		case CombinatorAdjacentSibling:
			prev := d.PrecedingSiblings(cur)
			if len(prev) == 0 {
				return false
			}
			immediate := prev[len(prev)-1]
			if !d.matchesSimple(immediate, part.Sel) {
				return false
			}
			cur = immediate
		case CombinatorGeneralSibling:
			prev := d.PrecedingSiblings(cur)
			found := NoHandle
			for i := len(prev) - 1; i >= 0; i-- {
				if d.matchesSimple(prev[i], part.Sel) {
					found = prev[i]
					break
				}
			}
			if found == NoHandle {
				return false
			}
			cur = found
		default:
			return false
		}
	}
	return true
}

func (d *Document) matchesSimple(h Handle, sel *SimpleSelector) bool {
	n := d.Node(h)
	if n == nil || n.Kind != KindElement {
		return false
	}
	if sel.Tag != "" && sel.Tag != "*" && !tagNameEqual(sel.Tag, n.TagName) {
		return false
	}
	if sel.ID != "" {
		id, _ := n.Attr("id")
		if id != sel.ID {
			return false
		}
	}
	for _, cls := range sel.Classes {
		if !containsClass(n, cls) {
			return false
		}
	}
	for _, am := range sel.Attrs {
		if !matchAttr(n, am) {
			return false
		}
	}
	for _, p := range sel.Pseudos {
		if !d.matchesPseudo(h, p) {
			return false
		}
	}
	return true
}

func containsClass(n *Node, cls string) bool {
	for _, c := range classesOf(n) {
		if c == cls {
			return true
		}
	}
	return false
}

func matchAttr(n *Node, am AttrMatcher) bool {
	val, exists := n.Attr(am.Name)
	if !exists {
		return false
	}
	switch am.Op {
	case AttrExists:
		return true
	case AttrEquals:
		return val == am.Value
	case AttrSubstring:
		return strings.Contains(val, am.Value)
	case AttrPrefix:
		return strings.HasPrefix(val, am.Value)
	case AttrSuffix:
		return strings.HasSuffix(val, am.Value)
	case AttrIncludes:
		for _, w := range strings.Fields(val) {
			if w == am.Value {
				return true
			}
		}
		return false
	case AttrDashMatch:
		return val == am.Value || strings.HasPrefix(val, am.Value+"-")
	default:
		return false
	}
}

func (d *Document) matchesPseudo(h Handle, p Pseudo) bool {
	n := d.Node(h)
	switch p.Kind {
	case PseudoFirstChild:
		return len(d.PrecedingSiblings(h)) == 0
	case PseudoLastChild:
		return len(d.FollowingSiblings(h)) == 0
	case PseudoOnlyChild:
		return len(d.PrecedingSiblings(h)) == 0 && len(d.FollowingSiblings(h)) == 0
	case PseudoFirstOfType:
		return d.typePosition(h, true) == 1
	case PseudoLastOfType:
		return d.typePositionFromEnd(h) == 1
	case PseudoOnlyOfType:
		return d.typePosition(h, true) == 1 && d.typePositionFromEnd(h) == 1
	case PseudoNthChild:
		return p.Formula.Matches(d.childPosition(h, false))
	case PseudoNthLastChild:
		return p.Formula.Matches(d.childPosition(h, true))
	case PseudoNthOfType:
		return p.Formula.Matches(d.typePosition(h, false))
	case PseudoNthLastOfType:
		return p.Formula.Matches(d.typePositionFromEnd(h))
	case PseudoEmpty:
		return len(n.Children) == 0
	case PseudoRoot:
		return n.Parent == d.Root
	case PseudoChecked:
		return n.Props.Checked
	case PseudoDisabled:
		return n.Props.Disabled
	case PseudoEnabled:
		return !n.Props.Disabled
	case PseudoRequired:
		return n.HasAttr("required")
	case PseudoOptional:
		return !n.HasAttr("required")
	case PseudoIndeterminate:
		return n.HasAttr("indeterminate")
	case PseudoNot:
		return !d.matchesAny(h, p.Nested)
	case PseudoIs, PseudoWhere:
		return d.matchesAny(h, p.Nested)
	case PseudoHas:
		return d.hasDescendantMatch(h, p.Nested)
	default:
		return false
	}
}

// childPosition returns h's 1-based position among element siblings,
// counted from the end when fromEnd is true.
func (d *Document) childPosition(h Handle, fromEnd bool) int {
	if fromEnd {
		return len(d.FollowingSiblings(h)) + 1
	}
	return len(d.PrecedingSiblings(h)) + 1
}

func (d *Document) typePosition(h Handle, _ bool) int {
	n := d.Node(h)
	count := 1
	for _, sib := range d.PrecedingSiblings(h) {
		if sn := d.Node(sib); sn != nil && sn.TagName == n.TagName {
			count++
		}
	}
	return count
}

func (d *Document) typePositionFromEnd(h Handle) int {
	n := d.Node(h)
	count := 1
	for _, sib := range d.FollowingSiblings(h) {
		if sn := d.Node(sib); sn != nil && sn.TagName == n.TagName {
			count++
		}
	}
	return count
}

func (d *Document) hasDescendantMatch(h Handle, list *SelectorList) bool {
	for _, desc := range d.Descendants(h, false) {
		if d.matchesAny(desc, list) {
			return true
		}
	}
	return false
}

// mustParse is a test/internal helper; production callers always handle
// the error from ParseSelectorList directly.
func mustParse(raw string) *SelectorList {
	list, err := ParseSelectorList(raw)
	if err != nil {
		panic(&domerr.UnsupportedSelector{Selector: raw})
	}
	return list
}
