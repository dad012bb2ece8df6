package dom

import "strings"

// Document owns the node arena for one loaded page plus the live indices
// spec.md §4.1 requires (id_index always; class_index when the harness
// opts in for larger fixtures). Every mutation helper keeps these indices
// in lock-step with the tree -- there is no lazy rebuild path, mirroring
// the teacher's preference for small, always-consistent in-memory state
// over caches that need invalidation tracking.
type Document struct {
	nodes   map[Handle]*Node
	nextID  int
	Root    Handle // the permanent KindDocument node's handle, set once by Load

	// idIndex holds every element carrying a given id, in document order of
	// insertion; spec.md §4.1 requires duplicate ids be preserved rather
	// than overwritten, with getElementById/#id returning the head.
	idIndex    map[string][]Handle
	classIndex map[string]map[Handle]struct{} // nil unless enabled

	classIndexEnabled bool
}

// NewDocument returns an empty arena with only the bookkeeping maps
// allocated; callers populate it via CreateElement/CreateText or the
// loader.
func NewDocument() *Document {
	return &Document{
		nodes:   make(map[Handle]*Node),
		idIndex: make(map[string][]Handle),
	}
}

// EnableClassIndex turns on the optional class_index (spec.md §4.1 marks it
// optional for small fixtures); once enabled it is maintained for the rest
// of the document's lifetime.
func (d *Document) EnableClassIndex() {
	if d.classIndexEnabled {
		return
	}
	d.classIndexEnabled = true
	d.classIndex = make(map[string]map[Handle]struct{})
	for h, n := range d.nodes {
		if n.Kind != KindElement {
			continue
		}
		for _, c := range classesOf(n) {
			d.indexClass(c, h)
		}
	}
}

func classesOf(n *Node) []string {
	cls, _ := n.Attr("class")
	if cls == "" {
		return nil
	}
	return strings.Fields(cls)
}

func (d *Document) indexClass(class string, h Handle) {
	if !d.classIndexEnabled {
		return
	}
	set, ok := d.classIndex[class]
	if !ok {
		set = make(map[Handle]struct{})
		d.classIndex[class] = set
	}
	set[h] = struct{}{}
}

func (d *Document) unindexClass(class string, h Handle) {
	if !d.classIndexEnabled {
		return
	}
	if set, ok := d.classIndex[class]; ok {
		delete(set, h)
		if len(set) == 0 {
			delete(d.classIndex, class)
		}
	}
}

// Node returns the node for h, or nil if h is stale/invalid.
func (d *Document) Node(h Handle) *Node {
	if h == NoHandle {
		return nil
	}
	return d.nodes[h]
}

// ByID looks up the id_index, returning the first (document-order) element
// that carries id when duplicates exist.
func (d *Document) ByID(id string) (Handle, bool) {
	hs, ok := d.idIndex[id]
	if !ok || len(hs) == 0 {
		return NoHandle, false
	}
	return hs[0], true
}

// ByClass returns the handles carrying class, using class_index when
// enabled or a linear scan otherwise -- correctness never depends on the
// index being on.
func (d *Document) ByClass(class string) []Handle {
	if d.classIndexEnabled {
		set := d.classIndex[class]
		out := make([]Handle, 0, len(set))
		for h := range set {
			out = append(out, h)
		}
		return out
	}
	var out []Handle
	for h, n := range d.nodes {
		if n.Kind != KindElement {
			continue
		}
		for _, c := range classesOf(n) {
			if c == class {
				out = append(out, h)
				break
			}
		}
	}
	return out
}

func (d *Document) allocHandle() Handle {
	d.nextID++
	return Handle(d.nextID)
}

// CreateElement allocates a new, parentless element node.
func (d *Document) CreateElement(tag string) Handle {
	h := d.allocHandle()
	n := newNode(h, KindElement)
	n.TagName = strings.ToLower(tag)
	d.nodes[h] = n
	return h
}

// CreateText allocates a new, parentless text node.
func (d *Document) CreateText(data string) Handle {
	h := d.allocHandle()
	n := newNode(h, KindText)
	n.Data = data
	d.nodes[h] = n
	return h
}

// CreateComment allocates a new, parentless comment node.
func (d *Document) CreateComment(data string) Handle {
	h := d.allocHandle()
	n := newNode(h, KindComment)
	n.Data = data
	d.nodes[h] = n
	return h
}

// AppendChild appends child to parent's child list, updating indices. It is
// the caller's responsibility to Remove child from any prior parent first.
func (d *Document) AppendChild(parent, child Handle) {
	p := d.Node(parent)
	c := d.Node(child)
	if p == nil || c == nil {
		return
	}
	c.Parent = parent
	p.Children = append(p.Children, child)
	d.reindex(c)
}

// InsertBefore inserts child into parent's child list immediately before
// ref. If ref is NoHandle or not found, child is appended.
func (d *Document) InsertBefore(parent, child, ref Handle) {
	p := d.Node(parent)
	c := d.Node(child)
	if p == nil || c == nil {
		return
	}
	c.Parent = parent
	if ref == NoHandle {
		p.Children = append(p.Children, child)
		d.reindex(c)
		return
	}
	idx := -1
	for i, h := range p.Children {
		if h == ref {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.Children = append(p.Children, child)
	} else {
		p.Children = append(p.Children, NoHandle)
		copy(p.Children[idx+1:], p.Children[idx:])
		p.Children[idx] = child
	}
	d.reindex(c)
}

// Remove detaches child from its parent, leaving the node in the arena
// (callers that want full deletion also drop their own references; the
// arena itself never needs a garbage collector since fixtures are small and
// short-lived).
func (d *Document) Remove(child Handle) {
	c := d.Node(child)
	if c == nil || c.Parent == NoHandle {
		return
	}
	p := d.Node(c.Parent)
	if p != nil {
		for i, h := range p.Children {
			if h == child {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	// A detached subtree must vanish from every index, not just its root --
	// otherwise a removed descendant's id/class still resolves via
	// getElementById/querySelector even though it is no longer reachable
	// from Root (Invariants 2 and 3).
	for _, h := range d.Descendants(child, true) {
		d.unreindex(d.Node(h))
	}
	c.Parent = NoHandle
}

// ReplaceWith replaces old with replacement at the same position.
func (d *Document) ReplaceWith(old, replacement Handle) {
	o := d.Node(old)
	if o == nil || o.Parent == NoHandle {
		return
	}
	parent := o.Parent
	p := d.Node(parent)
	idx := -1
	for i, h := range p.Children {
		if h == old {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	d.unreindex(o)
	o.Parent = NoHandle
	p.Children[idx] = replacement
	r := d.Node(replacement)
	if r != nil {
		r.Parent = parent
		d.reindex(r)
	}
}

// ReplaceChildren detaches all existing children of parent and installs
// newChildren in order.
func (d *Document) ReplaceChildren(parent Handle, newChildren []Handle) {
	p := d.Node(parent)
	if p == nil {
		return
	}
	for _, h := range append([]Handle(nil), p.Children...) {
		d.Remove(h)
	}
	for _, h := range newChildren {
		d.AppendChild(parent, h)
	}
}

// SetAttribute sets an element attribute, keeping id_index/class_index
// current when the attribute is "id" or "class".
func (d *Document) SetAttribute(h Handle, name, value string) {
	n := d.Node(h)
	if n == nil || n.Kind != KindElement {
		return
	}
	if name == "id" {
		if old, ok := n.Attr("id"); ok {
			d.unindexID(old, h)
		}
	}
	if name == "class" {
		for _, c := range classesOf(n) {
			d.unindexClass(c, h)
		}
	}
	n.Attrs[name] = value
	if name == "id" && value != "" {
		d.indexID(value, h)
	}
	if name == "class" {
		for _, c := range strings.Fields(value) {
			d.indexClass(c, h)
		}
	}
	reflectBooleanAttr(n, name)
}

// RemoveAttribute removes an element attribute.
func (d *Document) RemoveAttribute(h Handle, name string) {
	n := d.Node(h)
	if n == nil || n.Kind != KindElement {
		return
	}
	if name == "id" {
		if old, ok := n.Attr("id"); ok {
			d.unindexID(old, h)
		}
	}
	if name == "class" {
		for _, c := range classesOf(n) {
			d.unindexClass(c, h)
		}
	}
	delete(n.Attrs, name)
	reflectBooleanAttr(n, name)
}

// reflectBooleanAttr keeps ElementProps.Disabled/Checked in sync with the
// disabled/checked content attributes, the same live-reflection the real DOM
// gives these two IDL properties. A checked attribute only ever seeds the
// default; once a live toggle (click, set_checked, script write) has run,
// CheckedSet latches and further attribute writes no longer touch it.
func reflectBooleanAttr(n *Node, name string) {
	switch name {
	case "disabled":
		n.Props.Disabled = n.HasAttr("disabled")
	case "checked":
		if !n.Props.CheckedSet {
			n.Props.Checked = n.HasAttr("checked")
		}
	}
}

func (d *Document) indexID(id string, h Handle) {
	for _, existing := range d.idIndex[id] {
		if existing == h {
			return
		}
	}
	d.idIndex[id] = append(d.idIndex[id], h)
}

func (d *Document) unindexID(id string, h Handle) {
	hs := d.idIndex[id]
	for i, existing := range hs {
		if existing == h {
			hs = append(hs[:i], hs[i+1:]...)
			break
		}
	}
	if len(hs) == 0 {
		delete(d.idIndex, id)
	} else {
		d.idIndex[id] = hs
	}
}

func (d *Document) reindex(n *Node) {
	if n.Kind != KindElement {
		return
	}
	if id, ok := n.Attr("id"); ok && id != "" {
		d.indexID(id, n.Handle)
	}
	for _, c := range classesOf(n) {
		d.indexClass(c, n.Handle)
	}
}

func (d *Document) unreindex(n *Node) {
	if n.Kind != KindElement {
		return
	}
	if id, ok := n.Attr("id"); ok {
		d.unindexID(id, n.Handle)
	}
	for _, c := range classesOf(n) {
		d.unindexClass(c, n.Handle)
	}
}

// Descendants returns every element handle under (and including, when
// includeSelf) root, in document order. Used by the selector engine's
// QuerySelectorAll and by dump_dom.
func (d *Document) Descendants(root Handle, includeSelf bool) []Handle {
	var out []Handle
	var walk func(h Handle)
	walk = func(h Handle) {
		n := d.Node(h)
		if n == nil {
			return
		}
		if n.Kind == KindElement && (includeSelf || h != root) {
			out = append(out, h)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

// Ancestors returns h's ancestor chain ordered outermost-first, not
// including h itself.
func (d *Document) Ancestors(h Handle) []Handle {
	var out []Handle
	n := d.Node(h)
	if n == nil {
		return out
	}
	for cur := n.Parent; cur != NoHandle; {
		out = append([]Handle{cur}, out...)
		p := d.Node(cur)
		if p == nil {
			break
		}
		cur = p.Parent
	}
	return out
}

// PrecedingSiblings returns h's earlier siblings, ordered first-to-last.
func (d *Document) PrecedingSiblings(h Handle) []Handle {
	n := d.Node(h)
	if n == nil || n.Parent == NoHandle {
		return nil
	}
	p := d.Node(n.Parent)
	if p == nil {
		return nil
	}
	var out []Handle
	for _, sib := range p.Children {
		if sib == h {
			break
		}
		if s := d.Node(sib); s != nil && s.Kind == KindElement {
			out = append(out, sib)
		}
	}
	return out
}

// FollowingSiblings returns h's later siblings, ordered first-to-last.
func (d *Document) FollowingSiblings(h Handle) []Handle {
	n := d.Node(h)
	if n == nil || n.Parent == NoHandle {
		return nil
	}
	p := d.Node(n.Parent)
	if p == nil {
		return nil
	}
	var out []Handle
	found := false
	for _, sib := range p.Children {
		if sib == h {
			found = true
			continue
		}
		if !found {
			continue
		}
		if s := d.Node(sib); s != nil && s.Kind == KindElement {
			out = append(out, sib)
		}
	}
	return out
}

// ElementChildren returns h's direct element children, in order.
func (d *Document) ElementChildren(h Handle) []Handle {
	n := d.Node(h)
	if n == nil {
		return nil
	}
	var out []Handle
	for _, c := range n.Children {
		if cn := d.Node(c); cn != nil && cn.Kind == KindElement {
			out = append(out, c)
		}
	}
	return out
}

// TextContent concatenates all descendant text node data, matching
// .textContent semantics.
func (d *Document) TextContent(h Handle) string {
	n := d.Node(h)
	if n == nil {
		return ""
	}
	if n.Kind == KindText {
		return n.Data
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(d.TextContent(c))
	}
	return sb.String()
}
