package script

import (
	"strings"

	"github.com/domtestrun/domtest/internal/dom"
	"github.com/domtestrun/domtest/internal/domerr"
	"github.com/domtestrun/domtest/internal/events"
)

// domBridgeGet resolves property/method access on a DOMRef, implementing
// the subset of the Element/Document IDL spec.md §5 names: attribute
// accessors, classList, form-control live properties, tree navigation,
// querySelector(All), and event wiring. Anything not named here falls back
// to Undefined rather than raising, matching how real DOM objects silently
// return undefined for unknown properties.
func (it *Interp) domBridgeGet(ref DOMRef, key string) Value {
	n := ref.Doc.Node(ref.Handle)
	if n == nil {
		panic(&domerr.ScriptRuntime{Message: "reference to a detached or stale node"})
	}
	switch key {
	case "getElementById":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			h, ok := ref.Doc.ByID(ToString(arg(args, 0)))
			if !ok {
				return Null{}, nil
			}
			return DOMRef{Doc: ref.Doc, Handle: h}, nil
		})
	case "getElementsByClassName":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return domRefArray(ref.Doc, ref.Doc.ByClass(ToString(arg(args, 0)))), nil
		})
	case "createElement":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return DOMRef{Doc: ref.Doc, Handle: ref.Doc.CreateElement(ToString(arg(args, 0)))}, nil
		})
	case "createTextNode":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return DOMRef{Doc: ref.Doc, Handle: ref.Doc.CreateText(ToString(arg(args, 0)))}, nil
		})
	case "createComment":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return DOMRef{Doc: ref.Doc, Handle: ref.Doc.CreateComment(ToString(arg(args, 0)))}, nil
		})
	case "documentElement":
		kids := ref.Doc.ElementChildren(ref.Doc.Root)
		if len(kids) == 0 {
			return Null{}
		}
		return DOMRef{Doc: ref.Doc, Handle: kids[0]}
	case "body", "head":
		list, _ := dom.ParseSelectorList(key)
		h := ref.Doc.QuerySelector(ref.Doc.Root, list)
		if h == dom.NoHandle {
			return Null{}
		}
		return DOMRef{Doc: ref.Doc, Handle: h}
	case "tagName":
		if n.Kind != dom.KindElement {
			return Undefined{}
		}
		return String(strings.ToUpper(n.TagName))
	case "nodeName":
		return String(nodeNameOf(n))
	case "nodeType":
		return Number(nodeTypeOf(n))
	case "id":
		v, _ := n.Attr("id")
		return String(v)
	case "className":
		v, _ := n.Attr("class")
		return String(v)
	case "classList":
		return newClassListObject(it, ref)
	case "textContent", "innerText":
		return String(ref.Doc.TextContent(ref.Handle))
	case "value":
		return String(controlValueOf(n))
	case "checked":
		return Bool(n.Props.Checked)
	case "disabled":
		return Bool(n.Props.Disabled)
	case "selected":
		return Bool(n.Props.Selected)
	case "open":
		return Bool(n.Props.Open)
	case "children":
		kids := ref.Doc.ElementChildren(ref.Handle)
		return domRefArray(ref.Doc, kids)
	case "childNodes":
		return domRefArray(ref.Doc, n.Children)
	case "firstElementChild":
		kids := ref.Doc.ElementChildren(ref.Handle)
		if len(kids) == 0 {
			return Null{}
		}
		return DOMRef{Doc: ref.Doc, Handle: kids[0]}
	case "lastElementChild":
		kids := ref.Doc.ElementChildren(ref.Handle)
		if len(kids) == 0 {
			return Null{}
		}
		return DOMRef{Doc: ref.Doc, Handle: kids[len(kids)-1]}
	case "parentElement", "parentNode":
		if n.Parent == dom.NoHandle {
			return Null{}
		}
		return DOMRef{Doc: ref.Doc, Handle: n.Parent}
	case "nextElementSibling":
		sibs := ref.Doc.FollowingSiblings(ref.Handle)
		if len(sibs) == 0 {
			return Null{}
		}
		return DOMRef{Doc: ref.Doc, Handle: sibs[0]}
	case "previousElementSibling":
		sibs := ref.Doc.PrecedingSiblings(ref.Handle)
		if len(sibs) == 0 {
			return Null{}
		}
		return DOMRef{Doc: ref.Doc, Handle: sibs[len(sibs)-1]}
	case "getAttribute":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			v, ok := n.Attr(ToString(arg(args, 0)))
			if !ok {
				return Null{}, nil
			}
			return String(v), nil
		})
	case "hasAttribute":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(n.HasAttr(ToString(arg(args, 0)))), nil
		})
	case "setAttribute":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			ref.Doc.SetAttribute(ref.Handle, ToString(arg(args, 0)), ToString(arg(args, 1)))
			return Undefined{}, nil
		})
	case "removeAttribute":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			ref.Doc.RemoveAttribute(ref.Handle, ToString(arg(args, 0)))
			return Undefined{}, nil
		})
	case "querySelector":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			list, err := dom.ParseSelectorList(ToString(arg(args, 0)))
			if err != nil {
				return nil, err
			}
			h := ref.Doc.QuerySelector(ref.Handle, list)
			if h == dom.NoHandle {
				return Null{}, nil
			}
			return DOMRef{Doc: ref.Doc, Handle: h}, nil
		})
	case "querySelectorAll":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			list, err := dom.ParseSelectorList(ToString(arg(args, 0)))
			if err != nil {
				return nil, err
			}
			hs := ref.Doc.QuerySelectorAll(ref.Handle, list)
			return domRefArray(ref.Doc, hs), nil
		})
	case "matches":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			ok, err := ref.Doc.Matches(ref.Handle, ToString(arg(args, 0)))
			if err != nil {
				return nil, err
			}
			return Bool(ok), nil
		})
	case "closest":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			raw := ToString(arg(args, 0))
			if _, err := dom.ParseSelectorList(raw); err != nil {
				return nil, err
			}
			cur := ref.Handle
			for {
				if ok, _ := ref.Doc.Matches(cur, raw); ok {
					return DOMRef{Doc: ref.Doc, Handle: cur}, nil
				}
				anc := ref.Doc.Ancestors(cur)
				if len(anc) == 0 {
					return Null{}, nil
				}
				cur = anc[len(anc)-1]
			}
		})
	case "appendChild":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			child, ok := arg(args, 0).(DOMRef)
			if !ok {
				return Undefined{}, nil
			}
			ref.Doc.AppendChild(ref.Handle, child.Handle)
			return child, nil
		})
	case "append":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			for _, a := range args {
				if child, ok := a.(DOMRef); ok {
					ref.Doc.AppendChild(ref.Handle, child.Handle)
				} else {
					th := ref.Doc.CreateText(ToString(a))
					ref.Doc.AppendChild(ref.Handle, th)
				}
			}
			return Undefined{}, nil
		})
	case "remove":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			ref.Doc.Remove(ref.Handle)
			return Undefined{}, nil
		})
	case "replaceWith":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			if r, ok := arg(args, 0).(DOMRef); ok {
				ref.Doc.ReplaceWith(ref.Handle, r.Handle)
			}
			return Undefined{}, nil
		})
	case "addEventListener":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return it.bridgeAddEventListener(ref, args)
		})
	case "removeEventListener":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return it.bridgeRemoveEventListener(ref, args)
		})
	case "dispatchEvent":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			typ := ""
			bubbles, cancelable := false, false
			if o, ok := arg(args, 0).(*Object); ok {
				if t, ok2 := o.Get("type"); ok2 {
					typ = ToString(t)
				}
				if b, ok2 := o.Get("bubbles"); ok2 {
					bubbles = ToBool(b)
				}
				if c, ok2 := o.Get("cancelable"); ok2 {
					cancelable = ToBool(c)
				}
			}
			evt := &events.Event{Type: typ, Target: ref.Handle, Bubbles: bubbles, Cancelable: cancelable, IsTrusted: false}
			it.Events.Dispatch(evt)
			if evt.PendingException != nil {
				return nil, evt.PendingException
			}
			return Bool(!evt.DefaultPrevented()), nil
		})
	case "focus", "blur", "click":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			if key == "click" {
				evt := &events.Event{Type: "click", Target: ref.Handle, Bubbles: true, Cancelable: true, IsTrusted: false}
				it.Events.Dispatch(evt)
				if evt.PendingException != nil {
					return nil, evt.PendingException
				}
			}
			return Undefined{}, nil
		})
	case "submit":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			evt := &events.Event{Type: "submit", Target: ref.Handle, Bubbles: true, Cancelable: true, IsTrusted: false}
			it.Events.Dispatch(evt)
			return Undefined{}, nil
		})
	}
	return Undefined{}
}

func nodeNameOf(n *dom.Node) string {
	switch n.Kind {
	case dom.KindElement:
		return strings.ToUpper(n.TagName)
	case dom.KindText:
		return "#text"
	case dom.KindComment:
		return "#comment"
	default:
		return "#document"
	}
}

func nodeTypeOf(n *dom.Node) int {
	switch n.Kind {
	case dom.KindElement:
		return 1
	case dom.KindText:
		return 3
	case dom.KindComment:
		return 8
	default:
		return 9
	}
}

func controlValueOf(n *dom.Node) string {
	if n.Props.ValueSet {
		return n.Props.Value
	}
	if v, ok := n.Attr("value"); ok {
		return v
	}
	return ""
}

func domRefArray(doc *dom.Document, hs []dom.Handle) *Array {
	out := make([]Value, len(hs))
	for i, h := range hs {
		out[i] = DOMRef{Doc: doc, Handle: h}
	}
	return &Array{Elements: out}
}

// domBridgeSet resolves property assignment on a DOMRef: the small set of
// live IDL properties a form-centric fixture actually mutates.
func (it *Interp) domBridgeSet(ref DOMRef, key string, v Value) {
	n := ref.Doc.Node(ref.Handle)
	if n == nil {
		return
	}
	switch key {
	case "value":
		n.Props.Value = ToString(v)
		n.Props.ValueSet = true
	case "checked":
		n.Props.Checked = ToBool(v)
		n.Props.CheckedSet = true
	case "disabled":
		n.Props.Disabled = ToBool(v)
	case "selected":
		n.Props.Selected = ToBool(v)
	case "open":
		n.Props.Open = ToBool(v)
	case "id":
		ref.Doc.SetAttribute(ref.Handle, "id", ToString(v))
	case "className":
		ref.Doc.SetAttribute(ref.Handle, "class", ToString(v))
	case "textContent", "innerText":
		ref.Doc.ReplaceChildren(ref.Handle, nil)
		th := ref.Doc.CreateText(ToString(v))
		ref.Doc.AppendChild(ref.Handle, th)
	}
}

func (it *Interp) bridgeAddEventListener(ref DOMRef, args []Value) (Value, error) {
	typ := ToString(arg(args, 0))
	fn, _ := arg(args, 1).(*Function)
	if fn == nil {
		return Undefined{}, nil
	}
	capture, once := false, false
	if o, ok := arg(args, 2).(*Object); ok {
		if c, ok2 := o.Get("capture"); ok2 {
			capture = ToBool(c)
		}
		if on, ok2 := o.Get("once"); ok2 {
			once = ToBool(on)
		}
	} else if b, ok := arg(args, 2).(Bool); ok {
		capture = bool(b)
	}
	id := it.Events.AddEventListener(ref.Handle, typ, it.wrapHandler(fn), capture, once)
	it.listenerIDs[listenerKey{ref.Handle, typ, fn}] = id
	return Undefined{}, nil
}

func (it *Interp) bridgeRemoveEventListener(ref DOMRef, args []Value) (Value, error) {
	typ := ToString(arg(args, 0))
	fn, _ := arg(args, 1).(*Function)
	if fn == nil {
		return Undefined{}, nil
	}
	key := listenerKey{ref.Handle, typ, fn}
	if id, ok := it.listenerIDs[key]; ok {
		it.Events.RemoveEventListenerByID(ref.Handle, typ, id)
		delete(it.listenerIDs, key)
	}
	return Undefined{}, nil
}

// wrapHandler adapts a script Function into an events.Handler, building a
// minimal Event-shaped script Object view over the dispatcher's *Event so
// listener code can call preventDefault/stopPropagation.
func (it *Interp) wrapHandler(fn *Function) events.Handler {
	return func(e *events.Event) error {
		evtObj := newEventObject(it, e)
		_, err := it.CallFunction(fn, Undefined{}, []Value{evtObj})
		return err
	}
}

func newEventObject(it *Interp, e *events.Event) *Object {
	o := NewObject()
	o.Class = "Event"
	o.Internal = e
	o.Set("type", String(e.Type))
	o.Set("target", DOMRef{Doc: it.Doc, Handle: e.Target})
	o.Set("currentTarget", DOMRef{Doc: it.Doc, Handle: e.Current})
	o.Set("bubbles", Bool(e.Bubbles))
	o.Set("cancelable", Bool(e.Cancelable))
	o.Set("isTrusted", Bool(e.IsTrusted))
	o.Set("preventDefault", native(func(it *Interp, this Value, args []Value) (Value, error) {
		e.PreventDefault()
		return Undefined{}, nil
	}))
	o.Set("stopPropagation", native(func(it *Interp, this Value, args []Value) (Value, error) {
		e.StopPropagation()
		return Undefined{}, nil
	}))
	o.Set("stopImmediatePropagation", native(func(it *Interp, this Value, args []Value) (Value, error) {
		e.StopImmediatePropagation()
		return Undefined{}, nil
	}))
	o.Set("defaultPrevented", Bool(e.DefaultPrevented()))
	return o
}

// newClassListObject returns a live classList-shaped object: add/remove/
// toggle/contains mutate the underlying class attribute immediately since
// this runtime has no separate token-list storage.
func newClassListObject(it *Interp, ref DOMRef) *Object {
	o := NewObject()
	classesOf := func() []string {
		n := ref.Doc.Node(ref.Handle)
		cls, _ := n.Attr("class")
		return strings.Fields(cls)
	}
	setClasses := func(cs []string) {
		ref.Doc.SetAttribute(ref.Handle, "class", strings.Join(cs, " "))
	}
	o.Set("add", native(func(it *Interp, this Value, args []Value) (Value, error) {
		cs := classesOf()
		for _, a := range args {
			name := ToString(a)
			found := false
			for _, c := range cs {
				if c == name {
					found = true
					break
				}
			}
			if !found {
				cs = append(cs, name)
			}
		}
		setClasses(cs)
		return Undefined{}, nil
	}))
	o.Set("remove", native(func(it *Interp, this Value, args []Value) (Value, error) {
		cs := classesOf()
		for _, a := range args {
			name := ToString(a)
			var out []string
			for _, c := range cs {
				if c != name {
					out = append(out, c)
				}
			}
			cs = out
		}
		setClasses(cs)
		return Undefined{}, nil
	}))
	o.Set("contains", native(func(it *Interp, this Value, args []Value) (Value, error) {
		name := ToString(arg(args, 0))
		for _, c := range classesOf() {
			if c == name {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	}))
	o.Set("toggle", native(func(it *Interp, this Value, args []Value) (Value, error) {
		name := ToString(arg(args, 0))
		cs := classesOf()
		idx := -1
		for i, c := range cs {
			if c == name {
				idx = i
				break
			}
		}
		force := -1
		if len(args) > 1 {
			if ToBool(args[1]) {
				force = 1
			} else {
				force = 0
			}
		}
		switch {
		case force == 1 && idx < 0:
			cs = append(cs, name)
		case force == 0 && idx >= 0:
			cs = append(cs[:idx], cs[idx+1:]...)
		case force == -1 && idx >= 0:
			cs = append(cs[:idx], cs[idx+1:]...)
		case force == -1 && idx < 0:
			cs = append(cs, name)
		default:
			setClasses(cs)
			return Bool(idx >= 0), nil
		}
		setClasses(cs)
		return Bool(idxInList(cs, name)), nil
	}))
	return o
}

func idxInList(cs []string, name string) bool {
	for _, c := range cs {
		if c == name {
			return true
		}
	}
	return false
}

type listenerKey struct {
	target dom.Handle
	typ    string
	fn     *Function
}
