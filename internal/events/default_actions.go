package events

import "github.com/domtestrun/domtest/internal/dom"

// standardDefaultActions composes the default-action table spec.md §4.4
// requires: checkbox/radio toggle, button submit, anchor/area navigation,
// command/commandfor, and form submit validation. Each action fires its own
// follow-on events (input, change, submit) through the same Dispatcher so
// nested default actions compose the way a real browser's activation
// behavior does.
func standardDefaultActions() map[string]DefaultActionFunc {
	return map[string]DefaultActionFunc{
		"click": handleClickDefault,
		"submit": handleSubmitDefault,
	}
}

func handleClickDefault(d *Dispatcher, e *Event) {
	n := d.Doc().Node(e.Target)
	if n == nil || n.Kind != dom.KindElement {
		return
	}
	switch n.TagName {
	case "input":
		typ, _ := n.Attr("type")
		switch typ {
		case "checkbox":
			n.Props.Checked = !n.Props.Checked
			n.Props.CheckedSet = true
			fireSimple(d, e.Target, "input", true)
			fireSimple(d, e.Target, "change", true)
		case "radio":
			if !n.Props.Checked {
				uncheckRadioGroup(d, n)
				n.Props.Checked = true
				n.Props.CheckedSet = true
				fireSimple(d, e.Target, "input", true)
				fireSimple(d, e.Target, "change", true)
			}
		case "submit", "image":
			submitEnclosingForm(d, e.Target)
		case "reset":
			resetEnclosingForm(d, e.Target)
		}
	case "button":
		if cf, ok := n.Attr("commandfor"); ok {
			applyCommand(d, cf, commandValue(n))
			return
		}
		typ, _ := n.Attr("type")
		if typ == "" || typ == "submit" {
			submitEnclosingForm(d, e.Target)
		} else if typ == "reset" {
			resetEnclosingForm(d, e.Target)
		}
	case "a", "area":
		href, ok := n.Attr("href")
		if ok && href != "" {
			if dl, isDl := n.Attr("download"); isDl {
				d.RecordDownload(e.Target, href, dl)
			} else {
				d.RecordNavigation(href)
			}
		}
	default:
		if cf, ok := n.Attr("commandfor"); ok {
			applyCommand(d, cf, commandValue(n))
		}
	}
}

func commandValue(n *dom.Node) string {
	v, _ := n.Attr("command")
	return v
}

func applyCommand(d *Dispatcher, targetID, command string) {
	h, ok := d.Doc().ByID(targetID)
	if !ok {
		return
	}
	n := d.Doc().Node(h)
	if n == nil || n.TagName != "dialog" {
		return
	}
	switch command {
	case "show-modal", "show":
		n.Props.Open = true
	case "close":
		n.Props.Open = false
	case "toggle":
		n.Props.Open = !n.Props.Open
	}
}

func uncheckRadioGroup(d *Dispatcher, radio *dom.Node) {
	name, ok := radio.Attr("name")
	if !ok {
		return
	}
	form := enclosingForm(d.Doc(), radio.Handle)
	root := d.Doc().Root
	if form != dom.NoHandle {
		root = form
	}
	for _, h := range d.Doc().Descendants(root, false) {
		n := d.Doc().Node(h)
		if n.TagName != "input" {
			continue
		}
		typ, _ := n.Attr("type")
		nm, _ := n.Attr("name")
		if typ == "radio" && nm == name && h != radio.Handle {
			n.Props.Checked = false
			n.Props.CheckedSet = true
		}
	}
}

func enclosingForm(doc *dom.Document, h dom.Handle) dom.Handle {
	for _, anc := range doc.Ancestors(h) {
		if n := doc.Node(anc); n != nil && n.TagName == "form" {
			return anc
		}
	}
	return dom.NoHandle
}

func submitEnclosingForm(d *Dispatcher, control dom.Handle) {
	form := enclosingForm(d.Doc(), control)
	if form == dom.NoHandle {
		return
	}
	if invalid, ok := firstInvalidControl(d.Doc(), form); ok {
		fireSimple(d, invalid, "focus", false)
		return
	}
	submitEvt := &Event{Type: "submit", Target: form, Bubbles: true, Cancelable: true, IsTrusted: true}
	d.Dispatch(submitEvt)
}

func resetEnclosingForm(d *Dispatcher, control dom.Handle) {
	form := enclosingForm(d.Doc(), control)
	if form == dom.NoHandle {
		return
	}
	for _, h := range d.Doc().Descendants(form, false) {
		n := d.Doc().Node(h)
		switch n.TagName {
		case "input":
			typ, _ := n.Attr("type")
			if typ == "checkbox" || typ == "radio" {
				attr, _ := n.Attr("checked")
				n.Props.Checked = attr == "" && n.HasAttr("checked")
				n.Props.CheckedSet = true
			} else {
				n.Props.Value, _ = n.Attr("value")
				n.Props.ValueSet = true
			}
		case "textarea":
			n.Props.Value = d.Doc().TextContent(h)
			n.Props.ValueSet = true
		}
	}
}

// firstInvalidControl returns the first required-but-empty control in form
// document order, per spec's required-field submission block (E6): the
// browser focuses the first invalid control instead of dispatching submit.
func firstInvalidControl(doc *dom.Document, form dom.Handle) (dom.Handle, bool) {
	for _, h := range doc.Descendants(form, false) {
		n := doc.Node(h)
		if n.TagName != "input" && n.TagName != "textarea" && n.TagName != "select" {
			continue
		}
		if !n.HasAttr("required") {
			continue
		}
		if n.Props.Disabled {
			continue
		}
		if controlValue(n) == "" {
			return h, true
		}
	}
	return dom.NoHandle, false
}

func controlValue(n *dom.Node) string {
	if n.Props.ValueSet {
		return n.Props.Value
	}
	if v, ok := n.Attr("value"); ok {
		return v
	}
	return ""
}

func handleSubmitDefault(d *Dispatcher, e *Event) {
	// The no-op default for submit: a real browser would navigate; this
	// runtime has no network layer, so the only default behavior is "does
	// not throw" -- the harness observes the submit event and its
	// FormData snapshot instead.
}

func fireSimple(d *Dispatcher, target dom.Handle, eventType string, bubbles bool) {
	d.Dispatch(&Event{Type: eventType, Target: target, Bubbles: bubbles, IsTrusted: true})
}

// Doc exposes the dispatcher's document to default-action helpers outside
// this file without making the field public (actions.go in the root
// package reaches the document through the Runtime, not the dispatcher).
func (d *Dispatcher) Doc() *dom.Document { return d.doc }

// RecordNavigation and RecordDownload are overridden by the harness façade
// via SetNavigationSink/SetDownloadSink; the zero-value dispatcher no-ops
// so internal/events has no hard dependency on the mocks package.
func (d *Dispatcher) RecordNavigation(href string) {
	if d.navigationSink != nil {
		d.navigationSink(href)
	}
}

func (d *Dispatcher) RecordDownload(source dom.Handle, href, filename string) {
	if d.downloadSink != nil {
		d.downloadSink(source, href, filename)
	}
}

// SetNavigationSink installs the harness's location-mock callback.
func (d *Dispatcher) SetNavigationSink(fn func(href string)) { d.navigationSink = fn }

// SetDownloadSink installs the harness's download-artifact callback.
func (d *Dispatcher) SetDownloadSink(fn func(source dom.Handle, href, filename string)) {
	d.downloadSink = fn
}
