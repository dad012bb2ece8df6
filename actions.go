package domtest

import (
	"fmt"

	"github.com/domtestrun/domtest/internal/dom"
	"github.com/domtestrun/domtest/internal/domerr"
	"github.com/domtestrun/domtest/internal/events"
)

// TypeText sets an input/textarea's live value to text and fires input
// then change, as a user typing and then blurring the field would.
func (r *Runtime) TypeText(selector, text string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	n := r.Doc.Node(h)
	if n.TagName != "input" && n.TagName != "textarea" {
		return &domerr.TypeMismatch{Selector: selector, Expected: "input or textarea", Actual: n.TagName}
	}
	n.Props.Value = text
	n.Props.ValueSet = true
	r.traceAction("type_text", selector, fmt.Sprintf("text=%q", text))
	r.fireSimple(h, "input", true)
	r.fireSimple(h, "change", true)
	return nil
}

// SetChecked sets a checkbox or radio's live checked state to checked and
// fires input then change, without simulating a click (no default-action
// sibling-uncheck pass -- that only happens through Click).
func (r *Runtime) SetChecked(selector string, checked bool) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	n := r.Doc.Node(h)
	typ, _ := n.Attr("type")
	if n.TagName != "input" || (typ != "checkbox" && typ != "radio") {
		return &domerr.TypeMismatch{Selector: selector, Expected: "checkbox or radio input", Actual: n.TagName}
	}
	n.Props.Checked = checked
	n.Props.CheckedSet = true
	r.traceAction("set_checked", selector, fmt.Sprintf("checked=%v", checked))
	r.fireSimple(h, "input", true)
	r.fireSimple(h, "change", true)
	return nil
}

// Click dispatches a trusted click at selector, letting the dispatcher's
// own default-action table (checkbox toggle, form submit, anchor
// navigation, command invocation) run exactly as a script-level
// element.click() would.
func (r *Runtime) Click(selector string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	n := r.Doc.Node(h)
	if n.Props.Disabled {
		r.traceAction("click", selector, "skipped: disabled")
		return nil
	}
	r.traceAction("click", selector, "")
	return r.dispatch(h, "click", true, true)
}

// PressEnter dispatches keydown, keypress, and keyup for the Enter key at
// selector, in that order.
func (r *Runtime) PressEnter(selector string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	r.traceAction("press_enter", selector, "")
	for _, typ := range []string{"keydown", "keypress", "keyup"} {
		e := &events.Event{
			Type: typ, Target: h, Bubbles: true, Cancelable: true, IsTrusted: true,
			Detail: map[string]any{"key": "Enter"},
		}
		r.Events.Dispatch(e)
		if e.PendingException != nil {
			return e.PendingException
		}
	}
	return nil
}

// Focus dispatches a trusted focus event at selector.
func (r *Runtime) Focus(selector string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	r.traceAction("focus", selector, "")
	return r.dispatch(h, "focus", false, false)
}

// Blur dispatches a trusted blur event at selector.
func (r *Runtime) Blur(selector string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	r.traceAction("blur", selector, "")
	return r.dispatch(h, "blur", false, false)
}

// Submit submits the form selector resolves to as a user would: if a
// required, enabled input/textarea/select in it is empty, the first such
// control receives focus and no submit event is dispatched; otherwise a
// trusted submit event is dispatched at the form. The dispatcher's submit
// default action does nothing further (no form-data collection).
func (r *Runtime) Submit(selector string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	n := r.Doc.Node(h)
	if n.TagName != "form" {
		return &domerr.TypeMismatch{Selector: selector, Expected: "form", Actual: n.TagName}
	}
	r.traceAction("submit", selector, "")
	for _, c := range r.Doc.Descendants(h, false) {
		cn := r.Doc.Node(c)
		if cn.TagName != "input" && cn.TagName != "textarea" && cn.TagName != "select" {
			continue
		}
		if cn.HasAttr("required") && !cn.Props.Disabled && liveControlValue(cn) == "" {
			r.fireSimple(c, "focus", false)
			return nil
		}
	}
	return r.dispatch(h, "submit", true, true)
}

// Dispatch fires a trusted, bubbling, cancelable event named eventName
// at selector -- the general escape hatch spec's dispatch(sel, event_name)
// action offers beyond the named actions above.
func (r *Runtime) Dispatch(selector, eventName string) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	r.traceAction("dispatch", selector, "type="+eventName)
	return r.dispatch(h, eventName, true, true)
}

// SelectFiles records files as the file input's selected metadata
// (replacing anything SeedFileInput stored for the same selector), then
// fires input then change (or cancel if files is empty), per the
// file-input mock contract.
func (r *Runtime) SelectFiles(selector string, files []FileMeta) error {
	h, err := r.resolve(selector)
	if err != nil {
		return err
	}
	n := r.Doc.Node(h)
	typ, _ := n.Attr("type")
	if n.TagName != "input" || typ != "file" {
		return &domerr.TypeMismatch{Selector: selector, Expected: "file input", Actual: n.TagName}
	}
	r.mocks.fileInputs[selector] = files
	r.traceAction("select_files", selector, fmt.Sprintf("count=%d", len(files)))
	if len(files) == 0 {
		r.fireSimple(h, "cancel", false)
		return nil
	}
	r.fireSimple(h, "input", true)
	r.fireSimple(h, "change", true)
	return nil
}

func (r *Runtime) dispatch(h dom.Handle, eventType string, bubbles, cancelable bool) error {
	e := &events.Event{Type: eventType, Target: h, Bubbles: bubbles, Cancelable: cancelable, IsTrusted: true}
	r.Events.Dispatch(e)
	if e.PendingException != nil {
		return e.PendingException
	}
	return nil
}

func (r *Runtime) fireSimple(h dom.Handle, eventType string, bubbles bool) {
	r.Events.Dispatch(&events.Event{Type: eventType, Target: h, Bubbles: bubbles, IsTrusted: true})
}

func (r *Runtime) traceAction(name, selector, detail string) {
	line := fmt.Sprintf("action=%s selector=%s", name, selector)
	if detail != "" {
		line += " " + detail
	}
	r.trace.record(r.Sched.NowMs(), "action", line)
}
