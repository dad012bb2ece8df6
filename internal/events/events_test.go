package events

import (
	"testing"

	"github.com/domtestrun/domtest/internal/dom"
)

func setupDispatcher(t *testing.T, html string) (*dom.Document, *Dispatcher) {
	t.Helper()
	doc, _, err := dom.Load(html)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc, NewDispatcher(doc)
}

func TestDispatchPhaseOrder(t *testing.T) {
	doc, d := setupDispatcher(t, `<html><body><div id="outer"><div id="inner"></div></div></body></html>`)
	outer, _ := doc.ByID("outer")
	inner, _ := doc.ByID("inner")

	var order []string
	d.AddEventListener(outer, "click", func(e *Event) error {
		order = append(order, "outer-capture")
		return nil
	}, true, false)
	d.AddEventListener(inner, "click", func(e *Event) error {
		order = append(order, "inner-target")
		return nil
	}, false, false)
	d.AddEventListener(outer, "click", func(e *Event) error {
		order = append(order, "outer-bubble")
		return nil
	}, false, false)

	d.Dispatch(&Event{Type: "click", Target: inner, Bubbles: true, Cancelable: true, IsTrusted: true})

	want := []string{"outer-capture", "inner-target", "outer-bubble"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestStopPropagationHaltsBubble(t *testing.T) {
	doc, d := setupDispatcher(t, `<html><body><div id="outer"><div id="inner"></div></div></body></html>`)
	outer, _ := doc.ByID("outer")
	inner, _ := doc.ByID("inner")

	outerFired := false
	d.AddEventListener(inner, "click", func(e *Event) error {
		e.StopPropagation()
		return nil
	}, false, false)
	d.AddEventListener(outer, "click", func(e *Event) error {
		outerFired = true
		return nil
	}, false, false)

	d.Dispatch(&Event{Type: "click", Target: inner, Bubbles: true, Cancelable: true})
	if outerFired {
		t.Fatalf("stopPropagation did not prevent bubble listener")
	}
}

func TestCheckboxDefaultActionTogglesAndFiresChangeEvent(t *testing.T) {
	doc, d := setupDispatcher(t, `<html><body><input type="checkbox" id="cb"></body></html>`)
	cb, _ := doc.ByID("cb")

	var changeFired bool
	d.AddEventListener(cb, "change", func(e *Event) error {
		changeFired = true
		return nil
	}, false, false)

	d.Dispatch(&Event{Type: "click", Target: cb, Bubbles: true, Cancelable: true, IsTrusted: true})

	n := doc.Node(cb)
	if !n.Props.Checked {
		t.Fatalf("checkbox not toggled")
	}
	if !changeFired {
		t.Fatalf("change event not fired")
	}
}

func TestPreventDefaultSkipsDefaultAction(t *testing.T) {
	doc, d := setupDispatcher(t, `<html><body><input type="checkbox" id="cb"></body></html>`)
	cb, _ := doc.ByID("cb")
	d.AddEventListener(cb, "click", func(e *Event) error {
		e.PreventDefault()
		return nil
	}, false, false)
	d.Dispatch(&Event{Type: "click", Target: cb, Bubbles: true, Cancelable: true, IsTrusted: true})
	if doc.Node(cb).Props.Checked {
		t.Fatalf("checkbox toggled despite preventDefault")
	}
}

func TestRadioGroupMutualExclusion(t *testing.T) {
	doc, d := setupDispatcher(t, `<html><body>
		<input type="radio" name="g" id="r1" checked>
		<input type="radio" name="g" id="r2">
	</body></html>`)
	r1, _ := doc.ByID("r1")
	r2, _ := doc.ByID("r2")
	doc.Node(r1).Props.Checked = true

	d.Dispatch(&Event{Type: "click", Target: r2, Bubbles: true, Cancelable: true, IsTrusted: true})

	if doc.Node(r1).Props.Checked {
		t.Fatalf("r1 should be unchecked after r2 selected")
	}
	if !doc.Node(r2).Props.Checked {
		t.Fatalf("r2 should be checked")
	}
}
