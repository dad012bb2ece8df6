// Package events implements the capture/target/bubble dispatch state
// machine spec.md §4.4 (C4) requires. The listener-table and phase-walk
// shape is grounded on the viberowser js-executor's EventBinder, which
// pre-computes an element's activation behavior (toggling a checkbox's
// checked state) before handing control to dispatch -- the same
// before-dispatch/after-dispatch split this package uses for default
// actions, adapted from goja-bound closures to our own Handler signature.
package events

import (
	"github.com/domtestrun/domtest/internal/dom"
)

// Phase identifies where in the capture/target/bubble walk a listener
// fired or an event currently is.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapture
	PhaseTarget
	PhaseBubble
)

func (p Phase) String() string {
	switch p {
	case PhaseCapture:
		return "capture"
	case PhaseTarget:
		return "target"
	case PhaseBubble:
		return "bubble"
	default:
		return "none"
	}
}

// Event is the dispatch-time record spec.md §4.4 requires: type, target,
// currentTarget as the walk proceeds, phase, bubbling/cancelable flags, and
// the trust/defaultPrevented/propagation-stopped state a handler can
// observe and mutate.
type Event struct {
	Type      string
	Target    dom.Handle
	Current   dom.Handle
	Phase     Phase
	Bubbles   bool
	Cancelable bool
	IsTrusted bool

	defaultPrevented  bool
	propagationStopped bool
	immediateStopped  bool

	// Detail carries event-specific payload (e.g. the key for keydown),
	// opaque to the dispatcher itself.
	Detail map[string]any

	// PendingException is set if a listener raised a script error; the
	// dispatcher records it and then stops the walk as
	// stopImmediatePropagation would (no further listeners on that node or
	// later phases), per spec's pending-exception-slot semantics (one slot
	// per dispatch, first error wins).
	PendingException error
}

func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

func (e *Event) StopPropagation() { e.propagationStopped = true }

func (e *Event) StopImmediatePropagation() {
	e.propagationStopped = true
	e.immediateStopped = true
}

func (e *Event) PropagationStopped() bool { return e.propagationStopped }

func (e *Event) ImmediateStopped() bool { return e.immediateStopped }

// Handler is a listener callback. Returning a non-nil error records it in
// the event's PendingException slot and stops propagation as
// stopImmediatePropagation does.
type Handler func(e *Event) error

type listenerEntry struct {
	handler Handler
	capture bool
	once    bool
	id      int
}

// Dispatcher owns the listener table, keyed by (node, event type), and
// drives capture/target/bubble dispatch against a dom.Document's ancestor
// chain.
type Dispatcher struct {
	doc       *dom.Document
	listeners map[dom.Handle]map[string][]*listenerEntry
	nextID    int

	// DefaultActions maps event type to the built-in behavior composed
	// after listeners run and no listener called preventDefault (spec.md
	// §4.4's default-action table).
	DefaultActions map[string]DefaultActionFunc

	navigationSink func(href string)
	downloadSink   func(source dom.Handle, href, filename string)

	// Trace hooks -- optional, set by the harness façade so dispatch
	// activity can be recorded in the §6.3 trace format without this
	// package depending on the trace package. OnPhase fires once per
	// (node, phase) the walk visits, before its listeners run; OnDone
	// fires exactly once, whether the walk completed normally or was cut
	// short by stopPropagation.
	OnPhase func(e *Event, node dom.Handle)
	OnDone  func(e *Event)
}

// DefaultActionFunc implements one default action (checkbox toggle, form
// submit, anchor navigation, ...). It receives the dispatcher so it can
// raise follow-on events (input/change/submit) itself.
type DefaultActionFunc func(d *Dispatcher, e *Event)

// NewDispatcher returns a Dispatcher wired to doc, with the standard
// default-action table installed.
func NewDispatcher(doc *dom.Document) *Dispatcher {
	d := &Dispatcher{
		doc:       doc,
		listeners: make(map[dom.Handle]map[string][]*listenerEntry),
	}
	d.DefaultActions = standardDefaultActions()
	return d
}

// AddEventListener registers handler for (target, eventType). Returns a
// listener id usable with RemoveEventListenerByID. Exact duplicate
// (target, type, capture, handler-identity) registrations are the caller's
// responsibility to dedup -- this runtime compares by id, matching how the
// evaluator's Function values are never pointer-identical across distinct
// closures anyway.
func (d *Dispatcher) AddEventListener(target dom.Handle, eventType string, h Handler, capture, once bool) int {
	d.nextID++
	id := d.nextID
	if d.listeners[target] == nil {
		d.listeners[target] = make(map[string][]*listenerEntry)
	}
	d.listeners[target][eventType] = append(d.listeners[target][eventType], &listenerEntry{
		handler: h, capture: capture, once: once, id: id,
	})
	return id
}

// RemoveEventListenerByID removes a previously registered listener.
func (d *Dispatcher) RemoveEventListenerByID(target dom.Handle, eventType string, id int) {
	list := d.listeners[target][eventType]
	for i, e := range list {
		if e.id == id {
			d.listeners[target][eventType] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Dispatch runs the full capture -> target -> bubble walk for e (e.Target
// must already be set), snapshotting each node's listener list before
// invoking any of them so handlers that add/remove listeners mid-dispatch
// never affect the current dispatch (spec's mutation-safety invariant).
func (d *Dispatcher) Dispatch(e *Event) {
	ancestors := d.doc.Ancestors(e.Target) // outermost-first

	// The default action runs here, after the walk, whether the walk
	// completed or was cut short by stopPropagation.
	defer func() {
		if !e.defaultPrevented {
			if action, ok := d.DefaultActions[e.Type]; ok {
				action(d, e)
			}
		}
		if d.OnDone != nil {
			d.OnDone(e)
		}
	}()

	// Capture phase: root to parent, excluding target.
	e.Phase = PhaseCapture
	for _, h := range ancestors {
		e.Current = h
		if !d.runPhase(e, h, true) {
			return
		}
	}

	// Target phase: capture-registered and bubble-registered listeners
	// both fire at the target, capture-registered ones first, then
	// bubble-registered ones, each group in registration order.
	e.Phase = PhaseTarget
	e.Current = e.Target
	if !d.runPhase(e, e.Target, true) {
		return
	}
	if !d.runPhase(e, e.Target, false) {
		return
	}

	// Bubble phase: parent to root, excluding target.
	if e.Bubbles {
		e.Phase = PhaseBubble
		for i := len(ancestors) - 1; i >= 0; i-- {
			h := ancestors[i]
			e.Current = h
			if !d.runPhase(e, h, false) {
				return
			}
		}
	}
}

// runPhase invokes every snapshotted listener on node matching capture,
// returning false if stopPropagation (or stopImmediatePropagation, after
// the listener that called it) means the walk should end.
func (d *Dispatcher) runPhase(e *Event, node dom.Handle, capture bool) bool {
	if d.OnPhase != nil {
		d.OnPhase(e, node)
	}
	byType := d.listeners[node]
	if byType == nil {
		return !e.propagationStopped
	}
	snapshot := append([]*listenerEntry(nil), byType[e.Type]...)
	var toRemove []int
	for _, entry := range snapshot {
		if entry.capture != capture {
			continue
		}
		if err := entry.handler(e); err != nil {
			if e.PendingException == nil {
				e.PendingException = err
			}
			e.StopImmediatePropagation()
		}
		if entry.once {
			toRemove = append(toRemove, entry.id)
		}
		if e.immediateStopped {
			break
		}
	}
	for _, id := range toRemove {
		d.RemoveEventListenerByID(node, e.Type, id)
	}
	return !e.propagationStopped
}
