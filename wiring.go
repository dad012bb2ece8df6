package domtest

import (
	"fmt"

	"github.com/domtestrun/domtest/internal/dom"
	"github.com/domtestrun/domtest/internal/domerr"
	"github.com/domtestrun/domtest/internal/events"
	"github.com/domtestrun/domtest/internal/scheduler"
)

// wireTrace connects the scheduler's and dispatcher's trace hooks to
// r.trace, producing the exact line grammar each tag reserves. Called once,
// from NewRuntime. swapDocument, which builds a fresh *events.Dispatcher
// over each document a mock navigation swaps in, re-wires only that
// dispatcher's hooks, through wireDispatchTrace.
func (r *Runtime) wireTrace() {
	r.Sched.OnScheduleTimer = func(t *scheduler.Timer, delayMs int64) {
		r.trace.record(t.DueAt-delayMs, "timer", fmt.Sprintf(
			"schedule %s id=%d due_at=%d delay_ms=%d", t.Kind, t.ID, t.DueAt, delayMs,
		))
	}
	r.Sched.OnRunTimer = func(t *scheduler.Timer) {
		interval := "none"
		if t.IntervalMs > 0 {
			interval = fmt.Sprintf("%d", t.IntervalMs)
		}
		r.trace.record(t.DueAt, "timer", fmt.Sprintf(
			"run id=%d due_at=%d interval_ms=%s now_ms=%d", t.ID, t.DueAt, interval, t.DueAt,
		))
	}
	r.Sched.OnAdvance = func(deltaMs, from, to int64, ranDue int) {
		r.trace.record(from, "timer", fmt.Sprintf(
			"advance delta_ms=%d from=%d to=%d ran_due=%d", deltaMs, from, to, ranDue,
		))
	}
	r.Sched.OnFlush = func(from, to int64, ran int) {
		r.trace.record(from, "timer", fmt.Sprintf(
			"flush from=%d to=%d ran=%d", from, to, ran,
		))
	}
	r.wireDispatchTrace()
}

// wireDispatchTrace wires the dispatcher's per-phase and done hooks. Split
// out from wireTrace since the handle->label rendering needs r.Doc, which
// is swapped alongside r.Events in swapDocument -- keeping it a separate
// method makes both call sites (NewRuntime, swapDocument) one-liners.
func (r *Runtime) wireDispatchTrace() {
	r.Events.OnPhase = func(e *events.Event, node dom.Handle) {
		r.trace.record(r.Sched.NowMs(), "event", fmt.Sprintf(
			"%s target=%s current=%s phase=%s default_prevented=%t",
			e.Type, r.label(e.Target), r.label(node), e.Phase, e.DefaultPrevented(),
		))
	}
	r.Events.OnDone = func(e *events.Event) {
		outcome := "completed"
		if e.DefaultPrevented() {
			outcome = "prevented"
		}
		r.trace.record(r.Sched.NowMs(), "event", fmt.Sprintf(
			"done %s target=%s current=%s outcome=%s default_prevented=%t propagation_stopped=%t immediate_stopped=%t",
			e.Type, r.label(e.Target), r.label(e.Current), outcome,
			e.DefaultPrevented(), e.PropagationStopped(), e.ImmediateStopped(),
		))
	}
}

// label renders a handle the way Node.String() already does for dump
// output, giving trace lines a human-readable target/current without
// inventing a second selector-ish format.
func (r *Runtime) label(h dom.Handle) string {
	n := r.Doc.Node(h)
	if n == nil {
		return "<none>"
	}
	return n.String()
}

// translateStepLimit converts the scheduler's local overflow diagnostic
// into domerr.TimerStepLimitExceeded. AdvanceTimeTo wraps its
// *scheduler.StepLimitError in an unexported adapter carrying the
// advance_time target; Flush/RunDueTimers return the StepLimitError
// directly, with no due_limit.
func translateStepLimit(err error) error {
	if se, ok := err.(*scheduler.StepLimitError); ok {
		return &domerr.TimerStepLimitExceeded{
			NowMs:           se.NowMs,
			PendingTasks:    se.PendingTasks,
			NextTaskSummary: se.Summary,
		}
	}
	if u, ok := err.(interface {
		Unwrap() (*scheduler.StepLimitError, *int64)
	}); ok {
		se, due := u.Unwrap()
		return &domerr.TimerStepLimitExceeded{
			NowMs:           se.NowMs,
			DueLimit:        due,
			PendingTasks:    se.PendingTasks,
			NextTaskSummary: se.Summary,
		}
	}
	return err
}
