package domtest

import (
	"strconv"

	"github.com/domtestrun/domtest/internal/scheduler"
)

// NowMs returns the fake clock's current reading.
func (r *Runtime) NowMs() int64 {
	return r.Sched.NowMs()
}

// AdvanceTimeTo moves the fake clock forward to targetMs (never backward),
// running every timer due along the way. It is the absolute-target sibling
// of AdvanceTime's relative delta.
func (r *Runtime) AdvanceTimeTo(targetMs int64) error {
	before := r.Sched.NowMs()
	if err := r.Sched.AdvanceTimeTo(targetMs); err != nil {
		return r.annotateStepLimit(err)
	}
	r.trace.record(before, "advance", "target="+strconv.FormatInt(targetMs, 10)+"ms")
	return nil
}

// RunDueTimers runs every timer with due_at <= now_ms, without moving the
// clock, and returns how many ran.
func (r *Runtime) RunDueTimers() (int, error) {
	n, err := r.Sched.RunDueTimers()
	if err != nil {
		return n, r.annotateStepLimit(err)
	}
	return n, nil
}

// RunNextTimer jumps the clock to the next pending timer's due_at (if
// later than now) and fires it. Returns false if no timer is pending.
func (r *Runtime) RunNextTimer() (bool, error) {
	return r.Sched.RunNextTimer()
}

// RunNextDueTimer runs at most one timer already due at the current clock
// reading, without advancing it. Returns false if none is due.
func (r *Runtime) RunNextDueTimer() (bool, error) {
	return r.Sched.RunNextDueTimer()
}

// ClearTimer cancels a pending timeout/interval/raf by id.
func (r *Runtime) ClearTimer(id int) bool {
	return r.Sched.ClearTimer(id)
}

// ClearAllTimers cancels every pending timer.
func (r *Runtime) ClearAllTimers() {
	r.Sched.ClearAllTimers()
}

// PendingTimers returns a snapshot of every still-active timer, ordered by
// (due_at, registration order).
func (r *Runtime) PendingTimers() []scheduler.Timer {
	return r.Sched.PendingTimers()
}

// SetTimerStepLimit reconfigures the runaway-loop guard a single Flush or
// AdvanceTime call may take before giving up with TimerStepLimitExceeded.
func (r *Runtime) SetTimerStepLimit(n int) {
	r.Sched.SetStepLimit(n)
}

// TakeTraceLogs returns every trace line recorded since the runtime was
// created (or since the last call to TakeTraceLogs) and clears the buffer.
func (r *Runtime) TakeTraceLogs() []string {
	return r.trace.take()
}
