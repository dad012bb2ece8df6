package domtest

import (
	"fmt"

	"github.com/domtestrun/domtest/internal/dom"
	"github.com/domtestrun/domtest/internal/domerr"
	"github.com/domtestrun/domtest/internal/events"
	"github.com/domtestrun/domtest/internal/prng"
	"github.com/domtestrun/domtest/internal/scheduler"
	"github.com/domtestrun/domtest/internal/script"
)

// RuntimeConfig tunes the fixed limits a Runtime enforces; the zero value
// picks the scheduler's own defaults.
type RuntimeConfig struct {
	// RandomSeed seeds Math.random() and every other identifier drawn
	// from the runtime's deterministic stream. Zero means "unseeded",
	// in which case a fixed default is used so two Runtimes built
	// without an explicit seed still replay identically.
	RandomSeed uint64

	// TimerStepLimit bounds how many timer/microtask steps a single
	// Flush or AdvanceTime call may run before giving up with
	// TimerStepLimitExceeded. Zero keeps the scheduler's built-in limit.
	TimerStepLimit int
}

const defaultRandomSeed = 1

// Runtime is one loaded page: its DOM tree, event dispatcher, fake-clock
// scheduler, and script evaluator, plus the mock surface (fetch, clipboard,
// dialogs, downloads) a form-centric test drives through. Each Runtime is
// single-fixture and single-goroutine, matching the teacher's per-request
// isolation model without any of its concurrency plumbing -- a test case
// owns its Runtime outright for the duration of one scenario.
type Runtime struct {
	Doc    *dom.Document
	Events *events.Dispatcher
	Sched  *scheduler.Scheduler
	Interp *script.Interp

	rng   *prng.Source
	trace *Trace

	mocks *mockState
}

// NewRuntime loads html as a fresh document, wires the event dispatcher
// and fake-clock scheduler to a new script evaluator, and runs every
// inline <script> the markup declared, in source order. A failing inline
// script aborts construction and returns its ScriptParse or ScriptRuntime
// error to the caller.
func NewRuntime(html string, cfg RuntimeConfig) (*Runtime, error) {
	doc, scripts, err := dom.Load(html)
	if err != nil {
		return nil, err
	}

	disp := events.NewDispatcher(doc)
	sched := scheduler.New()
	if cfg.TimerStepLimit > 0 {
		sched.SetStepLimit(cfg.TimerStepLimit)
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = defaultRandomSeed
	}
	rng := newRNG(seed)

	interp := script.NewInterp(doc, disp, sched, rng)

	r := &Runtime{
		Doc:    doc,
		Events: disp,
		Sched:  sched,
		Interp: interp,
		rng:    rng,
		trace:  newTrace(),
		mocks:  newMockState(),
	}

	disp.SetNavigationSink(r.recordNavigation)
	disp.SetDownloadSink(r.recordDownload)
	interp.Hooks = r.buildHooks()
	r.wireTrace()

	for _, src := range scripts {
		if err := interp.Run(src.Code); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Trace returns the runtime's activity log -- actions, clock advances,
// and timer firings recorded in the order they ran.
func (r *Runtime) Trace() *Trace {
	return r.trace
}

// Flush runs every due timer and microtask to exhaustion without moving
// the clock, the same semantics internal/scheduler.Scheduler.Flush
// provides directly -- this wrapper exists so callers only ever go
// through Runtime and so each flush gets a trace line.
func (r *Runtime) Flush() error {
	before := r.Sched.NowMs()
	if err := r.Sched.Flush(); err != nil {
		return r.annotateStepLimit(err)
	}
	r.trace.record(before, "flush", "drained due timers and microtasks")
	return nil
}

// AdvanceTime moves the fake clock forward by deltaMs, firing every timer
// that becomes due along the way, in fire-time order.
func (r *Runtime) AdvanceTime(deltaMs int64) error {
	before := r.Sched.NowMs()
	if err := r.Sched.AdvanceTime(deltaMs); err != nil {
		return r.annotateStepLimit(err)
	}
	r.trace.record(before, "advance", fmt.Sprintf("+%dms -> %dms", deltaMs, r.Sched.NowMs()))
	return nil
}

func (r *Runtime) annotateStepLimit(err error) error {
	translated := translateStepLimit(err)
	if _, ok := translated.(*domerr.TimerStepLimitExceeded); ok {
		r.trace.record(r.Sched.NowMs(), "timer-limit", translated.Error())
	}
	return translated
}

// RunScript executes src in the runtime's existing global scope, as if it
// were one more inline <script> appended to the page.
func (r *Runtime) RunScript(src string) error {
	r.trace.record(r.Sched.NowMs(), "script", fmt.Sprintf("%s inline script", sizeNote(len(src))))
	return r.Interp.Run(src)
}

// ConsoleLog returns every console.* call recorded since the runtime was
// created, in call order.
func (r *Runtime) ConsoleLog() []script.ConsoleEntry {
	return r.Interp.ConsoleLog
}

// swapDocument replaces the runtime's document with a freshly loaded page,
// as if navigation had actually followed the link: a new dispatcher and
// evaluator are built over the new tree, but the fake clock and random
// stream carry over unbroken, matching the teacher's page-mock design note
// that navigation never resets determinism state.
func (r *Runtime) swapDocument(html string) error {
	doc, scripts, err := dom.Load(html)
	if err != nil {
		return err
	}
	disp := events.NewDispatcher(doc)
	interp := script.NewInterp(doc, disp, r.Sched, r.rng)

	r.Doc = doc
	r.Events = disp
	r.Interp = interp

	disp.SetNavigationSink(r.recordNavigation)
	disp.SetDownloadSink(r.recordDownload)
	interp.Hooks = r.buildHooks()
	r.wireDispatchTrace()

	for _, src := range scripts {
		if err := interp.Run(src.Code); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) resolve(selector string) (dom.Handle, error) {
	list, err := dom.ParseSelectorList(selector)
	if err != nil {
		return dom.NoHandle, err
	}
	h := r.Doc.QuerySelector(r.Doc.Root, list)
	if h == dom.NoHandle {
		return dom.NoHandle, &domerr.SelectorNotFound{Selector: selector}
	}
	return h, nil
}
