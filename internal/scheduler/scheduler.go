// Package scheduler implements the deterministic task/microtask/timer
// scheduler (spec.md §4.5, C5): a single-threaded cooperative model driven
// by a fake clock that only advances through explicit calls. The struct
// shape (mutex-guarded state) is grounded on the teacher's
// internal/eventloop.go eventLoop type;
// the difference is that every wait here is virtual-clock arithmetic, never
// a real time.Sleep, since spec.md forbids real wall-clock waits.
package scheduler

import (
	"container/heap"
	"fmt"
	"sync"
)

// TaskKind distinguishes timer flavors for trace/diagnostic output.
type TaskKind int

const (
	KindTimeout TaskKind = iota
	KindInterval
	KindRAF
)

func (k TaskKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindInterval:
		return "interval"
	case KindRAF:
		return "raf"
	default:
		return "unknown"
	}
}

// Timer is a pending setTimeout/setInterval/requestAnimationFrame entry.
type Timer struct {
	Kind       TaskKind
	ID         int
	DueAt      int64 // ms
	Order      int64 // monotonic tie-breaker, assigned at registration
	IntervalMs int64 // 0 for one-shot
	Handler    func(nowMs int64)
	cleared    bool
	index      int // heap index, maintained by container/heap
}

// timerHeap is a min-heap ordered by (DueAt, Order) per spec's ordering
// guarantee #2 (same due_at → scheduling order wins).
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].DueAt != h[j].DueAt {
		return h[i].DueAt < h[j].DueAt
	}
	return h[i].Order < h[j].Order
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Task is a top-level unit of work pushed by the harness (an action that
// may recursively fire events and enqueue microtasks/timers).
type Task func()

// Scheduler owns the task queue, microtask queue, and timer heap, and the
// fake clock they all run against.
type Scheduler struct {
	mu sync.Mutex

	nowMs int64

	tasks      []Task
	microtasks []func()

	timers   timerHeap
	byID     map[int]*Timer
	nextID   int
	order    int64

	stepLimit int

	// Trace hooks — optional, set by the harness façade so scheduler
	// activity can be recorded in the §6.3 trace format without the
	// scheduler itself depending on the trace package.
	OnScheduleTimer func(t *Timer, delayMs int64)
	OnRunTimer      func(t *Timer)
	OnAdvance       func(deltaMs int64, from, to int64, ranDue int)
	OnFlush         func(from, to int64, ran int)
}

const defaultStepLimit = 10000

// New returns a Scheduler with now_ms = 0 and the default step limit.
func New() *Scheduler {
	return &Scheduler{
		byID:      make(map[int]*Timer),
		stepLimit: defaultStepLimit,
	}
}

// NowMs returns the current fake-clock time.
func (s *Scheduler) NowMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nowMs
}

// SetStepLimit configures the runaway-loop guard (default 10,000).
func (s *Scheduler) SetStepLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepLimit = n
}

// PushTask enqueues a top-level task.
func (s *Scheduler) PushTask(t Task) {
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
}

// QueueMicrotask enqueues a microtask (FIFO).
func (s *Scheduler) QueueMicrotask(fn func()) {
	s.mu.Lock()
	s.microtasks = append(s.microtasks, fn)
	s.mu.Unlock()
}

// RunTask runs one top-level task synchronously, then drains microtasks,
// per ordering guarantee #1.
func (s *Scheduler) RunTask(t Task) {
	t()
	s.drainMicrotasks()
}

func (s *Scheduler) drainMicrotasks() {
	for {
		s.mu.Lock()
		if len(s.microtasks) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.microtasks[0]
		s.microtasks = s.microtasks[1:]
		s.mu.Unlock()
		fn()
	}
}

// SetTimer registers a one-shot or repeating timer and returns its id.
// Ids are unique over the runtime's lifetime and monotonically increasing
// (Invariant 4).
func (s *Scheduler) SetTimer(kind TaskKind, delayMs int64, handler func(nowMs int64)) int {
	if delayMs < 0 {
		delayMs = 0
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.order++
	t := &Timer{
		Kind:    kind,
		ID:      id,
		DueAt:   s.nowMs + delayMs,
		Order:   s.order,
		Handler: handler,
	}
	if kind == TaskKind(KindInterval) {
		t.IntervalMs = delayMs
	}
	s.byID[id] = t
	heap.Push(&s.timers, t)
	hook := s.OnScheduleTimer
	s.mu.Unlock()
	if hook != nil {
		hook(t, delayMs)
	}
	return id
}

// ClearTimer cancels a timer by id. Returns false if the timer does not
// exist or has already fired (spec's "clearing an already-fired timer is a
// no-op returning false").
func (s *Scheduler) ClearTimer(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok || t.cleared {
		return false
	}
	t.cleared = true
	delete(s.byID, id)
	if t.index >= 0 && t.index < len(s.timers) {
		heap.Remove(&s.timers, t.index)
	}
	return true
}

// ClearAllTimers empties the timer heap.
func (s *Scheduler) ClearAllTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.cleared = true
	}
	s.timers = nil
	s.byID = make(map[int]*Timer)
}

// PendingTimers returns a snapshot of still-active timers ordered by
// (due_at, order).
func (s *Scheduler) PendingTimers() []Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Timer, 0, len(s.timers))
	cp := append(timerHeap(nil), s.timers...)
	for len(cp) > 0 {
		t := heap.Pop(&cp).(*Timer)
		out = append(out, *t)
	}
	return out
}

// popNextReady pops and returns the earliest timer if its due_at is <= upTo,
// or nil if none qualifies. Reschedules intervals before returning.
func (s *Scheduler) popNextReady(upTo int64) *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	next := s.timers[0]
	if next.DueAt > upTo {
		return nil
	}
	heap.Pop(&s.timers)
	delete(s.byID, next.ID)
	if next.IntervalMs > 0 && !next.cleared {
		s.order++
		resched := &Timer{
			Kind:       next.Kind,
			ID:         next.ID,
			DueAt:      next.DueAt + next.IntervalMs,
			Order:      s.order,
			IntervalMs: next.IntervalMs,
			Handler:    next.Handler,
		}
		s.byID[resched.ID] = resched
		heap.Push(&s.timers, resched)
	}
	return next
}

func (s *Scheduler) peekNext() *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[0]
}

func (s *Scheduler) setNow(ms int64) {
	s.mu.Lock()
	if ms > s.nowMs {
		s.nowMs = ms
	}
	s.mu.Unlock()
}

func (s *Scheduler) fireTimer(t *Timer) {
	if t.cleared {
		return
	}
	hook := s.OnRunTimer
	if hook != nil {
		hook(t)
	}
	t.Handler(s.NowMs())
	s.drainMicrotasks()
}

func (s *Scheduler) runStep(limit int, stepCount *int, context string) error {
	*stepCount++
	if *stepCount > limit {
		return s.stepLimitError(context)
	}
	return nil
}

func (s *Scheduler) stepLimitError(context string) error {
	pending := s.PendingTimers()
	summary := "none"
	if len(pending) > 0 {
		summary = fmt.Sprintf("%s id=%d due_at=%d", pending[0].Kind, pending[0].ID, pending[0].DueAt)
	}
	return &StepLimitError{
		NowMs:        s.NowMs(),
		PendingTasks: len(pending),
		Summary:      summary,
		Context:      context,
	}
}

// StepLimitError is the scheduler-local overflow diagnostic; the harness
// façade translates it into domerr.TimerStepLimitExceeded with the
// due_limit field filled in per call site (flush has none, advance_time
// carries its target).
type StepLimitError struct {
	NowMs        int64
	PendingTasks int
	Summary      string
	Context      string
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("scheduler step limit exceeded during %s at now_ms=%d", e.Context, e.NowMs)
}

// RunDueTimers runs every timer with due_at <= now_ms, without advancing
// the clock.
func (s *Scheduler) RunDueTimers() (int, error) {
	ran := 0
	steps := 0
	limit := s.limit()
	for {
		t := s.popNextReady(s.NowMs())
		if t == nil {
			return ran, nil
		}
		if err := s.runStep(limit, &steps, "run_due_timers"); err != nil {
			return ran, err
		}
		s.fireTimer(t)
		ran++
	}
}

// RunNextDueTimer runs at most one timer whose due_at <= now_ms.
func (s *Scheduler) RunNextDueTimer() (bool, error) {
	t := s.popNextReady(s.NowMs())
	if t == nil {
		return false, nil
	}
	s.fireTimer(t)
	return true, nil
}

// RunNextTimer jumps now_ms to the next timer's due_at (if strictly greater
// than the current clock) and fires it.
func (s *Scheduler) RunNextTimer() (bool, error) {
	next := s.peekNext()
	if next == nil {
		return false, nil
	}
	if next.DueAt > s.NowMs() {
		s.setNow(next.DueAt)
	}
	t := s.popNextReady(s.NowMs())
	if t == nil {
		return false, nil
	}
	s.fireTimer(t)
	return true, nil
}

// AdvanceTime moves the fake clock forward by ms, running every timer due
// along the way in (due_at, order) sequence.
func (s *Scheduler) AdvanceTime(ms int64) error {
	return s.AdvanceTimeTo(s.NowMs() + ms)
}

// AdvanceTimeTo moves the fake clock forward to targetMs (never backward),
// running every timer due along the way.
func (s *Scheduler) AdvanceTimeTo(targetMs int64) error {
	from := s.NowMs()
	if targetMs < from {
		targetMs = from
	}
	ran := 0
	steps := 0
	limit := s.limit()
	for {
		next := s.peekNext()
		if next == nil || next.DueAt > targetMs {
			break
		}
		s.setNow(next.DueAt)
		if err := s.runStep(limit, &steps, "advance_time"); err != nil {
			due := targetMs
			se := err.(*StepLimitError)
			return &domerrAdapter{se: se, dueLimit: &due}
		}
		t := s.popNextReady(s.NowMs())
		if t == nil {
			break
		}
		s.fireTimer(t)
		ran++
	}
	s.setNow(targetMs)
	if hook := s.OnAdvance; hook != nil {
		hook(targetMs-from, from, targetMs, ran)
	}
	return nil
}

// Flush runs tasks/timers/microtasks until every queue is empty, advancing
// the clock to each timer's due_at in turn (never backward). Aborts with a
// StepLimitError past the step limit.
func (s *Scheduler) Flush() error {
	from := s.NowMs()
	ran := 0
	steps := 0
	limit := s.limit()
	for {
		s.mu.Lock()
		hasTasks := len(s.tasks) > 0
		s.mu.Unlock()
		if hasTasks {
			s.mu.Lock()
			t := s.tasks[0]
			s.tasks = s.tasks[1:]
			s.mu.Unlock()
			if err := s.runStep(limit, &steps, "flush"); err != nil {
				return err
			}
			t()
			s.drainMicrotasks()
			ran++
			continue
		}
		next := s.peekNext()
		if next == nil {
			break
		}
		s.setNow(next.DueAt)
		if err := s.runStep(limit, &steps, "flush"); err != nil {
			return err
		}
		fired := s.popNextReady(s.NowMs())
		if fired == nil {
			break
		}
		s.fireTimer(fired)
		ran++
	}
	if hook := s.OnFlush; hook != nil {
		hook(from, s.NowMs(), ran)
	}
	return nil
}

func (s *Scheduler) limit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLimit
}

// domerrAdapter carries the advance_time-specific due_limit alongside a
// StepLimitError without scheduler depending on the domerr package
// (avoids an import cycle; the façade unwraps this when translating).
type domerrAdapter struct {
	se       *StepLimitError
	dueLimit *int64
}

func (e *domerrAdapter) Error() string { return e.se.Error() }

// Unwrap exposes the underlying StepLimitError and due_limit pointer for
// the façade to translate into domerr.TimerStepLimitExceeded.
func (e *domerrAdapter) Unwrap() (*StepLimitError, *int64) { return e.se, e.dueLimit }
