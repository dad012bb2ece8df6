package scheduler

import "testing"

func TestAdvanceTimeRunsDueTimersInOrder(t *testing.T) {
	s := New()
	var fired []string

	s.SetTimer(KindTimeout, 100, func(nowMs int64) { fired = append(fired, "a") })
	s.SetTimer(KindTimeout, 50, func(nowMs int64) { fired = append(fired, "b") })
	s.SetTimer(KindTimeout, 100, func(nowMs int64) { fired = append(fired, "c") })

	if err := s.AdvanceTime(100); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}

	want := []string{"b", "a", "c"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired[%d] = %s, want %s", i, fired[i], want[i])
		}
	}
}

func TestIntervalFiresOncePerMissedTick(t *testing.T) {
	s := New()
	count := 0
	s.SetTimer(KindInterval, 10, func(nowMs int64) { count++ })

	if err := s.AdvanceTime(35); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestClearTimerPreventsFiring(t *testing.T) {
	s := New()
	fired := false
	id := s.SetTimer(KindTimeout, 10, func(nowMs int64) { fired = true })
	if !s.ClearTimer(id) {
		t.Fatalf("ClearTimer returned false for live timer")
	}
	if s.ClearTimer(id) {
		t.Fatalf("ClearTimer returned true for already-cleared timer")
	}
	if err := s.AdvanceTime(100); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	if fired {
		t.Fatalf("cleared timer fired")
	}
}

func TestMicrotasksDrainBeforeNextTask(t *testing.T) {
	s := New()
	var order []string
	s.PushTask(func() {
		order = append(order, "task1")
		s.QueueMicrotask(func() { order = append(order, "micro1") })
	})
	s.PushTask(func() { order = append(order, "task2") })

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := []string{"task1", "micro1", "task2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestStepLimitExceeded(t *testing.T) {
	s := New()
	s.SetStepLimit(3)

	var reschedule func(nowMs int64)
	reschedule = func(nowMs int64) {
		s.SetTimer(KindTimeout, 1, reschedule)
	}
	s.SetTimer(KindTimeout, 1, reschedule)

	err := s.AdvanceTime(1000)
	if err == nil {
		t.Fatalf("expected step limit error, got nil")
	}
}

func TestRunNextTimerAdvancesClockToDueAt(t *testing.T) {
	s := New()
	s.SetTimer(KindTimeout, 500, func(nowMs int64) {})
	ran, err := s.RunNextTimer()
	if err != nil {
		t.Fatalf("RunNextTimer: %v", err)
	}
	if !ran {
		t.Fatalf("expected a timer to run")
	}
	if s.NowMs() != 500 {
		t.Fatalf("NowMs = %d, want 500", s.NowMs())
	}
}
