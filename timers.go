package reel

import (
	"slices"
	"time"

	"go.uber.org/zap"
)

// Clock is the stage's monotonic time source.
type Clock interface {
	Now() time.Duration
}

// SystemClock measures wall time since its creation.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock starting at zero now.
func NewSystemClock() *SystemClock { return &SystemClock{start: time.Now()} }

// Now returns the time elapsed since the clock was created.
func (c *SystemClock) Now() time.Duration { return time.Since(c.start) }

// ManualClock only moves when told to. Tests and deterministic playback use
// it.
type ManualClock struct {
	now time.Duration
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Duration { return c.now }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.now += d }

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Duration) { c.now = t }

// Timer is a scheduled piece of code. Intervals repeat until cancelled;
// timeouts run once.
type Timer struct {
	Code     Code
	Target   *DisplayObject
	Interval time.Duration
	RunOnce  bool

	next    time.Duration
	cleared bool
}

// Cleared reports whether the timer has been cancelled or has fired its
// only run.
func (t *Timer) Cleared() bool { return t.cleared }

// RegisterInterval schedules t and returns its id. Internal timers get
// negative ids so scripts cannot cancel them by guessing.
func (s *Stage) RegisterInterval(t *Timer, internal bool) int {
	s.lastTimerID++
	id := s.lastTimerID
	if internal {
		id = -id
	}
	t.next = s.opts.Clock.Now() + t.Interval
	t.cleared = false
	s.timers[id] = t
	return id
}

// SetInterval schedules code to run against target every interval.
func (s *Stage) SetInterval(code Code, target *DisplayObject, interval time.Duration) int {
	return s.RegisterInterval(&Timer{Code: code, Target: target, Interval: interval}, false)
}

// SetTimeout schedules code to run against target once after delay.
func (s *Stage) SetTimeout(code Code, target *DisplayObject, delay time.Duration) int {
	return s.RegisterInterval(&Timer{Code: code, Target: target, Interval: delay, RunOnce: true}, false)
}

// CancelInterval marks the timer cleared. It is dropped from the table on
// the next timer pass, so it never fires again, even later in the pass
// that cancelled it.
func (s *Stage) CancelInterval(id int) bool {
	t, ok := s.timers[id]
	if !ok || t.cleared {
		return false
	}
	t.cleared = true
	return true
}

// TimerCount returns the number of timers in the table, including cleared
// ones not yet dropped.
func (s *Stage) TimerCount() int { return len(s.timers) }

type dueTimer struct {
	id  int
	t   *Timer
	due time.Duration
}

// executeTimers runs every expired timer, longest overdue first, then
// drains the action queue if anything ran.
func (s *Stage) executeTimers() {
	if len(s.timers) == 0 {
		return
	}
	now := s.opts.Clock.Now()

	ids := make([]int, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var due []dueTimer
	for _, id := range ids {
		t := s.timers[id]
		if t.cleared {
			delete(s.timers, id)
			continue
		}
		if now >= t.next {
			due = append(due, dueTimer{id: id, t: t, due: t.next})
		}
	}
	if len(due) == 0 {
		return
	}
	slices.SortStableFunc(due, func(a, b dueTimer) int {
		switch {
		case a.due < b.due:
			return -1
		case a.due > b.due:
			return 1
		}
		return 0
	})

	for _, d := range due {
		t := d.t
		if t.cleared {
			continue
		}
		if t.Target != nil && t.Target.destroyed {
			s.log.Debug("timer target destroyed", zap.Int("id", d.id))
			t.cleared = true
			continue
		}
		s.execute(t.Code, t.Target)
		if t.RunOnce {
			t.cleared = true
		} else {
			t.next = now + t.Interval
		}
	}
	s.DrainActionQueue()
}

// clearIntervalTimers drops every timer. Replacing level 0 does this.
func (s *Stage) clearIntervalTimers() {
	clear(s.timers)
}
