package reel

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newLimitStage(t *testing.T, maxActions, maxRecursion int) *Stage {
	t.Helper()
	return NewStage(Options{
		Logger:            zaptest.NewLogger(t),
		Clock:             &ManualClock{},
		MaxActionsPerTick: maxActions,
		MaxRecursion:      maxRecursion,
	})
}

// --- Ordering ---

func TestActionQueueRunsLowestPriorityFirst(t *testing.T) {
	s, _ := newTestStage(t)
	rec := &recorder{}
	s.PushAction(rec.code("do"), nil, PriorityDoAction)
	s.PushAction(rec.code("enter"), nil, PriorityEnterFrame)
	s.PushAction(rec.code("construct"), nil, PriorityConstruct)
	s.PushAction(rec.code("init"), nil, PriorityInit)

	s.DrainActionQueue()
	if rec.joined() != "init,construct,enter,do" {
		t.Errorf("order = %q", rec.joined())
	}
	for p := PriorityInit; p <= PriorityDoAction; p++ {
		if s.QueueLen(p) != 0 {
			t.Errorf("level %v not empty", p)
		}
	}
}

func TestActionQueueLowerLevelPreempts(t *testing.T) {
	s, _ := newTestStage(t)
	rec := &recorder{}
	s.PushAction(CodeFunc(func(*DisplayObject) error {
		rec.calls = append(rec.calls, "first")
		s.PushAction(rec.code("init"), nil, PriorityInit)
		return nil
	}), nil, PriorityDoAction)
	s.PushAction(rec.code("second"), nil, PriorityDoAction)

	s.DrainActionQueue()
	if rec.joined() != "first,init,second" {
		t.Errorf("order = %q, want the init action before the rest of the level", rec.joined())
	}
}

func TestActionQueueInitQueuedByInitRunsInOrder(t *testing.T) {
	s, _ := newTestStage(t)
	rec := &recorder{}
	s.PushAction(CodeFunc(func(*DisplayObject) error {
		rec.calls = append(rec.calls, "a")
		s.PushAction(rec.code("c"), nil, PriorityInit)
		return nil
	}), nil, PriorityInit)
	s.PushAction(rec.code("b"), nil, PriorityInit)

	s.DrainActionQueue()
	if rec.joined() != "a,b,c" {
		t.Errorf("order = %q", rec.joined())
	}
}

func TestActionQueueDrainIsNotReentrant(t *testing.T) {
	s, _ := newTestStage(t)
	rec := &recorder{}
	s.PushAction(CodeFunc(func(*DisplayObject) error {
		s.PushAction(rec.code("nested"), nil, PriorityDoAction)
		s.DrainActionQueue()
		rec.calls = append(rec.calls, "after-drain")
		return nil
	}), nil, PriorityDoAction)

	s.DrainActionQueue()
	if rec.joined() != "after-drain,nested" {
		t.Errorf("order = %q, want the nested drain to return at once", rec.joined())
	}
}

func TestFlushHigherPriority(t *testing.T) {
	s, _ := newTestStage(t)
	rec := &recorder{}
	s.PushAction(CodeFunc(func(*DisplayObject) error {
		rec.calls = append(rec.calls, "start")
		s.PushAction(rec.code("init"), nil, PriorityInit)
		s.PushAction(rec.code("later"), nil, PriorityDoAction)
		s.FlushHigherPriority()
		rec.calls = append(rec.calls, "end")
		return nil
	}), nil, PriorityDoAction)

	s.DrainActionQueue()
	if rec.joined() != "start,init,end,later" {
		t.Errorf("order = %q", rec.joined())
	}
}

func TestFlushHigherPriorityOutsideDrain(t *testing.T) {
	s, _ := newTestStage(t)
	s.PushAction(CodeFunc(func(*DisplayObject) error { return nil }), nil, PriorityInit)
	s.FlushHigherPriority()
	if s.QueueLen(PriorityInit) != 1 {
		t.Error("FlushHigherPriority ran actions outside a drain")
	}
}

func TestPushActionInvalidPriorityPanics(t *testing.T) {
	s, _ := newTestStage(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an out-of-range priority")
		}
	}()
	s.PushAction(CodeFunc(func(*DisplayObject) error { return nil }), nil, Priority(9))
}

func TestPriorityString(t *testing.T) {
	tests := []struct {
		p    Priority
		want string
	}{
		{PriorityInit, "init"},
		{PriorityConstruct, "construct"},
		{PriorityEnterFrame, "enterframe"},
		{PriorityDoAction, "doaction"},
		{Priority(7), "Priority(7)"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Priority(%d).String() = %q, want %q", int(tt.p), got, tt.want)
		}
	}
}

// --- Limits ---

func TestMaxActionsPerTickDisablesScripts(t *testing.T) {
	s := newLimitStage(t, 3, 0)
	var runs int
	count := CodeFunc(func(*DisplayObject) error {
		runs++
		return nil
	})
	for i := 0; i < 5; i++ {
		s.PushAction(count, nil, PriorityDoAction)
	}

	s.DrainActionQueue()
	if runs != 3 {
		t.Errorf("runs = %d, want 3", runs)
	}
	if !s.ScriptsDisabled() {
		t.Fatal("scripts still enabled after the limit")
	}
	if s.QueueLen(PriorityDoAction) != 0 {
		t.Error("queue not cleared")
	}
	s.PushAction(count, nil, PriorityDoAction)
	if s.QueueLen(PriorityDoAction) != 0 {
		t.Error("actions accepted after scripts were disabled")
	}
}

func TestActionCountResetsEachTick(t *testing.T) {
	s := newLimitStage(t, 2, 0)
	nop := CodeFunc(func(*DisplayObject) error { return nil })
	for tick := 0; tick < 3; tick++ {
		s.PushAction(nop, nil, PriorityDoAction)
		s.PushAction(nop, nil, PriorityDoAction)
		s.Advance()
	}
	if s.ScriptsDisabled() {
		t.Error("limit applied across ticks")
	}
}

func TestMaxRecursionDisablesScripts(t *testing.T) {
	s := newLimitStage(t, 0, 2)
	var depth int
	var recurse CodeFunc
	recurse = func(*DisplayObject) error {
		depth++
		s.execute(recurse, nil)
		return nil
	}

	s.execute(recurse, nil)
	if depth != 2 {
		t.Errorf("depth = %d, want 2", depth)
	}
	if !s.ScriptsDisabled() {
		t.Error("scripts still enabled after the recursion limit")
	}
}

func TestCodeReportingActionLimitDisablesScripts(t *testing.T) {
	s, _ := newTestStage(t)
	s.PushAction(CodeFunc(func(*DisplayObject) error {
		return errors.New("plain failure")
	}), nil, PriorityDoAction)
	s.DrainActionQueue()
	if s.ScriptsDisabled() {
		t.Fatal("an ordinary error disabled scripts")
	}

	rec := &recorder{}
	s.PushAction(CodeFunc(func(*DisplayObject) error {
		return fmt.Errorf("script timed out: %w", ErrActionLimit)
	}), nil, PriorityDoAction)
	s.PushAction(rec.code("after"), nil, PriorityDoAction)
	s.DrainActionQueue()
	if !s.ScriptsDisabled() {
		t.Error("wrapped ErrActionLimit did not disable scripts")
	}
	if rec.joined() != "" {
		t.Errorf("queued action ran after the limit: %q", rec.joined())
	}
}
