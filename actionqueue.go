package reel

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Priority selects an action queue level. Lower levels always run first.
type Priority int

const (
	PriorityInit       Priority = iota // init events and init actions
	PriorityConstruct                  // construct and load events
	PriorityEnterFrame                 // enter-frame events
	PriorityDoAction                   // frame actions and other events
	numPriorities
)

func (p Priority) String() string {
	switch p {
	case PriorityInit:
		return "init"
	case PriorityConstruct:
		return "construct"
	case PriorityEnterFrame:
		return "enterframe"
	case PriorityDoAction:
		return "doaction"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

type queuedAction struct {
	code         Code
	target       *DisplayObject
	skipUnloaded bool // frame actions of an unloaded clip never run
}

// PushAction appends code to run against target at level p.
func (s *Stage) PushAction(code Code, target *DisplayObject, p Priority) {
	s.pushAction(code, target, p, false)
}

func (s *Stage) pushAction(code Code, target *DisplayObject, p Priority, skipUnloaded bool) {
	if p < 0 || p >= numPriorities {
		panic(fmt.Sprintf("reel: invalid action priority %d", int(p)))
	}
	if s.scriptsDisabled || code == nil {
		return
	}
	s.queue[p] = append(s.queue[p], queuedAction{code: code, target: target, skipUnloaded: skipUnloaded})
}

// QueueLen returns the number of actions pending at level p.
func (s *Stage) QueueLen(p Priority) int { return len(s.queue[p]) }

func (s *Stage) minPopulated() Priority {
	for p := Priority(0); p < numPriorities; p++ {
		if len(s.queue[p]) > 0 {
			return p
		}
	}
	return numPriorities
}

func (s *Stage) popAction(p Priority) queuedAction {
	a := s.queue[p][0]
	s.queue[p][0] = queuedAction{}
	s.queue[p] = s.queue[p][1:]
	return a
}

// DrainActionQueue executes queued actions until every level is empty.
// After each action the lowest populated level is picked again, so work
// queued at a lower level preempts the rest of the current one.
func (s *Stage) DrainActionQueue() {
	if s.processingLevel < numPriorities {
		return
	}
	for {
		p := s.minPopulated()
		if p == numPriorities {
			break
		}
		s.processingLevel = p
		a := s.popAction(p)
		if a.skipUnloaded && a.target != nil && a.target.unloaded {
			continue
		}
		s.execute(a.code, a.target)
	}
	s.processingLevel = numPriorities
}

// FlushHigherPriority drains the levels strictly below the one currently
// being processed. It is a no-op outside DrainActionQueue.
func (s *Stage) FlushHigherPriority() {
	cur := s.processingLevel
	if cur >= numPriorities {
		return
	}
	for {
		p := s.minPopulated()
		if p >= cur {
			break
		}
		s.processingLevel = p
		a := s.popAction(p)
		if a.skipUnloaded && a.target != nil && a.target.unloaded {
			continue
		}
		s.execute(a.code, a.target)
	}
	s.processingLevel = cur
}

// execute runs code against target, enforcing the action limits.
func (s *Stage) execute(code Code, target *DisplayObject) {
	if s.scriptsDisabled || code == nil {
		return
	}
	if s.recursion >= s.opts.MaxRecursion {
		s.handleActionLimit(fmt.Errorf("recursion depth %d: %w", s.recursion, ErrActionLimit))
		return
	}
	s.actionCount++
	if s.actionCount > s.opts.MaxActionsPerTick {
		s.handleActionLimit(fmt.Errorf("%d actions in one tick: %w", s.actionCount, ErrActionLimit))
		return
	}
	s.recursion++
	err := code.Run(target)
	s.recursion--
	if err == nil {
		return
	}
	if errors.Is(err, ErrActionLimit) {
		s.handleActionLimit(err)
		return
	}
	s.log.Warn("action failed", zap.String("target", target.Path()), zap.Error(err))
}

// handleActionLimit disables scripting for the rest of the session and
// drops everything queued.
func (s *Stage) handleActionLimit(err error) {
	if s.scriptsDisabled {
		return
	}
	s.log.Error("script limits hit, disabling scripts", zap.Error(err))
	s.scriptsDisabled = true
	s.clearActionQueue()
}

// ScriptsDisabled reports whether an action limit disabled scripting.
func (s *Stage) ScriptsDisabled() bool { return s.scriptsDisabled }

func (s *Stage) clearActionQueue() {
	for p := range s.queue {
		clear(s.queue[p])
		s.queue[p] = s.queue[p][:0]
	}
}

// removeQueuedConstructor drops pending init and construct events of o.
func (s *Stage) removeQueuedConstructor(o *DisplayObject) {
	for _, p := range []Priority{PriorityInit, PriorityConstruct} {
		q := s.queue[p]
		n := 0
		for _, a := range q {
			if a.target == o {
				continue
			}
			q[n] = a
			n++
		}
		clear(q[n:])
		s.queue[p] = q[:n]
	}
}
