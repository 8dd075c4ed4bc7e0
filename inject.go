package reel

type syntheticKind uint8

const (
	synthMove syntheticKind = iota
	synthPress
	synthRelease
	synthKey
)

// syntheticEvent is a single injected input event, in stage coordinates.
type syntheticEvent struct {
	kind syntheticKind
	x, y float64
	key  Key
	down bool
}

// InjectPress queues a left-button press at (x, y). Injected events are
// consumed one per tick, at the start of Advance.
func (s *Stage) InjectPress(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{kind: synthPress, x: x, y: y})
}

// InjectMove queues a pointer move to (x, y).
func (s *Stage) InjectMove(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{kind: synthMove, x: x, y: y})
}

// InjectRelease queues a left-button release at (x, y).
func (s *Stage) InjectRelease(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{kind: synthRelease, x: x, y: y})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same point. Consumes two ticks.
func (s *Stage) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate ticks, and
// release at (toX, toY). Minimum frames is 2 (press + release).
func (s *Stage) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(toX, toY)
}

// InjectKey queues a key transition.
func (s *Stage) InjectKey(k Key, down bool) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{kind: synthKey, key: k, down: down})
}

// PendingInjected returns the number of injected events not yet consumed.
func (s *Stage) PendingInjected() int { return len(s.injectQueue) }

// processInjected feeds one queued event through the regular notification
// path. Returns true if an event was consumed.
func (s *Stage) processInjected() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	switch evt.kind {
	case synthKey:
		s.NotifyKey(evt.key, evt.down, 0)
	case synthMove:
		s.NotifyMouseMove(evt.x, evt.y)
	case synthPress, synthRelease:
		if evt.x != s.mouseX || evt.y != s.mouseY {
			s.NotifyMouseMove(evt.x, evt.y)
		}
		s.NotifyMouseButton(ButtonLeft, evt.kind == synthPress)
	}
	return true
}
