package reel

import (
	"slices"

	"go.uber.org/zap"
)

// --- Events delivered outside the action queue ---

// ButtonEvent describes a button state-machine transition.
type ButtonEvent struct {
	Kind     EventKind
	ObjectID uint32
	Name     string
	Path     string
	X, Y     float64
}

// KeyEvent describes a key transition.
type KeyEvent struct {
	Key       Key
	Down      bool
	Modifiers KeyModifiers
}

// EventSink receives every button event, typically to forward it to an ECS
// world.
type EventSink interface {
	EmitEvent(ButtonEvent)
}

// --- Handler registry ---

type buttonHandler struct {
	id uint32
	fn func(ButtonEvent)
}

type keyHandler struct {
	id uint32
	fn func(KeyEvent)
}

type handlerRegistry struct {
	button []buttonHandler
	key    []keyHandler
	nextID uint32
}

type handlerKind uint8

const (
	handlerButton handlerKind = iota
	handlerKey
)

// CallbackHandle allows removing a registered stage-level callback.
type CallbackHandle struct {
	id   uint32
	reg  *handlerRegistry
	kind handlerKind
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.kind {
	case handlerButton:
		h.reg.button = slices.DeleteFunc(h.reg.button, func(b buttonHandler) bool { return b.id == h.id })
	case handlerKey:
		h.reg.key = slices.DeleteFunc(h.reg.key, func(k keyHandler) bool { return k.id == h.id })
	}
}

// OnButtonEvent registers a stage-level callback for button events. It runs
// synchronously, before the object's own handler is executed.
func (s *Stage) OnButtonEvent(fn func(ButtonEvent)) CallbackHandle {
	s.handlers.nextID++
	id := s.handlers.nextID
	s.handlers.button = append(s.handlers.button, buttonHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, kind: handlerButton}
}

// OnKey registers a stage-level callback for key transitions.
func (s *Stage) OnKey(fn func(KeyEvent)) CallbackHandle {
	s.handlers.nextID++
	id := s.handlers.nextID
	s.handlers.key = append(s.handlers.key, keyHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, kind: handlerKey}
}

// --- Listener registries ---

// AddMouseListener registers o for mouse down/up/move events. Newer
// listeners are notified first.
func (s *Stage) AddMouseListener(o *DisplayObject) {
	if !slices.Contains(s.mouseListeners, o) {
		s.mouseListeners = slices.Insert(s.mouseListeners, 0, o)
	}
}

// RemoveMouseListener unregisters o.
func (s *Stage) RemoveMouseListener(o *DisplayObject) {
	s.mouseListeners = slices.DeleteFunc(s.mouseListeners, func(x *DisplayObject) bool { return x == o })
}

// AddKeyListener registers o for key events.
func (s *Stage) AddKeyListener(o *DisplayObject) {
	if !slices.Contains(s.keyListeners, o) {
		s.keyListeners = slices.Insert(s.keyListeners, 0, o)
	}
}

// RemoveKeyListener unregisters o.
func (s *Stage) RemoveKeyListener(o *DisplayObject) {
	s.keyListeners = slices.DeleteFunc(s.keyListeners, func(x *DisplayObject) bool { return x == o })
}

func (s *Stage) cleanupUnloadedListeners() {
	unloaded := func(o *DisplayObject) bool { return o.unloaded }
	s.mouseListeners = slices.DeleteFunc(s.mouseListeners, unloaded)
	s.keyListeners = slices.DeleteFunc(s.keyListeners, unloaded)
}

// notifyListeners queues kind on a snapshot of listeners, skipping unloaded
// ones. Handlers may add or remove listeners while this runs.
func (s *Stage) notifyListeners(listeners []*DisplayObject, kind EventKind) {
	for _, o := range slices.Clone(listeners) {
		if o.unloaded {
			continue
		}
		o.queueEvent(kind, PriorityDoAction)
	}
}

// --- Focus ---

// Focus returns the object holding input focus.
func (s *Stage) Focus() *DisplayObject { return s.focus }

// SetFocus moves input focus to o, firing kill-focus on the previous holder
// and set-focus on o. Focusing the current holder, a level root or an
// object that does not accept focus fails. A nil o clears focus.
func (s *Stage) SetFocus(o *DisplayObject) bool {
	if o == s.focus {
		return false
	}
	if o != nil && (o.Parent == nil || !o.acceptsFocus()) {
		return false
	}
	prev := s.focus
	s.focus = o
	if prev != nil && !prev.unloaded {
		prev.queueEvent(EventKillFocus, PriorityDoAction)
	}
	if o != nil {
		o.queueEvent(EventSetFocus, PriorityDoAction)
	}
	return true
}

// --- Pointer ---

// mouseButtonState tracks the button state machine between notifications.
type mouseButtonState struct {
	activeEntity  *DisplayObject // receives the current button events
	topmostEntity *DisplayObject // under the pointer right now
	wasDown       bool
	isDown        bool
	wasInside     bool // pointer was over activeEntity at the last update
}

// MousePosition returns the last notified pointer position in stage
// coordinates.
func (s *Stage) MousePosition() (float64, float64) { return s.mouseX, s.mouseY }

// MouseButtons returns the buttons currently held.
func (s *Stage) MouseButtons() MouseButtons { return s.buttons }

// ActiveEntity returns the object currently receiving button events.
func (s *Stage) ActiveEntity() *DisplayObject { return s.mouseState.activeEntity }

// NotifyMouseMove reports a pointer move. It returns true when a redraw is
// needed.
func (s *Stage) NotifyMouseMove(x, y float64) bool {
	s.actionCount = 0
	s.mouseX, s.mouseY = x, y
	s.notifyListeners(s.mouseListeners, EventMouseMove)
	if s.drag != nil {
		s.dropTarget = s.findDropTarget(x, y, s.drag.obj)
	}
	return s.fireMouseEvent()
}

// NotifyMouseButton reports a button press or release. Only the left button
// drives the button state machine.
func (s *Stage) NotifyMouseButton(b MouseButtons, down bool) bool {
	s.actionCount = 0
	if down {
		s.buttons |= b
		s.notifyListeners(s.mouseListeners, EventMouseDown)
	} else {
		s.buttons &^= b
		s.notifyListeners(s.mouseListeners, EventMouseUp)
	}
	s.mouseState.isDown = s.buttons&ButtonLeft != 0
	return s.fireMouseEvent()
}

// fireMouseEvent refreshes the entity under the pointer, runs the state
// machine and drains the queue.
func (s *Stage) fireMouseEvent() bool {
	ms := &s.mouseState
	if ms.activeEntity != nil && ms.activeEntity.unloaded {
		ms.activeEntity = nil
	}
	ms.topmostEntity = s.topmostMouseEntity(s.mouseX, s.mouseY)
	redraw := s.generateMouseButtonEvents()
	s.DrainActionQueue()
	return redraw || s.drag != nil
}

func (s *Stage) topmostMouseEntity(x, y float64) *DisplayObject {
	var hit *DisplayObject
	s.levels.VisitBackward(func(o *DisplayObject) bool {
		if isRemovedDepth(o.depth) {
			return true
		}
		hit = o.topmostMouseEntity(x, y)
		return hit == nil
	})
	return hit
}

// generateMouseButtonEvents is the button state machine. While the button
// is held the entity that got the press keeps every event (drag over/out,
// release inside/outside). While it is up, events follow the pointer
// (roll over/out, press).
func (s *Stage) generateMouseButtonEvents() bool {
	ms := &s.mouseState
	redraw := false

	if ms.wasDown {
		if !ms.wasInside {
			if ms.topmostEntity == ms.activeEntity {
				if ms.activeEntity != nil {
					s.mouseEvent(ms.activeEntity, EventDragOver)
					redraw = true
				}
				ms.wasInside = true
			}
		} else if ms.topmostEntity != ms.activeEntity {
			if ms.activeEntity != nil {
				s.mouseEvent(ms.activeEntity, EventDragOut)
				redraw = true
			}
			ms.wasInside = false
		}

		if !ms.isDown {
			ms.wasDown = false
			if ms.activeEntity != nil {
				if ms.wasInside {
					s.mouseEvent(ms.activeEntity, EventRelease)
				} else {
					s.mouseEvent(ms.activeEntity, EventReleaseOutside)
					// The pointer already left; no roll out follows.
					ms.activeEntity = nil
				}
				redraw = true
			}
		}
		return redraw
	}

	if ms.topmostEntity != ms.activeEntity {
		if ms.activeEntity != nil {
			s.mouseEvent(ms.activeEntity, EventRollOut)
			redraw = true
		}
		ms.activeEntity = ms.topmostEntity
		if ms.activeEntity != nil {
			s.mouseEvent(ms.activeEntity, EventRollOver)
			redraw = true
		}
		ms.wasInside = true
	}

	if ms.isDown {
		if ms.activeEntity != nil {
			s.SetFocus(ms.activeEntity)
			s.mouseEvent(ms.activeEntity, EventPress)
			redraw = true
		}
		ms.wasInside = true
		ms.wasDown = true
	}
	return redraw
}

// mouseEvent delivers a button event to o and to stage-level observers.
func (s *Stage) mouseEvent(o *DisplayObject, kind EventKind) {
	ev := ButtonEvent{
		Kind:     kind,
		ObjectID: o.ID,
		Name:     o.Name,
		Path:     o.Path(),
		X:        s.mouseX,
		Y:        s.mouseY,
	}
	for _, h := range s.handlers.button {
		h.fn(ev)
	}
	if s.opts.Sink != nil {
		s.opts.Sink.EmitEvent(ev)
	}
	o.queueEvent(kind, PriorityDoAction)
	if s.opts.Debug {
		s.log.Debug("button event", zap.Stringer("kind", kind), zap.String("path", ev.Path))
	}
}

// --- Keys ---

// NotifyKey reports a key transition. Key listeners get key-down/key-up;
// the focused object receives the same event.
func (s *Stage) NotifyKey(k Key, down bool, mods KeyModifiers) bool {
	s.actionCount = 0
	if k >= 0 {
		if down {
			s.keysDown.Set(uint(k))
		} else {
			s.keysDown.Clear(uint(k))
		}
	}
	kind := EventKeyUp
	if down {
		kind = EventKeyDown
	}
	ev := KeyEvent{Key: k, Down: down, Modifiers: mods}
	for _, h := range s.handlers.key {
		h.fn(ev)
	}
	s.notifyListeners(s.keyListeners, kind)
	if f := s.focus; f != nil && !f.unloaded && !slices.Contains(s.keyListeners, f) {
		f.queueEvent(kind, PriorityDoAction)
	}
	s.DrainActionQueue()
	return s.dirty
}

// IsKeyDown reports whether k is currently held.
func (s *Stage) IsKeyDown(k Key) bool {
	return k >= 0 && s.keysDown.Test(uint(k))
}
