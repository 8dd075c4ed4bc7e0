package reel

import (
	"strconv"

	"go.uber.org/zap"
)

// --- Depth zones ---

const (
	// StaticDepthOffset is added to tag depths. Depths in
	// [StaticDepthOffset, 0) belong to tag-placed objects and are not
	// removable or swappable by script.
	StaticDepthOffset = -16384

	// RemovedDepthOffset parks unloaded objects that still have an unload
	// handler to run: an object removed from depth d moves to
	// RemovedDepthOffset - d until the next purge.
	RemovedDepthOffset = -32769

	// DynamicDepthMax is the top of the dynamic zone [0, DynamicDepthMax].
	// Depths above it form the top zone.
	DynamicDepthMax = 1048575
)

// TagDepth converts a depth as written in a placement tag to a display list
// depth.
func TagDepth(d int) int { return d + StaticDepthOffset }

// IsStaticDepth reports whether d is in the tag-placed zone.
func IsStaticDepth(d int) bool { return d >= StaticDepthOffset && d < 0 }

// IsDynamicDepth reports whether d is in the script-managed zone.
func IsDynamicDepth(d int) bool { return d >= 0 && d <= DynamicDepthMax }

func isRemovedDepth(d int) bool { return d < StaticDepthOffset }

// --- DisplayObject ---

// DisplayObject is an instantiated placement of a Character. A single flat
// struct is used for every kind; clips additionally own a Timeline.
type DisplayObject struct {
	GCMark

	// Identity
	ID          uint32
	CharacterID int
	Name        string
	Kind        ObjectKind

	// Hierarchy (non-owning)
	Parent *DisplayObject

	// Presentation & interaction
	Visible      bool
	BlendMode    BlendMode
	FocusEnabled bool

	// Metadata
	UserData any

	def      Character
	stage    *Stage
	timeline *Timeline

	depth       int
	matrix      Matrix
	cxform      ColorTransform
	ratio       int
	clipDepth   int
	originFrame int // frame of the parent timeline that placed it; -1 for script

	dynamic           bool
	scriptTransformed bool
	unloaded          bool
	destroyed         bool

	handlers [numEventKinds]Code
}

// instantiate creates and registers a new object for ch.
func (s *Stage) instantiate(ch Character, parent *DisplayObject) *DisplayObject {
	s.nextObjectID++
	o := &DisplayObject{
		ID:          s.nextObjectID,
		CharacterID: ch.CharacterID(),
		Kind:        ch.Kind(),
		Parent:      parent,
		Visible:     true,
		def:         ch,
		stage:       s,
		matrix:      IdentityMatrix,
		cxform:      IdentityCxForm,
		originFrame: -1,
	}
	if sp := ch.Sprite(); sp != nil {
		o.timeline = newTimeline(s, o, sp)
	}
	s.gc.Register(o)
	return o
}

// movieCharacter lets a top-level Definition be instantiated like any other
// clip character.
type movieCharacter struct{ def Definition }

func (m movieCharacter) CharacterID() int   { return 0 }
func (m movieCharacter) Kind() ObjectKind   { return KindClip }
func (m movieCharacter) Bounds() Rect       { return Rect{} }
func (m movieCharacter) Fill() RGBA         { return ColorWhite }
func (m movieCharacter) Sprite() Definition { return m.def }

// NewMovie instantiates def as a top-level timeline, ready for SetRootLevel
// or SetLevel.
func (s *Stage) NewMovie(def Definition) *Timeline {
	return s.instantiate(movieCharacter{def: def}, nil).timeline
}

// --- Accessors ---

// Depth returns the display list depth.
func (o *DisplayObject) Depth() int { return o.depth }

// Matrix returns the local transform.
func (o *DisplayObject) Matrix() Matrix { return o.matrix }

// SetMatrix replaces the local transform without marking the object as
// transformed by script.
func (o *DisplayObject) SetMatrix(m Matrix) {
	o.matrix = m
	o.invalidate()
}

// ColorTransform returns the local color transform.
func (o *DisplayObject) ColorTransform() ColorTransform { return o.cxform }

// SetColorTransform replaces the local color transform.
func (o *DisplayObject) SetColorTransform(cx ColorTransform) {
	o.cxform = cx
	o.invalidate()
}

// Ratio returns the interpolation index of the placement.
func (o *DisplayObject) Ratio() int { return o.ratio }

// ClipDepth returns the highest display list depth this object masks, or 0
// when it is not a mask.
func (o *DisplayObject) ClipDepth() int { return o.clipDepth }

func (o *DisplayObject) isMask() bool { return o.clipDepth != 0 }

// OriginFrame returns the frame of the parent timeline that placed the
// object, or -1 if it was created by script.
func (o *DisplayObject) OriginFrame() int { return o.originFrame }

// Character returns the dictionary entry this object instantiates.
func (o *DisplayObject) Character() Character { return o.def }

// Timeline returns the nested timeline of a clip, or nil for leaves.
func (o *DisplayObject) Timeline() *Timeline { return o.timeline }

// Stage returns the owning stage.
func (o *DisplayObject) Stage() *Stage { return o.stage }

// IsDynamic reports whether the object was created by script.
func (o *DisplayObject) IsDynamic() bool { return o.dynamic }

// IsUnloaded reports whether the object has been removed from its display
// list.
func (o *DisplayObject) IsUnloaded() bool { return o.unloaded }

// IsDestroyed reports whether the object has been destroyed.
func (o *DisplayObject) IsDestroyed() bool { return o.destroyed }

// AcceptsAnimMoves reports whether tag-driven moves still apply. Any
// scripted transform turns this off for the rest of the object's life.
func (o *DisplayObject) AcceptsAnimMoves() bool { return !o.scriptTransformed }

// Path returns a dotted target path like "_level0.menu.button".
func (o *DisplayObject) Path() string {
	if o == nil {
		return ""
	}
	if o.Parent == nil {
		return "_level" + strconv.Itoa(o.depth-StaticDepthOffset)
	}
	return o.Parent.Path() + "." + o.Name
}

// --- Event handlers ---

// SetHandler attaches code to run for kind. A nil code removes the handler.
// Objects gaining a mouse or key listener event are registered with the
// stage listener registries.
func (o *DisplayObject) SetHandler(kind EventKind, code Code) {
	if kind >= numEventKinds {
		panic("reel: invalid event kind")
	}
	o.handlers[kind] = code
	if code == nil || o.unloaded || o.stage == nil {
		return
	}
	if kind.IsMouseEvent() {
		o.stage.AddMouseListener(o)
	}
	if kind.IsKeyEvent() {
		o.stage.AddKeyListener(o)
	}
}

// Handler returns the code attached for kind, or nil.
func (o *DisplayObject) Handler(kind EventKind) Code {
	if kind >= numEventKinds {
		return nil
	}
	return o.handlers[kind]
}

// HasHandler reports whether code is attached for kind.
func (o *DisplayObject) HasHandler(kind EventKind) bool {
	return o.Handler(kind) != nil
}

// mouseEnabled reports whether the object is a target of the button state
// machine.
func (o *DisplayObject) mouseEnabled() bool {
	for k := EventPress; k <= EventDragOut; k++ {
		if o.handlers[k] != nil {
			return true
		}
	}
	return false
}

// acceptsFocus reports whether pressing the object moves input focus to it.
func (o *DisplayObject) acceptsFocus() bool {
	return o.FocusEnabled || o.mouseEnabled()
}

// queueEvent pushes the handler for kind, if any, at priority p.
func (o *DisplayObject) queueEvent(kind EventKind, p Priority) bool {
	h := o.handlers[kind]
	if h == nil {
		return false
	}
	o.stage.PushAction(h, o, p)
	return true
}

// runEvent executes the handler for kind immediately.
func (o *DisplayObject) runEvent(kind EventKind) {
	if h := o.handlers[kind]; h != nil {
		o.stage.execute(h, o)
	}
}

// --- Lifecycle ---

// placed runs once the object has been inserted into a display list.
func (o *DisplayObject) placed() {
	s := o.stage
	debugCheckTreeDepth(o)
	for k := EventKind(0); k < numEventKinds; k++ {
		if o.handlers[k] == nil {
			continue
		}
		if k.IsMouseEvent() {
			s.AddMouseListener(o)
		}
		if k.IsKeyEvent() {
			s.AddKeyListener(o)
		}
	}
	if t := o.timeline; t != nil {
		s.addLive(t)
		t.ExecuteFrameTags(0, ScopeBoth)
	}
	if o.dynamic {
		// Objects created while actions run are constructed on the spot.
		o.runEvent(EventInitialize)
		o.runEvent(EventConstruct)
		o.runEvent(EventLoad)
		return
	}
	o.queueEvent(EventInitialize, PriorityInit)
	o.queueEvent(EventConstruct, PriorityConstruct)
	o.queueEvent(EventLoad, PriorityConstruct)
}

// unload marks the object and its descendants unloaded and queues unload
// handlers. It reports whether any handler is pending, in which case the
// caller keeps the object around until the handlers ran.
func (o *DisplayObject) unload() bool {
	childHandler := false
	if t := o.timeline; t != nil {
		t.stopStreamSound()
		childHandler = t.list.unload()
	}
	if !o.unloaded {
		o.queueEvent(EventUnload, PriorityDoAction)
	}
	has := o.handlers[EventUnload] != nil || childHandler
	if !has {
		o.stage.removeQueuedConstructor(o)
	}
	o.unloaded = true
	return has
}

// Destroy releases the object's timeline and handlers. Safe to call more
// than once.
func (o *DisplayObject) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.unloaded = true
	if o.timeline != nil {
		o.timeline.destroy()
	}
	o.handlers = [numEventKinds]Code{}
	if o.stage != nil && o.stage.opts.Debug {
		o.stage.log.Debug("destroyed", zap.Uint32("id", o.ID), zap.String("name", o.Name))
	}
}

// MarkReachableResources marks the parent, the children and any handler
// code that references objects.
func (o *DisplayObject) MarkReachableResources() {
	if o.Parent != nil {
		SetReachable(o.Parent)
	}
	if o.timeline != nil {
		o.timeline.markReachable()
	}
	for _, h := range o.handlers {
		if m, ok := h.(Marker); ok {
			m.MarkReachableResources()
		}
	}
}

// invalidate flags the owning timeline for redraw.
func (o *DisplayObject) invalidate() {
	if o.stage != nil {
		o.stage.dirty = true
	}
	for p := o; p != nil; p = p.Parent {
		if p.timeline != nil {
			p.timeline.invalidated = true
			return
		}
	}
}

// --- Geometry & hit testing ---

// Bounds returns the local-space extent. Clips enclose their children.
func (o *DisplayObject) Bounds() Rect {
	if o.timeline == nil {
		if o.def == nil {
			return Rect{}
		}
		return o.def.Bounds()
	}
	var r Rect
	o.timeline.list.VisitAll(func(ch *DisplayObject) {
		if ch.unloaded {
			return
		}
		r = r.Union(ch.matrix.TransformRect(ch.Bounds()))
	})
	return r
}

// pointInShape reports whether the world point lies on the object's visible
// shape.
func (o *DisplayObject) pointInShape(x, y float64) bool {
	if o.timeline != nil {
		hit := false
		o.timeline.list.VisitBackward(func(ch *DisplayObject) bool {
			if ch.Visible && !ch.unloaded && !ch.isMask() && ch.pointInShape(x, y) {
				hit = true
				return false
			}
			return true
		})
		return hit
	}
	if o.def == nil {
		return false
	}
	lx, ly := o.WorldToLocal(x, y)
	return o.def.Bounds().Contains(lx, ly)
}

// topmostMouseEntity finds the object that should receive button events at
// the world point.
func (o *DisplayObject) topmostMouseEntity(x, y float64) *DisplayObject {
	if !o.Visible || o.unloaded {
		return nil
	}
	if o.mouseEnabled() {
		if o.pointInShape(x, y) {
			return o
		}
		return nil
	}
	if o.timeline == nil {
		return nil
	}
	var hit *DisplayObject
	var masks []*DisplayObject
	o.timeline.list.VisitAll(func(ch *DisplayObject) {
		if isRemovedDepth(ch.depth) {
			return
		}
		n := 0
		for _, m := range masks {
			if m.clipDepth >= ch.depth {
				masks[n] = m
				n++
			}
		}
		masks = masks[:n]
		if ch.isMask() {
			masks = append(masks, ch)
			return
		}
		for _, m := range masks {
			if !m.pointInShape(x, y) {
				return
			}
		}
		if e := ch.topmostMouseEntity(x, y); e != nil {
			hit = e
		}
	})
	return hit
}

// topmostObject returns the deepest visible leaf under the world point,
// ignoring skip and its descendants.
func (o *DisplayObject) topmostObject(x, y float64, skip *DisplayObject) *DisplayObject {
	if o == skip || !o.Visible || o.unloaded {
		return nil
	}
	if o.timeline == nil {
		if !o.isMask() && o.pointInShape(x, y) {
			return o
		}
		return nil
	}
	var hit *DisplayObject
	o.timeline.list.VisitBackward(func(ch *DisplayObject) bool {
		hit = ch.topmostObject(x, y, skip)
		return hit == nil
	})
	return hit
}
