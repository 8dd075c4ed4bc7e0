package reel

import (
	"strconv"

	"github.com/bits-and-blooms/bitset"
	"go.uber.org/zap"
)

// Timeline is one clip instance: a display list, a frame cursor and a play
// state driven by the frames of its Definition.
type Timeline struct {
	obj   *DisplayObject
	stage *Stage
	def   Definition
	list  DisplayList
	log   *zap.Logger

	current     int
	state       PlayState
	initDone    *bitset.BitSet
	streamSound int
	hasLooped   bool

	callingFrameActions bool
	eager               int
	unnamed             int
	rebuild             *rebuildState
	invalidated         bool
}

func newTimeline(s *Stage, obj *DisplayObject, def Definition) *Timeline {
	t := &Timeline{
		obj:         obj,
		stage:       s,
		def:         def,
		log:         s.log.Named("timeline"),
		initDone:    bitset.New(uint(max(def.FrameCount(), 1))),
		streamSound: -1,
	}
	t.list = DisplayList{owner: t, log: t.log}
	return t
}

// --- Accessors ---

// Object returns the display object this timeline belongs to.
func (t *Timeline) Object() *DisplayObject { return t.obj }

// DisplayList returns the timeline's display list.
func (t *Timeline) DisplayList() *DisplayList { return &t.list }

// Definition returns the definition the timeline plays.
func (t *Timeline) Definition() Definition { return t.def }

// Stage returns the owning stage.
func (t *Timeline) Stage() *Stage { return t.stage }

// CurrentFrame returns the 0-based frame cursor.
func (t *Timeline) CurrentFrame() int { return t.current }

// FrameCount returns the number of frames in the definition.
func (t *Timeline) FrameCount() int { return t.def.FrameCount() }

// PlayState returns whether the timeline is playing.
func (t *Timeline) PlayState() PlayState { return t.state }

// HasLooped reports whether the timeline has wrapped back to frame 0 at
// least once.
func (t *Timeline) HasLooped() bool { return t.hasLooped }

// InitActionsDone reports whether the init actions of frame already ran.
func (t *Timeline) InitActionsDone(frame int) bool {
	return frame >= 0 && t.initDone.Test(uint(frame))
}

// Invalidated reports whether the display list changed since the last
// ClearInvalidated.
func (t *Timeline) Invalidated() bool { return t.invalidated }

// ClearInvalidated resets the redraw flag.
func (t *Timeline) ClearInvalidated() { t.invalidated = false }

// Root returns the level timeline this timeline lives under.
func (t *Timeline) Root() *Timeline {
	o := t.obj
	for o.Parent != nil {
		o = o.Parent
	}
	return o.timeline
}

// Play resumes advancing.
func (t *Timeline) Play() { t.SetPlayState(PlayStatePlay) }

// Stop freezes the cursor.
func (t *Timeline) Stop() { t.SetPlayState(PlayStateStop) }

// SetPlayState changes the play state. Stopping silences the stream sound.
func (t *Timeline) SetPlayState(s PlayState) {
	if s == PlayStateStop && t.state == PlayStatePlay {
		t.stopStreamSound()
	}
	t.state = s
}

// --- Stream sound ---

// SetStreamSoundID associates a streaming sound with the timeline.
func (t *Timeline) SetStreamSoundID(id int) {
	if t.streamSound != id {
		t.stopStreamSound()
	}
	t.streamSound = id
}

// StreamSoundID returns the active streaming sound, or -1.
func (t *Timeline) StreamSoundID() int { return t.streamSound }

func (t *Timeline) stopStreamSound() {
	if t.streamSound < 0 {
		return
	}
	if snd := t.stage.opts.Sound; snd != nil {
		snd.StopStreamSound(t.streamSound)
	}
	t.streamSound = -1
}

// --- Frame advance ---

// Advance runs one tick: it queues the enter-frame event and, while
// playing, moves to the next frame. Wrapping back to frame 0 rebuilds the
// display list instead of just running frame 0 again.
func (t *Timeline) Advance() {
	if t.obj.unloaded {
		return
	}
	t.obj.queueEvent(EventEnterFrame, PriorityEnterFrame)
	if t.state != PlayStatePlay {
		return
	}
	prev := t.current
	t.incrementFrameAndCheckForLoop()
	if t.current == prev {
		return
	}
	if t.current == 0 && t.hasLooped {
		t.stopStreamSound()
		t.reconstruct(0)
		return
	}
	t.ExecuteFrameTags(t.current, ScopeBoth)
}

func (t *Timeline) incrementFrameAndCheckForLoop() {
	next := t.current + 1
	loaded := t.def.LoadedFrames()
	if next < loaded {
		t.current = next
		return
	}
	if loaded < t.def.FrameCount() {
		// Still streaming; hold the last loaded frame.
		return
	}
	t.current = 0
	t.hasLooped = true
}

// --- Tag dispatch ---

// ExecuteFrameTags runs the tags of frame filtered by scope. The frame's
// init actions run first, once per timeline, whatever the scope.
func (t *Timeline) ExecuteFrameTags(frame int, scope TagScope) {
	if frame < 0 || frame >= t.def.LoadedFrames() {
		t.log.Warn("execute frame tags: frame out of range",
			zap.Int("frame", frame), zap.Int("loaded", t.def.LoadedFrames()))
		return
	}
	if !t.initDone.Test(uint(frame)) {
		t.initDone.Set(uint(frame))
		if init := t.def.InitActions(frame); len(init) > 0 {
			t.eager++
			for _, tag := range init {
				tag.ExecuteActions(t, &t.list)
			}
			t.eager--
		}
	}
	for _, tag := range t.def.Playlist(frame) {
		if scope&ScopeState != 0 {
			tag.ExecuteState(t, &t.list)
		}
		if scope&ScopeActions != 0 {
			tag.ExecuteActions(t, &t.list)
		}
	}
}

// QueueAction schedules frame action code at the DOACTION level. Inside
// init actions or CallFrame the code runs immediately instead.
func (t *Timeline) QueueAction(code Code) {
	if t.eager > 0 || t.callingFrameActions {
		t.stage.execute(code, t.obj)
		return
	}
	t.stage.pushAction(code, t.obj, PriorityDoAction, true)
}

// CallFrame synchronously runs the action tags of frame without moving the
// cursor.
func (t *Timeline) CallFrame(frame int) {
	if frame < 0 || frame >= t.def.LoadedFrames() {
		t.log.Warn("call frame: frame out of range", zap.Int("frame", frame))
		return
	}
	backup := t.callingFrameActions
	t.callingFrameActions = true
	for _, tag := range t.def.Playlist(frame) {
		tag.ExecuteActions(t, &t.list)
	}
	t.callingFrameActions = backup
}

// --- Tag-driven placement ---

// PlaceOrMove places a new instance at an empty depth. During a backward
// rebuild an occupant with the same character and ratio is moved in place
// instead, keeping its scripted state. Any other occupied depth is left
// alone.
func (t *Timeline) PlaceOrMove(req PlaceRequest) *DisplayObject {
	if t.protected(req.Depth) {
		return nil
	}
	if existing := t.list.Get(req.Depth); existing != nil {
		if t.rebuild != nil && existing.CharacterID == req.CharacterID &&
			existing.ratio == req.Attrs.ratio() {
			t.list.Move(req.Depth, req.Attrs)
			return existing
		}
		return nil
	}
	o := t.newTagObject(req)
	if o == nil {
		return nil
	}
	t.list.Place(o, req.Depth, req.Attrs)
	o.placed()
	return o
}

// ReplaceAt swaps the occupant of a depth for a new instance. Clips, buttons
// and text keep their identity and are moved instead.
func (t *Timeline) ReplaceAt(req PlaceRequest) *DisplayObject {
	if t.protected(req.Depth) {
		return nil
	}
	existing := t.list.Get(req.Depth)
	if existing == nil {
		t.log.Warn("replace: no object at depth",
			zap.Int("depth", req.Depth), zap.Int("frame", t.current))
		return nil
	}
	// The survivor of a rebuild was created by this very tag.
	if origin, ok := t.survivor(req.Depth); ok && origin == t.current {
		t.list.Move(req.Depth, req.Attrs)
		return existing
	}
	if existing.Kind.referenceable() {
		t.list.Move(req.Depth, req.Attrs)
		return existing
	}
	o := t.newTagObject(req)
	if o == nil {
		return nil
	}
	t.list.Replace(o, req.Depth, req.Attrs)
	o.placed()
	return o
}

// MoveAt updates the object at depth.
func (t *Timeline) MoveAt(depth int, attrs PlaceAttrs) {
	if t.protected(depth) {
		return
	}
	t.list.Move(depth, attrs)
}

// RemoveAt removes the object at depth. During a rebuild, removals up to
// and including a survivor's origin frame predate it and are skipped.
func (t *Timeline) RemoveAt(depth int) {
	if origin, ok := t.survivor(depth); ok && t.current <= origin {
		return
	}
	t.list.Remove(depth)
}

func (t *Timeline) newTagObject(req PlaceRequest) *DisplayObject {
	ch, ok := t.def.Character(req.CharacterID)
	if !ok {
		t.log.Warn("place: unknown character",
			zap.Int("id", req.CharacterID), zap.Int("frame", t.current))
		return nil
	}
	o := t.stage.instantiate(ch, t.obj)
	o.Name = req.Name
	if o.Name == "" && o.Kind == KindClip {
		o.Name = t.Root().nextInstanceName()
	}
	o.originFrame = t.current
	for k, h := range req.Handlers {
		if k < numEventKinds {
			o.handlers[k] = h
		}
	}
	return o
}

func (t *Timeline) nextInstanceName() string {
	t.unnamed++
	return "instance" + strconv.Itoa(t.unnamed)
}

// --- Script-driven children ---

// AttachChild instantiates a dictionary character at a dynamic depth,
// replacing any occupant.
func (t *Timeline) AttachChild(charID int, name string, depth int) *DisplayObject {
	ch, ok := t.def.Character(charID)
	if !ok {
		t.log.Warn("attach: unknown character", zap.Int("id", charID))
		return nil
	}
	return t.attach(ch, name, depth)
}

// CreateEmptyChild creates an empty clip at a dynamic depth.
func (t *Timeline) CreateEmptyChild(name string, depth int) *DisplayObject {
	return t.attach(emptyClip{dict: t.def}, name, depth)
}

// Duplicate creates a copy of obj, which must be a child of this timeline,
// at a dynamic depth. Transform, color transform and handlers are copied.
func (t *Timeline) Duplicate(obj *DisplayObject, name string, depth int) *DisplayObject {
	if obj.Parent != t.obj || obj.unloaded {
		t.list.misuse("duplicate of an object not in this list", zap.String("name", obj.Name))
		return nil
	}
	if !t.dynamicDepthOK(depth) {
		return nil
	}
	o := t.stage.instantiate(obj.def, t.obj)
	o.Name = name
	o.dynamic = true
	o.handlers = obj.handlers
	o.Visible = obj.Visible
	o.BlendMode = obj.BlendMode
	t.list.Place(o, depth, PlaceAttrs{Matrix: &obj.matrix, CxForm: &obj.cxform})
	o.placed()
	return o
}

// RemoveChild removes a script-managed child. Objects outside the dynamic
// zone are refused.
func (t *Timeline) RemoveChild(obj *DisplayObject) bool {
	if obj.Parent != t.obj {
		return false
	}
	return t.list.RemoveDynamic(obj.depth)
}

// SwapChildDepth moves obj to depth, exchanging with any occupant.
func (t *Timeline) SwapChildDepth(obj *DisplayObject, depth int) bool {
	return t.list.Swap(obj, depth)
}

// ChildByName looks up a loaded child by instance name.
func (t *Timeline) ChildByName(name string) *DisplayObject {
	return t.list.GetByName(name, t.stage.opts.CaseSensitiveNames)
}

func (t *Timeline) attach(ch Character, name string, depth int) *DisplayObject {
	if !t.dynamicDepthOK(depth) {
		return nil
	}
	o := t.stage.instantiate(ch, t.obj)
	o.Name = name
	o.dynamic = true
	t.list.Place(o, depth, PlaceAttrs{})
	o.placed()
	return o
}

func (t *Timeline) dynamicDepthOK(depth int) bool {
	if depth < 0 {
		t.list.misuse("scripted placement outside the dynamic zone", zap.Int("depth", depth))
		return false
	}
	return true
}

// --- Lifecycle ---

func (t *Timeline) markReachable() {
	t.list.VisitAll(func(o *DisplayObject) {
		SetReachable(o)
	})
}

func (t *Timeline) destroy() {
	t.stopStreamSound()
	t.list.destroy()
}

// emptyClip is the character behind CreateEmptyChild: a one-frame clip that
// shares its parent's dictionary.
type emptyClip struct{ dict Definition }

func (e emptyClip) CharacterID() int   { return -1 }
func (e emptyClip) Kind() ObjectKind   { return KindClip }
func (e emptyClip) Bounds() Rect       { return Rect{} }
func (e emptyClip) Fill() RGBA         { return ColorWhite }
func (e emptyClip) Sprite() Definition { return emptyDefinition(e) }

type emptyDefinition struct{ dict Definition }

func (emptyDefinition) FrameCount() int                        { return 1 }
func (emptyDefinition) LoadedFrames() int                      { return 1 }
func (e emptyDefinition) FrameRate() float64                   { return e.dict.FrameRate() }
func (emptyDefinition) Playlist(int) []ControlTag              { return nil }
func (emptyDefinition) InitActions(int) []ControlTag           { return nil }
func (emptyDefinition) EnsureFrameLoaded(frame int) bool       { return frame == 0 }
func (emptyDefinition) ResolveLabel(string) (int, bool)        { return 0, false }
func (emptyDefinition) AuthoritativePlacement(int) []Placement { return nil }
func (e emptyDefinition) Character(id int) (Character, bool)   { return e.dict.Character(id) }
