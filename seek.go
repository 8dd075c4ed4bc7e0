package reel

import "go.uber.org/zap"

// rebuildState is set while a backward seek replays frames. Objects in keep
// survived the seek; tags of frames before their origin frame must not touch
// them.
type rebuildState struct {
	keep map[int]int // depth -> origin frame
}

func (t *Timeline) protected(depth int) bool {
	origin, ok := t.survivor(depth)
	return ok && t.current < origin
}

// survivor returns the origin frame of the object kept at depth by the
// rebuild in progress.
func (t *Timeline) survivor(depth int) (int, bool) {
	if t.rebuild == nil {
		return 0, false
	}
	origin, ok := t.rebuild.keep[depth]
	return origin, ok
}

// GotoFrame moves the cursor to target (0-based). Targets past the end clamp
// to the last frame. Forward seeks execute the skipped frames for their
// display-list effects only; backward seeks rebuild the display list. In
// both cases the target frame's actions are queued.
func (t *Timeline) GotoFrame(target int) {
	if t.obj.unloaded {
		t.list.misuse("goto on an unloaded timeline", zap.String("path", t.obj.Path()))
		return
	}
	fc := t.def.FrameCount()
	if fc == 0 {
		return
	}
	target = max(0, min(target, fc-1))
	if !t.def.EnsureFrameLoaded(target) {
		t.log.Error("goto: target frame never loads",
			zap.Int("frame", target), zap.Int("loaded", t.def.LoadedFrames()))
		return
	}
	if target != t.current+1 {
		t.stopStreamSound()
	}
	if target <= t.current {
		t.reconstruct(target)
		return
	}

	backup := t.callingFrameActions
	t.callingFrameActions = false
	for t.current+1 < target {
		t.current++
		t.ExecuteFrameTags(t.current, ScopeState)
	}
	t.current = target
	t.ExecuteFrameTags(target, ScopeBoth)
	t.callingFrameActions = backup
}

// GotoAndPlay seeks to frame and resumes playing.
func (t *Timeline) GotoAndPlay(frame int) {
	t.SetPlayState(PlayStatePlay)
	t.GotoFrame(frame)
}

// GotoAndStop seeks to frame and stops.
func (t *Timeline) GotoAndStop(frame int) {
	t.SetPlayState(PlayStateStop)
	t.GotoFrame(frame)
}

// ResolveFrame maps a label to a frame index.
func (t *Timeline) ResolveFrame(label string) (int, bool) {
	return t.def.ResolveLabel(label)
}

// GotoLabel seeks to a labelled frame. Unknown labels are ignored.
func (t *Timeline) GotoLabel(label string, play bool) bool {
	f, ok := t.def.ResolveLabel(label)
	if !ok {
		t.log.Warn("goto: unknown frame label", zap.String("label", label))
		return false
	}
	if play {
		t.GotoAndPlay(f)
	} else {
		t.GotoAndStop(f)
	}
	return true
}

// NextFrame steps one frame forward and stops.
func (t *Timeline) NextFrame() {
	if t.current+1 < t.def.FrameCount() {
		t.GotoFrame(t.current + 1)
	}
	t.SetPlayState(PlayStateStop)
}

// PrevFrame steps one frame back and stops.
func (t *Timeline) PrevFrame() {
	if t.current > 0 {
		t.GotoFrame(t.current - 1)
	}
	t.SetPlayState(PlayStateStop)
}

// reconstruct rebuilds the display list for a backward seek (or a loop).
// Tag-placed objects that also exist in the authoritative placement of
// target survive with their scripted state; everything else placed at a
// non-negative depth or by script is removed. Frames 0..target-1 are then
// replayed for state only and target runs in full.
func (t *Timeline) reconstruct(target int) {
	want := make(map[int]Placement)
	for _, p := range t.def.AuthoritativePlacement(target) {
		want[p.Depth] = p
	}

	keep := make(map[int]int)
	var drop []int
	t.list.VisitAll(func(o *DisplayObject) {
		if isRemovedDepth(o.depth) {
			return
		}
		if o.dynamic || o.depth >= 0 {
			drop = append(drop, o.depth)
			return
		}
		p, ok := want[o.depth]
		if ok && p.CharacterID == o.CharacterID && p.OriginFrame == o.originFrame && p.Ratio == o.ratio {
			keep[o.depth] = o.originFrame
			return
		}
		drop = append(drop, o.depth)
	})
	for _, d := range drop {
		t.list.Remove(d)
	}

	t.rebuild = &rebuildState{keep: keep}
	for f := 0; f < target; f++ {
		t.current = f
		t.ExecuteFrameTags(f, ScopeState)
	}
	t.current = target

	backup := t.callingFrameActions
	t.callingFrameActions = false
	t.ExecuteFrameTags(target, ScopeBoth)
	t.callingFrameActions = backup
	t.rebuild = nil
}
