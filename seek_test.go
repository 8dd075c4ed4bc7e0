package reel

import (
	"slices"
	"testing"
)

// replacingDef has a shape with a distinct character id at tag depth 10 on
// each of its three frames, and an init action on frame 0.
func replacingDef(initRuns *int) *testDef {
	def := newTestDef(3).shape(1, box(1, 1)).shape(2, box(2, 2)).shape(3, box(3, 3))
	def.on(0, place(1, 10))
	def.on(1, replace(2, 10))
	def.on(2, replace(3, 10))
	def.initOn(0, actionTag{code: CodeFunc(func(*DisplayObject) error {
		*initRuns++
		return nil
	})})
	return def
}

// --- Seek scenarios ---

func TestSeekForwardBackwardForward(t *testing.T) {
	s, _ := newTestStage(t)
	var initRuns int
	root := playRoot(t, s, replacingDef(&initRuns))
	l := root.DisplayList()

	root.GotoFrame(2)
	root.GotoFrame(0)
	root.GotoFrame(2)

	got := contents(l)
	if len(got) != 1 || got[0] != (depthChar{TagDepth(10), 3}) {
		t.Fatalf("contents = %v, want one occupant with id 3 at depth 10", got)
	}
	if initRuns != 1 {
		t.Errorf("frame 0 init actions ran %d times, want 1", initRuns)
	}
	if !root.InitActionsDone(0) {
		t.Error("init bit for frame 0 not set")
	}
	if root.CurrentFrame() != 2 {
		t.Errorf("CurrentFrame = %d, want 2", root.CurrentFrame())
	}
	assertUniqueDepths(t, l)
}

func TestSeekBackwardRestoresEarlierFrame(t *testing.T) {
	s, _ := newTestStage(t)
	var initRuns int
	root := playRoot(t, s, replacingDef(&initRuns))

	root.GotoFrame(2)
	root.GotoFrame(1)
	got := contents(root.DisplayList())
	if len(got) != 1 || got[0].id != 2 {
		t.Fatalf("contents = %v, want character 2", got)
	}
}

func TestSeekIdempotent(t *testing.T) {
	for target := 0; target < 3; target++ {
		s, _ := newTestStage(t)
		var initRuns int
		root := playRoot(t, s, replacingDef(&initRuns))
		root.GotoFrame(1)

		root.GotoFrame(target)
		once := contents(root.DisplayList())
		onceFrame := root.CurrentFrame()
		root.GotoFrame(target)
		twice := contents(root.DisplayList())

		if !slices.Equal(once, twice) || root.CurrentFrame() != onceFrame {
			t.Errorf("seek %d twice: %v (frame %d), once: %v (frame %d)",
				target, twice, root.CurrentFrame(), once, onceFrame)
		}
	}
}

// layeredDef places, moves and removes several shapes across five frames.
func layeredDef() *testDef {
	def := newTestDef(5)
	for id := 1; id <= 4; id++ {
		def.shape(id, box(float64(id), float64(id)))
	}
	m := TranslateMatrix(5, 5)
	def.on(0, place(1, 1), place(2, 2))
	def.on(1, place(3, 3), moveTag{depth: TagDepth(1), attrs: PlaceAttrs{Matrix: &m}})
	def.on(2, remove(2), replace(4, 3))
	def.on(3, place(2, 2))
	def.on(4, remove(1))
	return def
}

func TestSeekMatchesSequentialAdvance(t *testing.T) {
	for n := 0; n < 5; n++ {
		seq, _ := newTestStage(t)
		a := playRoot(t, seq, layeredDef())
		for i := 0; i < n; i++ {
			seq.Advance()
		}
		if a.CurrentFrame() != n {
			t.Fatalf("sequential cursor = %d, want %d", a.CurrentFrame(), n)
		}

		jump, _ := newTestStage(t)
		b := playRoot(t, jump, layeredDef())
		b.GotoFrame(n)

		if got, want := contents(b.DisplayList()), contents(a.DisplayList()); !slices.Equal(got, want) {
			t.Errorf("frame %d: seek = %v, advance = %v", n, got, want)
		}
	}
}

func TestSeekClampsPastEnd(t *testing.T) {
	s, _ := newTestStage(t)
	var initRuns int
	root := playRoot(t, s, replacingDef(&initRuns))
	root.GotoFrame(99)
	if root.CurrentFrame() != 2 {
		t.Errorf("CurrentFrame = %d, want clamp to 2", root.CurrentFrame())
	}
}

func TestSeekNeverLoadedFrameIsIgnored(t *testing.T) {
	s, _ := newTestStage(t)
	var initRuns int
	def := replacingDef(&initRuns)
	def.loaded = 1
	root := playRoot(t, s, def)
	root.GotoFrame(2)
	if root.CurrentFrame() != 0 {
		t.Errorf("CurrentFrame = %d, want 0", root.CurrentFrame())
	}
}

// --- Reconstruction ---

func TestReconstructKeepsScriptedStateOfSurvivors(t *testing.T) {
	s, _ := newTestStage(t)
	def := newTestDef(3).shape(1, box(1, 1)).shape(2, box(1, 1))
	def.on(0, place(1, 1))
	def.on(1, place(2, 2))
	root := playRoot(t, s, def)
	survivor := root.DisplayList().Get(TagDepth(1))
	survivor.UserData = "kept"

	root.GotoFrame(2)
	root.GotoFrame(0)

	if got := root.DisplayList().Get(TagDepth(1)); got != survivor {
		t.Fatal("object present at the target frame was re-created")
	}
	if root.DisplayList().Get(TagDepth(2)) != nil {
		t.Error("object placed after the target frame survived")
	}
}

func TestReconstructDropsDynamicObjects(t *testing.T) {
	s, _ := newTestStage(t)
	def := newTestDef(2).shape(1, box(1, 1))
	root := playRoot(t, s, def)
	root.GotoFrame(1)
	dyn := root.AttachChild(1, "dyn", 3)

	root.GotoFrame(0)
	if root.DisplayList().Get(3) != nil || !dyn.IsUnloaded() {
		t.Error("script-created object survived a backward seek")
	}
}

func TestReconstructIgnoresTagsBeforeSurvivorOrigin(t *testing.T) {
	s, _ := newTestStage(t)
	m := TranslateMatrix(1, 1)
	def := newTestDef(4).shape(1, box(1, 1)).shape(2, box(1, 1))
	def.on(0, place(1, 1))
	def.on(1, remove(1), place(2, 1))
	def.on(2, moveTag{depth: TagDepth(1), attrs: PlaceAttrs{Matrix: &m}})
	root := playRoot(t, s, def)

	root.GotoFrame(3)
	survivor := root.DisplayList().Get(TagDepth(1))
	if survivor == nil || survivor.CharacterID != 2 || survivor.OriginFrame() != 1 {
		t.Fatalf("occupant = %+v", survivor)
	}
	root.GotoFrame(2)

	// Frame 0's place and frame 1's remove must not touch the survivor.
	if got := root.DisplayList().Get(TagDepth(1)); got != survivor {
		t.Fatalf("survivor replaced: %+v", got)
	}
	if survivor.IsUnloaded() {
		t.Error("survivor was unloaded by an earlier frame's remove")
	}
}

func TestLoopRebuildsDisplayList(t *testing.T) {
	s, _ := newTestStage(t)
	def := newTestDef(2).shape(1, box(1, 1)).shape(2, box(1, 1))
	def.on(0, place(1, 1))
	def.on(1, place(2, 2))
	root := playRoot(t, s, def)

	s.Advance() // frame 1
	if len(contents(root.DisplayList())) != 2 {
		t.Fatalf("frame 1 contents = %v", contents(root.DisplayList()))
	}
	s.Advance() // wraps to frame 0
	if root.CurrentFrame() != 0 || !root.HasLooped() {
		t.Fatalf("frame = %d looped = %v", root.CurrentFrame(), root.HasLooped())
	}
	got := contents(root.DisplayList())
	if len(got) != 1 || got[0].id != 1 {
		t.Errorf("contents after loop = %v, want only character 1", got)
	}
}

// --- Labels and stepping ---

func TestGotoLabel(t *testing.T) {
	s, _ := newTestStage(t)
	def := newTestDef(3).label(2, "End")
	root := playRoot(t, s, def)

	if !root.GotoLabel("end", false) {
		t.Fatal("label lookup failed")
	}
	if root.CurrentFrame() != 2 || root.PlayState() != PlayStateStop {
		t.Errorf("frame = %d state = %v", root.CurrentFrame(), root.PlayState())
	}
	if root.GotoLabel("missing", true) {
		t.Error("unknown label reported success")
	}
	if root.CurrentFrame() != 2 {
		t.Error("unknown label moved the cursor")
	}
}

func TestNextPrevFrame(t *testing.T) {
	s, _ := newTestStage(t)
	root := playRoot(t, s, newTestDef(3))

	root.NextFrame()
	root.NextFrame()
	root.NextFrame() // already on the last frame
	if root.CurrentFrame() != 2 || root.PlayState() != PlayStateStop {
		t.Fatalf("frame = %d state = %v", root.CurrentFrame(), root.PlayState())
	}
	root.PrevFrame()
	if root.CurrentFrame() != 1 {
		t.Errorf("PrevFrame: frame = %d, want 1", root.CurrentFrame())
	}
	root.GotoAndPlay(0)
	if root.PlayState() != PlayStatePlay {
		t.Error("GotoAndPlay did not resume playing")
	}
}

func TestGotoQueuesTargetFrameActionsOnly(t *testing.T) {
	s, _ := newTestStage(t)
	rec := &recorder{}
	def := newTestDef(4)
	for f := 0; f < 4; f++ {
		def.on(f, actionTag{code: rec.code(string(rune('0' + f)))})
	}
	root := playRoot(t, s, def)
	rec.calls = nil

	root.GotoFrame(3)
	s.DrainActionQueue()
	if rec.joined() != "3" {
		t.Errorf("actions = %q, want only frame 3", rec.joined())
	}
}
