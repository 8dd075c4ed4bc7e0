package reel

import "testing"

func box(w, h float64) Rect { return Rect{Width: w, Height: h} }

// newListStage returns a stage whose root movie has shapes 1..3 in its
// dictionary and nothing placed.
func newListStage(t *testing.T) (*Stage, *Timeline) {
	t.Helper()
	s, _ := newTestStage(t)
	def := newTestDef(1).shape(1, box(10, 10)).shape(2, box(20, 20)).shape(3, box(30, 30))
	return s, playRoot(t, s, def)
}

// --- Depth zones ---

func TestDepthZones(t *testing.T) {
	tests := []struct {
		depth   int
		static  bool
		dynamic bool
		removed bool
	}{
		{StaticDepthOffset, true, false, false},
		{-1, true, false, false},
		{0, false, true, false},
		{DynamicDepthMax, false, true, false},
		{DynamicDepthMax + 1, false, false, false},
		{StaticDepthOffset - 1, false, false, true},
		{RemovedDepthOffset, false, false, true},
	}
	for _, tt := range tests {
		if got := IsStaticDepth(tt.depth); got != tt.static {
			t.Errorf("IsStaticDepth(%d) = %v", tt.depth, got)
		}
		if got := IsDynamicDepth(tt.depth); got != tt.dynamic {
			t.Errorf("IsDynamicDepth(%d) = %v", tt.depth, got)
		}
		if got := isRemovedDepth(tt.depth); got != tt.removed {
			t.Errorf("isRemovedDepth(%d) = %v", tt.depth, got)
		}
	}
	if TagDepth(1) != StaticDepthOffset+1 {
		t.Errorf("TagDepth(1) = %d", TagDepth(1))
	}
}

// --- Place / Replace / Move / Remove ---

func TestDisplayListPlaceKeepsDepthOrder(t *testing.T) {
	_, root := newListStage(t)
	for _, d := range []int{5, 1, 3} {
		root.AttachChild(1, "", d)
	}
	l := root.DisplayList()
	var got []int
	l.VisitAll(func(o *DisplayObject) { got = append(got, o.Depth()) })
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("depths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("depths = %v, want %v", got, want)
		}
	}
	var back []int
	l.VisitBackward(func(o *DisplayObject) bool {
		back = append(back, o.Depth())
		return len(back) < 2
	})
	if len(back) != 2 || back[0] != 5 || back[1] != 3 {
		t.Errorf("VisitBackward = %v, want [5 3]", back)
	}
}

func TestDisplayListPlaceOverOccupantUnloadsIt(t *testing.T) {
	_, root := newListStage(t)
	first := root.AttachChild(1, "a", 4)
	second := root.AttachChild(2, "b", 4)
	l := root.DisplayList()

	if l.Get(4) != second {
		t.Fatal("second object not at depth 4")
	}
	if !first.IsDestroyed() {
		t.Error("replaced object without unload handler should be destroyed")
	}
	assertUniqueDepths(t, l)
}

func TestDisplayListReplaceInheritsTransform(t *testing.T) {
	s, _ := newTestStage(t)
	m := TranslateMatrix(7, 9)
	def := newTestDef(2).shape(1, box(10, 10)).shape(2, box(10, 10))
	def.on(0, placeTag{req: PlaceRequest{CharacterID: 1, Depth: TagDepth(1), Attrs: PlaceAttrs{Matrix: &m}}})
	def.on(1, replace(2, 1))
	root := playRoot(t, s, def)

	root.GotoFrame(1)
	o := root.DisplayList().Get(TagDepth(1))
	if o == nil || o.CharacterID != 2 {
		t.Fatalf("occupant = %+v, want character 2", o)
	}
	if o.X() != 7 || o.Y() != 9 {
		t.Errorf("position = (%v, %v), want inherited (7, 9)", o.X(), o.Y())
	}
}

func TestDisplayListMove(t *testing.T) {
	_, root := newListStage(t)
	o := root.AttachChild(1, "a", 2)
	l := root.DisplayList()

	m := TranslateMatrix(3, 4)
	l.Move(2, PlaceAttrs{Matrix: &m})
	if o.X() != 3 || o.Y() != 4 {
		t.Fatalf("position = (%v, %v), want (3, 4)", o.X(), o.Y())
	}

	// Empty depth: warning and no-op.
	l.Move(99, PlaceAttrs{Matrix: &m})

	// Scripted transforms win over later moves.
	o.SetPosition(50, 60)
	m2 := TranslateMatrix(1, 1)
	l.Move(2, PlaceAttrs{Matrix: &m2})
	if o.X() != 50 || o.Y() != 60 {
		t.Errorf("move applied to a script-transformed object: (%v, %v)", o.X(), o.Y())
	}
}

func TestDisplayListRemove(t *testing.T) {
	_, root := newListStage(t)
	o := root.AttachChild(1, "a", 2)
	l := root.DisplayList()

	l.Remove(77) // empty: no-op
	if l.Len() != 1 {
		t.Fatalf("Len = %d after removing an empty depth", l.Len())
	}
	l.Remove(2)
	if l.Get(2) != nil || l.Len() != 0 {
		t.Error("object still present after Remove")
	}
	if !o.IsUnloaded() || !o.IsDestroyed() {
		t.Error("removed object without unload handler should be unloaded and destroyed")
	}
}

func TestDisplayListRemoveParksObjectsWithUnloadHandler(t *testing.T) {
	s, root := newListStage(t)
	rec := &recorder{}
	o := root.AttachChild(1, "a", 2)
	o.SetHandler(EventUnload, rec.code("unload"))
	l := root.DisplayList()

	l.Remove(2)
	parked := RemovedDepthOffset - 2
	if l.Get(parked) != o {
		t.Fatalf("object not parked at %d", parked)
	}
	if o.IsDestroyed() {
		t.Fatal("parked object destroyed before its handler ran")
	}

	// A second object removed from the same depth parks one lower.
	o2 := root.AttachChild(1, "b", 2)
	o2.SetHandler(EventUnload, rec.code("unload2"))
	l.Remove(2)
	if l.Get(parked-1) != o2 {
		t.Fatalf("second object not parked at %d", parked-1)
	}

	s.Advance()
	if rec.joined() != "unload,unload2" {
		t.Errorf("calls = %q", rec.joined())
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d after purge, want 0", l.Len())
	}
	if !o.IsDestroyed() || !o2.IsDestroyed() {
		t.Error("parked objects not destroyed by the purge")
	}
}

// --- Zone protection ---

func TestDisplayListStaticZoneProtected(t *testing.T) {
	s, _ := newTestStage(t)
	def := newTestDef(1).shape(1, box(10, 10)).on(0, place(1, 3))
	root := playRoot(t, s, def)
	l := root.DisplayList()
	static := l.Get(TagDepth(3))
	dyn := root.AttachChild(1, "d", 5)

	if l.RemoveDynamic(TagDepth(3)) {
		t.Error("RemoveDynamic removed a static depth")
	}
	if root.RemoveChild(static) {
		t.Error("RemoveChild removed a tag-placed object")
	}
	if l.Swap(dyn, TagDepth(3)) {
		t.Error("Swap into the static zone succeeded")
	}
	if l.Swap(static, 9) {
		t.Error("Swap out of the static zone succeeded")
	}
	if l.Get(TagDepth(3)) != static || l.Get(5) != dyn {
		t.Error("display list changed by refused operations")
	}
	if root.AttachChild(1, "neg", -5) != nil {
		t.Error("AttachChild at a negative depth succeeded")
	}
}

// --- Swap ---

func TestDisplayListSwapToEmptyDepth(t *testing.T) {
	_, root := newListStage(t)
	l := root.DisplayList()
	o := root.AttachChild(1, "a", 5)

	if !l.Swap(o, 7) {
		t.Fatal("Swap(5 -> 7) failed")
	}
	if l.Get(7) != o || l.Get(5) != nil || o.Depth() != 7 {
		t.Fatalf("after swap: at7=%v at5=%v depth=%d", l.Get(7), l.Get(5), o.Depth())
	}

	// Same call again: object already at 7.
	if l.Swap(o, 7) {
		t.Error("Swap to the current depth should be refused")
	}
	if l.Get(7) != o || l.Get(5) != nil {
		t.Error("refused swap changed the list")
	}
}

func TestDisplayListSwapExchangesOccupants(t *testing.T) {
	_, root := newListStage(t)
	l := root.DisplayList()
	a := root.AttachChild(1, "a", 1)
	b := root.AttachChild(2, "b", 2)

	if !root.SwapChildDepth(a, 2) {
		t.Fatal("swap failed")
	}
	if l.Get(1) != b || l.Get(2) != a {
		t.Error("occupants not exchanged")
	}
	if a.AcceptsAnimMoves() || b.AcceptsAnimMoves() {
		t.Error("swapped objects should stop accepting timeline moves")
	}
	assertUniqueDepths(t, l)
}

// --- Queries ---

func TestDisplayListNextHighestDepth(t *testing.T) {
	s, _ := newTestStage(t)
	def := newTestDef(1).shape(1, box(10, 10)).on(0, place(1, 1))
	root := playRoot(t, s, def)
	l := root.DisplayList()

	if got := l.NextHighestDepth(); got != 0 {
		t.Errorf("NextHighestDepth with only static objects = %d, want 0", got)
	}
	root.AttachChild(1, "a", 4)
	root.AttachChild(1, "b", DynamicDepthMax+10)
	if got := l.NextHighestDepth(); got != 5 {
		t.Errorf("NextHighestDepth = %d, want 5", got)
	}
}

func TestDisplayListGetByName(t *testing.T) {
	_, root := newListStage(t)
	l := root.DisplayList()
	a := root.AttachChild(1, "Button", 1)
	root.AttachChild(1, "other", 2)

	if l.GetByName("button", false) != a {
		t.Error("case-insensitive lookup failed")
	}
	if l.GetByName("BUTTON", false) != a {
		t.Error("case-insensitive lookup failed for upper case")
	}
	if l.GetByName("button", true) != nil {
		t.Error("case-sensitive lookup matched a different case")
	}
	if l.GetByName("Button", true) != a {
		t.Error("case-sensitive exact lookup failed")
	}
	if l.GetByName("missing", false) != nil {
		t.Error("lookup of a missing name returned an object")
	}
}

func TestChildByNameHonorsCaseOption(t *testing.T) {
	s := NewStage(Options{CaseSensitiveNames: true, Clock: &ManualClock{}})
	def := newTestDef(1).shape(1, box(10, 10))
	root := s.NewMovie(def)
	s.SetRootLevel(root)
	root.AttachChild(1, "Name", 1)

	if root.ChildByName("name") != nil {
		t.Error("case-sensitive stage matched a different case")
	}
	if root.ChildByName("Name") == nil {
		t.Error("exact name not found")
	}
}
