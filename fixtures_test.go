package reel

import (
	"cmp"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

// --- Fake definitions ---

type testChar struct {
	id     int
	kind   ObjectKind
	bounds Rect
	fill   RGBA
	sprite *testDef
}

func (c *testChar) CharacterID() int { return c.id }
func (c *testChar) Kind() ObjectKind { return c.kind }
func (c *testChar) Bounds() Rect     { return c.bounds }
func (c *testChar) Fill() RGBA       { return c.fill }

func (c *testChar) Sprite() Definition {
	if c.sprite == nil {
		return nil
	}
	return c.sprite
}

type testFrame struct {
	label string
	tags  []ControlTag
	init  []ControlTag
}

// testDef is an in-memory Definition. Nested clips share the chars map of
// the definition they were added to.
type testDef struct {
	frames []testFrame
	loaded int
	chars  map[int]*testChar
}

func newTestDef(frames int) *testDef {
	return &testDef{
		frames: make([]testFrame, frames),
		loaded: frames,
		chars:  make(map[int]*testChar),
	}
}

func (d *testDef) on(f int, tags ...ControlTag) *testDef {
	d.frames[f].tags = append(d.frames[f].tags, tags...)
	return d
}

func (d *testDef) initOn(f int, tags ...ControlTag) *testDef {
	d.frames[f].init = append(d.frames[f].init, tags...)
	return d
}

func (d *testDef) label(f int, name string) *testDef {
	d.frames[f].label = name
	return d
}

func (d *testDef) shape(id int, b Rect) *testDef {
	d.chars[id] = &testChar{id: id, kind: KindShape, bounds: b, fill: ColorWhite}
	return d
}

func (d *testDef) clip(id int, sub *testDef) *testDef {
	sub.chars = d.chars
	d.chars[id] = &testChar{id: id, kind: KindClip, sprite: sub}
	return d
}

func (d *testDef) FrameCount() int    { return len(d.frames) }
func (d *testDef) LoadedFrames() int  { return d.loaded }
func (d *testDef) FrameRate() float64 { return 30 }

func (d *testDef) Playlist(f int) []ControlTag    { return d.frames[f].tags }
func (d *testDef) InitActions(f int) []ControlTag { return d.frames[f].init }

func (d *testDef) EnsureFrameLoaded(f int) bool { return f >= 0 && f < d.loaded }

func (d *testDef) ResolveLabel(name string) (int, bool) {
	for i, fr := range d.frames {
		if fr.label != "" && strings.EqualFold(fr.label, name) {
			return i, true
		}
	}
	return 0, false
}

func (d *testDef) Character(id int) (Character, bool) {
	c, ok := d.chars[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (d *testDef) AuthoritativePlacement(f int) []Placement {
	cur := make(map[int]Placement)
	for i := 0; i <= f && i < len(d.frames); i++ {
		for _, tag := range d.frames[i].tags {
			switch tag := tag.(type) {
			case placeTag:
				if _, occupied := cur[tag.req.Depth]; !occupied {
					cur[tag.req.Depth] = Placement{Depth: tag.req.Depth, CharacterID: tag.req.CharacterID, OriginFrame: i, Ratio: tag.req.Attrs.ratio()}
				}
			case replaceTag:
				p, ok := cur[tag.req.Depth]
				if !ok {
					continue
				}
				if c := d.chars[p.CharacterID]; c != nil && c.kind.referenceable() {
					continue
				}
				cur[p.Depth] = Placement{Depth: p.Depth, CharacterID: tag.req.CharacterID, OriginFrame: i, Ratio: tag.req.Attrs.ratio()}
			case removeTag:
				delete(cur, tag.depth)
			}
		}
	}
	out := make([]Placement, 0, len(cur))
	for _, p := range cur {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Placement) int { return cmp.Compare(a.Depth, b.Depth) })
	return out
}

// --- Fake control tags ---

type placeTag struct{ req PlaceRequest }

func (p placeTag) ExecuteState(t *Timeline, _ *DisplayList) { t.PlaceOrMove(p.req) }
func (placeTag) ExecuteActions(*Timeline, *DisplayList)     {}

type replaceTag struct{ req PlaceRequest }

func (p replaceTag) ExecuteState(t *Timeline, _ *DisplayList) { t.ReplaceAt(p.req) }
func (replaceTag) ExecuteActions(*Timeline, *DisplayList)     {}

type moveTag struct {
	depth int
	attrs PlaceAttrs
}

func (m moveTag) ExecuteState(t *Timeline, _ *DisplayList) { t.MoveAt(m.depth, m.attrs) }
func (moveTag) ExecuteActions(*Timeline, *DisplayList)     {}

type removeTag struct{ depth int }

func (r removeTag) ExecuteState(t *Timeline, _ *DisplayList) { t.RemoveAt(r.depth) }
func (removeTag) ExecuteActions(*Timeline, *DisplayList)     {}

type actionTag struct{ code Code }

func (actionTag) ExecuteState(*Timeline, *DisplayList)         {}
func (a actionTag) ExecuteActions(t *Timeline, _ *DisplayList) { t.QueueAction(a.code) }

// place places character id at tag depth d.
func place(id, d int) placeTag {
	return placeTag{req: PlaceRequest{CharacterID: id, Depth: TagDepth(d)}}
}

func placeNamed(id, d int, name string) placeTag {
	return placeTag{req: PlaceRequest{CharacterID: id, Depth: TagDepth(d), Name: name}}
}

func replace(id, d int) replaceTag {
	return replaceTag{req: PlaceRequest{CharacterID: id, Depth: TagDepth(d)}}
}

func remove(d int) removeTag { return removeTag{depth: TagDepth(d)} }

// --- Recording code ---

type recorder struct {
	calls []string
}

func (r *recorder) code(name string) Code {
	return CodeFunc(func(*DisplayObject) error {
		r.calls = append(r.calls, name)
		return nil
	})
}

func (r *recorder) joined() string { return strings.Join(r.calls, ",") }

// --- Stage helpers ---

func newTestStage(t *testing.T) (*Stage, *ManualClock) {
	t.Helper()
	clock := &ManualClock{}
	s := NewStage(Options{
		Logger: zaptest.NewLogger(t),
		Clock:  clock,
	})
	return s, clock
}

// playRoot installs def as the root movie.
func playRoot(t *testing.T, s *Stage, def Definition) *Timeline {
	t.Helper()
	root := s.NewMovie(def)
	s.SetRootLevel(root)
	return root
}

type depthChar struct {
	depth int
	id    int
}

// contents lists the live occupants of l outside the removed zone.
func contents(l *DisplayList) []depthChar {
	var out []depthChar
	l.VisitAll(func(o *DisplayObject) {
		if o.unloaded || isRemovedDepth(o.depth) {
			return
		}
		out = append(out, depthChar{o.depth, o.CharacterID})
	})
	return out
}

func assertUniqueDepths(t *testing.T, l *DisplayList) {
	t.Helper()
	seen := make(map[int]bool)
	l.VisitAll(func(o *DisplayObject) {
		if seen[o.depth] {
			t.Errorf("depth %d occupied twice", o.depth)
		}
		seen[o.depth] = true
	})
}
