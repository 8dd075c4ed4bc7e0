package movie

import (
	"cmp"
	"slices"

	"github.com/phanxgames/reel"
	"golang.org/x/text/cases"
)

// Dictionary holds the characters of one movie. Every sprite of the movie
// shares it.
type Dictionary struct {
	chars map[int]*Character
}

func newDictionary() *Dictionary {
	return &Dictionary{chars: make(map[int]*Character)}
}

// Len returns the number of characters.
func (d *Dictionary) Len() int { return len(d.chars) }

func (d *Dictionary) get(id int) (*Character, bool) {
	c, ok := d.chars[id]
	return c, ok
}

// Character is a dictionary entry.
type Character struct {
	id     int
	kind   reel.ObjectKind
	bounds reel.Rect
	fill   reel.RGBA
	sprite *Sprite
}

func (c *Character) CharacterID() int      { return c.id }
func (c *Character) Kind() reel.ObjectKind { return c.kind }
func (c *Character) Bounds() reel.Rect     { return c.bounds }
func (c *Character) Fill() reel.RGBA       { return c.fill }

// Sprite returns the nested timeline of a clip character, nil otherwise.
func (c *Character) Sprite() reel.Definition {
	if c.sprite == nil {
		return nil
	}
	return c.sprite
}

type frame struct {
	label string
	tags  []reel.ControlTag
	init  []reel.ControlTag
}

// Sprite is a parsed timeline: the root movie or a clip character. It
// implements reel.Definition.
type Sprite struct {
	name       string
	frameRate  float64
	width      float64
	height     float64
	background *reel.RGBA
	frames     []frame
	loaded     int
	labels     map[string]int // case-folded
	dict       *Dictionary
}

// Name returns the movie or character name.
func (s *Sprite) Name() string { return s.name }

// Size returns the stage size declared by a root movie.
func (s *Sprite) Size() (w, h float64) { return s.width, s.height }

// Background returns the declared background color, if any.
func (s *Sprite) Background() (reel.RGBA, bool) {
	if s.background == nil {
		return reel.RGBA{}, false
	}
	return *s.background, true
}

// Dictionary returns the shared character dictionary.
func (s *Sprite) Dictionary() *Dictionary { return s.dict }

func (s *Sprite) FrameCount() int    { return len(s.frames) }
func (s *Sprite) LoadedFrames() int  { return s.loaded }
func (s *Sprite) FrameRate() float64 { return s.frameRate }

// SetLoadedFrames simulates streaming: only the first n frames are
// available until it is raised again.
func (s *Sprite) SetLoadedFrames(n int) {
	s.loaded = max(0, min(n, len(s.frames)))
}

func (s *Sprite) Playlist(f int) []reel.ControlTag {
	if f < 0 || f >= len(s.frames) {
		return nil
	}
	return s.frames[f].tags
}

func (s *Sprite) InitActions(f int) []reel.ControlTag {
	if f < 0 || f >= len(s.frames) {
		return nil
	}
	return s.frames[f].init
}

// EnsureFrameLoaded reports whether f is available. Definitions are fully
// parsed up front, so nothing ever blocks.
func (s *Sprite) EnsureFrameLoaded(f int) bool {
	return f >= 0 && f < s.loaded
}

// ResolveLabel maps a frame label to its 0-based index. Labels match
// case-insensitively.
func (s *Sprite) ResolveLabel(name string) (int, bool) {
	f, ok := s.labels[cases.Fold().String(name)]
	return f, ok
}

func (s *Sprite) Character(id int) (reel.Character, bool) {
	c, ok := s.dict.get(id)
	if !ok {
		return nil, false
	}
	return c, true
}

// AuthoritativePlacement replays the placement tags of frames 0..f the way
// a Timeline applies them and returns the surviving tag-placed objects,
// sorted by depth.
func (s *Sprite) AuthoritativePlacement(f int) []reel.Placement {
	cur := make(map[int]reel.Placement)
	for i := 0; i <= f && i < len(s.frames); i++ {
		for _, ct := range s.frames[i].tags {
			t, ok := ct.(*Tag)
			if !ok {
				continue
			}
			s.simulate(cur, t, i)
		}
	}
	out := make([]reel.Placement, 0, len(cur))
	for _, p := range cur {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b reel.Placement) int { return cmp.Compare(a.Depth, b.Depth) })
	return out
}

func (s *Sprite) simulate(cur map[int]reel.Placement, t *Tag, f int) {
	switch t.Kind {
	case TagPlace:
		d := t.Place.Depth
		if _, occupied := cur[d]; occupied {
			return
		}
		if _, ok := s.dict.get(t.Place.CharacterID); !ok {
			return
		}
		cur[d] = reel.Placement{Depth: d, CharacterID: t.Place.CharacterID, OriginFrame: f, Ratio: ratioOf(t.Place.Attrs)}
	case TagMove:
		p, ok := cur[t.Place.Depth]
		if ok && t.Place.Attrs.Ratio != nil {
			p.Ratio = *t.Place.Attrs.Ratio
			cur[p.Depth] = p
		}
	case TagReplace:
		p, ok := cur[t.Place.Depth]
		if !ok {
			return
		}
		if old, ok := s.dict.get(p.CharacterID); ok && referenceable(old.kind) {
			if t.Place.Attrs.Ratio != nil {
				p.Ratio = *t.Place.Attrs.Ratio
				cur[p.Depth] = p
			}
			return
		}
		if _, ok := s.dict.get(t.Place.CharacterID); !ok {
			return
		}
		cur[p.Depth] = reel.Placement{Depth: p.Depth, CharacterID: t.Place.CharacterID, OriginFrame: f, Ratio: ratioOf(t.Place.Attrs)}
	case TagRemove:
		delete(cur, t.Depth)
	}
}

func ratioOf(a reel.PlaceAttrs) int {
	if a.Ratio == nil {
		return 0
	}
	return *a.Ratio
}

// referenceable mirrors the kinds a Timeline moves instead of replacing.
func referenceable(k reel.ObjectKind) bool {
	return k == reel.KindClip || k == reel.KindButton || k == reel.KindText
}
