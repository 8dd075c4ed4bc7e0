package reel

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Level n of the stage lives at depth n + StaticDepthOffset in the level
// list; level 0 holds the root movie.

type loadRequest struct {
	url   string
	level int
}

func levelDepth(n int) int { return n + StaticDepthOffset }

func validLevel(n int) bool { return IsStaticDepth(levelDepth(n)) }

// SetRootLevel installs t as level 0 and the root movie, then runs the
// actions its first frame queued.
func (s *Stage) SetRootLevel(t *Timeline) {
	if !s.setLevel(0, t) {
		return
	}
	s.rootMovie = t
	s.DrainActionQueue()
}

// RootMovie returns the timeline at level 0, if any.
func (s *Stage) RootMovie() *Timeline { return s.rootMovie }

// SetLevel installs t at level n, replacing whatever was there.
func (s *Stage) SetLevel(n int, t *Timeline) {
	if !validLevel(n) {
		s.misuse("level out of range", zap.Int("level", n))
		return
	}
	if s.setLevel(n, t) && n == 0 {
		s.rootMovie = t
	}
}

// setLevel refuses a timeline that is already a level; moving a level
// goes through SwapLevels.
func (s *Stage) setLevel(n int, t *Timeline) bool {
	if cur := s.LevelNumber(t); cur >= 0 {
		if cur != n {
			s.misuse("timeline is already a level", zap.Int("level", n), zap.Int("current", cur))
		}
		return false
	}
	depth := levelDepth(n)
	if old := s.levels.Get(depth); old != nil && old != t.obj && n == 0 {
		s.clearIntervalTimers()
	}
	t.obj.Name = fmt.Sprintf("_level%d", n)
	s.levels.Place(t.obj, depth, PlaceAttrs{})
	s.dirty = true
	t.obj.placed()
	return true
}

// Level returns the timeline at level n, or nil.
func (s *Stage) Level(n int) *Timeline {
	if !validLevel(n) {
		return nil
	}
	o := s.levels.Get(levelDepth(n))
	if o == nil || o.unloaded {
		return nil
	}
	return o.timeline
}

// Levels returns the loaded level timelines in ascending level order.
func (s *Stage) Levels() []*Timeline {
	var out []*Timeline
	s.levels.VisitAll(func(o *DisplayObject) {
		if !o.unloaded && !isRemovedDepth(o.depth) {
			out = append(out, o.timeline)
		}
	})
	return out
}

// LevelNumber returns the level t is installed at, or -1.
func (s *Stage) LevelNumber(t *Timeline) int {
	if t.obj.Parent != nil || !IsStaticDepth(t.obj.depth) || s.levels.Get(t.obj.depth) != t.obj {
		return -1
	}
	return t.obj.depth - StaticDepthOffset
}

// SwapLevels moves t to level n, moving the occupant of n (if any) to t's
// old level.
func (s *Stage) SwapLevels(t *Timeline, n int) bool {
	if !validLevel(n) {
		s.misuse("swap to a level out of range", zap.Int("level", n))
		return false
	}
	obj := t.obj
	src := obj.depth
	i, found := s.levels.search(src)
	if !found || s.levels.items[i] != obj {
		s.misuse("swap of a timeline that is not a level", zap.String("path", obj.Path()))
		return false
	}
	dst := levelDepth(n)
	if src == dst {
		return false
	}
	l := &s.levels
	if j, occupied := l.search(dst); occupied {
		other := l.items[j]
		other.depth = src
		obj.depth = dst
		l.items[i], l.items[j] = other, obj
		other.Name = fmt.Sprintf("_level%d", src-StaticDepthOffset)
	} else {
		l.items = slices.Delete(l.items, i, i+1)
		obj.depth = dst
		l.insert(obj)
	}
	obj.Name = fmt.Sprintf("_level%d", n)
	s.dirty = true
	return true
}

// DropLevel unloads level n. The root movie cannot be dropped.
func (s *Stage) DropLevel(n int) bool {
	if !validLevel(n) {
		return false
	}
	o := s.levels.Get(levelDepth(n))
	if o == nil {
		return false
	}
	if s.rootMovie != nil && o == s.rootMovie.obj {
		s.misuse("cannot drop the root movie", zap.Int("level", n))
		return false
	}
	s.levels.Remove(o.depth)
	s.dirty = true
	return true
}

// LoadLevel queues a load of url into level n. The load is resolved by the
// configured Loader during the next tick.
func (s *Stage) LoadLevel(url string, n int) {
	if !validLevel(n) {
		s.misuse("load into a level out of range", zap.Int("level", n))
		return
	}
	s.loadRequests = append(s.loadRequests, loadRequest{url: url, level: n})
}

func (s *Stage) processLoadRequests() {
	if len(s.loadRequests) == 0 {
		return
	}
	reqs := s.loadRequests
	s.loadRequests = nil
	for _, r := range reqs {
		if err := s.loadLevel(r); err != nil {
			s.log.Error("load level failed",
				zap.String("url", r.url), zap.Int("level", r.level), zap.Error(err))
		}
	}
}

func (s *Stage) loadLevel(r loadRequest) error {
	if s.opts.Loader == nil {
		return ErrNoLoader
	}
	def, err := s.opts.Loader.Load(r.url)
	if err != nil {
		return fmt.Errorf("load %q: %w", r.url, err)
	}
	t := s.NewMovie(def)
	if r.level == 0 {
		s.rootMovie = t
	}
	s.setLevel(r.level, t)
	return nil
}
