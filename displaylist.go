package reel

import (
	"cmp"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// DisplayList is the depth-ordered set of objects placed on one Timeline.
// At most one object occupies a depth. Iteration callbacks must not mutate
// the list they iterate.
type DisplayList struct {
	owner *Timeline
	items []*DisplayObject // ascending depth
	log   *zap.Logger
}

func (l *DisplayList) logger() *zap.Logger {
	if l.log == nil {
		return zap.NewNop()
	}
	return l.log
}

func (l *DisplayList) search(depth int) (int, bool) {
	return slices.BinarySearchFunc(l.items, depth, func(o *DisplayObject, d int) int {
		return cmp.Compare(o.depth, d)
	})
}

func (l *DisplayList) insert(o *DisplayObject) {
	i, found := l.search(o.depth)
	if found {
		panic("reel: display list depth collision")
	}
	l.items = slices.Insert(l.items, i, o)
}

func (l *DisplayList) ownerObject() *DisplayObject {
	if l.owner == nil {
		return nil
	}
	return l.owner.obj
}

func (l *DisplayList) invalidate() {
	if l.owner != nil {
		l.owner.invalidated = true
		l.owner.stage.dirty = true
	}
}

// Len returns the number of entries, including unloaded ones awaiting purge.
func (l *DisplayList) Len() int { return len(l.items) }

// Get returns the object at depth, or nil.
func (l *DisplayList) Get(depth int) *DisplayObject {
	if i, ok := l.search(depth); ok {
		return l.items[i]
	}
	return nil
}

// GetByName returns the first loaded object named name, in depth order.
// Unless caseSensitive, names are compared by case folding.
func (l *DisplayList) GetByName(name string, caseSensitive bool) *DisplayObject {
	if caseSensitive {
		for _, o := range l.items {
			if !o.unloaded && o.Name == name {
				return o
			}
		}
		return nil
	}
	fold := cases.Fold()
	want := fold.String(name)
	for _, o := range l.items {
		if !o.unloaded && fold.String(o.Name) == want {
			return o
		}
	}
	return nil
}

// Place inserts obj at depth. Whatever was there is unloaded first.
func (l *DisplayList) Place(obj *DisplayObject, depth int, attrs PlaceAttrs) {
	obj.depth = depth
	obj.Parent = l.ownerObject()
	attrs.apply(obj)

	i, found := l.search(depth)
	if !found {
		l.items = slices.Insert(l.items, i, obj)
		l.invalidate()
		return
	}
	old := l.items[i]
	l.items[i] = obj
	if old != obj {
		l.unloadOccupant(old)
	}
	l.invalidate()
}

// Replace puts obj at depth in place of the current occupant, inheriting its
// matrix and color transform unless attrs overrides them. With no occupant
// it behaves like Place.
func (l *DisplayList) Replace(obj *DisplayObject, depth int, attrs PlaceAttrs) {
	i, found := l.search(depth)
	if !found {
		l.Place(obj, depth, attrs)
		return
	}
	old := l.items[i]
	obj.depth = depth
	obj.Parent = l.ownerObject()
	obj.matrix = old.matrix
	obj.cxform = old.cxform
	attrs.apply(obj)
	l.items[i] = obj
	if old != obj {
		l.unloadOccupant(old)
	}
	l.invalidate()
}

// Move updates the attributes of the object at depth. Objects whose
// transform was changed by script ignore moves.
func (l *DisplayList) Move(depth int, attrs PlaceAttrs) {
	o := l.Get(depth)
	if o == nil {
		l.logger().Warn("move: no object at depth", zap.Int("depth", depth))
		return
	}
	if o.unloaded {
		l.logger().Warn("move: object at depth is unloaded", zap.Int("depth", depth))
		return
	}
	if !o.AcceptsAnimMoves() {
		return
	}
	attrs.apply(o)
	l.invalidate()
}

// Remove detaches the occupant of depth. If it still has unload handlers to
// run it is parked in the removed zone, otherwise it is destroyed. No-op on
// an empty depth.
func (l *DisplayList) Remove(depth int) {
	i, found := l.search(depth)
	if !found {
		return
	}
	old := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	l.unloadOccupant(old)
	l.invalidate()
}

// RemoveDynamic is the scripted remove: it refuses depths outside the
// dynamic zone. It reports whether an object was removed.
func (l *DisplayList) RemoveDynamic(depth int) bool {
	if !IsDynamicDepth(depth) {
		l.misuse("remove outside the dynamic zone", zap.Int("depth", depth))
		return false
	}
	if l.Get(depth) == nil {
		return false
	}
	l.Remove(depth)
	return true
}

// Swap moves obj to newDepth, moving the occupant of newDepth (if any) to
// obj's old depth. It refuses, logging a misuse warning, when either depth
// is below the dynamic zone, when obj is not in this list, or when obj
// already sits at newDepth.
func (l *DisplayList) Swap(obj *DisplayObject, newDepth int) bool {
	src := obj.depth
	if src < 0 || newDepth < 0 {
		l.misuse("swap outside the dynamic zone", zap.Int("from", src), zap.Int("to", newDepth))
		return false
	}
	if src == newDepth {
		l.misuse("swap to the same depth", zap.Int("depth", src))
		return false
	}
	i, found := l.search(src)
	if !found || l.items[i] != obj {
		l.misuse("swap of an object not in this list", zap.String("name", obj.Name))
		return false
	}
	obj.scriptTransformed = true
	if j, occupied := l.search(newDepth); occupied {
		other := l.items[j]
		other.depth = src
		other.scriptTransformed = true
		obj.depth = newDepth
		l.items[i], l.items[j] = other, obj
	} else {
		l.items = slices.Delete(l.items, i, i+1)
		obj.depth = newDepth
		l.insert(obj)
	}
	l.invalidate()
	return true
}

// NextHighestDepth returns the lowest dynamic depth above every occupant.
func (l *DisplayList) NextHighestDepth() int {
	next := 0
	for _, o := range l.items {
		if o.depth >= next && o.depth <= DynamicDepthMax {
			next = o.depth + 1
		}
	}
	return next
}

// VisitAll calls fn for every entry in ascending depth (back-to-front,
// render order).
func (l *DisplayList) VisitAll(fn func(*DisplayObject)) {
	for _, o := range l.items {
		fn(o)
	}
}

// VisitBackward calls fn for every entry in descending depth (front-to-back,
// hit-test order) until fn returns false.
func (l *DisplayList) VisitBackward(fn func(*DisplayObject) bool) {
	for i := len(l.items) - 1; i >= 0; i-- {
		if !fn(l.items[i]) {
			return
		}
	}
}

// RemoveUnloaded purges unloaded entries, destroying them, and recurses into
// nested timelines. It runs once per stage tick, never while the list is
// being iterated.
func (l *DisplayList) RemoveUnloaded() {
	n := 0
	var purged []*DisplayObject
	for _, o := range l.items {
		if o.unloaded {
			purged = append(purged, o)
			continue
		}
		l.items[n] = o
		n++
	}
	clear(l.items[n:])
	l.items = l.items[:n]
	for _, o := range purged {
		o.Destroy()
	}
	for _, o := range l.items {
		if o.timeline != nil {
			o.timeline.list.RemoveUnloaded()
		}
	}
	if len(purged) > 0 {
		l.invalidate()
	}
}

// unloadOccupant retires an object that just lost its slot.
func (l *DisplayList) unloadOccupant(old *DisplayObject) {
	if old.unload() {
		d := RemovedDepthOffset - old.depth
		for l.Get(d) != nil {
			d--
		}
		old.depth = d
		l.insert(old)
		return
	}
	old.Destroy()
}

// unload unloads every entry, destroying those without pending unload
// handlers. It reports whether any entry kept a handler pending.
func (l *DisplayList) unload() bool {
	pending := false
	n := 0
	for _, o := range l.items {
		if o.unloaded {
			l.items[n] = o
			n++
			continue
		}
		if o.unload() {
			pending = true
			l.items[n] = o
			n++
			continue
		}
		o.Destroy()
	}
	clear(l.items[n:])
	l.items = l.items[:n]
	return pending
}

// destroy destroys every entry and empties the list.
func (l *DisplayList) destroy() {
	items := l.items
	l.items = nil
	for _, o := range items {
		o.Destroy()
	}
}

func (l *DisplayList) misuse(msg string, fields ...zap.Field) {
	if l.owner != nil && l.owner.stage.opts.Debug {
		panic("reel debug: " + msg)
	}
	l.logger().Warn("script misuse: "+msg, fields...)
}
