package reel

type dragState struct {
	obj        *DisplayObject
	lockCenter bool
	offX, offY float64
	bounds     *Rect // parent coordinates
}

// StartDrag makes o follow the pointer each tick. Unless lockCenter, the
// offset between the pointer and o's origin is kept. bounds, in o's parent
// coordinates, constrains the origin when non-nil. Any previous drag ends.
func (s *Stage) StartDrag(o *DisplayObject, lockCenter bool, bounds *Rect) {
	if o == nil || o.unloaded {
		return
	}
	d := &dragState{obj: o, lockCenter: lockCenter}
	if bounds != nil {
		b := *bounds
		d.bounds = &b
	}
	if !lockCenter {
		wx, wy := o.LocalToWorld(0, 0)
		d.offX = wx - s.mouseX
		d.offY = wy - s.mouseY
	}
	s.drag = d
	s.dropTarget = s.findDropTarget(s.mouseX, s.mouseY, o)
}

// StopDrag ends the current drag, if any.
func (s *Stage) StopDrag() {
	s.drag = nil
}

// Dragging returns the object being dragged, or nil.
func (s *Stage) Dragging() *DisplayObject {
	if s.drag == nil {
		return nil
	}
	return s.drag.obj
}

// DropTarget returns the topmost object under the pointer, other than the
// one being dragged, as of the last pointer update.
func (s *Stage) DropTarget() *DisplayObject { return s.dropTarget }

func (s *Stage) findDropTarget(x, y float64, skip *DisplayObject) *DisplayObject {
	var hit *DisplayObject
	s.levels.VisitBackward(func(o *DisplayObject) bool {
		if isRemovedDepth(o.depth) {
			return true
		}
		hit = o.topmostObject(x, y, skip)
		return hit == nil
	})
	return hit
}

// doMouseDrag moves the dragged object to the pointer.
func (s *Stage) doMouseDrag() {
	d := s.drag
	if d == nil {
		return
	}
	o := d.obj
	if o.unloaded {
		s.drag = nil
		return
	}
	x, y := s.mouseX+d.offX, s.mouseY+d.offY

	parent := IdentityMatrix
	if o.Parent != nil {
		parent = o.Parent.WorldMatrix()
	}
	if d.bounds != nil {
		x, y = parent.TransformRect(*d.bounds).Clamp(x, y)
	}
	lx, ly := parent.Invert().Apply(x, y)
	if lx == o.matrix[4] && ly == o.matrix[5] {
		return
	}
	o.matrix[4] = lx
	o.matrix[5] = ly
	o.transformedByScript()
}
