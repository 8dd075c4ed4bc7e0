package reel

// Renderer receives the stage contents in paint order. The core never
// draws itself.
type Renderer interface {
	BeginFrame(background RGBA)
	// DrawObject paints one leaf with its composed world transforms.
	DrawObject(o *DisplayObject, world Matrix, cx ColorTransform)
	// BeginMask starts a mask definition; the objects drawn until EndMask
	// form the mask shape.
	BeginMask()
	// EndMask ends the mask definition; subsequent draws are masked.
	EndMask()
	// DisableMask pops the innermost mask.
	DisableMask()
	EndFrame()
}

// Display walks every level back to front and hands each visible leaf to r.
// It does not modify the stage.
func (s *Stage) Display(r Renderer) {
	r.BeginFrame(s.background)
	s.levels.VisitAll(func(o *DisplayObject) {
		if isRemovedDepth(o.depth) {
			return
		}
		display(r, o, IdentityMatrix, IdentityCxForm, false)
	})
	r.EndFrame()
}

// display paints o. Masks are drawn even when invisible.
func display(r Renderer, o *DisplayObject, parent Matrix, pcx ColorTransform, mask bool) {
	if o.unloaded || (!o.Visible && !mask) {
		return
	}
	world := parent.Concat(o.matrix)
	cx := pcx.Concat(o.cxform)
	if o.timeline == nil {
		r.DrawObject(o, world, cx)
		return
	}

	var masks []int // clip depths of the open masks, innermost last
	o.timeline.list.VisitAll(func(ch *DisplayObject) {
		if isRemovedDepth(ch.depth) {
			return
		}
		for len(masks) > 0 && masks[len(masks)-1] < ch.depth {
			masks = masks[:len(masks)-1]
			r.DisableMask()
		}
		if ch.isMask() {
			r.BeginMask()
			display(r, ch, world, cx, true)
			r.EndMask()
			masks = append(masks, ch.clipDepth)
			return
		}
		display(r, ch, world, cx, mask)
	})
	for range masks {
		r.DisableMask()
	}
}
