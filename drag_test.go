package reel

import "testing"

func dragStage(t *testing.T) (*Stage, *Timeline) {
	t.Helper()
	s, _ := newTestStage(t)
	return s, playRoot(t, s, newTestDef(1).shape(1, box(10, 10)))
}

func TestDragLockCenter(t *testing.T) {
	s, root := dragStage(t)
	o := root.AttachChild(1, "o", 0)

	s.StartDrag(o, true, nil)
	s.NotifyMouseMove(30, 40)
	s.Advance()
	if o.X() != 30 || o.Y() != 40 {
		t.Errorf("position = (%v, %v), want (30, 40)", o.X(), o.Y())
	}
	if o.AcceptsAnimMoves() {
		t.Error("dragged object still accepts timeline moves")
	}
}

func TestDragKeepsGrabOffset(t *testing.T) {
	s, root := dragStage(t)
	o := root.AttachChild(1, "o", 0)
	o.SetPosition(10, 10)
	s.NotifyMouseMove(15, 15)

	s.StartDrag(o, false, nil)
	s.NotifyMouseMove(50, 50)
	s.Advance()
	if o.X() != 45 || o.Y() != 45 {
		t.Errorf("position = (%v, %v), want (45, 45)", o.X(), o.Y())
	}
}

func TestDragConstrainedToBounds(t *testing.T) {
	s, root := dragStage(t)
	o := root.AttachChild(1, "o", 0)

	s.StartDrag(o, true, &Rect{Width: 20, Height: 20})
	s.NotifyMouseMove(100, 5)
	s.Advance()
	if o.X() != 20 || o.Y() != 5 {
		t.Errorf("position = (%v, %v), want (20, 5)", o.X(), o.Y())
	}
}

func TestDragInTransformedParent(t *testing.T) {
	s, root := dragStage(t)
	holder := root.CreateEmptyChild("holder", 0)
	holder.SetPosition(100, 0)
	o := holder.Timeline().AttachChild(1, "inner", 0)

	s.StartDrag(o, true, nil)
	s.NotifyMouseMove(130, 10)
	s.Advance()
	if o.X() != 30 || o.Y() != 10 {
		t.Errorf("local position = (%v, %v), want (30, 10)", o.X(), o.Y())
	}
}

func TestDropTargetSkipsDraggedObject(t *testing.T) {
	s, root := dragStage(t)
	below := root.AttachChild(1, "below", 1)
	dragged := root.AttachChild(1, "dragged", 2)

	s.StartDrag(dragged, true, nil)
	s.NotifyMouseMove(5, 5)
	if s.DropTarget() != below {
		t.Errorf("DropTarget = %v, want the object under the dragged one", s.DropTarget())
	}
	if s.Dragging() != dragged {
		t.Error("Dragging returned the wrong object")
	}
}

func TestStopDrag(t *testing.T) {
	s, root := dragStage(t)
	o := root.AttachChild(1, "o", 0)
	s.StartDrag(o, true, nil)
	s.StopDrag()
	s.NotifyMouseMove(30, 30)
	s.Advance()
	if s.Dragging() != nil || o.X() != 0 {
		t.Error("object moved after StopDrag")
	}
}

func TestDragEndsWhenObjectUnloads(t *testing.T) {
	s, root := dragStage(t)
	o := root.AttachChild(1, "o", 0)
	s.StartDrag(o, true, nil)
	root.RemoveChild(o)
	s.Advance()
	if s.Dragging() != nil {
		t.Error("drag of an unloaded object kept running")
	}
}
