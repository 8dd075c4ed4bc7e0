package reel

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Matrix) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- Matrix ---

func TestComposeMatrix(t *testing.T) {
	assertMatrix(t, "identity", ComposeMatrix(0, 0, 1, 1, 0), IdentityMatrix)
	assertMatrix(t, "translation", ComposeMatrix(10, 20, 1, 1, 0), Matrix{1, 0, 0, 1, 10, 20})
	assertMatrix(t, "scale", ComposeMatrix(0, 0, 2, 3, 0), Matrix{2, 0, 0, 3, 0, 0})
	// cos(90)=0, sin(90)=1 → a=0, b=1, c=-1, d=0
	assertMatrix(t, "rot90", ComposeMatrix(0, 0, 1, 1, math.Pi/2), Matrix{0, 1, -1, 0, 0, 0})
}

func TestMatrixDecompose(t *testing.T) {
	m := ComposeMatrix(5, 6, 2, 3, math.Pi/6)
	assertNear(t, "ScaleX", m.ScaleX(), 2)
	assertNear(t, "ScaleY", m.ScaleY(), 3)
	assertNear(t, "Rotation", m.Rotation(), math.Pi/6)
}

func TestMatrixConcatAppliesChildFirst(t *testing.T) {
	parent := TranslateMatrix(100, 0)
	child := ComposeMatrix(0, 0, 2, 2, 0)
	x, y := parent.Concat(child).Apply(1, 1)
	assertNear(t, "x", x, 102)
	assertNear(t, "y", y, 2)
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := ComposeMatrix(30, -12, 1.5, 0.5, 0.7)
	assertMatrix(t, "m*inv", m.Concat(m.Invert()), IdentityMatrix)

	x, y := m.Invert().Apply(m.Apply(3, 4))
	assertNear(t, "x", x, 3)
	assertNear(t, "y", y, 4)
}

func TestMatrixInvertSingular(t *testing.T) {
	assertMatrix(t, "singular", Matrix{0, 0, 0, 0, 5, 5}.Invert(), IdentityMatrix)
}

func TestMatrixTransformRect(t *testing.T) {
	r := ComposeMatrix(10, 0, 1, 1, math.Pi/2).TransformRect(Rect{Width: 4, Height: 2})
	assertNear(t, "X", r.X, 8)
	assertNear(t, "Y", r.Y, 0)
	assertNear(t, "Width", r.Width, 2)
	assertNear(t, "Height", r.Height, 4)
}

// --- Color transform ---

func TestColorTransformApplyClamps(t *testing.T) {
	cx := ColorTransform{RMul: 2, GMul: 1, BMul: 0.5, AMul: 1, RAdd: 0, GAdd: -0.5, BAdd: 0.25}
	got := cx.Apply(RGBA{R: 0.75, G: 0.25, B: 0.5, A: 1})
	assertNear(t, "R", got.R, 1)
	assertNear(t, "G", got.G, 0)
	assertNear(t, "B", got.B, 0.5)
	assertNear(t, "A", got.A, 1)
}

func TestColorTransformConcat(t *testing.T) {
	parent := ColorTransform{RMul: 0.5, GMul: 1, BMul: 1, AMul: 0.5, RAdd: 0.1}
	child := ColorTransform{RMul: 1, GMul: 1, BMul: 1, AMul: 0.5, RAdd: 0.2}
	c := RGBA{R: 0.4, G: 1, B: 1, A: 1}

	combined := parent.Concat(child).Apply(c)
	stepwise := parent.Apply(child.Apply(c))
	assertNear(t, "R", combined.R, stepwise.R)
	assertNear(t, "A", combined.A, 0.25)
}

// --- World space ---

func TestWorldMatrixComposesParents(t *testing.T) {
	s, _ := newTestStage(t)
	root := playRoot(t, s, newTestDef(1).shape(1, box(10, 10)))
	holder := root.CreateEmptyChild("holder", 0)
	holder.SetPosition(100, 50)
	holder.SetScale(2, 2)
	o := holder.Timeline().AttachChild(1, "o", 0)
	o.SetPosition(5, 5)

	wx, wy := o.LocalToWorld(0, 0)
	assertNear(t, "wx", wx, 110)
	assertNear(t, "wy", wy, 60)

	lx, ly := o.WorldToLocal(110, 60)
	assertNear(t, "lx", lx, 0)
	assertNear(t, "ly", ly, 0)

	holder.SetAlpha(0.5)
	o.SetAlpha(0.5)
	assertNear(t, "world alpha", o.WorldColorTransform().AMul, 0.25)
}

func TestScriptedSettersKeepOtherComponents(t *testing.T) {
	s, _ := newTestStage(t)
	root := playRoot(t, s, newTestDef(1).shape(1, box(10, 10)))
	o := root.AttachChild(1, "o", 0)

	o.SetPosition(7, 8)
	o.SetScale(2, 3)
	o.SetRotation(math.Pi / 4)
	m := o.Matrix()
	assertNear(t, "x", m[4], 7)
	assertNear(t, "y", m[5], 8)
	assertNear(t, "ScaleX", m.ScaleX(), 2)
	assertNear(t, "ScaleY", m.ScaleY(), 3)
	assertNear(t, "Rotation", m.Rotation(), math.Pi/4)
}

func TestSetVisibleDoesNotBlockMoves(t *testing.T) {
	s, _ := newTestStage(t)
	root := playRoot(t, s, newTestDef(1).shape(1, box(10, 10)))
	o := root.AttachChild(1, "o", 0)
	s.ClearRedraw()

	o.SetVisible(false)
	if !o.AcceptsAnimMoves() {
		t.Error("SetVisible counted as a scripted transform")
	}
	if !s.NeedsRedraw() {
		t.Error("hiding an object did not request a redraw")
	}
}
