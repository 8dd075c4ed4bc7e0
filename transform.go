package reel

import "math"

// Matrix is a 2D affine matrix stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// IdentityMatrix is the identity affine matrix.
var IdentityMatrix = Matrix{1, 0, 0, 1, 0, 0}

// TranslateMatrix returns a pure translation.
func TranslateMatrix(x, y float64) Matrix {
	return Matrix{1, 0, 0, 1, x, y}
}

// ComposeMatrix builds a matrix from decomposed properties. Rotation is in
// radians. Composition order: Scale -> Rotate -> Translate(x, y).
func ComposeMatrix(x, y, scaleX, scaleY, rotation float64) Matrix {
	sin, cos := math.Sincos(rotation)
	return Matrix{
		cos * scaleX, sin * scaleX,
		-sin * scaleY, cos * scaleY,
		x, y,
	}
}

// Concat returns p * c, i.e. c applied first and then p.
func (p Matrix) Concat(c Matrix) Matrix {
	return Matrix{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Invert computes the inverse of m.
// Returns the identity matrix if m is singular (determinant ≈ 0).
func (m Matrix) Invert() Matrix {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityMatrix
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect returns the axis-aligned bounds of r after transformation.
func (m Matrix) TransformRect(r Rect) Rect {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = m.Apply(r.X, r.Y)
	xs[1], ys[1] = m.Apply(r.X+r.Width, r.Y)
	xs[2], ys[2] = m.Apply(r.X, r.Y+r.Height)
	xs[3], ys[3] = m.Apply(r.X+r.Width, r.Y+r.Height)
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ScaleX returns the horizontal scale factor.
func (m Matrix) ScaleX() float64 { return math.Hypot(m[0], m[1]) }

// ScaleY returns the vertical scale factor.
func (m Matrix) ScaleY() float64 { return math.Hypot(m[2], m[3]) }

// Rotation returns the rotation in radians.
func (m Matrix) Rotation() float64 { return math.Atan2(m[1], m[0]) }

// ColorTransform is a per-channel multiply-then-add color adjustment. Add
// terms are in [0, 1] units.
type ColorTransform struct {
	RMul, GMul, BMul, AMul float64
	RAdd, GAdd, BAdd, AAdd float64
}

// IdentityCxForm leaves colors unchanged.
var IdentityCxForm = ColorTransform{RMul: 1, GMul: 1, BMul: 1, AMul: 1}

// Concat returns the transform equivalent to applying c, then p.
func (p ColorTransform) Concat(c ColorTransform) ColorTransform {
	return ColorTransform{
		RMul: p.RMul * c.RMul, GMul: p.GMul * c.GMul,
		BMul: p.BMul * c.BMul, AMul: p.AMul * c.AMul,
		RAdd: p.RMul*c.RAdd + p.RAdd, GAdd: p.GMul*c.GAdd + p.GAdd,
		BAdd: p.BMul*c.BAdd + p.BAdd, AAdd: p.AMul*c.AAdd + p.AAdd,
	}
}

// Apply transforms c, clamping each channel to [0, 1].
func (p ColorTransform) Apply(c RGBA) RGBA {
	return RGBA{
		R: clamp01(c.R*p.RMul + p.RAdd),
		G: clamp01(c.G*p.GMul + p.GAdd),
		B: clamp01(c.B*p.BMul + p.BAdd),
		A: clamp01(c.A*p.AMul + p.AAdd),
	}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// --- World space ---

// WorldMatrix composes the local matrices from the level root down to o.
func (o *DisplayObject) WorldMatrix() Matrix {
	if o.Parent == nil {
		return o.matrix
	}
	return o.Parent.WorldMatrix().Concat(o.matrix)
}

// WorldColorTransform composes the color transforms from the level root
// down to o.
func (o *DisplayObject) WorldColorTransform() ColorTransform {
	if o.Parent == nil {
		return o.cxform
	}
	return o.Parent.WorldColorTransform().Concat(o.cxform)
}

// WorldToLocal converts a world-space point to o's local coordinate space.
func (o *DisplayObject) WorldToLocal(wx, wy float64) (lx, ly float64) {
	return o.WorldMatrix().Invert().Apply(wx, wy)
}

// LocalToWorld converts a local-space point to world space.
func (o *DisplayObject) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return o.WorldMatrix().Apply(lx, ly)
}

// --- Scripted transform properties ---
//
// The setters below are the scripted path: they flag the object as
// transformed by script, after which tag-driven moves no longer apply.

// X returns the local x translation.
func (o *DisplayObject) X() float64 { return o.matrix[4] }

// Y returns the local y translation.
func (o *DisplayObject) Y() float64 { return o.matrix[5] }

// SetPosition sets the local translation.
func (o *DisplayObject) SetPosition(x, y float64) {
	o.matrix[4] = x
	o.matrix[5] = y
	o.transformedByScript()
}

// SetScale sets the scale factors while keeping rotation and translation.
func (o *DisplayObject) SetScale(sx, sy float64) {
	o.matrix = ComposeMatrix(o.matrix[4], o.matrix[5], sx, sy, o.matrix.Rotation())
	o.transformedByScript()
}

// SetRotation sets the rotation in radians while keeping scale and
// translation.
func (o *DisplayObject) SetRotation(r float64) {
	o.matrix = ComposeMatrix(o.matrix[4], o.matrix[5], o.matrix.ScaleX(), o.matrix.ScaleY(), r)
	o.transformedByScript()
}

// Alpha returns the alpha multiplier of the color transform.
func (o *DisplayObject) Alpha() float64 { return o.cxform.AMul }

// SetAlpha sets the alpha multiplier of the color transform.
func (o *DisplayObject) SetAlpha(a float64) {
	o.cxform.AMul = a
	o.transformedByScript()
}

// SetVisible shows or hides the object. Hidden objects are neither drawn
// nor hit.
func (o *DisplayObject) SetVisible(v bool) {
	if o.Visible == v {
		return
	}
	o.Visible = v
	o.invalidate()
}

func (o *DisplayObject) transformedByScript() {
	o.scriptTransformed = true
	o.invalidate()
}
