// Package render draws a reel Stage with ebiten. Every leaf is painted as
// its character bounds filled with the character color; masks clip to the
// screen-space bounds of the mask shapes.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/reel"
)

// --- White pixel singleton (single-threaded, like the stage) ---

var whitePixelImage *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// Renderer implements reel.Renderer on an ebiten image.
type Renderer struct {
	// View is applied after each object's world transform, e.g. to scale
	// the movie to the window.
	View reel.Matrix

	target   *ebiten.Image
	clips    []image.Rectangle // open masks, innermost last
	maskDefs []image.Rectangle // masks being defined, innermost last
	maskSet  []bool
	op       ebiten.DrawImageOptions
	drawn    int
}

// New returns a Renderer with an identity view.
func New() *Renderer {
	return &Renderer{View: reel.IdentityMatrix}
}

// Draw paints stage onto screen.
func (r *Renderer) Draw(screen *ebiten.Image, stage *reel.Stage) {
	r.target = screen
	stage.Display(r)
	r.target = nil
}

// Drawn returns the number of leaves painted by the last Draw.
func (r *Renderer) Drawn() int { return r.drawn }

func (r *Renderer) BeginFrame(bg reel.RGBA) {
	r.clips = r.clips[:0]
	r.maskDefs = r.maskDefs[:0]
	r.maskSet = r.maskSet[:0]
	r.drawn = 0
	if r.target != nil {
		r.target.Fill(toColor(bg))
	}
}

func (r *Renderer) EndFrame() {}

// DrawObject fills the object's bounds, or adds them to the mask being
// defined.
func (r *Renderer) DrawObject(o *reel.DisplayObject, world reel.Matrix, cx reel.ColorTransform) {
	b := o.Character().Bounds()
	if b.Width <= 0 || b.Height <= 0 {
		return
	}
	m := r.View.Concat(world)

	if n := len(r.maskDefs); n > 0 {
		rect := r.clip(toRectangle(m.TransformRect(b)))
		if r.maskSet[n-1] {
			r.maskDefs[n-1] = r.maskDefs[n-1].Union(rect)
		} else {
			r.maskDefs[n-1] = rect
			r.maskSet[n-1] = true
		}
		return
	}
	if r.target == nil {
		return
	}

	c := cx.Apply(o.Character().Fill())
	if c.A <= 0 {
		return
	}

	r.op.GeoM.Reset()
	r.op.GeoM.Scale(b.Width, b.Height)
	r.op.GeoM.Translate(b.X, b.Y)
	r.op.GeoM.Concat(geoM(m))

	a := float32(c.A)
	r.op.ColorScale.Reset()
	r.op.ColorScale.Scale(float32(c.R)*a, float32(c.G)*a, float32(c.B)*a, a)
	r.op.Blend = blendFor(o.BlendMode)

	dst := r.target
	if len(r.clips) > 0 {
		clip := r.clips[len(r.clips)-1]
		if clip.Empty() {
			return
		}
		dst = dst.SubImage(clip).(*ebiten.Image)
	}
	dst.DrawImage(ensureWhitePixel(), &r.op)
	r.drawn++
}

func (r *Renderer) BeginMask() {
	r.maskDefs = append(r.maskDefs, image.Rectangle{})
	r.maskSet = append(r.maskSet, false)
}

func (r *Renderer) EndMask() {
	n := len(r.maskDefs) - 1
	rect := r.maskDefs[n]
	r.maskDefs = r.maskDefs[:n]
	r.maskSet = r.maskSet[:n]
	r.clips = append(r.clips, r.clip(rect))
}

func (r *Renderer) DisableMask() {
	if len(r.clips) > 0 {
		r.clips = r.clips[:len(r.clips)-1]
	}
}

// clip intersects rect with the innermost open mask.
func (r *Renderer) clip(rect image.Rectangle) image.Rectangle {
	if len(r.clips) == 0 {
		return rect
	}
	return rect.Intersect(r.clips[len(r.clips)-1])
}

// geoM converts a reel matrix into an ebiten.GeoM.
func geoM(m reel.Matrix) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

func toRectangle(r reel.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
}

func toColor(c reel.RGBA) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(c.R * 255)),
		G: uint8(math.Round(c.G * 255)),
		B: uint8(math.Round(c.B * 255)),
		A: uint8(math.Round(c.A * 255)),
	}
}

// blendFor maps a blend mode to an ebiten.Blend. Modes without an exact
// fixed-function equivalent fall back to source-over.
func blendFor(b reel.BlendMode) ebiten.Blend {
	switch b {
	case reel.BlendAdd:
		return ebiten.BlendLighter
	case reel.BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case reel.BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case reel.BlendLighten:
		return minMax(ebiten.BlendOperationMax)
	case reel.BlendDarken:
		return minMax(ebiten.BlendOperationMin)
	case reel.BlendSubtract:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
			BlendOperationRGB:           ebiten.BlendOperationReverseSubtract,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case reel.BlendErase:
		return ebiten.BlendDestinationOut
	default:
		return ebiten.BlendSourceOver
	}
}

func minMax(op ebiten.BlendOperation) ebiten.Blend {
	return ebiten.Blend{
		BlendFactorSourceRGB:        ebiten.BlendFactorOne,
		BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
		BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
		BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
		BlendOperationRGB:           op,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	}
}
