package reel

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 properties of a DisplayObject simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenScale,
// TweenAlpha, TweenRotation) and either call Update(dt) yourself or hand it
// to Stage.AddTween. Writes go through the scripted setters, so a tweened
// object stops following timeline moves. If the target is unloaded, the
// group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	apply  func(v [4]float64)
	target *DisplayObject
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values to the
// target.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.unloaded {
		g.Done = true
		return
	}

	var v [4]float64
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		v[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.apply(v)
	g.Done = allDone
}

// TweenPosition animates the local translation of o.
func TweenPosition(o *DisplayObject, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: o}
	g.tweens[0] = gween.New(float32(o.X()), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(o.Y()), float32(toY), duration, fn)
	g.apply = func(v [4]float64) { o.SetPosition(v[0], v[1]) }
	return g
}

// TweenScale animates the scale factors of o.
func TweenScale(o *DisplayObject, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: o}
	g.tweens[0] = gween.New(float32(o.matrix.ScaleX()), float32(toSX), duration, fn)
	g.tweens[1] = gween.New(float32(o.matrix.ScaleY()), float32(toSY), duration, fn)
	g.apply = func(v [4]float64) { o.SetScale(v[0], v[1]) }
	return g
}

// TweenAlpha animates the alpha multiplier of o.
func TweenAlpha(o *DisplayObject, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: o}
	g.tweens[0] = gween.New(float32(o.Alpha()), float32(to), duration, fn)
	g.apply = func(v [4]float64) { o.SetAlpha(v[0]) }
	return g
}

// TweenRotation animates the rotation of o, in radians.
func TweenRotation(o *DisplayObject, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: o}
	g.tweens[0] = gween.New(float32(o.matrix.Rotation()), float32(to), duration, fn)
	g.apply = func(v [4]float64) { o.SetRotation(v[0]) }
	return g
}

// AddTween runs g on every tick until it is done.
func (s *Stage) AddTween(g *TweenGroup) {
	s.tweens = append(s.tweens, g)
}

// TweenCount returns the number of running tweens.
func (s *Stage) TweenCount() int { return len(s.tweens) }

func (s *Stage) advanceTweens() {
	if len(s.tweens) == 0 {
		return
	}
	dt := float32(1 / s.FrameRate())
	n := 0
	for _, g := range s.tweens {
		g.Update(dt)
		if g.Done {
			continue
		}
		s.tweens[n] = g
		n++
	}
	clear(s.tweens[n:])
	s.tweens = s.tweens[:n]
}
