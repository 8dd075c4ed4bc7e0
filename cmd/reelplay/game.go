package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/phanxgames/reel"
	"github.com/phanxgames/reel/render"
	"go.uber.org/zap"
)

// Game implements ebiten.Game around a reel Stage.
type Game struct {
	stage  *reel.Stage
	log    *zap.Logger
	r      *render.Renderer
	shots  *render.Screenshots
	stats  *render.Overlay // nil unless debugging
	width  int
	height int

	lastX, lastY int
	keys         []ebiten.Key
}

func newGame(stage *reel.Stage, log *zap.Logger, shotDir string, debug bool) *Game {
	g := &Game{
		stage: stage,
		log:   log,
		r:     render.New(),
		shots: &render.Screenshots{Dir: shotDir},
		lastX: -1,
		lastY: -1,
	}
	if debug {
		g.stats = render.NewOverlay()
	}
	return g
}

var mouseButtons = [...]struct {
	eb   ebiten.MouseButton
	reel reel.MouseButtons
}{
	{ebiten.MouseButtonLeft, reel.ButtonLeft},
	{ebiten.MouseButtonRight, reel.ButtonRight},
	{ebiten.MouseButtonMiddle, reel.ButtonMiddle},
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.shots.Queue("manual")
	}
	g.pollInput()
	g.stage.Advance()
	if g.stats != nil {
		g.stats.Update(1/float64(ebiten.TPS()), g.stage, g.r.Drawn())
	}
	return nil
}

// pollInput forwards pointer and key transitions to the stage.
func (g *Game) pollInput() {
	mx, my := ebiten.CursorPosition()
	if mx != g.lastX || my != g.lastY {
		g.lastX, g.lastY = mx, my
		g.stage.NotifyMouseMove(float64(mx), float64(my))
	}
	for _, b := range mouseButtons {
		switch {
		case inpututil.IsMouseButtonJustPressed(b.eb):
			g.stage.NotifyMouseButton(b.reel, true)
		case inpututil.IsMouseButtonJustReleased(b.eb):
			g.stage.NotifyMouseButton(b.reel, false)
		}
	}

	mods := modifiers()
	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		g.stage.NotifyKey(reel.Key(k), true, mods)
	}
	g.keys = inpututil.AppendJustReleasedKeys(g.keys[:0])
	for _, k := range g.keys {
		g.stage.NotifyKey(reel.Key(k), false, mods)
	}
}

func modifiers() reel.KeyModifiers {
	var m reel.KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		m |= reel.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		m |= reel.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		m |= reel.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		m |= reel.ModMeta
	}
	return m
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.r.Draw(screen, g.stage)
	g.stage.ClearRedraw()
	paths, err := g.shots.Flush(screen)
	if err != nil {
		g.log.Warn("screenshot failed", zap.Error(err))
	}
	for _, p := range paths {
		g.log.Info("screenshot", zap.String("path", p))
	}
	// Drawn after the flush so screenshots never include it.
	if g.stats != nil {
		g.stats.Draw(screen)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
