package render

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/phanxgames/reel"
)

// Overlay prints frame rate and stage counters in the top-left corner. The
// text is refreshed about twice a second.
type Overlay struct {
	img     *ebiten.Image
	elapsed float64
	text    string
}

// NewOverlay returns an overlay large enough for its four lines.
func NewOverlay() *Overlay {
	return &Overlay{img: ebiten.NewImage(160, 64)}
}

// Update refreshes the text once enough time has passed. dt is in seconds.
func (o *Overlay) Update(dt float64, stage *reel.Stage, drawn int) {
	o.elapsed += dt
	if o.elapsed < 0.5 && o.text != "" {
		return
	}
	o.elapsed = 0
	o.text = overlayText(ebiten.ActualFPS(), ebiten.ActualTPS(), stage, drawn)

	o.img.Clear()
	// Semi-transparent background for readability
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
}

// Draw paints the overlay onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	screen.DrawImage(o.img, nil)
}

func overlayText(fps, tps float64, stage *reel.Stage, drawn int) string {
	s := fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nleaves: %d timers: %d\nobjects: %d",
		fps, tps, drawn, stage.TimerCount(), stage.Collector().Len())
	if stage.ScriptsDisabled() {
		s += " (scripts off)"
	}
	return s
}
