package script

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/phanxgames/reel"
	"github.com/phanxgames/reel/movie"
)

// TestMenuExample plays examples/menu.yaml with its shared scripts.
func TestMenuExample(t *testing.T) {
	dir := filepath.Join("..", "examples")
	if _, err := os.Stat(filepath.Join(dir, "menu.yaml")); err != nil {
		t.Skip("examples not present")
	}
	h := newHarness(t, Options{Timeout: time.Second})
	if err := h.engine.LoadDir(filepath.Join(dir, "scripts")); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	def, err := movie.Load(filepath.Join(dir, "menu.yaml"), h.engine)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.stage.SetLoader(movie.FileLoader{Root: dir, Compiler: h.engine})
	root := h.stage.NewMovie(def)
	h.stage.SetRootLevel(root)

	h.stage.Advance()
	if h.stage.Level(1) == nil {
		t.Fatal("badge level not loaded")
	}
	if !slices.Contains(h.traces(), "badge on _level1") {
		t.Errorf("traces = %q", h.traces())
	}

	h.stage.NotifyMouseMove(240, 198)
	h.stage.NotifyMouseButton(reel.ButtonLeft, true)
	h.stage.NotifyMouseButton(reel.ButtonLeft, false)
	h.stage.DrainActionQueue()

	if !slices.Contains(h.traces(), "start pressed 1") {
		t.Errorf("traces = %q", h.traces())
	}
	if root.CurrentFrame() != 1 {
		t.Fatalf("frame = %d, want the play label", root.CurrentFrame())
	}
	if root.ChildByName("start") != nil || root.ChildByName("token") == nil {
		t.Error("play screen not built")
	}

	h.clock.Advance(500 * time.Millisecond)
	h.stage.Advance()
	if !slices.Contains(h.traces(), "clock 500") {
		t.Errorf("traces = %q", h.traces())
	}
}
