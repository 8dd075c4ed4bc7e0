// Command reelplay plays a YAML movie in an ebiten window, running its
// actions with Lua.
//
// Usage:
//
//	reelplay -config examples/reelplay.toml
//	reelplay -movie examples/menu.yaml -playback examples/menu_test.json
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/reel"
	"github.com/phanxgames/reel/config"
	"github.com/phanxgames/reel/movie"
	"github.com/phanxgames/reel/script"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	moviePath := flag.String("movie", "", "root movie document (overrides config)")
	playbackPath := flag.String("playback", "", "JSON playback script (overrides config)")
	shotDir := flag.String("screenshots", "screenshots", "directory for screenshots")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *moviePath != "" {
		cfg.Player.Movie = *moviePath
	}
	if *playbackPath != "" {
		cfg.Player.Playback = *playbackPath
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *shotDir); err != nil {
		logger.Fatal("reelplay", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, shotDir string) error {
	opts := reel.DefaultOptions()
	cfg.Stage.Apply(&opts)
	opts.Logger = logger
	opts.Debug = cfg.Debug
	opts.Sound = soundLog{log: logger.Named("sound")}
	stage := reel.NewStage(opts)
	defer stage.Close()

	engine := script.NewEngine(stage, logger.Named("lua"), cfg.Stage.ScriptOptions())
	defer engine.Close()
	if err := engine.LoadDir(cfg.Player.Scripts); err != nil {
		return err
	}

	def, err := movie.Load(cfg.Player.Movie, engine)
	if err != nil {
		return err
	}
	stage.SetLoader(movie.FileLoader{Root: filepath.Dir(cfg.Player.Movie), Compiler: engine})

	g := newGame(stage, logger, shotDir, cfg.Debug)
	if cfg.Player.Playback != "" {
		data, err := os.ReadFile(cfg.Player.Playback)
		if err != nil {
			return fmt.Errorf("read playback: %w", err)
		}
		pb, err := reel.LoadPlaybackScript(data)
		if err != nil {
			return fmt.Errorf("playback %s: %w", cfg.Player.Playback, err)
		}
		pb.OnScreenshot = g.shots.Queue
		stage.SetPlayback(pb)
	}

	if bg, ok := def.Background(); ok {
		stage.SetBackgroundColor(bg)
	}
	stage.SetRootLevel(stage.NewMovie(def))

	w, h := def.Size()
	if w <= 0 || h <= 0 {
		w, h = float64(cfg.Player.Width), float64(cfg.Player.Height)
	}
	g.width, g.height = int(w), int(h)

	rate := cfg.Player.FrameRate
	if rate <= 0 {
		rate = stage.FrameRate()
	}
	ebiten.SetTPS(max(1, int(math.Round(rate))))
	ebiten.SetWindowTitle(cfg.Player.Title)
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	logger.Info("playing",
		zap.String("movie", def.Name()),
		zap.Int("frames", def.FrameCount()),
		zap.Float64("fps", rate))
	// The stage, its collector and the Lua state belong to this goroutine.
	return ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{SingleThread: true})
}

// soundLog reports sound requests; reelplay has no mixer.
type soundLog struct {
	log *zap.Logger
}

func (s soundLog) StartSound(id int)      { s.log.Debug("start sound", zap.Int("id", id)) }
func (s soundLog) StopStreamSound(id int) { s.log.Debug("stop stream sound", zap.Int("id", id)) }
