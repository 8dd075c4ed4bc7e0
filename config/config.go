// Package config loads reelplay settings from TOML and builds the zap
// logger they describe.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/phanxgames/reel"
	"github.com/phanxgames/reel/script"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Player  PlayerConfig  `toml:"player"`
	Stage   StageConfig   `toml:"stage"`
	Logging LoggingConfig `toml:"logging"`
	Debug   bool          `toml:"debug"`
}

type PlayerConfig struct {
	Movie     string  `toml:"movie"`   // root movie document
	Scripts   string  `toml:"scripts"` // directory of shared .lua files
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	FrameRate float64 `toml:"frame_rate"` // 0 uses the movie's rate
	Title     string  `toml:"title"`
	Playback  string  `toml:"playback"` // optional JSON playback script
}

type StageConfig struct {
	GCThreshold        int           `toml:"gc_threshold"`
	MaxActionsPerTick  int           `toml:"max_actions_per_tick"`
	MaxRecursion       int           `toml:"max_recursion"`
	ScriptTimeout      time.Duration `toml:"script_timeout"`
	MaxCallStack       int           `toml:"max_call_stack"`
	CaseSensitiveNames bool          `toml:"case_sensitive_names"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		Player: PlayerConfig{
			Movie:   "movie.yaml",
			Scripts: "scripts",
			Width:   550,
			Height:  400,
			Title:   "reelplay",
		},
		Stage: StageConfig{
			GCThreshold:       reel.DefaultGCThreshold,
			MaxActionsPerTick: reel.DefaultMaxActionsPerTick,
			MaxRecursion:      reel.DefaultMaxRecursion,
			ScriptTimeout:     2 * time.Second,
			MaxCallStack:      lua.CallStackSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Apply copies the stage limits onto opts.
func (c StageConfig) Apply(opts *reel.Options) {
	opts.GCThreshold = c.GCThreshold
	opts.MaxActionsPerTick = c.MaxActionsPerTick
	opts.MaxRecursion = c.MaxRecursion
	opts.CaseSensitiveNames = c.CaseSensitiveNames
}

// ScriptOptions returns the Lua engine limits.
func (c StageConfig) ScriptOptions() script.Options {
	return script.Options{
		Timeout:       c.ScriptTimeout,
		CallStackSize: c.MaxCallStack,
	}
}

// NewLogger builds a json production logger or a colored console one.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
