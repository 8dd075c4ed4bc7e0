package reel

import (
	"time"

	"go.uber.org/zap"
)

// debugStats holds per-tick metrics. Only populated when Options.Debug is
// set.
type debugStats struct {
	tick     int
	elapsed  time.Duration
	live     int
	actions  int
	timers   int
	tracked  int
	swept    int
	disabled bool
}

// debugLog writes the stats of one tick at debug level.
func (s *Stage) debugLog(stats debugStats) {
	if !s.opts.Debug {
		return
	}
	s.log.Debug("tick",
		zap.Int("tick", stats.tick),
		zap.Duration("elapsed", stats.elapsed),
		zap.Int("live", stats.live),
		zap.Int("actions", stats.actions),
		zap.Int("timers", stats.timers),
		zap.Int("tracked", stats.tracked),
		zap.Int("swept", stats.swept),
		zap.Bool("scriptsDisabled", stats.disabled),
	)
	if stats.live > debugMaxLive {
		s.log.Warn("live timeline count over threshold",
			zap.Int("live", stats.live), zap.Int("threshold", debugMaxLive))
	}
}

// debugMaxLive warns when the live list grows past this many timelines.
const debugMaxLive = 1000

// debugCheckTreeDepth warns if o is nested deeper than the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(o *DisplayObject) {
	if o.stage == nil || !o.stage.opts.Debug {
		return
	}
	depth := 0
	for p := o; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		o.stage.log.Warn("display tree depth over threshold",
			zap.Int("depth", depth), zap.Int("threshold", debugMaxTreeDepth), zap.String("path", o.Path()))
	}
}

// LastTickStats returns the metrics of the most recent tick in debug mode.
func (s *Stage) LastTickStats() (tick int, elapsed time.Duration, actions int) {
	return s.stats.tick, s.stats.elapsed, s.stats.actions
}
