package reel

import (
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"go.uber.org/zap"
)

const (
	// DefaultMaxActionsPerTick bounds the code units executed between two
	// ticks before scripts are disabled.
	DefaultMaxActionsPerTick = 100000

	// DefaultMaxRecursion bounds nested code execution.
	DefaultMaxRecursion = 256

	defaultFrameRate = 12.0
)

// Options configures a Stage. The zero value is usable; NewStage fills in
// defaults for unset fields.
type Options struct {
	Logger *zap.Logger
	Clock  Clock
	Sound  SoundHandler
	Loader Loader
	Sink   EventSink

	// GCThreshold is the number of new registrations before a tick runs
	// the collector.
	GCThreshold       int
	MaxActionsPerTick int
	MaxRecursion      int

	// CaseSensitiveNames selects exact instance-name matching.
	CaseSensitiveNames bool

	// Debug turns scripting misuse into panics and logs per-tick stats.
	Debug bool
}

// DefaultOptions returns Options with every limit at its default.
func DefaultOptions() Options {
	return Options{
		GCThreshold:       DefaultGCThreshold,
		MaxActionsPerTick: DefaultMaxActionsPerTick,
		MaxRecursion:      DefaultMaxRecursion,
	}
}

// Stage is the process-wide root: it owns the levels, the action queue,
// the live clip list, timers, input state and the collector. A Stage is
// single-threaded; every method must be called from the goroutine that
// created it.
type Stage struct {
	opts Options
	log  *zap.Logger
	gc   *Collector

	// Levels
	levels     DisplayList
	rootMovie  *Timeline
	live       []*Timeline
	background RGBA
	dirty      bool

	// Actions
	queue           [numPriorities][]queuedAction
	processingLevel Priority
	scriptsDisabled bool
	actionCount     int
	recursion       int

	// Timers
	timers      map[int]*Timer
	lastTimerID int

	loadRequests []loadRequest

	// Input
	mouseX, mouseY float64
	buttons        MouseButtons
	mouseState     mouseButtonState
	mouseListeners []*DisplayObject
	keyListeners   []*DisplayObject
	focus          *DisplayObject
	keysDown       *bitset.BitSet
	handlers       handlerRegistry
	drag           *dragState
	dropTarget     *DisplayObject
	injectQueue    []syntheticEvent
	playback       *Playback

	tweens     []*TweenGroup
	extraRoots []Marker

	nextObjectID uint32
	ticks        int
	stats        debugStats
}

// NewStage creates an empty stage.
func NewStage(opts Options) *Stage {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = NewSystemClock()
	}
	if opts.MaxActionsPerTick <= 0 {
		opts.MaxActionsPerTick = DefaultMaxActionsPerTick
	}
	if opts.MaxRecursion <= 0 {
		opts.MaxRecursion = DefaultMaxRecursion
	}
	s := &Stage{
		opts:            opts,
		log:             opts.Logger,
		background:      ColorWhite,
		processingLevel: numPriorities,
		timers:          make(map[int]*Timer),
		keysDown:        bitset.New(256),
	}
	s.levels = DisplayList{log: s.log.Named("levels")}
	s.gc = NewCollector(s, opts.GCThreshold, s.log.Named("gc"))
	return s
}

// Logger returns the stage logger.
func (s *Stage) Logger() *zap.Logger { return s.log }

// Options returns the effective options.
func (s *Stage) Options() Options { return s.opts }

// Collector returns the stage's collector.
func (s *Stage) Collector() *Collector { return s.gc }

// Clock returns the stage's time source.
func (s *Stage) Clock() Clock { return s.opts.Clock }

// SetLoader sets the resolver used by LoadLevel.
func (s *Stage) SetLoader(l Loader) { s.opts.Loader = l }

// SetEventSink sets the receiver of button events.
func (s *Stage) SetEventSink(sink EventSink) { s.opts.Sink = sink }

// Ticks returns the number of completed Advance calls.
func (s *Stage) Ticks() int { return s.ticks }

// FrameRate returns the root movie's frame rate.
func (s *Stage) FrameRate() float64 {
	if s.rootMovie != nil {
		if r := s.rootMovie.def.FrameRate(); r > 0 {
			return r
		}
	}
	return defaultFrameRate
}

// SetBackgroundColor sets the color the stage is cleared to.
func (s *Stage) SetBackgroundColor(c RGBA) {
	if s.background != c {
		s.background = c
		s.dirty = true
	}
}

// Background returns the stage background color.
func (s *Stage) Background() RGBA { return s.background }

// StartSound forwards an event sound to the sound handler, if any.
func (s *Stage) StartSound(id int) {
	if s.opts.Sound != nil {
		s.opts.Sound.StartSound(id)
	}
}

// NeedsRedraw reports whether anything visible changed since ClearRedraw.
func (s *Stage) NeedsRedraw() bool { return s.dirty }

// ClearRedraw resets the redraw flag.
func (s *Stage) ClearRedraw() { s.dirty = false }

// AddRoot registers an additional collector root, such as a script engine.
func (s *Stage) AddRoot(m Marker) { s.extraRoots = append(s.extraRoots, m) }

// --- Tick ---

// Advance runs one stage tick: input playback, drag, every live timeline,
// pending level loads, timers, tweens and the action queue, then purges
// unloaded objects and gives the collector a chance to run. It reports
// whether a redraw is needed.
func (s *Stage) Advance() bool {
	var start time.Time
	if s.opts.Debug {
		start = time.Now()
	}
	s.actionCount = 0

	if s.playback != nil {
		s.playback.step(s)
	}
	s.processInjected()
	s.doMouseDrag()

	s.advanceLive()
	s.processLoadRequests()
	s.executeTimers()
	s.advanceTweens()
	s.DrainActionQueue()

	s.cleanup()
	swept := s.gc.Collect()
	s.ticks++

	if s.opts.Debug {
		s.stats = debugStats{
			tick:     s.ticks,
			elapsed:  time.Since(start),
			live:     len(s.live),
			actions:  s.actionCount,
			timers:   len(s.timers),
			tracked:  s.gc.Len(),
			swept:    swept,
			disabled: s.scriptsDisabled,
		}
		s.debugLog(s.stats)
	}
	return s.dirty
}

// advanceLive advances the timelines that were live when the tick began,
// newest first. Timelines created during the pass wait for the next tick.
func (s *Stage) advanceLive() {
	n := len(s.live)
	for i := n - 1; i >= 0; i-- {
		t := s.live[i]
		if t.obj.unloaded {
			continue
		}
		t.Advance()
	}
}

func (s *Stage) addLive(t *Timeline) {
	s.live = append(s.live, t)
}

// cleanup purges everything unloaded during the tick. Destroying an object
// can unload others, so it repeats until nothing is left to purge.
func (s *Stage) cleanup() {
	s.cleanupUnloadedListeners()
	if s.focus != nil && s.focus.unloaded {
		s.focus = nil
	}
	if s.dropTarget != nil && s.dropTarget.unloaded {
		s.dropTarget = nil
	}
	for {
		s.levels.RemoveUnloaded()
		var dead []*Timeline
		n := 0
		for _, t := range s.live {
			if t.obj.unloaded {
				dead = append(dead, t)
				continue
			}
			s.live[n] = t
			n++
		}
		clear(s.live[n:])
		s.live = s.live[:n]
		if len(dead) == 0 {
			return
		}
		for _, t := range dead {
			t.obj.Destroy()
		}
	}
}

// Close runs a final full collection.
func (s *Stage) Close() {
	s.StopDrag()
	s.gc.ForceCollect()
}

// --- Collector roots ---

// MarkReachableResources marks everything the stage references: levels,
// live timelines, queued actions, timers, listeners and input state.
func (s *Stage) MarkReachableResources() {
	s.levels.VisitAll(func(o *DisplayObject) { SetReachable(o) })
	for _, t := range s.live {
		SetReachable(t.obj)
	}
	for p := range s.queue {
		for _, a := range s.queue[p] {
			markCode(a.code)
			if a.target != nil {
				SetReachable(a.target)
			}
		}
	}
	for _, t := range s.timers {
		markCode(t.Code)
		if t.Target != nil {
			SetReachable(t.Target)
		}
	}
	for _, o := range s.mouseListeners {
		SetReachable(o)
	}
	for _, o := range s.keyListeners {
		SetReachable(o)
	}
	for _, o := range []*DisplayObject{
		s.focus, s.dropTarget, s.mouseState.activeEntity, s.mouseState.topmostEntity,
	} {
		if o != nil {
			SetReachable(o)
		}
	}
	if s.drag != nil {
		SetReachable(s.drag.obj)
	}
	for _, g := range s.tweens {
		if g.target != nil {
			SetReachable(g.target)
		}
	}
	for _, m := range s.extraRoots {
		m.MarkReachableResources()
	}
}

func markCode(c Code) {
	if m, ok := c.(Marker); ok {
		m.MarkReachableResources()
	}
}

// misuse reports a scripting error: a panic in debug mode, a warning
// otherwise.
func (s *Stage) misuse(msg string, fields ...zap.Field) {
	if s.opts.Debug {
		panic(fmt.Sprintf("reel debug: %s", msg))
	}
	s.log.Warn("script misuse: "+msg, fields...)
}
