package reel

import (
	"encoding/json"
	"errors"
	"fmt"
)

// playbackStep is a single action in a playback script.
type playbackStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Frame  int     `json:"frame,omitempty"` // 1-based, for goto
	Key    int     `json:"key,omitempty"`
	Down   bool    `json:"down,omitempty"`
}

type playbackScript struct {
	Steps []playbackStep `json:"steps"`
}

var errEmptyPlayback = errors.New("no steps")

// Playback sequences injected input and timeline control across ticks for
// deterministic replays. Attach it to a Stage via SetPlayback.
type Playback struct {
	steps     []playbackStep
	cursor    int
	waitCount int
	done      bool

	// OnScreenshot is called for "screenshot" steps.
	OnScreenshot func(label string)
}

// LoadPlaybackScript parses a JSON playback script.
func LoadPlaybackScript(jsonData []byte) (*Playback, error) {
	var script playbackScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse playback script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse playback script: %w", errEmptyPlayback)
	}
	for i, st := range script.Steps {
		if !knownPlaybackAction(st.Action) {
			return nil, fmt.Errorf("parse playback script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Playback{steps: script.Steps}, nil
}

func knownPlaybackAction(a string) bool {
	switch a {
	case "click", "drag", "wait", "press", "release", "move", "key",
		"goto", "play", "stop", "screenshot":
		return true
	}
	return false
}

// SetPlayback attaches p to the stage. Its step runs at the start of every
// Advance.
func (s *Stage) SetPlayback(p *Playback) {
	s.playback = p
}

// Done reports whether all steps have been executed.
func (p *Playback) Done() bool {
	return p.done
}

// step advances the playback by one tick.
func (p *Playback) step(s *Stage) {
	if p.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(s.injectQueue) > 0 {
		return
	}
	if p.waitCount > 0 {
		p.waitCount--
		return
	}
	if p.cursor >= len(p.steps) {
		p.done = true
		return
	}

	st := p.steps[p.cursor]
	p.cursor++

	switch st.Action {
	case "screenshot":
		if p.OnScreenshot != nil {
			p.OnScreenshot(st.Label)
		}
	case "click":
		s.InjectClick(st.X, st.Y)
	case "press":
		s.InjectPress(st.X, st.Y)
	case "release":
		s.InjectRelease(st.X, st.Y)
	case "move":
		s.InjectMove(st.X, st.Y)
	case "drag":
		s.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, max(st.Frames, 2))
	case "key":
		s.InjectKey(Key(st.Key), st.Down)
	case "wait":
		if st.Frames > 0 {
			p.waitCount = st.Frames - 1 // this tick counts as one
		}
	case "goto", "play", "stop":
		p.control(s, st)
	}

	if p.cursor >= len(p.steps) && p.waitCount == 0 && len(s.injectQueue) == 0 {
		p.done = true
	}
}

func (p *Playback) control(s *Stage, st playbackStep) {
	root := s.rootMovie
	if root == nil {
		return
	}
	switch st.Action {
	case "play":
		root.Play()
	case "stop":
		root.Stop()
	case "goto":
		if st.Label != "" {
			root.GotoLabel(st.Label, root.PlayState() == PlayStatePlay)
			return
		}
		root.GotoFrame(st.Frame - 1)
	}
	s.DrainActionQueue()
}
