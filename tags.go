package reel

// Definition is the parsed, read-only description of a timeline: its frames,
// their control tags and the character dictionary. The core never decodes
// container data itself; it consumes a Definition.
type Definition interface {
	// FrameCount is the total number of frames.
	FrameCount() int
	// LoadedFrames is the number of frames currently available.
	LoadedFrames() int
	// FrameRate is frames per second; only meaningful for level roots.
	FrameRate() float64
	// Playlist returns the control tags of frame, in order. It may be
	// requested several times for the same frame.
	Playlist(frame int) []ControlTag
	// InitActions returns the first-time-only tags of frame, or nil.
	InitActions(frame int) []ControlTag
	// EnsureFrameLoaded blocks until frame is available and reports whether
	// it ever will be.
	EnsureFrameLoaded(frame int) bool
	// ResolveLabel maps a frame label to its index.
	ResolveLabel(name string) (int, bool)
	// AuthoritativePlacement returns the tag-placed objects that exist at
	// frame, one per depth.
	AuthoritativePlacement(frame int) []Placement
	// Character looks up a character in the dictionary.
	Character(id int) (Character, bool)
}

// Placement is one entry of an authoritative placement set.
type Placement struct {
	Depth       int
	CharacterID int
	OriginFrame int
	Ratio       int
}

// Character is a dictionary entry that can be instantiated on a display
// list.
type Character interface {
	CharacterID() int
	Kind() ObjectKind
	// Bounds is the local-space extent used for hit testing and rendering.
	Bounds() Rect
	// Fill is the solid color leaves are rendered with.
	Fill() RGBA
	// Sprite returns the nested timeline of clip characters, nil otherwise.
	Sprite() Definition
}

// TagScope selects which half of the control-tag protocol runs.
type TagScope uint8

const (
	ScopeState   TagScope = 1 << iota // display-list effects only
	ScopeActions                      // action effects only
	ScopeBoth    = ScopeState | ScopeActions
)

// ControlTag is one unit of per-frame behavior. Either method may be a
// no-op.
type ControlTag interface {
	// ExecuteState applies display-list effects (place, move, remove,
	// background color, stream sound). It must be safe to replay.
	ExecuteState(t *Timeline, dl *DisplayList)
	// ExecuteActions applies scripted effects, usually by calling
	// t.QueueAction.
	ExecuteActions(t *Timeline, dl *DisplayList)
}

// Code is an opaque executable unit: frame actions, event handlers, interval
// callbacks. Run receives the object the code executes against. Returning an
// error wrapping ErrActionLimit disables scripting for the session.
type Code interface {
	Run(target *DisplayObject) error
}

// CodeFunc adapts a function to Code.
type CodeFunc func(target *DisplayObject) error

// Run calls f(target).
func (f CodeFunc) Run(target *DisplayObject) error { return f(target) }

// PlaceAttrs carries the optional attributes of a placement or move. Nil
// fields leave the current value unchanged.
type PlaceAttrs struct {
	Matrix    *Matrix
	CxForm    *ColorTransform
	Ratio     *int
	ClipDepth *int
}

func (a PlaceAttrs) apply(o *DisplayObject) {
	if a.Matrix != nil {
		o.matrix = *a.Matrix
	}
	if a.CxForm != nil {
		o.cxform = *a.CxForm
	}
	if a.Ratio != nil {
		o.ratio = *a.Ratio
	}
	if a.ClipDepth != nil {
		o.clipDepth = *a.ClipDepth
	}
}

func (a PlaceAttrs) ratio() int {
	if a.Ratio == nil {
		return 0
	}
	return *a.Ratio
}

// PlaceRequest describes a tag-driven placement.
type PlaceRequest struct {
	CharacterID int
	Name        string
	Depth       int
	Attrs       PlaceAttrs
	// Handlers are clip event handlers attached before the object is
	// constructed.
	Handlers map[EventKind]Code
}

// Loader resolves a url to a Definition for LoadLevel.
type Loader interface {
	Load(url string) (Definition, error)
}

// SoundHandler receives sound effects requested by tags.
type SoundHandler interface {
	StartSound(id int)
	StopStreamSound(id int)
}
