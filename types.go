package reel

import "math"

// RGBA represents a color with components in [0, 1]. Not premultiplied.
type RGBA struct {
	R, G, B, A float64
}

// ColorWhite is the default fill.
var ColorWhite = RGBA{1, 1, 1, 1}

// Vec2 is a 2D vector used for positions and offsets.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Clamp returns the point inside r closest to (x, y).
func (r Rect) Clamp(x, y float64) (float64, float64) {
	return math.Min(math.Max(x, r.X), r.X+r.Width),
		math.Min(math.Max(y, r.Y), r.Y+r.Height)
}

// Union returns the smallest rectangle enclosing both r and other. A
// zero-sized r is treated as empty.
func (r Rect) Union(other Rect) Rect {
	if r.Width == 0 && r.Height == 0 {
		return other
	}
	if other.Width == 0 && other.Height == 0 {
		return r
	}
	x0 := math.Min(r.X, other.X)
	y0 := math.Min(r.Y, other.Y)
	x1 := math.Max(r.X+r.Width, other.X+other.Width)
	y1 := math.Max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// BlendMode selects a compositing operation for a display object.
type BlendMode uint8

const (
	BlendNormal     BlendMode = iota // source-over
	BlendLayer                       // composite as an isolated group
	BlendMultiply                    // source * destination; only darkens
	BlendScreen                      // 1 - (1-src)*(1-dst); only brightens
	BlendLighten                     // per-channel max
	BlendDarken                      // per-channel min
	BlendDifference                  // |src - dst|
	BlendAdd                         // additive
	BlendSubtract                    // dst - src
	BlendInvert                      // invert destination
	BlendAlpha                       // apply source alpha to the parent layer
	BlendErase                       // destination-out
	BlendOverlay                     // multiply or screen by destination
	BlendHardLight                   // multiply or screen by source
)

// ObjectKind distinguishes the behavior of a DisplayObject.
type ObjectKind uint8

const (
	KindShape  ObjectKind = iota // static vector shape
	KindText                     // text field
	KindBitmap                   // bitmap fill
	KindButton                   // button character
	KindClip                     // nested timeline
)

// String returns the kind name used in logs.
func (k ObjectKind) String() string {
	switch k {
	case KindShape:
		return "shape"
	case KindText:
		return "text"
	case KindBitmap:
		return "bitmap"
	case KindButton:
		return "button"
	case KindClip:
		return "clip"
	default:
		return "unknown"
	}
}

// referenceable reports whether objects of this kind keep their identity
// across a replace tag (they are moved instead).
func (k ObjectKind) referenceable() bool {
	return k == KindClip || k == KindButton || k == KindText
}

// EventKind identifies a clip event or button event a DisplayObject can
// carry a handler for.
type EventKind uint8

const (
	EventLoad           EventKind = iota // object placed and constructed
	EventUnload                          // object removed from its display list
	EventEnterFrame                      // once per stage tick
	EventInitialize                      // before construction
	EventConstruct                       // construction
	EventPress                           // button pressed over the object
	EventRelease                         // button released over the object
	EventReleaseOutside                  // button released after leaving the object
	EventRollOver                        // pointer entered the object
	EventRollOut                         // pointer left the object
	EventDragOver                        // pointer re-entered while pressed
	EventDragOut                         // pointer left while pressed
	EventSetFocus                        // object gained input focus
	EventKillFocus                       // object lost input focus
	EventMouseDown                       // listener: any button pressed
	EventMouseUp                         // listener: any button released
	EventMouseMove                       // listener: pointer moved
	EventKeyDown                         // listener: key pressed
	EventKeyUp                           // listener: key released
	EventData                            // external data arrived
	numEventKinds
)

var eventNames = [numEventKinds]string{
	"load", "unload", "enterFrame", "initialize", "construct",
	"press", "release", "releaseOutside", "rollOver", "rollOut",
	"dragOver", "dragOut", "setFocus", "killFocus",
	"mouseDown", "mouseUp", "mouseMove", "keyDown", "keyUp", "data",
}

// String returns the handler name of the event (e.g. "enterFrame").
func (k EventKind) String() string {
	if k < numEventKinds {
		return eventNames[k]
	}
	return "unknown"
}

// ParseEventKind maps a handler name back to its EventKind.
func ParseEventKind(name string) (EventKind, bool) {
	for i, n := range eventNames {
		if n == name {
			return EventKind(i), true
		}
	}
	return 0, false
}

// IsButtonEvent reports whether the event is produced by the button state
// machine.
func (k EventKind) IsButtonEvent() bool {
	return k >= EventPress && k <= EventDragOut
}

// IsMouseEvent reports whether the event is delivered to mouse listeners.
func (k EventKind) IsMouseEvent() bool {
	return k >= EventMouseDown && k <= EventMouseMove
}

// IsKeyEvent reports whether the event is delivered to key listeners.
func (k EventKind) IsKeyEvent() bool {
	return k == EventKeyDown || k == EventKeyUp
}

// PlayState is the play/stop state of a Timeline.
type PlayState uint8

const (
	PlayStatePlay PlayState = iota // advances every tick
	PlayStateStop                  // cursor frozen
)

// MouseButtons is a bitmask of pressed pointer buttons.
type MouseButtons uint8

const (
	ButtonLeft   MouseButtons = 1 << iota // primary (left) mouse button
	ButtonRight                           // secondary (right) mouse button
	ButtonMiddle                          // middle mouse button
)

// Key is a host key code. The core does not interpret it beyond tracking
// which keys are held.
type Key int

// KeyModifiers is a bitmask of keyboard modifier keys.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)
