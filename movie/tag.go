package movie

import "github.com/phanxgames/reel"

// TagKind identifies the variant held by a Tag.
type TagKind uint8

const (
	TagPlace       TagKind = iota // place a character at an empty depth
	TagMove                       // update the object at a depth
	TagReplace                    // swap the character at a depth
	TagRemove                     // remove the object at a depth
	TagAction                     // queue frame actions
	TagBackground                 // set the stage background color
	TagStartSound                 // start an event sound
	TagStreamSound                // associate a streaming sound with the timeline
)

var tagNames = [...]string{
	TagPlace:       "place",
	TagMove:        "move",
	TagReplace:     "replace",
	TagRemove:      "remove",
	TagAction:      "action",
	TagBackground:  "background",
	TagStartSound:  "startSound",
	TagStreamSound: "streamSound",
}

func (k TagKind) String() string {
	if int(k) < len(tagNames) {
		return tagNames[k]
	}
	return "unknown"
}

// Tag is a control tag. Only the fields of its Kind are meaningful.
type Tag struct {
	Kind TagKind

	// Place, Move, Replace
	Place reel.PlaceRequest
	// Remove
	Depth int
	// Action
	Code reel.Code
	// Background
	Color reel.RGBA
	// StartSound, StreamSound
	SoundID int
}

// ExecuteState applies the display-list half of the tag.
func (t *Tag) ExecuteState(tl *reel.Timeline, _ *reel.DisplayList) {
	switch t.Kind {
	case TagPlace:
		tl.PlaceOrMove(t.Place)
	case TagMove:
		tl.MoveAt(t.Place.Depth, t.Place.Attrs)
	case TagReplace:
		tl.ReplaceAt(t.Place)
	case TagRemove:
		tl.RemoveAt(t.Depth)
	case TagBackground:
		tl.Stage().SetBackgroundColor(t.Color)
	case TagStreamSound:
		tl.SetStreamSoundID(t.SoundID)
	}
}

// ExecuteActions applies the scripted half of the tag.
func (t *Tag) ExecuteActions(tl *reel.Timeline, _ *reel.DisplayList) {
	switch t.Kind {
	case TagAction:
		tl.QueueAction(t.Code)
	case TagStartSound:
		tl.Stage().StartSound(t.SoundID)
	}
}
