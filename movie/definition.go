// Package movie loads timeline definitions from YAML documents.
//
// A document declares a root timeline (its frames) and a dictionary of
// characters; clip characters carry frames of their own. Frame actions,
// init actions and clip event handlers are source text handed to a
// Compiler.
//
//	name: intro
//	frameRate: 24
//	characters:
//	  - {id: 1, kind: shape, bounds: [0, 0, 40, 40], fill: "#ff0000"}
//	frames:
//	  - label: start
//	    tags:
//	      - place: {id: 1, depth: 1, name: box, x: 10, y: 10}
//	      - action: "this:stop()"
package movie

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/phanxgames/reel"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidDefinition wraps every structural problem found while
	// parsing a document.
	ErrInvalidDefinition = errors.New("invalid movie definition")

	// ErrUnknownCharacter reports a clip nested inside itself or a
	// reference to a character id that is not declared.
	ErrUnknownCharacter = errors.New("unknown character")

	// ErrNoCompiler is returned when a document carries code but no
	// Compiler was supplied.
	ErrNoCompiler = errors.New("document has actions but no compiler")
)

// Compiler turns action source text into executable code.
type Compiler interface {
	Compile(name, source string) (reel.Code, error)
}

type document struct {
	Name       string         `yaml:"name"`
	FrameRate  float64        `yaml:"frameRate"`
	Width      float64        `yaml:"width"`
	Height     float64        `yaml:"height"`
	Background string         `yaml:"background"`
	Loaded     *int           `yaml:"loaded"`
	Characters []characterDoc `yaml:"characters"`
	Frames     []frameDoc     `yaml:"frames"`
}

type characterDoc struct {
	ID     int        `yaml:"id"`
	Name   string     `yaml:"name"`
	Kind   string     `yaml:"kind"`
	Bounds []float64  `yaml:"bounds"`
	Fill   string     `yaml:"fill"`
	Frames []frameDoc `yaml:"frames"`
}

type frameDoc struct {
	Label string   `yaml:"label"`
	Init  string   `yaml:"init"`
	Tags  []tagDoc `yaml:"tags"`
}

type tagDoc struct {
	Place       *placeDoc `yaml:"place"`
	Move        *placeDoc `yaml:"move"`
	Replace     *placeDoc `yaml:"replace"`
	Remove      *int      `yaml:"remove"`
	Action      string    `yaml:"action"`
	Background  string    `yaml:"background"`
	StartSound  *int      `yaml:"startSound"`
	StreamSound *int      `yaml:"streamSound"`
}

type placeDoc struct {
	ID        int               `yaml:"id"`
	Depth     int               `yaml:"depth"`
	Name      string            `yaml:"name"`
	X         *float64          `yaml:"x"`
	Y         *float64          `yaml:"y"`
	ScaleX    *float64          `yaml:"scaleX"`
	ScaleY    *float64          `yaml:"scaleY"`
	Rotation  *float64          `yaml:"rotation"` // degrees
	Alpha     *float64          `yaml:"alpha"`
	Ratio     *int              `yaml:"ratio"`
	ClipDepth *int              `yaml:"clipDepth"`
	Events    map[string]string `yaml:"events"`
}

// Load reads and parses the document at path.
func Load(path string, c Compiler) (*Sprite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read movie: %w", err)
	}
	s, err := Parse(data, c)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML document into a root Sprite. c may be nil for
// documents without code.
func Parse(data []byte, c Compiler) (*Sprite, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse movie: %w", err)
	}
	if len(doc.Frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrInvalidDefinition)
	}
	if doc.FrameRate < 0 {
		return nil, fmt.Errorf("%w: negative frame rate", ErrInvalidDefinition)
	}

	p := &parser{dict: newDictionary(), compiler: c}
	for i := range doc.Characters {
		if err := p.declare(&doc.Characters[i]); err != nil {
			return nil, err
		}
	}

	root, err := p.sprite(doc.Name, doc.Frames)
	if err != nil {
		return nil, err
	}
	root.frameRate = doc.FrameRate
	root.width = doc.Width
	root.height = doc.Height
	if doc.Background != "" {
		bg, err := parseColor(doc.Background)
		if err != nil {
			return nil, fmt.Errorf("%w: background: %v", ErrInvalidDefinition, err)
		}
		root.background = &bg
	}
	if doc.Loaded != nil {
		root.SetLoadedFrames(*doc.Loaded)
	}

	// Clip frames are compiled once every character is declared, so clips
	// may reference characters declared after them.
	for i := range doc.Characters {
		cd := &doc.Characters[i]
		ch := p.dict.chars[cd.ID]
		if ch.sprite == nil {
			continue
		}
		if err := p.fill(ch.sprite, cd.Frames); err != nil {
			return nil, fmt.Errorf("character %d: %w", cd.ID, err)
		}
	}
	if err := p.checkNesting(); err != nil {
		return nil, err
	}
	return root, nil
}

// checkNesting rejects clips that end up containing themselves.
func (p *parser) checkNesting() error {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[int]int)
	var visit func(id int) error
	visit = func(id int) error {
		switch state[id] {
		case active:
			return fmt.Errorf("%w: clip %d nests itself", ErrUnknownCharacter, id)
		case done:
			return nil
		}
		state[id] = active
		ch := p.dict.chars[id]
		if ch != nil && ch.sprite != nil {
			for _, f := range ch.sprite.frames {
				for _, ct := range f.tags {
					t := ct.(*Tag)
					if t.Kind != TagPlace && t.Kind != TagReplace {
						continue
					}
					if err := visit(t.Place.CharacterID); err != nil {
						return err
					}
				}
			}
		}
		state[id] = done
		return nil
	}
	for id := range p.dict.chars {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

type parser struct {
	dict     *Dictionary
	compiler Compiler
}

func (p *parser) declare(cd *characterDoc) error {
	if _, dup := p.dict.chars[cd.ID]; dup {
		return fmt.Errorf("%w: duplicate character id %d", ErrInvalidDefinition, cd.ID)
	}
	kind, err := parseKind(cd.Kind)
	if err != nil {
		return fmt.Errorf("%w: character %d: %v", ErrInvalidDefinition, cd.ID, err)
	}
	ch := &Character{id: cd.ID, kind: kind, fill: reel.ColorWhite}
	switch len(cd.Bounds) {
	case 0:
	case 4:
		ch.bounds = reel.Rect{X: cd.Bounds[0], Y: cd.Bounds[1], Width: cd.Bounds[2], Height: cd.Bounds[3]}
	default:
		return fmt.Errorf("%w: character %d: bounds need 4 values", ErrInvalidDefinition, cd.ID)
	}
	if cd.Fill != "" {
		if ch.fill, err = parseColor(cd.Fill); err != nil {
			return fmt.Errorf("%w: character %d: %v", ErrInvalidDefinition, cd.ID, err)
		}
	}
	if kind == reel.KindClip {
		if len(cd.Frames) == 0 {
			cd.Frames = []frameDoc{{}}
		}
		name := cd.Name
		if name == "" {
			name = "character" + strconv.Itoa(cd.ID)
		}
		ch.sprite = &Sprite{name: name, dict: p.dict, frames: make([]frame, len(cd.Frames))}
	} else if len(cd.Frames) > 0 {
		return fmt.Errorf("%w: character %d: only clips have frames", ErrInvalidDefinition, cd.ID)
	}
	p.dict.chars[cd.ID] = ch
	return nil
}

func (p *parser) sprite(name string, frames []frameDoc) (*Sprite, error) {
	s := &Sprite{name: name, dict: p.dict, frames: make([]frame, len(frames))}
	if err := p.fill(s, frames); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) fill(s *Sprite, docs []frameDoc) error {
	fold := cases.Fold()
	s.labels = make(map[string]int)
	for i, fd := range docs {
		f := &s.frames[i]
		f.label = fd.Label
		if fd.Label != "" {
			key := fold.String(fd.Label)
			if _, dup := s.labels[key]; !dup {
				s.labels[key] = i
			}
		}
		if fd.Init != "" {
			code, err := p.compile(fmt.Sprintf("%s:%d:init", s.name, i+1), fd.Init)
			if err != nil {
				return err
			}
			f.init = []reel.ControlTag{&Tag{Kind: TagAction, Code: code}}
		}
		for j, td := range fd.Tags {
			t, err := p.tag(s, i, &td)
			if err != nil {
				return fmt.Errorf("frame %d tag %d: %w", i+1, j+1, err)
			}
			f.tags = append(f.tags, t)
		}
	}
	s.loaded = len(s.frames)
	return nil
}

func (p *parser) tag(s *Sprite, frame int, td *tagDoc) (*Tag, error) {
	set := 0
	for _, b := range []bool{
		td.Place != nil, td.Move != nil, td.Replace != nil, td.Remove != nil,
		td.Action != "", td.Background != "", td.StartSound != nil, td.StreamSound != nil,
	} {
		if b {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: a tag needs exactly one kind, got %d", ErrInvalidDefinition, set)
	}

	switch {
	case td.Place != nil:
		return p.placeTag(TagPlace, td.Place, s, frame)
	case td.Move != nil:
		return p.placeTag(TagMove, td.Move, s, frame)
	case td.Replace != nil:
		return p.placeTag(TagReplace, td.Replace, s, frame)
	case td.Remove != nil:
		return &Tag{Kind: TagRemove, Depth: reel.TagDepth(*td.Remove)}, nil
	case td.Action != "":
		code, err := p.compile(fmt.Sprintf("%s:%d", s.name, frame+1), td.Action)
		if err != nil {
			return nil, err
		}
		return &Tag{Kind: TagAction, Code: code}, nil
	case td.Background != "":
		c, err := parseColor(td.Background)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
		return &Tag{Kind: TagBackground, Color: c}, nil
	case td.StartSound != nil:
		return &Tag{Kind: TagStartSound, SoundID: *td.StartSound}, nil
	default:
		return &Tag{Kind: TagStreamSound, SoundID: *td.StreamSound}, nil
	}
}

func (p *parser) placeTag(kind TagKind, pd *placeDoc, s *Sprite, frame int) (*Tag, error) {
	if kind != TagMove {
		ch, ok := p.dict.chars[pd.ID]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownCharacter, pd.ID)
		}
		if ch.sprite == s {
			return nil, fmt.Errorf("%w: clip %d placed inside itself", ErrUnknownCharacter, pd.ID)
		}
	}
	req := reel.PlaceRequest{
		CharacterID: pd.ID,
		Name:        pd.Name,
		Depth:       reel.TagDepth(pd.Depth),
		Attrs:       placeAttrs(pd),
	}
	if len(pd.Events) > 0 {
		req.Handlers = make(map[reel.EventKind]reel.Code, len(pd.Events))
		for name, src := range pd.Events {
			ek, ok := reel.ParseEventKind(name)
			if !ok {
				return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidDefinition, name)
			}
			code, err := p.compile(fmt.Sprintf("%s:%d:%s", s.name, frame+1, name), src)
			if err != nil {
				return nil, err
			}
			req.Handlers[ek] = code
		}
	}
	return &Tag{Kind: kind, Place: req}, nil
}

func placeAttrs(pd *placeDoc) reel.PlaceAttrs {
	var a reel.PlaceAttrs
	if pd.X != nil || pd.Y != nil || pd.ScaleX != nil || pd.ScaleY != nil || pd.Rotation != nil {
		m := reel.ComposeMatrix(
			deref(pd.X, 0), deref(pd.Y, 0),
			deref(pd.ScaleX, 1), deref(pd.ScaleY, 1),
			deref(pd.Rotation, 0)*math.Pi/180,
		)
		a.Matrix = &m
	}
	if pd.Alpha != nil {
		cx := reel.IdentityCxForm
		cx.AMul = *pd.Alpha
		a.CxForm = &cx
	}
	if pd.Ratio != nil {
		r := *pd.Ratio
		a.Ratio = &r
	}
	if pd.ClipDepth != nil && *pd.ClipDepth > 0 {
		d := reel.TagDepth(*pd.ClipDepth)
		a.ClipDepth = &d
	}
	return a
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (p *parser) compile(name, src string) (reel.Code, error) {
	if p.compiler == nil {
		return nil, ErrNoCompiler
	}
	code, err := p.compiler.Compile(name, src)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return code, nil
}

func parseKind(s string) (reel.ObjectKind, error) {
	switch strings.ToLower(s) {
	case "shape", "":
		return reel.KindShape, nil
	case "text":
		return reel.KindText, nil
	case "bitmap":
		return reel.KindBitmap, nil
	case "button":
		return reel.KindButton, nil
	case "clip", "sprite":
		return reel.KindClip, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// parseColor accepts #rrggbb and #rrggbbaa.
func parseColor(s string) (reel.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return reel.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return reel.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return reel.RGBA{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}
