package script

import (
	"math"
	"strings"
	"time"

	"github.com/phanxgames/reel"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const objectType = "reel.object"

// --- Object wrapping ---

func (e *Engine) registerObjectType() {
	L := e.vm
	mt := L.NewTypeMetatable(objectType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"play":                 e.method(objPlay),
		"stop":                 e.method(objStop),
		"gotoAndPlay":          e.method(objGotoAndPlay),
		"gotoAndStop":          e.method(objGotoAndStop),
		"nextFrame":            e.method(objNextFrame),
		"prevFrame":            e.method(objPrevFrame),
		"currentFrame":         e.method(objCurrentFrame),
		"totalFrames":          e.method(objTotalFrames),
		"callFrame":            e.method(objCallFrame),
		"getDepth":             e.method(objGetDepth),
		"swapDepths":           e.method(objSwapDepths),
		"removeMovieClip":      e.method(objRemove),
		"attachMovie":          e.method(e.objAttach),
		"createEmptyMovieClip": e.method(e.objCreateEmpty),
		"duplicateMovieClip":   e.method(e.objDuplicate),
		"getNextHighestDepth":  e.method(objNextHighestDepth),
		"getChild":             e.method(e.objGetChild),
		"name":                 e.method(objName),
		"parent":               e.method(e.objParent),
		"path":                 e.method(objPath),
		"x":                    e.method(objX),
		"y":                    e.method(objY),
		"setPosition":          e.method(objSetPosition),
		"setScale":             e.method(objSetScale),
		"setRotation":          e.method(objSetRotation),
		"alpha":                e.method(objAlpha),
		"setAlpha":             e.method(objSetAlpha),
		"visible":              e.method(objVisible),
		"setVisible":           e.method(objSetVisible),
		"startDrag":            e.method(objStartDrag),
		"stopDrag":             e.method(objStopDrag),
		"on":                   e.method(e.objOn),
	}))
	L.SetField(mt, "__eq", L.NewFunction(objEq))
	L.SetField(mt, "__tostring", L.NewFunction(objToString))
}

// wrap returns a userdata for o, or nil. Two wraps of the same object
// compare equal.
func (e *Engine) wrap(o *reel.DisplayObject) lua.LValue {
	if o == nil {
		return lua.LNil
	}
	ud := e.vm.NewUserData()
	ud.Value = o
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(objectType))
	return ud
}

func checkObject(L *lua.LState, n int) *reel.DisplayObject {
	ud := L.CheckUserData(n)
	o, ok := ud.Value.(*reel.DisplayObject)
	if !ok {
		L.ArgError(n, "display object expected")
	}
	return o
}

func optObject(L *lua.LState, n int) *reel.DisplayObject {
	if L.Get(n) == lua.LNil {
		return nil
	}
	return checkObject(L, n)
}

// method adapts fn to a Lua method. Calls on destroyed objects do nothing
// and return nil.
func (e *Engine) method(fn func(L *lua.LState, o *reel.DisplayObject) int) lua.LGFunction {
	return func(L *lua.LState) int {
		o := checkObject(L, 1)
		if o.IsDestroyed() {
			L.Push(lua.LNil)
			return 1
		}
		return fn(L, o)
	}
}

func checkTimeline(L *lua.LState, o *reel.DisplayObject) *reel.Timeline {
	t := o.Timeline()
	if t == nil {
		L.RaiseError("%s is not a clip", o.Path())
	}
	return t
}

func parentTimeline(L *lua.LState, o *reel.DisplayObject) *reel.Timeline {
	if o.Parent == nil {
		L.RaiseError("%s has no parent clip", o.Path())
	}
	return checkTimeline(L, o.Parent)
}

// frameArg reads a 1-based frame number or a label.
func frameArg(L *lua.LState, t *reel.Timeline, n int) (int, bool) {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		return int(v) - 1, true
	case lua.LString:
		return t.ResolveFrame(string(v))
	}
	L.ArgError(n, "frame number or label expected")
	return 0, false
}

// --- Timeline control ---

func objPlay(L *lua.LState, o *reel.DisplayObject) int {
	checkTimeline(L, o).Play()
	return 0
}

func objStop(L *lua.LState, o *reel.DisplayObject) int {
	checkTimeline(L, o).Stop()
	return 0
}

func objGotoAndPlay(L *lua.LState, o *reel.DisplayObject) int {
	t := checkTimeline(L, o)
	if f, ok := frameArg(L, t, 2); ok {
		t.GotoAndPlay(f)
	}
	return 0
}

func objGotoAndStop(L *lua.LState, o *reel.DisplayObject) int {
	t := checkTimeline(L, o)
	if f, ok := frameArg(L, t, 2); ok {
		t.GotoAndStop(f)
	}
	return 0
}

func objNextFrame(L *lua.LState, o *reel.DisplayObject) int {
	checkTimeline(L, o).NextFrame()
	return 0
}

func objPrevFrame(L *lua.LState, o *reel.DisplayObject) int {
	checkTimeline(L, o).PrevFrame()
	return 0
}

func objCurrentFrame(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LNumber(checkTimeline(L, o).CurrentFrame() + 1))
	return 1
}

func objTotalFrames(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LNumber(checkTimeline(L, o).FrameCount()))
	return 1
}

func objCallFrame(L *lua.LState, o *reel.DisplayObject) int {
	t := checkTimeline(L, o)
	if f, ok := frameArg(L, t, 2); ok {
		t.CallFrame(f)
	}
	return 0
}

// --- Display list ---

func objGetDepth(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LNumber(o.Depth()))
	return 1
}

func objSwapDepths(L *lua.LState, o *reel.DisplayObject) int {
	t := parentTimeline(L, o)
	L.Push(lua.LBool(t.SwapChildDepth(o, L.CheckInt(2))))
	return 1
}

func objRemove(L *lua.LState, o *reel.DisplayObject) int {
	t := parentTimeline(L, o)
	L.Push(lua.LBool(t.RemoveChild(o)))
	return 1
}

func (e *Engine) objAttach(L *lua.LState, o *reel.DisplayObject) int {
	t := checkTimeline(L, o)
	L.Push(e.wrap(t.AttachChild(L.CheckInt(2), L.CheckString(3), L.CheckInt(4))))
	return 1
}

func (e *Engine) objCreateEmpty(L *lua.LState, o *reel.DisplayObject) int {
	t := checkTimeline(L, o)
	L.Push(e.wrap(t.CreateEmptyChild(L.CheckString(2), L.CheckInt(3))))
	return 1
}

func (e *Engine) objDuplicate(L *lua.LState, o *reel.DisplayObject) int {
	t := parentTimeline(L, o)
	L.Push(e.wrap(t.Duplicate(o, L.CheckString(2), L.CheckInt(3))))
	return 1
}

func objNextHighestDepth(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LNumber(checkTimeline(L, o).DisplayList().NextHighestDepth()))
	return 1
}

func (e *Engine) objGetChild(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(e.wrap(checkTimeline(L, o).ChildByName(L.CheckString(2))))
	return 1
}

// --- Properties ---

func objName(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LString(o.Name))
	return 1
}

func (e *Engine) objParent(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(e.wrap(o.Parent))
	return 1
}

func objPath(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LString(o.Path()))
	return 1
}

func objX(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LNumber(o.X()))
	return 1
}

func objY(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LNumber(o.Y()))
	return 1
}

func objSetPosition(L *lua.LState, o *reel.DisplayObject) int {
	o.SetPosition(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	return 0
}

func objSetScale(L *lua.LState, o *reel.DisplayObject) int {
	sx := float64(L.CheckNumber(2))
	o.SetScale(sx, float64(L.OptNumber(3, lua.LNumber(sx))))
	return 0
}

// setRotation takes degrees.
func objSetRotation(L *lua.LState, o *reel.DisplayObject) int {
	o.SetRotation(float64(L.CheckNumber(2)) * math.Pi / 180)
	return 0
}

func objAlpha(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LNumber(o.Alpha()))
	return 1
}

func objSetAlpha(L *lua.LState, o *reel.DisplayObject) int {
	o.SetAlpha(float64(L.CheckNumber(2)))
	return 0
}

func objVisible(L *lua.LState, o *reel.DisplayObject) int {
	L.Push(lua.LBool(o.Visible))
	return 1
}

func objSetVisible(L *lua.LState, o *reel.DisplayObject) int {
	o.SetVisible(L.ToBool(2))
	return 0
}

// --- Interaction ---

// startDrag(lockCenter[, x, y, w, h])
func objStartDrag(L *lua.LState, o *reel.DisplayObject) int {
	var bounds *reel.Rect
	if L.GetTop() >= 6 {
		bounds = &reel.Rect{
			X:      float64(L.CheckNumber(3)),
			Y:      float64(L.CheckNumber(4)),
			Width:  float64(L.CheckNumber(5)),
			Height: float64(L.CheckNumber(6)),
		}
	}
	o.Stage().StartDrag(o, L.OptBool(2, false), bounds)
	return 0
}

func objStopDrag(L *lua.LState, o *reel.DisplayObject) int {
	if o.Stage().Dragging() == o {
		o.Stage().StopDrag()
	}
	return 0
}

// on(event, fn) attaches fn as the handler for event; nil removes it.
func (e *Engine) objOn(L *lua.LState, o *reel.DisplayObject) int {
	name := L.CheckString(2)
	kind, ok := reel.ParseEventKind(name)
	if !ok {
		L.ArgError(2, "unknown event "+name)
	}
	if L.Get(3) == lua.LNil {
		o.SetHandler(kind, nil)
		return 0
	}
	o.SetHandler(kind, e.funcCode(o.Path()+":"+name, L.CheckFunction(3)))
	return 0
}

func objEq(L *lua.LState) int {
	a, _ := L.CheckUserData(1).Value.(*reel.DisplayObject)
	b, _ := L.CheckUserData(2).Value.(*reel.DisplayObject)
	L.Push(lua.LBool(a == b))
	return 1
}

func objToString(L *lua.LState) int {
	L.Push(lua.LString(checkObject(L, 1).Path()))
	return 1
}

// --- Globals ---

func (e *Engine) registerGlobals() {
	for name, fn := range map[string]lua.LGFunction{
		"trace":          e.trace,
		"setInterval":    e.setInterval,
		"setTimeout":     e.setTimeout,
		"clearInterval":  e.clearInterval,
		"loadMovieNum":   e.loadMovieNum,
		"unloadMovieNum": e.unloadMovieNum,
		"level":          e.level,
		"root":           e.root,
		"getTimer":       e.getTimer,
		"isKeyDown":      e.isKeyDown,
		"setFocus":       e.setFocus,
	} {
		e.vm.SetGlobal(name, e.vm.NewFunction(fn))
	}
}

func (e *Engine) trace(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	e.log.Info("trace", zap.String("msg", strings.Join(parts, " ")))
	return 0
}

func (e *Engine) schedule(L *lua.LState, once bool) int {
	fn := L.CheckFunction(1)
	d := time.Duration(L.CheckNumber(2) * lua.LNumber(time.Millisecond))
	target := optObject(L, 3)
	code := e.funcCode("interval", fn)
	var id int
	if once {
		id = e.stage.SetTimeout(code, target, d)
	} else {
		id = e.stage.SetInterval(code, target, d)
	}
	L.Push(lua.LNumber(id))
	return 1
}

// setInterval(fn, ms[, target])
func (e *Engine) setInterval(L *lua.LState) int { return e.schedule(L, false) }

// setTimeout(fn, ms[, target])
func (e *Engine) setTimeout(L *lua.LState) int { return e.schedule(L, true) }

func (e *Engine) clearInterval(L *lua.LState) int {
	L.Push(lua.LBool(e.stage.CancelInterval(L.CheckInt(1))))
	return 1
}

func (e *Engine) loadMovieNum(L *lua.LState) int {
	e.stage.LoadLevel(L.CheckString(1), L.CheckInt(2))
	return 0
}

func (e *Engine) unloadMovieNum(L *lua.LState) int {
	L.Push(lua.LBool(e.stage.DropLevel(L.CheckInt(1))))
	return 1
}

func (e *Engine) level(L *lua.LState) int {
	t := e.stage.Level(L.CheckInt(1))
	if t == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.wrap(t.Object()))
	return 1
}

func (e *Engine) root(L *lua.LState) int {
	t := e.stage.RootMovie()
	if t == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.wrap(t.Object()))
	return 1
}

// getTimer returns milliseconds on the stage clock.
func (e *Engine) getTimer(L *lua.LState) int {
	L.Push(lua.LNumber(e.stage.Clock().Now().Milliseconds()))
	return 1
}

func (e *Engine) isKeyDown(L *lua.LState) int {
	L.Push(lua.LBool(e.stage.IsKeyDown(reel.Key(L.CheckInt(1)))))
	return 1
}

func (e *Engine) setFocus(L *lua.LState) int {
	L.Push(lua.LBool(e.stage.SetFocus(optObject(L, 1))))
	return 1
}
