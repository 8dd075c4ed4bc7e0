// Package script runs frame actions, event handlers and timer callbacks as
// Lua code on a single gopher-lua VM.
//
// Every code unit receives the display object it runs against as this:
//
//	this:gotoAndPlay("loop")
//	local box = this:attachMovie(3, "box", this:getNextHighestDepth())
//	box:on("press", function(self) self:startDrag(true) end)
package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phanxgames/reel"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Options configures an Engine.
type Options struct {
	// Timeout bounds a single top-level code unit. Zero disables it.
	Timeout time.Duration
	// CallStackSize bounds Lua call depth; lua.CallStackSize when zero.
	CallStackSize int
}

// Engine wraps a single gopher-lua VM bound to a Stage.
// Single-goroutine access only, like the Stage itself.
type Engine struct {
	vm    *lua.LState
	stage *reel.Stage
	log   *zap.Logger
	opts  Options
	depth int
	ctx   context.Context
}

// NewEngine creates a Lua engine for stage and registers it as a collector
// root, so objects held by Lua globals stay alive.
func NewEngine(stage *reel.Stage, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		CallStackSize: opts.CallStackSize,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, stage: stage, log: log, opts: opts}
	e.registerObjectType()
	e.registerGlobals()
	stage.AddRoot(e)
	return e
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// LoadDir runs every .lua file in dir, in name order, as shared library
// code. A missing directory is not an error.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs src at the top level.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

// Global returns a Lua global.
func (e *Engine) Global(name string) lua.LValue {
	return e.vm.GetGlobal(name)
}

// Compile turns src into a code unit. Inside src, this is the target
// object. It implements movie.Compiler.
func (e *Engine) Compile(name, src string) (reel.Code, error) {
	// Same line as src keeps error line numbers intact.
	fn, err := e.vm.Load(strings.NewReader("local this = ...; "+src), name)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &Chunk{engine: e, name: name, fn: fn}, nil
}

// Chunk is compiled Lua code or a Lua function value. It implements
// reel.Code.
type Chunk struct {
	engine *Engine
	name   string
	fn     *lua.LFunction
}

// Run calls the code with target as its first argument.
func (c *Chunk) Run(target *reel.DisplayObject) error {
	return c.engine.call(c.name, c.fn, target)
}

// MarkReachableResources marks display objects captured by the function.
func (c *Chunk) MarkReachableResources() {
	newMarker().value(c.fn)
}

func (e *Engine) funcCode(name string, fn *lua.LFunction) *Chunk {
	return &Chunk{engine: e, name: name, fn: fn}
}

// call runs fn with the action limits mapped to reel.ErrActionLimit.
func (e *Engine) call(name string, fn *lua.LFunction, target *reel.DisplayObject) error {
	var cancel context.CancelFunc
	if e.depth == 0 && e.opts.Timeout > 0 {
		e.ctx, cancel = context.WithTimeout(context.Background(), e.opts.Timeout)
		e.vm.SetContext(e.ctx)
	}
	e.depth++
	err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, e.wrap(target))
	e.depth--

	timedOut := false
	if cancel != nil {
		timedOut = e.ctx.Err() != nil
		e.vm.RemoveContext()
		cancel()
		e.ctx = nil
	} else if e.ctx != nil {
		timedOut = e.ctx.Err() != nil
	}

	if err == nil {
		return nil
	}
	if timedOut {
		return fmt.Errorf("%s: timed out: %w", name, reel.ErrActionLimit)
	}
	if strings.Contains(err.Error(), "overflow") {
		return fmt.Errorf("%s: %v: %w", name, err, reel.ErrActionLimit)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// MarkReachableResources marks display objects reachable from Lua globals.
func (e *Engine) MarkReachableResources() {
	newMarker().value(e.vm.G.Global)
}

// marker walks Lua values once per collection, marking wrapped objects.
type marker struct {
	seen map[lua.LValue]struct{}
}

func newMarker() *marker {
	return &marker{seen: make(map[lua.LValue]struct{})}
}

func (m *marker) value(v lua.LValue) {
	switch v := v.(type) {
	case *lua.LTable:
		if m.visit(v) {
			v.ForEach(func(k, val lua.LValue) {
				m.value(k)
				m.value(val)
			})
			if v.Metatable != nil {
				m.value(v.Metatable)
			}
		}
	case *lua.LFunction:
		if m.visit(v) {
			for _, uv := range v.Upvalues {
				if uv != nil {
					m.value(uv.Value())
				}
			}
		}
	case *lua.LUserData:
		if o, ok := v.Value.(*reel.DisplayObject); ok {
			reel.SetReachable(o)
		}
	}
}

func (m *marker) visit(v lua.LValue) bool {
	if _, ok := m.seen[v]; ok {
		return false
	}
	m.seen[v] = struct{}{}
	return true
}
