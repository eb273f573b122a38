// Package script attaches Lua behavior to arbor nodes.
//
// A script is a Lua chunk that may define any of the global functions
//
//	on_init()
//	on_update(dt)
//	on_message(msg)
//	on_pointer(event, local_x, local_y)
//
// and drives its node through the global "node" table:
//
//	node.name()                 node.position()       node.set_position(x, y)
//	node.rotation()             node.set_rotation(r)  node.scale()
//	node.set_scale(sx, sy)      node.visible()        node.set_visible(b)
//	node.destroy()
//
// log(msg) writes to the scene's logger at info level.
package script

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/phanxgames/arbor"
)

// Component runs one Lua VM on a node. Single-goroutine access only, like
// the scene it belongs to.
type Component struct {
	arbor.ComponentBase

	name   string
	vm     *lua.LState
	errors int
	last   error
}

// New compiles and runs src once so it can define its callbacks. name labels
// log entries and error messages.
func New(name string, src []byte) (*Component, error) {
	c := &Component{name: name}
	c.vm = lua.NewState()
	c.vm.SetGlobal("API_VERSION", lua.LNumber(1))
	c.vm.SetGlobal("log", c.vm.NewFunction(c.luaLog))
	c.vm.SetGlobal("node", c.nodeTable())
	if err := c.vm.DoString(string(src)); err != nil {
		c.vm.Close()
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}
	return c, nil
}

// Load reads a script file and calls New with its path as the name.
func Load(path string) (*Component, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return New(path, src)
}

// Name returns the script's label.
func (c *Component) Name() string { return c.name }

// Errors returns the number of failed callbacks and the most recent error.
func (c *Component) Errors() (int, error) { return c.errors, c.last }

// Call invokes a global Lua function with the given Go arguments. Missing
// functions are not an error. Failures are logged and returned.
func (c *Component) Call(fn string, args ...any) error {
	if c.vm == nil {
		return fmt.Errorf("script %s: released", c.name)
	}
	f := c.vm.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return nil
	}
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = toLua(c.vm, a)
	}
	err := c.vm.CallByParam(lua.P{Fn: f, NRet: 0, Protect: true}, largs...)
	if err != nil {
		c.errors++
		c.last = err
		c.logger().Error("lua callback failed",
			zap.String("script", c.name),
			zap.String("func", fn),
			zap.Error(err))
	}
	return err
}

// OnInitial implements arbor.Initializer.
func (c *Component) OnInitial() { c.Call("on_init") }

// OnUpdate implements arbor.Updater.
func (c *Component) OnUpdate(dt float64) { c.Call("on_update", dt) }

// OnMessage implements arbor.MessageHandler.
func (c *Component) OnMessage(msg any) { c.Call("on_message", msg) }

// OnPointer implements arbor.PointerListener.
func (c *Component) OnPointer(ev arbor.PointerEvent) {
	c.Call("on_pointer", ev.Type.String(), ev.LocalX, ev.LocalY)
}

// OnRelease implements arbor.Releaser and closes the VM.
func (c *Component) OnRelease() {
	if c.vm != nil {
		c.vm.Close()
		c.vm = nil
	}
}

func (c *Component) logger() *zap.Logger {
	if n := c.Node(); n != nil && n.Scene() != nil {
		return n.Scene().Logger()
	}
	return zap.NewNop()
}

func (c *Component) luaLog(L *lua.LState) int {
	c.logger().Info(L.CheckString(1), zap.String("script", c.name))
	return 0
}

// nodeTable builds the "node" global. Every function is a no-op while the
// component is detached.
func (c *Component) nodeTable() *lua.LTable {
	t := c.vm.NewTable()
	fns := map[string]lua.LGFunction{
		"name": func(L *lua.LState) int {
			n := c.Node()
			if n == nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(n.Name))
			return 1
		},
		"position": func(L *lua.LState) int {
			return pushPair(L, c.Node(), (*arbor.Node).Position)
		},
		"set_position": func(L *lua.LState) int {
			if n := c.Node(); n != nil {
				n.SetPosition(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))
			}
			return 0
		},
		"scale": func(L *lua.LState) int {
			return pushPair(L, c.Node(), (*arbor.Node).Scale)
		},
		"set_scale": func(L *lua.LState) int {
			if n := c.Node(); n != nil {
				n.SetScale(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))
			}
			return 0
		},
		"rotation": func(L *lua.LState) int {
			var r float64
			if n := c.Node(); n != nil {
				r = n.Rotation()
			}
			L.Push(lua.LNumber(r))
			return 1
		},
		"set_rotation": func(L *lua.LState) int {
			if n := c.Node(); n != nil {
				n.SetRotation(float64(L.CheckNumber(1)))
			}
			return 0
		},
		"visible": func(L *lua.LState) int {
			n := c.Node()
			L.Push(lua.LBool(n != nil && n.Visible))
			return 1
		},
		"set_visible": func(L *lua.LState) int {
			if n := c.Node(); n != nil {
				n.Visible = L.CheckBool(1)
			}
			return 0
		},
		"destroy": func(L *lua.LState) int {
			if n := c.Node(); n != nil {
				n.Destroy()
			}
			return 0
		},
	}
	for name, fn := range fns {
		t.RawSetString(name, c.vm.NewFunction(fn))
	}
	return t
}

func pushPair(L *lua.LState, n *arbor.Node, get func(*arbor.Node) (float64, float64)) int {
	var a, b float64
	if n != nil {
		a, b = get(n)
	}
	L.Push(lua.LNumber(a))
	L.Push(lua.LNumber(b))
	return 2
}

// toLua converts a Go value into a Lua value. Maps with string keys and
// slices become tables; unknown types are formatted as strings.
func toLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case int32:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint32:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case map[string]any:
		t := L.NewTable()
		for k, e := range v {
			t.RawSetString(k, toLua(L, e))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, e := range v {
			t.Append(toLua(L, e))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(v))
	}
}
