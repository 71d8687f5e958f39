package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/eden/gameserver/internal/command"
	"github.com/eden/gameserver/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM running command scripts.
// Tick goroutine only: scripted commands execute inside the command manager.
type Engine struct {
	vm       *lua.LState
	w        *world.Service
	mgr      *command.Manager
	log      *zap.Logger
	commands []string
}

// NewEngine creates a Lua VM and loads every script under
// scriptsDir/commands. Scripts add commands with
//
//	register_command(name, function(actor, args) ... end [, usage])
func NewEngine(scriptsDir string, w *world.Service, mgr *command.Manager, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, w: w, mgr: mgr, log: log.Named("lua")}
	vm.SetGlobal("register_command", vm.NewFunction(e.registerCommand))

	if err := e.loadDir(filepath.Join(scriptsDir, "commands")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load command scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
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

// Commands returns the identifiers registered by scripts.
func (e *Engine) Commands() []string {
	return append([]string(nil), e.commands...)
}

func (e *Engine) registerCommand(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	usage := L.OptString(3, name)

	e.mgr.Register(command.Command{
		Identifier: name,
		Usage:      usage,
		Handler:    e.handler(fn),
	})
	e.commands = append(e.commands, name)
	return 0
}

func (e *Engine) handler(fn *lua.LFunction) command.Handler {
	return func(actor command.Actor, args []string) error {
		argt := e.vm.NewTable()
		for _, a := range args {
			argt.Append(lua.LString(a))
		}
		return e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, e.actorTable(actor), argt)
	}
}

// actorTable exposes the command issuer to Lua. Functions accept both
// actor.f(...) and actor:f(...) call styles.
func (e *Engine) actorTable(actor command.Actor) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(actor.Name()))
	t.RawSetString("message", e.vm.NewFunction(func(L *lua.LState) int {
		base := L.GetTop() - 1
		actor.SendNotice("%s", L.CheckString(base+1))
		return 0
	}))

	c, ok := actor.(*world.Character)
	if !ok {
		return t
	}
	pos := c.Position()
	t.RawSetString("id", lua.LNumber(c.ID()))
	t.RawSetString("map", lua.LNumber(pos.Map))
	t.RawSetString("x", lua.LNumber(pos.X))
	t.RawSetString("y", lua.LNumber(pos.Y))
	t.RawSetString("z", lua.LNumber(pos.Z))
	t.RawSetString("teleport", e.vm.NewFunction(func(L *lua.LState) int {
		base := L.GetTop() - 3
		x := float32(L.CheckNumber(base + 1))
		y := float32(L.CheckNumber(base + 2))
		z := float32(L.CheckNumber(base + 3))
		if err := e.w.MoveEntity(c, world.NewPosition(c.Position().Map, x, y, z)); err != nil {
			L.RaiseError("teleport: %s", err.Error())
		}
		return 0
	}))
	return t
}

func (e *Engine) Close() {
	e.vm.Close()
}
