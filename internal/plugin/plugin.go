// Package plugin loads Lua files that register console commands.
//
// Scripts run in a sandboxed state: only the base, table, string and math
// libraries are open, so plugins cannot touch the file system or spawn
// processes. A script calls conch.command(syntax, description, fn) once per
// command; the collected registrations are handed to the console.
//
// Inside a handler, conch.invalid_syntax, conch.invalid_arg and
// conch.invalid_command reject the input with a diagnostic that folds into
// the cycle's ranked output, exactly like a rejection from a Go handler.
package plugin

import (
	"fmt"
	"io"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/Jajasek/conch/internal/console"
	"github.com/Jajasek/conch/internal/dispatch"
	"github.com/Jajasek/conch/internal/logging"
	"github.com/Jajasek/conch/internal/syntax"
)

// Runtime owns one sandboxed Lua state shared by every loaded plugin.
//
// gopher-lua states are not goroutine-safe; the mutex serializes handler
// calls the same way the resolver serializes cycles.
type Runtime struct {
	mu      sync.Mutex
	state   *lua.LState
	out     io.Writer
	log     *logging.Logger
	regs    []console.Registration
	current *dispatch.Context
}

// NewRuntime creates a sandboxed runtime. Script output written through
// conch.print outside a dispatch cycle goes to out.
func NewRuntime(out io.Writer, log *logging.Logger) *Runtime {
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = logging.Null
	}
	r := &Runtime{
		out: out,
		log: log.WithComponent("plugin"),
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSandboxLibraries(L)
	r.state = L
	r.installModule()
	return r
}

// openSandboxLibraries opens the safe standard libraries only. io, os,
// debug and package stay closed.
func openSandboxLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Close releases the Lua state. Handlers must not be called afterwards.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Close()
}

// Load executes the script at path and returns the commands it registered,
// in registration order.
func (r *Runtime) Load(path string) ([]console.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.regs = nil
	if err := r.state.DoFile(path); err != nil {
		return nil, fmt.Errorf("plugin %s: %w", path, err)
	}
	r.log.Info("loaded plugin %s (%d commands)", path, len(r.regs))
	return r.regs, nil
}

// installModule publishes the conch table into the state.
func (r *Runtime) installModule() {
	L := r.state
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"command":         r.luaCommand,
		"print":           r.luaPrint,
		"invalid_syntax":  raise("invalid_syntax", false),
		"invalid_arg":     raise("invalid_arg", true),
		"invalid_command": raise("invalid_command", true),
	})
	L.SetGlobal("conch", mod)
}

// luaCommand implements conch.command(syntax, description, fn). The grammar
// is validated here so a broken declaration fails the whole Load.
func (r *Runtime) luaCommand(L *lua.LState) int {
	grammar := L.CheckString(1)
	description := L.CheckString(2)
	fn := L.CheckFunction(3)

	if _, err := syntax.Parse(grammar); err != nil {
		L.RaiseError("command %q: %s", grammar, err.Error())
		return 0
	}
	r.regs = append(r.regs, console.Registration{
		Syntax:      grammar,
		Description: description,
		Handler:     r.handler(fn),
	})
	return 0
}

// luaPrint implements conch.print, writing to the current cycle's output
// (or the runtime's writer outside a cycle). Arguments are joined with
// tabs, like Lua's print.
func (r *Runtime) luaPrint(L *lua.LState) int {
	out := r.out
	if r.current != nil {
		out = r.current.Out
	}
	top := L.GetTop()
	for i := 1; i <= top; i++ {
		if i > 1 {
			fmt.Fprint(out, "\t")
		}
		fmt.Fprint(out, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(out)
	return 0
}

// raise builds a conch.invalid_* function. The raised value is a table the
// handler bridge recognizes and converts to a dispatch diagnostic.
func raise(kind string, named bool) lua.LGFunction {
	return func(L *lua.LState) int {
		value := L.CheckString(1)
		name := ""
		reasonIdx := 2
		if named {
			name = L.CheckString(2)
			reasonIdx = 3
		}
		reason := L.OptString(reasonIdx, "")

		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString(kind))
		tbl.RawSetString("value", lua.LString(value))
		tbl.RawSetString("name", lua.LString(name))
		tbl.RawSetString("reason", lua.LString(reason))
		L.Error(tbl, 1)
		return 0
	}
}

// handler bridges a Lua function into a dispatch handler. The resolved
// arguments arrive as an array of {value=..., name=...} tables.
func (r *Runtime) handler(fn *lua.LFunction) dispatch.Handler {
	return func(ctx *dispatch.Context, args []syntax.Arg) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.current = ctx
		defer func() { r.current = nil }()

		L := r.state
		tbl := L.NewTable()
		for _, a := range args {
			entry := L.NewTable()
			entry.RawSetString("value", lua.LString(a.Value))
			entry.RawSetString("name", lua.LString(a.Name))
			tbl.Append(entry)
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, tbl); err != nil {
			return r.mapError(err)
		}
		return nil
	}
}

// mapError converts a conch.invalid_* rejection into its dispatch
// diagnostic. Anything else is a plugin defect and surfaces unchanged.
func (r *Runtime) mapError(err error) error {
	apiErr, ok := err.(*lua.ApiError)
	if !ok {
		return err
	}
	tbl, ok := apiErr.Object.(*lua.LTable)
	if !ok {
		return err
	}
	arg := syntax.Arg{
		Value: lua.LVAsString(tbl.RawGetString("value")),
		Name:  lua.LVAsString(tbl.RawGetString("name")),
	}
	reason := lua.LVAsString(tbl.RawGetString("reason"))

	switch lua.LVAsString(tbl.RawGetString("kind")) {
	case "invalid_syntax":
		return dispatch.NewInvalidSyntax(arg, reason)
	case "invalid_arg":
		return dispatch.NewInvalidArgValue(arg, reason)
	case "invalid_command":
		return dispatch.NewInvalidCommandValue(arg, reason)
	}
	return err
}
