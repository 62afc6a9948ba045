package gopherlua

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/ntb/pkg/domain"
	lua "github.com/yuin/gopher-lua"
)

// InterruptedMessage is the message of a script aborted by context cancellation.
const InterruptedMessage = "interrupted!"

const traceHeader = "stack traceback:"

// Entry is a module resolved through package.path and invoked like require.
type Entry struct {
	rt     *Runtime
	module string
	traced bool
}

var (
	_ domain.EntryPoint = (*Entry)(nil)
	_ domain.Tracer     = (*Entry)(nil)
)

// WithTrace returns a variant whose failures carry a debug.traceback when the
// state provides one.
func (e *Entry) WithTrace() domain.EntryPoint {
	return &Entry{rt: e.rt, module: e.module, traced: true}
}

// Run loads and calls the module. The chunk receives the module name followed by args;
// its result is stored in package.loaded.
func (e *Entry) Run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	L := e.rt.L

	path, err := e.rt.findModule(e.module)
	if err != nil {
		return &domain.ScriptError{Kind: domain.ErrScriptLoad, Message: err.Error()}
	}
	fn, err := L.LoadFile(path)
	if err != nil {
		return &domain.ScriptError{
			Kind:    domain.ErrScriptLoad,
			Message: fmt.Sprintf("error loading module '%s' from file '%s':\n\t%v", e.module, path, err),
		}
	}
	e.rt.logger.Debug("entry loaded", "module", e.module, "path", path)

	callArgs := make([]lua.LValue, 0, len(args)+1)
	callArgs = append(callArgs, lua.LString(e.module))
	for _, a := range args {
		callArgs = append(callArgs, lua.LString(a))
	}

	e.rt.argErr = nil
	L.SetContext(ctx)
	defer L.RemoveContext()

	p := lua.P{Fn: fn, NRet: 1, Protect: true}
	if e.traced {
		p.Handler = L.NewFunction(traceback)
	}
	if err := L.CallByParam(p, callArgs...); err != nil {
		return e.classify(ctx, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	if ret == lua.LNil {
		ret = lua.LTrue
	}
	if loaded, ok := L.GetField(L.GetGlobal("package"), "loaded").(*lua.LTable); ok {
		loaded.RawSetString(e.module, ret)
	}
	return nil
}

// classify converts a failed protected call into a domain.ScriptError.
func (e *Entry) classify(ctx context.Context, err error) error {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return &domain.ScriptError{Kind: domain.ErrScriptRuntime, Message: err.Error()}
	}

	text, ok := valueText(apiErr.Object)
	msg, trace := text, ""
	if e.traced && ok {
		msg, trace = splitTrace(text)
	}

	if ctx.Err() != nil {
		return &domain.ScriptError{Kind: domain.ErrInterrupted, Message: InterruptedMessage, Trace: trace}
	}
	if !ok {
		return &domain.ScriptError{Kind: domain.ErrScriptRuntime, Opaque: true}
	}

	kind := domain.ErrScriptRuntime
	if a := e.rt.argErr; a != nil && strings.Contains(msg, a.message) {
		kind = a.kind
	}
	return &domain.ScriptError{Kind: kind, Message: msg, Trace: trace}
}

// traceback is the message handler of traced entries. Non-string values, or a state
// without debug.traceback, leave the error value intact.
func traceback(L *lua.LState) int {
	msg := L.Get(1)
	text, ok := valueText(msg)
	if !ok {
		L.Push(msg)
		return 1
	}
	dbg, ok := L.GetGlobal("debug").(*lua.LTable)
	if !ok {
		L.Push(msg)
		return 1
	}
	fn, ok := L.GetField(dbg, "traceback").(*lua.LFunction)
	if !ok {
		L.Push(msg)
		return 1
	}
	L.Push(fn)
	L.Push(lua.LString(text))
	L.Push(lua.LNumber(2))
	L.Call(2, 1)
	return 1
}

// valueText mirrors lua_tostring: strings and numbers have text, nothing else does.
func valueText(v lua.LValue) (string, bool) {
	switch lv := v.(type) {
	case lua.LString:
		return string(lv), true
	case lua.LNumber:
		return lv.String(), true
	default:
		return "", false
	}
}

func splitTrace(text string) (string, string) {
	if i := strings.Index(text, "\n"+traceHeader); i >= 0 {
		return text[:i], text[i+1:]
	}
	return text, ""
}

// findModule searches package.path the way require does.
func (r *Runtime) findModule(name string) (string, error) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator))

	var tried strings.Builder
	for _, tmpl := range strings.Split(r.PackagePath(), ";") {
		if tmpl == "" {
			continue
		}
		candidate := strings.ReplaceAll(tmpl, "?", rel)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
		fmt.Fprintf(&tried, "\n\tno file '%s'", candidate)
	}
	return "", fmt.Errorf("module '%s' not found:%s", name, tried.String())
}
