package gopherlua

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/ntb/internal/logging"
	"github.com/aretw0/ntb/pkg/domain"
	lua "github.com/yuin/gopher-lua"
)

// Runtime owns a single Lua state.
type Runtime struct {
	L      *lua.LState
	logger *slog.Logger

	callStackSize int
	registrySize  int
	paths         []string
	exeDir        string

	// argErr records the last argument error raised by a host function, so the
	// failure can be classified once it reaches the entry boundary.
	argErr *argError
}

type argError struct {
	kind    error
	message string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithPath appends package.path templates searched before the runtime defaults.
func WithPath(templates ...string) Option {
	return func(r *Runtime) {
		r.paths = append(r.paths, templates...)
	}
}

// WithStackSizes sizes the call stack and the registry of the state.
func WithStackSizes(callStack, registry int) Option {
	return func(r *Runtime) {
		r.callStackSize = callStack
		r.registrySize = registry
	}
}

// WithExecutableDir overrides the directory treated as the executable's location.
// An empty dir disables the executable-relative search path.
func WithExecutableDir(dir string) Option {
	return func(r *Runtime) {
		r.exeDir = dir
	}
}

var _ domain.Runtime = (*Runtime)(nil)

// New creates a Lua state with the standard libraries open.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		logger:        logging.NewNop(),
		callStackSize: lua.CallStackSize,
		registrySize:  lua.RegistrySize,
		exeDir:        executableDir(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.callStackSize <= 0 || r.registrySize <= 0 {
		return nil, fmt.Errorf("invalid state sizes: call stack %d, registry %d", r.callStackSize, r.registrySize)
	}

	r.L = lua.NewState(lua.Options{
		CallStackSize: r.callStackSize,
		RegistrySize:  r.registrySize,
	})

	r.setPackagePath()
	return r, nil
}

// setPackagePath puts the executable's directory and the configured templates in
// front of the default search path.
func (r *Runtime) setPackagePath() {
	var templates []string
	if r.exeDir != "" {
		templates = append(templates,
			filepath.Join(r.exeDir, "?.lua"),
			filepath.Join(r.exeDir, "?", "init.lua"),
		)
	}
	templates = append(templates, r.paths...)
	if len(templates) == 0 {
		return
	}

	pkg := r.L.GetGlobal("package")
	current := lua.LVAsString(r.L.GetField(pkg, "path"))
	if current != "" {
		templates = append(templates, current)
	}
	path := strings.Join(templates, ";")
	r.L.SetField(pkg, "path", lua.LString(path))
	r.logger.Debug("package path set", "path", path)
}

// PackagePath returns the effective package.path.
func (r *Runtime) PackagePath() string {
	return lua.LVAsString(r.L.GetField(r.L.GetGlobal("package"), "path"))
}

// RegisterFunc exposes fn as a global function taking exactly one string.
// Any other argument type raises a type error; numbers are not coerced.
func (r *Runtime) RegisterFunc(name string, fn domain.HostFunc) error {
	if name == "" {
		return fmt.Errorf("function name is required")
	}
	r.L.SetGlobal(name, r.L.NewFunction(func(L *lua.LState) int {
		s, ok := L.Get(1).(lua.LString)
		if !ok {
			msg := fmt.Sprintf("bad argument #1 to '%s' (string expected, got %s)", name, typeName(L))
			r.argErr = &argError{kind: argumentKind(name), message: msg}
			L.RaiseError("%s", msg)
			return 0
		}
		L.Push(lua.LString(fn(string(s))))
		return 1
	}))
	return nil
}

// OpenLibrary registers a host library as a global table and makes it loadable
// through require.
func (r *Runtime) OpenLibrary(name string) error {
	loader, ok := libraries[name]
	if !ok {
		return fmt.Errorf("unknown library %q", name)
	}
	r.L.PreloadModule(name, loader)

	r.L.Push(r.L.NewFunction(loader))
	r.L.Push(lua.LString(name))
	if err := r.L.PCall(1, 1, nil); err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	mod := r.L.Get(-1)
	r.L.Pop(1)

	r.L.SetGlobal(name, mod)
	loaded := r.L.GetField(r.L.Get(lua.RegistryIndex), "_LOADED")
	if tbl, ok := loaded.(*lua.LTable); ok {
		tbl.RawSetString(name, mod)
	}
	return nil
}

// PublishArgs exposes args as a 1-based array global.
func (r *Runtime) PublishArgs(name string, args []string) error {
	tbl := r.L.CreateTable(len(args), 0)
	for i, a := range args {
		tbl.RawSetInt(i+1, lua.LString(a))
	}
	r.L.SetGlobal(name, tbl)
	return nil
}

// Entry returns the entry point for module. Resolution happens on Run.
func (r *Runtime) Entry(module string) domain.EntryPoint {
	return &Entry{rt: r, module: module}
}

// Close releases the state.
func (r *Runtime) Close() {
	r.L.Close()
}

func argumentKind(name string) error {
	if name == "hash" {
		return domain.ErrHashArgument
	}
	return domain.ErrScriptRuntime
}

func typeName(L *lua.LState) string {
	if L.GetTop() < 1 {
		return "no value"
	}
	return L.Get(1).Type().String()
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
