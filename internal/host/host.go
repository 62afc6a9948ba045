// Package host orchestrates one ntb run: CLI flags, runtime bootstrap, and the
// guarded invocation of the entry module.
package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/aretw0/ntb"
	"github.com/aretw0/ntb/internal/config"
	"github.com/aretw0/ntb/internal/interrupt"
	"github.com/aretw0/ntb/internal/logging"
	"github.com/aretw0/ntb/internal/report"
	"github.com/aretw0/ntb/pkg/adapters/gopherlua"
	"github.com/aretw0/ntb/pkg/digest"
	"github.com/aretw0/ntb/pkg/domain"
)

// EntryModule is the module handed control after bootstrap.
const EntryModule = "ntb.main"

// UnknownProgram is the diagnostic prefix used when argv carries no program name.
const UnknownProgram = "(unknown)"

// Global names published into the script environment.
const (
	HashGlobal = "hash"
	FSLibrary  = "lfs"
	ArgsGlobal = "arg"
)

// RuntimeFactory creates the script runtime for a run.
type RuntimeFactory func(cfg config.Config, logger *slog.Logger) (domain.Runtime, error)

// Host owns everything a single run needs. Construct a fresh Host per run.
type Host struct {
	stderr     io.Writer
	loadConfig func() (config.Config, error)
	newRuntime RuntimeFactory
	controller *interrupt.Controller
	collector  func()
	logger     *slog.Logger
	pauseGC    func() (restore func())
}

// Option configures a Host.
type Option func(*Host)

// WithStderr sets the diagnostic stream (default os.Stderr).
func WithStderr(w io.Writer) Option {
	return func(h *Host) {
		h.stderr = w
	}
}

// WithConfigLoader replaces the environment-based configuration loader.
func WithConfigLoader(fn func() (config.Config, error)) Option {
	return func(h *Host) {
		h.loadConfig = fn
	}
}

// WithRuntimeFactory replaces the gopher-lua runtime.
func WithRuntimeFactory(fn RuntimeFactory) Option {
	return func(h *Host) {
		h.newRuntime = fn
	}
}

// WithController injects the interrupt controller.
func WithController(c *interrupt.Controller) Option {
	return func(h *Host) {
		h.controller = c
	}
}

// WithCollector replaces the collection pass forced after a failed run.
func WithCollector(fn func()) Option {
	return func(h *Host) {
		h.collector = fn
	}
}

// WithLogger sets the structured logger. Without it, the logger is derived from
// the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{
		stderr:     os.Stderr,
		loadConfig: config.Load,
		newRuntime: newLuaRuntime,
		pauseGC:    pauseGC,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.controller == nil {
		h.controller = interrupt.New()
	}
	return h
}

// Run executes the startup sequence for argv (program name first) and returns the
// process exit code.
func (h *Host) Run(ctx context.Context, argv []string) (code int) {
	program := UnknownProgram
	if len(argv) > 0 && argv[0] != "" {
		program = argv[0]
	}

	var rest []string
	if len(argv) > 1 {
		rest = argv[1:]
	}
	showVersion, showHelp := collectFlags(rest)
	if showVersion {
		h.printVersion()
		return 0
	}
	if showHelp {
		h.printUsage(program)
		return 0
	}

	cfg, err := h.loadConfig()
	if err != nil {
		report.New(program, h.stderr).Message(program, err.Error())
		return 1
	}
	logger, err := h.resolveLogger(cfg)
	if err != nil {
		report.New(program, h.stderr).Message(program, err.Error())
		return 1
	}

	reporterOpts := []report.Option{report.WithLogger(logger)}
	if h.collector != nil {
		reporterOpts = append(reporterOpts, report.WithCollector(h.collector))
	}
	reporter := report.New(program, h.stderr, reporterOpts...)

	rt, err := h.newRuntime(cfg, logger)
	if err != nil {
		reporter.Message(program, "cannot create state: "+err.Error())
		return 1
	}
	defer rt.Close()

	// Failures of the bootstrap machinery itself are reported like script errors.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("host panic", "panic", r, "stack", string(debug.Stack()))
			reporter.Message(program, fmt.Sprint(r))
			code = 1
		}
	}()

	status, err := h.bootstrap(ctx, rt, argv, reporter, logger)
	if err != nil && !status.Failed() {
		// Registration failed before the entry ran.
		reporter.Message(program, err.Error())
		return 1
	}
	return reporter.Report(status, err).ExitCode()
}

// bootstrap prepares the runtime and runs the entry module under the interrupt
// controller. A non-nil error with a successful status means the machinery failed.
func (h *Host) bootstrap(ctx context.Context, rt domain.Runtime, argv []string, reporter *report.Reporter, logger *slog.Logger) (domain.Status, error) {
	if err := h.registerPrimitives(rt); err != nil {
		return domain.StatusSuccess, err
	}
	if err := rt.PublishArgs(ArgsGlobal, argv); err != nil {
		return domain.StatusSuccess, fmt.Errorf("failed to publish %s: %w", ArgsGlobal, err)
	}
	logger.Debug("runtime ready", "module", EntryModule, "args", len(argv))

	entry := rt.Entry(EntryModule)

	runCtx, err := h.controller.Arm(ctx)
	if err != nil {
		return domain.StatusSuccess, err
	}
	status, runErr := reporter.CallWithTrace(runCtx, entry, nil)
	h.controller.Disarm()

	logger.Debug("entry returned", "status", status.String(), "interrupted", h.controller.Interrupted())
	return status, runErr
}

// registerPrimitives installs hash and lfs with the collector paused.
func (h *Host) registerPrimitives(rt domain.Runtime) error {
	restore := h.pauseGC()
	defer restore()

	if err := rt.RegisterFunc(HashGlobal, digest.Hash); err != nil {
		return fmt.Errorf("failed to register %s: %w", HashGlobal, err)
	}
	if err := rt.OpenLibrary(FSLibrary); err != nil {
		return fmt.Errorf("failed to open %s: %w", FSLibrary, err)
	}
	return nil
}

func (h *Host) resolveLogger(cfg config.Config) (*slog.Logger, error) {
	if h.logger != nil {
		return h.logger, nil
	}
	level, enabled, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return logging.NewNop(), nil
	}
	return logging.NewWithFormat(h.stderr, level, logging.Format(cfg.LogFormat)), nil
}

func (h *Host) printVersion() {
	report.New("", h.stderr).Message("", ntb.Version)
}

func (h *Host) printUsage(program string) {
	fmt.Fprintf(h.stderr, usageTemplate, ntb.Version, program)
}

// pauseGC disables the Go collector and returns the function restoring it.
func pauseGC() func() {
	prev := debug.SetGCPercent(-1)
	return func() {
		debug.SetGCPercent(prev)
	}
}

func newLuaRuntime(cfg config.Config, logger *slog.Logger) (domain.Runtime, error) {
	rt, err := gopherlua.New(
		gopherlua.WithLogger(logger),
		gopherlua.WithPath(cfg.Path...),
		gopherlua.WithStackSizes(cfg.CallStackSize, cfg.RegistrySize),
	)
	if err != nil {
		return nil, err
	}
	return rt, nil
}
