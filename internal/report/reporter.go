// Package report runs the entry point with trace capture and prints failures.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/aretw0/ntb/internal/logging"
	"github.com/aretw0/ntb/pkg/domain"
)

// Reporter wraps entry invocation and writes diagnostics for failed runs.
type Reporter struct {
	program string
	out     io.Writer
	collect func()
	logger  *slog.Logger
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithCollector replaces the full collection pass forced after a failed run.
func WithCollector(fn func()) Option {
	return func(r *Reporter) {
		r.collect = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// New creates a Reporter writing diagnostics for program to out.
func New(program string, out io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		program: program,
		out:     out,
		collect: runtime.GC,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CallWithTrace invokes entry, using its traced variant when it has one.
// After a failure it forces a full collection before returning.
func (r *Reporter) CallWithTrace(ctx context.Context, entry domain.EntryPoint, args []string) (domain.Status, error) {
	if t, ok := entry.(domain.Tracer); ok {
		entry = t.WithTrace()
	} else {
		r.logger.Debug("entry point has no trace facility")
	}

	err := entry.Run(ctx, args)
	status := domain.StatusOf(err)
	if status.Failed() {
		r.logger.Debug("entry failed", "status", status.String(), "err", err)
		r.collect()
	}
	return status, err
}

// Report prints err for a failed status and returns the status unchanged.
func (r *Reporter) Report(status domain.Status, err error) domain.Status {
	if !status.Failed() {
		return status
	}
	r.Message(r.program, messageOf(err))
	return status
}

// Message writes "<program>: <msg>" to the diagnostic stream, or only msg when
// program is empty.
func (r *Reporter) Message(program, msg string) {
	if program != "" {
		fmt.Fprintf(r.out, "%s: ", program)
	}
	fmt.Fprintf(r.out, "%s\n", msg)
}

func messageOf(err error) string {
	if err == nil {
		return domain.PlaceholderMessage
	}
	var se *domain.ScriptError
	if errors.As(err, &se) && se.Opaque {
		return domain.PlaceholderMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return domain.PlaceholderMessage
}
