package domain

import "errors"

// Status is the outcome of one entry invocation.
type Status int

const (
	StatusSuccess Status = iota
	StatusScriptError
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusScriptError:
		return "script_error"
	case StatusInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Failed reports whether the status represents a failed run.
func (s Status) Failed() bool {
	return s != StatusSuccess
}

// ExitCode maps the status to a process exit code.
func (s Status) ExitCode() int {
	if s.Failed() {
		return 1
	}
	return 0
}

// StatusOf classifies the error returned by an entry point.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrInterrupted):
		return StatusInterrupted
	default:
		return StatusScriptError
	}
}
