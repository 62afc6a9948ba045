package domain

import (
	"errors"
	"strings"
)

// ErrScriptLoad is returned when the entry module cannot be resolved or compiled.
var ErrScriptLoad = errors.New("script load error")

// ErrScriptRuntime is returned when the script raises during execution.
var ErrScriptRuntime = errors.New("script runtime error")

// ErrInterrupted is returned when execution was aborted by an interrupt request.
var ErrInterrupted = errors.New("interrupted")

// ErrHashArgument is returned when a non-string value is passed to the hash primitive.
var ErrHashArgument = errors.New("hash argument error")

// PlaceholderMessage replaces error values that have no text representation.
const PlaceholderMessage = "(error object is not a string)"

// ScriptError is a failure raised by the script layer.
type ScriptError struct {
	// Kind is one of the sentinel errors of this package.
	Kind error
	// Message is the text of the raised value.
	Message string
	// Trace is the stack trace attached to the failure, if one was captured.
	Trace string
	// Opaque is set when the raised value is not representable as text.
	Opaque bool
}

func (e *ScriptError) Error() string {
	msg := e.Message
	if e.Opaque {
		msg = PlaceholderMessage
	}
	if e.Trace == "" {
		return msg
	}
	return msg + "\n" + strings.TrimRight(e.Trace, "\n")
}

func (e *ScriptError) Unwrap() error {
	return e.Kind
}
