package domain

import "context"

// EntryPoint is the hand-off into the externally supplied build logic.
type EntryPoint interface {
	// Run invokes the entry with args. It must return once ctx is cancelled,
	// at the latest at the runtime's next safe checkpoint.
	Run(ctx context.Context, args []string) error
}

// Tracer is implemented by entry points whose failures can carry a stack trace.
type Tracer interface {
	WithTrace() EntryPoint
}

// HostFunc is a primitive implemented by the host and exposed to scripts.
// It takes and returns text.
type HostFunc func(string) string

// Runtime is a script runtime prepared by the host before invoking the entry.
type Runtime interface {
	// RegisterFunc exposes fn as a global callable named name.
	RegisterFunc(name string, fn HostFunc) error
	// OpenLibrary registers a host library as a global named name.
	OpenLibrary(name string) error
	// PublishArgs exposes args as a global ordered sequence named name.
	PublishArgs(name string, args []string) error
	// Entry resolves the module identifier to an entry point.
	Entry(module string) EntryPoint
	Close()
}
