/*
Package domain contains the types shared between the ntb host and the script runtimes
it drives.

It is kept free of any runtime or I/O dependency so the host can be compiled and tested
without an interpreter.

# Key Entities

  - EntryPoint: the single hand-off into the build logic.
  - Tracer: optional capability of entry points that can attach a stack trace.
  - Runtime: what the host needs to prepare a script environment.
  - Status: the outcome of one entry invocation, mapped to a process exit code.
  - ScriptError: a failure raised by the script layer, classified by Kind.
*/
package domain
