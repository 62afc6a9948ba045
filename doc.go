/*
Package ntb is a hackable build-manifest generator host.

The ntb binary is a small launcher: it prepares an embedded Lua runtime, injects two
host primitives, and hands control to the build script module "ntb.main". Everything
about the build graph lives in that Lua code; this module only provides the boundary.

# Script Environment

  - hash(s): XXH3-128 of s with a fixed seed, as 26 characters of base32 (A-Z2-7).
    Used to fingerprint build inputs and outputs. Not cryptographic.
  - lfs: a LuaFileSystem-compatible filesystem library, plus lfs.glob.
  - arg: the process arguments, program name first, unfiltered.

# Execution

The entry module runs once per process. The first Ctrl+C aborts the script at its next
instruction and the process exits with a diagnostic; a second Ctrl+C before that
terminates the process immediately.

# Usage

	$ ntb --version
	1.0.0.alpha.111

	$ ntb build.ninja.lua
	ntb: ntb/main.lua:12: no rule to make 'app'
	stack traceback:
		...

The digest primitive is also available to Go code through package digest:

	key := digest.Hash("cc -O2 -c src/main.c")
*/
package ntb
