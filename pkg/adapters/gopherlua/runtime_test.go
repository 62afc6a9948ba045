package gopherlua

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/ntb/internal/testutils"
	"github.com/aretw0/ntb/pkg/digest"
	"github.com/aretw0/ntb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

// newTestRuntime prepares a runtime resolving modules from a fresh tree holding
// ntb/main.lua, with hash, lfs and arg in place.
func newTestRuntime(t *testing.T, main string, args ...string) *Runtime {
	t.Helper()
	_, tmpl := testutils.EntryTree(t, main)

	rt, err := New(WithExecutableDir(""), WithPath(tmpl))
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	require.NoError(t, rt.RegisterFunc("hash", digest.Hash))
	require.NoError(t, rt.OpenLibrary("lfs"))
	require.NoError(t, rt.PublishArgs("arg", append([]string{"ntb"}, args...)))
	return rt
}

func globalString(t *testing.T, rt *Runtime, name string) string {
	t.Helper()
	v := rt.L.GetGlobal(name)
	s, ok := v.(lua.LString)
	require.True(t, ok, "global %s is %s, not a string", name, v.Type())
	return string(s)
}

func TestRuntime_HashMatchesDigest(t *testing.T) {
	rt := newTestRuntime(t, `
		result = hash("src/main.c")
		empty = hash("")
	`)

	require.NoError(t, rt.Entry("ntb.main").Run(context.Background(), nil))
	assert.Equal(t, digest.Hash("src/main.c"), globalString(t, rt, "result"))
	assert.Equal(t, digest.Hash(""), globalString(t, rt, "empty"))
	assert.Len(t, globalString(t, rt, "empty"), 26)
}

func TestRuntime_HashRejectsNonString(t *testing.T) {
	tests := []struct {
		name   string
		script string
		got    string
	}{
		{"Number", "hash(123)", "got number"},
		{"Table", "hash({})", "got table"},
		{"Nil", "hash(nil)", "got nil"},
		{"No Value", "hash()", "got no value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newTestRuntime(t, tt.script)
			err := rt.Entry("ntb.main").Run(context.Background(), nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrHashArgument)
			assert.Contains(t, err.Error(), "bad argument #1 to 'hash' (string expected, "+tt.got+")")
		})
	}
}

func TestRuntime_HashErrorCaughtByScriptIsNotMisclassified(t *testing.T) {
	rt := newTestRuntime(t, `
		pcall(hash, 1)
		error("later failure")
	`)
	err := rt.Entry("ntb.main").Run(context.Background(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScriptRuntime)
	assert.NotErrorIs(t, err, domain.ErrHashArgument)
}

func TestRuntime_PublishArgs(t *testing.T) {
	rt := newTestRuntime(t, `
		count = #arg
		joined = table.concat(arg, " ")
	`, "--version", "build.lua")

	require.NoError(t, rt.Entry("ntb.main").Run(context.Background(), nil))
	assert.Equal(t, lua.LNumber(3), rt.L.GetGlobal("count"))
	assert.Equal(t, "ntb --version build.lua", globalString(t, rt, "joined"))
}

func TestRuntime_LfsGlobalAndRequire(t *testing.T) {
	rt := newTestRuntime(t, `
		local viaRequire = require("lfs")
		same = viaRequire == lfs
		version = lfs._VERSION
	`)

	require.NoError(t, rt.Entry("ntb.main").Run(context.Background(), nil))
	assert.Equal(t, lua.LTrue, rt.L.GetGlobal("same"))
	assert.Equal(t, LFSVersion, globalString(t, rt, "version"))
}

func TestRuntime_OpenUnknownLibrary(t *testing.T) {
	rt, err := New(WithExecutableDir(""))
	require.NoError(t, err)
	defer rt.Close()

	assert.Error(t, rt.OpenLibrary("posix"))
}

func TestRuntime_PackagePath(t *testing.T) {
	exeDir := t.TempDir()
	rt, err := New(WithExecutableDir(exeDir), WithPath("./build/?.lua"))
	require.NoError(t, err)
	defer rt.Close()

	parts := strings.Split(rt.PackagePath(), ";")
	require.GreaterOrEqual(t, len(parts), 3)
	assert.Equal(t, filepath.Join(exeDir, "?.lua"), parts[0])
	assert.Equal(t, filepath.Join(exeDir, "?", "init.lua"), parts[1])
	assert.Equal(t, "./build/?.lua", parts[2])
}

func TestNew_InvalidSizes(t *testing.T) {
	_, err := New(WithStackSizes(0, 10))
	assert.Error(t, err)
}

func TestNew_DefaultLoggerDiscards(t *testing.T) {
	rt, err := New(WithExecutableDir(""))
	require.NoError(t, err)
	defer rt.Close()

	require.NotNil(t, rt.logger)
	assert.False(t, rt.logger.Enabled(context.Background(), slog.LevelError))
}
