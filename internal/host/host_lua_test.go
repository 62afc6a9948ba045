package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/ntb/internal/config"
	"github.com/aretw0/ntb/internal/interrupt"
	"github.com/aretw0/ntb/internal/testutils"
	"github.com/aretw0/ntb/pkg/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runScript runs the real gopher-lua host with main as ntb/main.lua.
func runScript(t *testing.T, main string, argv ...string) (int, string, string) {
	t.Helper()
	dir, tmpl := testutils.EntryTree(t, main)

	var stderr bytes.Buffer
	h := New(
		WithStderr(&stderr),
		WithConfigLoader(func() (config.Config, error) {
			cfg := config.Default()
			cfg.Path = []string{tmpl}
			return cfg, nil
		}),
	)
	code := h.Run(context.Background(), append([]string{"ntb"}, argv...))
	return code, stderr.String(), dir
}

func TestHostLua_WritesManifest(t *testing.T) {
	out := filepath.Join(t.TempDir(), "build.ninja")
	code, stderr, _ := runScript(t, `
		local out = arg[2]
		local f = assert(io.open(out, "w"))
		f:write("# ", hash("src/main.c"), "\n")
		f:write("# ", #arg, " args, lfs ", tostring(lfs ~= nil), "\n")
		f:close()
	`, out, "--verbose")

	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# "+digest.Hash("src/main.c")+"\n# 3 args, lfs true\n", string(data))
}

func TestHostLua_HashArgumentError(t *testing.T) {
	code, stderr, _ := runScript(t, `hash(123)`)

	assert.Equal(t, 1, code)
	lines := strings.Split(strings.TrimRight(stderr, "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "ntb: "), stderr)
	assert.Contains(t, lines[0], "bad argument #1 to 'hash' (string expected, got number)")
	assert.Equal(t, 1, strings.Count(stderr, "ntb: "), "one diagnostic per failing run")
}

func TestHostLua_RuntimeErrorCarriesTrace(t *testing.T) {
	code, stderr, _ := runScript(t, `
		local function rule(name)
			error("missing input for " .. name)
		end
		rule("app")
	`)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing input for app")
	assert.Contains(t, stderr, "stack traceback:")
}

func TestHostLua_MissingEntry(t *testing.T) {
	var stderr bytes.Buffer
	h := New(
		WithStderr(&stderr),
		WithConfigLoader(func() (config.Config, error) {
			cfg := config.Default()
			cfg.Path = []string{filepath.Join(t.TempDir(), "?.lua")}
			return cfg, nil
		}),
	)

	assert.Equal(t, 1, h.Run(context.Background(), []string{"ntb", "build.lua"}))
	assert.True(t, strings.HasPrefix(stderr.String(), "ntb: module 'ntb.main' not found:"), stderr.String())
}

func TestHostLua_VersionNeedsNoManifest(t *testing.T) {
	var stderr bytes.Buffer
	h := New(
		WithStderr(&stderr),
		WithConfigLoader(func() (config.Config, error) {
			t.Fatal("configuration must not be loaded")
			return config.Config{}, nil
		}),
	)

	assert.Equal(t, 0, h.Run(context.Background(), []string{"ntb", "missing.lua", "--version"}))
	assert.NotEmpty(t, stderr.String())
}

func TestHostLua_InterruptAbortsScript(t *testing.T) {
	_, tmpl := testutils.EntryTree(t, `
		local n = 0
		while true do
			n = n + hash(tostring(n)):len()
		end
	`)

	controller := interrupt.New()
	var stderr bytes.Buffer
	h := New(
		WithStderr(&stderr),
		WithController(controller),
		WithConfigLoader(func() (config.Config, error) {
			cfg := config.Default()
			cfg.Path = []string{tmpl}
			return cfg, nil
		}),
	)

	go func() {
		for controller.State() != interrupt.Armed {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(50 * time.Millisecond)
		controller.Interrupt()
	}()

	code := h.Run(context.Background(), []string{"ntb"})

	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr.String(), "ntb: interrupted!"), stderr.String())
	assert.True(t, controller.Interrupted())
	assert.Equal(t, interrupt.Disarmed, controller.State())
}
