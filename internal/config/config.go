// Package config loads the host settings: defaults, an optional file named by
// NTB_CONFIG, then environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfigFile    = "NTB_CONFIG"
	EnvLogLevel      = "NTB_LOG_LEVEL"
	EnvLogFormat     = "NTB_LOG_FORMAT"
	EnvPath          = "NTB_PATH"
	EnvCallStackSize = "NTB_CALL_STACK_SIZE"
	EnvRegistrySize  = "NTB_REGISTRY_SIZE"
)

// Config holds the settings of one ntb run.
type Config struct {
	// LogLevel enables structured logging on stderr when set (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// LogFormat is text, json or auto.
	LogFormat string `yaml:"log_format" json:"log_format" mapstructure:"log_format"`
	// Path holds extra package.path templates (e.g. "./build/?.lua"), searched after
	// the executable's directory and before the runtime defaults.
	Path []string `yaml:"path" json:"path" mapstructure:"path"`
	// CallStackSize and RegistrySize size the Lua state.
	CallStackSize int `yaml:"call_stack_size" json:"call_stack_size" mapstructure:"call_stack_size"`
	RegistrySize  int `yaml:"registry_size" json:"registry_size" mapstructure:"registry_size"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogFormat:     "auto",
		CallStackSize: 256,
		RegistrySize:  256 * 20,
	}
}

// Load builds the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds the configuration using getenv for every lookup.
func LoadFrom(getenv func(string) string) (Config, error) {
	values := map[string]any{}

	if path := getenv(EnvConfigFile); path != "" {
		fileValues, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		values = fileValues
	}

	overrides := map[string]string{
		EnvLogLevel:      "log_level",
		EnvLogFormat:     "log_format",
		EnvCallStackSize: "call_stack_size",
		EnvRegistrySize:  "registry_size",
	}
	for env, key := range overrides {
		if v := getenv(env); v != "" {
			values[key] = v
		}
	}
	if v := getenv(EnvPath); v != "" {
		values["path"] = splitPath(v)
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(values); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want auto, text or json)", c.LogFormat)
	}
	if c.CallStackSize <= 0 {
		return fmt.Errorf("call_stack_size must be positive, got %d", c.CallStackSize)
	}
	if c.RegistrySize <= 0 {
		return fmt.Errorf("registry_size must be positive, got %d", c.RegistrySize)
	}
	return nil
}

// readFile reads a YAML or JSON (by extension) configuration file.
func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	values := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	// A document holding only null decodes to a nil map.
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// splitPath splits a Lua-style ';' separated template list, dropping empty entries.
func splitPath(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
