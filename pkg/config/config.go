// Package config loads layered configuration for cargo-dirty.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all settings for one invocation.
type Config struct {
	Path       string `koanf:"path"`
	Command    string `koanf:"command"`
	JSON       bool   `koanf:"json"`
	Report     bool   `koanf:"report"`
	Unknown    bool   `koanf:"unknown"`
	Explain    bool   `koanf:"explain"`
	Web        bool   `koanf:"web"`
	Port       int    `koanf:"port"`
	Watch      bool   `koanf:"watch"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`

	// CargoArgs are the positional arguments after --, passed to cargo
	// verbatim. Set from the flag set's leftover args, not via koanf.
	CargoArgs []string `koanf:"-"`
}

// Load layers configuration sources.
// Priority: flags > environment > cargo-dirty.toml > defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"path":      ".",
		"command":   "check",
		"json":      false,
		"report":    false,
		"unknown":   false,
		"explain":   false,
		"web":       false,
		"port":      8080,
		"watch":     false,
		"verbosity": "",
		"verbose":   0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Optional config file; absence is not an error.
	_ = k.Load(file.Provider("cargo-dirty.toml"), toml.Parser())

	// Environment variables, e.g. CARGO_DIRTY_PORT=9090.
	if err := k.Load(env.Provider("CARGO_DIRTY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "CARGO_DIRTY_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if f != nil {
		cfg.CargoArgs = f.Args()
	}
	return &cfg, nil
}

type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
