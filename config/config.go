// Package config loads nodecompat settings from YAML, TOML or JSON files.
//
// Every document is checked against an embedded JSON schema before it is
// decoded into Config, so unknown keys and unknown capability names are
// rejected with the offending field in the message.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/node-compat/errors"
	"github.com/wippyai/node-compat/host"
	"github.com/wippyai/node-compat/host/cli"
	"github.com/wippyai/node-compat/runtime"
)

//go:embed schema.json
var schemaJSON string

var schema = gojsonschema.NewStringLoader(schemaJSON)

type Config struct {
	Cwd        string            `yaml:"cwd" toml:"cwd" json:"cwd"`
	Env        map[string]string `yaml:"env" toml:"env" json:"env"`
	EnvFile    []string          `yaml:"env_file" toml:"env_file" json:"env_file"`
	InheritEnv bool              `yaml:"inherit_env" toml:"inherit_env" json:"inherit_env"`
	Preopens   map[string]string `yaml:"preopens" toml:"preopens" json:"preopens"`
	Deny       []string          `yaml:"deny" toml:"deny" json:"deny"`
	Log        Log               `yaml:"log" toml:"log" json:"log"`

	// dir is the directory relative paths are resolved against.
	dir string
}

type Log struct {
	Level       string `yaml:"level" toml:"level" json:"level"`
	Development bool   `yaml:"development" toml:"development" json:"development"`
}

// Default returns the settings used when no file is given: no filesystem,
// an empty environment and warn level logging.
func Default() *Config {
	return &Config{
		Cwd: "/",
		Log: Log{Level: "warn"},
	}
}

// Load reads the file at path. The format follows the extension: .yaml,
// .yml, .toml or .json.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Operand(path).
			Cause(err).
			Detail("parse config file").
			Build()
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg.dir = abs
	return cfg, nil
}

// Parse decodes data in the format named by ext. Relative paths in the
// result resolve against the working directory.
func Parse(ext string, data []byte) (*Config, error) {
	var doc any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid TOML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON config: %w", err)
		}
	default:
		return nil, errors.Unsupported(errors.PhaseConfig, "config format "+ext)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, fmt.Errorf("invalid YAML config: %w", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("invalid TOML config: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON config: %w", err)
		}
	}
	return cfg, nil
}

func validate(doc any) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if result.Valid() {
		return nil
	}
	messages := make([]string, 0, len(result.Errors()))
	for _, item := range result.Errors() {
		messages = append(messages, item.String())
	}
	return errors.InvalidInput(errors.PhaseConfig, strings.Join(messages, "; "))
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Environment builds the script environment. Later sources win: the process
// environment when inherit_env is set, then env files in order, then env.
func (c *Config) Environment() (map[string]string, error) {
	env := make(map[string]string)
	if c.InheritEnv {
		env = cli.InheritEnvironment()
	}
	for _, f := range c.EnvFile {
		vars, err := godotenv.Read(c.abs(f))
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", f, err)
		}
		for k, v := range vars {
			env[k] = v
		}
	}
	for k, v := range c.Env {
		env[k] = v
	}
	return env, nil
}

// Capabilities converts deny into capabilities, rejecting unknown names.
func (c *Config) Capabilities() ([]host.Capability, error) {
	known := make(map[host.Capability]bool)
	for _, cp := range host.AllCapabilities() {
		known[cp] = true
	}
	out := make([]host.Capability, 0, len(c.Deny))
	for _, name := range c.Deny {
		cp := host.Capability(strings.TrimSpace(name))
		if !known[cp] {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Operand(name).
				Detail("unknown capability %q", name).
				Build()
		}
		out = append(out, cp)
	}
	return out, nil
}

// HostOptions converts the file settings into provider options. Physical
// preopen directories resolve against the config file's directory.
func (c *Config) HostOptions() (runtime.HostOptions, error) {
	env, err := c.Environment()
	if err != nil {
		return runtime.HostOptions{}, err
	}
	preopens := make(map[string]string, len(c.Preopens))
	for logical, physical := range c.Preopens {
		preopens[logical] = c.abs(physical)
	}
	return runtime.HostOptions{
		Preopens: preopens,
		Cwd:      c.Cwd,
		Env:      env,
	}, nil
}

// Options returns runtime options backed by the default providers. A non-nil
// exit receives process.exit codes in place of os.Exit.
func (c *Config) Options(exit func(code int)) (runtime.Options, error) {
	ho, err := c.HostOptions()
	if err != nil {
		return runtime.Options{}, err
	}
	ho.Exit = exit
	deny, err := c.Capabilities()
	if err != nil {
		return runtime.Options{}, err
	}
	return runtime.Options{
		Providers: runtime.DefaultProviders(ho),
		Deny:      deny,
	}, nil
}

// Logger builds a zap logger for the log section.
func (c *Config) Logger() (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if c.Log.Level != "" {
		lvl, err := zapcore.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
		}
		level = lvl
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
