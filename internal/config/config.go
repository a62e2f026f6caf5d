// Package config provides configuration loading and validation for acm.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tessro/acm/internal/paths"
)

// Environment variables overlaid on top of the config file.
const (
	EnvLogLevel = "ACM_LOG_LEVEL"
	EnvDebug    = "MCP_CLAUDE_DEBUG"
)

// Defaults.
const (
	DefaultLogLevel           = "info"
	DefaultClaudeOutputFormat = "json"
	DefaultWaitTimeoutSeconds = 180
)

// Config represents the acm configuration.
type Config struct {
	Log    LogConfig    `toml:"log" yaml:"log"`
	CLI    CLIConfig    `toml:"cli" yaml:"cli"`
	Claude ClaudeConfig `toml:"claude" yaml:"claude"`
	Models ModelsConfig `toml:"models" yaml:"models"`
	Wait   WaitConfig   `toml:"wait" yaml:"wait"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
	// File additionally writes JSON logs to this path when set.
	File string `toml:"file" yaml:"file"`
}

// CLIConfig names the executable for each agent CLI.
// The <AGENT>_CLI_NAME environment variables take precedence.
type CLIConfig struct {
	Claude string `toml:"claude" yaml:"claude"`
	Codex  string `toml:"codex" yaml:"codex"`
	Gemini string `toml:"gemini" yaml:"gemini"`
}

// ClaudeConfig holds claude-specific settings.
type ClaudeConfig struct {
	// OutputFormat is "json" or "stream-json".
	OutputFormat string `toml:"output_format" yaml:"output_format"`
}

// ModelsConfig holds model alias extensions.
type ModelsConfig struct {
	Aliases map[string]string `toml:"aliases" yaml:"aliases"`
}

// WaitConfig holds defaults for the wait operation.
type WaitConfig struct {
	DefaultTimeoutSeconds int `toml:"default_timeout_seconds" yaml:"default_timeout_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: DefaultLogLevel},
		CLI: CLIConfig{
			Claude: "claude",
			Codex:  "codex",
			Gemini: "gemini",
		},
		Claude: ClaudeConfig{OutputFormat: DefaultClaudeOutputFormat},
		Wait:   WaitConfig{DefaultTimeoutSeconds: DefaultWaitTimeoutSeconds},
	}
}

// Load reads the configuration from the default location.
// A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := paths.ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration file at path, applies environment
// overrides, and validates the result. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %q", undecoded[0].String())
		}
		return nil
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if b, err := strconv.ParseBool(os.Getenv(EnvDebug)); err == nil && b {
		c.Log.Level = "debug"
	}
	if v := os.Getenv(paths.EnvLogFile); v != "" {
		c.Log.File = v
	}
}

// fillDefaults restores defaults for keys the file set to empty values.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.CLI.Claude == "" {
		c.CLI.Claude = d.CLI.Claude
	}
	if c.CLI.Codex == "" {
		c.CLI.Codex = d.CLI.Codex
	}
	if c.CLI.Gemini == "" {
		c.CLI.Gemini = d.CLI.Gemini
	}
	if c.Claude.OutputFormat == "" {
		c.Claude.OutputFormat = d.Claude.OutputFormat
	}
}

// CLIName returns the configured executable for an agent.
func (c *Config) CLIName(agent string) string {
	switch agent {
	case "claude":
		return c.CLI.Claude
	case "codex":
		return c.CLI.Codex
	case "gemini":
		return c.CLI.Gemini
	}
	return agent
}

// WaitTimeout returns the default wait timeout as a duration.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Wait.DefaultTimeoutSeconds) * time.Second
}
