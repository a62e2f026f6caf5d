package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvDebug, "")
	t.Setenv("ACM_LOG_FILE", "")
}

func TestLoadFromPath_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Claude.OutputFormat != "json" {
		t.Errorf("Claude.OutputFormat = %q, want json", cfg.Claude.OutputFormat)
	}
	if cfg.WaitTimeout() != 180*time.Second {
		t.Errorf("WaitTimeout() = %v, want 180s", cfg.WaitTimeout())
	}
	if cfg.CLIName("codex") != "codex" {
		t.Errorf("CLIName(codex) = %q, want codex", cfg.CLIName("codex"))
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "config.toml", `
[log]
level = "warn"

[cli]
codex = "/opt/codex/bin/codex"

[claude]
output_format = "stream-json"

[models.aliases]
fast = "claude-3-5-haiku-20241022"

[wait]
default_timeout_seconds = 30
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.CLIName("codex") != "/opt/codex/bin/codex" {
		t.Errorf("CLIName(codex) = %q", cfg.CLIName("codex"))
	}
	if cfg.CLIName("claude") != "claude" {
		t.Errorf("CLIName(claude) = %q, want default", cfg.CLIName("claude"))
	}
	if cfg.Claude.OutputFormat != "stream-json" {
		t.Errorf("Claude.OutputFormat = %q", cfg.Claude.OutputFormat)
	}
	if cfg.Models.Aliases["fast"] != "claude-3-5-haiku-20241022" {
		t.Errorf("Models.Aliases = %v", cfg.Models.Aliases)
	}
	if cfg.WaitTimeout() != 30*time.Second {
		t.Errorf("WaitTimeout() = %v, want 30s", cfg.WaitTimeout())
	}
}

func TestLoadFromPath_YAML(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "config.yaml", `
log:
  level: debug
cli:
  gemini: gemini-beta
models:
  aliases:
    pro: gemini-2.5-pro
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.CLIName("gemini") != "gemini-beta" {
		t.Errorf("CLIName(gemini) = %q", cfg.CLIName("gemini"))
	}
	if cfg.Models.Aliases["pro"] != "gemini-2.5-pro" {
		t.Errorf("Models.Aliases = %v", cfg.Models.Aliases)
	}
}

func TestLoadFromPath_EmptyYAML(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromPath(writeFile(t, "config.yml", ""))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	clearEnv(t)

	for _, tc := range []struct{ name, content string }{
		{"config.toml", "[log]\nlevle = \"debug\"\n"},
		{"config.yaml", "log:\n  levle: debug\n"},
	} {
		if _, err := LoadFromPath(writeFile(t, tc.name, tc.content)); err == nil {
			t.Errorf("LoadFromPath(%s) with unknown key: expected error", tc.name)
		}
	}
}

func TestLoadFromPath_EnvOverlay(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "config.toml", "[log]\nlevel = \"error\"\n")

	t.Setenv(EnvLogLevel, "warn")
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn from %s", cfg.Log.Level, EnvLogLevel)
	}

	t.Setenv(EnvDebug, "true")
	t.Setenv("ACM_LOG_FILE", "/tmp/acm-test.log")
	cfg, err = LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug from %s", cfg.Log.Level, EnvDebug)
	}
	if cfg.Log.File != "/tmp/acm-test.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidLogLevel},
		{"bad output format", func(c *Config) { c.Claude.OutputFormat = "text" }, ErrInvalidOutputFormat},
		{"zero timeout", func(c *Config) { c.Wait.DefaultTimeoutSeconds = 0 }, ErrInvalidWaitTimeout},
		{"relative cli", func(c *Config) { c.CLI.Claude = "./bin/claude" }, ErrInvalidCLIName},
		{"absolute cli", func(c *Config) { c.CLI.Claude = "/usr/bin/claude" }, nil},
		{"empty alias target", func(c *Config) { c.Models.Aliases = map[string]string{"x": ""} }, ErrEmptyAlias},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "log.level", Value: "trace", Message: "must be debug, info, warn, or error"}
	want := `log.level: must be debug, info, warn, or error (got "trace")`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
