package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validation errors.
var (
	ErrInvalidLogLevel     = errors.New("log level must be debug, info, warn, or error")
	ErrInvalidOutputFormat = errors.New("claude output format must be 'json' or 'stream-json'")
	ErrInvalidWaitTimeout  = errors.New("wait timeout must be positive")
	ErrInvalidCLIName      = errors.New("CLI name must be a bare name or an absolute path")
	ErrEmptyAlias          = errors.New("model alias cannot be empty")
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validOutputFormats = map[string]bool{
	"json":        true,
	"stream-json": true,
}

// ValidationError wraps a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return &ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: "must be debug, info, warn, or error",
			Err:     ErrInvalidLogLevel,
		}
	}

	if !validOutputFormats[c.Claude.OutputFormat] {
		return &ValidationError{
			Field:   "claude.output_format",
			Value:   c.Claude.OutputFormat,
			Message: "must be 'json' or 'stream-json'",
			Err:     ErrInvalidOutputFormat,
		}
	}

	if c.Wait.DefaultTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "wait.default_timeout_seconds",
			Value:   fmt.Sprintf("%d", c.Wait.DefaultTimeoutSeconds),
			Message: "must be positive",
			Err:     ErrInvalidWaitTimeout,
		}
	}

	for field, name := range map[string]string{
		"cli.claude": c.CLI.Claude,
		"cli.codex":  c.CLI.Codex,
		"cli.gemini": c.CLI.Gemini,
	} {
		if err := ValidateCLIName(field, name); err != nil {
			return err
		}
	}

	for alias, model := range c.Models.Aliases {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(model) == "" {
			return &ValidationError{
				Field:   "models.aliases",
				Value:   alias,
				Message: "alias and model must be non-empty",
				Err:     ErrEmptyAlias,
			}
		}
	}

	return nil
}

// ValidateCLIName rejects relative paths containing a separator.
func ValidateCLIName(field, name string) error {
	if name == "" || filepath.IsAbs(name) {
		return nil
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return &ValidationError{
			Field:   field,
			Value:   name,
			Message: "relative paths are not allowed; use a simple name or an absolute path",
			Err:     ErrInvalidCLIName,
		}
	}
	return nil
}
