// Package paths provides a single source of truth for acm file paths.
// All path helpers honor environment variable overrides for isolated testing.
//
// Path resolution precedence:
//  1. Specific env vars (ACM_CONFIG, ACM_LOG_FILE) take highest priority
//  2. ACM_DIR env var sets the base directory (derives config and log paths)
//  3. Default behavior (~/.acm, ~/.config/acm) when no env vars are set
package paths

import (
	"os"
	"path/filepath"
)

// Environment variable names for path overrides.
const (
	// EnvDir is the base directory override (e.g., /tmp/acm-e2e).
	EnvDir = "ACM_DIR"

	// EnvConfigPath overrides the config file path directly.
	EnvConfigPath = "ACM_CONFIG"

	// EnvLogFile overrides the log file path directly.
	EnvLogFile = "ACM_LOG_FILE"
)

// Config file names, in lookup order.
var configFileNames = []string{"config.toml", "config.yaml", "config.yml"}

// BaseDir returns the acm base directory (~/.acm by default).
// Honors ACM_DIR environment variable.
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".acm"), nil
}

// ConfigDir returns the acm config directory (~/.config/acm by default).
// When ACM_DIR is set, returns ACM_DIR/config instead.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return filepath.Join(dir, "config"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "acm"), nil
}

// ConfigPath returns the path to the acm config file.
// The first existing file among config.toml, config.yaml and config.yml wins;
// when none exist the TOML path is returned.
func ConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return filepath.Join(dir, configFileNames[0]), nil
}

// LogPath returns the default log file path (~/.acm/acm.log).
// Precedence: ACM_LOG_FILE > ACM_DIR/acm.log > ~/.acm/acm.log
func LogPath() string {
	if path := os.Getenv(EnvLogFile); path != "" {
		return path
	}
	base, err := BaseDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "acm.log")
	}
	return filepath.Join(base, "acm.log")
}
