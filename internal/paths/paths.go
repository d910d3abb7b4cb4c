// Package paths resolves the configuration directory and scenario files.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Directory and file names.
const (
	appDirName      = "linkgraph"
	ScenarioDirName = "scenarios"
	ScenarioExt     = ".yaml"
)

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "LINKGRAPH_CONFIG_DIR"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/linkgraph (fallback ~/.config/linkgraph)
// macOS:   ~/Library/Application Support/linkgraph
// Windows: %APPDATA%/linkgraph
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appDirName), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > LINKGRAPH_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveScenario locates a scenario file. A name that exists as given
// (absolute, or relative to the working directory) wins. Otherwise the name
// is looked up in the scenarios directory under configDir, with the .yaml
// extension added when it has none.
func ResolveScenario(name, configDir string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("scenario %s: %w", name, os.ErrNotExist)
	}

	candidate := filepath.Join(configDir, ScenarioDirName, name)
	if filepath.Ext(candidate) == "" {
		candidate += ScenarioExt
	}
	_, err := os.Stat(candidate)
	switch {
	case err == nil:
		return candidate, nil
	case errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("scenario %s: %w", name, os.ErrNotExist)
	default:
		return "", fmt.Errorf("stat scenario: %w", err)
	}
}
