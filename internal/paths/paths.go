// Package paths resolves the configuration, data and log directories of
// rowedit.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "rowedit"

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".rowedit"
	DefaultDataDirName   = ".rowedit-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "ROWEDIT_CONFIG_DIR"
	EnvDataDir   = "ROWEDIT_DATA_DIR"
	EnvLogDir    = "ROWEDIT_LOG_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $xdgVar/rowedit on Linux, falling back to
// ~/<fallback...>/rowedit. Other platforms use os.UserConfigDir, which is
// ~/Library/Application Support on macOS and %APPDATA% on Windows.
func xdgDir(xdgVar string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/rowedit (fallback ~/.config/rowedit)
// macOS:   ~/Library/Application Support/rowedit
// Windows: %APPDATA%/rowedit
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/rowedit (fallback ~/.local/share/rowedit)
// macOS and Windows: same as the config dir.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// DefaultLogDir returns the directory the TUI writes its log files to.
//
// Linux:   $XDG_STATE_HOME/rowedit/logs (fallback ~/.local/state/rowedit/logs)
// macOS and Windows: <config dir>/logs
func DefaultLogDir() (string, error) {
	dir, err := xdgDir("XDG_STATE_HOME", ".local", "state")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > ROWEDIT_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config.yaml value > ROWEDIT_DATA_DIR > $(CWD)/.rowedit-db.
//
// The platform data dir is not part of the chain; a store next to the
// working directory is the default.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	for _, v := range []string{flag, configYAMLValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveLogDir returns the log directory: config.yaml value >
// ROWEDIT_LOG_DIR > DefaultLogDir().
func ResolveLogDir(configYAMLValue string) (string, error) {
	for _, v := range []string{configYAMLValue, os.Getenv(EnvLogDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return DefaultLogDir()
}
