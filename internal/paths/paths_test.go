package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDirs_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		xdgVar   string
		fn       func() (string, error)
		xdgWant  string
		homeWant string
	}{
		{"config", "XDG_CONFIG_HOME", DefaultConfigDir, "/tmp/xdg/rowedit", filepath.Join(home, ".config", "rowedit")},
		{"data", "XDG_DATA_HOME", DefaultDataDir, "/tmp/xdg/rowedit", filepath.Join(home, ".local", "share", "rowedit")},
		{"log", "XDG_STATE_HOME", DefaultLogDir, "/tmp/xdg/rowedit/logs", filepath.Join(home, ".local", "state", "rowedit", "logs")},
	}
	for _, tt := range tests {
		t.Run(tt.name+" uses XDG var when set", func(t *testing.T) {
			t.Setenv(tt.xdgVar, "/tmp/xdg")
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.xdgWant, got)
		})
		t.Run(tt.name+" falls back to home when XDG unset", func(t *testing.T) {
			t.Setenv(tt.xdgVar, "")
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.homeWant, got)
		})
	}
}

func TestDefaultConfigDir_HomeError(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	orig := platformDir.homeDir
	t.Cleanup(func() { platformDir.homeDir = orig })
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }

	t.Setenv("XDG_CONFIG_HOME", "")
	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestDefaultConfigDir_Darwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only test")
	}

	got, err := DefaultConfigDir()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "rowedit"), got)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string // substring the result must contain
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config"},
		{"env wins when flag empty", "", "/env/config", "/env/config"},
		{"platform default when both empty", "", "", "rowedit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		envVal        string
		want          string
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config.yaml wins over env", "", "/config/data", "/env/data", "/config/data"},
		{"env wins when flag and config empty", "", "", "/env/data", "/env/data"},
		{"CWD default when all empty", "", "", "", filepath.Join(cwd, DefaultDataDirName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configYAMLVal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveLogDir(t *testing.T) {
	t.Run("config value wins over env", func(t *testing.T) {
		t.Setenv(EnvLogDir, "/env/logs")
		got, err := ResolveLogDir("/config/logs")
		require.NoError(t, err)
		assert.Equal(t, "/config/logs", got)
	})

	t.Run("env when config empty", func(t *testing.T) {
		t.Setenv(EnvLogDir, "/env/logs")
		got, err := ResolveLogDir("")
		require.NoError(t, err)
		assert.Equal(t, "/env/logs", got)
	})

	t.Run("platform default", func(t *testing.T) {
		t.Setenv(EnvLogDir, "")
		got, err := ResolveLogDir("")
		require.NoError(t, err)
		assert.Contains(t, got, "rowedit")
	})
}

func TestResolve_RelativeBecomesAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	got, err := ResolveConfigDir("relative/path")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	got, err = ResolveDataDir("", "relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	t.Setenv(EnvConfigDir, "relative/env")
	got, err = ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}
