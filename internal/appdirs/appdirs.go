// Package appdirs resolves where cunzhi keeps its config file and its logs.
package appdirs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const AppName = "cunzhi"

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "CUNZHI_CONFIG"

// location describes one per-user base directory on each platform. envVar is
// consulted first; fallback is relative to the home directory.
type location struct {
	envVar   string
	fallback []string
}

type layout struct {
	config location
	state  location
}

var layouts = map[string]layout{
	"darwin": {
		config: location{fallback: []string{"Library", "Application Support"}},
		state:  location{fallback: []string{"Library", "Application Support"}},
	},
	"windows": {
		config: location{envVar: "APPDATA", fallback: []string{"AppData", "Roaming"}},
		state:  location{envVar: "LOCALAPPDATA", fallback: []string{"AppData", "Local"}},
	},
	"unix": {
		config: location{envVar: "XDG_CONFIG_HOME", fallback: []string{".config"}},
		state:  location{envVar: "XDG_STATE_HOME", fallback: []string{".local", "state"}},
	},
}

func platformLayout() layout {
	if l, ok := layouts[runtime.GOOS]; ok {
		return l
	}
	return layouts["unix"]
}

func (l location) resolve() (string, error) {
	if l.envVar != "" {
		if value := strings.TrimSpace(os.Getenv(l.envVar)); value != "" {
			return value, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(append([]string{home}, l.fallback...)...), nil
}

func ConfigDir() (string, error) {
	base, err := platformLayout().config.resolve()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// ConfigFilePath honors CUNZHI_CONFIG before falling back to the platform
// config directory.
func ConfigFilePath() (string, error) {
	if override := strings.TrimSpace(os.Getenv(EnvConfigPath)); override != "" {
		return override, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func StateDir() (string, error) {
	base, err := platformLayout().state.resolve()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName, "state"), nil
}

// LogFilePath is the structured log file inside the state directory. The
// directory is created by whoever opens the file.
func LogFilePath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", AppName+".log"), nil
}

// EnsureDir creates dir and tightens it to owner-only access. Both the config
// file and the logs may hold a bot token.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create dir %s: %w", dir, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return fmt.Errorf("could not secure dir %s: %w", dir, err)
	}
	return nil
}
