package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ashwch/cunzhi/internal/appdirs"
	"github.com/pelletier/go-toml/v2"
)

// RemoteResponder holds the two flags that decide whether a pending request
// may be answered without the local popup.
type RemoteResponder struct {
	Enabled            bool
	SuppressLocalPopup bool
}

// ConfigError reports a config store that exists but cannot be read or parsed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config unavailable: %v", e.Err)
	}
	return fmt.Sprintf("config %s unavailable: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LoadRemoteResponder reads the remote responder flags from the config file.
// It never creates or normalizes the file. A missing file yields both flags
// false. Anything that goes wrong is a *ConfigError, including a bad value in
// a section other than [telegram]: the headless path loads the whole file, so
// a file it cannot load must send the request to the popup instead.
func LoadRemoteResponder() (RemoteResponder, error) {
	path, err := appdirs.ConfigFilePath()
	if err != nil {
		return RemoteResponder{}, &ConfigError{Err: err}
	}
	return LoadRemoteResponderFrom(path)
}

func LoadRemoteResponderFrom(path string) (RemoteResponder, error) {
	bytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return RemoteResponder{}, nil
	}
	if err != nil {
		return RemoteResponder{}, &ConfigError{Path: path, Err: fmt.Errorf("could not read config file: %w", err)}
	}

	var raw Config
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return RemoteResponder{}, &ConfigError{Path: path, Err: fmt.Errorf("could not parse config file: %w", err)}
	}
	return raw.RemoteResponder(), nil
}
