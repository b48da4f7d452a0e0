// Package logging wires zerolog for the whole process. stdout is reserved for
// MCP responses, so every sink here is stderr or the state-dir log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashwch/cunzhi/internal/appdirs"
	"github.com/ashwch/cunzhi/internal/safety"
	"github.com/rs/zerolog"
)

const EnvLogLevel = "CUNZHI_LOG_LEVEL"

// Options controls where Init sends log lines.
type Options struct {
	// Console receives human-readable lines. nil disables console output.
	Console io.Writer
	// FilePath overrides the default state-dir log file. "-" disables it.
	FilePath string
	Level    string
}

// Logger is the process-wide logger. Init replaces it; until then it writes
// console lines to stderr so early failures are still visible.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// Init builds Logger from opts. On error Logger still writes to the console
// and the returned error tells the caller the file sink is missing.
func Init(opts Options) (io.Closer, error) {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	level := parseLevel(opts.Level)

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.RFC3339, NoColor: true})
	}

	file, err := openLogFile(opts.FilePath)
	if file != nil {
		writers = append(writers, file)
	}

	switch len(writers) {
	case 0:
		Logger = zerolog.Nop()
	case 1:
		Logger = zerolog.New(writers[0]).Level(level).With().Timestamp().Logger()
	default:
		Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	}

	if err != nil {
		return nopCloser{}, err
	}
	if file == nil {
		return nopCloser{}, nil
	}
	return file, nil
}

// Warn and Error redact their message before logging; callers pass free-form
// text that may contain tokens.
func Warn(msg string, err error) {
	ev := Logger.Warn()
	if err != nil {
		ev = ev.Str("error", safety.RedactText(err.Error()))
	}
	ev.Msg(safety.RedactText(msg))
}

func Error(msg string, err error) {
	ev := Logger.Error()
	if err != nil {
		ev = ev.Str("error", safety.RedactText(err.Error()))
	}
	ev.Msg(safety.RedactText(msg))
}

func Info(msg string) {
	Logger.Info().Msg(safety.RedactText(msg))
}

func parseLevel(raw string) zerolog.Level {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = os.Getenv(EnvLogLevel)
	}
	if value == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func openLogFile(path string) (*os.File, error) {
	path = strings.TrimSpace(path)
	if path == "-" {
		return nil, nil
	}
	if path == "" {
		var err error
		path, err = appdirs.LogFilePath()
		if err != nil {
			return nil, fmt.Errorf("could not resolve log path: %w", err)
		}
	}
	if err := appdirs.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
