package ui

import (
	"io"
	"os"
	"runtime"
)

// Terminal is where prompts are drawn and read. Out is never stdout: stdout
// carries the MCP response.
type Terminal struct {
	In          io.Reader
	Out         io.Writer
	Interactive bool
}

var openTTY = func() (*os.File, error) {
	name := "/dev/tty"
	if runtime.GOOS == "windows" {
		name = "CONIN$"
	}
	return os.Open(name)
}

// OpenTerminal prefers the controlling terminal, since stdin may be a pipe
// owned by the MCP server. Without one it falls back to stdin in plain mode.
func OpenTerminal() (Terminal, func()) {
	if tty, err := openTTY(); err == nil {
		return Terminal{In: tty, Out: os.Stderr, Interactive: true}, func() { _ = tty.Close() }
	}
	return Terminal{In: os.Stdin, Out: os.Stderr, Interactive: stdinIsInteractive()}, func() {}
}

func stdinIsInteractive() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
