// Package tty centralizes terminal-detection so console formatting decisions
// (color, box-drawing) are made in one place instead of scattered isatty calls.
package tty

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsStdoutTerminal reports whether stdout is attached to an interactive terminal.
func IsStdoutTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// IsStderrTerminal reports whether stderr is attached to an interactive terminal.
func IsStderrTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
