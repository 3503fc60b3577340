package tty

import "testing"

func TestIsStdoutTerminal(t *testing.T) {
	// In test runs stdout is typically redirected, so this just exercises the
	// code path without asserting a specific value.
	_ = IsStdoutTerminal()
}

func TestIsStderrTerminal(t *testing.T) {
	_ = IsStderrTerminal()
}
