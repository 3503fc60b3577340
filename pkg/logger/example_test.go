package logger_test

import (
	"fmt"
	"os"

	"github.com/botpack/botpack/pkg/logger"
)

func ExampleNew() {
	// BOTPACK_DEBUG is read once when the package is initialized, so this
	// Setenv does not enable loggers created later in the same process;
	// start the process with BOTPACK_DEBUG=resolver:* to enable this one.
	os.Setenv("BOTPACK_DEBUG", "resolver:*")
	defer os.Unsetenv("BOTPACK_DEBUG")

	log := logger.New("resolver:resolve")
	if log.Enabled() {
		fmt.Println("Logger is enabled")
	}

	// Output:
}

func ExampleLogger_Printf() {
	os.Setenv("BOTPACK_DEBUG", "*")
	defer os.Unsetenv("BOTPACK_DEBUG")

	log := logger.New("resolver:resolve")
	log.Printf("resolved %d packages", 42)

	// When the process was started with BOTPACK_DEBUG=*, this writes
	// "resolver:resolve resolved 42 packages +<elapsed>" to stderr.
}
