package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Process exit codes for service binaries.
const (
	// ExitFailure reports a failure while the service was running.
	ExitFailure = 1
	// ExitConfig reports flags or environment that failed validation.
	ExitConfig = 2
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Exitf writes a formatted error message prefixed with the program name to
// stderr and exits with ExitFailure.
func Exitf(format string, args ...any) {
	exitf(ExitFailure, format, args...)
}

// ConfigExitf is Exitf for rejected configuration. It exits with ExitConfig
// so supervisors can tell a bad deploy from a crash.
func ConfigExitf(format string, args ...any) {
	exitf(ExitConfig, format, args...)
}

func exitf(code int, format string, args ...any) {
	fmt.Fprintf(stderr, "%s: %s\n", filepath.Base(os.Args[0]), fmt.Sprintf(format, args...))
	exit(code)
}
