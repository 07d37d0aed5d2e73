// Package debug provides env-gated diagnostic logging for the CLI.
//
// Set REDRAFT_DEBUG=1 (or pass --verbose) to see engine internals on
// stderr. Normal informational output goes through PrintNormal so
// --quiet can suppress it.
package debug

import (
	"fmt"
	"os"
)

var (
	enabled     = os.Getenv("REDRAFT_DEBUG") != ""
	verboseMode = false
	quietMode   = false
)

// Enabled reports whether debug output is active.
func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet suppresses non-essential output.
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet reports whether quiet mode is enabled.
func IsQuiet() bool {
	return quietMode
}

// Logf writes diagnostic output to stderr when debug is enabled.
func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintNormal prints informational output unless quiet mode is enabled.
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}
