package config

import (
	"fmt"
	"os"
)

// Exitf reports a startup failure on stderr and terminates the process
// with exit code 1. Only mains call it; everything below them returns
// errors.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
