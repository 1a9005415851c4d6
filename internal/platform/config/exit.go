package config

import (
	"fmt"
	"os"
)

// Exitf prints a formatted message to stderr and exits with status 1. The
// portal maintenance mains call it for flag and environment parse failures,
// before any store is opened.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
