package cli

import (
	"os"

	"golang.org/x/term"
)

// IsNonInteractive reports whether output should skip terminal styling.
func IsNonInteractive() bool {
	if nonInteractive {
		return true
	}
	if _, ok := os.LookupEnv("NBTEMPLATES_NON_INTERACTIVE"); ok {
		return true
	}
	return !hasTTY()
}

// IsInteractive reports whether stdout is a styled terminal.
func IsInteractive() bool {
	return !IsNonInteractive()
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
