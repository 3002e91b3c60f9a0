// Package styles colors plain terminal output written outside the editor,
// such as the document listing and startup errors.
package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout = termenv.NewOutput(os.Stdout)
	stderr = termenv.NewOutput(os.Stderr)

	ERROR = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("9")).
			String()
	}
	TITLE = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("12")).
			Bold().
			String()
	}
	DIM = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("8")).
			String()
	}
)

// ColorProfile returns the color profile detected for stdout.
func ColorProfile() termenv.Profile {
	return stdout.EnvColorProfile()
}
