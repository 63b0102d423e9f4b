package cli

import (
	"errors"
	"fmt"
)

// outputErrorCommon normalizes error emission across commands so every
// failure names a stable code alongside the message.
func outputErrorCommon(globals *Globals, code, message string, hint ...string) error {
	if globals != nil {
		fmt.Fprintf(globals.Stderr, "Error [%s]: %s", code, message)
		if len(hint) > 0 && hint[0] != "" {
			fmt.Fprintf(globals.Stderr, " (hint: %s)", hint[0])
		}
		fmt.Fprintln(globals.Stderr)
	}
	return errors.New(message)
}
