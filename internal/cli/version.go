package cli

import "fmt"

// Version is stamped at build time via -ldflags.
var Version = "dev"

// VersionCmd prints version information
type VersionCmd struct{}

// Run executes the version command
func (c *VersionCmd) Run(globals *Globals) error {
	fmt.Fprintf(globals.Stdout, "insightful %s\n", Version)
	return nil
}
