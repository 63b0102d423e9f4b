package cli

import (
	"io"
	"os"

	"insightful/internal/config"
)

// CLI is the top-level command tree.
type CLI struct {
	Verbose bool   `short:"v" help:"Enable verbose debug logging" default:"${config_verbose}"`
	Prefix  string `help:"Prefix for every trace line" default:"${config_prefix}"`

	Demo    DemoCmd    `cmd:"" help:"Run the built-in observation scenarios"`
	Config  ConfigCmd  `cmd:"" help:"Show or generate configuration"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// Globals carries shared state into every command.
type Globals struct {
	Verbose bool
	Prefix  string
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config

	logger *debugLogger
}

// NewGlobalsWithConfig builds Globals from parsed flags with config
// fallbacks already applied by kong vars.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Verbose: c.Verbose,
		Prefix:  c.Prefix,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	g.logger = newDebugLogger(g)
	return g
}

// Debug logs a verbose diagnostic line; a no-op unless --verbose.
func (g *Globals) Debug(format string, args ...interface{}) {
	g.logger.Debug(format, args...)
}
