package cli

import (
	"fmt"

	"insightful/internal/config"
)

// ConfigCmd groups the configuration inspection commands.
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show config file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a sample config file"`
}

// ConfigShowCmd shows the effective configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  prefix: %q\n", cfg.Prefix)
	fmt.Fprintf(globals.Stdout, "  verbose: %v\n", cfg.Verbose)
	fmt.Fprintln(globals.Stdout, "  Trace:")
	fmt.Fprintf(globals.Stdout, "    function_calls: %v\n", cfg.Trace.FunctionCalls)
	fmt.Fprintf(globals.Stdout, "    attribute_access: %v\n", cfg.Trace.AttributeAccess)
	fmt.Fprintf(globals.Stdout, "    attribute_assignment: %v\n", cfg.Trace.AttributeAssignment)
	fmt.Fprintf(globals.Stdout, "    attribute_deletion: %v\n", cfg.Trace.AttributeDeletion)
	fmt.Fprintf(globals.Stdout, "    show_method_access: %v\n", cfg.Trace.ShowMethodAccess)
	return nil
}

// ConfigPathCmd shows where configuration was loaded from
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()
	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found (using defaults)")
		return nil
	}
	fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	return nil
}

// ConfigGenerateCmd prints a sample configuration file
type ConfigGenerateCmd struct{}

const sampleConfig = `# insightful configuration
# Place in ~/.insightful.yaml or ./insightful.yaml

prefix: "Insight: "
verbose: false

trace:
  function_calls: true
  attribute_access: true
  attribute_assignment: true
  attribute_deletion: true
  show_method_access: false
`

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}
