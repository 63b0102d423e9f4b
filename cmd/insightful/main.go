package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"insightful/internal/cli"
	"insightful/internal/config"
)

const quickStart = `insightful - trace every interaction with a value

Quick start:
  insightful demo                       Run all observation scenarios
  insightful demo -s basic --summary    One scenario plus event counts
  insightful config show                Effective configuration

For help:
  insightful --help                     All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_prefix":  cfg.Prefix,
		"config_verbose": strconv.FormatBool(cfg.Verbose),
	}

	ctx := kong.Parse(&c,
		kong.Name("insightful"),
		kong.Description("Insightful: slap it onto a malfunctioning value and watch every interaction"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	// Create globals with config fallbacks
	globals := cli.NewGlobalsWithConfig(&c, cfg)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
