// Package cli provides the command-line interface for flowdsl.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to workspace config.yaml (default: config.yaml in the current directory, if present)",
		EnvVars: []string{"FLOWDSL_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write JSON logs to this file instead of stderr",
		EnvVars: []string{"FLOWDSL_LOG_FILE"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: []string{"FLOWDSL_LOG_LEVEL"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose output and debug logging",
		EnvVars: []string{"FLOWDSL_VERBOSE"},
	},
	&cli.StringSliceFlag{
		Name:    "catalog-dir",
		Usage:   "Extra step catalog directory (repeatable)",
		EnvVars: []string{"FLOWDSL_CATALOG_DIR"},
	},
	&cli.StringFlag{
		Name:    "metrics-file",
		Usage:   "Write Prometheus metrics to this textfile on exit",
		EnvVars: []string{"FLOWDSL_METRICS_FILE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "flowdsl",
		Usage:   "Convert integration flows between dialects and a canonical model",
		Version: Version,
		Description: `flowdsl reads Kamelet Bindings, Camel K Integrations and Kamelet
templates, converts them to a dialect-independent flow model and renders
them back.

Examples:
  flowdsl identify binding.yaml
  flowdsl convert binding.yaml > binding.json
  flowdsl render binding.json
  flowdsl check flows/ --report ./reports`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			convertCommand,
			renderCommand,
			identifyCommand,
			checkCommand,
			dialectsCommand,
			stepsCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
