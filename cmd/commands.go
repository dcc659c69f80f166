package cmd

import (
	"github.com/spf13/cobra"
)

// RootCommand is the base CLI command that all tracecore subcommands are
// added to.
var RootCommand = &cobra.Command{
	Use:   "tracecore",
	Short: "Selective tracing engine for frame-level debugging",
	Long:  "tracecore hosts the selective trace dispatcher, breakpoint and code-info caches, condition evaluator, and tracing-backend abstraction described by the engine's design.",
}
