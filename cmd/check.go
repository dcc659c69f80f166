package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracecore/tracecore/config"
)

func init() {
	var configFile string
	var overrides []string
	var format string

	checkCommand := &cobra.Command{
		Use:   "check",
		Short: "Validate and print the resolved engine configuration",
		Long:  "Load a configuration file, apply environment/flag overrides, inject defaults, and print the resolved result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(configFile, "tracecore-cli", overrides)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(opts)
			case "pretty", "":
				fmt.Fprintf(out, "enabled: %v\n", opts.Enabled)
				fmt.Fprintf(out, "backend: %s\n", opts.Backend)
				fmt.Fprintf(out, "cache_size: %d\n", opts.CacheSize)
				fmt.Fprintf(out, "cache_ttl_s: %v\n", opts.CacheTTLSeconds)
				fmt.Fprintf(out, "breakpoint_cache_size: %d\n", opts.BreakpointCacheSize)
				fmt.Fprintf(out, "condition_budget_s: %v\n", opts.ConditionBudgetSeconds)
				fmt.Fprintf(out, "performance_monitoring: %v\n", opts.PerformanceMonitoring)
				return nil
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	addConfigFileFlag(checkCommand.Flags(), &configFile)
	addConfigOverrideFlag(checkCommand.Flags(), &overrides)
	addOutputFormatFlag(checkCommand.Flags(), &format)

	RootCommand.AddCommand(checkCommand)
}
