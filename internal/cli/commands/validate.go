package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kiropulse/internal/cli/plugins"
	"github.com/ccollicutt/kiropulse/pkg/config"
	"github.com/ccollicutt/kiropulse/pkg/metrics"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a kiropulse configuration file without running analysis.

Checks:
  - YAML syntax
  - Field values (date range, workers, timezone)
  - Metric names in enabled_metrics
  - Custom parser names
  - Log directory and custom parser existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	metricNames := cfg.EnabledMetrics
	if len(metricNames) == 0 {
		metricNames = metrics.Names()
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Log directory:    %s\n", cfg.LogDir)
	fmt.Fprintf(out, "  Settings:         %s\n", cfg.SettingsPath)
	fmt.Fprintf(out, "  Default range:    %d day(s)\n", cfg.DefaultDateRangeDays)
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.OutputDirectory)
	fmt.Fprintf(out, "  Timezone:         %s\n", cfg.Location())

	fmt.Fprintf(out, "\nMetrics:\n")
	for i, name := range metricNames {
		fmt.Fprintf(out, "  %d. %s\n", i+1, name)
	}

	// Existence checks are warnings only
	if info, err := os.Stat(cfg.LogDir); err != nil {
		fmt.Fprintf(out, "\nWarning: Log directory is not accessible: %v\n", err)
	} else if !info.IsDir() {
		fmt.Fprintf(out, "\nWarning: Log directory is not a directory: %s\n", cfg.LogDir)
	}

	if len(cfg.CustomParsers) > 0 {
		fmt.Fprintf(out, "\nCustom parsers:\n")
		for _, name := range cfg.CustomParsers {
			path, err := plugins.FindParser(name)
			if err != nil {
				fmt.Fprintf(out, "  - %s: Warning: %s not found\n", name, plugins.ParserBinary(name))
				continue
			}
			fmt.Fprintf(out, "  - %s: %s\n", name, path)
		}
	}

	return nil
}
