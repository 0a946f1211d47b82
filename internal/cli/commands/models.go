package commands

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// ModelsOptions holds command-line options for the models command.
type ModelsOptions struct {
	ConfigPath   string
	SettingsPath string
	Output       string
}

// modelsOutput is the JSON form of the models command.
type modelsOutput struct {
	SettingsPath string `json:"settings_path"`
	settings.Settings
}

// NewModelsCommand creates the models command.
func NewModelsCommand() *cobra.Command {
	opts := &ModelsOptions{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Show the model settings configured in Kiro",
		Long: `Print the model selection and agent autonomy mode from the Kiro user
settings document (settings_path in the config, by default
<Kiro app folder>/User/settings.json).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default ~/.kiropulse/config.yaml)")
	cmd.Flags().StringVar(&opts.SettingsPath, "settings", "", "Kiro settings document (default from config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")

	return cmd
}

func runModels(cmd *cobra.Command, opts *ModelsOptions) error {
	ctx := commandContext(cmd)

	path := opts.SettingsPath
	if path == "" {
		cfg, err := loadConfig(ctx, opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		path = cfg.SettingsPath
	}

	s, err := settings.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch opts.Output {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(modelsOutput{SettingsPath: path, Settings: s})
	case "text":
		return outputModelsText(out, path, s)
	default:
		return fmt.Errorf("unsupported output format %q (use text or json)", opts.Output)
	}
}

func outputModelsText(w io.Writer, path string, s settings.Settings) error {
	fmt.Fprintf(w, "Settings: %s\n", path)
	if s.IsZero() {
		fmt.Fprintln(w, "No model settings found.")
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Configured Model: %s\n", valueOrNotSet(s.ConfiguredModel))
	fmt.Fprintf(w, "  Agent Model:      %s\n", valueOrNotSet(s.AgentModel))
	fmt.Fprintf(w, "  Autonomy Mode:    %s\n", valueOrNotSet(s.AutonomyMode))
	return nil
}

func valueOrNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
