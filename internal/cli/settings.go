package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meterline/brazekit/internal/settings"
)

// ResolvedSettings is the printable projection of a parsed destination
// configuration. The API key itself never leaves the process.
type ResolvedSettings struct {
	DataCenter     string `json:"data_center"`
	Endpoint       string `json:"endpoint"`
	ConnectionMode string `json:"connection_mode"`
	Processes      bool   `json:"processes"`
	SupportDedup   bool   `json:"support_dedup"`
	APIKeyDigest   string `json:"api_key_digest"`
}

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings <settings.yaml>",
		Short: "Resolve a destination settings document",
		Long: `Parse a destination settings document the way New does at setup time
and print the resolved endpoint and modes, or the setup error that would
be surfaced to the host. Supported data centers: ` + strings.Join(settings.DataCenters(), ", ") + `.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSettings(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeSettingsRead, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read settings", err)
	}

	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		_ = formatter.Error(ErrCodeSettingsRead, fmt.Sprintf("%s: not a settings document: %v", path, err), nil)
		return WrapExitError(ExitCommandError, "decode settings", err)
	}

	parsed, err := settings.Parse(config)
	if err != nil {
		_ = formatter.Error(ErrCodeSettingsParse, err.Error(), nil)
		return WrapExitError(ExitFailure, "settings rejected", err)
	}

	resolved := resolveSettings(parsed)
	if formatter.Format == "json" {
		return formatter.SuccessJSON(resolved)
	}

	fmt.Fprintf(formatter.Writer, "data center:     %s\n", resolved.DataCenter)
	fmt.Fprintf(formatter.Writer, "endpoint:        %s\n", resolved.Endpoint)
	fmt.Fprintf(formatter.Writer, "connection mode: %s (processes events: %t)\n", resolved.ConnectionMode, resolved.Processes)
	fmt.Fprintf(formatter.Writer, "dedup:           %t\n", resolved.SupportDedup)
	fmt.Fprintf(formatter.Writer, "api key:         %s\n", resolved.APIKeyDigest)
	return nil
}

func resolveSettings(parsed *settings.Settings) *ResolvedSettings {
	return &ResolvedSettings{
		DataCenter:     parsed.DataCenter,
		Endpoint:       parsed.Endpoint,
		ConnectionMode: string(parsed.ConnectionMode),
		Processes:      parsed.ConnectionMode.Processes(),
		SupportDedup:   parsed.SupportDedup,
		APIKeyDigest:   digestKey(parsed.APIKey),
	}
}

// digestKey shows just enough of the key to tell configurations apart.
func digestKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}
