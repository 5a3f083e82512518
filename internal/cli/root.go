package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command error codes (E100-E119). Scenario validation codes live in
// internal/scenario (E200-E219) and pass through unchanged.
const (
	ErrCodeScenarioRead  = "E100" // scenario file unreadable
	ErrCodeScenarioRun   = "E101" // scenario executed but setup or flow failed
	ErrCodeAssertions    = "E102" // assertions failed
	ErrCodeSettingsRead  = "E103" // settings document unreadable
	ErrCodeSettingsParse = "E104" // settings rejected at setup
	ErrCodeDatabase      = "E105" // dispatch log unreadable
	ErrCodeRunNotFound   = "E106" // run token not in the dispatch log
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the brazekit CLI.
//
// Flag defaults resolve through viper: an optional config file
// (--config, or brazekit.yaml in the working directory) and
// BRAZEKIT_* environment variables, with explicit flags winning.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "brazekit",
		Short: "Braze destination simulator",
		Long: `Replay identify/track scenario fixtures through the destination
pipeline against a recording client, validate scenario documents, resolve
destination settings, and inspect logged dispatch traces.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveDefaults(cmd, opts); err != nil {
				return err
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default brazekit.yaml)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// resolveDefaults fills flags the user did not set from the config file
// and BRAZEKIT_* environment, e.g. BRAZEKIT_FORMAT=json.
func resolveDefaults(cmd *cobra.Command, opts *RootOptions) error {
	v := viper.New()
	v.SetEnvPrefix("BRAZEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("brazekit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Missing default config is fine; a malformed one is not.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	flags := cmd.Flags()
	if !flags.Changed("format") {
		opts.Format = v.GetString("format")
	}
	if !flags.Changed("verbose") {
		opts.Verbose = v.GetBool("verbose")
	}
	return nil
}
