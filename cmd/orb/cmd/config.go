package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/orb/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage orb configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  orb config init --output orb.yaml
  orb config validate --file orb.yaml`,
	// the file being generated or checked may not load yet
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with the NSE index and stock defaults
(NIFTY, BANKNIFTY, SBIN, ICICIBANK on 5 minute candles).

Example:
  orb config init --output orb.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  orb config validate --file orb.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "orb.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "orb.yaml", "path to config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  orb backtest --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Timezone: %s  Interval: %s\n", cfg.Timezone, cfg.Interval)
	fmt.Printf("  Session: %s-%s, exit by %s\n", cfg.Session.WindowStart, cfg.Session.WindowEnd, cfg.Session.SessionEnd)
	for _, in := range cfg.Instruments {
		fmt.Printf("  %-10s %s\n", in.Symbol, in.Rules())
	}
	fmt.Printf("  Feed: %s\n", cfg.Feed.Source)
	fmt.Printf("  Journal: %s (%s)\n", cfg.Journal.Type, cfg.Journal.Path())
	return nil
}
