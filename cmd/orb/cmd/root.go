package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/orb/config"
	"github.com/rustyeddy/orb/logger"
)

var (
	cfgFile  string
	envFile  string
	logLevel string

	// appConfig is loaded before every command runs.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "orb",
	Short: "Opening-range breakout backtester and paper trader",
	Long: `orb simulates an intraday opening-range breakout strategy on
fixed-interval candles.

It provides tools for:
  - Backtesting the strategy on historical candle CSVs or broker history
  - Paper trading today's session against a live candle feed
  - Downloading candles from Zerodha Kite into CSV
  - Querying and reporting the trade journal

Broker credentials are read from the environment (or a .env file):
  KITE_API_KEY, KITE_ACCESS_TOKEN, OANDA_TOKEN`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "orb.yaml", "config file (defaults are used when the default file is missing)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with broker credentials")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	appConfig = cfg

	lc := logger.LoadConfigFromEnv(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Tracing: cfg.Log.Tracing,
	})
	if logLevel != "" {
		lc.Level = logLevel
	}
	l, err := logger.Init(lc, os.Stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	l.Debug("configuration loaded", zap.String("path", cfgFile), zap.Int("instruments", len(cfg.Instruments)))
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func teardown(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return logger.Shutdown(ctx)
}
