package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/orb/feed"
	"github.com/rustyeddy/orb/logger"
	"github.com/rustyeddy/orb/market"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download historical candles from Zerodha Kite or OANDA into CSV",
	Long: `Download pulls the last N days of candles at the configured interval
for each instrument and writes them to the instrument's csv path, ready
for orb backtest.

Sources:
  kite   - Zerodha Kite historical API, by kite_token (KITE_API_KEY, KITE_ACCESS_TOKEN)
  oanda  - OANDA v3 candles, symbol is the OANDA instrument (OANDA_TOKEN)

Examples:
  orb download
  orb download --days 30 --symbols NIFTY --out data/
  orb download --source oanda --symbols EUR_USD`,
	RunE: runDownload,
}

var (
	dlDays    int
	dlOut     string
	dlSource  string
	dlSymbols []string
)

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().IntVarP(&dlDays, "days", "n", 90, "number of calendar days to download")
	downloadCmd.Flags().StringVarP(&dlOut, "out", "o", "", "directory for the CSV files (default: the configured csv paths)")
	downloadCmd.Flags().StringVar(&dlSource, "source", "kite", "candle source: kite or oanda")
	downloadCmd.Flags().StringSliceVarP(&dlSymbols, "symbols", "s", nil, "only download these symbols (default all configured)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	if dlDays <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	cfg := appConfig
	rc, err := resolve(cfg, dlSymbols)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if dlSource != "kite" && dlSource != "oanda" {
		return fmt.Errorf("--source must be kite or oanda")
	}
	srcCfg := *cfg
	srcCfg.Feed.Source = dlSource
	src, err := newFetcher(&srcCfg, rc)
	if err != nil {
		return fmt.Errorf("%s: %w", dlSource, err)
	}

	to := time.Now().In(rc.loc)
	from := market.StartOfDay(to, rc.loc).AddDate(0, 0, -dlDays)

	for _, ic := range rc.instruments {
		in, _ := cfg.Instrument(ic.Symbol)
		path := in.CSV
		if path == "" {
			path = fmt.Sprintf("%s_%s.csv", ic.Symbol, cfg.Interval)
		}
		if dlOut != "" {
			path = filepath.Join(dlOut, filepath.Base(path))
		}

		candles, err := src.FetchCandles(ctx, ic.Symbol, from, to)
		if err != nil {
			return fmt.Errorf("download %s: %w", ic.Symbol, err)
		}
		if err := writeCandles(path, candles); err != nil {
			return err
		}
		logger.L().Info("candles downloaded",
			zap.String("symbol", ic.Symbol),
			zap.String("source", dlSource),
			zap.Int("candles", len(candles)),
			zap.String("path", path),
		)
		fmt.Printf("✓ Wrote %d candles for %s: %s\n", len(candles), ic.Symbol, path)
	}
	return nil
}

func writeCandles(path string, candles []market.Candle) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := feed.WriteCSV(f, candles); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
