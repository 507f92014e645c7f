package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/orb/journal"
	"github.com/rustyeddy/orb/logger"
	"github.com/rustyeddy/orb/paper"
	"github.com/rustyeddy/orb/pkg/id"
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Paper trade today's session against a live feed",
	Long: `Paper polls the configured feed for today's completed candles and
runs them through the ORB strategy, one position per instrument. Closed
trades are appended to paper_orb_trades_<date>.csv in the trades
directory and, when --journal is set, to the configured journal too.

Polling idles until paper.start_after and stops at the latest session
end plus paper.grace; open positions are closed at the last seen price.
Interrupting the command closes them the same way.

Examples:
  orb paper
  orb paper --symbols SBIN,ICICIBANK --dir ./paper`,
	RunE: runPaper,
}

var (
	paperSymbols []string
	paperDir     string
	paperJournal bool
)

func init() {
	rootCmd.AddCommand(paperCmd)

	paperCmd.Flags().StringSliceVarP(&paperSymbols, "symbols", "s", nil, "only trade these symbols (default all configured)")
	paperCmd.Flags().StringVarP(&paperDir, "dir", "d", "", "directory for the daily trades CSV (default paper.trades_dir or .)")
	paperCmd.Flags().BoolVar(&paperJournal, "journal", false, "also record trades in the configured journal")
}

func runPaper(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := appConfig
	rc, err := resolve(cfg, paperSymbols)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	poll, err := cfg.PollInterval()
	if err != nil {
		return err
	}
	grace, err := cfg.GraceDuration()
	if err != nil {
		return err
	}
	startAfter, err := cfg.StartAfter()
	if err != nil {
		return err
	}

	src, err := newFetcher(cfg, rc)
	if err != nil {
		return fmt.Errorf("feed: %w", err)
	}

	dir := paperDir
	if dir == "" {
		dir = cfg.Paper.TradesDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("trades dir: %w", err)
	}

	path := paper.TradesFile(dir, time.Now().In(rc.loc))
	daily, err := journal.NewCSV(path)
	if err != nil {
		return fmt.Errorf("open trades file: %w", err)
	}
	sinks := []journal.Journal{daily}
	if paperJournal {
		j, err := journal.Open(cfg.Journal.Type, cfg.Journal.Path())
		if err != nil {
			daily.Close()
			return fmt.Errorf("open journal: %w", err)
		}
		sinks = append(sinks, j)
	}
	ledger := journal.NewLedger(sinks...)
	defer ledger.Close()

	lp, err := paper.NewLoop(src, rc.instruments, ledger, paper.Options{
		Interval:   rc.interval,
		Poll:       poll,
		Grace:      grace,
		StartAfter: startAfter,
		Location:   rc.loc,
		Logger:     logger.L(),
		IDFunc:     id.NewAt,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Paper trading %d instruments until %s\n", len(rc.instruments), lp.Cutoff().Format("15:04"))
	fmt.Printf("  Trades file: %s\n", path)

	runErr := lp.Run(ctx)

	fmt.Println()
	for _, st := range lp.Status() {
		fmt.Printf("  %-10s %-9s polls=%d failures=%d last=%s\n",
			st.Symbol, st.State, st.Polls, st.Failures, formatClock(st.Watermark, rc.loc))
	}
	for _, t := range ledger.Sorted() {
		fmt.Println(" ", t)
	}
	s := ledger.Summary()
	fmt.Printf("✓ %d paper trades, total PnL %s\n", s.Total, s.TotalPnL.StringFixed(2))

	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}

func formatClock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("15:04")
}
