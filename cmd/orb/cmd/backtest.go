package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/journal"
	"github.com/rustyeddy/orb/logger"
	"github.com/rustyeddy/orb/pkg/id"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical candles through the ORB strategy",
	Long: `Backtest replays every configured instrument's candles day by day,
one instrument per goroutine, and records each closed trade in the
configured journal.

A per-instrument summary (sample trades, wins, losses, win rate, P&L) is
printed when all instruments are done. Instruments whose candles cannot
be loaded are skipped.

Examples:
  orb backtest
  orb backtest --symbols NIFTY,BANKNIFTY --from 2024-01-01 --to 2024-07-01
  orb backtest --org reports/orb-5m.org --dataset nse-5m-2024`,
	RunE: runBacktest,
}

var (
	btSymbols   []string
	btFrom      string
	btTo        string
	btParallel  int
	btNoJournal bool
	btOrgPath   string
	btDataset   string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringSliceVarP(&btSymbols, "symbols", "s", nil, "only replay these symbols (default all configured)")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "first day to replay (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "replay up to, not including, this day (YYYY-MM-DD)")
	backtestCmd.Flags().IntVarP(&btParallel, "parallel", "p", 0, "instruments replayed at once (0 = GOMAXPROCS)")
	backtestCmd.Flags().BoolVar(&btNoJournal, "no-journal", false, "print the summary only, do not record trades")
	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "also write an Org-mode run report to this file")
	backtestCmd.Flags().StringVar(&btDataset, "dataset", "", "dataset name for the Org report")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := appConfig
	rc, err := resolve(cfg, btSymbols)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	from, err := parseDate(btFrom, rc.loc)
	if err != nil {
		return err
	}
	to, err := parseDate(btTo, rc.loc)
	if err != nil {
		return err
	}

	src, err := newFetcher(cfg, rc)
	if err != nil {
		return fmt.Errorf("feed: %w", err)
	}

	var sinks []journal.Journal
	if !btNoJournal {
		j, err := journal.Open(cfg.Journal.Type, cfg.Journal.Path())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		sinks = append(sinks, j)
	}
	ledger := journal.NewLedger(sinks...)
	defer ledger.Close()

	runID := id.New()
	log := logger.L().With(zap.String("run_id", runID))

	r := &backtest.Runner{
		Feed:        src,
		Instruments: rc.instruments,
		Ledger:      ledger,
		Options: backtest.RunnerOptions{
			From:        from,
			To:          to,
			Interval:    rc.interval,
			Location:    rc.loc,
			Parallelism: btParallel,
			Logger:      log,
			IDFunc:      id.NewAt,
		},
	}

	res, runErr := r.Run(ctx)
	if runErr != nil && ctx.Err() != nil {
		return fmt.Errorf("backtest: %w", runErr)
	}
	backtest.PrintSummary(os.Stdout, res, ledger)

	if !btNoJournal {
		fmt.Printf("\n✓ Recorded %d trades: %s (%s)\n", ledger.Len(), cfg.Journal.Path(), cfg.Journal.Type)
	}

	if btOrgPath != "" {
		run := journal.NewBacktestRun(runID, ledger, rules(cfg))
		run.Dataset = btDataset
		run.Interval = cfg.Interval
		run.OrgPath = btOrgPath
		if err := run.WriteBacktestOrg(); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
		fmt.Printf("✓ Created Org report: %s\n", btOrgPath)
	}

	if runErr != nil {
		return fmt.Errorf("journal: %w", runErr)
	}
	if skipped := res.Skipped(); len(skipped) == len(res.Instruments) {
		return fmt.Errorf("no instrument could be replayed")
	}
	return nil
}
