package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/orb/journal"
	"github.com/rustyeddy/orb/orb"
)

// SampleTrades is how many trades PrintSummary lists per instrument.
const SampleTrades = 10

// PrintSummary writes the per-instrument sample trades and statistics
// followed by the totals over every instrument.
func PrintSummary(w io.Writer, res Result, l *journal.Ledger) {
	by := l.SummaryBy()

	for _, ir := range res.Instruments {
		if ir.Err != nil {
			fmt.Fprintf(w, "Skipped %s: %v\n", ir.Symbol, ir.Err)
			continue
		}
		if len(ir.Trades) == 0 {
			fmt.Fprintf(w, "No trades generated for %s.\n", ir.Symbol)
			continue
		}

		fmt.Fprintln(w)
		fmt.Fprintf(w, "===== SAMPLE TRADES (%s) =====\n", ir.Symbol)
		for i, t := range ir.Trades {
			if i == SampleTrades {
				fmt.Fprintf(w, "... %d more\n", len(ir.Trades)-SampleTrades)
				break
			}
			fmt.Fprintln(w, t)
		}

		fmt.Fprintln(w)
		fmt.Fprintf(w, "===== SUMMARY (%s) =====\n", ir.Symbol)
		printStats(w, by[ir.Symbol])
		printOutcomes(w, ir)
	}

	total := l.Summary()
	start, end := res.Period()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	if !start.IsZero() {
		fmt.Fprintf(w, "Start:         %s\n", start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", end.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Instruments:   %d\n", len(res.Instruments))
	if skipped := res.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(w, "Skipped:       %v\n", skipped)
	}
	printStats(w, total)

	if total.Total > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Exit Reasons")
		fmt.Fprintln(w, "--------------------------------------------------")
		counts := l.ReasonCounts()
		for _, r := range orb.Reasons {
			if n := counts[r]; n > 0 {
				fmt.Fprintf(w, "%-18s %d\n", r, n)
			}
		}
	}
	fmt.Fprintln(w, "==================================================")
}

func printStats(w io.Writer, s journal.Summary) {
	fmt.Fprintf(w, "Total trades:  %d\n", s.Total)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	if rate, ok := s.WinRate(); ok {
		fmt.Fprintf(w, "Win rate:      %.2f%%\n", rate*100)
	}
	fmt.Fprintf(w, "Total PnL:     %s\n", s.TotalPnL.StringFixed(2))
	if avg, ok := s.AvgPnL(); ok {
		fmt.Fprintf(w, "Avg / trade:   %s\n", avg.StringFixed(2))
	}
}

func printOutcomes(w io.Writer, ir InstrumentResult) {
	counts := ir.Outcomes()
	fmt.Fprintf(w, "Days:          %d (traded %d, no breakout %d, data gap %d)\n",
		len(ir.Days),
		counts[orb.OutcomeTraded],
		counts[orb.OutcomeNoBreakout],
		counts[orb.OutcomeDataGap]+counts[orb.OutcomeRangeOpen],
	)
}
