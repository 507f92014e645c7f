package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/orb/journal"
	"github.com/rustyeddy/orb/orb"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade records from the CSV or SQLite journal.

Subcommands:
  trade    - Get details of a specific trade by ID
  today    - List trades of today's session
  day      - List trades of a specific session day
  summary  - Win/loss statistics per instrument

Examples:
  orb journal trade 01J9Z8Q4B4X0VZ3M6C2Y7T5K1N
  orb journal today
  orb journal day 2024-01-15
  orb journal summary --type sqlite --path orb.sqlite`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades of today's session",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades of a specific session day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print win/loss statistics per instrument",
	Args:  cobra.NoArgs,
	RunE:  runJournalSummary,
}

var (
	journalType string
	journalPath string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalSummaryCmd)

	journalCmd.PersistentFlags().StringVarP(&journalType, "type", "t", "", "journal type: csv or sqlite (default from config)")
	journalCmd.PersistentFlags().StringVarP(&journalPath, "path", "p", "", "journal file (default from config)")
}

// tradeStore reads trades back from either journal type.
type tradeStore struct {
	db  *journal.SQLiteJournal
	csv []orb.TradeRecord
}

func openStore() (*tradeStore, error) {
	kind, path := appConfig.Journal.Type, appConfig.Journal.Path()
	if journalType != "" {
		kind = journalType
		if journalPath == "" {
			cfg := appConfig.Journal
			cfg.Type = kind
			path = cfg.Path()
		}
	}
	if journalPath != "" {
		path = journalPath
	}

	switch kind {
	case "sqlite", "sqlite3":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		db, err := journal.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return &tradeStore{db: db}, nil
	case "csv", "":
		recs, err := journal.ReadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("read trades: %w", err)
		}
		return &tradeStore{csv: recs}, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", kind)
	}
}

func (s *tradeStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *tradeStore) trade(tradeID string) (orb.TradeRecord, error) {
	if s.db != nil {
		return s.db.GetTrade(tradeID)
	}
	for _, t := range s.csv {
		if t.ID == tradeID {
			return t, nil
		}
	}
	return orb.TradeRecord{}, fmt.Errorf("trade %s not found", tradeID)
}

func (s *tradeStore) day(date string) ([]orb.TradeRecord, error) {
	if s.db != nil {
		return s.db.ListTradesByDate(date)
	}
	var out []orb.TradeRecord
	for _, t := range s.csv {
		if t.Date == date {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *tradeStore) all() ([]orb.TradeRecord, error) {
	if s.db != nil {
		return s.db.ListTradesClosedBetween(time.Unix(0, 0), time.Now().Add(24*time.Hour))
	}
	return s.csv, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.trade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	loc, err := appConfig.Location()
	if err != nil {
		return err
	}
	return printDay(time.Now().In(loc).Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	if _, err := time.Parse("2006-01-02", args[0]); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	return printDay(args[0])
}

func printDay(date string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.day(date)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	if len(recs) == 0 {
		fmt.Printf("No trades on %s.\n", date)
		return nil
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.all()
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	l := journal.NewLedger()
	for _, t := range recs {
		if err := l.Append(t); err != nil {
			return err
		}
	}

	by := l.SummaryBy()
	fmt.Printf("%-12s %7s %5s %7s %9s %12s %10s\n", "INSTRUMENT", "TRADES", "WINS", "LOSSES", "WIN RATE", "NET PNL", "AVG")
	for _, sym := range l.Instruments() {
		printSummaryRow(sym, by[sym])
	}
	printSummaryRow("ALL", l.Summary())
	return nil
}

func printSummaryRow(label string, s journal.Summary) {
	rate, _ := s.WinRate()
	avg, _ := s.AvgPnL()
	fmt.Printf("%-12s %7d %5d %7d %8.2f%% %12s %10s\n",
		label, s.Total, s.Wins, s.Losses, rate*100, s.TotalPnL.StringFixed(2), avg.StringFixed(2))
}
