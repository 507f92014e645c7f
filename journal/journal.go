// Package journal records closed ORB trades: an in-memory Ledger with
// summary statistics, plus CSV and SQLite sinks and Org-mode rendering.
package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/orb/orb"
)

// Journal is a persistent trade sink.
type Journal interface {
	RecordTrade(orb.TradeRecord) error
	Close() error
}

// Open returns the sink named by kind ("csv" or "sqlite") at path.
func Open(kind, path string) (Journal, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "csv", "":
		return NewCSV(path)
	case "sqlite", "sqlite3":
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown journal type %q (supported: csv, sqlite)", kind)
	}
}

// Header is the column order of trade CSV files.
var Header = []string{
	"trade_id", "instrument", "date", "direction",
	"entry_time", "entry_price", "exit_time", "exit_price",
	"reason", "pnl",
}

// price renders the shortest decimal that parses back to x exactly.
func price(x float64) string {
	return decimal.NewFromFloat(x).String()
}
