package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/orb/orb"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

// RecordTrade inserts t. Re-recording the same trade ID is a no-op, so a
// restarted paper session can replay its day safely.
func (j *SQLiteJournal) RecordTrade(t orb.TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT OR IGNORE INTO trades
		(trade_id, instrument, date, direction, entry_time, entry_price, exit_time, exit_price, reason, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Instrument, t.Date, t.Direction.String(),
		t.EntryTime.UTC(), t.EntryPrice, t.ExitTime.UTC(), t.ExitPrice,
		string(t.Reason), t.PnL,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
