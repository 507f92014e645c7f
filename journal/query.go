package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/orb/orb"
)

const selectTrades = `
	SELECT trade_id, instrument, date, direction, entry_time, entry_price, exit_time, exit_price, reason, pnl
	FROM trades`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (orb.TradeRecord, error) {
	var (
		rec    orb.TradeRecord
		dir    string
		reason string
	)
	err := s.Scan(
		&rec.ID,
		&rec.Instrument,
		&rec.Date,
		&dir,
		&rec.EntryTime,
		&rec.EntryPrice,
		&rec.ExitTime,
		&rec.ExitPrice,
		&reason,
		&rec.PnL,
	)
	if err != nil {
		return orb.TradeRecord{}, err
	}
	if rec.Direction, err = orb.ParseDirection(dir); err != nil {
		return orb.TradeRecord{}, err
	}
	rec.Reason = orb.Reason(reason)
	return rec, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLiteJournal) GetTrade(tradeID string) (orb.TradeRecord, error) {
	rec, err := scanTrade(j.db.QueryRow(selectTrades+` WHERE trade_id = ?`, tradeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orb.TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return orb.TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose exit_time is within [start, end).
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]orb.TradeRecord, error) {
	return j.list(selectTrades+`
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC`, start.UTC(), end.UTC())
}

// ListTradesByDate returns the trades of one session date (YYYY-MM-DD),
// ordered by instrument.
func (j *SQLiteJournal) ListTradesByDate(date string) ([]orb.TradeRecord, error) {
	return j.list(selectTrades+`
		WHERE date = ?
		ORDER BY instrument ASC`, date)
}

func (j *SQLiteJournal) list(query string, args ...any) ([]orb.TradeRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orb.TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
