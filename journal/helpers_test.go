package journal

import (
	"time"

	"github.com/rustyeddy/orb/orb"
)

var ist = time.FixedZone("IST", 19800)

func trade(id, sym, date string, dir orb.Direction, entry, exit, pnl float64, reason orb.Reason) orb.TradeRecord {
	d, err := time.ParseInLocation("2006-01-02", date, ist)
	if err != nil {
		panic(err)
	}
	return orb.TradeRecord{
		ID:         id,
		Instrument: sym,
		Date:       date,
		Direction:  dir,
		EntryTime:  d.Add(9*time.Hour + 35*time.Minute),
		EntryPrice: entry,
		ExitTime:   d.Add(10*time.Hour + 5*time.Minute),
		ExitPrice:  exit,
		Reason:     reason,
		PnL:        pnl,
	}
}

func sampleTrades() []orb.TradeRecord {
	return []orb.TradeRecord{
		trade("01J0000000000000000000000A", "NIFTY", "2025-01-02", orb.Long, 101, 100.5, 0.75, orb.ReasonTrailPrevLow),
		trade("01J0000000000000000000000B", "BANKNIFTY", "2025-01-02", orb.Short, 48000, 48120, -120, orb.ReasonStopBeforeT1),
		trade("01J0000000000000000000000C", "NIFTY", "2025-01-03", orb.Long, 22000.35, 22080.35, 60, orb.ReasonT1T2SameBar),
		trade("01J0000000000000000000000D", "NIFTY", "2025-01-06", orb.Short, 21900, 21900, 0, orb.ReasonEOD),
	}
}

// failingJournal rejects every trade.
type failingJournal struct {
	err    error
	closed bool
}

func (f *failingJournal) RecordTrade(orb.TradeRecord) error { return f.err }

func (f *failingJournal) Close() error {
	f.closed = true
	return nil
}
