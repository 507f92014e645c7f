package journal

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/orb/orb"
)

// Summary aggregates a set of trades. PnL sums are exact decimals so long
// runs do not drift.
type Summary struct {
	Total    int
	Wins     int
	Losses   int
	TotalPnL decimal.Decimal
}

// WinRate is Wins/Total. ok is false when there are no trades.
func (s Summary) WinRate() (rate float64, ok bool) {
	if s.Total == 0 {
		return 0, false
	}
	return float64(s.Wins) / float64(s.Total), true
}

// AvgPnL is TotalPnL/Total. ok is false when there are no trades.
func (s Summary) AvgPnL() (avg decimal.Decimal, ok bool) {
	if s.Total == 0 {
		return decimal.Zero, false
	}
	return s.TotalPnL.Div(decimal.NewFromInt(int64(s.Total))), true
}

func (s *Summary) add(t orb.TradeRecord) {
	s.Total++
	switch {
	case t.Win():
		s.Wins++
	case t.Loss():
		s.Losses++
	}
	s.TotalPnL = s.TotalPnL.Add(decimal.NewFromFloat(t.PnL))
}

// Ledger is the append-only collection of a run's trades. It is safe for
// concurrent use; each Append is forwarded to the sinks in append order.
type Ledger struct {
	mu      sync.Mutex
	records []orb.TradeRecord
	sinks   []Journal
}

func NewLedger(sinks ...Journal) *Ledger {
	return &Ledger{sinks: sinks}
}

// Append stores rec and records it in every sink. The record is kept even
// when a sink fails; the sink errors are returned joined.
func (l *Ledger) Append(rec orb.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)

	var errs []error
	for _, s := range l.sinks {
		if err := s.RecordTrade(rec); err != nil {
			errs = append(errs, fmt.Errorf("record trade %s: %w", rec.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Len is the number of trades appended.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a copy in append order.
func (l *Ledger) Records() []orb.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]orb.TradeRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Sorted returns a copy ordered by date, instrument and exit time, which
// is independent of the order concurrent replays appended in.
func (l *Ledger) Sorted() []orb.TradeRecord {
	out := l.Records()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		return a.ExitTime.Before(b.ExitTime)
	})
	return out
}

func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s Summary
	for _, t := range l.records {
		s.add(t)
	}
	return s
}

// SummaryBy breaks the summary down per instrument.
func (l *Ledger) SummaryBy() map[string]Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Summary)
	for _, t := range l.records {
		s := out[t.Instrument]
		s.add(t)
		out[t.Instrument] = s
	}
	return out
}

// Instruments lists the instruments with at least one trade, sorted.
func (l *Ledger) Instruments() []string {
	by := l.SummaryBy()
	out := make([]string, 0, len(by))
	for k := range by {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ReasonCounts counts trades per exit reason.
func (l *Ledger) ReasonCounts() map[orb.Reason]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[orb.Reason]int)
	for _, t := range l.records {
		out[t.Reason]++
	}
	return out
}

// Close closes every sink.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, s := range l.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
