package orb

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/orb/market"
)

// DayResult is the outcome of one finished Session.
type DayResult struct {
	Date    string
	Outcome Outcome
}

// Engine drives one instrument across days. Each calendar date gets its own
// Session; a date change finishes the previous one. Backtest replay and
// live polling both push candles through OnCandle.
type Engine struct {
	cfg  InstrumentConfig
	opts options

	cur  *Session
	last time.Time
	days []DayResult
}

// NewEngine validates cfg and returns an idle engine.
func NewEngine(cfg InstrumentConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	o.log = o.log.With(zap.String("symbol", cfg.Symbol))
	return &Engine{cfg: cfg, opts: o}, nil
}

// OnCandle applies c and returns any trades it closed. At a day boundary
// that can include the previous day's fallback exit. Candles at or before
// the engine's watermark are dropped.
func (e *Engine) OnCandle(c market.Candle) ([]TradeRecord, error) {
	if !e.last.IsZero() && !c.Time.After(e.last) {
		return nil, nil
	}

	var out []TradeRecord

	date := market.DayKey(c.Time, e.opts.loc)
	if e.cur != nil && e.cur.Date() != date {
		if rec := e.finish(); rec != nil {
			out = append(out, *rec)
		}
	}
	if e.cur == nil {
		e.cur = newSession(e.cfg, date, e.opts)
	}

	rec, err := e.cur.OnCandle(c)
	if err != nil {
		return out, err
	}
	e.last = c.Time
	if rec != nil {
		out = append(out, *rec)
	}
	return out, nil
}

// CandleSource yields candles in time order. *market.Iterator is one.
type CandleSource interface {
	Next() bool
	Candle() market.Candle
}

// Run drains src and flushes the last day.
func (e *Engine) Run(src CandleSource) ([]TradeRecord, error) {
	var out []TradeRecord
	for src.Next() {
		recs, err := e.OnCandle(src.Candle())
		out = append(out, recs...)
		if err != nil {
			return out, err
		}
	}
	if rec := e.Flush(); rec != nil {
		out = append(out, *rec)
	}
	return out, nil
}

// Flush finishes the current day, force-closing an open position.
func (e *Engine) Flush() *TradeRecord {
	if e.cur == nil {
		return nil
	}
	return e.finish()
}

func (e *Engine) finish() *TradeRecord {
	s := e.cur
	e.cur = nil

	rec, outcome := s.Finish()
	e.days = append(e.days, DayResult{Date: s.Date(), Outcome: outcome})

	switch outcome {
	case OutcomeDataGap:
		e.opts.log.Info("day skipped: no candles in opening window",
			zap.String("date", s.Date()),
			zap.Stringer("window", e.cfg.OpeningWindow),
		)
	case OutcomeRangeOpen:
		e.opts.log.Info("day skipped: opening range never closed", zap.String("date", s.Date()))
	case OutcomeNoBreakout:
		e.opts.log.Debug("no breakout", zap.String("date", s.Date()))
	}
	return rec
}

// Session returns the current day's session, nil between days.
func (e *Engine) Session() *Session { return e.cur }

// Days returns the outcomes of every finished day, oldest first.
func (e *Engine) Days() []DayResult {
	out := make([]DayResult, len(e.days))
	copy(out, e.days)
	return out
}

// Config returns the engine's instrument config.
func (e *Engine) Config() InstrumentConfig { return e.cfg }

// Watermark is the time of the newest candle applied.
func (e *Engine) Watermark() time.Time { return e.last }

// Location is the zone used for dates and times of day.
func (e *Engine) Location() *time.Location { return e.opts.loc }
