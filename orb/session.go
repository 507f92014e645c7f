package orb

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/orb/market"
)

// SessionState tracks where a Session is in its day.
type SessionState int

const (
	// StateBuilding: the opening range is still accumulating.
	StateBuilding SessionState = iota
	// StateWatching: range frozen, waiting for a breakout.
	StateWatching
	// StateInTrade: a position is open.
	StateInTrade
	// StateDone: the day's trade closed or the session was finished.
	StateDone
)

func (s SessionState) String() string {
	switch s {
	case StateBuilding:
		return "BUILDING"
	case StateWatching:
		return "WATCHING"
	case StateInTrade:
		return "IN_TRADE"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Outcome summarizes a finished day.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeTraded
	OutcomeNoBreakout
	// OutcomeDataGap: no candle fell inside the opening window.
	OutcomeDataGap
	// OutcomeRangeOpen: window observed but no later candle closed it.
	OutcomeRangeOpen
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeTraded:
		return "traded"
	case OutcomeNoBreakout:
		return "no-breakout"
	case OutcomeDataGap:
		return "data-gap"
	case OutcomeRangeOpen:
		return "range-open"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Session runs the ORB rules for one instrument on one calendar day and
// emits at most one TradeRecord.
type Session struct {
	cfg  InstrumentConfig
	opts options
	date string

	rng      *OpeningRange
	breakout Breakout
	pos      *Position
	record   *TradeRecord
	finished bool

	last market.Candle
	seen bool
}

// NewSession starts an empty session for date (YYYY-MM-DD).
func NewSession(cfg InstrumentConfig, date string, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newSession(cfg, date, buildOptions(opts)), nil
}

func newSession(cfg InstrumentConfig, date string, o options) *Session {
	return &Session{
		cfg:  cfg,
		opts: o,
		date: date,
		rng:  NewOpeningRange(cfg.OpeningWindow),
	}
}

// OnCandle feeds the next candle. Candles at or before the last one seen
// are ignored, so re-delivered candles never change state. A record is
// returned on the candle that closes the day's trade.
func (s *Session) OnCandle(c market.Candle) (*TradeRecord, error) {
	if d := market.DayKey(c.Time, s.opts.loc); d != s.date {
		return nil, fmt.Errorf("%w: %s candle for %s session", ErrWrongDay, d, s.date)
	}
	if s.seen && !c.Time.After(s.last.Time) {
		return nil, nil
	}
	s.last, s.seen = c, true

	if s.finished || s.record != nil {
		return nil, nil
	}

	tod := ClockOf(c.Time, s.opts.loc)

	if !s.rng.Closed() {
		if !s.rng.Ingest(c, tod) {
			return nil, nil
		}
		s.opts.log.Debug("opening range closed",
			zap.String("symbol", s.cfg.Symbol),
			zap.String("date", s.date),
			zap.Float64("high", s.rng.High()),
			zap.Float64("low", s.rng.Low()),
		)
	}

	if s.pos == nil {
		if tod >= s.cfg.SessionEnd {
			return nil, nil
		}
		sig, ok := s.breakout.Evaluate(s.rng, c)
		if !ok {
			return nil, nil
		}
		s.pos = OpenPosition(s.cfg, sig, s.rng.Levels(), c)
		s.opts.log.Info("entry",
			zap.String("symbol", s.cfg.Symbol),
			zap.Stringer("direction", sig.Direction),
			zap.Float64("price", sig.Price),
			zap.Time("time", sig.Time),
			zap.Float64("stop", s.pos.StopPrice()),
			zap.Float64("t1", s.pos.T1Price()),
			zap.Float64("t2", s.pos.T2Price()),
		)
		return nil, nil
	}

	before := s.pos.Stage()
	ex, closed := s.pos.OnCandle(c, tod)
	if !closed {
		if before == StageBeforeT1 && s.pos.Stage() == StageAfterT1 {
			be, _ := s.pos.BreakEvenStop()
			s.opts.log.Info("t1 hit, half booked",
				zap.String("symbol", s.cfg.Symbol),
				zap.Float64("t1", s.pos.T1Price()),
				zap.Float64("break_even", be),
			)
		}
		return nil, nil
	}
	return s.emit(ex), nil
}

// Finish ends the day. An open position is closed at the last seen close
// with DAY_END_FALLBACK. Calling Finish again returns no record.
func (s *Session) Finish() (*TradeRecord, Outcome) {
	if s.finished {
		return nil, s.Outcome()
	}
	s.finished = true

	if s.pos != nil && s.record == nil {
		if ex, ok := s.pos.ForceClose(s.last); ok {
			return s.emit(ex), s.Outcome()
		}
	}
	return nil, s.Outcome()
}

func (s *Session) emit(ex Exit) *TradeRecord {
	rec := &TradeRecord{
		ID:         s.opts.newID(ex.Time),
		Instrument: s.cfg.Symbol,
		Date:       s.date,
		Direction:  s.pos.Direction(),
		EntryTime:  s.pos.EntryTime(),
		EntryPrice: s.pos.EntryPrice(),
		ExitTime:   ex.Time,
		ExitPrice:  ex.Price,
		Reason:     ex.Reason,
		PnL:        ex.PnL,
	}
	s.record = rec
	s.opts.log.Info("exit",
		zap.String("symbol", rec.Instrument),
		zap.String("reason", string(rec.Reason)),
		zap.Float64("price", rec.ExitPrice),
		zap.Float64("pnl", rec.PnL),
	)
	out := *rec
	return &out
}

// State reports where the session is in its day.
func (s *Session) State() SessionState {
	switch {
	case s.finished || s.record != nil:
		return StateDone
	case s.pos != nil:
		return StateInTrade
	case s.rng.Closed():
		return StateWatching
	default:
		return StateBuilding
	}
}

// Outcome is OutcomePending until the day traded or Finish was called.
func (s *Session) Outcome() Outcome {
	switch {
	case s.record != nil:
		return OutcomeTraded
	case !s.finished:
		return OutcomePending
	case !s.rng.Observed():
		return OutcomeDataGap
	case !s.rng.Closed():
		return OutcomeRangeOpen
	default:
		return OutcomeNoBreakout
	}
}

func (s *Session) Date() string { return s.date }
func (s *Session) Range() *OpeningRange { return s.rng }

// Position returns the open or closed position, nil before entry.
func (s *Session) Position() *Position { return s.pos }

// Record returns a copy of the day's trade, if it has closed.
func (s *Session) Record() (TradeRecord, bool) {
	if s.record == nil {
		return TradeRecord{}, false
	}
	return *s.record, true
}

// LastTime is the watermark: the newest candle time applied so far.
func (s *Session) LastTime() time.Time { return s.last.Time }
