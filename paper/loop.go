// Package paper runs the ORB engines against a live feed for one trading
// day. Each poll fetches the day's completed candles, pushes the unseen
// ones through the instrument's engine and records closed trades.
package paper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rustyeddy/orb/feed"
	"github.com/rustyeddy/orb/journal"
	"github.com/rustyeddy/orb/logger"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

const (
	DefaultPoll  = 15 * time.Second
	DefaultGrace = 5 * time.Minute
)

// DefaultStartAfter is when polling begins.
var DefaultStartAfter = orb.MustClock("09:00")

// TradesFile is the daily paper trades CSV inside dir.
func TradesFile(dir string, day time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("paper_orb_trades_%s.csv", day.Format("2006-01-02")))
}

// Options configures a Loop. Zero values take the defaults.
type Options struct {
	Interval   time.Duration
	Poll       time.Duration
	Grace      time.Duration
	StartAfter orb.Clock
	Location   *time.Location

	Logger *zap.Logger
	IDFunc func(time.Time) string

	// Now and Sleep replace the wall clock in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

type tracker struct {
	cfg      orb.InstrumentConfig
	eng      *orb.Engine
	polls    int
	failures int
}

// Loop polls one feed for a set of instruments.
type Loop struct {
	feed   feed.Fetcher
	ledger *journal.Ledger
	opts   Options
	log    *zap.Logger

	day      time.Time
	cutoff   time.Time
	trackers []*tracker
}

// NewLoop builds an engine per instrument for the trading day that
// contains opts.Now().
func NewLoop(f feed.Fetcher, instruments []orb.InstrumentConfig, l *journal.Ledger, opts Options) (*Loop, error) {
	if f == nil {
		return nil, fmt.Errorf("paper: feed is required")
	}
	if l == nil {
		return nil, fmt.Errorf("paper: ledger is required")
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("paper: no instruments")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("paper: interval must be positive")
	}
	if opts.Poll <= 0 {
		opts.Poll = DefaultPoll
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.StartAfter == 0 {
		opts.StartAfter = DefaultStartAfter
	}
	if opts.Location == nil {
		opts.Location = orb.DefaultLocation()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Logger == nil {
		opts.Logger = logger.L()
	}

	lp := &Loop{
		feed:   f,
		ledger: l,
		opts:   opts,
		log:    opts.Logger,
		day:    market.StartOfDay(opts.Now(), opts.Location),
	}

	var end orb.Clock
	for _, cfg := range instruments {
		eng, err := orb.NewEngine(cfg,
			orb.WithLocation(opts.Location),
			orb.WithLogger(opts.Logger),
			orb.WithIDFunc(opts.IDFunc),
		)
		if err != nil {
			return nil, fmt.Errorf("paper: %w", err)
		}
		lp.trackers = append(lp.trackers, &tracker{cfg: cfg, eng: eng})
		if cfg.SessionEnd > end {
			end = cfg.SessionEnd
		}
	}
	lp.cutoff = end.On(lp.day, opts.Location).Add(opts.Grace)
	return lp, nil
}

// Cutoff is the wall-clock time the loop stops at.
func (lp *Loop) Cutoff() time.Time { return lp.cutoff }

// Day is the trading day being polled.
func (lp *Loop) Day() time.Time { return lp.day }

// Run polls until the cutoff or until ctx is done. Either way, open
// positions are closed at their last seen price before it returns.
func (lp *Loop) Run(ctx context.Context) error {
	lp.log.Info("paper loop started",
		zap.String("date", lp.day.Format("2006-01-02")),
		zap.Int("instruments", len(lp.trackers)),
		zap.Duration("poll", lp.opts.Poll),
		zap.Time("cutoff", lp.cutoff),
	)

	var errs []error
	for {
		now := lp.opts.Now()
		if !now.Before(lp.cutoff) {
			lp.log.Info("cutoff reached", zap.Time("now", now))
			break
		}

		if orb.ClockOf(now, lp.opts.Location) < lp.opts.StartAfter {
			lp.log.Debug("waiting for market open", zap.Stringer("start_after", lp.opts.StartAfter))
		} else if err := lp.Poll(ctx, now); err != nil {
			errs = append(errs, err)
		}

		if err := lp.opts.Sleep(ctx, lp.opts.Poll); err != nil {
			errs = append(errs, lp.flush(), err)
			return errors.Join(errs...)
		}
	}

	errs = append(errs, lp.flush())
	return errors.Join(errs...)
}

// Poll runs one pass over every instrument at now. Feed failures are
// logged and retried on the next poll. The returned error joins the
// Ledger sink failures.
func (lp *Loop) Poll(ctx context.Context, now time.Time) error {
	ctx, span := logger.StartSpan(ctx, "paper.poll",
		trace.WithAttributes(attribute.String("now", now.Format(time.RFC3339))))
	defer span.End()

	log := logger.With(ctx, lp.log)

	var errs []error
	for _, tr := range lp.trackers {
		if s := tr.eng.Session(); s != nil && s.State() == orb.StateDone {
			continue
		}
		tr.polls++

		from := tr.cfg.OpeningWindow.Start.On(lp.day, lp.opts.Location)
		candles, err := lp.feed.FetchCandles(ctx, tr.cfg.Symbol, from, now.In(lp.opts.Location))
		if err != nil {
			tr.failures++
			log.Warn("fetch failed, retrying next poll",
				zap.String("symbol", tr.cfg.Symbol),
				zap.Bool("unavailable", errors.Is(err, feed.ErrFeedUnavailable)),
				zap.Error(err),
			)
			continue
		}

		cs := market.NewCandleSet(tr.cfg.Symbol, lp.opts.Interval, candles)
		if dups, invalid := cs.Dropped(); dups+invalid > 0 {
			log.Warn("dropped candles",
				zap.String("symbol", tr.cfg.Symbol),
				zap.Int("duplicates", dups),
				zap.Int("invalid", invalid),
			)
		}
		for _, c := range Completed(cs.Candles, lp.opts.Interval, now) {
			recs, err := tr.eng.OnCandle(c)
			if err != nil {
				log.Error("candle rejected", zap.String("symbol", tr.cfg.Symbol), zap.Error(err))
				logger.RecordError(ctx, err)
				break
			}
			for _, rec := range recs {
				errs = append(errs, lp.record(rec))
			}
		}
	}
	return errors.Join(errs...)
}

func (lp *Loop) flush() error {
	var errs []error
	for _, tr := range lp.trackers {
		if rec := tr.eng.Flush(); rec != nil {
			errs = append(errs, lp.record(*rec))
		}
	}
	return errors.Join(errs...)
}

func (lp *Loop) record(rec orb.TradeRecord) error {
	lp.log.Info("paper trade closed",
		zap.String("trade_id", rec.ID),
		zap.String("symbol", rec.Instrument),
		zap.Stringer("direction", rec.Direction),
		zap.Float64("entry", rec.EntryPrice),
		zap.Float64("exit", rec.ExitPrice),
		zap.String("reason", string(rec.Reason)),
		zap.Float64("pnl", rec.PnL),
	)
	return lp.ledger.Append(rec)
}

// Status is a snapshot of one instrument.
type Status struct {
	Symbol    string
	Watermark time.Time
	State     orb.SessionState
	Polls     int
	Failures  int
}

// Status reports every instrument in configuration order.
func (lp *Loop) Status() []Status {
	out := make([]Status, 0, len(lp.trackers))
	for _, tr := range lp.trackers {
		st := Status{
			Symbol:    tr.cfg.Symbol,
			Watermark: tr.eng.Watermark(),
			State:     orb.StateBuilding,
			Polls:     tr.polls,
			Failures:  tr.failures,
		}
		if s := tr.eng.Session(); s != nil {
			st.State = s.State()
		}
		out = append(out, st)
	}
	return out
}

// Completed keeps the candles whose interval has ended by now.
func Completed(candles []market.Candle, interval time.Duration, now time.Time) []market.Candle {
	out := make([]market.Candle, 0, len(candles))
	for _, c := range candles {
		if !c.Time.Add(interval).After(now) {
			out = append(out, c)
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
