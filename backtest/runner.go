// Package backtest replays historical candles through one orb.Engine per
// instrument and collects the closed trades in a journal.Ledger.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
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

// RunnerOptions controls how the backtest runner behaves.
type RunnerOptions struct {
	// From and To bound the fetched candles, [From, To). Zero is open.
	From time.Time
	To   time.Time

	Interval time.Duration
	Location *time.Location

	// Parallelism caps concurrent instrument replays. Zero means GOMAXPROCS.
	Parallelism int

	Logger *zap.Logger
	IDFunc func(time.Time) string
}

// Runner replays every configured instrument from Feed.
type Runner struct {
	Feed        feed.Fetcher
	Instruments []orb.InstrumentConfig
	Ledger      *journal.Ledger
	Options     RunnerOptions
}

// InstrumentResult is what one instrument's replay produced. Err is set
// when the instrument was skipped.
type InstrumentResult struct {
	Symbol     string
	Candles    int
	Duplicates int
	Invalid    int
	Days       []orb.DayResult
	Trades     []orb.TradeRecord
	Start      time.Time
	End        time.Time
	Err        error
}

// Outcomes counts the finished days by outcome.
func (ir InstrumentResult) Outcomes() map[orb.Outcome]int {
	out := make(map[orb.Outcome]int)
	for _, d := range ir.Days {
		out[d.Outcome]++
	}
	return out
}

// Result holds the per-instrument results in configuration order.
type Result struct {
	Instruments []InstrumentResult
}

// Trades is the number of trades over all instruments.
func (r Result) Trades() int {
	n := 0
	for _, ir := range r.Instruments {
		n += len(ir.Trades)
	}
	return n
}

// Skipped lists the symbols that could not be replayed.
func (r Result) Skipped() []string {
	var out []string
	for _, ir := range r.Instruments {
		if ir.Err != nil {
			out = append(out, ir.Symbol)
		}
	}
	return out
}

// Period is the span of candles replayed over all instruments.
func (r Result) Period() (start, end time.Time) {
	for _, ir := range r.Instruments {
		if ir.Candles == 0 {
			continue
		}
		if start.IsZero() || ir.Start.Before(start) {
			start = ir.Start
		}
		if ir.End.After(end) {
			end = ir.End
		}
	}
	return start, end
}

// Run replays the instruments concurrently. A feed failure skips that
// instrument only. Trades reach the Ledger once every replay is done, in
// configuration order, so sinks see a deterministic sequence. The returned
// error joins the Ledger sink failures.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Feed == nil {
		return Result{}, fmt.Errorf("backtest: Feed is required")
	}
	if r.Ledger == nil {
		return Result{}, fmt.Errorf("backtest: Ledger is required")
	}
	if len(r.Instruments) == 0 {
		return Result{}, fmt.Errorf("backtest: no instruments")
	}
	for _, cfg := range r.Instruments {
		if err := cfg.Validate(); err != nil {
			return Result{}, fmt.Errorf("backtest: %w", err)
		}
	}

	ctx, span := logger.StartSpan(ctx, "backtest.run",
		trace.WithAttributes(attribute.Int("instruments", len(r.Instruments))))
	defer span.End()

	log := logger.With(ctx, r.baseLogger())

	par := r.Options.Parallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, par)

	res := Result{Instruments: make([]InstrumentResult, len(r.Instruments))}
	var wg sync.WaitGroup
	for i, cfg := range r.Instruments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				res.Instruments[i] = InstrumentResult{Symbol: cfg.Symbol, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			res.Instruments[i] = r.replay(ctx, cfg)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		logger.RecordError(ctx, err)
		return res, err
	}

	var errs []error
	for _, ir := range res.Instruments {
		if ir.Err != nil {
			log.Warn("instrument skipped", zap.String("symbol", ir.Symbol), zap.Error(ir.Err))
			continue
		}
		for _, t := range ir.Trades {
			if err := r.Ledger.Append(t); err != nil {
				errs = append(errs, err)
			}
		}
		log.Info("instrument replayed",
			zap.String("symbol", ir.Symbol),
			zap.Int("candles", ir.Candles),
			zap.Int("days", len(ir.Days)),
			zap.Int("trades", len(ir.Trades)),
		)
	}
	err := errors.Join(errs...)
	logger.RecordError(ctx, err)
	return res, err
}

func (r *Runner) replay(ctx context.Context, cfg orb.InstrumentConfig) InstrumentResult {
	ctx, span := logger.StartSpan(ctx, "backtest.instrument",
		trace.WithAttributes(attribute.String("symbol", cfg.Symbol)))
	defer span.End()

	ir := InstrumentResult{Symbol: cfg.Symbol}
	log := logger.With(ctx, r.baseLogger())

	raw, err := r.Feed.FetchCandles(ctx, cfg.Symbol, r.Options.From, r.Options.To)
	if err != nil {
		ir.Err = fmt.Errorf("fetch %s: %w", cfg.Symbol, err)
		logger.RecordError(ctx, ir.Err)
		return ir
	}

	cs := market.NewCandleSet(cfg.Symbol, r.Options.Interval, raw)
	ir.Candles = cs.Len()
	ir.Duplicates, ir.Invalid = cs.Dropped()
	if ir.Duplicates > 0 || ir.Invalid > 0 {
		log.Warn("candles dropped",
			zap.String("symbol", cfg.Symbol),
			zap.Int("duplicates", ir.Duplicates),
			zap.Int("invalid", ir.Invalid),
		)
	}
	if ir.Candles == 0 {
		ir.Err = fmt.Errorf("%w: no candles for %s", feed.ErrFeedUnavailable, cfg.Symbol)
		return ir
	}
	ir.Start = cs.Candles[0].Time
	ir.End = cs.Candles[ir.Candles-1].Time

	eng, err := orb.NewEngine(cfg,
		orb.WithLocation(r.Options.Location),
		orb.WithLogger(log),
		orb.WithIDFunc(r.Options.IDFunc),
	)
	if err != nil {
		ir.Err = err
		return ir
	}

	it := cs.Iterator()
	trades, err := eng.Run(it)
	ir.Days = eng.Days()
	if err != nil {
		ir.Err = fmt.Errorf("replay %s: candle %d at %s: %w",
			cfg.Symbol, it.Index(), it.Time().Format(time.RFC3339), err)
		logger.RecordError(ctx, ir.Err)
		return ir
	}
	ir.Trades = trades
	span.SetAttributes(attribute.Int("trades", len(trades)))
	return ir
}

func (r *Runner) baseLogger() *zap.Logger {
	if r.Options.Logger != nil {
		return r.Options.Logger
	}
	return logger.L()
}
