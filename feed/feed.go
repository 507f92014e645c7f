// Package feed supplies candles to the ORB engines: CSV files for
// backtests, Zerodha Kite and OANDA for live and historical data.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/orb/market"
)

// ErrFeedUnavailable marks transient failures and empty responses. Callers
// retry later (paper) or skip the instrument (backtest).
var ErrFeedUnavailable = errors.New("feed unavailable")

// Fetcher returns the candles of instrument with from <= Time < to in
// ascending time order. A zero bound is open. Gaps are allowed.
type Fetcher interface {
	FetchCandles(ctx context.Context, instrument string, from, to time.Time) ([]market.Candle, error)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFeedUnavailable, fmt.Sprintf(format, args...))
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func filterSorted(candles []market.Candle, from, to time.Time) []market.Candle {
	out := make([]market.Candle, 0, len(candles))
	for _, c := range candles {
		if inRange(c.Time, from, to) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Static serves fixed candles per instrument. Useful for replays and tests.
type Static map[string][]market.Candle

func (s Static) FetchCandles(ctx context.Context, instrument string, from, to time.Time) ([]market.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candles, ok := s[instrument]
	if !ok {
		return nil, unavailable("no candles for %s", instrument)
	}
	return filterSorted(candles, from, to), nil
}
