package orb

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/orb/market"
)

var ist = time.FixedZone("IST", 19800)

// day is the default trading date for tests.
var day = time.Date(2025, 1, 2, 0, 0, 0, 0, ist)

func at(hhmm string, o, h, l, c float64) market.Candle {
	return atOn(day, hhmm, o, h, l, c)
}

func atOn(d time.Time, hhmm string, o, h, l, c float64) market.Candle {
	tod := MustClock(hhmm)
	return market.Candle{
		Time:  tod.On(d, ist),
		Open:  o,
		High:  h,
		Low:   l,
		Close: c,
	}
}

func testConfig(t *testing.T, stop, t1, t2 Policy) InstrumentConfig {
	t.Helper()
	cfg, err := NewInstrumentConfig("NIFTY",
		Window{Start: MustClock("09:15"), End: MustClock("09:30")},
		MustClock("15:15"),
		stop, t1, t2,
	)
	require.NoError(t, err)
	return cfg
}

// pointsConfig mirrors the index setup: OR-boundary stop, T1 2 points,
// T2 5 points.
func pointsConfig(t *testing.T) InstrumentConfig {
	return testConfig(t, RangeBoundary(0), FixedOffset(2), FixedOffset(5))
}

// openingBars builds a 100/95 opening range inside 09:15-09:30.
func openingBars() []market.Candle {
	return []market.Candle{
		at("09:15", 97, 99, 96, 98),
		at("09:20", 98, 100, 95, 97),
		at("09:25", 97, 98, 97, 97.5),
		at("09:30", 97.5, 99, 96, 98),
	}
}

func seqIDs() func(time.Time) string {
	n := 0
	return func(time.Time) string {
		n++
		return fmt.Sprintf("T%03d", n)
	}
}

func newTestSession(t *testing.T, cfg InstrumentConfig) *Session {
	t.Helper()
	s, err := NewSession(cfg, "2025-01-02", WithLocation(ist), WithIDFunc(seqIDs()))
	require.NoError(t, err)
	return s
}

// feed pushes candles and collects records, failing on errors.
func feed(t *testing.T, s *Session, candles ...market.Candle) []TradeRecord {
	t.Helper()
	var out []TradeRecord
	for _, c := range candles {
		rec, err := s.OnCandle(c)
		require.NoError(t, err)
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}
